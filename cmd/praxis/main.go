// Command praxis runs the praxis API server: authentication, session
// lifecycle and office-scoped access control for legal practices.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	praxishttp "github.com/praxis-suite/praxis/internal/adapter/http"
	"github.com/praxis-suite/praxis/internal/adapter/jwtauth"
	praxisnats "github.com/praxis-suite/praxis/internal/adapter/nats"
	"github.com/praxis-suite/praxis/internal/adapter/otel"
	"github.com/praxis-suite/praxis/internal/adapter/postgres"
	praxisredis "github.com/praxis-suite/praxis/internal/adapter/redis"
	"github.com/praxis-suite/praxis/internal/adapter/ristretto"
	"github.com/praxis-suite/praxis/internal/config"
	"github.com/praxis-suite/praxis/internal/logger"
	"github.com/praxis-suite/praxis/internal/middleware"
	"github.com/praxis-suite/praxis/internal/service"
)

const serviceName = "praxis"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"inactivity_budget", cfg.Session.InactivityBudget,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// Redis (persisted session state)
	state, err := praxisredis.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer func() { _ = state.Close() }()
	slog.Info("redis connected")

	// NATS JetStream (lifecycle events)
	queue, err := praxisnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()
	slog.Info("nats connected")

	// OpenTelemetry
	var metrics *otel.Metrics
	if cfg.Tracing.Enabled {
		shutdown, err := otel.Setup(ctx, serviceName, cfg.Tracing.Endpoint)
		if err != nil {
			return fmt.Errorf("otel: %w", err)
		}
		defer func() {
			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shCtx)
		}()

		metrics, err = otel.NewMetrics()
		if err != nil {
			return fmt.Errorf("otel metrics: %w", err)
		}
	}

	// In-process office cache
	officeCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer officeCache.Close()

	// --- Services ---
	store := postgres.NewStore(pool)
	auth := jwtauth.New(store, &cfg.Auth)
	auth.StartRevocationCleanup(ctx, cfg.Auth.RevocationSweep)
	gate := service.NewAccountGate(store, queue, log)
	registry := service.NewSessionRegistry(auth, gate, state, queue, log, service.SessionConfig{
		InactivityBudget:   cfg.Session.InactivityBudget,
		ActivityThrottle:   cfg.Session.ActivityThrottle,
		RevalidateInterval: cfg.Session.RevalidateInterval,
	})
	offices := service.NewOfficeService(store, officeCache, log, cfg.Cache.OfficeTTL)

	// --- HTTP ---
	handlers := praxishttp.NewHandlers(auth, registry, offices, metrics, log)

	r := chi.NewRouter()
	r.Use(praxishttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(praxishttp.Logger)
	r.Use(praxishttp.SecurityHeaders)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	if cfg.Tracing.Enabled {
		r.Use(otel.HTTPMiddleware(serviceName))
	}

	r.Get("/health", healthHandler(pool))

	praxishttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// healthHandler reports liveness plus database reachability.
func healthHandler(pool interface {
	Ping(ctx context.Context) error
}) http.HandlerFunc {
	type healthStatus struct {
		Status   string `json:"status"`
		Postgres string `json:"postgres"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{Status: "ok", Postgres: "ok"}
		if err := pool.Ping(r.Context()); err != nil {
			status.Status = "degraded"
			status.Postgres = err.Error()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
