package http

import (
	"log/slog"

	"github.com/praxis-suite/praxis/internal/adapter/jwtauth"
	"github.com/praxis-suite/praxis/internal/adapter/otel"
	"github.com/praxis-suite/praxis/internal/service"
)

// Handlers bundles the services exposed over HTTP.
type Handlers struct {
	Auth     *jwtauth.Authenticator
	Sessions *service.SessionRegistry
	Offices  *service.OfficeService
	Metrics  *otel.Metrics
	Log      *slog.Logger
}

// NewHandlers creates the handler set. metrics may be nil.
func NewHandlers(auth *jwtauth.Authenticator, sessions *service.SessionRegistry, offices *service.OfficeService, metrics *otel.Metrics, log *slog.Logger) *Handlers {
	if log == nil {
		log = slog.Default()
	}
	return &Handlers{
		Auth:     auth,
		Sessions: sessions,
		Offices:  offices,
		Metrics:  metrics,
		Log:      log,
	}
}
