package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "praxis.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PRAXIS_PORT")
	setString(&cfg.Server.CORSOrigin, "PRAXIS_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "PRAXIS_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "PRAXIS_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "PRAXIS_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "PRAXIS_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "PRAXIS_PG_HEALTH_CHECK")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Logging.Level, "PRAXIS_LOG_LEVEL")
	setString(&cfg.Logging.Service, "PRAXIS_LOG_SERVICE")
	setString(&cfg.Auth.JWTSecret, "PRAXIS_JWT_SECRET")
	setString(&cfg.Auth.Issuer, "PRAXIS_ISSUER")
	setDuration(&cfg.Auth.SessionTTL, "PRAXIS_SESSION_TTL")
	setDuration(&cfg.Auth.LinkTokenExpiry, "PRAXIS_LINK_TOKEN_EXPIRY")
	setInt(&cfg.Auth.BcryptCost, "PRAXIS_BCRYPT_COST")
	setDuration(&cfg.Auth.RevocationSweep, "PRAXIS_REVOCATION_SWEEP")
	setDuration(&cfg.Session.InactivityBudget, "PRAXIS_INACTIVITY_BUDGET")
	setDuration(&cfg.Session.ActivityThrottle, "PRAXIS_ACTIVITY_THROTTLE")
	setDuration(&cfg.Session.RevalidateInterval, "PRAXIS_REVALIDATE_INTERVAL")
	setInt64(&cfg.Cache.MaxSizeMB, "PRAXIS_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.OfficeTTL, "PRAXIS_CACHE_OFFICE_TTL")
	setBool(&cfg.Tracing.Enabled, "PRAXIS_TRACING_ENABLED")
	setString(&cfg.Tracing.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// validate checks config invariants that would otherwise surface as
// confusing runtime behavior.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server port is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth jwt_secret is required")
	}
	if cfg.Session.InactivityBudget <= 0 {
		return errors.New("session inactivity_budget must be positive")
	}
	if cfg.Session.ActivityThrottle <= 0 {
		return errors.New("session activity_throttle must be positive")
	}
	if cfg.Session.ActivityThrottle >= cfg.Session.InactivityBudget {
		return errors.New("session activity_throttle must be shorter than inactivity_budget")
	}
	if cfg.Auth.SessionTTL <= 0 {
		return errors.New("auth session_ttl must be positive")
	}
	if cfg.Auth.LinkTokenExpiry <= 0 {
		return errors.New("auth link_token_expiry must be positive")
	}
	if cfg.Auth.RevocationSweep <= 0 {
		return errors.New("auth revocation_sweep must be positive")
	}
	if cfg.Session.RevalidateInterval <= 0 {
		return errors.New("session revalidate_interval must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
