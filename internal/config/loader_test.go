package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.MaxConns != 10 {
		t.Errorf("expected max_conns 10, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Session.InactivityBudget != 30*time.Minute {
		t.Errorf("expected inactivity budget 30m, got %v", cfg.Session.InactivityBudget)
	}
	if cfg.Session.ActivityThrottle != 5*time.Second {
		t.Errorf("expected activity throttle 5s, got %v", cfg.Session.ActivityThrottle)
	}
	if cfg.Session.RevalidateInterval != 5*time.Minute {
		t.Errorf("expected revalidate interval 5m, got %v", cfg.Session.RevalidateInterval)
	}
	if cfg.Auth.RevocationSweep != time.Hour {
		t.Errorf("expected revocation sweep 1h, got %v", cfg.Auth.RevocationSweep)
	}
	if cfg.Auth.JWTSecret != "" {
		t.Error("the signing secret must have no baked-in default")
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
  cors_origin: "http://example.com"
postgres:
  max_conns: 20
session:
  inactivity_budget: 45m
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.CORSOrigin != "http://example.com" {
		t.Errorf("expected cors http://example.com, got %s", cfg.Server.CORSOrigin)
	}
	if cfg.Postgres.MaxConns != 20 {
		t.Errorf("expected max_conns 20, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Session.InactivityBudget != 45*time.Minute {
		t.Errorf("expected inactivity budget 45m, got %v", cfg.Session.InactivityBudget)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	// Unchanged fields keep defaults
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected default NATS URL, got %s", cfg.NATS.URL)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	err := loadYAML(&cfg, "/nonexistent/path.yaml")
	if err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("PRAXIS_PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://test:test@db:5432/test")
	t.Setenv("PRAXIS_PG_MAX_CONNS", "25")
	t.Setenv("PRAXIS_LOG_LEVEL", "warn")
	t.Setenv("PRAXIS_INACTIVITY_BUDGET", "1h")
	t.Setenv("PRAXIS_TRACING_ENABLED", "true")

	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.DSN != "postgres://test:test@db:5432/test" {
		t.Errorf("expected test DSN, got %s", cfg.Postgres.DSN)
	}
	if cfg.Postgres.MaxConns != 25 {
		t.Errorf("expected max_conns 25, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
	if cfg.Session.InactivityBudget != time.Hour {
		t.Errorf("expected inactivity budget 1h, got %v", cfg.Session.InactivityBudget)
	}
	if !cfg.Tracing.Enabled {
		t.Error("expected tracing enabled")
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{
			name:   "empty port",
			modify: func(c *Config) { c.Server.Port = "" },
			errMsg: "server port is required",
		},
		{
			name:   "zero inactivity budget",
			modify: func(c *Config) { c.Session.InactivityBudget = 0 },
			errMsg: "session inactivity_budget must be positive",
		},
		{
			name:   "zero activity throttle",
			modify: func(c *Config) { c.Session.ActivityThrottle = 0 },
			errMsg: "session activity_throttle must be positive",
		},
		{
			name:   "throttle exceeds budget",
			modify: func(c *Config) { c.Session.ActivityThrottle = c.Session.InactivityBudget },
			errMsg: "session activity_throttle must be shorter than inactivity_budget",
		},
		{
			name:   "zero session TTL",
			modify: func(c *Config) { c.Auth.SessionTTL = 0 },
			errMsg: "auth session_ttl must be positive",
		},
		{
			name:   "zero link token expiry",
			modify: func(c *Config) { c.Auth.LinkTokenExpiry = 0 },
			errMsg: "auth link_token_expiry must be positive",
		},
		{
			name:   "missing jwt secret",
			modify: func(c *Config) { c.Auth.JWTSecret = "" },
			errMsg: "auth jwt_secret is required",
		},
		{
			name:   "zero revocation sweep",
			modify: func(c *Config) { c.Auth.RevocationSweep = 0 },
			errMsg: "auth revocation_sweep must be positive",
		},
		{
			name:   "zero revalidate interval",
			modify: func(c *Config) { c.Session.RevalidateInterval = 0 },
			errMsg: "session revalidate_interval must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Auth.JWTSecret = "x"
			tt.modify(&cfg)
			err := validate(&cfg)
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.errMsg)
			}
			if err.Error() != tt.errMsg {
				t.Errorf("expected %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Defaults()
	// The signing secret is the one field with no default; it must come
	// from the environment or YAML.
	cfg.Auth.JWTSecret = "test-secret"
	if err := validate(&cfg); err != nil {
		t.Errorf("defaults plus a secret should validate, got %v", err)
	}
}

func TestValidateRejectsBareDefaults(t *testing.T) {
	cfg := Defaults()
	err := validate(&cfg)
	if err == nil {
		t.Fatal("a deployment without a signing secret must be rejected")
	}
	if err.Error() != "auth jwt_secret is required" {
		t.Errorf("expected the missing-secret error, got %q", err.Error())
	}
}
