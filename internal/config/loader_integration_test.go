package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Integration tests that exercise the full LoadFrom pipeline:
// defaults < YAML < environment variables.

func TestLoadFrom_FullHierarchy(t *testing.T) {
	// YAML sets port=9090, env overrides to 7070. Env must win.
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte(`
server:
  port: "9090"
logging:
  level: "debug"
`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PRAXIS_PORT", "7070")
	t.Setenv("PRAXIS_LOG_LEVEL", "warn")
	t.Setenv("PRAXIS_JWT_SECRET", "integration-secret")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("env should win over YAML, got port %s", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("env should win over YAML, got level %s", cfg.Logging.Level)
	}
	// Untouched values still come from defaults.
	if cfg.Auth.SessionTTL != 12*time.Hour {
		t.Errorf("expected default session TTL, got %v", cfg.Auth.SessionTTL)
	}
}

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PRAXIS_JWT_SECRET", "integration-secret")
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port, got %s", cfg.Server.Port)
	}
}

func TestLoadFrom_InvalidSessionConfigRejected(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte(`
session:
  inactivity_budget: 5s
  activity_throttle: 10s
`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PRAXIS_JWT_SECRET", "integration-secret")

	if _, err := LoadFrom(yamlPath); err == nil {
		t.Fatal("throttle longer than budget should be rejected")
	}
}

func TestLoadFrom_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(yamlPath); err == nil {
		t.Fatal("malformed YAML should error")
	}
}
