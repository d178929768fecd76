package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoaderDefaults(t *testing.T) {
	result, err := NewLoader().
		WithPath(filepath.Join(t.TempDir(), "missing.yaml")).
		WithDotEnv(false).
		Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if result.Path != "" {
		t.Fatalf("expected empty path for missing file, got %q", result.Path)
	}

	cfg := result.Config
	if cfg.Auth.SessionTimeout.Std() != 30*time.Minute {
		t.Fatalf("unexpected session timeout: %v", cfg.Auth.SessionTimeout)
	}
	if cfg.Auth.MaxLoginAttempts != 5 {
		t.Fatalf("unexpected max login attempts: %d", cfg.Auth.MaxLoginAttempts)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Fatalf("unexpected store driver: %s", cfg.Store.Driver)
	}
}

func TestLoaderFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
auth:
  session_timeout: 10m
  max_login_attempts: 3
store:
  driver: memory
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	result, err := NewLoader().WithPath(path).WithDotEnv(false).Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	cfg := result.Config

	if cfg.Server.Port != 9090 {
		t.Fatalf("unexpected port: %d", cfg.Server.Port)
	}
	if cfg.Auth.SessionTimeout.Std() != 10*time.Minute {
		t.Fatalf("unexpected session timeout: %v", cfg.Auth.SessionTimeout)
	}
	if cfg.Auth.MaxLoginAttempts != 3 {
		t.Fatalf("unexpected max attempts: %d", cfg.Auth.MaxLoginAttempts)
	}
	if cfg.Store.Driver != "memory" {
		t.Fatalf("unexpected driver: %s", cfg.Store.Driver)
	}
	// Untouched sections keep their defaults.
	if cfg.Auth.LockoutDuration.Std() != 15*time.Minute {
		t.Fatalf("unexpected lockout duration: %v", cfg.Auth.LockoutDuration)
	}
}

func TestLoaderEnvOverrides(t *testing.T) {
	t.Setenv("PORTFOLIO_ADMIN_PASSWORD_SHA256", "deadbeef")
	t.Setenv("PORTFOLIO_STORE_DRIVER", "redis")
	t.Setenv("PORTFOLIO_WEB_PORT", "7070")

	result, err := NewLoader().
		WithPath(filepath.Join(t.TempDir(), "missing.yaml")).
		WithDotEnv(false).
		Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	cfg := result.Config

	if cfg.Auth.PasswordSHA256 != "deadbeef" {
		t.Fatalf("env password digest not applied: %s", cfg.Auth.PasswordSHA256)
	}
	if cfg.Store.Driver != "redis" {
		t.Fatalf("env store driver not applied: %s", cfg.Store.Driver)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("env port not applied: %d", cfg.Server.Port)
	}
}

func TestLoaderBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a mapping"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := NewLoader().WithPath(path).WithDotEnv(false).Load(); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}
