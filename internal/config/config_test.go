package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesEnvOverYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := []byte(`
server:
  port: "9000"
database:
  driver: sqlite
  url: file:trivia.db
questions:
  cache_ttl: 5m
`)
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DATABASE_URL", "file:override.db")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9000" || cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected yaml values, got %+v", cfg)
	}
	if cfg.Database.URL != "file:override.db" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("expected env overrides, got %+v", cfg)
	}
	if got := TTLDuration(cfg.Questions.CacheTTL, time.Minute); got != 5*time.Minute {
		t.Fatalf("expected 5m ttl, got %s", got)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Database.Driver != "memory" || cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected env parse error")
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %s", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for garbage, got %s", got)
	}
}
