package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/iho/pointledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.MaxBalance != 1_000_000 {
		t.Fatalf("expected default max balance 1000000, got %d", cfg.MaxBalance)
	}

	if cfg.StoreBackend != config.BackendMemory {
		t.Fatalf("expected memory backend by default, got %s", cfg.StoreBackend)
	}

	if cfg.AutoProvision {
		t.Fatalf("expected auto provisioning to be off by default")
	}

	if cfg.IdempotencyEnabled() {
		t.Fatalf("expected idempotency to be disabled without a redis URL")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("MAX_BALANCE", "5000")
	t.Setenv("AUTO_PROVISION", "true")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("RATE_LIMIT_RPS", "12.5")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" || !cfg.IdempotencyEnabled() {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.MaxBalance != 5000 || !cfg.AutoProvision {
		t.Fatalf("expected ledger settings to be set, got max=%d auto=%v", cfg.MaxBalance, cfg.AutoProvision)
	}

	if cfg.StoreBackend != config.BackendPostgres {
		t.Fatalf("expected postgres backend, got %s", cfg.StoreBackend)
	}

	if cfg.RateLimitRPS != 12.5 {
		t.Fatalf("expected rate limit override, got %v", cfg.RateLimitRPS)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "zero max balance", key: "MAX_BALANCE", val: "0"},
		{name: "negative max balance", key: "MAX_BALANCE", val: "-10"},
		{name: "unknown backend", key: "STORE_BACKEND", val: "mongo"},
		{name: "negative rate", key: "RATE_LIMIT_RPS", val: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}
