package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.SlotGranularityMinutes != 30 {
		t.Errorf("expected 30 minute grid, got %d", cfg.SlotGranularityMinutes)
	}
	if cfg.SlotCacheTTL != 30*time.Second {
		t.Errorf("expected 30s slot cache TTL, got %s", cfg.SlotCacheTTL)
	}
	if cfg.OutboxBatchSize != 25 {
		t.Errorf("expected outbox batch of 25, got %d", cfg.OutboxBatchSize)
	}
	if cfg.RateLimitBurst != 10 {
		t.Errorf("expected burst of 10, got %d", cfg.RateLimitBurst)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SLOT_GRANULARITY_MINUTES", "15")
	t.Setenv("SLOT_CACHE_TTL", "2m")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.SlotGranularityMinutes != 15 {
		t.Errorf("expected 15 minute grid, got %d", cfg.SlotGranularityMinutes)
	}
	if cfg.SlotCacheTTL != 2*time.Minute {
		t.Errorf("expected 2m TTL, got %s", cfg.SlotCacheTTL)
	}
	if !cfg.RedisTLS {
		t.Error("expected redis TLS enabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitPerSecond != 2.5 {
		t.Errorf("expected 2.5 rps, got %f", cfg.RateLimitPerSecond)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SLOT_GRANULARITY_MINUTES", "soon")
	t.Setenv("OUTBOX_INTERVAL", "whenever")

	cfg := Load()

	if cfg.SlotGranularityMinutes != 30 {
		t.Errorf("malformed int should fall back to default, got %d", cfg.SlotGranularityMinutes)
	}
	if cfg.OutboxInterval != 2*time.Second {
		t.Errorf("malformed duration should fall back to default, got %s", cfg.OutboxInterval)
	}
}
