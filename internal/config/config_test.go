package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "SESSION_BACKEND", "HORIZON_DAYS", "MAX_INVALID_ATTEMPTS", "OPENROUTER_API_KEY", "AVAILABILITY_BASE_URL", "AVAILABILITY_API_KEY"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.SessionBackend != "memory" {
		t.Fatalf("expected memory session backend, got %s", cfg.SessionBackend)
	}
	if cfg.HorizonDays != 14 {
		t.Fatalf("expected 14 day horizon, got %d", cfg.HorizonDays)
	}
	if cfg.MaxInvalidAttempts != 3 {
		t.Fatalf("expected 3 invalid attempts, got %d", cfg.MaxInvalidAttempts)
	}
	if cfg.FallbackMaxTokens != 300 {
		t.Fatalf("expected 300 max tokens, got %d", cfg.FallbackMaxTokens)
	}
	if cfg.AvailabilityTimeout != 10*time.Second {
		t.Fatalf("expected 10s availability timeout, got %s", cfg.AvailabilityTimeout)
	}
	if cfg.AvailabilityConfigured() {
		t.Fatalf("expected availability unconfigured by default")
	}
	if len(cfg.Warnings()) < 2 {
		t.Fatalf("expected warnings for missing credentials, got %v", cfg.Warnings())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_BACKEND", " Redis ")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SESSION_TTL", "45m")
	t.Setenv("AVAILABILITY_BASE_URL", "https://agenda.example.com/api/")
	t.Setenv("AVAILABILITY_API_KEY", "k")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("FALLBACK_MAX_TOKENS", "150")
	t.Setenv("HORIZON_DAYS", "7")
	t.Setenv("REDIS_TLS", "true")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.SessionBackend != "redis" {
		t.Fatalf("expected normalized backend, got %q", cfg.SessionBackend)
	}
	if cfg.SessionTTL != 45*time.Minute {
		t.Fatalf("expected session ttl override, got %s", cfg.SessionTTL)
	}
	if cfg.AvailabilityBaseURL != "https://agenda.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.AvailabilityBaseURL)
	}
	if !cfg.AvailabilityConfigured() || !cfg.FallbackConfigured() {
		t.Fatalf("expected both integrations configured")
	}
	if cfg.FallbackMaxTokens != 150 {
		t.Fatalf("expected max tokens override, got %d", cfg.FallbackMaxTokens)
	}
	if cfg.HorizonDays != 7 {
		t.Fatalf("expected horizon override, got %d", cfg.HorizonDays)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
	if len(cfg.Warnings()) != 0 {
		t.Fatalf("expected no warnings, got %v", cfg.Warnings())
	}
}

func TestInvalidNumbersFallBackToDefaults(t *testing.T) {
	t.Setenv("HORIZON_DAYS", "catorce")
	t.Setenv("AVAILABILITY_TIMEOUT", "soon")
	t.Setenv("WEBHOOK_RATE_LIMIT", "fast")
	cfg := Load()
	if cfg.WebhookRateLimit != 5 {
		t.Fatalf("expected default webhook rate, got %v", cfg.WebhookRateLimit)
	}
	if cfg.HorizonDays != 14 {
		t.Fatalf("expected default horizon, got %d", cfg.HorizonDays)
	}
	if cfg.AvailabilityTimeout != 10*time.Second {
		t.Fatalf("expected default timeout, got %s", cfg.AvailabilityTimeout)
	}
}
