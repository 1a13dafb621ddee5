package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "GENERATOR_URL", "GENERATOR_TIMEOUT",
		"STREAM_POLL_INTERVAL", "DATABASE_URL", "SQLITE_PATH",
		"REDIS_URL", "RATE_LIMIT_WHITELIST", "AUTO_BLOCK_ENABLED",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if !cfg.IsDevelopment() {
		t.Fatal("expected development by default")
	}
	if !cfg.DemoMode() {
		t.Fatal("expected demo mode with no generator URL")
	}
	if cfg.GeneratorTimeout != 30*time.Second {
		t.Fatalf("expected 30s generator timeout, got %v", cfg.GeneratorTimeout)
	}
	if cfg.StreamPollInterval != 100*time.Millisecond {
		t.Fatalf("expected 100ms poll interval, got %v", cfg.StreamPollInterval)
	}
	if cfg.SQLitePath != "./data/shelftalk.db" {
		t.Fatalf("unexpected sqlite path %q", cfg.SQLitePath)
	}
	if cfg.AutoBlockEnabled {
		t.Fatal("auto block should default to off")
	}
}

func TestLiveMode(t *testing.T) {
	t.Setenv("GENERATOR_URL", "https://generator.example.com/webhook")
	t.Setenv("GENERATOR_TIMEOUT", "5s")

	cfg := Load()
	if cfg.DemoMode() {
		t.Fatal("expected live mode when generator URL is set")
	}
	if cfg.GeneratorTimeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", cfg.GeneratorTimeout)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("GENERATOR_TIMEOUT", "not-a-duration")
	t.Setenv("STREAM_POLL_INTERVAL", "-3s")

	cfg := Load()
	if cfg.GeneratorTimeout != 30*time.Second {
		t.Fatalf("expected default timeout on parse failure, got %v", cfg.GeneratorTimeout)
	}
	if cfg.StreamPollInterval != 100*time.Millisecond {
		t.Fatalf("expected default interval on negative value, got %v", cfg.StreamPollInterval)
	}
}

func TestWhitelistParsing(t *testing.T) {
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 192.168.0.0/16 ,,")

	cfg := Load()
	if len(cfg.RateLimitWhitelist) != 2 {
		t.Fatalf("expected 2 whitelist entries, got %v", cfg.RateLimitWhitelist)
	}
	if cfg.RateLimitWhitelist[0] != "10.0.0.1" || cfg.RateLimitWhitelist[1] != "192.168.0.0/16" {
		t.Fatalf("unexpected whitelist: %v", cfg.RateLimitWhitelist)
	}
}
