package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	// Response generation
	GeneratorURL     string        // empty means demo mode
	GeneratorTimeout time.Duration // hard timeout for the external generation call

	// Streaming
	StreamPollInterval time.Duration // fallback re-check interval for open streams

	// Book catalog
	DatabaseURL string // Postgres; empty falls back to SQLite
	SQLitePath  string

	// Rate limiting
	RedisURL           string
	RateLimitWhitelist []string // IPs or CIDRs exempt from rate limiting
	AutoBlockEnabled   bool     // Enable auto-blocking after repeated violations
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		GeneratorURL:       os.Getenv("GENERATOR_URL"),
		GeneratorTimeout:   getDuration("GENERATOR_TIMEOUT", 30*time.Second),
		StreamPollInterval: getDuration("STREAM_POLL_INTERVAL", 100*time.Millisecond),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SQLitePath:         getEnv("SQLITE_PATH", "./data/shelftalk.db"),
		RedisURL:           os.Getenv("REDIS_URL"),
		AutoBlockEnabled:   getEnv("AUTO_BLOCK_ENABLED", "false") == "true",
	}

	// Parse whitelist (comma-separated IPs or CIDRs)
	if whitelist := os.Getenv("RATE_LIMIT_WHITELIST"); whitelist != "" {
		for _, entry := range strings.Split(whitelist, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				cfg.RateLimitWhitelist = append(cfg.RateLimitWhitelist, entry)
			}
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// DemoMode reports whether responses come from the canned lookup table.
// Live generation is used only when a generator endpoint is configured.
func (c *Config) DemoMode() bool {
	return c.GeneratorURL == ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
