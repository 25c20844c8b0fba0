// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// the HTTP server, chat history backend, and the knowledge fallback client.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// History backend identifiers.
const (
	HistoryBackendMemory = "memory"
	HistoryBackendSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	// Knowledge Fallback Configuration
	OpenAIAPIKey        string        // OpenAI API key; empty disables the fallback (degraded answers)
	OpenAISearchModel   string        // Web-search capable model for the primary fallback attempt
	OpenAIFallbackModel string        // Plain model used as the last-resort fallback
	FallbackTimeout     time.Duration // Upper bound on a single fallback call

	// Sentry Configuration (optional, disabled when token empty)
	SentryToken       string
	SentryHost        string
	SentryEnvironment string

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string // CORS allowed origins (default: all)

	// History Configuration
	HistoryBackend string        // "memory" (default) or "sqlite"
	DataDir        string        // Data directory for the SQLite history database
	HistoryTTL     time.Duration // Chats idle longer than this are pruned (default: 72h)
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAISearchModel:   getEnv("OPENAI_SEARCH_MODEL", "gpt-4o-search-preview"),
		OpenAIFallbackModel: getEnv("OPENAI_FALLBACK_MODEL", "gpt-4o"),
		FallbackTimeout:     getDurationEnv("FALLBACK_TIMEOUT", 60*time.Second),

		SentryToken:       getEnv("SENTRY_TOKEN", ""),
		SentryHost:        getEnv("SENTRY_HOST", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "production"),

		MetricsUsername: getEnv("METRICS_USERNAME", "prometheus"),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		Port:            getEnv("PORT", "5000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		AllowedOrigins:  getListEnv("ALLOWED_ORIGINS"),

		HistoryBackend: getEnv("HISTORY_BACKEND", HistoryBackendMemory),
		DataDir:        getEnv("DATA_DIR", "./data"),
		HistoryTTL:     getDurationEnv("HISTORY_TTL", 72*time.Hour),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.HistoryBackend != HistoryBackendMemory && c.HistoryBackend != HistoryBackendSQLite {
		errs = append(errs, fmt.Errorf("HISTORY_BACKEND must be %q or %q, got %q",
			HistoryBackendMemory, HistoryBackendSQLite, c.HistoryBackend))
	}
	if c.HistoryBackend == HistoryBackendSQLite && c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required for the sqlite history backend"))
	}
	if c.HistoryTTL <= 0 {
		errs = append(errs, fmt.Errorf("HISTORY_TTL must be positive, got %v", c.HistoryTTL))
	}
	if c.FallbackTimeout <= 0 {
		errs = append(errs, fmt.Errorf("FALLBACK_TIMEOUT must be positive, got %v", c.FallbackTimeout))
	}
	if c.OpenAISearchModel == "" {
		errs = append(errs, errors.New("OPENAI_SEARCH_MODEL cannot be empty"))
	}
	if c.OpenAIFallbackModel == "" {
		errs = append(errs, errors.New("OPENAI_FALLBACK_MODEL cannot be empty"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getListEnv retrieves a comma-separated environment variable as a slice.
// Returns nil when unset, which callers treat as "allow all".
func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// SQLitePath returns the full path to the SQLite history database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "chats.db")
}

// HasKnowledgeProvider returns true if the fallback LLM provider is configured.
func (c *Config) HasKnowledgeProvider() bool {
	return c.OpenAIAPIKey != ""
}
