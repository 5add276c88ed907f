// Package config loads NoteHub configuration from environment variables,
// optionally seeded from a .env file, and validates it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Web UI server
	Port string

	// Remote notes API
	APIBaseURL     string
	APIToken       string
	APITimeout     time.Duration
	APIRateLimit   float64 // requests per second
	APIRateBurst   int
	NotesPerPage   int
	SearchDebounce time.Duration

	// Query cache
	QueryStaleTime time.Duration
	QueryGCTime    time.Duration

	// Development notes API
	NotesAPIPort  string
	NotesAPIStore string // "mongo" or "memory"
	MongoURI      string
	MongoDatabase string

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Load reads .env when present, then the environment, and validates the
// result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the environment without validating it.
func FromEnv() *Config {
	return &Config{
		Port: getEnv("PORT", "7521"),

		APIBaseURL:     strings.TrimRight(getEnv("NOTEHUB_API_URL", "https://notehub-public.goit.study/api"), "/"),
		APIToken:       strings.TrimSpace(os.Getenv("NOTEHUB_TOKEN")),
		APITimeout:     parseDurationOrDefault("API_TIMEOUT", 10*time.Second),
		APIRateLimit:   parseFloat64OrDefault("API_RATE_LIMIT_RPS", 5),
		APIRateBurst:   parseIntOrDefault("API_RATE_LIMIT_BURST", 10),
		NotesPerPage:   parseIntOrDefault("NOTES_PER_PAGE", 12),
		SearchDebounce: parseDurationOrDefault("SEARCH_DEBOUNCE", 500*time.Millisecond),

		QueryStaleTime: parseDurationOrDefault("QUERY_STALE_TIME", time.Minute),
		QueryGCTime:    parseDurationOrDefault("QUERY_GC_TIME", 5*time.Minute),

		NotesAPIPort:  getEnv("NOTES_API_PORT", "7522"),
		NotesAPIStore: strings.ToLower(getEnv("NOTES_API_STORE", "memory")),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "notehub"),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string

	if u, err := url.Parse(c.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "NOTEHUB_API_URL must be an absolute URL")
	}
	if c.APITimeout <= 0 {
		errs = append(errs, "API_TIMEOUT must be positive")
	}
	if c.APIRateLimit <= 0 {
		errs = append(errs, "API_RATE_LIMIT_RPS must be positive")
	}
	if c.APIRateBurst <= 0 {
		errs = append(errs, "API_RATE_LIMIT_BURST must be positive")
	}
	if c.NotesPerPage <= 0 {
		errs = append(errs, "NOTES_PER_PAGE must be positive")
	}
	if c.SearchDebounce <= 0 {
		errs = append(errs, "SEARCH_DEBOUNCE must be positive")
	}
	if c.QueryStaleTime < 0 {
		errs = append(errs, "QUERY_STALE_TIME must not be negative")
	}
	if c.QueryGCTime <= 0 {
		errs = append(errs, "QUERY_GC_TIME must be positive")
	}
	if c.NotesAPIStore != "mongo" && c.NotesAPIStore != "memory" {
		errs = append(errs, `NOTES_API_STORE must be "mongo" or "memory"`)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err.Error())
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, `LOG_FORMAT must be "text" or "json"`)
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// ParseLevel maps LOG_LEVEL to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q is not a valid level", s)
	}
	return level, nil
}

// Helper functions for parsing environment variables

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseIntOrDefault(key string, defaultValue int) int {
	parsed, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseFloat64OrDefault(key string, defaultValue float64) float64 {
	parsed, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	parsed, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return parsed
}
