package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Upstream store API
	StoreAPIBaseURL string // e.g. https://api.example.com/api/v1
	StoreSlug       string // storefront selector appended to store routes

	// HTTP client: one fixed timeout for every upstream call
	HTTPTimeout time.Duration

	// Resilience (idempotent reads only; mutations are single-shot)
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Catalog
	CatalogTTL time.Duration // snapshot older than this is refreshed on access
	DetailTTL  time.Duration // product/order detail cache

	// Local persistence
	RedisURL string // empty disables redis; an in-memory store is used instead

	// Session
	SessionSecret string
	SessionTTL    time.Duration

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreAPIBaseURL: getEnv("STORE_API_BASE_URL", "http://localhost:8000/api/v1"),
		StoreSlug:       getEnv("STORE_SLUG", "pastita"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 30*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CatalogTTL: getEnvDuration("CATALOG_TTL", 5*time.Minute),
		DetailTTL:  getEnvDuration("DETAIL_TTL", 2*time.Minute),

		RedisURL: getEnv("REDIS_URL", ""),

		SessionSecret: getEnv("SESSION_SECRET", "storefront-default-dev-secret-change-me"),
		SessionTTL:    getEnvDuration("SESSION_TTL", 30*24*time.Hour),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
