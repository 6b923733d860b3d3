// Package config assembles process configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds configuration shared by the API and worker processes.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// DefaultCity is used when a request names no city.
	DefaultCity string

	AccuWeatherAPIKey string

	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterBaseURL string

	// FrontendURL is the allowed CORS origin and the LLM referer.
	FrontendURL string

	CacheTTL        time.Duration
	CacheMaxEntries int

	// RedisURL selects the shared Redis cache when set.
	RedisURL string

	// UpstreamTimeout bounds each provider call.
	UpstreamTimeout time.Duration

	OTelEnabled  bool
	OTLPEndpoint string

	// TraceSampleRatio is the fraction of root traces exported.
	TraceSampleRatio float64

	RequireTLS bool

	PubSubProjectID    string
	PubSubSubscription string

	// WarmCities are refreshed by the worker; defaults to DefaultCity.
	WarmCities      []string
	WarmInterval    time.Duration
	WarmConcurrency int
}

// Load reads an optional .env file from the working directory, then the
// environment. Variables already set in the environment win over .env.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables with defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:               getenvDefault("APP_PORT", "3001"),
		Environment:        getenvDefault("APP_ENV", "development"),
		LogLevel:           getenvDefault("LOG_LEVEL", "info"),
		DefaultCity:        getenvDefault("DEFAULT_CITY", "Haifa"),
		AccuWeatherAPIKey:  os.Getenv("ACCUWEATHER_API_KEY"),
		OpenRouterAPIKey:   os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:    os.Getenv("OPENROUTER_MODEL"),
		OpenRouterBaseURL:  os.Getenv("OPENROUTER_BASE_URL"),
		FrontendURL:        getenvDefault("FRONTEND_URL", "http://localhost:3000"),
		RedisURL:           os.Getenv("REDIS_URL"),
		OTelEnabled:        os.Getenv("OTEL_ENABLED") == "true",
		OTLPEndpoint:       getenvDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		RequireTLS:         os.Getenv("REQUIRE_TLS") == "true",
		PubSubProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubSubscription: getenvDefault("PUBSUB_SUBSCRIPTION", "skycast-worker-jobs"),
	}

	var err error
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.UpstreamTimeout, err = getenvDuration("UPSTREAM_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.WarmInterval, err = getenvDuration("WARM_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.TraceSampleRatio, err = getenvFloat("OTEL_TRACES_SAMPLER_ARG", 1); err != nil {
		return nil, err
	}
	if cfg.CacheMaxEntries, err = getenvInt("CACHE_MAX_ENTRIES", 1000); err != nil {
		return nil, err
	}
	if cfg.WarmConcurrency, err = getenvInt("WARM_CONCURRENCY", 3); err != nil {
		return nil, err
	}

	cfg.WarmCities = splitList(os.Getenv("WARM_CITIES"))
	if len(cfg.WarmCities) == 0 {
		cfg.WarmCities = []string{cfg.DefaultCity}
	}

	return cfg, nil
}

// IsProduction reports whether the process runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if f < 0 || f > 1 {
		return 0, fmt.Errorf("invalid %s: must be between 0 and 1", key)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
