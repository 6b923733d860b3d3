package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/config"
)

var allKeys = []string{
	"APP_PORT", "APP_ENV", "LOG_LEVEL", "DEFAULT_CITY", "ACCUWEATHER_API_KEY",
	"OPENROUTER_API_KEY", "OPENROUTER_MODEL", "OPENROUTER_BASE_URL", "FRONTEND_URL",
	"CACHE_TTL", "CACHE_MAX_ENTRIES", "REDIS_URL", "UPSTREAM_TIMEOUT", "OTEL_ENABLED",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "REQUIRE_TLS", "PUBSUB_PROJECT_ID",
	"PUBSUB_SUBSCRIPTION", "WARM_CITIES", "WARM_INTERVAL", "WARM_CONCURRENCY",
	"OTEL_TRACES_SAMPLER_ARG",
}

// clearEnv blanks every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "Haifa", cfg.DefaultCity)
	assert.Equal(t, "http://localhost:3000", cfg.FrontendURL)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 1000, cfg.CacheMaxEntries)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 15*time.Minute, cfg.WarmInterval)
	assert.Equal(t, 3, cfg.WarmConcurrency)
	assert.Equal(t, []string{"Haifa"}, cfg.WarmCities)
	assert.Empty(t, cfg.AccuWeatherAPIKey)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.OTelEnabled)
	assert.InDelta(t, 1.0, cfg.TraceSampleRatio, 1e-9)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DEFAULT_CITY", "Tel Aviv")
	t.Setenv("ACCUWEATHER_API_KEY", "accu")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("CACHE_MAX_ENTRIES", "50")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.1")
	t.Setenv("WARM_CITIES", "Haifa, Eilat ,,Jerusalem")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "Tel Aviv", cfg.DefaultCity)
	assert.Equal(t, "accu", cfg.AccuWeatherAPIKey)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 50, cfg.CacheMaxEntries)
	assert.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	assert.True(t, cfg.OTelEnabled)
	assert.InDelta(t, 0.1, cfg.TraceSampleRatio, 1e-9)
	assert.Equal(t, []string{"Haifa", "Eilat", "Jerusalem"}, cfg.WarmCities)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"CACHE_TTL":               "soon",
		"UPSTREAM_TIMEOUT":        "-1s",
		"WARM_INTERVAL":           "0s",
		"CACHE_MAX_ENTRIES":       "many",
		"WARM_CONCURRENCY":        "-2",
		"OTEL_TRACES_SAMPLER_ARG": "2",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := config.FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Unsetenv("DEFAULT_CITY"))
	require.NoError(t, os.Unsetenv("OPENROUTER_MODEL"))
	t.Setenv("APP_PORT", "9090")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DEFAULT_CITY=Eilat\nAPP_PORT=1111\nOPENROUTER_MODEL=test/model\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("DEFAULT_CITY")
		_ = os.Unsetenv("OPENROUTER_MODEL")
	})

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Eilat", cfg.DefaultCity)
	assert.Equal(t, "test/model", cfg.OpenRouterModel)
	assert.Equal(t, "9090", cfg.Port, "environment wins over .env")
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "3001", cfg.Port)
}
