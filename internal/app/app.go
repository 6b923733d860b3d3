// Package app assembles the weather pipeline shared by the API and worker
// processes from a config.Config.
package app

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/skycast/skycast/internal/cache"
	"github.com/skycast/skycast/internal/config"
	"github.com/skycast/skycast/internal/provider/resilience"
	"github.com/skycast/skycast/internal/summary"
	"github.com/skycast/skycast/internal/telemetry"
	"github.com/skycast/skycast/internal/weather"
	"github.com/skycast/skycast/internal/weather/accuweather"
	"github.com/skycast/skycast/internal/weather/openmeteo"
)

// Upstream client names, as reported by the registry.
const (
	upstreamGeocoding  = "open-meteo-geocoding"
	upstreamOpenRouter = "openrouter"
)

// Stack is the assembled weather pipeline.
type Stack struct {
	Service   *weather.Service
	Summaries *summary.Generator
	Registry  *resilience.Registry

	// CacheName is "redis" or "memory".
	CacheName string

	// Redis is set when REDIS_URL selected the shared cache.
	Redis *cache.Redis

	closers []func() error
}

// Build wires providers, cache and summarizer. metrics may be nil.
func Build(cfg *config.Config, log zerolog.Logger, metrics *telemetry.WeatherMetrics) (*Stack, error) {
	registry := resilience.NewRegistry()
	stack := &Stack{Registry: registry}

	upstream := func(name string, role resilience.Role, retries uint64) *resilience.Client {
		cb := resilience.BreakerFor(name, role)
		cb.OnStateChange = func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("provider", name).
				Str("role", string(role)).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		}

		c := resilience.DefaultClientConfig(name, role)
		c.Timeout = cfg.UpstreamTimeout
		c.MaxRetries = retries
		c.CircuitBreaker = &cb
		c.Registry = registry
		return resilience.NewClient(c)
	}

	geocoder := openmeteo.NewGeocoder(openmeteo.GeocoderConfig{
		HTTPClient: upstream(upstreamGeocoding, resilience.RoleGeocoding, 1),
		Logger:     log,
	})

	primary := openmeteo.NewClient(openmeteo.ClientConfig{
		Geocoder:   geocoder,
		HTTPClient: upstream(openmeteo.ProviderName, resilience.RoleForecast, 1),
		Logger:     log,
	})

	secondary := accuweather.NewClient(accuweather.ClientConfig{
		APIKey:     cfg.AccuWeatherAPIKey,
		Fallback:   geocoder,
		HTTPClient: upstream(accuweather.ProviderName, resilience.RoleForecast, 1),
		Logger:     log,
	})
	if !secondary.Configured() {
		log.Warn().Msg("ACCUWEATHER_API_KEY not set, secondary provider will report misconfigured")
	}

	weatherCache, err := stack.buildCache(cfg, log)
	if err != nil {
		return nil, err
	}

	svcCfg := weather.ServiceConfig{
		Providers:   []weather.Provider{primary, secondary},
		Cache:       weatherCache,
		Logger:      log,
		CacheTTL:    cfg.CacheTTL,
		CallTimeout: cfg.UpstreamTimeout,
	}
	genCfg := summary.GeneratorConfig{
		Timeout: cfg.UpstreamTimeout,
		Logger:  log,
	}
	if metrics != nil {
		svcCfg.Metrics = metrics
		genCfg.Recorder = metrics
	}

	if summary.KeyConfigured(cfg.OpenRouterAPIKey) {
		genCfg.Completer = summary.NewOpenRouterClient(summary.OpenRouterConfig{
			APIKey:     cfg.OpenRouterAPIKey,
			BaseURL:    cfg.OpenRouterBaseURL,
			Model:      cfg.OpenRouterModel,
			Referer:    cfg.FrontendURL,
			HTTPClient: upstream(upstreamOpenRouter, resilience.RoleSummary, 0),
		})
	} else {
		log.Info().Msg("OPENROUTER_API_KEY not set, summaries use the template fallback")
	}

	stack.Service = weather.NewService(svcCfg)
	stack.Summaries = summary.NewGenerator(genCfg)

	log.Info().
		Strs("providers", stack.Service.ProviderNames()).
		Str("cache", stack.CacheName).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("weather pipeline ready")

	return stack, nil
}

func (s *Stack) buildCache(cfg *config.Config, log zerolog.Logger) (weather.Cache, error) {
	if cfg.RedisURL != "" {
		rc, client, err := cache.NewRedisFromURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("configuring redis cache: %w", err)
		}
		s.CacheName = "redis"
		s.Redis = rc
		s.closers = append(s.closers, client.Close)
		return rc, nil
	}

	mem := cache.NewMemory(cache.MemoryConfig{MaxEntries: cfg.CacheMaxEntries})
	s.CacheName = "memory"
	s.closers = append(s.closers, func() error {
		mem.Flush()
		return nil
	})
	log.Debug().Int("max_entries", cfg.CacheMaxEntries).Msg("using in-process cache")
	return mem, nil
}

// Close releases the cache connection.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
