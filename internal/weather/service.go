package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Resolver turns a free-text city name into a Location.
type Resolver interface {
	Resolve(ctx context.Context, city string) (*Location, error)
}

// Provider defines the interface for weather data providers.
// Each provider owns its resolver, its code tables and its unit conversion.
type Provider interface {
	Resolver

	// GetCurrent fetches current conditions. Failure is fatal for the provider.
	GetCurrent(ctx context.Context, loc *Location) (*CurrentConditions, error)

	// GetHourly fetches the next 24 hours. Failure degrades to an empty slice.
	GetHourly(ctx context.Context, loc *Location) ([]HourlyForecast, error)

	// GetDaily fetches the daily forecast. Failure degrades to an empty slice.
	GetDaily(ctx context.Context, loc *Location) ([]DailyForecast, error)

	// Name returns the provider name for logging.
	Name() string
}

// Cache stores snapshots keyed by normalized city name.
type Cache interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) (*Snapshot, error)
	Set(ctx context.Context, key string, value *Snapshot, ttl time.Duration) error
}

// Metrics receives provider call and cache events.
type Metrics interface {
	RecordRequest(provider, operation string, duration time.Duration, err error)
	RecordCacheHit(provider, operation string)
	RecordCacheMiss(provider, operation string)
}

const (
	// DefaultCacheTTL is how long a provider-backed snapshot stays fresh.
	DefaultCacheTTL = 30 * time.Minute

	// DefaultCallTimeout bounds every single upstream call.
	DefaultCallTimeout = 10 * time.Second
)

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Providers are tried in order until one returns current conditions.
	Providers []Provider

	// Cache is optional; without it every call goes upstream.
	Cache Cache

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is the lifetime of a cached snapshot (default: 30 minutes).
	CacheTTL time.Duration

	// CallTimeout bounds each upstream call (default: 10 seconds).
	CallTimeout time.Duration

	// Metrics is optional.
	Metrics Metrics
}

// Service aggregates providers behind a cache.
type Service struct {
	providers   []Provider
	cache       Cache
	logger      zerolog.Logger
	cacheTTL    time.Duration
	callTimeout time.Duration
	metrics     Metrics
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = DefaultCacheTTL
	}

	callTimeout := cfg.CallTimeout
	if callTimeout == 0 {
		callTimeout = DefaultCallTimeout
	}

	return &Service{
		providers:   cfg.Providers,
		cache:       cfg.Cache,
		logger:      cfg.Logger,
		cacheTTL:    cacheTTL,
		callTimeout: callTimeout,
		metrics:     cfg.Metrics,
	}
}

// ProviderNames returns the configured providers in fallback order.
func (s *Service) ProviderNames() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}
	return names
}

// GetWeather returns the snapshot for a city.
// A fresh cached entry wins over any live call when useCache is set.
// Otherwise providers are tried in order and the first one that yields
// current conditions is cached and returned. Caller cancellation is
// ignored but a caller deadline still bounds the upstream calls.
func (s *Service) GetWeather(ctx context.Context, city string, useCache bool) (*Snapshot, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, ErrInvalidCity
	}

	key := CacheKey(city)

	if useCache && s.cache != nil {
		snap, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			s.recordCache(true)
			s.logger.Debug().Str("city", city).Msg("serving weather from cache")
			return snap, nil
		case errors.Is(err, ErrCacheMiss):
			s.recordCache(false)
		default:
			s.recordCache(false)
			s.logger.Warn().Err(err).Str("city", city).Msg("cache read failed")
		}
	}

	// Upstream calls run to completion or timeout even if the caller goes away.
	callCtx, cancel := detach(ctx)
	defer cancel()

	causes := make([]error, 0, len(s.providers))
	for _, p := range s.providers {
		snap, err := s.fetchFrom(callCtx, p, city)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("city", city).
				Str("provider", p.Name()).
				Msg("provider failed, trying next")
			causes = append(causes, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}

		if s.cache != nil {
			if err := s.cache.Set(callCtx, key, snap, s.cacheTTL); err != nil {
				s.logger.Warn().Err(err).Str("city", city).Msg("cache write failed")
			}
		}

		return snap, nil
	}

	lookupErr := &LookupError{City: city, Kind: classify(causes), Causes: causes}
	s.logger.Error().
		Err(errors.Join(causes...)).
		Str("city", city).
		Str("kind", lookupErr.Kind.Error()).
		Msg("no provider could serve city")

	return nil, lookupErr
}

// fetchFrom resolves the city and collects the three sub-fetches from one provider.
func (s *Service) fetchFrom(ctx context.Context, p Provider, city string) (*Snapshot, error) {
	loc, err := timed(ctx, s, p.Name(), "resolve", func(ctx context.Context) (*Location, error) {
		return p.Resolve(ctx, city)
	})
	if err != nil {
		return nil, &resolveError{err: err}
	}
	if loc == nil {
		return nil, &resolveError{err: fmt.Errorf("%w: empty location", ErrUpstreamMalformed)}
	}

	current, err := timed(ctx, s, p.Name(), "current", func(ctx context.Context) (*CurrentConditions, error) {
		return p.GetCurrent(ctx, loc)
	})
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: no current conditions", ErrUpstreamMalformed)
	}

	hourly, err := timed(ctx, s, p.Name(), "hourly", func(ctx context.Context) ([]HourlyForecast, error) {
		return p.GetHourly(ctx, loc)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("provider", p.Name()).Str("city", city).Msg("hourly forecast unavailable")
		hourly = nil
	}

	daily, err := timed(ctx, s, p.Name(), "daily", func(ctx context.Context) ([]DailyForecast, error) {
		return p.GetDaily(ctx, loc)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("provider", p.Name()).Str("city", city).Msg("daily forecast unavailable")
		daily = nil
	}

	if hourly == nil {
		hourly = []HourlyForecast{}
	}
	if daily == nil {
		daily = []DailyForecast{}
	}

	return &Snapshot{
		Location: *loc,
		Current:  *current,
		Hourly:   hourly,
		Daily:    daily,
		Provider: p.Name(),
	}, nil
}

// detach drops the caller's cancellation but keeps its deadline.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(detached, deadline)
	}
	return detached, func() {}
}

// resolveError marks a provider that failed before a location was known.
type resolveError struct {
	err error
}

func (e *resolveError) Error() string {
	return "resolve: " + e.err.Error()
}

func (e *resolveError) Unwrap() error {
	return e.err
}

// timed runs one upstream call under the per-call timeout and records it.
func timed[T any](ctx context.Context, s *Service, provider, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	start := time.Now()
	v, err := fn(ctx)
	if s.metrics != nil {
		s.metrics.RecordRequest(provider, op, time.Since(start), err)
	}

	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrUpstreamUnavailable) {
		err = fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return v, err
}

func (s *Service) recordCache(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.RecordCacheHit("cache", "weather")
	} else {
		s.metrics.RecordCacheMiss("cache", "weather")
	}
}

// classify picks the single error kind surfaced when every provider failed.
// The city is not found when every provider with credentials failed to
// resolve it, including resolver outages.
func classify(causes []error) error {
	unresolved, misconfigured := 0, 0
	for _, err := range causes {
		var re *resolveError
		switch {
		case errors.Is(err, ErrMisconfigured):
			misconfigured++
		case errors.As(err, &re):
			unresolved++
		}
	}

	switch {
	case len(causes) == 0:
		return ErrUpstreamUnavailable
	case misconfigured == len(causes):
		return ErrMisconfigured
	case unresolved > 0 && unresolved+misconfigured == len(causes):
		return ErrNotFound
	default:
		return ErrUpstreamUnavailable
	}
}
