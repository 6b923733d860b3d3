// Package resilience provides the HTTP client used for every upstream call
// (geocoding, forecast providers, LLM): a circuit breaker per upstream, a
// bounded per-call timeout, and optional retry of transient failures.
package resilience

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// Role is the part an upstream plays in answering a weather lookup.
// Each role trips and recovers on its own schedule.
type Role string

const (
	// RoleForecast is a weather provider in the fallback chain.
	RoleForecast Role = "forecast"
	// RoleGeocoding resolves city names ahead of a forecast call.
	RoleGeocoding Role = "geocoding"
	// RoleSummary is the LLM that writes the optional prose summary.
	RoleSummary Role = "summary"
)

// CircuitBreakerConfig holds the gobreaker settings for one upstream.
type CircuitBreakerConfig struct {
	Name string
	Role Role

	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32

	// Interval clears the closed-state counts. Zero keeps them until the
	// breaker changes state.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration

	ReadyToTrip func(counts gobreaker.Counts) bool

	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// BreakerFor returns the breaker settings for an upstream playing role.
// An unknown or empty role gets the forecast settings.
//
// Forecast providers trip at a 50% failure ratio over a one minute window.
// Geocoding trips after three failures in a row and goes half-open after
// 15s. The summarizer trips after two failures and stays open two minutes.
func BreakerFor(name string, role Role) CircuitBreakerConfig {
	cfg := CircuitBreakerConfig{
		Name:        name,
		Role:        role,
		MaxRequests: 1,
	}

	switch role {
	case RoleGeocoding:
		cfg.Interval = time.Minute
		cfg.Timeout = 15 * time.Second
		cfg.ReadyToTrip = ConsecutiveFailures(3)
	case RoleSummary:
		cfg.Timeout = 2 * time.Minute
		cfg.ReadyToTrip = ConsecutiveFailures(2)
	default:
		cfg.Role = RoleForecast
		cfg.Interval = time.Minute
		cfg.Timeout = 30 * time.Second
		cfg.ReadyToTrip = FailureRatio(5, 0.5)
	}

	return cfg
}

// FailureRatio trips once at least minRequests calls were made and the share
// of failures reaches ratio.
func FailureRatio(minRequests uint32, ratio float64) func(gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		if counts.Requests < minRequests || counts.Requests == 0 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
	}
}

// ConsecutiveFailures trips after n failures in a row.
func ConsecutiveFailures(n uint32) func(gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= n
	}
}

// NewCircuitBreaker creates a gobreaker instance from cfg.
func NewCircuitBreaker[T any](cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: cfg.ReadyToTrip,
	}

	if cfg.OnStateChange != nil {
		settings.OnStateChange = cfg.OnStateChange
	}

	return gobreaker.NewCircuitBreaker[T](settings)
}
