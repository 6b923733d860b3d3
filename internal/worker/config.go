// Package worker keeps the weather cache warm for frequently requested
// cities, driven by a schedule or by Pub/Sub jobs.
package worker

import (
	"time"

	"github.com/skycast/skycast/internal/weather"
)

// WarmConfig holds configuration for the cache warm job.
type WarmConfig struct {
	// Cities are refreshed in order. Duplicates after key normalization are dropped.
	Cities []string

	// Concurrency is the number of cities refreshed at once.
	// Default: 3
	Concurrency int

	// Timeout bounds the refresh of a single city, including every provider
	// the fallback chain tries. Default: 30 seconds
	Timeout time.Duration
}

// DefaultWarmConfig warms only defaultCity.
func DefaultWarmConfig(defaultCity string) WarmConfig {
	return WarmConfig{
		Cities:      []string{defaultCity},
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

// withDefaults fills zero values and removes blank and duplicate cities.
func (c WarmConfig) withDefaults() WarmConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	c.Cities = UniqueCities(c.Cities)
	return c
}

// UniqueCities drops blank names and names sharing a cache key with an
// earlier entry.
func UniqueCities(cities []string) []string {
	seen := make(map[string]bool, len(cities))
	out := make([]string, 0, len(cities))
	for _, city := range cities {
		key := weather.CacheKey(city)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, city)
	}
	return out
}
