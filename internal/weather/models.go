// Package weather aggregates forecasts from ordered providers behind a
// shared cache.
package weather

import (
	"errors"
	"fmt"
	"time"
)

// Weather errors.
var (
	// ErrNotFound means no geocoding backend produced a match for the city.
	ErrNotFound = errors.New("city not found")

	// ErrMisconfigured means a required credential is absent for a provider.
	ErrMisconfigured = errors.New("weather provider misconfigured")

	// ErrUpstreamUnavailable covers transport failures, timeouts, 5xx and open circuits.
	ErrUpstreamUnavailable = errors.New("weather provider unavailable")

	// ErrUpstreamMalformed means a 200 response lacked required fields.
	ErrUpstreamMalformed = errors.New("weather provider returned malformed data")

	// ErrInvalidCity is returned for an empty city name.
	ErrInvalidCity = errors.New("invalid city name")

	// ErrCacheMiss is returned by a Cache when the key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")
)

// LookupError is returned when no provider could serve a city.
// Kind is one of ErrNotFound, ErrMisconfigured or ErrUpstreamUnavailable.
type LookupError struct {
	City   string
	Kind   error
	Causes []error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no provider could serve %q: %v", e.City, e.Kind)
}

// Unwrap exposes only the kind so errors.Is matches a single class.
func (e *LookupError) Unwrap() error {
	return e.Kind
}

// Location is a resolved city.
type Location struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`

	// ProviderKey is the secondary provider's station identifier.
	// Empty unless that provider resolved the location.
	ProviderKey string `json:"providerKey,omitempty"`
}

// CurrentConditions are the observed conditions at fetch time.
type CurrentConditions struct {
	Temperature   float64   `json:"temperature"` // Celsius
	WindSpeed     float64   `json:"windSpeed"`   // km/h
	WindDirection *float64  `json:"windDirection,omitempty"`
	WeatherCode   *int      `json:"weatherCode,omitempty"`
	WeatherText   string    `json:"weatherText,omitempty"`
	Icon          string    `json:"icon"`
	Description   string    `json:"description"`
	Condition     Condition `json:"condition"`
	IsDay         bool      `json:"isDay"`
}

// DailyForecast is the forecast for one calendar day. Index 0 is today.
type DailyForecast struct {
	Date             string   `json:"date"` // YYYY-MM-DD
	MaxTemp          float64  `json:"maxTemp"`
	MinTemp          float64  `json:"minTemp"`
	PrecipitationSum *float64 `json:"precipitationSum"`
	MaxWindSpeed     *float64 `json:"maxWindSpeed,omitempty"`
	Sunrise          string   `json:"sunrise,omitempty"`
	Sunset           string   `json:"sunset,omitempty"`
	WeatherCode      *int     `json:"weatherCode,omitempty"`
	WeatherText      string   `json:"weatherText,omitempty"`
	Icon             string   `json:"icon"`
	Description      string   `json:"description"`
}

// HourlyForecast is the forecast for one hour.
type HourlyForecast struct {
	Time                     time.Time `json:"time"`
	Temperature              float64   `json:"temperature"`
	FeelsLike                float64   `json:"feelsLike"`
	Humidity                 float64   `json:"humidity"`
	WindSpeed                float64   `json:"windSpeed"`
	PrecipitationProbability float64   `json:"precipitationProbability"`
	WeatherCode              *int      `json:"weatherCode,omitempty"`
	WeatherText              string    `json:"weatherText,omitempty"`
	Icon                     string    `json:"icon"`
	Description              string    `json:"description"`
}

// Snapshot is the canonical weather model returned by every provider.
type Snapshot struct {
	Location Location          `json:"location"`
	Current  CurrentConditions `json:"current"`
	Hourly   []HourlyForecast  `json:"hourly"`
	Daily    []DailyForecast   `json:"daily"`

	// Provider names the adapter that produced the snapshot.
	Provider string `json:"provider"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	c := *s
	c.Current.WindDirection = cloneFloat(s.Current.WindDirection)
	c.Current.WeatherCode = cloneInt(s.Current.WeatherCode)

	c.Hourly = make([]HourlyForecast, len(s.Hourly))
	for i, h := range s.Hourly {
		h.WeatherCode = cloneInt(h.WeatherCode)
		c.Hourly[i] = h
	}

	c.Daily = make([]DailyForecast, len(s.Daily))
	for i, d := range s.Daily {
		d.PrecipitationSum = cloneFloat(d.PrecipitationSum)
		d.MaxWindSpeed = cloneFloat(d.MaxWindSpeed)
		d.WeatherCode = cloneInt(d.WeatherCode)
		c.Daily[i] = d
	}

	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Float returns a pointer to v. Used by adapters for optional fields.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
