package openmeteo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/provider/resilience"
	"github.com/skycast/skycast/internal/weather"
)

// DefaultGeocodingURL is the Open-Meteo geocoding API base URL.
const DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1"

// GeocoderConfig holds configuration for the geocoder.
type GeocoderConfig struct {
	// BaseURL is the geocoding API base URL (optional).
	BaseURL string

	// Language for localized place names. Default: "he".
	Language string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	// Logger for geocoder operations.
	Logger zerolog.Logger
}

// Geocoder resolves city names through the Open-Meteo geocoding API.
// It needs no credentials.
type Geocoder struct {
	baseURL    string
	language   string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewGeocoder creates a new geocoder.
func NewGeocoder(cfg GeocoderConfig) *Geocoder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultGeocodingURL
	}

	language := cfg.Language
	if language == "" {
		language = "he"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig("open-meteo-geocoding", resilience.RoleGeocoding))
	}

	return &Geocoder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   language,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Resolve returns the best match for city. The name is trusted as returned.
func (g *Geocoder) Resolve(ctx context.Context, city string) (*weather.Location, error) {
	q := url.Values{}
	q.Set("name", city)
	q.Set("count", "1")
	q.Set("language", g.language)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var resp geocodingResponse
	if err := g.httpClient.DoJSON(req, &resp); err != nil {
		return nil, weather.UpstreamError("geocoding", err)
	}

	if len(resp.Results) == 0 {
		g.logger.Debug().Str("city", city).Msg("geocoding returned no results")
		return nil, fmt.Errorf("geocoding %q: %w", city, weather.ErrNotFound)
	}

	r := resp.Results[0]
	return &weather.Location{
		Name:    r.Name,
		Country: r.Country,
		Lat:     r.Latitude,
		Lon:     r.Longitude,
	}, nil
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}
