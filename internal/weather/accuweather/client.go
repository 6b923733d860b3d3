// Package accuweather is the secondary weather provider.
package accuweather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/provider/resilience"
	"github.com/skycast/skycast/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "accuweather"

	// DefaultBaseURL is the AccuWeather data service base URL.
	DefaultBaseURL = "http://dataservice.accuweather.com"
)

// ErrMissingAPIKey is returned by every call when no API key is configured.
var ErrMissingAPIKey = fmt.Errorf("AccuWeather API key not configured (ACCUWEATHER_API_KEY): %w", weather.ErrMisconfigured)

// ClientConfig holds configuration for the AccuWeather client.
type ClientConfig struct {
	// APIKey is the AccuWeather API key. Without it every call fails
	// with weather.ErrMisconfigured and no request is made.
	APIKey string

	// BaseURL is the API base URL (optional, defaults to the data service).
	BaseURL string

	// Language for localized names. Default: "he".
	Language string

	// Fallback resolves coordinates when the city search finds nothing.
	// Optional; without it the search result is final.
	Fallback weather.Resolver

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger

	// Now returns the current time (optional, for tests).
	Now func() time.Time
}

// Client is the secondary weather provider.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	fallback   weather.Resolver
	httpClient *resilience.Client
	logger     zerolog.Logger
	now        func() time.Time
}

// NewClient creates a new AccuWeather client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	language := cfg.Language
	if language == "" {
		language = "he"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName, resilience.RoleForecast))
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   language,
		fallback:   cfg.Fallback,
		httpClient: httpClient,
		logger:     cfg.Logger,
		now:        now,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Resolve finds the AccuWeather location key for a city.
// The city search runs first; when it fails or is empty, coordinates from
// the fallback resolver are looked up by geoposition. Errors from the
// search step are logged and not returned.
func (c *Client) Resolve(ctx context.Context, city string) (*weather.Location, error) {
	if !c.Configured() {
		return nil, ErrMissingAPIKey
	}

	loc, err := c.searchCity(ctx, city)
	if err == nil {
		return loc, nil
	}
	c.logger.Warn().Err(err).Str("city", city).Msg("accuweather city search failed, trying geoposition")

	if c.fallback == nil {
		return nil, fmt.Errorf("resolving %q: %w", city, weather.ErrNotFound)
	}

	loc, err = c.searchGeoposition(ctx, city)
	if err != nil {
		// Typed kinds pass through; anything else means the city was not found.
		if errors.Is(err, weather.ErrUpstreamUnavailable) ||
			errors.Is(err, weather.ErrMisconfigured) ||
			errors.Is(err, weather.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("resolving %q: %w: %w", city, weather.ErrNotFound, err)
	}
	return loc, nil
}

func (c *Client) searchCity(ctx context.Context, city string) (*weather.Location, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("language", c.language)

	var results []locationResponse
	if err := c.get(ctx, "city search", "/locations/v1/cities/search", q, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 || results[0].Key == "" {
		return nil, fmt.Errorf("city search %q: %w", city, weather.ErrNotFound)
	}

	r := results[0]
	return &weather.Location{
		Name:        weather.ReconcileName(city, firstNonEmpty(r.LocalizedName, r.EnglishName)),
		Country:     firstNonEmpty(r.Country.LocalizedName, r.Country.EnglishName),
		Lat:         r.GeoPosition.Latitude,
		Lon:         r.GeoPosition.Longitude,
		ProviderKey: r.Key,
	}, nil
}

func (c *Client) searchGeoposition(ctx context.Context, city string) (*weather.Location, error) {
	coords, err := c.fallback.Resolve(ctx, city)
	if err != nil {
		if errors.Is(err, weather.ErrMisconfigured) {
			return nil, err
		}
		// A geocoder outage leaves the city unresolved, not the provider down.
		return nil, fmt.Errorf("geocoding %q: %w (%v)", city, weather.ErrNotFound, err)
	}

	q := url.Values{}
	q.Set("q", strconv.FormatFloat(coords.Lat, 'f', -1, 64)+","+strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	q.Set("language", c.language)

	var r *locationResponse
	if err := c.get(ctx, "geoposition search", "/locations/v1/cities/geoposition/search", q, &r); err != nil {
		return nil, err
	}
	if r == nil || r.Key == "" {
		return nil, fmt.Errorf("geoposition search %q: %w", city, weather.ErrNotFound)
	}

	display := firstNonEmpty(r.LocalizedName, r.EnglishName, coords.Name, city)
	return &weather.Location{
		Name:        weather.ReconcileName(city, display),
		Country:     firstNonEmpty(r.Country.LocalizedName, r.Country.EnglishName, coords.Country),
		Lat:         coords.Lat,
		Lon:         coords.Lon,
		ProviderKey: r.Key,
	}, nil
}

// GetCurrent fetches current conditions for a resolved location.
func (c *Client) GetCurrent(ctx context.Context, loc *weather.Location) (*weather.CurrentConditions, error) {
	if err := c.checkLocation(loc); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("details", "true")

	var results []currentResponse
	if err := c.get(ctx, "current", "/currentconditions/v1/"+url.PathEscape(loc.ProviderKey), q, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("current: %w: no current data", weather.ErrUpstreamMalformed)
	}

	r := results[0]
	temp := r.Temperature.Metric.Value
	if temp == nil {
		temp = r.Temperature.Value
	}
	if temp == nil {
		return nil, fmt.Errorf("current: %w: missing temperature", weather.ErrUpstreamMalformed)
	}

	wind := r.Wind.Speed.Metric.Value
	if wind == nil {
		wind = r.Wind.Speed.Value
	}

	info := LookupPhrase(r.WeatherText)
	current := &weather.CurrentConditions{
		Temperature:   *temp,
		WindDirection: r.Wind.Direction.Degrees,
		WeatherText:   r.WeatherText,
		Icon:          info.Icon,
		Description:   info.Description,
		Condition:     info.Condition,
		IsDay:         r.IsDayTime,
	}
	if wind != nil {
		current.WindSpeed = *wind
	}

	return current, nil
}

// GetHourly fetches the 24-hour forecast for a resolved location.
// Samples without a phrase borrow the current conditions' phrase.
func (c *Client) GetHourly(ctx context.Context, loc *weather.Location) ([]weather.HourlyForecast, error) {
	if err := c.checkLocation(loc); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("metric", "true")

	var results []hourlyResponse
	if err := c.get(ctx, "hourly", "/forecasts/v1/hourly/24hour/"+url.PathEscape(loc.ProviderKey), q, &results); err != nil {
		return nil, err
	}

	fallbackPhrase := ""
	for _, h := range results {
		if h.IconPhrase == "" {
			fallbackPhrase = c.currentPhrase(ctx, loc)
			break
		}
	}

	samples := make([]weather.HourlyForecast, 0, len(results))
	for _, h := range results {
		phrase := firstNonEmpty(h.IconPhrase, fallbackPhrase)
		info := LookupPhrase(phrase)

		sample := weather.HourlyForecast{
			Time:                     h.DateTime,
			Temperature:              h.Temperature.Value,
			FeelsLike:                h.Temperature.Value,
			Humidity:                 h.RelativeHumidity,
			WindSpeed:                h.Wind.Speed.Value,
			PrecipitationProbability: h.PrecipitationProbability,
			WeatherText:              phrase,
			Icon:                     info.Icon,
			Description:              info.Description,
		}
		if h.RealFeelTemperature.Value != nil {
			sample.FeelsLike = *h.RealFeelTemperature.Value
		}

		samples = append(samples, sample)
	}

	return weather.HourlyWindow(samples, c.now()), nil
}

// GetDaily fetches the 5-day forecast for a resolved location.
// AccuWeather reports no precipitation sum at this detail level.
func (c *Client) GetDaily(ctx context.Context, loc *weather.Location) ([]weather.DailyForecast, error) {
	if err := c.checkLocation(loc); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("metric", "true")
	q.Set("details", "false")

	var resp dailyResponse
	if err := c.get(ctx, "daily", "/forecasts/v1/daily/5day/"+url.PathEscape(loc.ProviderKey), q, &resp); err != nil {
		return nil, err
	}

	days := make([]weather.DailyForecast, 0, len(resp.DailyForecasts))
	for _, d := range resp.DailyForecasts {
		phrase := firstNonEmpty(d.Day.IconPhrase, d.Day.LongPhrase)
		info := LookupPhrase(phrase)

		days = append(days, weather.DailyForecast{
			Date:        localDate(d.Date),
			MaxTemp:     d.Temperature.Maximum.Value,
			MinTemp:     d.Temperature.Minimum.Value,
			Sunrise:     d.Sun.Rise,
			Sunset:      d.Sun.Set,
			WeatherText: phrase,
			Icon:        info.Icon,
			Description: info.Description,
		})
	}

	return days, nil
}

// currentPhrase is best effort; an empty string is fine.
func (c *Client) currentPhrase(ctx context.Context, loc *weather.Location) string {
	current, err := c.GetCurrent(ctx, loc)
	if err != nil {
		c.logger.Debug().Err(err).Msg("no current phrase for hourly fallback")
		return ""
	}
	return current.WeatherText
}

func (c *Client) checkLocation(loc *weather.Location) error {
	if !c.Configured() {
		return ErrMissingAPIKey
	}
	if loc == nil || loc.ProviderKey == "" {
		return fmt.Errorf("%w: location has no accuweather key", weather.ErrNotFound)
	}
	return nil
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, out any) error {
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if err := c.httpClient.DoJSON(req, out); err != nil {
		return weather.UpstreamError(op, err)
	}
	return nil
}

// localDate keeps the calendar date of an ISO-8601 timestamp in its own offset.
func localDate(ts string) string {
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t.Format(time.DateOnly)
	}
	if len(ts) >= len(time.DateOnly) {
		return ts[:len(time.DateOnly)]
	}
	return ts
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// AccuWeather API response structures.

type localized struct {
	LocalizedName string `json:"LocalizedName"`
	EnglishName   string `json:"EnglishName"`
}

type locationResponse struct {
	Key string `json:"Key"`
	localized
	Country     localized `json:"Country"`
	GeoPosition struct {
		Latitude  float64 `json:"Latitude"`
		Longitude float64 `json:"Longitude"`
	} `json:"GeoPosition"`
}

type measure struct {
	Value *float64 `json:"Value"`
}

type currentResponse struct {
	WeatherText string `json:"WeatherText"`
	IsDayTime   bool   `json:"IsDayTime"`
	Temperature struct {
		Metric measure  `json:"Metric"`
		Value  *float64 `json:"Value"`
	} `json:"Temperature"`
	Wind struct {
		Direction struct {
			Degrees *float64 `json:"Degrees"`
		} `json:"Direction"`
		Speed struct {
			Metric measure  `json:"Metric"`
			Value  *float64 `json:"Value"`
		} `json:"Speed"`
	} `json:"Wind"`
}

type hourlyResponse struct {
	DateTime    time.Time `json:"DateTime"`
	IconPhrase  string    `json:"IconPhrase"`
	Temperature struct {
		Value float64 `json:"Value"`
	} `json:"Temperature"`
	RealFeelTemperature      measure `json:"RealFeelTemperature"`
	RelativeHumidity         float64 `json:"RelativeHumidity"`
	PrecipitationProbability float64 `json:"PrecipitationProbability"`
	Wind                     struct {
		Speed struct {
			Value float64 `json:"Value"`
		} `json:"Speed"`
	} `json:"Wind"`
}

type dailyResponse struct {
	DailyForecasts []struct {
		Date        string `json:"Date"`
		Temperature struct {
			Minimum struct {
				Value float64 `json:"Value"`
			} `json:"Minimum"`
			Maximum struct {
				Value float64 `json:"Value"`
			} `json:"Maximum"`
		} `json:"Temperature"`
		Day struct {
			IconPhrase string `json:"IconPhrase"`
			LongPhrase string `json:"LongPhrase"`
		} `json:"Day"`
		Sun struct {
			Rise string `json:"Rise"`
			Set  string `json:"Set"`
		} `json:"Sun"`
	} `json:"DailyForecasts"`
}
