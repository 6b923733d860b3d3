// Package openmeteo is the primary weather provider, backed by the keyless
// Open-Meteo forecast and geocoding APIs.
package openmeteo

import (
	"context"
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
	ProviderName = "open-meteo"

	// DefaultForecastURL is the Open-Meteo forecast endpoint.
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

	hourlyFields = "temperature_2m,relative_humidity_2m,wind_speed_10m,weathercode,precipitation_probability,apparent_temperature"
	dailyFields  = "temperature_2m_max,temperature_2m_min,weathercode,precipitation_sum,wind_speed_10m_max,sunrise,sunset"

	localTimeLayout = "2006-01-02T15:04"
)

// ClientConfig holds configuration for the Open-Meteo client.
type ClientConfig struct {
	// ForecastURL is the forecast endpoint (optional).
	ForecastURL string

	// Geocoder resolves city names (optional, defaults to a Geocoder sharing HTTPClient).
	Geocoder weather.Resolver

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger

	// Now returns the current time (optional, for tests).
	Now func() time.Time
}

// Client is the primary weather provider. It needs no credentials.
type Client struct {
	forecastURL string
	geocoder    weather.Resolver
	httpClient  *resilience.Client
	logger      zerolog.Logger
	now         func() time.Time
}

// NewClient creates a new Open-Meteo client.
func NewClient(cfg ClientConfig) *Client {
	forecastURL := cfg.ForecastURL
	if forecastURL == "" {
		forecastURL = DefaultForecastURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName, resilience.RoleForecast))
	}

	geocoder := cfg.Geocoder
	if geocoder == nil {
		geocoder = NewGeocoder(GeocoderConfig{HTTPClient: httpClient, Logger: cfg.Logger})
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		forecastURL: forecastURL,
		geocoder:    geocoder,
		httpClient:  httpClient,
		logger:      cfg.Logger,
		now:         now,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Resolve delegates to the geocoder.
func (c *Client) Resolve(ctx context.Context, city string) (*weather.Location, error) {
	return c.geocoder.Resolve(ctx, city)
}

// GetCurrent fetches current conditions for a location.
func (c *Client) GetCurrent(ctx context.Context, loc *weather.Location) (*weather.CurrentConditions, error) {
	var resp forecastResponse
	if err := c.fetch(ctx, loc, "current", url.Values{"current_weather": {"true"}}, &resp); err != nil {
		return nil, err
	}

	cw := resp.CurrentWeather
	if cw == nil || cw.Temperature == nil {
		return nil, fmt.Errorf("current: %w: missing current_weather", weather.ErrUpstreamMalformed)
	}

	info := describe(cw.WeatherCode)
	return &weather.CurrentConditions{
		Temperature:   *cw.Temperature,
		WindSpeed:     deref(cw.WindSpeed),
		WindDirection: cw.WindDirection,
		WeatherCode:   cw.WeatherCode,
		Icon:          info.Icon,
		Description:   info.Description,
		Condition:     info.Condition,
		IsDay:         cw.IsDay == nil || *cw.IsDay == 1,
	}, nil
}

// GetHourly fetches the next 24 hours for a location.
func (c *Client) GetHourly(ctx context.Context, loc *weather.Location) ([]weather.HourlyForecast, error) {
	params := url.Values{
		"hourly":        {hourlyFields},
		"forecast_days": {"2"},
	}

	var resp forecastResponse
	if err := c.fetch(ctx, loc, "hourly", params, &resp); err != nil {
		return nil, err
	}
	if resp.Hourly == nil {
		return nil, fmt.Errorf("hourly: %w: missing hourly block", weather.ErrUpstreamMalformed)
	}

	zone := time.FixedZone(resp.Timezone, resp.UTCOffsetSeconds)
	h := resp.Hourly

	samples := make([]weather.HourlyForecast, 0, len(h.Time))
	for i, ts := range h.Time {
		t, err := time.ParseInLocation(localTimeLayout, ts, zone)
		if err != nil {
			c.logger.Debug().Err(err).Str("time", ts).Msg("skipping hourly sample")
			continue
		}

		code := codeAt(h.WeatherCode, i)
		info := describe(code)
		sample := weather.HourlyForecast{
			Time:                     t,
			Temperature:              at(h.Temperature, i),
			Humidity:                 at(h.RelativeHumidity, i),
			WindSpeed:                at(h.WindSpeed, i),
			PrecipitationProbability: at(h.PrecipitationProbability, i),
			WeatherCode:              code,
			Icon:                     info.Icon,
			Description:              info.Description,
		}
		sample.FeelsLike = sample.Temperature
		if i < len(h.ApparentTemperature) && h.ApparentTemperature[i] != nil {
			sample.FeelsLike = *h.ApparentTemperature[i]
		}

		samples = append(samples, sample)
	}

	return weather.HourlyWindow(samples, c.now()), nil
}

// GetDaily fetches the 7-day forecast for a location.
func (c *Client) GetDaily(ctx context.Context, loc *weather.Location) ([]weather.DailyForecast, error) {
	params := url.Values{
		"daily":         {dailyFields},
		"forecast_days": {"7"},
	}

	var resp forecastResponse
	if err := c.fetch(ctx, loc, "daily", params, &resp); err != nil {
		return nil, err
	}
	if resp.Daily == nil {
		return nil, fmt.Errorf("daily: %w: missing daily block", weather.ErrUpstreamMalformed)
	}

	d := resp.Daily
	days := make([]weather.DailyForecast, 0, len(d.Time))
	for i, date := range d.Time {
		code := codeAt(d.WeatherCode, i)
		info := describe(code)
		day := weather.DailyForecast{
			Date:             date,
			MaxTemp:          at(d.TemperatureMax, i),
			MinTemp:          at(d.TemperatureMin, i),
			PrecipitationSum: ptrAt(d.PrecipitationSum, i),
			MaxWindSpeed:     ptrAt(d.WindSpeedMax, i),
			WeatherCode:      code,
			Icon:             info.Icon,
			Description:      info.Description,
		}
		if i < len(d.Sunrise) {
			day.Sunrise = d.Sunrise[i]
		}
		if i < len(d.Sunset) {
			day.Sunset = d.Sunset[i]
		}

		days = append(days, day)
	}

	return days, nil
}

func (c *Client) fetch(ctx context.Context, loc *weather.Location, op string, params url.Values, out any) error {
	params.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	params.Set("timezone", "auto")

	u := c.forecastURL
	if strings.Contains(u, "?") {
		u += "&" + params.Encode()
	} else {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if err := c.httpClient.DoJSON(req, out); err != nil {
		return weather.UpstreamError(op, err)
	}
	return nil
}

// describe maps an optional WMO code to display info.
func describe(code *int) weather.ConditionInfo {
	if code == nil {
		return weather.UnknownCondition
	}
	return Conditions.Lookup(*code)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) {
		return 0
	}
	return deref(vals[i])
}

func ptrAt(vals []*float64, i int) *float64 {
	if i >= len(vals) || vals[i] == nil {
		return nil
	}
	return weather.Float(*vals[i])
}

func codeAt(vals []*int, i int) *int {
	if i >= len(vals) || vals[i] == nil {
		return nil
	}
	return weather.Int(*vals[i])
}

// Open-Meteo API response structures.

type forecastResponse struct {
	Timezone         string `json:"timezone"`
	UTCOffsetSeconds int    `json:"utc_offset_seconds"`

	CurrentWeather *struct {
		Temperature   *float64 `json:"temperature"`
		WindSpeed     *float64 `json:"windspeed"`
		WindDirection *float64 `json:"winddirection"`
		WeatherCode   *int     `json:"weathercode"`
		IsDay         *int     `json:"is_day"`
		Time          string   `json:"time"`
	} `json:"current_weather"`

	Hourly *struct {
		Time                     []string   `json:"time"`
		Temperature              []*float64 `json:"temperature_2m"`
		RelativeHumidity         []*float64 `json:"relative_humidity_2m"`
		WindSpeed                []*float64 `json:"wind_speed_10m"`
		WeatherCode              []*int     `json:"weathercode"`
		PrecipitationProbability []*float64 `json:"precipitation_probability"`
		ApparentTemperature      []*float64 `json:"apparent_temperature"`
	} `json:"hourly"`

	Daily *struct {
		Time             []string   `json:"time"`
		TemperatureMax   []*float64 `json:"temperature_2m_max"`
		TemperatureMin   []*float64 `json:"temperature_2m_min"`
		WeatherCode      []*int     `json:"weathercode"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
		WindSpeedMax     []*float64 `json:"wind_speed_10m_max"`
		Sunrise          []string   `json:"sunrise"`
		Sunset           []string   `json:"sunset"`
	} `json:"daily"`
}
