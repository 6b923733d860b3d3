package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/api/response"
	"github.com/skycast/skycast/internal/summary"
	"github.com/skycast/skycast/internal/weather"
)

// DefaultCity is used when the request names no city.
const DefaultCity = "Haifa"

var validate = validator.New()

// WeatherService returns aggregated snapshots.
type WeatherService interface {
	GetWeather(ctx context.Context, city string, useCache bool) (*weather.Snapshot, error)
}

// Summarizer attaches a clothing summary to a snapshot.
type Summarizer interface {
	SummarizeWithSource(ctx context.Context, snap *weather.Snapshot) (summary.Summary, summary.Source)
}

// WeatherHandler serves /weather and /weather/summary.
type WeatherHandler struct {
	service     WeatherService
	summarizer  Summarizer
	defaultCity string
	logger      zerolog.Logger
}

// NewWeatherHandler creates a WeatherHandler. An empty defaultCity means Haifa.
func NewWeatherHandler(service WeatherService, summarizer Summarizer, defaultCity string, logger zerolog.Logger) *WeatherHandler {
	if strings.TrimSpace(defaultCity) == "" {
		defaultCity = DefaultCity
	}
	return &WeatherHandler{
		service:     service,
		summarizer:  summarizer,
		defaultCity: defaultCity,
		logger:      logger,
	}
}

// GetWeather handles GET /weather.
func (h *WeatherHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.lookup(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, snap)
}

// GetSummary handles GET /weather/summary.
func (h *WeatherHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.lookup(w, r)
	if !ok {
		return
	}

	s, source := h.summarizer.SummarizeWithSource(r.Context(), snap)
	w.Header().Set("X-Summary-Source", string(source))

	response.JSON(w, r, http.StatusOK, models.WeatherSummary{Snapshot: snap, AISummary: s})
}

// lookup parses the query and fetches the snapshot. On failure the problem
// response has already been written.
func (h *WeatherHandler) lookup(w http.ResponseWriter, r *http.Request) (*weather.Snapshot, bool) {
	q, fieldErrs := h.parseQuery(r)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", fieldErrs)
		return nil, false
	}

	snap, err := h.service.GetWeather(r.Context(), q.City, !q.Refresh)
	if err != nil {
		h.writeError(w, r, q.City, err)
		return nil, false
	}
	return snap, true
}

func (h *WeatherHandler) parseQuery(r *http.Request) (models.WeatherQuery, []models.FieldError) {
	values := r.URL.Query()

	q := models.WeatherQuery{City: strings.TrimSpace(values.Get("city"))}
	if q.City == "" {
		q.City = h.defaultCity
	}

	var fieldErrs []models.FieldError
	if raw := values.Get("refresh"); raw != "" {
		refresh, err := strconv.ParseBool(raw)
		if err != nil {
			fieldErrs = append(fieldErrs, models.FieldError{Field: "refresh", Message: "must be a boolean", Code: "boolean"})
		}
		q.Refresh = refresh
	}

	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return q, append(fieldErrs, models.FieldError{Field: "city", Message: err.Error()})
		}
		for _, fe := range verrs {
			fieldErrs = append(fieldErrs, models.FieldError{
				Field:   strings.ToLower(fe.Field()),
				Message: fieldMessage(fe),
				Code:    fe.Tag(),
			})
		}
	}

	return q, fieldErrs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "is invalid"
	}
}

// writeError maps weather error kinds to problem responses.
func (h *WeatherHandler) writeError(w http.ResponseWriter, r *http.Request, city string, err error) {
	h.logger.Warn().Err(err).Str("city", city).Msg("weather lookup failed")

	switch {
	case errors.Is(err, weather.ErrInvalidCity):
		response.BadRequest(w, r, "city must not be empty", []models.FieldError{{Field: "city", Message: "is required", Code: "required"}})
	case errors.Is(err, weather.ErrNotFound):
		response.CityNotFound(w, r, fmt.Sprintf("city %q not found", city))
	case errors.Is(err, weather.ErrMisconfigured):
		response.Misconfigured(w, r, "no weather provider is configured")
	case errors.Is(err, weather.ErrUpstreamUnavailable), errors.Is(err, weather.ErrUpstreamMalformed):
		response.BadGateway(w, r, "weather providers are unavailable")
	default:
		response.InternalError(w, r, "failed to fetch weather")
	}
}
