// Package api provides the HTTP API for SkyCast.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/api/handler"
	"github.com/skycast/skycast/internal/api/middleware"
	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/api/response"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// FrontendURL is the browser origin allowed by CORS.
	FrontendURL string

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool

	Weather *handler.WeatherHandler
	Ops     *handler.OpsHandler
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "skycast-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, req, models.NewRouteNotFound(middleware.GetRequestID(req.Context())))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, req, models.NewMethodNotAllowed(middleware.GetRequestID(req.Context()), req.Method))
	})

	if cfg.Weather != nil {
		r.With(middleware.RateLimitByIP(middleware.WeatherRateLimit)).Get("/weather", cfg.Weather.GetWeather)
		r.With(middleware.RateLimitByIP(middleware.SummaryRateLimit)).Get("/weather/summary", cfg.Weather.GetSummary)
	}

	if cfg.Ops != nil {
		r.Route("/ops", func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(middleware.OpsRateLimit))
			r.Get("/health", cfg.Ops.HealthCheck)
			r.Get("/ready", cfg.Ops.ReadinessCheck)
			r.Get("/status", cfg.Ops.SystemStatus)
		})
	}

	return r
}
