// Package main provides the entrypoint for the Skycast weather API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skycast/skycast/internal/api"
	"github.com/skycast/skycast/internal/api/handler"
	"github.com/skycast/skycast/internal/api/middleware"
	"github.com/skycast/skycast/internal/app"
	"github.com/skycast/skycast/internal/config"
	"github.com/skycast/skycast/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "skycast-api"

	cfg, err := config.Load()
	if err != nil {
		// The logger depends on config; fall back to defaults to report it.
		log := app.NewLogger(serviceName, Version, "info", "production")
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := app.NewLogger(serviceName, Version, cfg.LogLevel, cfg.Environment)
	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Environment).
		Msg("starting Skycast API")

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetricsWithMeter(tp.Meter)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize http metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	weatherMetrics, err := telemetry.NewWeatherMetrics(tp.Meter)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize weather metrics")
		os.Exit(1)
	}

	stack, err := app.Build(cfg, log, weatherMetrics)
	if err != nil {
		log.Error().Err(err).Msg("failed to build weather pipeline")
		os.Exit(1)
	}
	defer func() {
		if closeErr := stack.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close cache")
		}
	}()

	opsCfg := handler.OpsConfig{
		Version:   Version,
		BuildTime: BuildTime,
		Registry:  stack.Registry,
		Providers: stack.Service,
		CacheName: stack.CacheName,
	}
	if stack.Redis != nil {
		opsCfg.Cache = stack.Redis
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     httpMetrics,
		FrontendURL: cfg.FrontendURL,
		RequireTLS:  cfg.RequireTLS,
		Weather:     handler.NewWeatherHandler(stack.Service, stack.Summaries, cfg.DefaultCity, log),
		Ops:         handler.NewOpsHandler(opsCfg),
	})

	// WriteTimeout leaves room for a provider fallback chain plus the LLM call.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 4*cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("default_city", cfg.DefaultCity).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}
