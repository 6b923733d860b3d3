// Package main provides the entrypoint for the Skycast cache warm worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skycast/skycast/internal/api/response"
	"github.com/skycast/skycast/internal/app"
	"github.com/skycast/skycast/internal/config"
	"github.com/skycast/skycast/internal/telemetry"
	"github.com/skycast/skycast/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "skycast-worker"

	cfg, err := config.Load()
	if err != nil {
		log := app.NewLogger(serviceName, Version, "info", "production")
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := app.NewLogger(serviceName, Version, cfg.LogLevel, cfg.Environment)
	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Skycast worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	weatherMetrics, err := telemetry.NewWeatherMetrics(tp.Meter)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize weather metrics")
	}

	stack, err := app.Build(cfg, log, weatherMetrics)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build weather pipeline")
	}
	defer func() {
		if closeErr := stack.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close cache")
		}
	}()

	if stack.CacheName == "memory" {
		log.Warn().Msg("REDIS_URL not set, warmed entries are only visible to this process")
	}

	warmCfg := worker.DefaultWarmConfig(cfg.DefaultCity)
	warmCfg.Cities = cfg.WarmCities
	warmCfg.Concurrency = cfg.WarmConcurrency
	job := worker.NewWarmJob(worker.WarmJobConfig{
		Config:  warmCfg,
		Service: stack.Service,
		Logger:  log,
	})

	// Pub/Sub drives the job when configured, otherwise a local schedule does.
	var stopJobs func()
	if cfg.PubSubProjectID != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.PubSubSubscription,
			WarmJob:          job,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		go func() {
			if err := handler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub receive stopped")
			}
		}()
		stopJobs = func() {
			if err := handler.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close pubsub client")
			}
		}
	} else {
		scheduler := worker.NewScheduler(job, cfg.WarmInterval, log)
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start scheduler")
		}
		stopJobs = scheduler.Stop
	}

	// Health endpoint for the container platform.
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"version": Version,
			"cache":   stack.CacheName,
			"warm":    job.StatsSnapshot(),
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()
	stopJobs()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
