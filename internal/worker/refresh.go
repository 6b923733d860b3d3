package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/weather"
)

// WeatherService fetches a snapshot, bypassing the cache when useCache is false.
type WeatherService interface {
	GetWeather(ctx context.Context, city string, useCache bool) (*weather.Snapshot, error)
}

// WarmJob refreshes cached snapshots for a list of cities.
type WarmJob struct {
	config  WarmConfig
	service WeatherService
	logger  zerolog.Logger

	stats *WarmStats
}

// WarmStats tracks warm job totals across runs.
type WarmStats struct {
	mu sync.RWMutex

	Runs       int64
	Successful int64
	Failed     int64

	// ByProvider counts successful refreshes per serving provider.
	ByProvider map[string]int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// WarmJobConfig holds configuration for creating a WarmJob.
type WarmJobConfig struct {
	Config  WarmConfig
	Service WeatherService
	Logger  zerolog.Logger
}

// NewWarmJob creates a new cache warm job.
func NewWarmJob(cfg WarmJobConfig) *WarmJob {
	return &WarmJob{
		config:  cfg.Config.withDefaults(),
		service: cfg.Service,
		logger:  cfg.Logger,
		stats:   &WarmStats{ByProvider: make(map[string]int64)},
	}
}

// Cities returns the deduplicated cities the job refreshes.
func (j *WarmJob) Cities() []string {
	return append([]string(nil), j.config.Cities...)
}

// WarmResult contains the result of one run.
type WarmResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Total      int
	Successful int
	Failed     int
	Errors     []WarmError

	// Providers maps each refreshed city to the provider that served it.
	Providers map[string]string
}

// WarmError records a city that could not be refreshed.
type WarmError struct {
	City  string
	Error string
}

// Run refreshes every configured city.
func (j *WarmJob) Run(ctx context.Context) *WarmResult {
	return j.RunCities(ctx, j.config.Cities)
}

// RunCities refreshes the given cities with the job's concurrency and timeout.
func (j *WarmJob) RunCities(ctx context.Context, cities []string) *WarmResult {
	cities = UniqueCities(cities)
	startTime := time.Now()
	result := &WarmResult{
		StartTime: startTime,
		Total:     len(cities),
		Providers: make(map[string]string, len(cities)),
	}

	j.logger.Info().
		Int("cities", result.Total).
		Int("concurrency", j.config.Concurrency).
		Msg("starting cache warm job")

	cityChan := make(chan string, len(cities))
	resultsChan := make(chan cityResult, len(cities))

	workers := j.config.Concurrency
	if workers > len(cities) {
		workers = len(cities)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.warmWorker(ctx, cityChan, resultsChan)
		}()
	}

	for _, c := range cities {
		cityChan <- c
	}
	close(cityChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for cr := range resultsChan {
		if cr.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, WarmError{City: cr.city, Error: cr.err.Error()})
			continue
		}
		result.Successful++
		result.Providers[cr.city] = cr.provider
	}

	// Cities never picked up because ctx was cancelled count as failed.
	if skipped := result.Total - result.Successful - result.Failed; skipped > 0 {
		result.Failed += skipped
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateStats(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("cache warm job completed")

	return result
}

type cityResult struct {
	city     string
	provider string
	err      error
}

func (j *WarmJob) warmWorker(ctx context.Context, cities <-chan string, results chan<- cityResult) {
	for city := range cities {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.warmCity(ctx, city)
		}
	}
}

func (j *WarmJob) warmCity(ctx context.Context, city string) cityResult {
	cityCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	snap, err := j.service.GetWeather(cityCtx, city, false)
	if err != nil {
		j.logger.Warn().Err(err).Str("city", city).Msg("cache warm failed")
		return cityResult{city: city, err: err}
	}

	j.logger.Debug().
		Str("city", city).
		Str("provider", snap.Provider).
		Msg("cache warmed")
	return cityResult{city: city, provider: snap.Provider}
}

func (j *WarmJob) updateStats(result *WarmResult) {
	j.stats.mu.Lock()
	defer j.stats.mu.Unlock()

	j.stats.Runs++
	j.stats.Successful += int64(result.Successful)
	j.stats.Failed += int64(result.Failed)
	for _, provider := range result.Providers {
		j.stats.ByProvider[provider]++
	}
	j.stats.LastRunAt = result.EndTime
	j.stats.LastRunDuration = result.Duration
	j.stats.TotalDuration += result.Duration
}

// GetStats returns a copy of the accumulated statistics.
func (j *WarmJob) GetStats() WarmStats {
	j.stats.mu.RLock()
	defer j.stats.mu.RUnlock()

	byProvider := make(map[string]int64, len(j.stats.ByProvider))
	for k, v := range j.stats.ByProvider {
		byProvider[k] = v
	}

	return WarmStats{
		Runs:            j.stats.Runs,
		Successful:      j.stats.Successful,
		Failed:          j.stats.Failed,
		ByProvider:      byProvider,
		LastRunAt:       j.stats.LastRunAt,
		LastRunDuration: j.stats.LastRunDuration,
		TotalDuration:   j.stats.TotalDuration,
	}
}

// StatsSnapshot returns the statistics as a JSON-friendly map.
func (j *WarmJob) StatsSnapshot() map[string]interface{} {
	s := j.GetStats()
	return map[string]interface{}{
		"runs":              s.Runs,
		"successful":        s.Successful,
		"failed":            s.Failed,
		"by_provider":       s.ByProvider,
		"last_run_at":       s.LastRunAt,
		"last_run_duration": s.LastRunDuration.String(),
		"total_duration":    s.TotalDuration.String(),
	}
}
