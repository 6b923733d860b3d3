package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Scheduler runs the warm job on a fixed interval. Runs never overlap.
type Scheduler struct {
	scheduler *gocron.Scheduler
	job       *WarmJob
	interval  time.Duration
	logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler; interval defaults to 15 minutes.
func NewScheduler(job *WarmJob, interval time.Duration, logger zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		job:       job,
		interval:  interval,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start schedules the job, runs it once immediately and returns.
func (s *Scheduler) Start() error {
	if len(s.job.Cities()) == 0 {
		s.logger.Warn().Msg("scheduler: no cities configured, nothing to schedule")
		return nil
	}

	if _, err := s.scheduler.Every(s.interval).Do(s.run); err != nil {
		return fmt.Errorf("scheduling cache warm: %w", err)
	}

	s.logger.Info().
		Dur("interval", s.interval).
		Strs("cities", s.job.Cities()).
		Msg("cache warm scheduled")

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	s.job.Run(s.ctx)
}

// Stop cancels an in-flight run and stops future runs.
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}
