package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/bomwx/forecast-tracker/internal/collector"
)

// Runner is the daily collection job.
type Runner interface {
	Run(ctx context.Context) collector.Result
}

// Scheduler triggers one collection run per day at a fixed local time.
// BOM reissues the precis products early each morning, so the default
// schedule sits shortly after that.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	at        string
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a Scheduler that fires daily at the given HH:MM in tz.
func New(runner Runner, at string, tz *time.Location, timeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(tz),
		runner:    runner,
		at:        at,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start registers the daily job and starts the scheduler in the background.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(1).Day().At(s.at).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		s.logger.Info("scheduled collection starting", "at", s.at)
		result := s.runner.Run(ctx)
		if result.Failures > 0 {
			s.logger.Warn("scheduled collection had failures",
				"successes", result.Successes, "failures", result.Failures)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
