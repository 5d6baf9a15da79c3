package usecase

import (
	"context"
	"log/slog"
	"time"

	"SentimentMonitor/internal/ports"
)

// Scheduler wires the daily driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	opts     RunOptions
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs with fixed options.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, opts RunOptions, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, pipeline: pipeline, opts: opts, logger: logger.With("component", "daily_task")}
}

// RunOnce executes the pipeline immediately, logging instead of returning failures.
func (s *Scheduler) RunOnce(ctx context.Context, trigger time.Time) {
	if s.pipeline == nil {
		return
	}
	s.logger.Info("daily task started", "trigger", trigger.Format(time.DateTime))
	result, err := s.pipeline.Run(ctx, s.opts)
	if err != nil {
		s.logger.Error("daily task failed", "error", err)
		return
	}
	s.logger.Info("daily task done", "run_id", result.RunID, "records", len(result.Records))
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.RunOnce(ctx, trigger)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
