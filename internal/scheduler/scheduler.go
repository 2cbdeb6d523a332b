package scheduler

import (
	"context"
	"log/slog"
	"time"

	"newsroom/internal/domain"
)

// Generator defines the interface for batch generation.
type Generator interface {
	Generate(ctx context.Context, req domain.ProspectRequest) (*domain.BatchResult, error)
}

// Scheduler runs the same prospect request on a fixed interval.
type Scheduler struct {
	generator  Generator
	request    domain.ProspectRequest
	interval   time.Duration
	runTimeout time.Duration
	logger     *slog.Logger
}

func NewScheduler(generator Generator, req domain.ProspectRequest, interval, runTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		generator:  generator,
		request:    req,
		interval:   interval,
		runTimeout: runTimeout,
		logger:     logger.With("component", "scheduler"),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "keywords", s.request.Keywords)

	s.runBatch(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runBatch(ctx)
		}
	}
}

func (s *Scheduler) runBatch(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	result, err := s.generator.Generate(runCtx, s.request)
	if err != nil {
		s.logger.Error("scheduled batch failed", "error", err)
		return
	}
	s.logger.Info("scheduled batch stored", "created", result.Stats.Created)
}
