// Package scheduler runs the full pipeline on a cron schedule for the
// daemon mode.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// PipelineFunc runs one full scan-score-qualify cycle.
type PipelineFunc func(ctx context.Context) error

// Scheduler wraps robfig/cron and manages the pipeline loop. Overlapping
// runs are skipped, not queued; a slow cycle must not stack up behind
// itself.
type Scheduler struct {
	cron   *cron.Cron
	spec   string // cron spec, e.g. "@every 6h"
	run    PipelineFunc
	logger *slog.Logger
}

// New creates a Scheduler that fires on the given cron spec.
func New(spec string, run PipelineFunc, logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slogPrintf{logger})
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cronLogger),
			cron.Recover(cronLogger),
		)),
		spec:   spec,
		run:    run,
		logger: logger,
	}
}

// Start registers the job and starts the scheduler. Also runs one cycle
// immediately so the feed is populated without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec)

	// Run immediately on startup (non-blocking).
	go s.runCycle(ctx)

	return nil
}

// Stop shuts the scheduler down, waiting for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
	s.logger.Info("pipeline cycle started")
	if err := s.run(ctx); err != nil {
		s.logger.Error("pipeline cycle failed", "error", err)
		return
	}
	s.logger.Info("pipeline cycle complete")
}

// slogPrintf adapts slog to the printf-style logger cron expects.
type slogPrintf struct {
	logger *slog.Logger
}

func (l slogPrintf) Printf(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}
