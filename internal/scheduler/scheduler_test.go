package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStartRunsImmediately(t *testing.T) {
	var runs atomic.Int32
	s := New("@every 1h", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, discard())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("pipeline never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestStartInvalidSpec(t *testing.T) {
	s := New("not a cron spec", func(ctx context.Context) error { return nil }, discard())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestRunCycleHonorsCancelledContext(t *testing.T) {
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New("@every 1h", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, discard())
	s.runCycle(ctx)

	if runs.Load() != 0 {
		t.Error("cycle ran despite cancelled context")
	}
}
