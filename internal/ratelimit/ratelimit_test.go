package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWait_FirstRequestImmediate(t *testing.T) {
	limiter := NewHostLimiter(1 * time.Second)

	start := time.Now()
	if err := limiter.Wait(context.Background(), "hn.algolia.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first request waited %v, expected immediate", elapsed)
	}
}

func TestWait_EnforcesDelayPerHost(t *testing.T) {
	limiter := NewHostLimiter(150 * time.Millisecond)
	ctx := context.Background()

	limiter.Wait(ctx, "hn.algolia.com")

	start := time.Now()
	if err := limiter.Wait(ctx, "hn.algolia.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("second request waited only %v, expected ~150ms", elapsed)
	}
}

func TestWait_HostsAreIndependent(t *testing.T) {
	limiter := NewHostLimiter(1 * time.Second)
	ctx := context.Background()

	limiter.Wait(ctx, "hn.algolia.com")

	start := time.Now()
	if err := limiter.Wait(ctx, "aijobs.co.uk"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("different host waited %v, expected immediate", elapsed)
	}
}

func TestWait_CancelledContext(t *testing.T) {
	limiter := NewHostLimiter(5 * time.Second)
	limiter.Wait(context.Background(), "hn.algolia.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx, "hn.algolia.com"); err == nil {
		t.Error("expected error from cancelled context")
	}
}
