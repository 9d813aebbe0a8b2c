package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/oppscan/oppscan/internal/model"
)

// flakySource fails a set number of times before succeeding.
type flakySource struct {
	failures int
	err      error
	calls    int
}

func (s *flakySource) Name() string { return "flaky" }

func (s *flakySource) Fetch(_ context.Context) ([]model.Listing, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, s.err
	}
	return []model.Listing{{Company: "Acme", Role: "ML Engineer"}}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetch_SucceedsFirstTry(t *testing.T) {
	inner := &flakySource{}
	src := Wrap(inner, 2, time.Millisecond, discardLogger())

	listings, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 1 || inner.calls != 1 {
		t.Errorf("listings=%d calls=%d, want 1/1", len(listings), inner.calls)
	}
}

func TestFetch_RetriesTransientError(t *testing.T) {
	inner := &flakySource{failures: 2, err: errors.New("connection reset")}
	src := Wrap(inner, 2, time.Millisecond, discardLogger())

	listings, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 1 || inner.calls != 3 {
		t.Errorf("listings=%d calls=%d, want 1/3", len(listings), inner.calls)
	}
}

func TestFetch_DoesNotRetryClientError(t *testing.T) {
	inner := &flakySource{failures: 5, err: &model.HTTPError{StatusCode: 404}}
	src := Wrap(inner, 3, time.Millisecond, discardLogger())

	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Errorf("calls=%d, want 1 (404 is not retryable)", inner.calls)
	}
}

func TestFetch_RetriesRateLimit(t *testing.T) {
	inner := &flakySource{failures: 1, err: &model.HTTPError{StatusCode: 429, RetryAfter: time.Millisecond}}
	src := Wrap(inner, 2, time.Millisecond, discardLogger())

	if _, err := src.Fetch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("calls=%d, want 2", inner.calls)
	}
}

func TestFetch_ExhaustsRetries(t *testing.T) {
	inner := &flakySource{failures: 10, err: &model.HTTPError{StatusCode: 503}}
	src := Wrap(inner, 2, time.Millisecond, discardLogger())

	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if inner.calls != 3 {
		t.Errorf("calls=%d, want 3 (1 initial + 2 retries)", inner.calls)
	}
}
