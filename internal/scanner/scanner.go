package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oppscan/oppscan/internal/event"
	"github.com/oppscan/oppscan/internal/model"
)

// Scanner fetches listings from all configured sources, merges duplicates,
// drops listings seen on earlier runs and publishes a discovery event for
// each listing that survives.
type Scanner struct {
	sources      []model.Source
	store        model.SeenStore
	sink         event.Sink
	fetchTimeout time.Duration
	workers      int
	logger       *slog.Logger
}

// Summary reports what a single scan run did.
type Summary struct {
	Fetched         int
	AfterDedup      int
	New             int
	EventsPublished int
	SourceFailures  map[string]error
}

// New creates a Scanner. workers bounds how many sources are fetched
// concurrently; values below 1 are treated as 1.
func New(sources []model.Source, store model.SeenStore, sink event.Sink, fetchTimeout time.Duration, workers int, logger *slog.Logger) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{
		sources:      sources,
		store:        store,
		sink:         sink,
		fetchTimeout: fetchTimeout,
		workers:      workers,
		logger:       logger,
	}
}

type fetchResult struct {
	source   string
	listings []model.Listing
	err      error
}

// Run executes one scan. A failing source does not abort the run; its
// error is recorded in the summary. Run returns an error only when every
// source failed, or when events or the seen set could not be persisted.
func (s *Scanner) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{SourceFailures: make(map[string]error)}

	results := s.fetchAll(ctx)
	for _, r := range results {
		if r.err != nil {
			s.logger.Warn("source fetch failed", "source", r.source, "error", r.err)
			summary.SourceFailures[r.source] = r.err
			continue
		}
		s.logger.Info("source fetched", "source", r.source, "listings", len(r.listings))
		summary.Fetched += len(r.listings)
	}
	if len(s.sources) > 0 && len(summary.SourceFailures) == len(s.sources) {
		return summary, fmt.Errorf("all %d sources failed", len(s.sources))
	}

	merged := merge(results)
	summary.AfterDedup = len(merged)

	seen, err := s.store.Load(ctx)
	if err != nil {
		return summary, fmt.Errorf("load seen set: %w", err)
	}

	var (
		fresh   []model.Listing
		newKeys []string
	)
	for _, l := range merged {
		key := l.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		if l.ListingID == "" {
			l.ListingID = uuid.NewString()
		}
		fresh = append(fresh, l)
		newKeys = append(newKeys, key)
	}
	summary.New = len(fresh)

	now := time.Now().UTC()
	for _, l := range fresh {
		if err := s.sink.Publish(event.NewDiscovered(l, now)); err != nil {
			return summary, fmt.Errorf("publish discovery event: %w", err)
		}
		summary.EventsPublished++
	}

	// Events must be durable before the listings are marked seen, so a
	// crash between the two can only produce duplicates, never losses.
	if err := s.sink.Flush(); err != nil {
		return summary, fmt.Errorf("flush events: %w", err)
	}
	if err := s.store.Save(ctx, newKeys); err != nil {
		return summary, fmt.Errorf("save seen set: %w", err)
	}

	s.logger.Info("scan complete",
		"fetched", summary.Fetched,
		"after_dedup", summary.AfterDedup,
		"new", summary.New,
		"failed_sources", len(summary.SourceFailures))
	return summary, nil
}

// fetchAll runs every source through a bounded worker pool, each with its
// own timeout.
func (s *Scanner) fetchAll(ctx context.Context) []fetchResult {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []fetchResult
	)
	sem := make(chan struct{}, s.workers)

	for _, src := range s.sources {
		wg.Add(1)
		go func(src model.Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
			defer cancel()

			listings, err := src.Fetch(fetchCtx)
			mu.Lock()
			results = append(results, fetchResult{source: src.Name(), listings: listings, err: err})
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].source < results[j].source })
	return results
}

// merge collapses listings that share a dedup key. The first listing wins;
// later duplicates only contribute their source tags.
func merge(results []fetchResult) []model.Listing {
	var (
		order  []string
		byKey  = make(map[string]*model.Listing)
		merged []model.Listing
	)
	for _, r := range results {
		if r.err != nil {
			continue
		}
		for _, l := range r.listings {
			key := l.DedupKey()
			if existing, ok := byKey[key]; ok {
				for _, src := range l.Sources {
					existing.AddSource(src)
				}
				continue
			}
			l := l
			byKey[key] = &l
			order = append(order, key)
		}
	}
	for _, key := range order {
		merged = append(merged, *byKey[key])
	}
	return merged
}
