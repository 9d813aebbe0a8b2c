package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory seen-set for dry runs and tests. Nothing
// survives the process.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

// Load returns a copy of the current seen-set.
func (s *MemoryStore) Load(_ context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{}, len(s.seen))
	for k := range s.seen {
		out[k] = struct{}{}
	}
	return out, nil
}

// Save adds the given keys to the set.
func (s *MemoryStore) Save(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.seen[k] = struct{}{}
	}
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
