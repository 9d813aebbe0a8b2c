package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStore_LoadSaveRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "seen.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	seen, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(seen) != 0 {
		t.Errorf("fresh store has %d keys, want 0", len(seen))
	}

	keys := []string{"acme::ml engineer", "finml::senior ml engineer"}
	if err := s.Save(ctx, keys); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.Close()

	// Reopen to verify persistence across restarts.
	s2, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	seen, err = s2.Load(ctx)
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	for _, k := range keys {
		if _, ok := seen[k]; !ok {
			t.Errorf("key %q missing after reopen", k)
		}
	}
}

func TestSQLiteStore_SaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "seen.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	for i := 0; i < 3; i++ {
		if err := s.Save(ctx, []string{"acme::ml engineer"}); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	seen, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(seen) != 1 {
		t.Errorf("seen has %d keys, want 1", len(seen))
	}
}

func TestSQLiteStore_SaveEmptyIsNoop(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "seen.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.Save(context.Background(), nil); err != nil {
		t.Errorf("save nil: %v", err)
	}
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Save(ctx, []string{"a::b"}); err != nil {
		t.Fatal(err)
	}

	seen, _ := s.Load(ctx)
	seen["c::d"] = struct{}{}

	seen2, _ := s.Load(ctx)
	if _, ok := seen2["c::d"]; ok {
		t.Error("mutating a loaded set leaked into the store")
	}
}
