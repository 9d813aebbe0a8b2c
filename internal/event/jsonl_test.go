package event

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oppscan/oppscan/internal/model"
)

func TestJSONLSink_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events", "discovered.jsonl")

	sink, err := OpenJSONL(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	now := time.Date(2026, 2, 23, 6, 0, 0, 0, time.UTC)
	ev := NewDiscovered(model.Listing{
		ListingID:    "l-1",
		Company:      "Acme AI",
		Role:         "ML Engineer",
		Location:     model.LocationRemote,
		Seniority:    model.SenioritySenior,
		Sources:      []string{"hackernews"},
		DiscoveredAt: now,
		URL:          "https://example.com/1",
	}, now)

	if err := sink.Publish(ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, skipped, err := ReadDiscovered(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if len(got) != 1 {
		t.Fatalf("events = %d, want 1", len(got))
	}
	if got[0].EventType != TypeDiscovered || got[0].Context != Context {
		t.Errorf("bad envelope: %+v", got[0])
	}
	if got[0].Payload.Company != "Acme AI" {
		t.Errorf("payload company = %q", got[0].Payload.Company)
	}
}

func TestJSONLSink_AppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scored.jsonl")
	now := time.Now()

	for i := 0; i < 2; i++ {
		sink, err := OpenJSONL(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		ev := NewScored(ScoredPayload{ListingID: "l", Score: 80, Verdict: "accept"}, now)
		if err := sink.Publish(ev); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
		sink.Close()
	}

	got, _, err := ReadScored(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("events = %d, want 2 (append, not truncate)", len(got))
	}
}

func TestRead_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discovered.jsonl")
	content := `{"event_type":"OpportunityDiscovered","version":"v1","context":"DISC","payload":{"listing_id":"a","company":"A","role":"R"}}
{not json at all
{"event_type":"OpportunityDiscovered","version":"v1","context":"DISC","payload":{"listing_id":"b","company":"B","role":"R"}}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, skipped, err := ReadDiscovered(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || skipped != 1 {
		t.Errorf("got %d events, %d skipped; want 2 events, 1 skipped", len(got), skipped)
	}
}

func TestRead_MissingFileIsEmpty(t *testing.T) {
	got, skipped, err := ReadScored(filepath.Join(t.TempDir(), "nope.jsonl"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != nil || skipped != 0 {
		t.Errorf("got %v/%d, want empty", got, skipped)
	}
}
