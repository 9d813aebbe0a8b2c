package event

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sink is an append-only event output. Flush must make everything
// published so far durable; callers flush before marking listings seen.
type Sink interface {
	Publish(v any) error
	Flush() error
	Close() error
}

// JSONLSink appends one JSON document per line to a file.
type JSONLSink struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// OpenJSONL opens (or creates) the JSONL log at path in append mode,
// creating parent directories as needed.
func OpenJSONL(path string) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating event dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log %s: %w", path, err)
	}
	return &JSONLSink{f: f, enc: json.NewEncoder(f)}, nil
}

// Publish appends one event as a single JSON line.
func (s *JSONLSink) Publish(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(v); err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}

// Flush fsyncs the log so published events survive a crash.
func (s *JSONLSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("syncing event log: %w", err)
	}
	return nil
}

// Close flushes and closes the log file.
func (s *JSONLSink) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	return s.f.Close()
}

// Read decodes every well-formed line of a JSONL file into T.
// Malformed lines are skipped and counted rather than aborting the read;
// an event log corrupted mid-line by a crash must not block the pipeline.
// A missing file is an empty log.
func Read[T any](path string) ([]T, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("opening event log %s: %w", path, err)
	}
	defer f.Close()

	var (
		out     []T
		skipped int
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(line, &v); err != nil {
			skipped++
			continue
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return out, skipped, fmt.Errorf("reading event log %s: %w", path, err)
	}
	return out, skipped, nil
}

// ReadDiscovered loads all OpportunityDiscovered events from a JSONL log.
// Returns the count of skipped lines.
func ReadDiscovered(path string) ([]Discovered, int, error) {
	return Read[Discovered](path)
}

// ReadScored loads all OpportunityScored events from a JSONL log.
func ReadScored(path string) ([]Scored, int, error) {
	return Read[Scored](path)
}
