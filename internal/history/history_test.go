package history

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func setupTestDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	os.MkdirAll(filepath.Join(dir, ".ndstream"), 0o700)
}

func TestSave_SingleEntry(t *testing.T) {
	setupTestDir(t)

	err := Save(Entry{Model: "llama3.2", Prompt: "say hello", Response: "Hello world", Outcome: OutcomeCompleted, TotalMs: 420})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := Load(10)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Prompt != "say hello" {
		t.Errorf("expected prompt 'say hello', got %q", e.Prompt)
	}
	if e.Response != "Hello world" {
		t.Errorf("expected response 'Hello world', got %q", e.Response)
	}
	if e.Outcome != OutcomeCompleted {
		t.Errorf("expected outcome completed, got %q", e.Outcome)
	}
	if e.ID == "" {
		t.Error("expected a generated id")
	}
	if e.Timestamp.IsZero() {
		t.Error("expected non-zero timestamp")
	}
}

func TestSave_KeepsGivenIDAndTimestamp(t *testing.T) {
	setupTestDir(t)

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	Save(Entry{ID: "req-1", Timestamp: ts, Prompt: "p", Outcome: OutcomeCancelled})

	entries, _ := Load(1)
	if entries[0].ID != "req-1" {
		t.Errorf("expected id req-1, got %q", entries[0].ID)
	}
	if !entries[0].Timestamp.Equal(ts) {
		t.Errorf("expected timestamp %v, got %v", ts, entries[0].Timestamp)
	}
}

func TestSave_UniqueIDs(t *testing.T) {
	setupTestDir(t)

	for i := 0; i < 5; i++ {
		Save(Entry{Prompt: "test", Outcome: OutcomeCompleted})
	}

	entries, err := Load(100)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	seen := map[string]bool{}
	for _, e := range entries {
		if seen[e.ID] {
			t.Errorf("duplicate id %q", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestSave_TrimsToMaxEntries(t *testing.T) {
	setupTestDir(t)

	// Save more than maxEntries (500).
	for i := 0; i < 510; i++ {
		Save(Entry{Prompt: "test", Outcome: OutcomeCompleted})
	}

	entries, err := Load(0) // Load all.
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(entries) != maxEntries {
		t.Errorf("expected %d entries, got %d", maxEntries, len(entries))
	}
}

func TestSave_Concurrent(t *testing.T) {
	setupTestDir(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Save(Entry{Prompt: "parallel", Outcome: OutcomeCompleted})
		}()
	}
	wg.Wait()

	entries, _ := Load(0)
	if len(entries) != 8 {
		t.Errorf("expected 8 entries, got %d", len(entries))
	}
}

func TestLoad_WithLimit(t *testing.T) {
	setupTestDir(t)

	for i := 0; i < 20; i++ {
		Save(Entry{Prompt: "test", Outcome: OutcomeCompleted})
	}

	entries, err := Load(5)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(entries) != 5 {
		t.Errorf("expected 5 entries with limit, got %d", len(entries))
	}
}

func TestLoad_NoFile(t *testing.T) {
	setupTestDir(t)

	entries, err := Load(10)
	if err != nil {
		t.Fatalf("Load on missing file should not error: %v", err)
	}
	if entries != nil {
		t.Errorf("expected nil entries, got %v", entries)
	}
}

func TestSave_FailedEntry(t *testing.T) {
	setupTestDir(t)

	Save(Entry{Prompt: "hi", Outcome: OutcomeFailed, Error: "could not reach server"})

	entries, _ := Load(10)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Outcome != OutcomeFailed {
		t.Errorf("expected outcome failed, got %q", entries[0].Outcome)
	}
	if entries[0].Error != "could not reach server" {
		t.Errorf("expected error text, got %q", entries[0].Error)
	}
	if entries[0].Response != "" {
		t.Errorf("expected empty response, got %q", entries[0].Response)
	}
}

func TestEntry_TokensPerSecond(t *testing.T) {
	e := Entry{EvalCount: 40, EvalDurationNs: int64(2 * time.Second)}
	if got := e.TokensPerSecond(); got != 20 {
		t.Errorf("expected 20 tokens/s, got %v", got)
	}
	if got := (Entry{}).TokensPerSecond(); got != 0 {
		t.Errorf("expected 0 without stats, got %v", got)
	}
}
