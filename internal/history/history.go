// Package history keeps a record of finished requests.
// History is stored as a JSON file in the user's config directory.
package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arin/ndstream/internal/config"
)

const (
	fileName   = "history.json"
	maxEntries = 500
)

// Outcomes recorded in Entry.Outcome.
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

// fileMu guards concurrent access to the history file.
var fileMu sync.Mutex

// Entry represents a single finished request.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response,omitempty"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`

	FirstTokenMs   int64 `json:"first_token_ms,omitempty"`
	TotalMs        int64 `json:"total_ms"`
	EvalCount      int   `json:"eval_count,omitempty"`
	EvalDurationNs int64 `json:"eval_duration_ns,omitempty"`
}

// TokensPerSecond is zero when the server sent no timing stats.
func (e Entry) TokensPerSecond() float64 {
	if e.EvalCount == 0 || e.EvalDurationNs <= 0 {
		return 0
	}
	return float64(e.EvalCount) / time.Duration(e.EvalDurationNs).Seconds()
}

func historyPath() string {
	return filepath.Join(config.Dir(), fileName)
}

// Save appends a new entry to the history file. A missing ID is generated.
func Save(entry Entry) error {
	fileMu.Lock()
	defer fileMu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	entries, _ := loadAll()
	entries = append(entries, entry)

	// Trim to max entries, keeping the most recent.
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}

	if err := os.MkdirAll(config.Dir(), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(historyPath(), data, 0o600)
}

// Load returns the most recent n history entries.
func Load(limit int) ([]Entry, error) {
	fileMu.Lock()
	defer fileMu.Unlock()

	entries, err := loadAll()
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	return entries, nil
}

func loadAll() ([]Entry, error) {
	data, err := os.ReadFile(historyPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}
