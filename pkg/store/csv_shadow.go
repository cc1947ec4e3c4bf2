package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/reelscope/pipeline/pkg/models"
)

// CSVShadow mirrors QueueItem writes to a local CSV file when
// storage.keep_local_csv_shadow is enabled. It exists purely as an
// operator-facing audit trail; Postgres remains the system of record.
// A shadow-write failure is always a logged warning, never fatal to
// the caller that triggered it.
type CSVShadow struct {
	mu   sync.Mutex
	path string
}

var csvShadowHeader = []string{
	"request_id", "username", "source", "priority", "status",
	"attempts", "submitted_at", "last_attempt_at", "error_message", "recorded_at",
}

// NewCSVShadow opens (creating if needed) dir/queue_items.csv, writing the
// header row only if the file did not already exist.
func NewCSVShadow(dir string) (*CSVShadow, error) {
	if dir == "" {
		return nil, fmt.Errorf("csv shadow dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create csv shadow dir: %w", err)
	}

	path := filepath.Join(dir, "queue_items.csv")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create csv shadow file: %w", err)
		}
		w := csv.NewWriter(f)
		if err := w.Write(csvShadowHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("write csv shadow header: %w", err)
		}
		w.Flush()
		f.Close()
	}

	return &CSVShadow{path: path}, nil
}

// WriteQueueEvent appends a row reflecting item's current state. Callers
// treat a non-nil error as a warning: the primary write has already
// succeeded by the time this runs.
func (c *CSVShadow) WriteQueueEvent(item *models.QueueItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open csv shadow: %w", err)
	}
	defer f.Close()

	lastAttempt, completed := "", ""
	if item.LastAttemptAt != nil {
		lastAttempt = item.LastAttemptAt.Format(time.RFC3339)
	}
	if item.CompletedAt != nil {
		completed = item.CompletedAt.Format(time.RFC3339)
	}

	w := csv.NewWriter(f)
	row := []string{
		item.RequestID.String(), item.Username, item.Source, string(item.Priority), string(item.Status),
		fmt.Sprintf("%d", item.Attempts), item.SubmittedAt.Format(time.RFC3339), lastAttempt,
		item.ErrorMessage, completed,
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("write csv shadow row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// ShadowQueueEvent fans a queue write out to the configured CSV shadow,
// if any. Safe to call with a nil Store.shadow.
func (s *Store) ShadowQueueEvent(item *models.QueueItem) error {
	if s.shadow == nil {
		return nil
	}
	return s.shadow.WriteQueueEvent(item)
}
