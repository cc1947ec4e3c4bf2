package models

import (
	"time"

	"github.com/google/uuid"
)

// QueueItem is a unit of work for the priority queue/worker pool.
// At most one non-terminal row may exist per username at a time.
type QueueItem struct {
	RequestID uuid.UUID `json:"requestId"`
	Username  string    `json:"username"`
	Source    string    `json:"source"`

	Priority Priority    `json:"priority"`
	Status   QueueStatus `json:"status"`

	Attempts int `json:"attempts"`

	SubmittedAt   time.Time  `json:"submittedAt"`
	LastAttemptAt *time.Time `json:"lastAttemptAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
}

// NewQueueItem builds a fresh PENDING item ready for Enqueue.
func NewQueueItem(username, source string, priority Priority) *QueueItem {
	return &QueueItem{
		RequestID:   uuid.New(),
		Username:    NormalizeUsername(username),
		Source:      source,
		Priority:    priority,
		Status:      QueueStatusPending,
		SubmittedAt: time.Now().UTC(),
	}
}

// QueueStats summarises the queue for monitoring.
type QueueStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Paused     int `json:"paused"`

	ByPriority map[Priority]int `json:"byPriority"`
	BySource   map[string]int   `json:"bySource"`
}
