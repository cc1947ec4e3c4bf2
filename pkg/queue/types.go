// Package queue implements the two-level priority queue's worker
// pool. The queue itself (states, atomic claim, stats) lives in
// pkg/store; this package is the long-running process loop that drains
// it and invokes the fetch pipeline for each claimed item.
package queue

import (
	"context"
	"time"

	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/pkg/store"
)

// PipelineRunner is the subset of pkg/pipeline.Pipeline the worker pool
// needs. A QueueItem's priority selects which method runs it.
type PipelineRunner interface {
	RunComplete(ctx context.Context, username string) (*store.IntegrityReport, error)
	RunLowPriority(ctx context.Context, username string) (*store.IntegrityReport, error)
}

// task tracks one in-flight claimed item so the pool can cancel it (HIGH
// preemption, shutdown) and reap it once its goroutine exits.
type task struct {
	item   *models.QueueItem
	cancel context.CancelFunc
	done   chan struct{}
}

// PoolHealth summarises the worker pool for the HTTP health endpoint.
type PoolHealth struct {
	ActiveHigh int              `json:"activeHigh"`
	ActiveLow  int              `json:"activeLow"`
	Stats      *models.QueueStats `json:"stats"`
	LastTick   time.Time        `json:"lastTick"`
}
