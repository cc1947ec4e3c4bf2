package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/reelscope/pipeline/pkg/models"
)

// Enqueue inserts a new QueueItem. It is idempotent on
// (username, status ∈ {PENDING, PROCESSING}): if a non-terminal row
// already exists for item.Username, Enqueue returns (false, nil)
// without inserting a second row.
func (s *Store) Enqueue(ctx context.Context, item *models.QueueItem) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO queue_items (request_id, username, source, priority, status, attempts, submitted_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
		ON CONFLICT (username) WHERE status IN ('PENDING', 'PROCESSING') DO NOTHING
	`, item.RequestID, models.NormalizeUsername(item.Username), item.Source, string(item.Priority), string(item.Status), item.SubmittedAt)
	if err != nil {
		return false, fmt.Errorf("enqueue item: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	inserted := tag.RowsAffected() == 1
	if inserted {
		if serr := s.ShadowQueueEvent(item); serr != nil {
			s.logShadowWarning("enqueue", serr)
		}
	}
	return inserted, nil
}

// ClaimNext atomically claims the next eligible item, honoring
// priorityFilter if non-empty, else HIGH before LOW, then submittedAt
// order. Uses FOR UPDATE SKIP LOCKED so concurrent workers never observe
// the same PENDING row.
func (s *Store) ClaimNext(ctx context.Context, priorityFilter models.Priority) (*models.QueueItem, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	defer tx.Rollback(ctx)

	var row pgx.Row
	if priorityFilter != "" {
		row = tx.QueryRow(ctx, `
			SELECT request_id, username, source, priority, status, attempts, submitted_at, last_attempt_at, error_message
			FROM queue_items
			WHERE status = 'PENDING' AND priority = $1
			ORDER BY submitted_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		`, string(priorityFilter))
	} else {
		row = tx.QueryRow(ctx, `
			SELECT request_id, username, source, priority, status, attempts, submitted_at, last_attempt_at, error_message
			FROM queue_items
			WHERE status = 'PENDING'
			ORDER BY CASE priority WHEN 'HIGH' THEN 0 ELSE 1 END, submitted_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		`)
	}

	item := &models.QueueItem{}
	var priority, status string
	if err := row.Scan(&item.RequestID, &item.Username, &item.Source, &priority, &status,
		&item.Attempts, &item.SubmittedAt, &item.LastAttemptAt, &item.ErrorMessage); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim next item: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	item.Priority = models.Priority(priority)
	item.Status = models.QueueStatus(status)

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx, `
		UPDATE queue_items SET status = 'PROCESSING', last_attempt_at = $2, attempts = attempts + 1
		WHERE request_id = $1
	`, item.RequestID, now); err != nil {
		return nil, fmt.Errorf("claim update: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim tx: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}

	item.Status = models.QueueStatusProcessing
	item.LastAttemptAt = &now
	item.Attempts++
	return item, nil
}

// UpdateStatus transitions requestID to newStatus, recording
// errorMessage and, for terminal transitions, completedAt.
func (s *Store) UpdateStatus(ctx context.Context, requestID uuid.UUID, newStatus models.QueueStatus, errorMessage string) error {
	var completedAt *time.Time
	if newStatus.IsTerminal() {
		now := time.Now().UTC()
		completedAt = &now
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE queue_items SET status = $2, error_message = $3, completed_at = $4
		WHERE request_id = $1
	`, requestID, string(newStatus), errorMessage, completedAt)
	if err != nil {
		return fmt.Errorf("update queue item status: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}

	if s.shadow != nil {
		if item, lerr := s.itemByID(ctx, requestID); lerr == nil && item != nil {
			if serr := s.ShadowQueueEvent(item); serr != nil {
				s.logShadowWarning("update_status", serr)
			}
		}
	}
	return nil
}

func (s *Store) itemByID(ctx context.Context, requestID uuid.UUID) (*models.QueueItem, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT request_id, username, source, priority, status, attempts, submitted_at, last_attempt_at, error_message, completed_at
		FROM queue_items WHERE request_id = $1
	`, requestID)

	item := &models.QueueItem{}
	var priority, status string
	if err := row.Scan(&item.RequestID, &item.Username, &item.Source, &priority, &status,
		&item.Attempts, &item.SubmittedAt, &item.LastAttemptAt, &item.ErrorMessage, &item.CompletedAt); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	item.Priority = models.Priority(priority)
	item.Status = models.QueueStatus(status)
	return item, nil
}

// PauseAllProcessing moves every PROCESSING item for the given priority
// back to PAUSED (HIGH-preempts-LOW cancellation).
func (s *Store) PauseAllProcessing(ctx context.Context, priority models.Priority) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE queue_items SET status = 'PAUSED' WHERE status = 'PROCESSING' AND priority = $1
	`, string(priority))
	if err != nil {
		return fmt.Errorf("pause processing items: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

// RequeuePausedOnStartup moves every PAUSED item back to PENDING; called
// once at process startup.
func (s *Store) RequeuePausedOnStartup(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE queue_items SET status = 'PENDING' WHERE status = 'PAUSED'`)
	if err != nil {
		return 0, fmt.Errorf("requeue paused items: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return int(tag.RowsAffected()), nil
}

// RecoverStuckItems moves PROCESSING items whose last_attempt_at is
// older than staleness back to PENDING, making them eligible for
// ClaimNext again.
func (s *Store) RecoverStuckItems(ctx context.Context, staleness time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-staleness)
	tag, err := s.pool.Exec(ctx, `
		UPDATE queue_items SET status = 'PENDING'
		WHERE status = 'PROCESSING' AND last_attempt_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("recover stuck items: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return int(tag.RowsAffected()), nil
}

// HasHighPending reports whether any HIGH-priority item is PENDING.
func (s *Store) HasHighPending(ctx context.Context) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM queue_items WHERE status = 'PENDING' AND priority = 'HIGH')
	`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check high pending: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return exists, nil
}

// ActiveItemForUsername returns the current non-terminal QueueItem for
// username, if any (used by the HTTP admission layer for idempotent
// enqueue and /status lookups).
func (s *Store) ActiveItemForUsername(ctx context.Context, username string) (*models.QueueItem, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT request_id, username, source, priority, status, attempts, submitted_at, last_attempt_at, error_message
		FROM queue_items
		WHERE username = $1 AND status IN ('PENDING','PROCESSING')
		ORDER BY submitted_at DESC LIMIT 1
	`, models.NormalizeUsername(username))

	item := &models.QueueItem{}
	var priority, status string
	if err := row.Scan(&item.RequestID, &item.Username, &item.Source, &priority, &status,
		&item.Attempts, &item.SubmittedAt, &item.LastAttemptAt, &item.ErrorMessage); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup active queue item: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	item.Priority = models.Priority(priority)
	item.Status = models.QueueStatus(status)
	return item, nil
}

// LatestItemForUsername returns the most recently submitted QueueItem
// for username regardless of status (used by /status when no active
// item remains).
func (s *Store) LatestItemForUsername(ctx context.Context, username string) (*models.QueueItem, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT request_id, username, source, priority, status, attempts, submitted_at, last_attempt_at, error_message
		FROM queue_items WHERE username = $1 ORDER BY submitted_at DESC LIMIT 1
	`, models.NormalizeUsername(username))

	item := &models.QueueItem{}
	var priority, status string
	if err := row.Scan(&item.RequestID, &item.Username, &item.Source, &priority, &status,
		&item.Attempts, &item.SubmittedAt, &item.LastAttemptAt, &item.ErrorMessage); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup latest queue item: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	item.Priority = models.Priority(priority)
	item.Status = models.QueueStatus(status)
	return item, nil
}

// Stats aggregates the queue for monitoring.
func (s *Store) Stats(ctx context.Context) (*models.QueueStats, error) {
	stats := &models.QueueStats{
		ByPriority: make(map[models.Priority]int),
		BySource:   make(map[string]int),
	}

	rows, err := s.pool.Query(ctx, `SELECT status, priority, source, count(*) FROM queue_items GROUP BY status, priority, source`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	defer rows.Close()

	for rows.Next() {
		var status, priority, source string
		var count int
		if err := rows.Scan(&status, &priority, &source, &count); err != nil {
			return nil, fmt.Errorf("scan queue stats: %w", models.NewKindedError(models.ErrorKindFatal, err))
		}
		switch models.QueueStatus(status) {
		case models.QueueStatusPending:
			stats.Pending += count
		case models.QueueStatusProcessing:
			stats.Processing += count
		case models.QueueStatusCompleted:
			stats.Completed += count
		case models.QueueStatusFailed:
			stats.Failed += count
		case models.QueueStatusPaused:
			stats.Paused += count
		}
		stats.ByPriority[models.Priority(priority)] += count
		stats.BySource[source] += count
	}
	return stats, rows.Err()
}
