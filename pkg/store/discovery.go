package store

import (
	"context"
	"fmt"
	"time"

	"github.com/reelscope/pipeline/pkg/models"
)

// CreateDiscoverySession inserts a new session row and populates sess.ID.
func (s *Store) CreateDiscoverySession(ctx context.Context, sess *models.DiscoverySession) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO discovery_sessions (started_at, seeds_used, rounds_run, accounts_queued, strategy)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`, sess.StartedAt, sess.SeedsUsed, sess.RoundsRun, sess.AccountsQueued, sess.Strategy).Scan(&sess.ID)
	if err != nil {
		return fmt.Errorf("create discovery session: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

// RecordDiscoveryRound appends a round outcome to a session, updating its
// seedsUsed/roundsRun/accountsQueued bookkeeping.
func (s *Store) RecordDiscoveryRound(ctx context.Context, sessionID int64, round *models.DiscoveryRound) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin discovery round tx: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO discovery_rounds (session_id, round_number, seed, candidates_seen, filtered, queued)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, sessionID, round.RoundNumber, round.Seed, round.CandidatesSeen, round.Filtered, round.Queued); err != nil {
		return fmt.Errorf("insert discovery round: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}

	if _, err := tx.Exec(ctx, `
		UPDATE discovery_sessions
		SET seeds_used = array_append(seeds_used, $2), rounds_run = rounds_run + 1, accounts_queued = accounts_queued + $3
		WHERE id = $1
	`, sessionID, round.Seed, round.Queued); err != nil {
		return fmt.Errorf("update discovery session: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit discovery round tx: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

// EndDiscoverySession stamps endedAt and the terminal strategy label.
func (s *Store) EndDiscoverySession(ctx context.Context, sessionID int64, endedAt time.Time, strategy string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE discovery_sessions SET ended_at = $2, strategy = $3 WHERE id = $1
	`, sessionID, endedAt, strategy)
	if err != nil {
		return fmt.Errorf("end discovery session: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

// SweepOldDiscoverySessions deletes ended sessions (and their rounds, via
// FK cascade) older than retention, used by the cleanup package's
// periodic sweep.
func (s *Store) SweepOldDiscoverySessions(ctx context.Context, retention time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM discovery_sessions WHERE ended_at IS NOT NULL AND ended_at < $1
	`, time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("sweep old discovery sessions: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return int(tag.RowsAffected()), nil
}

// DiscoverySessionByID loads a session with its rounds populated.
func (s *Store) DiscoverySessionByID(ctx context.Context, sessionID int64) (*models.DiscoverySession, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, started_at, ended_at, seeds_used, rounds_run, accounts_queued, strategy
		FROM discovery_sessions WHERE id = $1
	`, sessionID)

	sess := &models.DiscoverySession{}
	if err := row.Scan(&sess.ID, &sess.StartedAt, &sess.EndedAt, &sess.SeedsUsed, &sess.RoundsRun,
		&sess.AccountsQueued, &sess.Strategy); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load discovery session: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}

	rows, err := s.pool.Query(ctx, `
		SELECT round_number, seed, candidates_seen, filtered, queued
		FROM discovery_rounds WHERE session_id = $1 ORDER BY round_number ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load discovery rounds: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	defer rows.Close()

	for rows.Next() {
		var r models.DiscoveryRound
		if err := rows.Scan(&r.RoundNumber, &r.Seed, &r.CandidatesSeen, &r.Filtered, &r.Queued); err != nil {
			return nil, fmt.Errorf("scan discovery round: %w", models.NewKindedError(models.ErrorKindFatal, err))
		}
		sess.Rounds = append(sess.Rounds, r)
	}
	return sess, rows.Err()
}
