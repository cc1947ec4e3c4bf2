package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/reelscope/pipeline/pkg/models"
)

// CreateViralRequest inserts a new ViralAnalysisRequest in PENDING status
// and populates req.ID.
func (s *Store) CreateViralRequest(ctx context.Context, req *models.ViralAnalysisRequest) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO viral_analysis_requests (
			session_id, primary_username, competitors, content_type, target_audience, goals,
			status, progress, current_step, submitted_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id
	`, req.SessionID, models.NormalizeUsername(req.PrimaryUsername), req.Competitors,
		req.Strategy.ContentType, req.Strategy.TargetAudience, req.Strategy.Goals,
		string(req.Status), req.Progress, req.CurrentStep, req.SubmittedAt,
	).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("create viral request: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

// ActiveViralRequest returns the non-terminal ViralAnalysisRequest for
// (sessionID, primaryUsername), if any. Backs /check-existing.
func (s *Store) ActiveViralRequest(ctx context.Context, sessionID, primaryUsername string) (*models.ViralAnalysisRequest, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, session_id, primary_username, competitors, content_type, target_audience, goals,
			status, progress, current_step, submitted_at, started_at, completed_at, next_scheduled_run, total_runs
		FROM viral_analysis_requests
		WHERE session_id = $1 AND primary_username = $2 AND status NOT IN ('completed', 'failed')
		ORDER BY submitted_at DESC LIMIT 1
	`, sessionID, models.NormalizeUsername(primaryUsername))
	return scanViralRequest(row)
}

// ViralRequestByID loads a ViralAnalysisRequest by id.
func (s *Store) ViralRequestByID(ctx context.Context, id int64) (*models.ViralAnalysisRequest, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, session_id, primary_username, competitors, content_type, target_audience, goals,
			status, progress, current_step, submitted_at, started_at, completed_at, next_scheduled_run, total_runs
		FROM viral_analysis_requests WHERE id = $1
	`, id)
	return scanViralRequest(row)
}

// DueRecurringRequests returns requests whose nextScheduledRun has
// elapsed, for the recurring-run scheduler ticker.
func (s *Store) DueRecurringRequests(ctx context.Context) ([]*models.ViralAnalysisRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, primary_username, competitors, content_type, target_audience, goals,
			status, progress, current_step, submitted_at, started_at, completed_at, next_scheduled_run, total_runs
		FROM viral_analysis_requests
		WHERE next_scheduled_run IS NOT NULL AND next_scheduled_run <= now() AND status = 'completed'
	`)
	if err != nil {
		return nil, fmt.Errorf("list due recurring requests: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	defer rows.Close()

	var out []*models.ViralAnalysisRequest
	for rows.Next() {
		req, err := scanViralRequestRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// ViralRequestBySession returns the most recently submitted
// ViralAnalysisRequest for sessionID, regardless of status. Backs
// GET /api/viral-ideas/queue/{session_id}.
func (s *Store) ViralRequestBySession(ctx context.Context, sessionID string) (*models.ViralAnalysisRequest, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, session_id, primary_username, competitors, content_type, target_audience, goals,
			status, progress, current_step, submitted_at, started_at, completed_at, next_scheduled_run, total_runs
		FROM viral_analysis_requests
		WHERE session_id = $1
		ORDER BY submitted_at DESC LIMIT 1
	`, sessionID)
	return scanViralRequest(row)
}

// LatestViralRequestForUsername returns the most recently submitted
// ViralAnalysisRequest for primaryUsername across all sessions. Backs
// GET /api/viral-ideas/check-existing/{username}, which prefers a
// completed run and falls back to whatever is active.
func (s *Store) LatestViralRequestForUsername(ctx context.Context, primaryUsername string) (*models.ViralAnalysisRequest, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, session_id, primary_username, competitors, content_type, target_audience, goals,
			status, progress, current_step, submitted_at, started_at, completed_at, next_scheduled_run, total_runs
		FROM viral_analysis_requests
		WHERE primary_username = $1
		ORDER BY (status = 'completed') DESC, submitted_at DESC LIMIT 1
	`, models.NormalizeUsername(primaryUsername))
	return scanViralRequest(row)
}

func scanViralRequest(row pgx.Row) (*models.ViralAnalysisRequest, error) {
	req := &models.ViralAnalysisRequest{}
	var status string
	if err := row.Scan(&req.ID, &req.SessionID, &req.PrimaryUsername, &req.Competitors,
		&req.Strategy.ContentType, &req.Strategy.TargetAudience, &req.Strategy.Goals,
		&status, &req.Progress, &req.CurrentStep, &req.SubmittedAt, &req.StartedAt, &req.CompletedAt,
		&req.NextScheduledRun, &req.TotalRuns); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan viral request: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	req.Status = models.ViralRequestStatus(status)
	return req, nil
}

func scanViralRequestRows(rows pgx.Rows) (*models.ViralAnalysisRequest, error) {
	req := &models.ViralAnalysisRequest{}
	var status string
	if err := rows.Scan(&req.ID, &req.SessionID, &req.PrimaryUsername, &req.Competitors,
		&req.Strategy.ContentType, &req.Strategy.TargetAudience, &req.Strategy.Goals,
		&status, &req.Progress, &req.CurrentStep, &req.SubmittedAt, &req.StartedAt, &req.CompletedAt,
		&req.NextScheduledRun, &req.TotalRuns); err != nil {
		return nil, fmt.Errorf("scan viral request row: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	req.Status = models.ViralRequestStatus(status)
	return req, nil
}

// UpdateViralRequestProgress sets status/progress/currentStep for req,
// the state-machine transition point used throughout the workflow engine.
func (s *Store) UpdateViralRequestProgress(ctx context.Context, id int64, status models.ViralRequestStatus, progress int, step string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE viral_analysis_requests SET status = $2, progress = $3, current_step = $4 WHERE id = $1
	`, id, string(status), progress, step)
	if err != nil {
		return fmt.Errorf("update viral request progress: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

// MarkViralRequestStarted stamps startedAt once, on the first run claim.
func (s *Store) MarkViralRequestStarted(ctx context.Context, id int64, startedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE viral_analysis_requests SET started_at = $2 WHERE id = $1 AND started_at IS NULL
	`, id, startedAt)
	if err != nil {
		return fmt.Errorf("mark viral request started: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

// CompleteViralRequest finalizes a request: marks it completed, stamps
// completedAt, increments totalRuns, and schedules nextScheduledRun when
// recurring is true.
func (s *Store) CompleteViralRequest(ctx context.Context, id int64, completedAt time.Time, nextScheduledRun *time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE viral_analysis_requests
		SET status = 'completed', progress = $2, completed_at = $3, total_runs = total_runs + 1, next_scheduled_run = $4
		WHERE id = $1
	`, id, models.ProgressDone, completedAt, nextScheduledRun)
	if err != nil {
		return fmt.Errorf("complete viral request: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

// FailViralRequest marks a request failed, recording the reason in
// currentStep.
func (s *Store) FailViralRequest(ctx context.Context, id int64, reason string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE viral_analysis_requests SET status = 'failed', current_step = $2 WHERE id = $1
	`, id, reason)
	if err != nil {
		return fmt.Errorf("fail viral request: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

// CreateViralRun inserts the next run for requestID, computing run#
// as max(existing run#) + 1, and populates run.ID/run.RunNumber.
func (s *Store) CreateViralRun(ctx context.Context, run *models.ViralAnalysisRun) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO viral_analysis_runs (request_id, run_number, kind, status, workflow_version, started_at)
		VALUES ($1, COALESCE((SELECT max(run_number) FROM viral_analysis_runs WHERE request_id = $1), 0) + 1, $2, $3, $4, $5)
		RETURNING id, run_number
	`, run.RequestID, string(run.Kind), string(run.Status), run.WorkflowVersion, run.StartedAt,
	).Scan(&run.ID, &run.RunNumber)
	if err != nil {
		return fmt.Errorf("create viral run: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

// LatestCompletedRun returns the most recent completed run for
// requestID, used by recurring runs to find the high-water mark and by
// /check-existing to surface the last result.
func (s *Store) LatestCompletedRun(ctx context.Context, requestID int64) (*models.ViralAnalysisRun, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, request_id, run_number, kind, status, primary_reels_count, competitor_reels_count,
			transcripts_fetched, workflow_version, analysis_data, last_discovery_fetch_at, started_at, analysis_completed_at
		FROM viral_analysis_runs
		WHERE request_id = $1 AND status = 'completed'
		ORDER BY run_number DESC LIMIT 1
	`, requestID)
	return scanViralRun(row)
}

func scanViralRun(row pgx.Row) (*models.ViralAnalysisRun, error) {
	run := &models.ViralAnalysisRun{}
	var kind, status string
	if err := row.Scan(&run.ID, &run.RequestID, &run.RunNumber, &kind, &status,
		&run.PrimaryReelsCount, &run.CompetitorReelsCount, &run.TranscriptsFetched, &run.WorkflowVersion,
		&run.AnalysisData, &run.LastDiscoveryFetchAt, &run.StartedAt, &run.AnalysisCompletedAt); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan viral run: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	run.Kind = models.ViralRunKind(kind)
	run.Status = models.ViralRunStatus(status)
	return run, nil
}

// UpdateRunCounts records interim progress counters on a run.
func (s *Store) UpdateRunCounts(ctx context.Context, runID int64, primaryReels, competitorReels, transcripts int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE viral_analysis_runs
		SET primary_reels_count = $2, competitor_reels_count = $3, transcripts_fetched = $4
		WHERE id = $1
	`, runID, primaryReels, competitorReels, transcripts)
	if err != nil {
		return fmt.Errorf("update run counts: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

// MarkRunTranscriptsCompleted transitions a run to transcripts_completed,
// the checkpoint before AI invocation.
func (s *Store) MarkRunTranscriptsCompleted(ctx context.Context, runID int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE viral_analysis_runs SET status = 'transcripts_completed' WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("mark run transcripts completed: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

// CompleteRun persists the final AI analysis payload and marks the run
// completed.
func (s *Store) CompleteRun(ctx context.Context, runID int64, analysisData []byte, completedAt time.Time, lastDiscoveryFetchAt *time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE viral_analysis_runs
		SET status = 'completed', analysis_data = $2, analysis_completed_at = $3, last_discovery_fetch_at = $4
		WHERE id = $1
	`, runID, analysisData, completedAt, lastDiscoveryFetchAt)
	if err != nil {
		return fmt.Errorf("complete viral run: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

// FailRun marks a run failed.
func (s *Store) FailRun(ctx context.Context, runID int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE viral_analysis_runs SET status = 'failed' WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("fail viral run: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

// SaveViralReels batch-inserts the reels selected for a run.
func (s *Store) SaveViralReels(ctx context.Context, reels []*models.ViralAnalysisReel) error {
	if len(reels) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range reels {
		batch.Queue(`
			INSERT INTO viral_analysis_reels (
				run_id, content_id, role, selection_rank, view_count, like_count, comment_count,
				outlier_score, transcript_requested, transcript_completed, transcript_error, hook_text, power_words
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		`, r.RunID, r.ContentID, string(r.Role), r.SelectionRank,
			r.MetricsSnapshot.ViewCount, r.MetricsSnapshot.LikeCount, r.MetricsSnapshot.CommentCount, r.MetricsSnapshot.OutlierScore,
			r.TranscriptRequested, r.TranscriptCompleted, r.TranscriptError, r.HookText, r.PowerWords)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range reels {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("save viral reels: %w", models.NewKindedError(models.ErrorKindFatal, err))
		}
	}
	return nil
}

// UpdateReelHook persists the hook text and power words the AI
// sub-pipeline extracted for a reel, after it was already selected and
// saved via SaveViralReels.
func (s *Store) UpdateReelHook(ctx context.Context, reelID int64, hookText string, powerWords []string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE viral_analysis_reels SET hook_text = $2, power_words = $3 WHERE id = $1
	`, reelID, hookText, powerWords)
	if err != nil {
		return fmt.Errorf("update reel hook: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

// UpdateReelTranscript records a reel's transcript-harvesting outcome.
func (s *Store) UpdateReelTranscript(ctx context.Context, reelID int64, completed bool, transcriptErr string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE viral_analysis_reels SET transcript_completed = $2, transcript_error = $3 WHERE id = $1
	`, reelID, completed, transcriptErr)
	if err != nil {
		return fmt.Errorf("update reel transcript: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

// ReelsForRun lists the reels selected for a run, ordered by selection rank.
func (s *Store) ReelsForRun(ctx context.Context, runID int64) ([]*models.ViralAnalysisReel, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, run_id, content_id, role, selection_rank, view_count, like_count, comment_count,
			outlier_score, transcript_requested, transcript_completed, transcript_error, hook_text, power_words
		FROM viral_analysis_reels WHERE run_id = $1 ORDER BY selection_rank ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list reels for run: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	defer rows.Close()

	var out []*models.ViralAnalysisReel
	for rows.Next() {
		r := &models.ViralAnalysisReel{}
		var role string
		if err := rows.Scan(&r.ID, &r.RunID, &r.ContentID, &role, &r.SelectionRank,
			&r.MetricsSnapshot.ViewCount, &r.MetricsSnapshot.LikeCount, &r.MetricsSnapshot.CommentCount, &r.MetricsSnapshot.OutlierScore,
			&r.TranscriptRequested, &r.TranscriptCompleted, &r.TranscriptError, &r.HookText, &r.PowerWords); err != nil {
			return nil, fmt.Errorf("scan viral reel: %w", models.NewKindedError(models.ErrorKindFatal, err))
		}
		r.Role = models.ReelRole(role)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveViralScripts batch-inserts the generated scripts for a run
// (denormalised from analysisData for the listing endpoints).
func (s *Store) SaveViralScripts(ctx context.Context, scripts []*models.ViralScript) error {
	if len(scripts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, sc := range scripts {
		batch.Queue(`
			INSERT INTO viral_scripts (
				run_id, title, content, primary_hook, call_to_action, kind, duration_secs,
				based_on_competitor, original_competitor_hook
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, sc.RunID, sc.Title, sc.Content, sc.PrimaryHook, sc.CallToAction, sc.Kind, sc.DurationSecs,
			sc.SourceReels.BasedOnCompetitor, sc.SourceReels.OriginalCompetitorHook)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range scripts {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("save viral scripts: %w", models.NewKindedError(models.ErrorKindFatal, err))
		}
	}
	return nil
}

// ScriptsForRun lists the generated scripts for a run.
func (s *Store) ScriptsForRun(ctx context.Context, runID int64) ([]*models.ViralScript, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, run_id, title, content, primary_hook, call_to_action, kind, duration_secs,
			based_on_competitor, original_competitor_hook
		FROM viral_scripts WHERE run_id = $1 ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list scripts for run: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	defer rows.Close()

	var out []*models.ViralScript
	for rows.Next() {
		sc := &models.ViralScript{}
		if err := rows.Scan(&sc.ID, &sc.RunID, &sc.Title, &sc.Content, &sc.PrimaryHook, &sc.CallToAction,
			&sc.Kind, &sc.DurationSecs, &sc.SourceReels.BasedOnCompetitor, &sc.SourceReels.OriginalCompetitorHook); err != nil {
			return nil, fmt.Errorf("scan viral script: %w", models.NewKindedError(models.ErrorKindFatal, err))
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
