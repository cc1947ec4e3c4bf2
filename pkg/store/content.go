package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/reelscope/pipeline/pkg/models"
)

// minAcceptanceThreshold is the minimum number of rows a batch write
// must land before VerifyIntegrity treats a shortfall as a warning
// rather than an error: max(1, 10% of expected).
func minAcceptanceThreshold(expected int) int {
	t := expected / 10
	if t < 1 {
		t = 1
	}
	return t
}

// SaveContentBatch upserts a batch of Content rows for ownerUsername,
// returning the count actually saved.
//
// Conflict policy:
//  1. fetch existing rows for the batch's shortcodes; skip any item whose
//     shortcode already exists under a different contentId
//  2. dedup the incoming batch by shortcode and by contentId, keeping
//     the first occurrence of each
//  3. write only the content allow-list columns
//
// On a failed batch write, falls back to per-row upserts and counts
// successes rather than failing the whole call.
func (s *Store) SaveContentBatch(ctx context.Context, items []*models.Content, ownerUsername string) (int, error) {
	owner := models.NormalizeUsername(ownerUsername)
	deduped := dedupeContent(items)
	if len(deduped) == 0 {
		return 0, nil
	}

	shortcodes := make([]string, 0, len(deduped))
	for _, c := range deduped {
		shortcodes = append(shortcodes, c.Shortcode)
	}

	existing, err := s.existingContentIDs(ctx, shortcodes)
	if err != nil {
		return 0, err
	}

	accepted := deduped[:0]
	for _, c := range deduped {
		if existingID, ok := existing[c.Shortcode]; ok && c.ContentID != 0 && existingID != c.ContentID {
			continue // shortcode claimed by a different contentId, skip
		}
		accepted = append(accepted, c)
	}

	saved, err := s.batchUpsertContent(ctx, accepted, owner)
	if err != nil {
		// Batch failed outright: fall back to per-row upserts, counting successes.
		saved = 0
		for _, c := range accepted {
			if uerr := s.upsertContentRow(ctx, c, owner); uerr == nil {
				saved++
			}
		}
	}
	return saved, nil
}

// dedupeContent removes duplicate shortcodes and contentIds, keeping the
// first occurrence of each.
func dedupeContent(items []*models.Content) []*models.Content {
	seenShortcode := make(map[string]struct{}, len(items))
	seenContentID := make(map[int64]struct{}, len(items))
	out := make([]*models.Content, 0, len(items))
	for _, c := range items {
		if _, dup := seenShortcode[c.Shortcode]; dup {
			continue
		}
		if c.ContentID != 0 {
			if _, dup := seenContentID[c.ContentID]; dup {
				continue
			}
			seenContentID[c.ContentID] = struct{}{}
		}
		seenShortcode[c.Shortcode] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (s *Store) existingContentIDs(ctx context.Context, shortcodes []string) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT shortcode, content_id FROM content WHERE shortcode = ANY($1)`, shortcodes)
	if err != nil {
		return nil, fmt.Errorf("lookup existing content: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var shortcode string
		var id int64
		if err := rows.Scan(&shortcode, &id); err != nil {
			return nil, fmt.Errorf("scan existing content: %w", models.NewKindedError(models.ErrorKindFatal, err))
		}
		out[shortcode] = id
	}
	return out, rows.Err()
}

func (s *Store) batchUpsertContent(ctx context.Context, items []*models.Content, owner string) (int, error) {
	batch := &pgx.Batch{}
	for _, c := range items {
		queueContentUpsert(batch, c, owner)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	saved := 0
	for range items {
		if _, err := br.Exec(); err != nil {
			return saved, fmt.Errorf("batch upsert content: %w", models.NewKindedError(models.ErrorKindFatal, err))
		}
		saved++
	}
	return saved, nil
}

func (s *Store) upsertContentRow(ctx context.Context, c *models.Content, owner string) error {
	_, err := s.pool.Exec(ctx, contentUpsertSQL(),
		c.Shortcode, owner, string(c.Kind), string(c.Style), c.URL, c.Description,
		c.ThumbKey, c.DisplayKey, c.ViewCount, c.LikeCount, c.CommentCount, c.DatePosted,
		c.OutlierScore, c.PrimaryCategory, c.SecondaryCategory, c.TertiaryCategory,
		c.Keyword1, c.Keyword2, c.Keyword3, c.Keyword4, c.Confidence,
		c.Transcript, c.TranscriptLanguage, c.TranscriptFetchedAt, c.TranscriptAvailable,
	)
	if err != nil {
		return fmt.Errorf("upsert content %s: %w", c.Shortcode, models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

func queueContentUpsert(batch *pgx.Batch, c *models.Content, owner string) {
	batch.Queue(contentUpsertSQL(),
		c.Shortcode, owner, string(c.Kind), string(c.Style), c.URL, c.Description,
		c.ThumbKey, c.DisplayKey, c.ViewCount, c.LikeCount, c.CommentCount, c.DatePosted,
		c.OutlierScore, c.PrimaryCategory, c.SecondaryCategory, c.TertiaryCategory,
		c.Keyword1, c.Keyword2, c.Keyword3, c.Keyword4, c.Confidence,
		c.Transcript, c.TranscriptLanguage, c.TranscriptFetchedAt, c.TranscriptAvailable,
	)
}

func contentUpsertSQL() string {
	return `
		INSERT INTO content (
			shortcode, profile_owner, kind, style, url, description,
			thumb_key, display_key, view_count, like_count, comment_count, date_posted,
			outlier_score, primary_category, secondary_category, tertiary_category,
			keyword_1, keyword_2, keyword_3, keyword_4, confidence,
			transcript, transcript_language, transcript_fetched_at, transcript_available
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25
		)
		ON CONFLICT (shortcode) DO UPDATE SET
			kind = EXCLUDED.kind,
			style = EXCLUDED.style,
			url = EXCLUDED.url,
			description = EXCLUDED.description,
			thumb_key = CASE WHEN EXCLUDED.thumb_key <> '' THEN EXCLUDED.thumb_key ELSE content.thumb_key END,
			display_key = CASE WHEN EXCLUDED.display_key <> '' THEN EXCLUDED.display_key ELSE content.display_key END,
			view_count = EXCLUDED.view_count,
			like_count = EXCLUDED.like_count,
			comment_count = EXCLUDED.comment_count,
			outlier_score = EXCLUDED.outlier_score,
			primary_category = EXCLUDED.primary_category,
			secondary_category = EXCLUDED.secondary_category,
			tertiary_category = EXCLUDED.tertiary_category,
			keyword_1 = EXCLUDED.keyword_1,
			keyword_2 = EXCLUDED.keyword_2,
			keyword_3 = EXCLUDED.keyword_3,
			keyword_4 = EXCLUDED.keyword_4,
			confidence = EXCLUDED.confidence,
			transcript = CASE WHEN EXCLUDED.transcript <> '' THEN EXCLUDED.transcript ELSE content.transcript END,
			transcript_language = CASE WHEN EXCLUDED.transcript_language <> '' THEN EXCLUDED.transcript_language ELSE content.transcript_language END,
			transcript_fetched_at = COALESCE(EXCLUDED.transcript_fetched_at, content.transcript_fetched_at),
			transcript_available = EXCLUDED.transcript_available OR content.transcript_available
	`
}

// ExistingShortcodes returns the subset of candidates already present in
// Content for owner (the fetch-pipeline's dedup-before-detail-fetch step).
func (s *Store) ExistingShortcodes(ctx context.Context, owner string, candidates []string) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT shortcode FROM content WHERE profile_owner = $1 AND shortcode = ANY($2)
	`, models.NormalizeUsername(owner), candidates)
	if err != nil {
		return nil, fmt.Errorf("lookup existing shortcodes: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var shortcode string
		if err := rows.Scan(&shortcode); err != nil {
			return nil, fmt.Errorf("scan existing shortcode: %w", models.NewKindedError(models.ErrorKindFatal, err))
		}
		out[shortcode] = struct{}{}
	}
	return out, rows.Err()
}

// ContentCountForOwner returns how many Content rows exist for owner,
// used by VerifyIntegrity.
func (s *Store) ContentCountForOwner(ctx context.Context, owner string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM content WHERE profile_owner = $1`,
		models.NormalizeUsername(owner)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count content for owner: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return count, nil
}

// ContentForOwner returns all Content rows for owner, newest first.
func (s *Store) ContentForOwner(ctx context.Context, owner string) ([]*models.Content, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT content_id, shortcode, profile_owner, kind, style, url, description,
			thumb_key, display_key, view_count, like_count, comment_count, date_posted,
			outlier_score, primary_category, secondary_category, tertiary_category,
			keyword_1, keyword_2, keyword_3, keyword_4, confidence,
			transcript, transcript_language, transcript_fetched_at, transcript_available
		FROM content WHERE profile_owner = $1 ORDER BY date_posted DESC
	`, models.NormalizeUsername(owner))
	if err != nil {
		return nil, fmt.Errorf("list content for owner: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	defer rows.Close()

	var out []*models.Content
	for rows.Next() {
		c, err := scanContentRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// scanContentRow scans a row shaped by the content select column list
// shared by ContentForOwner and ListReels.
func scanContentRow(rows pgx.Rows) (*models.Content, error) {
	c := &models.Content{}
	var kind, style string
	if err := rows.Scan(
		&c.ContentID, &c.Shortcode, &c.ProfileOwner, &kind, &style, &c.URL, &c.Description,
		&c.ThumbKey, &c.DisplayKey, &c.ViewCount, &c.LikeCount, &c.CommentCount, &c.DatePosted,
		&c.OutlierScore, &c.PrimaryCategory, &c.SecondaryCategory, &c.TertiaryCategory,
		&c.Keyword1, &c.Keyword2, &c.Keyword3, &c.Keyword4, &c.Confidence,
		&c.Transcript, &c.TranscriptLanguage, &c.TranscriptFetchedAt, &c.TranscriptAvailable,
	); err != nil {
		return nil, fmt.Errorf("scan content: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	c.Kind = models.ContentKind(kind)
	c.Style = models.ContentStyle(style)
	return c, nil
}

// UpdateContentTranscript persists a harvested transcript (or its
// unavailability) against contentID, used by the viral workflow
// engine's transcript-harvesting step.
func (s *Store) UpdateContentTranscript(ctx context.Context, contentID int64, transcript, language string, fetchedAt time.Time, available bool) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE content
		SET transcript = $2, transcript_language = $3, transcript_fetched_at = $4, transcript_available = $5
		WHERE content_id = $1
	`, contentID, transcript, language, fetchedAt, available)
	if err != nil {
		return fmt.Errorf("update content transcript: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

// ContentByID loads a single Content row by id, used when harvesting a
// transcript for a specific selected reel.
func (s *Store) ContentByID(ctx context.Context, contentID int64) (*models.Content, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT content_id, shortcode, profile_owner, kind, style, url, description,
			thumb_key, display_key, view_count, like_count, comment_count, date_posted,
			outlier_score, primary_category, secondary_category, tertiary_category,
			keyword_1, keyword_2, keyword_3, keyword_4, confidence,
			transcript, transcript_language, transcript_fetched_at, transcript_available
		FROM content WHERE content_id = $1
	`, contentID)

	c := &models.Content{}
	var kind, style string
	if err := row.Scan(
		&c.ContentID, &c.Shortcode, &c.ProfileOwner, &kind, &style, &c.URL, &c.Description,
		&c.ThumbKey, &c.DisplayKey, &c.ViewCount, &c.LikeCount, &c.CommentCount, &c.DatePosted,
		&c.OutlierScore, &c.PrimaryCategory, &c.SecondaryCategory, &c.TertiaryCategory,
		&c.Keyword1, &c.Keyword2, &c.Keyword3, &c.Keyword4, &c.Confidence,
		&c.Transcript, &c.TranscriptLanguage, &c.TranscriptFetchedAt, &c.TranscriptAvailable,
	); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load content by id: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	c.Kind = models.ContentKind(kind)
	c.Style = models.ContentStyle(style)
	return c, nil
}
