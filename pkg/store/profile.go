package store

import (
	"context"
	"fmt"

	"github.com/reelscope/pipeline/pkg/models"
)

// UpsertPrimary creates or updates a PrimaryProfile row, keyed on the
// case-insensitive username. Only whitelisted fields are written; the
// account type is normalised before the write.
func (s *Store) UpsertPrimary(ctx context.Context, p *models.PrimaryProfile) error {
	username := models.NormalizeUsername(p.Username)
	accountType := models.NormalizeAccountType(string(p.AccountType))

	_, err := s.pool.Exec(ctx, `
		INSERT INTO primary_profiles (
			username, display_name, bio, followers, posts_count, is_verified,
			account_type, image_key, primary_category, secondary_category, tertiary_category,
			total_reels, median_views, mean_views, std_views, total_views, total_likes, total_comments,
			similar, last_full_scrape, analysis_timestamp
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21
		)
		ON CONFLICT (username) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			bio = EXCLUDED.bio,
			followers = EXCLUDED.followers,
			posts_count = EXCLUDED.posts_count,
			is_verified = EXCLUDED.is_verified,
			account_type = EXCLUDED.account_type,
			image_key = CASE WHEN EXCLUDED.image_key <> '' THEN EXCLUDED.image_key ELSE primary_profiles.image_key END,
			primary_category = EXCLUDED.primary_category,
			secondary_category = EXCLUDED.secondary_category,
			tertiary_category = EXCLUDED.tertiary_category,
			total_reels = EXCLUDED.total_reels,
			median_views = EXCLUDED.median_views,
			mean_views = EXCLUDED.mean_views,
			std_views = EXCLUDED.std_views,
			total_views = EXCLUDED.total_views,
			total_likes = EXCLUDED.total_likes,
			total_comments = EXCLUDED.total_comments,
			similar = EXCLUDED.similar,
			last_full_scrape = EXCLUDED.last_full_scrape,
			analysis_timestamp = EXCLUDED.analysis_timestamp
	`,
		username, p.DisplayName, p.Bio, p.Followers, p.PostsCount, p.IsVerified,
		string(accountType), p.ImageKey, p.PrimaryCategory, p.SecondaryCategory, p.TertiaryCategory,
		p.AggMetrics.TotalReels, p.AggMetrics.MedianViews, p.AggMetrics.MeanViews, p.AggMetrics.StdViews,
		p.AggMetrics.TotalViews, p.AggMetrics.TotalLikes, p.AggMetrics.TotalComments,
		p.Similar, p.LastFullScrape, p.AnalysisTimestamp,
	)
	if err != nil {
		return fmt.Errorf("upsert primary profile %s: %w", username, models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}

// GetPrimary fetches a PrimaryProfile by username, case-insensitively.
func (s *Store) GetPrimary(ctx context.Context, username string) (*models.PrimaryProfile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT username, display_name, bio, followers, posts_count, is_verified, account_type,
			image_key, primary_category, secondary_category, tertiary_category,
			total_reels, median_views, mean_views, std_views, total_views, total_likes, total_comments,
			similar, last_full_scrape, analysis_timestamp
		FROM primary_profiles WHERE username = $1
	`, models.NormalizeUsername(username))

	p := &models.PrimaryProfile{}
	var accountType string
	if err := row.Scan(
		&p.Username, &p.DisplayName, &p.Bio, &p.Followers, &p.PostsCount, &p.IsVerified, &accountType,
		&p.ImageKey, &p.PrimaryCategory, &p.SecondaryCategory, &p.TertiaryCategory,
		&p.AggMetrics.TotalReels, &p.AggMetrics.MedianViews, &p.AggMetrics.MeanViews, &p.AggMetrics.StdViews,
		&p.AggMetrics.TotalViews, &p.AggMetrics.TotalLikes, &p.AggMetrics.TotalComments,
		&p.Similar, &p.LastFullScrape, &p.AnalysisTimestamp,
	); err != nil {
		return nil, classifyRowError(err, "primary profile", username)
	}
	p.AccountType = models.AccountType(accountType)
	return p, nil
}

// PrimaryExists reports whether a PrimaryProfile row exists for username.
func (s *Store) PrimaryExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM primary_profiles WHERE username = $1)`,
		models.NormalizeUsername(username)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check primary profile exists: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return exists, nil
}

// RandomUnseededPrimary returns a random PrimaryProfile username that is
// not in the excluded set, or "" if none remain (network discoverer
// seed selection).
func (s *Store) RandomUnseededPrimary(ctx context.Context, excluded []string) (string, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT username FROM primary_profiles
		WHERE username <> ALL($1)
		ORDER BY random()
		LIMIT 1
	`, excluded)

	var username string
	if err := row.Scan(&username); err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("select random unseeded primary: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return username, nil
}
