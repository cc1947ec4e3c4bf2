package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/reelscope/pipeline/pkg/models"
)

// UpsertSecondaryBatch upserts discovered SecondaryProfile rows,
// attributing them to discoveredByID (the PrimaryProfile whose
// similar-profiles expansion surfaced them).
func (s *Store) UpsertSecondaryBatch(ctx context.Context, items []*models.SecondaryProfile, discoveredByID int64) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, sp := range items {
		accountType := models.NormalizeAccountType(string(sp.AccountType))
		batch.Queue(`
			INSERT INTO secondary_profiles (
				username, full_name, bio, followers, following, media_count,
				image_key, is_verified, account_type, primary_category, secondary_category,
				tertiary_category, discovered_by, similarity_rank
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			ON CONFLICT (username) DO UPDATE SET
				full_name = EXCLUDED.full_name,
				bio = EXCLUDED.bio,
				followers = EXCLUDED.followers,
				following = EXCLUDED.following,
				media_count = EXCLUDED.media_count,
				image_key = CASE WHEN EXCLUDED.image_key <> '' THEN EXCLUDED.image_key ELSE secondary_profiles.image_key END,
				is_verified = EXCLUDED.is_verified,
				account_type = EXCLUDED.account_type,
				discovered_by = EXCLUDED.discovered_by,
				similarity_rank = EXCLUDED.similarity_rank
		`, models.NormalizeUsername(sp.Username), sp.FullName, sp.Bio, sp.Followers, sp.Following, sp.MediaCount,
			sp.ImageKey, sp.IsVerified, string(accountType), sp.PrimaryCategory, sp.SecondaryCategory,
			sp.TertiaryCategory, discoveredByID, sp.SimilarityRank)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	saved := 0
	for range items {
		if _, err := br.Exec(); err != nil {
			return saved, fmt.Errorf("upsert secondary batch: %w", models.NewKindedError(models.ErrorKindFatal, err))
		}
		saved++
	}
	return saved, nil
}

// SecondaryCountFor returns how many SecondaryProfile rows exist with
// discoveredBy == discoveredByID, used by VerifyIntegrity.
func (s *Store) SecondaryCountFor(ctx context.Context, discoveredByID int64) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM secondary_profiles WHERE discovered_by = $1`, discoveredByID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count secondary profiles: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return count, nil
}

// KnownUsernames returns the set of usernames already present as either
// a PrimaryProfile or a SecondaryProfile, the network discoverer's
// "drop already known" check.
func (s *Store) KnownUsernames(ctx context.Context, candidates []string) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT username FROM primary_profiles WHERE username = ANY($1)
		UNION
		SELECT username FROM secondary_profiles WHERE username = ANY($1)
	`, candidates)
	if err != nil {
		return nil, fmt.Errorf("lookup known usernames: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan known username: %w", models.NewKindedError(models.ErrorKindFatal, err))
		}
		out[u] = struct{}{}
	}
	return out, rows.Err()
}
