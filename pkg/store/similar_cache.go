package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/reelscope/pipeline/pkg/models"
)

// UpsertSimilarProfilesCache batch-writes one fetch's worth of similar
// profiles, all sharing batchID, against primaryUsername.
func (s *Store) UpsertSimilarProfilesCache(ctx context.Context, rows []*models.SimilarProfilesCache) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO similar_profiles_cache (
				primary_username, similar_username, name, image_key, rank, batch_id, created_at, image_downloaded
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (primary_username, similar_username) DO UPDATE SET
				name = EXCLUDED.name,
				image_key = CASE WHEN EXCLUDED.image_key <> '' THEN EXCLUDED.image_key ELSE similar_profiles_cache.image_key END,
				rank = EXCLUDED.rank,
				batch_id = EXCLUDED.batch_id,
				created_at = EXCLUDED.created_at,
				image_downloaded = EXCLUDED.image_downloaded
		`, models.NormalizeUsername(r.PrimaryUsername), models.NormalizeUsername(r.SimilarUsername),
			r.Name, r.ImageKey, r.Rank, r.BatchID, r.CreatedAt, r.ImageDownloaded)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range rows {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert similar profiles cache: %w", models.NewKindedError(models.ErrorKindFatal, err))
		}
	}
	return nil
}

// SimilarProfilesForPrimary returns the cached similar-profile rows for
// primaryUsername, newest batch first, empty if the cache has expired or
// never been populated.
func (s *Store) SimilarProfilesForPrimary(ctx context.Context, primaryUsername string, ttl time.Duration) ([]*models.SimilarProfilesCache, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT primary_username, similar_username, name, image_key, rank, batch_id, created_at, image_downloaded
		FROM similar_profiles_cache
		WHERE primary_username = $1 AND created_at > $2
		ORDER BY rank ASC
	`, models.NormalizeUsername(primaryUsername), time.Now().UTC().Add(-ttl))
	if err != nil {
		return nil, fmt.Errorf("list similar profiles cache: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	defer rows.Close()

	var out []*models.SimilarProfilesCache
	for rows.Next() {
		c := &models.SimilarProfilesCache{}
		if err := rows.Scan(&c.PrimaryUsername, &c.SimilarUsername, &c.Name, &c.ImageKey, &c.Rank,
			&c.BatchID, &c.CreatedAt, &c.ImageDownloaded); err != nil {
			return nil, fmt.Errorf("scan similar profiles cache: %w", models.NewKindedError(models.ErrorKindFatal, err))
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SweepExpiredSimilarProfiles deletes every cache row older than ttl,
// used by the cleanup package's periodic TTL sweep.
func (s *Store) SweepExpiredSimilarProfiles(ctx context.Context, ttl time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM similar_profiles_cache WHERE created_at < $1`, time.Now().UTC().Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("sweep expired similar profiles: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return int(tag.RowsAffected()), nil
}
