// Package store implements the typed store gateway: the sole writer
// of every domain entity, mediating all relational-store and
// object-store access for the rest of the pipeline.
package store

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelscope/pipeline/pkg/config"
)

// ObjectStore is the external image-bucket collaborator. Put/PublicURL
// are typed wrappers that every other component uses instead of talking
// to a bucket client directly.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, data []byte) error
	PublicURL(bucket, key string) string
}

// Store is the sole writer for every entity class named in the data
// model. All writes from the fetch-pipeline, queue workers, viral
// workflow, and network discoverer pass through it.
type Store struct {
	pool    *pgxpool.Pool
	objects ObjectStore
	shadow  *CSVShadow // optional, nil unless storage.keep_local_csv_shadow is set
	cfg     *config.StorageConfig
}

// New builds a Store. shadow may be nil when no CSV shadow is configured.
func New(pool *pgxpool.Pool, objects ObjectStore, cfg *config.StorageConfig, shadow *CSVShadow) *Store {
	return &Store{pool: pool, objects: objects, cfg: cfg, shadow: shadow}
}

// Pool exposes the underlying connection pool for components (queue,
// cleanup) that need raw transactional access beyond the typed surface.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) logShadowWarning(op string, err error) {
	slog.Warn("csv shadow write failed", "op", op, "error", err)
}
