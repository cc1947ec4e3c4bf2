// Package localcache provides an embedded SQLite accelerator in front
// of pkg/store's Postgres-backed SimilarProfilesCache, so the
// similar-fast lookup path can serve a hot primary username without a
// network round trip on every request.
package localcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/reelscope/pipeline/pkg/models"
)

// Cache wraps a single SQLite file holding the most recently fetched
// similar-profile rows per primary username, each row carrying its own
// write timestamp so callers can apply the same TTL logic as the
// Postgres-backed cache it accelerates.
type Cache struct {
	db *sql.DB
}

// Open creates (or reopens) the SQLite file at path. Use ":memory:" for
// a process-local, non-persistent cache.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local cache %q: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS similar_profiles_cache (
		primary_username TEXT PRIMARY KEY,
		rows_json        TEXT NOT NULL,
		cached_at        INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create local cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying SQLite connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached rows for primaryUsername if present and not
// older than ttl. A cache miss (absent or expired) returns ok=false
// rather than an error, since callers always have a Postgres-backed
// fallback.
func (c *Cache) Get(ctx context.Context, primaryUsername string, ttl time.Duration) (rows []*models.SimilarProfilesCache, ok bool) {
	var rowsJSON string
	var cachedAtUnix int64
	err := c.db.QueryRowContext(ctx,
		`SELECT rows_json, cached_at FROM similar_profiles_cache WHERE primary_username = ?`,
		primaryUsername,
	).Scan(&rowsJSON, &cachedAtUnix)
	if err != nil {
		return nil, false
	}
	if time.Since(time.Unix(cachedAtUnix, 0)) > ttl {
		return nil, false
	}
	if err := json.Unmarshal([]byte(rowsJSON), &rows); err != nil {
		return nil, false
	}
	return rows, true
}

// Set overwrites the cached rows for primaryUsername, stamping the
// current time as the cache write time.
func (c *Cache) Set(ctx context.Context, primaryUsername string, rows []*models.SimilarProfilesCache) error {
	encoded, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode local cache rows: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO similar_profiles_cache (primary_username, rows_json, cached_at)
		VALUES (?, ?, ?)
		ON CONFLICT(primary_username) DO UPDATE SET
			rows_json = excluded.rows_json,
			cached_at = excluded.cached_at`,
		primaryUsername, string(encoded), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("write local cache row for %s: %w", primaryUsername, err)
	}
	return nil
}

// Invalidate drops any cached rows for primaryUsername, used when a
// manual competitor add or a fresh fetch makes the cached set stale.
func (c *Cache) Invalidate(ctx context.Context, primaryUsername string) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM similar_profiles_cache WHERE primary_username = ?`, primaryUsername)
	return err
}
