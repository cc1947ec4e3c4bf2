// Package dbtest spins up a disposable PostgreSQL instance for store
// package tests, running the same embedded migrations the production
// binary applies.
package dbtest

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/reelscope/pipeline/pkg/config"
	"github.com/reelscope/pipeline/pkg/database"
	"github.com/reelscope/pipeline/pkg/store"
)

var (
	sharedDSN     string
	containerOnce sync.Once
	containerErr  error
)

// NewStore returns a *store.Store backed by a fresh, migrated database:
// an external Postgres reached via CI_DATABASE_URL in CI, or a shared
// local testcontainer (started once per test binary) otherwise. The
// underlying connection pool is closed via t.Cleanup.
func NewStore(t *testing.T, cfg *config.StorageConfig, objects store.ObjectStore) *store.Store {
	t.Helper()
	ctx := context.Background()

	dsn := getOrCreateSharedDatabase(t)

	client, err := database.NewClient(ctx, database.Config{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	truncateAll(t, client)

	return store.New(client.Pool, objects, cfg, nil)
}

// getOrCreateSharedDatabase returns a DSN for a database suitable for
// tests. CI supplies CI_DATABASE_URL directly; local runs share one
// testcontainer across the whole package to avoid a container-per-test
// startup cost.
func getOrCreateSharedDatabase(t *testing.T) string {
	t.Helper()

	if dsn := os.Getenv("CI_DATABASE_URL"); dsn != "" {
		return dsn
	}

	containerOnce.Do(func() {
		ctx := context.Background()
		pgContainer, err := postgres.Run(ctx,
			"postgres:17-alpine",
			postgres.WithDatabase("test"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			containerErr = err
			return
		}
		sharedDSN, containerErr = pgContainer.ConnectionString(ctx, "sslmode=disable")
	})

	require.NoError(t, containerErr, "failed to start shared postgres testcontainer")
	return sharedDSN
}

// truncateAll clears every table between tests sharing the same
// container so each test starts from an empty store.
func truncateAll(t *testing.T, client *database.Client) {
	t.Helper()
	const tables = `
		content, secondary_profiles, primary_profiles, similar_profiles_cache,
		queue_items, discovery_rounds, discovery_sessions,
		viral_analysis_reels, viral_scripts, viral_analysis_runs,
		viral_analysis_requests
	`
	_, err := client.Pool.Exec(context.Background(), "TRUNCATE "+tables+" CASCADE")
	require.NoError(t, err)
}
