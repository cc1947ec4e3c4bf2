package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelscope/pipeline/pkg/config"
	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/test/dbtest"
)

func testRetentionConfig() *config.RetentionConfig {
	return &config.RetentionConfig{
		SimilarProfilesCacheTTL:   24 * time.Hour,
		DiscoverySessionRetention: 30 * 24 * time.Hour,
		CleanupInterval:           time.Hour,
	}
}

func TestService_SweepsExpiredSimilarProfilesCache(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, st.UpsertSimilarProfilesCache(ctx, []*models.SimilarProfilesCache{
		{PrimaryUsername: "primary", SimilarUsername: "stale", Rank: 1, BatchID: "b1", CreatedAt: time.Now().UTC().Add(-48 * time.Hour)},
		{PrimaryUsername: "primary", SimilarUsername: "fresh", Rank: 2, BatchID: "b1", CreatedAt: time.Now().UTC()},
	}))

	svc := NewService(testRetentionConfig(), st)
	svc.runAll(ctx)

	rows, err := st.SimilarProfilesForPrimary(ctx, "primary", 365*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "fresh", rows[0].SimilarUsername)
}

func TestService_SweepsOldDiscoverySessions(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()

	old := &models.DiscoverySession{StartedAt: time.Now().UTC().Add(-60 * 24 * time.Hour)}
	require.NoError(t, st.CreateDiscoverySession(ctx, old))
	require.NoError(t, st.EndDiscoverySession(ctx, old.ID, time.Now().UTC().Add(-40*24*time.Hour), "exhausted"))

	recent := &models.DiscoverySession{StartedAt: time.Now().UTC()}
	require.NoError(t, st.CreateDiscoverySession(ctx, recent))
	require.NoError(t, st.EndDiscoverySession(ctx, recent.ID, time.Now().UTC(), "exhausted"))

	cfg := testRetentionConfig()
	cfg.DiscoverySessionRetention = 30 * 24 * time.Hour
	svc := NewService(cfg, st)
	svc.runAll(ctx)

	gone, err := st.DiscoverySessionByID(ctx, old.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := st.DiscoverySessionByID(ctx, recent.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestService_StartStop(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	svc := NewService(testRetentionConfig(), st)

	svc.Start(context.Background())
	svc.Stop()
}
