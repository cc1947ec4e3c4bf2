package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelscope/pipeline/pkg/config"
	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/pkg/store"
	"github.com/reelscope/pipeline/test/dbtest"
)

func seedReel(t *testing.T, st *store.Store, owner, shortcode string, views int64) {
	t.Helper()
	n, err := st.SaveContentBatch(context.Background(), []*models.Content{{
		Shortcode:    shortcode,
		ProfileOwner: owner,
		Kind:         models.ContentKindReel,
		URL:          "https://instagram.com/reel/" + shortcode,
		ViewCount:    views,
		DatePosted:   time.Now().UTC(),
	}}, owner)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestReelService_ListReelsPaginates(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()
	require.NoError(t, st.UpsertPrimary(ctx, &models.PrimaryProfile{Username: "acct1"}))

	for i := 0; i < 3; i++ {
		seedReel(t, st, "acct1", "shortcode-"+string(rune('a'+i)), int64(100*(i+1)))
	}

	svc := NewReelService(st, NewSessionTracker())
	res, err := svc.ListReels(ctx, ListReelsParams{ReelFilter: store.ReelFilter{Limit: 2}})
	require.NoError(t, err)
	assert.Len(t, res.Reels, 2)
	assert.False(t, res.IsLastPage)

	res2, err := svc.ListReels(ctx, ListReelsParams{ReelFilter: store.ReelFilter{Limit: 2, Offset: 2}})
	require.NoError(t, err)
	assert.Len(t, res2.Reels, 1)
	assert.True(t, res2.IsLastPage)
}

func TestReelService_ListReelsRejectsBadLimit(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	svc := NewReelService(st, NewSessionTracker())

	_, err := svc.ListReels(context.Background(), ListReelsParams{ReelFilter: store.ReelFilter{Limit: 500}})
	assert.Error(t, err)
}

func TestReelService_ListReelsTracksRandomOrderSession(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()
	require.NoError(t, st.UpsertPrimary(ctx, &models.PrimaryProfile{Username: "acct1"}))

	for i := 0; i < 5; i++ {
		seedReel(t, st, "acct1", "rc-"+string(rune('a'+i)), int64(100))
	}

	svc := NewReelService(st, NewSessionTracker())
	params := ListReelsParams{ReelFilter: store.ReelFilter{Limit: 100, RandomOrder: true}, SessionID: "sess1"}

	first, err := svc.ListReels(ctx, params)
	require.NoError(t, err)
	require.Len(t, first.Reels, 5)

	excluded := svc.sessions.Excluded("sess1")
	assert.Len(t, excluded, 5)

	second, err := svc.ListReels(ctx, params)
	require.NoError(t, err)
	assert.Empty(t, second.Reels)

	assert.True(t, svc.ResetSession("sess1"))
	third, err := svc.ListReels(ctx, params)
	require.NoError(t, err)
	assert.Len(t, third.Reels, 5)
}

func TestReelService_ListPostsForcesContentType(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()
	require.NoError(t, st.UpsertPrimary(ctx, &models.PrimaryProfile{Username: "acct1"}))
	seedReel(t, st, "acct1", "reel-only", 100)
	n, err := st.SaveContentBatch(ctx, []*models.Content{{
		Shortcode:    "post-only",
		ProfileOwner: "acct1",
		Kind:         models.ContentKindPost,
		URL:          "https://instagram.com/p/post-only",
		LikeCount:    10,
		DatePosted:   time.Now().UTC(),
	}}, "acct1")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	svc := NewReelService(st, NewSessionTracker())
	res, err := svc.ListPosts(ctx, ListReelsParams{ReelFilter: store.ReelFilter{Limit: 100}})
	require.NoError(t, err)
	require.Len(t, res.Reels, 1)
	assert.Equal(t, models.ContentKindPost, res.Reels[0].Kind)
}

func TestReelService_FilterOptions(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	svc := NewReelService(st, NewSessionTracker())

	opts, err := svc.FilterOptions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, opts)
}
