package localcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelscope/pipeline/pkg/models"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_MissWhenUnset(t *testing.T) {
	c := newTestCache(t)
	_, ok := c.Get(context.Background(), "alice", time.Hour)
	assert.False(t, ok)
}

func TestCache_SetThenGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	rows := []*models.SimilarProfilesCache{
		{PrimaryUsername: "alice", SimilarUsername: "bob", Rank: 1},
		{PrimaryUsername: "alice", SimilarUsername: "carol", Rank: 2},
	}
	require.NoError(t, c.Set(ctx, "alice", rows))

	got, ok := c.Get(ctx, "alice", time.Hour)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "bob", got[0].SimilarUsername)
	assert.Equal(t, "carol", got[1].SimilarUsername)
}

func TestCache_ExpiredEntryIsMiss(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "alice", []*models.SimilarProfilesCache{{PrimaryUsername: "alice"}}))

	_, ok := c.Get(ctx, "alice", -time.Second)
	assert.False(t, ok)
}

func TestCache_SetOverwrites(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "alice", []*models.SimilarProfilesCache{{PrimaryUsername: "alice", SimilarUsername: "bob"}}))
	require.NoError(t, c.Set(ctx, "alice", []*models.SimilarProfilesCache{{PrimaryUsername: "alice", SimilarUsername: "dave"}}))

	got, ok := c.Get(ctx, "alice", time.Hour)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "dave", got[0].SimilarUsername)
}

func TestCache_Invalidate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "alice", []*models.SimilarProfilesCache{{PrimaryUsername: "alice"}}))
	require.NoError(t, c.Invalidate(ctx, "alice"))

	_, ok := c.Get(ctx, "alice", time.Hour)
	assert.False(t, ok)
}
