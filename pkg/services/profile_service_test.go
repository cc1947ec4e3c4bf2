package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelscope/pipeline/pkg/config"
	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/test/dbtest"
)

func TestProfileService_RequestProfileIsIdempotent(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()
	svc := NewProfileService(st, nil, nil)

	res, err := svc.RequestProfile(ctx, "newacct", "manual")
	require.NoError(t, err)
	assert.True(t, res.Queued)

	res2, err := svc.RequestProfile(ctx, "newacct", "manual")
	require.NoError(t, err)
	assert.False(t, res2.Queued)
	assert.Equal(t, "profile already queued for processing", res2.Message)
}

func TestProfileService_RequestProfileSkipsExistingProfile(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()
	require.NoError(t, st.UpsertPrimary(ctx, &models.PrimaryProfile{Username: "existing"}))
	svc := NewProfileService(st, nil, nil)

	res, err := svc.RequestProfile(ctx, "existing", "manual")
	require.NoError(t, err)
	assert.False(t, res.Queued)
	assert.Equal(t, "profile already exists", res.Message)
}

func TestProfileService_ProfileStatusCompletedWhenProfileExists(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()
	require.NoError(t, st.UpsertPrimary(ctx, &models.PrimaryProfile{Username: "existing"}))
	svc := NewProfileService(st, nil, nil)

	status, err := svc.ProfileStatus(ctx, "existing")
	require.NoError(t, err)
	assert.True(t, status.Completed)
	assert.Equal(t, "completed", status.Status)
}

func TestProfileService_ProfileStatusNotFoundWithoutAnyRequest(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	svc := NewProfileService(st, nil, nil)

	_, err := svc.ProfileStatus(context.Background(), "neverheardof")
	assert.Error(t, err)
	assert.Equal(t, models.ErrorKindNotFound, models.KindOf(err))
}

func TestProfileService_GetProfileNotFound(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	svc := NewProfileService(st, nil, nil)

	_, err := svc.GetProfile(context.Background(), "ghost")
	assert.Error(t, err)
	assert.Equal(t, models.ErrorKindNotFound, models.KindOf(err))
}

func TestProfileService_GetSimilarProfilesRanksByObservationOrder(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()
	require.NoError(t, st.UpsertPrimary(ctx, &models.PrimaryProfile{
		Username: "acct1",
		Similar:  []string{"simA", "simB", "simC", "simD"},
	}))
	svc := NewProfileService(st, nil, nil)

	entries, err := svc.GetSimilarProfiles(ctx, "acct1", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "simA", entries[0].Username)
	assert.Greater(t, entries[0].SimilarityScore, entries[1].SimilarityScore)
}

func TestProfileService_GetSecondaryProfileNotFound(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	svc := NewProfileService(st, nil, nil)

	_, err := svc.GetSecondaryProfile(context.Background(), "ghost")
	assert.Error(t, err)
	assert.Equal(t, models.ErrorKindNotFound, models.KindOf(err))
}
