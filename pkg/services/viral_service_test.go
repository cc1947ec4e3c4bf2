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

func TestViralService_QueueViralIdeasRequiresFields(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	svc := NewViralService(st, nil)

	_, err := svc.QueueViralIdeas(context.Background(), QueueRequest{})
	assert.Error(t, err)
	assert.Equal(t, models.ErrorKindValidation, models.KindOf(err))
}

func TestViralService_QueueViralIdeasIsIdempotent(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()
	svc := NewViralService(st, nil)

	req := QueueRequest{SessionID: "sess1", PrimaryUsername: "acct1"}
	first, err := svc.QueueViralIdeas(ctx, req)
	require.NoError(t, err)

	second, err := svc.QueueViralIdeas(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestViralService_GetQueueStatusNotFound(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	svc := NewViralService(st, nil)

	_, err := svc.GetQueueStatus(context.Background(), "nosuchsession")
	assert.Error(t, err)
	assert.Equal(t, models.ErrorKindNotFound, models.KindOf(err))
}

func TestViralService_GetQueueStatusReturnsLatest(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()
	svc := NewViralService(st, nil)

	created, err := svc.QueueViralIdeas(ctx, QueueRequest{SessionID: "sess1", PrimaryUsername: "acct1"})
	require.NoError(t, err)

	status, err := svc.GetQueueStatus(ctx, "sess1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, status.ID)
}

func TestViralService_CheckExistingNotFound(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	svc := NewViralService(st, nil)

	_, _, err := svc.CheckExisting(context.Background(), "neverrequested")
	assert.Error(t, err)
	assert.Equal(t, models.ErrorKindNotFound, models.KindOf(err))
}

func TestViralService_GetResultsNotFoundWithoutCompletedRun(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()
	svc := NewViralService(st, nil)

	created, err := svc.QueueViralIdeas(ctx, QueueRequest{SessionID: "sess1", PrimaryUsername: "acct1"})
	require.NoError(t, err)

	_, err = svc.GetResults(ctx, created.ID)
	assert.Error(t, err)
	assert.Equal(t, models.ErrorKindNotFound, models.KindOf(err))
}

func TestViralService_LoadRequestNotFound(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	svc := NewViralService(st, nil)

	_, err := svc.loadRequest(context.Background(), 999999)
	assert.Error(t, err)
	assert.Equal(t, models.ErrorKindNotFound, models.KindOf(err))
}
