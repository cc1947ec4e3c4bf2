package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reelscope/pipeline/pkg/fetchers"
)

func TestOwnerIDFor_Deterministic(t *testing.T) {
	a := ownerIDFor("Some.User")
	b := ownerIDFor("some.user")
	c := ownerIDFor(" SOME.USER ")
	assert.Equal(t, a, b, "normalization should make casing irrelevant")
	assert.Equal(t, a, c, "normalization should trim whitespace")
	assert.NotZero(t, a)
	assert.Positive(t, a, "sign bit must be cleared")
}

func TestOwnerIDFor_DistinctUsernames(t *testing.T) {
	assert.NotEqual(t, ownerIDFor("alice"), ownerIDFor("bob"))
}

type stubBulkReelsProvider struct{}

func (stubBulkReelsProvider) Submit(ctx context.Context, username string) (*fetchers.BulkReelsTicket, error) {
	return &fetchers.BulkReelsTicket{JobID: "job-" + username}, nil
}

func (stubBulkReelsProvider) Poll(ctx context.Context, ticket *fetchers.BulkReelsTicket) (*fetchers.BulkReelsResult, error) {
	return &fetchers.BulkReelsResult{Done: true}, nil
}

func TestWithBulkReelsProvider_Overrides(t *testing.T) {
	p := &Pipeline{bulkReels: stubBulkReelsProvider{}}
	custom := stubBulkReelsProvider{}
	result := p.WithBulkReelsProvider(custom)
	assert.Same(t, p, result, "should return the same Pipeline for chaining")
	assert.Equal(t, custom, p.bulkReels)
}
