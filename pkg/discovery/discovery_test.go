package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelscope/pipeline/pkg/config"
	"github.com/reelscope/pipeline/pkg/fetchers"
	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/test/dbtest"
)

// fakeSimilarFetcher returns a canned candidate list per seed, avoiding
// any live scraper-host dependency.
type fakeSimilarFetcher struct {
	byUsername map[string][]fetchers.SimilarProfileItem
	calls      []string
	fail       bool
}

func (f *fakeSimilarFetcher) Fetch(ctx context.Context, username string, limit int) ([]fetchers.SimilarProfileItem, error) {
	f.calls = append(f.calls, username)
	if f.fail {
		return nil, assert.AnError
	}
	return f.byUsername[username], nil
}

func testDiscoveryConfig() *config.DiscoveryConfig {
	return &config.DiscoveryConfig{
		DefaultSeedUsername: "fallback_seed",
		MaxRounds:           3,
		MaxAccountsToQueue:  10,
		ProfilesPerRound:    5,
		MinFollowerFloor:    1000,
	}
}

func TestDiscoverer_Run_QueuesFreshCandidatesAndStops(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, st.UpsertPrimary(ctx, &models.PrimaryProfile{Username: "seedacct"}))

	similar := &fakeSimilarFetcher{byUsername: map[string][]fetchers.SimilarProfileItem{
		"seedacct": {
			{Username: "new_one", FullName: "New One", Rank: 1},
			{Username: "new_two", FullName: "New Two", Rank: 2},
			{Username: "seedacct", FullName: "Seed Account", Rank: 3}, // already known, filtered
		},
	}}

	d := New(st, similar, testDiscoveryConfig())
	result, err := d.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, result.AccountsQueued)
	assert.Equal(t, 1, result.RoundsRun)
	assert.Equal(t, "no_seeds_remaining", result.Strategy)
	assert.Equal(t, []string{"seedacct"}, similar.calls)

	known, err := st.KnownUsernames(ctx, []string{"new_one", "new_two"})
	require.NoError(t, err)
	assert.Len(t, known, 2)
}

func TestDiscoverer_Run_FallsBackToDefaultSeedOncePrimariesExhausted(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()

	similar := &fakeSimilarFetcher{byUsername: map[string][]fetchers.SimilarProfileItem{
		"fallback_seed": {{Username: "discovered", FullName: "Discovered", Rank: 1}},
	}}

	d := New(st, similar, testDiscoveryConfig())
	result, err := d.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.AccountsQueued)
	assert.Equal(t, []string{"fallback_seed"}, similar.calls)
	assert.Equal(t, "no_seeds_remaining", result.Strategy)
}

func TestDiscoverer_Run_NoSeedsAtAllEndsImmediately(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()

	cfg := testDiscoveryConfig()
	cfg.DefaultSeedUsername = ""
	similar := &fakeSimilarFetcher{}

	d := New(st, similar, cfg)
	result, err := d.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, result.AccountsQueued)
	assert.Equal(t, 0, result.RoundsRun)
	assert.Equal(t, "no_seeds_remaining", result.Strategy)
	assert.Empty(t, similar.calls)

	session, err := st.DiscoverySessionByID(ctx, result.SessionID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "no_seeds_remaining", session.Strategy)
}

func TestDiscoverer_Run_StopsAtMaxAccountsToQueue(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, st.UpsertPrimary(ctx, &models.PrimaryProfile{Username: "seedacct"}))

	many := make([]fetchers.SimilarProfileItem, 0, 8)
	for i := 0; i < 8; i++ {
		many = append(many, fetchers.SimilarProfileItem{Username: "cand" + string(rune('a'+i)), Rank: i})
	}
	similar := &fakeSimilarFetcher{byUsername: map[string][]fetchers.SimilarProfileItem{"seedacct": many}}

	cfg := testDiscoveryConfig()
	cfg.MaxAccountsToQueue = 3
	cfg.ProfilesPerRound = 8

	d := New(st, similar, cfg)
	result, err := d.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, result.AccountsQueued)
	assert.Equal(t, "max_accounts_reached", result.Strategy)
}

func TestDiscoverer_Run_ContinuesOnFetchFailure(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, st.UpsertPrimary(ctx, &models.PrimaryProfile{Username: "seedacct"}))

	similar := &fakeSimilarFetcher{fail: true}
	cfg := testDiscoveryConfig()
	cfg.DefaultSeedUsername = ""
	cfg.MaxRounds = 1

	d := New(st, similar, cfg)
	result, err := d.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, result.AccountsQueued)
	assert.Equal(t, 1, result.RoundsRun)
	assert.Equal(t, "max_rounds_reached", result.Strategy)
}
