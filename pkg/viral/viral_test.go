package viral

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelscope/pipeline/pkg/config"
	"github.com/reelscope/pipeline/pkg/fetchers"
	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/pkg/store"
	"github.com/reelscope/pipeline/pkg/viralai"
	"github.com/reelscope/pipeline/test/dbtest"
)

// fakeRunner populates no rows of its own; the test seeds content
// directly, so Run* just records which usernames were asked for.
type fakeRunner struct {
	calls []string
	fail  map[string]error
}

func (f *fakeRunner) RunViralInitial(ctx context.Context, username string, maxReels int) (*store.IntegrityReport, error) {
	f.calls = append(f.calls, username)
	if err := f.fail[username]; err != nil {
		return nil, err
	}
	return &store.IntegrityReport{Success: true}, nil
}

func (f *fakeRunner) RunViralRefresh(ctx context.Context, username string, maxReels int) (*store.IntegrityReport, error) {
	return f.RunViralInitial(ctx, username, maxReels)
}

// fakeTranscripts returns a canned result keyed by URL, or a
// not-available result for anything unseen.
type fakeTranscripts struct {
	byURL map[string]*fetchers.TranscriptResult
	err   map[string]error
}

func (f *fakeTranscripts) Fetch(ctx context.Context, reelURL string) (*fetchers.TranscriptResult, error) {
	if err := f.err[reelURL]; err != nil {
		return nil, err
	}
	if r, ok := f.byURL[reelURL]; ok {
		return r, nil
	}
	return &fetchers.TranscriptResult{Available: false}, nil
}

// fakeAI returns a canned *viralai.Result and records its inputs.
type fakeAI struct {
	result      *viralai.Result
	lastProfile viralai.ProfileInput
	lastReels   []viralai.ReelInput
}

func (f *fakeAI) Run(ctx context.Context, profile viralai.ProfileInput, reels []viralai.ReelInput) *viralai.Result {
	f.lastProfile = profile
	f.lastReels = reels
	return f.result
}

func testViralConfig() *config.ViralConfig {
	return &config.ViralConfig{
		PrimaryTranscriptTarget:    2,
		CompetitorTranscriptTarget: 2,
		PrimaryMaxAttempts:         5,
		CompetitorMaxAttempts:      5,
		RecurringInterval:          24 * time.Hour,
		HooksGenerated:             3,
		TopOutlierReels:            3,
	}
}

func seedReel(t *testing.T, st *store.Store, owner, shortcode string, outlier float64) *models.Content {
	t.Helper()
	c := &models.Content{
		Shortcode:    shortcode,
		ProfileOwner: owner,
		Kind:         models.ContentKindReel,
		URL:          "https://instagram.com/reel/" + shortcode,
		ViewCount:    1000,
		LikeCount:    100,
		CommentCount: 10,
		DatePosted:   time.Now().UTC(),
		OutlierScore: outlier,
	}
	n, err := st.SaveContentBatch(context.Background(), []*models.Content{c}, owner)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	return c
}

func newRequest(primary string, competitors ...string) *models.ViralAnalysisRequest {
	return &models.ViralAnalysisRequest{
		SessionID:       "sess-1",
		PrimaryUsername: primary,
		Competitors:     competitors,
		Status:          models.ViralRequestPending,
		SubmittedAt:     time.Now().UTC(),
	}
}

func TestEngine_RunRequest_HappyPath(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, st.UpsertPrimary(ctx, &models.PrimaryProfile{Username: "creator", Bio: "making things", Followers: 5000}))
	seedReel(t, st, "creator", "c1", 3.0)
	seedReel(t, st, "creator", "c2", 2.0)
	seedReel(t, st, "rival", "r1", 4.0)

	runner := &fakeRunner{}
	transcripts := &fakeTranscripts{byURL: map[string]*fetchers.TranscriptResult{
		"https://instagram.com/reel/c1": {Available: true, Segments: []fetchers.TranscriptSegment{{Text: "hello"}}},
		"https://instagram.com/reel/c2": {Available: true, Segments: []fetchers.TranscriptSegment{{Text: "world"}}},
		"https://instagram.com/reel/r1": {Available: true, Segments: []fetchers.TranscriptSegment{{Text: "rival hook"}}},
	}}
	ai := &fakeAI{result: &viralai.Result{Blob: []byte(`{"analysis_summary":{}}`)}}

	req := newRequest("creator", "rival")
	require.NoError(t, st.CreateViralRequest(ctx, req))

	eng := New(st, runner, transcripts, ai, testViralConfig())
	require.NoError(t, eng.RunRequest(ctx, req))

	assert.ElementsMatch(t, []string{"creator", "rival"}, runner.calls)

	updated, err := st.ViralRequestByID(ctx, req.ID)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, models.ViralRequestCompleted, updated.Status)
	assert.Equal(t, models.ProgressDone, updated.Progress)
	assert.NotNil(t, updated.NextScheduledRun)

	run, err := st.LatestCompletedRun(ctx, req.ID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, models.ViralRunInitial, run.Kind)
	assert.Equal(t, 2, run.PrimaryReelsCount)
	assert.Equal(t, 1, run.CompetitorReelsCount)
	assert.Equal(t, 3, run.TranscriptsFetched)
	assert.JSONEq(t, `{"analysis_summary":{}}`, string(run.AnalysisData))

	reels, err := st.ReelsForRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, reels, 3)
	for _, r := range reels {
		assert.True(t, r.TranscriptCompleted)
	}

	assert.Equal(t, "creator", ai.lastProfile.Username)
	assert.Equal(t, "making things", ai.lastProfile.Bio)
	require.Len(t, ai.lastReels, 3)
	for _, ri := range ai.lastReels {
		assert.True(t, ri.TranscriptAvailable)
		assert.NotEmpty(t, ri.Transcript)
	}
}

func TestEngine_RunRequest_FetchAccountsFailureFailsRequest(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()

	runner := &fakeRunner{fail: map[string]error{"creator": errors.New("scrape boom")}}
	transcripts := &fakeTranscripts{}
	ai := &fakeAI{}

	req := newRequest("creator")
	require.NoError(t, st.CreateViralRequest(ctx, req))

	eng := New(st, runner, transcripts, ai, testViralConfig())
	err := eng.RunRequest(ctx, req)
	require.Error(t, err)

	updated, err2 := st.ViralRequestByID(ctx, req.ID)
	require.NoError(t, err2)
	require.NotNil(t, updated)
	assert.Equal(t, models.ViralRequestFailed, updated.Status)
	assert.Contains(t, updated.CurrentStep, "fetch accounts")
}

func TestEngine_RunRequest_TranscriptTargetStopsEarlyCompetitorsCombined(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, st.UpsertPrimary(ctx, &models.PrimaryProfile{Username: "creator"}))
	seedReel(t, st, "creator", "pa", 5.0)
	seedReel(t, st, "creator", "pb", 4.0)
	seedReel(t, st, "creator", "pc", 3.0)
	seedReel(t, st, "riv1", "r1a", 9.0)
	seedReel(t, st, "riv1", "r1b", 8.0)
	seedReel(t, st, "riv1", "r1c", 7.0)
	seedReel(t, st, "riv2", "r2a", 6.5)

	runner := &fakeRunner{}
	transcripts := &fakeTranscripts{byURL: map[string]*fetchers.TranscriptResult{
		"https://instagram.com/reel/pa": {Available: true, Segments: []fetchers.TranscriptSegment{{Text: "1"}}},
		"https://instagram.com/reel/pb": {Available: true, Segments: []fetchers.TranscriptSegment{{Text: "2"}}},
		"https://instagram.com/reel/pc": {Available: true, Segments: []fetchers.TranscriptSegment{{Text: "3"}}},
		"https://instagram.com/reel/r1a": {Available: true, Segments: []fetchers.TranscriptSegment{{Text: "4"}}},
		"https://instagram.com/reel/r1b": {Available: true, Segments: []fetchers.TranscriptSegment{{Text: "5"}}},
		"https://instagram.com/reel/r1c": {Available: true, Segments: []fetchers.TranscriptSegment{{Text: "6"}}},
		"https://instagram.com/reel/r2a": {Available: true, Segments: []fetchers.TranscriptSegment{{Text: "7"}}},
	}}
	ai := &fakeAI{result: &viralai.Result{Blob: []byte(`{}`)}}

	cfg := testViralConfig()
	cfg.PrimaryTranscriptTarget = 2
	cfg.CompetitorTranscriptTarget = 2

	req := newRequest("creator", "riv1", "riv2")
	require.NoError(t, st.CreateViralRequest(ctx, req))

	eng := New(st, runner, transcripts, ai, cfg)
	require.NoError(t, eng.RunRequest(ctx, req))

	run, err := st.LatestCompletedRun(ctx, req.ID)
	require.NoError(t, err)
	require.NotNil(t, run)
	// Primary target 2 met after the top-2 outlier reels; the 3rd is
	// selected but never requested. Competitor target 2 combined across
	// riv1+riv2 is met by riv1's top-2 reels alone.
	assert.Equal(t, 4, run.TranscriptsFetched)

	reels, err := st.ReelsForRun(ctx, run.ID)
	require.NoError(t, err)

	var primaryCompleted, competitorCompleted, primaryUnrequested int
	for _, r := range reels {
		if r.Role == models.ReelRolePrimary {
			if r.TranscriptCompleted {
				primaryCompleted++
			}
			if !r.TranscriptRequested {
				primaryUnrequested++
			}
		} else if r.TranscriptCompleted {
			competitorCompleted++
		}
	}
	assert.Equal(t, 2, primaryCompleted)
	assert.Equal(t, 1, primaryUnrequested)
	assert.Equal(t, 2, competitorCompleted)
}

func TestEngine_RunRequest_NilAIResultFailsRequest(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, st.UpsertPrimary(ctx, &models.PrimaryProfile{Username: "creator"}))

	runner := &fakeRunner{}
	transcripts := &fakeTranscripts{}
	ai := &fakeAI{result: nil}

	req := newRequest("creator")
	require.NoError(t, st.CreateViralRequest(ctx, req))

	eng := New(st, runner, transcripts, ai, testViralConfig())
	err := eng.RunRequest(ctx, req)
	require.Error(t, err)

	updated, err2 := st.ViralRequestByID(ctx, req.ID)
	require.NoError(t, err2)
	require.NotNil(t, updated)
	assert.Equal(t, models.ViralRequestFailed, updated.Status)
}

func TestEngine_RunRequest_PersistsHooksAndScripts(t *testing.T) {
	st := dbtest.NewStore(t, &config.StorageConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, st.UpsertPrimary(ctx, &models.PrimaryProfile{Username: "creator"}))
	seedReel(t, st, "creator", "solo", 1.0)

	runner := &fakeRunner{}
	transcripts := &fakeTranscripts{byURL: map[string]*fetchers.TranscriptResult{
		"https://instagram.com/reel/solo": {Available: true, Segments: []fetchers.TranscriptSegment{{Text: "hook"}}},
	}}

	req := newRequest("creator")
	require.NoError(t, st.CreateViralRequest(ctx, req))

	// The AI fake reads back whichever reel ID RunRequest assigned after
	// reloading the saved rows, since SaveViralReels doesn't return ids.
	ai := &lookupHookAI{}
	eng := New(st, runner, transcripts, ai, testViralConfig())
	require.NoError(t, eng.RunRequest(ctx, req))

	run, err := st.LatestCompletedRun(ctx, req.ID)
	require.NoError(t, err)
	require.NotNil(t, run)

	reels, err := st.ReelsForRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, reels, 1)
	assert.Equal(t, "great hook", reels[0].HookText)
	assert.Equal(t, []string{"free", "now"}, reels[0].PowerWords)

	scripts, err := st.ScriptsForRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	assert.Equal(t, "Script Title", scripts[0].Title)
	assert.Equal(t, "rival", scripts[0].SourceReels.BasedOnCompetitor)
}

// lookupHookAI returns a hook/script keyed to whatever reel ID was
// actually assigned, since SaveViralReels doesn't return ids directly
// to the caller and RunRequest reloads them before calling AIRunner.
type lookupHookAI struct{}

func (l *lookupHookAI) Run(ctx context.Context, profile viralai.ProfileInput, reels []viralai.ReelInput) *viralai.Result {
	if len(reels) == 0 {
		return &viralai.Result{Blob: []byte(`{}`)}
	}
	reelID := reels[0].ReelID
	return &viralai.Result{
		Blob: []byte(`{}`),
		ReelHooks: []viralai.ReelHookUpdate{
			{ReelID: reelID, HookText: "great hook", PowerWords: []string{"free", "now"}},
		},
		Scripts: []*models.ViralScript{
			{
				Title:        "Script Title",
				Content:      "Do this...",
				PrimaryHook:  "great hook",
				CallToAction: "Follow for more",
				SourceReels:  models.SourceReelRef{BasedOnCompetitor: "rival", OriginalCompetitorHook: "rival's own hook"},
			},
		},
	}
}
