package viralai

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelscope/pipeline/pkg/config"
	"github.com/reelscope/pipeline/pkg/models"
)

func testConfig() *config.ViralConfig {
	return &config.ViralConfig{HooksGenerated: 2, TopOutlierReels: 2}
}

// scriptedChat returns canned responses keyed by a substring match
// against the prompt, avoiding any live LLM dependency.
type scriptedChat struct {
	responses []struct {
		contains string
		reply    string
		err      error
	}
	calls int
}

func (s *scriptedChat) add(contains, reply string) *scriptedChat {
	s.responses = append(s.responses, struct {
		contains string
		reply    string
		err      error
	}{contains, reply, nil})
	return s
}

func (s *scriptedChat) chat(ctx context.Context, prompt string) (string, error) {
	s.calls++
	for _, r := range s.responses {
		if strings.Contains(prompt, r.contains) {
			return r.reply, r.err
		}
	}
	return "", nil
}

func reelsFixture() []ReelInput {
	return []ReelInput{
		{ReelID: 1, ContentID: 101, Username: "primary", Role: models.ReelRolePrimary, Transcript: "hook one text", TranscriptAvailable: true, OutlierScore: 5.0},
		{ReelID: 2, ContentID: 102, Username: "rival", Role: models.ReelRoleCompetitor, Transcript: "hook two text", TranscriptAvailable: true, OutlierScore: 8.0},
		{ReelID: 3, ContentID: 103, Username: "rival", Role: models.ReelRoleCompetitor, Transcript: "", TranscriptAvailable: false, OutlierScore: 9.0},
	}
}

func TestPipeline_Run_FullHappyPath(t *testing.T) {
	chat := (&scriptedChat{}).
		add("Analyze this Instagram account", `{"positioning": "niche fitness coach", "recurringThemes": ["form cues"], "audienceHypothesis": "beginners"}`).
		add("hook one text", `{"hookText": "Stop doing this", "powerWords": ["stop"], "psychologicalTriggers": ["curiosity"], "adaptationStrategy": "reframe"}`).
		add("hook two text", `{"hookText": "Nobody tells you this", "powerWords": ["nobody"], "psychologicalTriggers": ["fomo"], "adaptationStrategy": "contrast"}`).
		add("generate", `{"hooks": [{"hookText": "Everyone gets this wrong", "sourceUsername": "rival", "estimatedEffectiveness": 80, "psychologicalTriggers": ["fomo"]}]}`).
		add("Write a full reel script", `{"title": "Fix Your Form", "content": "...", "primaryHook": "Everyone gets this wrong", "callToAction": "Follow for more", "estimatedDurationSecs": 30, "sourceReels": {"basedOnCompetitor": "rival", "originalCompetitorHook": "Nobody tells you this"}}`)

	p := NewWithChatFunc(chat.chat, testConfig())
	result := p.Run(context.Background(), ProfileInput{Username: "primary"}, reelsFixture())

	require.NotEmpty(t, result.Blob)
	var parsed output
	require.NoError(t, json.Unmarshal(result.Blob, &parsed))

	assert.Equal(t, "niche fitness coach", parsed.ProfileAnalysis.Positioning)
	assert.Len(t, parsed.IndividualReelAnalyses, 2) // only the two with transcripts, capped at TopOutlierReels=2
	assert.Len(t, parsed.GeneratedHooks, 1)
	assert.Len(t, parsed.CompleteScripts, 1)
	assert.Equal(t, 2, parsed.AnalysisSummary.TotalHooksAnalyzed)
	assert.Equal(t, 1, parsed.AnalysisSummary.HooksGenerated)
	assert.Equal(t, 1, parsed.AnalysisSummary.ScriptsCreated)

	require.Len(t, result.ReelHooks, 2)
	require.Len(t, result.Scripts, 1)
	assert.Equal(t, "Fix Your Form", result.Scripts[0].Title)
	assert.Equal(t, "rival", result.Scripts[0].SourceReels.BasedOnCompetitor)
}

func TestPipeline_Run_DegradesOnUnparsableResponses(t *testing.T) {
	chat := func(ctx context.Context, prompt string) (string, error) {
		return "not json at all, sorry", nil
	}

	p := NewWithChatFunc(chat, testConfig())
	result := p.Run(context.Background(), ProfileInput{Username: "primary"}, reelsFixture())

	require.NotEmpty(t, result.Blob)
	var parsed output
	require.NoError(t, json.Unmarshal(result.Blob, &parsed))

	assert.Equal(t, "", parsed.ProfileAnalysis.Positioning)
	assert.Len(t, parsed.IndividualReelAnalyses, 2)
	for _, ra := range parsed.IndividualReelAnalyses {
		assert.Equal(t, "", ra.HookText)
	}
	assert.Empty(t, parsed.GeneratedHooks)
	assert.Empty(t, parsed.CompleteScripts)
}

func TestPipeline_Run_NoReelsSkipsHookGeneration(t *testing.T) {
	chat := (&scriptedChat{}).add("Analyze this Instagram account", `{"positioning": "p"}`)

	p := NewWithChatFunc(chat.chat, testConfig())
	result := p.Run(context.Background(), ProfileInput{Username: "primary"}, nil)

	var parsed output
	require.NoError(t, json.Unmarshal(result.Blob, &parsed))
	assert.Empty(t, parsed.IndividualReelAnalyses)
	assert.Empty(t, parsed.GeneratedHooks)
	assert.Empty(t, parsed.CompleteScripts)
	assert.Empty(t, result.ReelHooks)
}

func TestTopOutlierReels_SortsByOutlierScoreDescendingAndCaps(t *testing.T) {
	reels := reelsFixture()
	top := topOutlierReels(reels, 1)
	require.Len(t, top, 1)
	assert.Equal(t, int64(102), top[0].ContentID) // highest outlier score among those with a transcript
}

func TestTopOutlierReels_FullOrderingAmongTranscribedReels(t *testing.T) {
	reels := []ReelInput{
		{ContentID: 201, Transcript: "a", TranscriptAvailable: true, OutlierScore: 1.0},
		{ContentID: 202, Transcript: "b", TranscriptAvailable: true, OutlierScore: 3.0},
		{ContentID: 203, Transcript: "c", TranscriptAvailable: true, OutlierScore: 2.0},
		{ContentID: 204, TranscriptAvailable: false, OutlierScore: 9.0},
	}
	want := []ReelInput{
		{ContentID: 202, Transcript: "b", TranscriptAvailable: true, OutlierScore: 3.0},
		{ContentID: 203, Transcript: "c", TranscriptAvailable: true, OutlierScore: 2.0},
		{ContentID: 201, Transcript: "a", TranscriptAvailable: true, OutlierScore: 1.0},
	}
	got := topOutlierReels(reels, 3)
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("topOutlierReels ordering mismatch (-want +got):\n%s", diff)
	}
}
