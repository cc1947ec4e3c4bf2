// Package viralai implements the viral AI sub-pipeline: a
// four-stage LLM workflow (profile analysis, hook analysis, hook
// generation, script generation) that turns a run's selected reels
// into a structured viral-ideas report. It never raises: any stage
// that fails to produce usable output falls back to an empty but
// well-typed sub-object, and the pipeline still finishes.
package viralai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/reelscope/pipeline/pkg/categorize"
	"github.com/reelscope/pipeline/pkg/config"
	"github.com/reelscope/pipeline/pkg/fetchers"
	"github.com/reelscope/pipeline/pkg/models"
)

// ChatFunc is the single method the sub-pipeline needs from the LLM
// chat adapter, narrowed for testability.
type ChatFunc func(ctx context.Context, prompt string) (string, error)

// Pipeline runs the four analysis stages over one run's reel set.
type Pipeline struct {
	chat ChatFunc
	cfg  *config.ViralConfig
}

// New builds a Pipeline backed by the given LLM chat adapter.
func New(llm *fetchers.LLMChatAdapter, cfg *config.ViralConfig) *Pipeline {
	return &Pipeline{chat: llm.Chat, cfg: cfg}
}

// NewWithChatFunc builds a Pipeline over an arbitrary chat function,
// used by tests to avoid a live LLM dependency.
func NewWithChatFunc(chat ChatFunc, cfg *config.ViralConfig) *Pipeline {
	return &Pipeline{chat: chat, cfg: cfg}
}

// ProfileInput carries the aggregated primary-profile signals stage 1
// analyses: recent captions, categories, and top-line metrics.
type ProfileInput struct {
	Username       string
	Bio            string
	Categories     []string
	RecentCaptions []string
	Followers      int64
	PostsCount     int64
}

// ReelInput is one selected reel carried into the sub-pipeline, keyed
// back to its ViralAnalysisReel row so hook output can be persisted.
type ReelInput struct {
	ReelID    int64
	ContentID int64
	Username  string
	Role      models.ReelRole

	Transcript          string
	TranscriptAvailable bool

	ViewCount    int64
	LikeCount    int64
	CommentCount int64
	OutlierScore float64
}

// ReelHookUpdate is a stage-2 result to persist onto its
// ViralAnalysisReel row via store.UpdateReelHook.
type ReelHookUpdate struct {
	ReelID     int64
	HookText   string
	PowerWords []string
}

// Result bundles everything the caller needs to persist: the
// authoritative JSON blob, per-reel hook updates, and the denormalised
// script rows (RunID unset; the caller stamps it before saving).
type Result struct {
	Blob      json.RawMessage
	ReelHooks []ReelHookUpdate
	Scripts   []*models.ViralScript
}

// profileAnalysis is stage 1's output.
type profileAnalysis struct {
	Positioning         string   `json:"positioning"`
	RecurringThemes     []string `json:"recurringThemes"`
	AudienceHypothesis  string   `json:"audienceHypothesis"`
}

// reelAnalysis is one stage-2 result, both persisted onto its reel row
// and recorded in the blob's individual_reel_analyses array.
type reelAnalysis struct {
	ContentID              int64    `json:"contentId"`
	Username               string   `json:"username"`
	Role                   string   `json:"role"`
	HookText               string   `json:"hookText"`
	PowerWords             []string `json:"powerWords"`
	PsychologicalTriggers  []string `json:"psychologicalTriggers"`
	AdaptationStrategy     string   `json:"adaptationStrategy"`
}

// generatedHook is one stage-3 result.
type generatedHook struct {
	HookText               string   `json:"hookText"`
	SourceUsername         string   `json:"sourceUsername"`
	EstimatedEffectiveness int      `json:"estimatedEffectiveness"`
	PsychologicalTriggers  []string `json:"psychologicalTriggers"`
}

// completeScript is one stage-4 result.
type completeScript struct {
	Title                 string        `json:"title"`
	Content               string        `json:"content"`
	PrimaryHook           string        `json:"primaryHook"`
	CallToAction          string        `json:"callToAction"`
	EstimatedDurationSecs int           `json:"estimatedDurationSecs"`
	SourceReels           sourceReels   `json:"sourceReels"`
}

type sourceReels struct {
	BasedOnCompetitor      string `json:"basedOnCompetitor"`
	OriginalCompetitorHook string `json:"originalCompetitorHook"`
}

type analysisSummary struct {
	TotalHooksAnalyzed int `json:"total_hooks_analyzed"`
	HooksGenerated     int `json:"hooks_generated"`
	ScriptsCreated     int `json:"scripts_created"`
}

// output is the single JSON object persisted into
// ViralAnalysisRun.analysisData.
type output struct {
	ProfileAnalysis        profileAnalysis  `json:"profile_analysis"`
	IndividualReelAnalyses []reelAnalysis   `json:"individual_reel_analyses"`
	GeneratedHooks         []generatedHook  `json:"generated_hooks"`
	CompleteScripts        []completeScript `json:"complete_scripts"`
	AnalysisSummary        analysisSummary  `json:"analysis_summary"`
}

// Run executes all four stages and returns the persistence-ready
// result. It never returns an error: LLM or parse failures degrade a
// single stage to its zero value rather than aborting the run.
func (p *Pipeline) Run(ctx context.Context, profile ProfileInput, reels []ReelInput) *Result {
	analysis := p.analyzeProfile(ctx, profile)

	topReels := topOutlierReels(reels, p.cfg.TopOutlierReels)
	reelAnalyses, hookUpdates := p.analyzeHooks(ctx, topReels)

	hooks := p.generateHooks(ctx, analysis, reelAnalyses, p.cfg.HooksGenerated)

	scripts, scriptRows := p.generateScripts(ctx, hooks)

	out := output{
		ProfileAnalysis:        analysis,
		IndividualReelAnalyses: reelAnalyses,
		GeneratedHooks:         hooks,
		CompleteScripts:        scripts,
		AnalysisSummary: analysisSummary{
			TotalHooksAnalyzed: len(reelAnalyses),
			HooksGenerated:     len(hooks),
			ScriptsCreated:     len(scripts),
		},
	}

	blob, err := json.Marshal(out)
	if err != nil {
		blob = []byte(`{}`)
	}

	return &Result{Blob: blob, ReelHooks: hookUpdates, Scripts: scriptRows}
}

// topOutlierReels returns the n reels with a usable transcript, sorted
// by outlier score descending, drawn from both primary and competitor
// roles together.
func topOutlierReels(reels []ReelInput, n int) []ReelInput {
	var withTranscript []ReelInput
	for _, r := range reels {
		if r.TranscriptAvailable && r.Transcript != "" {
			withTranscript = append(withTranscript, r)
		}
	}
	sort.SliceStable(withTranscript, func(i, j int) bool {
		return withTranscript[i].OutlierScore > withTranscript[j].OutlierScore
	})
	if len(withTranscript) > n {
		withTranscript = withTranscript[:n]
	}
	return withTranscript
}

func (p *Pipeline) analyzeProfile(ctx context.Context, profile ProfileInput) profileAnalysis {
	raw, err := p.chat(ctx, profileAnalysisPrompt(profile))
	if err != nil {
		return profileAnalysis{}
	}
	var parsed profileAnalysis
	if !categorize.RecoverJSON(raw, &parsed) {
		return profileAnalysis{}
	}
	return parsed
}

func (p *Pipeline) analyzeHooks(ctx context.Context, reels []ReelInput) ([]reelAnalysis, []ReelHookUpdate) {
	analyses := make([]reelAnalysis, 0, len(reels))
	updates := make([]ReelHookUpdate, 0, len(reels))

	for _, r := range reels {
		raw, err := p.chat(ctx, hookAnalysisPrompt(r))
		var parsed struct {
			HookText              string   `json:"hookText"`
			PowerWords            []string `json:"powerWords"`
			PsychologicalTriggers []string `json:"psychologicalTriggers"`
			AdaptationStrategy    string   `json:"adaptationStrategy"`
		}
		if err == nil {
			categorize.RecoverJSON(raw, &parsed)
		}

		analyses = append(analyses, reelAnalysis{
			ContentID:             r.ContentID,
			Username:              r.Username,
			Role:                  string(r.Role),
			HookText:              parsed.HookText,
			PowerWords:            parsed.PowerWords,
			PsychologicalTriggers: parsed.PsychologicalTriggers,
			AdaptationStrategy:    parsed.AdaptationStrategy,
		})
		updates = append(updates, ReelHookUpdate{
			ReelID:     r.ReelID,
			HookText:   parsed.HookText,
			PowerWords: parsed.PowerWords,
		})
	}
	return analyses, updates
}

func (p *Pipeline) generateHooks(ctx context.Context, profile profileAnalysis, analyses []reelAnalysis, count int) []generatedHook {
	if len(analyses) == 0 {
		return nil
	}
	raw, err := p.chat(ctx, hookGenerationPrompt(profile, analyses, count))
	if err != nil {
		return nil
	}
	var parsed struct {
		Hooks []generatedHook `json:"hooks"`
	}
	if !categorize.RecoverJSON(raw, &parsed) {
		return nil
	}
	if len(parsed.Hooks) > count {
		parsed.Hooks = parsed.Hooks[:count]
	}
	return parsed.Hooks
}

func (p *Pipeline) generateScripts(ctx context.Context, hooks []generatedHook) ([]completeScript, []*models.ViralScript) {
	scripts := make([]completeScript, 0, len(hooks))
	rows := make([]*models.ViralScript, 0, len(hooks))

	for _, h := range hooks {
		raw, err := p.chat(ctx, scriptGenerationPrompt(h))
		var parsed completeScript
		if err == nil {
			categorize.RecoverJSON(raw, &parsed)
		}
		if parsed.SourceReels.BasedOnCompetitor == "" {
			parsed.SourceReels.BasedOnCompetitor = h.SourceUsername
		}
		if parsed.SourceReels.OriginalCompetitorHook == "" {
			parsed.SourceReels.OriginalCompetitorHook = h.HookText
		}

		scripts = append(scripts, parsed)
		rows = append(rows, &models.ViralScript{
			Title:        parsed.Title,
			Content:      parsed.Content,
			PrimaryHook:  parsed.PrimaryHook,
			CallToAction: parsed.CallToAction,
			DurationSecs: parsed.EstimatedDurationSecs,
			SourceReels: models.SourceReelRef{
				BasedOnCompetitor:      parsed.SourceReels.BasedOnCompetitor,
				OriginalCompetitorHook: parsed.SourceReels.OriginalCompetitorHook,
			},
		})
	}
	return scripts, rows
}

func profileAnalysisPrompt(p ProfileInput) string {
	return fmt.Sprintf(`Analyze this Instagram account's content strategy. Respond with JSON {"positioning": "...", "recurringThemes": ["..."], "audienceHypothesis": "..."}.

Username: %s
Bio: %s
Categories: %v
Followers: %d
Posts: %d
Recent captions: %v`, p.Username, p.Bio, p.Categories, p.Followers, p.PostsCount, p.RecentCaptions)
}

func hookAnalysisPrompt(r ReelInput) string {
	return fmt.Sprintf(`Analyze the opening hook of this Instagram reel transcript. Respond with JSON {"hookText": "...", "powerWords": ["..."], "psychologicalTriggers": ["..."], "adaptationStrategy": "..."}.

Account: %s
Role: %s
Views: %d  Likes: %d  Comments: %d  Outlier score: %.2f
Transcript: %s`, r.Username, r.Role, r.ViewCount, r.LikeCount, r.CommentCount, r.OutlierScore, r.Transcript)
}

func hookGenerationPrompt(profile profileAnalysis, analyses []reelAnalysis, count int) string {
	return fmt.Sprintf(`Given this account positioning and these analysed competitor hooks, generate %d new hooks tailored to the account. Respond with JSON {"hooks": [{"hookText": "...", "sourceUsername": "...", "estimatedEffectiveness": 0-100, "psychologicalTriggers": ["..."]}]}.

Positioning: %s
Recurring themes: %v
Audience hypothesis: %s
Analysed hooks: %+v`, count, profile.Positioning, profile.RecurringThemes, profile.AudienceHypothesis, analyses)
}

func scriptGenerationPrompt(h generatedHook) string {
	return fmt.Sprintf(`Write a full reel script around this hook. Respond with JSON {"title": "...", "content": "...", "primaryHook": "...", "callToAction": "...", "estimatedDurationSecs": 0, "sourceReels": {"basedOnCompetitor": "...", "originalCompetitorHook": "..."}}.

Hook: %s
Source account: %s
Estimated effectiveness: %d
Psychological triggers: %v`, h.HookText, h.SourceUsername, h.EstimatedEffectiveness, h.PsychologicalTriggers)
}
