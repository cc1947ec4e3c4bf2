// Package viral implements the viral workflow engine: the state
// machine that drives one viral-ideas analysis request from admission
// through reel selection, transcript harvesting, and the AI
// sub-pipeline to a persisted report.
//
//	pending -> processing -> transcripts_completed -> completed | failed
package viral

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/reelscope/pipeline/pkg/config"
	"github.com/reelscope/pipeline/pkg/fetchers"
	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/pkg/store"
	"github.com/reelscope/pipeline/pkg/viralai"
)

// ProfileReelRunner is the collaborator Engine uses to populate a
// primary or competitor account before reel selection.
// pipeline.Pipeline's RunViralInitial/RunViralRefresh are the default
// implementation.
type ProfileReelRunner interface {
	RunViralInitial(ctx context.Context, username string, maxReels int) (*store.IntegrityReport, error)
	RunViralRefresh(ctx context.Context, username string, maxReels int) (*store.IntegrityReport, error)
}

// TranscriptFetcher is the collaborator Engine polls while harvesting
// reel transcripts. fetchers.TranscriptAdapter is the default
// implementation.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, reelURL string) (*fetchers.TranscriptResult, error)
}

// AIRunner is the collaborator Engine calls for the AI sub-pipeline
// stage. viralai.Pipeline is the default implementation.
type AIRunner interface {
	Run(ctx context.Context, profile viralai.ProfileInput, reels []viralai.ReelInput) *viralai.Result
}

// Engine drives RunRequest over a single ViralAnalysisRequest.
type Engine struct {
	store       *store.Store
	runner      ProfileReelRunner
	transcripts TranscriptFetcher
	ai          AIRunner
	cfg         *config.ViralConfig
}

// New builds an Engine.
func New(st *store.Store, runner ProfileReelRunner, transcripts TranscriptFetcher, ai AIRunner, cfg *config.ViralConfig) *Engine {
	return &Engine{store: st, runner: runner, transcripts: transcripts, ai: ai, cfg: cfg}
}

const workflowVersion = "v1"

// RunRequest drives req through the full state machine, persisting
// progress checkpoints along the way. Every failure path marks the
// request failed with a reason before returning.
func (e *Engine) RunRequest(ctx context.Context, req *models.ViralAnalysisRequest) error {
	log := slog.With("op", "viral.RunRequest", "request_id", req.ID, "primary", req.PrimaryUsername)

	now := time.Now().UTC()
	if err := e.store.MarkViralRequestStarted(ctx, req.ID, now); err != nil {
		return err
	}
	if err := e.store.UpdateViralRequestProgress(ctx, req.ID, models.ViralRequestProcessing, models.ProgressClaimed, "claimed"); err != nil {
		return err
	}

	kind := models.ViralRunInitial
	if req.TotalRuns > 0 {
		kind = models.ViralRunRecurring
	}

	if err := e.fetchAccounts(ctx, req, kind); err != nil {
		e.fail(ctx, req.ID, 0, "fetch accounts: "+err.Error())
		return err
	}
	if err := e.store.UpdateViralRequestProgress(ctx, req.ID, models.ViralRequestProcessing, models.ProgressFetchingProfiles, "fetching_profiles"); err != nil {
		return err
	}

	run := &models.ViralAnalysisRun{
		RequestID:       req.ID,
		Kind:            kind,
		Status:          models.ViralRunPending,
		WorkflowVersion: workflowVersion,
		StartedAt:       now,
	}
	if err := e.store.CreateViralRun(ctx, run); err != nil {
		e.fail(ctx, req.ID, 0, "create run: "+err.Error())
		return err
	}

	reels, contentByID, err := e.selectReels(ctx, req)
	if err != nil {
		e.fail(ctx, req.ID, run.ID, "select reels: "+err.Error())
		return err
	}
	for _, r := range reels {
		r.RunID = run.ID
	}
	if err := e.store.SaveViralReels(ctx, reels); err != nil {
		e.fail(ctx, req.ID, run.ID, "save reels: "+err.Error())
		return err
	}
	reels, err = e.store.ReelsForRun(ctx, run.ID)
	if err != nil {
		e.fail(ctx, req.ID, run.ID, "reload reels: "+err.Error())
		return err
	}
	if err := e.store.UpdateViralRequestProgress(ctx, req.ID, models.ViralRequestProcessing, models.ProgressSelectingReels, "selecting_reels"); err != nil {
		return err
	}

	e.harvestTranscripts(ctx, reels, contentByID)
	if err := e.store.UpdateViralRequestProgress(ctx, req.ID, models.ViralRequestProcessing, models.ProgressProcessingTranscripts, "processing_transcripts"); err != nil {
		return err
	}

	primaryCount, competitorCount, transcriptsFetched := countReels(reels)
	if err := e.store.UpdateRunCounts(ctx, run.ID, primaryCount, competitorCount, transcriptsFetched); err != nil {
		e.fail(ctx, req.ID, run.ID, "update run counts: "+err.Error())
		return err
	}
	if err := e.store.MarkRunTranscriptsCompleted(ctx, run.ID); err != nil {
		e.fail(ctx, req.ID, run.ID, "mark transcripts completed: "+err.Error())
		return err
	}

	if err := e.store.UpdateViralRequestProgress(ctx, req.ID, models.ViralRequestProcessing, models.ProgressAI, "ai_analysis"); err != nil {
		return err
	}

	profile, err := e.store.GetPrimary(ctx, req.PrimaryUsername)
	if err != nil {
		log.Warn("failed to load primary profile for AI prompt", "error", err)
	}

	result := e.ai.Run(ctx, profileInputFor(profile, contentByID, req.PrimaryUsername), aiReelInputs(reels, contentByID))
	if result == nil {
		_ = e.store.FailViralRequest(ctx, req.ID, "ai sub-pipeline produced no result")
		return fmt.Errorf("ai sub-pipeline produced no result for request %d", req.ID)
	}

	for _, h := range result.ReelHooks {
		if h.HookText == "" {
			continue
		}
		if err := e.store.UpdateReelHook(ctx, h.ReelID, h.HookText, h.PowerWords); err != nil {
			log.Warn("failed to persist reel hook", "reel_id", h.ReelID, "error", err)
		}
	}
	for _, sc := range result.Scripts {
		sc.RunID = run.ID
	}
	if len(result.Scripts) > 0 {
		if err := e.store.SaveViralScripts(ctx, result.Scripts); err != nil {
			log.Warn("failed to save viral scripts", "error", err)
		}
	}

	completedAt := time.Now().UTC()
	if err := e.store.CompleteRun(ctx, run.ID, result.Blob, completedAt, &completedAt); err != nil {
		e.fail(ctx, req.ID, 0, "complete run: "+err.Error())
		return err
	}

	next := completedAt.Add(e.cfg.RecurringInterval)
	if err := e.store.CompleteViralRequest(ctx, req.ID, completedAt, &next); err != nil {
		return err
	}

	log.Info("viral request completed", "run_id", run.ID, "scripts_created", len(result.Scripts))
	return nil
}

func (e *Engine) fail(ctx context.Context, requestID, runID int64, reason string) {
	if runID != 0 {
		_ = e.store.FailRun(ctx, runID)
	}
	_ = e.store.FailViralRequest(ctx, requestID, reason)
}

// fetchAccounts populates the primary and every competitor account,
// fanning out concurrently.
func (e *Engine) fetchAccounts(ctx context.Context, req *models.ViralAnalysisRequest, kind models.ViralRunKind) error {
	maxReels := e.cfg.PrimaryMaxAttempts
	run := e.runner.RunViralInitial
	if kind == models.ViralRunRecurring {
		run = e.runner.RunViralRefresh
	}

	usernames := append([]string{req.PrimaryUsername}, req.Competitors...)
	errs := make(chan error, len(usernames))
	for _, u := range usernames {
		go func(username string) {
			_, err := run(ctx, username, maxReels)
			errs <- err
		}(u)
	}
	var firstErr error
	for range usernames {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// selectReels runs the smart transcript-selection candidate pass: rank
// every owner's content by outlier score, then cap at each role's max
// attempts, marking each selected row TranscriptRequested. The
// returned map lets later stages recover each candidate's URL,
// transcript, and owning username without re-querying per reel.
func (e *Engine) selectReels(ctx context.Context, req *models.ViralAnalysisRequest) ([]*models.ViralAnalysisReel, map[int64]*models.Content, error) {
	primaryContent, err := e.store.ContentForOwner(ctx, req.PrimaryUsername)
	if err != nil {
		return nil, nil, err
	}
	primaryCandidates := rankReels(primaryContent)
	if len(primaryCandidates) > e.cfg.PrimaryMaxAttempts {
		primaryCandidates = primaryCandidates[:e.cfg.PrimaryMaxAttempts]
	}

	var competitorCandidates []*models.Content
	for _, c := range req.Competitors {
		content, err := e.store.ContentForOwner(ctx, c)
		if err != nil {
			return nil, nil, err
		}
		competitorCandidates = append(competitorCandidates, rankReels(content)...)
	}
	sort.SliceStable(competitorCandidates, func(i, j int) bool {
		return competitorCandidates[i].OutlierScore > competitorCandidates[j].OutlierScore
	})
	if len(competitorCandidates) > e.cfg.CompetitorMaxAttempts {
		competitorCandidates = competitorCandidates[:e.cfg.CompetitorMaxAttempts]
	}

	contentByID := make(map[int64]*models.Content, len(primaryCandidates)+len(competitorCandidates))
	for _, c := range primaryCandidates {
		contentByID[c.ContentID] = c
	}
	for _, c := range competitorCandidates {
		contentByID[c.ContentID] = c
	}

	reels := buildReelRows(primaryCandidates, models.ReelRolePrimary)
	reels = append(reels, buildReelRows(competitorCandidates, models.ReelRoleCompetitor)...)
	return reels, contentByID, nil
}

// rankReels filters to reels and sorts by outlier score descending.
func rankReels(content []*models.Content) []*models.Content {
	var reels []*models.Content
	for _, c := range content {
		if c.Kind == models.ContentKindReel {
			reels = append(reels, c)
		}
	}
	sort.SliceStable(reels, func(i, j int) bool { return reels[i].OutlierScore > reels[j].OutlierScore })
	return reels
}

func buildReelRows(content []*models.Content, role models.ReelRole) []*models.ViralAnalysisReel {
	out := make([]*models.ViralAnalysisReel, 0, len(content))
	for i, c := range content {
		out = append(out, &models.ViralAnalysisReel{
			ContentID:     c.ContentID,
			Role:          role,
			SelectionRank: i + 1,
			MetricsSnapshot: models.MetricsSnapshot{
				ViewCount:    c.ViewCount,
				LikeCount:    c.LikeCount,
				CommentCount: c.CommentCount,
				OutlierScore: c.OutlierScore,
			},
			TranscriptRequested: true,
		})
	}
	return out
}

// harvestTranscripts requests a transcript for each selected reel,
// stopping a role's iteration once its target is met: primary 3,
// competitors 5 combined. Candidates beyond the target are left
// unrequested so selection stays auditable, but no transcript call is
// made for them. Results are persisted onto both the Content row and
// the ViralAnalysisReel row, and mirrored into contentByID so the AI
// stage can read the harvested text without a second query.
func (e *Engine) harvestTranscripts(ctx context.Context, reels []*models.ViralAnalysisReel, contentByID map[int64]*models.Content) {
	primaryCompleted, competitorCompleted := 0, 0

	for _, r := range reels {
		target := e.cfg.CompetitorTranscriptTarget
		completed := &competitorCompleted
		if r.Role == models.ReelRolePrimary {
			target = e.cfg.PrimaryTranscriptTarget
			completed = &primaryCompleted
		}
		if *completed >= target {
			r.TranscriptRequested = false
			continue
		}

		content := contentByID[r.ContentID]
		if content == nil {
			r.TranscriptError = "content lookup failed"
			_ = e.store.UpdateReelTranscript(ctx, r.ID, false, r.TranscriptError)
			continue
		}

		result, err := e.transcripts.Fetch(ctx, content.URL)
		if err != nil {
			r.TranscriptError = err.Error()
			_ = e.store.UpdateReelTranscript(ctx, r.ID, false, r.TranscriptError)
			continue
		}
		if !result.Available {
			r.TranscriptError = "no audio or unsupported language"
			_ = e.store.UpdateReelTranscript(ctx, r.ID, false, r.TranscriptError)
			continue
		}

		text := result.FullText()
		_ = e.store.UpdateContentTranscript(ctx, content.ContentID, text, result.Language, time.Now().UTC(), true)
		content.Transcript = text
		content.TranscriptAvailable = true

		r.TranscriptCompleted = true
		_ = e.store.UpdateReelTranscript(ctx, r.ID, true, "")
		*completed++
	}
}

func countReels(reels []*models.ViralAnalysisReel) (primary, competitor, transcripts int) {
	for _, r := range reels {
		if r.Role == models.ReelRolePrimary {
			primary++
		} else {
			competitor++
		}
		if r.TranscriptCompleted {
			transcripts++
		}
	}
	return primary, competitor, transcripts
}

func aiReelInputs(reels []*models.ViralAnalysisReel, contentByID map[int64]*models.Content) []viralai.ReelInput {
	out := make([]viralai.ReelInput, 0, len(reels))
	for _, r := range reels {
		var username, transcript string
		var available bool
		if c := contentByID[r.ContentID]; c != nil {
			username = c.ProfileOwner
			transcript = c.Transcript
			available = c.TranscriptAvailable
		}
		out = append(out, viralai.ReelInput{
			ReelID:              r.ID,
			ContentID:           r.ContentID,
			Username:            username,
			Role:                r.Role,
			Transcript:          transcript,
			TranscriptAvailable: available,
			ViewCount:           r.MetricsSnapshot.ViewCount,
			LikeCount:           r.MetricsSnapshot.LikeCount,
			CommentCount:        r.MetricsSnapshot.CommentCount,
			OutlierScore:        r.MetricsSnapshot.OutlierScore,
		})
	}
	return out
}

// recentCaptions returns up to n non-empty descriptions from content,
// newest first, for the AI profile-analysis prompt.
func recentCaptions(content []*models.Content, n int) []string {
	out := make([]string, 0, n)
	for _, c := range content {
		if c.Description == "" {
			continue
		}
		out = append(out, c.Description)
		if len(out) == n {
			break
		}
	}
	return out
}

func profileInputFor(p *models.PrimaryProfile, contentByID map[int64]*models.Content, primaryUsername string) viralai.ProfileInput {
	var ownContent []*models.Content
	for _, c := range contentByID {
		if c.ProfileOwner == models.NormalizeUsername(primaryUsername) {
			ownContent = append(ownContent, c)
		}
	}
	sort.SliceStable(ownContent, func(i, j int) bool { return ownContent[i].DatePosted.After(ownContent[j].DatePosted) })
	captions := recentCaptions(ownContent, 5)

	if p == nil {
		return viralai.ProfileInput{Username: primaryUsername, RecentCaptions: captions}
	}
	return viralai.ProfileInput{
		Username:       p.Username,
		Bio:            p.Bio,
		Categories:     []string{p.PrimaryCategory, p.SecondaryCategory, p.TertiaryCategory},
		Followers:      p.Followers,
		PostsCount:     p.PostsCount,
		RecentCaptions: captions,
	}
}
