package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/reelscope/pipeline/pkg/models"
	"github.com/reelscope/pipeline/pkg/store"
	"github.com/reelscope/pipeline/pkg/viral"
)

// ViralService backs the viral-ideas queue and results endpoints. The
// "queue_id" in every endpoint name is a ViralAnalysisRequest.ID — this
// is a separate queue from the profile-scrape priority queue.
type ViralService struct {
	store  *store.Store
	engine *viral.Engine
}

// NewViralService builds a ViralService over its store and workflow engine.
func NewViralService(st *store.Store, engine *viral.Engine) *ViralService {
	return &ViralService{store: st, engine: engine}
}

// QueueRequest is the /api/viral-ideas/queue request body.
type QueueRequest struct {
	SessionID         string
	PrimaryUsername   string
	SelectedCompetitors []string
	Strategy          models.ContentStrategy
}

// QueueViralIdeas admits a new analysis request, idempotent against an
// existing active request for the same (session, primary) pair.
func (s *ViralService) QueueViralIdeas(ctx context.Context, req QueueRequest) (*models.ViralAnalysisRequest, error) {
	if req.PrimaryUsername == "" {
		return nil, validationError("primary_username", "required")
	}
	if req.SessionID == "" {
		return nil, validationError("session_id", "required")
	}

	existing, err := s.store.ActiveViralRequest(ctx, req.SessionID, req.PrimaryUsername)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	record := &models.ViralAnalysisRequest{
		SessionID:       req.SessionID,
		PrimaryUsername: req.PrimaryUsername,
		Competitors:     req.SelectedCompetitors,
		Strategy:        req.Strategy,
		Status:          models.ViralRequestPending,
		SubmittedAt:     time.Now().UTC(),
	}
	if err := s.store.CreateViralRequest(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetQueueStatus returns the most recent request submitted under sessionID.
func (s *ViralService) GetQueueStatus(ctx context.Context, sessionID string) (*models.ViralAnalysisRequest, error) {
	req, err := s.store.ViralRequestBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, models.NewKindedError(models.ErrorKindNotFound, fmt.Errorf("no viral request for session %s", sessionID))
	}
	return req, nil
}

// CheckExisting looks up the latest request for username, preferring a
// completed run's data and falling back to whatever is currently active.
func (s *ViralService) CheckExisting(ctx context.Context, username string) (*models.ViralAnalysisRequest, *models.ViralAnalysisRun, error) {
	req, err := s.store.LatestViralRequestForUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	if req == nil {
		return nil, nil, models.NewKindedError(models.ErrorKindNotFound, fmt.Errorf("no viral request for %s", username))
	}
	run, err := s.store.LatestCompletedRun(ctx, req.ID)
	if err != nil {
		return nil, nil, err
	}
	return req, run, nil
}

// StartQueueItem kicks off a request's run in the background and
// returns once it has been marked started, without waiting for
// completion. Mirrors POST .../start.
func (s *ViralService) StartQueueItem(ctx context.Context, requestID int64) error {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}
	go func() {
		if err := s.engine.RunRequest(context.Background(), req); err != nil {
			slog.Error("background viral run failed", "request_id", requestID, "error", err)
		}
	}()
	return nil
}

// ProcessQueueItem runs a request's full workflow synchronously and
// returns once it has completed or failed. Mirrors POST .../process.
func (s *ViralService) ProcessQueueItem(ctx context.Context, requestID int64) (*models.ViralAnalysisRequest, error) {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.engine.RunRequest(ctx, req); err != nil {
		return nil, err
	}
	return s.store.ViralRequestByID(ctx, requestID)
}

func (s *ViralService) loadRequest(ctx context.Context, requestID int64) (*models.ViralAnalysisRequest, error) {
	req, err := s.store.ViralRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, models.NewKindedError(models.ErrorKindNotFound, fmt.Errorf("viral request %d not found", requestID))
	}
	return req, nil
}

// analysisBlob mirrors the JSON shape pkg/viralai persists into
// ViralAnalysisRun.AnalysisData, unmarshaled here rather than importing
// viralai's unexported stage types.
type analysisBlob struct {
	ProfileAnalysis        json.RawMessage   `json:"profile_analysis"`
	IndividualReelAnalyses []json.RawMessage `json:"individual_reel_analyses"`
	GeneratedHooks         []json.RawMessage `json:"generated_hooks"`
	CompleteScripts        []json.RawMessage `json:"complete_scripts"`
	AnalysisSummary        json.RawMessage   `json:"analysis_summary"`
}

// ScriptSummaryEntry is the trimmed per-script projection returned
// alongside the full viral_scripts_table.
type ScriptSummaryEntry struct {
	Title        string `json:"title"`
	PrimaryHook  string `json:"primaryHook"`
	CallToAction string `json:"callToAction"`
}

// ResultsResponse is the full payload behind
// GET /api/viral-analysis/{queue_id}/results.
type ResultsResponse struct {
	Analysis       json.RawMessage
	AnalysisData   json.RawMessage
	PrimaryProfile *models.PrimaryProfile

	AnalyzedReels     []*models.ViralAnalysisReel
	PrimaryUserReels  []*models.ViralAnalysisReel
	CompetitorReels   []*models.ViralAnalysisReel
	CompetitorProfiles []*models.PrimaryProfile

	ViralScriptsTable []*models.ViralScript
	ScriptsSummary    []ScriptSummaryEntry

	ProfileAnalysis        json.RawMessage
	GeneratedHooks         []json.RawMessage
	IndividualReelAnalyses []json.RawMessage
	CompleteScripts        []json.RawMessage
	AnalysisSummary        json.RawMessage

	// ViralIdeas is a back-compat projection of GeneratedHooks.
	ViralIdeas []json.RawMessage
}

// GetResults assembles the full analysis report for requestID's latest
// completed run.
func (s *ViralService) GetResults(ctx context.Context, requestID int64) (*ResultsResponse, error) {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	run, err := s.store.LatestCompletedRun(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, models.NewKindedError(models.ErrorKindNotFound, fmt.Errorf("no completed analysis for request %d", requestID))
	}

	reels, err := s.store.ReelsForRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	scripts, err := s.store.ScriptsForRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	primary, err := s.store.GetPrimary(ctx, req.PrimaryUsername)
	if err != nil {
		return nil, err
	}

	var primaryReels, competitorReels []*models.ViralAnalysisReel
	for _, r := range reels {
		if r.Role == models.ReelRolePrimary {
			primaryReels = append(primaryReels, r)
		} else {
			competitorReels = append(competitorReels, r)
		}
	}

	var competitorProfiles []*models.PrimaryProfile
	for _, c := range req.Competitors {
		if p, err := s.store.GetPrimary(ctx, c); err == nil {
			competitorProfiles = append(competitorProfiles, p)
		}
	}

	summaries := make([]ScriptSummaryEntry, len(scripts))
	for i, sc := range scripts {
		summaries[i] = ScriptSummaryEntry{Title: sc.Title, PrimaryHook: sc.PrimaryHook, CallToAction: sc.CallToAction}
	}

	var blob analysisBlob
	_ = json.Unmarshal(run.AnalysisData, &blob) // never raises: partial/empty blob degrades to zero values

	return &ResultsResponse{
		Analysis:               run.AnalysisData,
		AnalysisData:           run.AnalysisData,
		PrimaryProfile:         primary,
		AnalyzedReels:          reels,
		PrimaryUserReels:       primaryReels,
		CompetitorReels:        competitorReels,
		CompetitorProfiles:     competitorProfiles,
		ViralScriptsTable:      scripts,
		ScriptsSummary:         summaries,
		ProfileAnalysis:        blob.ProfileAnalysis,
		GeneratedHooks:         blob.GeneratedHooks,
		IndividualReelAnalyses: blob.IndividualReelAnalyses,
		CompleteScripts:        blob.CompleteScripts,
		AnalysisSummary:        blob.AnalysisSummary,
		ViralIdeas:             blob.GeneratedHooks,
	}, nil
}

// ContentResponse is the payload behind
// GET /api/viral-analysis/{queue_id}/content.
type ContentResponse struct {
	Reels      []*models.ViralAnalysisReel
	IsLastPage bool
}

// GetContent paginates a run's selected reels, optionally filtered by role.
func (s *ViralService) GetContent(ctx context.Context, requestID int64, contentType string, limit, offset int) (*ContentResponse, error) {
	if err := validateLimitOffset(limit, offset); err != nil {
		return nil, err
	}
	run, err := s.store.LatestCompletedRun(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, models.NewKindedError(models.ErrorKindNotFound, fmt.Errorf("no completed analysis for request %d", requestID))
	}
	reels, err := s.store.ReelsForRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}

	var filtered []*models.ViralAnalysisReel
	for _, r := range reels {
		switch contentType {
		case "primary":
			if r.Role != models.ReelRolePrimary {
				continue
			}
		case "competitor":
			if r.Role != models.ReelRoleCompetitor {
				continue
			}
		}
		filtered = append(filtered, r)
	}

	if limit <= 0 {
		limit = 24
	}
	start := offset
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + limit
	isLastPage := end >= len(filtered)
	if end > len(filtered) {
		end = len(filtered)
	}
	return &ContentResponse{Reels: filtered[start:end], IsLastPage: isLastPage}, nil
}
