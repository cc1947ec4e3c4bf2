package models

import (
	"encoding/json"
	"time"
)

// ContentStrategy captures the user's brief for a viral-ideas analysis
// (content type, target audience, goals) carried through from the queue
// request into the AI sub-pipeline prompts.
type ContentStrategy struct {
	ContentType    string `json:"contentType,omitempty"`
	TargetAudience string `json:"targetAudience,omitempty"`
	Goals          string `json:"goals,omitempty"`
}

// ViralAnalysisRequest is the top-level user-facing request driving
// the viral workflow engine.
// One active request exists per (SessionID, PrimaryUsername) at a time.
type ViralAnalysisRequest struct {
	ID              int64    `json:"id"`
	SessionID       string   `json:"sessionId"`
	PrimaryUsername string   `json:"primaryUsername"`
	Competitors     []string `json:"competitors"`

	Strategy ContentStrategy `json:"strategy"`

	Status      ViralRequestStatus `json:"status"`
	Progress    int                `json:"progress"`
	CurrentStep string             `json:"currentStep,omitempty"`

	SubmittedAt      time.Time  `json:"submittedAt"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	NextScheduledRun *time.Time `json:"nextScheduledRun,omitempty"`

	TotalRuns int `json:"totalRuns"`
}

// Progress checkpoints for the viral workflow engine's state machine.
const (
	ProgressClaimed            = 10
	ProgressFetchingProfiles   = 20
	ProgressSelectingReels     = 60
	ProgressProcessingTranscripts = 70
	ProgressAI                 = 85
	ProgressDone               = 100
)

// ViralAnalysisRun is one execution (run#) of a ViralAnalysisRequest.
// run# is strictly monotonically increasing per request.
type ViralAnalysisRun struct {
	ID        int64 `json:"id"`
	RequestID int64 `json:"requestId"`
	RunNumber int   `json:"run#"`

	Kind   ViralRunKind   `json:"kind"`
	Status ViralRunStatus `json:"status"`

	PrimaryReelsCount    int `json:"primaryReelsCount"`
	CompetitorReelsCount int `json:"competitorReelsCount"`
	TranscriptsFetched   int `json:"transcriptsFetched"`

	WorkflowVersion string `json:"workflowVersion"`

	// AnalysisData is the authoritative JSON blob produced by the AI
	// sub-pipeline.
	AnalysisData json.RawMessage `json:"analysisData,omitempty"`

	// LastDiscoveryFetchAt marks the high-water mark used by recurring
	// runs to find reels posted since the previous successful run.
	LastDiscoveryFetchAt *time.Time `json:"lastDiscoveryFetchAt,omitempty"`

	StartedAt           time.Time  `json:"startedAt"`
	AnalysisCompletedAt *time.Time `json:"analysisCompletedAt,omitempty"`
}

// ViralAnalysisReel is a single reel selected for a run, tracking its
// transcript-harvesting and hook-analysis outcome.
type ViralAnalysisReel struct {
	ID     int64 `json:"id"`
	RunID  int64 `json:"runId"`
	ContentID int64 `json:"contentId"`

	Role          ReelRole `json:"role"`
	SelectionRank int      `json:"selectionRank"`

	// MetricsSnapshot freezes the metric values observed at selection
	// time so later Content updates don't retroactively change a run.
	MetricsSnapshot MetricsSnapshot `json:"metricsSnapshot"`

	TranscriptRequested bool   `json:"transcriptRequested"`
	TranscriptCompleted bool   `json:"transcriptCompleted"`
	TranscriptError     string `json:"transcriptError,omitempty"`

	HookText   string   `json:"hookText,omitempty"`
	PowerWords []string `json:"powerWords,omitempty"`
}

// MetricsSnapshot is the frozen-at-selection-time metric set for a
// ViralAnalysisReel.
type MetricsSnapshot struct {
	ViewCount    int64   `json:"viewCount"`
	LikeCount    int64   `json:"likeCount"`
	CommentCount int64   `json:"commentCount"`
	OutlierScore float64 `json:"outlierScore"`
}

// SourceReelRef links a generated ViralScript back to the competitor
// reel and hook it was adapted from.
type SourceReelRef struct {
	BasedOnCompetitor      string `json:"basedOnCompetitor"`
	OriginalCompetitorHook string `json:"originalCompetitorHook"`
}

// ViralScript is one generated script, denormalised from
// ViralAnalysisRun.analysisData.complete_scripts for listing endpoints.
type ViralScript struct {
	ID    int64 `json:"id"`
	RunID int64 `json:"runId"`

	Title         string `json:"title"`
	Content       string `json:"content"`
	PrimaryHook   string `json:"primaryHook"`
	CallToAction  string `json:"callToAction"`
	Kind          string `json:"kind,omitempty"`
	DurationSecs  int    `json:"durationSecs"`

	SourceReels SourceReelRef `json:"sourceReels"`
}
