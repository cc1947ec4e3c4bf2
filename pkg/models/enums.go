// Package models defines the domain entities shared across components
// (spec data model: PrimaryProfile, Content, SecondaryProfile, QueueItem,
// ViralAnalysisRequest/Run/Reel, ViralScript, SimilarProfilesCache).
package models

import "strings"

// AccountType classifies a profile's nature.
type AccountType string

const (
	AccountTypePersonal     AccountType = "Personal"
	AccountTypeBusinessPage AccountType = "Business Page"
	AccountTypeInfluencer   AccountType = "Influencer"
	AccountTypeThemePage    AccountType = "Theme Page"
)

// NormalizeAccountType folds numeric codes and case-insensitive variants
// onto the canonical account type, defaulting to Personal for anything
// unrecognised.
func NormalizeAccountType(raw string) AccountType {
	switch strings.TrimSpace(raw) {
	case "1":
		return AccountTypePersonal
	case "2":
		return AccountTypeBusinessPage
	case "3":
		return AccountTypeInfluencer
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "personal":
		return AccountTypePersonal
	case "business page", "business", "business_page":
		return AccountTypeBusinessPage
	case "influencer":
		return AccountTypeInfluencer
	case "theme page", "theme_page", "theme":
		return AccountTypeThemePage
	default:
		return AccountTypePersonal
	}
}

// ContentKind distinguishes reels, posts and stories.
type ContentKind string

const (
	ContentKindReel  ContentKind = "reel"
	ContentKindPost  ContentKind = "post"
	ContentKindStory ContentKind = "story"
)

// ContentStyle captures the media shape behind a piece of Content.
type ContentStyle string

const (
	ContentStyleVideo         ContentStyle = "video"
	ContentStyleImage         ContentStyle = "image"
	ContentStyleCarouselImage ContentStyle = "carousel_image"
	ContentStyleCarouselVideo ContentStyle = "carousel_video"
)

// Priority is the two-level scheduling hint used by the queue.
type Priority string

const (
	PriorityHigh Priority = "HIGH"
	PriorityLow  Priority = "LOW"
)

// QueueStatus is the lifecycle state of a QueueItem.
type QueueStatus string

const (
	QueueStatusPending    QueueStatus = "PENDING"
	QueueStatusProcessing QueueStatus = "PROCESSING"
	QueueStatusCompleted  QueueStatus = "COMPLETED"
	QueueStatusFailed     QueueStatus = "FAILED"
	QueueStatusPaused     QueueStatus = "PAUSED"
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s QueueStatus) IsTerminal() bool {
	return s == QueueStatusCompleted || s == QueueStatusFailed
}

// ViralRequestStatus is the lifecycle state of a ViralAnalysisRequest.
type ViralRequestStatus string

const (
	ViralRequestPending    ViralRequestStatus = "pending"
	ViralRequestProcessing ViralRequestStatus = "processing"
	ViralRequestCompleted  ViralRequestStatus = "completed"
	ViralRequestFailed     ViralRequestStatus = "failed"
)

// ViralRunKind distinguishes the first analysis of a request from
// subsequent 24h refreshes.
type ViralRunKind string

const (
	ViralRunInitial   ViralRunKind = "initial"
	ViralRunRecurring ViralRunKind = "recurring"
)

// ViralRunStatus is the lifecycle state of a single ViralAnalysisRun.
type ViralRunStatus string

const (
	ViralRunPending              ViralRunStatus = "pending"
	ViralRunTranscriptsCompleted ViralRunStatus = "transcripts_completed"
	ViralRunCompleted            ViralRunStatus = "completed"
	ViralRunFailed               ViralRunStatus = "failed"
)

// ReelRole tags a ViralAnalysisReel as belonging to the primary account
// or one of the competitors being compared against it.
type ReelRole string

const (
	ReelRolePrimary    ReelRole = "primary"
	ReelRoleCompetitor ReelRole = "competitor"
)
