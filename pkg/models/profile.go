package models

import "time"

// AggMetrics holds the aggregate content-performance statistics for a
// PrimaryProfile, recomputed whenever its Content set changes.
type AggMetrics struct {
	TotalReels    int     `json:"totalReels"`
	MedianViews   float64 `json:"medianViews"`
	MeanViews     float64 `json:"meanViews"`
	StdViews      float64 `json:"stdViews"`
	TotalViews    int64   `json:"totalViews"`
	TotalLikes    int64   `json:"totalLikes"`
	TotalComments int64   `json:"totalComments"`
}

// PrimaryProfile is a fully-scraped Instagram account with its own
// Content rows. Unique on Username (case-insensitive).
type PrimaryProfile struct {
	Username  string `json:"username"`
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
	Followers   int64  `json:"followers"`
	PostsCount  int64  `json:"postsCount"`
	IsVerified  bool   `json:"isVerified"`

	AccountType AccountType `json:"accountType"`
	ImageKey    string      `json:"imageKey,omitempty"`

	PrimaryCategory   string `json:"primaryCategory,omitempty"`
	SecondaryCategory string `json:"secondaryCategory,omitempty"`
	TertiaryCategory  string `json:"tertiaryCategory,omitempty"`

	AggMetrics AggMetrics `json:"aggMetrics"`

	// Similar holds up to 20 usernames surfaced by the similar-profiles
	// adapter, most-recently observed ordering.
	Similar []string `json:"similar,omitempty"`

	LastFullScrape    *time.Time `json:"lastFullScrape,omitempty"`
	AnalysisTimestamp *time.Time `json:"analysisTimestamp,omitempty"`
}

// UsernameKey returns the case-insensitive lookup key for this profile.
func (p *PrimaryProfile) UsernameKey() string {
	return normalizeUsername(p.Username)
}

// SecondaryProfile is a profile discovered via similar-profile expansion
// but not yet promoted to a PrimaryProfile.
type SecondaryProfile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Bio      string `json:"bio"`

	Followers  int64 `json:"followers"`
	Following  int64 `json:"following"`
	MediaCount int64 `json:"mediaCount"`

	ImageKey   string      `json:"imageKey,omitempty"`
	IsVerified bool        `json:"isVerified"`
	AccountType AccountType `json:"accountType"`

	PrimaryCategory   string `json:"primaryCategory,omitempty"`
	SecondaryCategory string `json:"secondaryCategory,omitempty"`
	TertiaryCategory  string `json:"tertiaryCategory,omitempty"`

	// DiscoveredBy references the PrimaryProfile whose similar-profiles
	// expansion first surfaced this account.
	DiscoveredBy   int64 `json:"discoveredBy"`
	SimilarityRank int   `json:"similarityRank"`
}
