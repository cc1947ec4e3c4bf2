package models

import "time"

// Content is a single reel, post, or story belonging to a PrimaryProfile.
// Unique on Shortcode; exactly one row exists per shortcode regardless of
// how many times it is re-observed by the fetch pipeline.
type Content struct {
	ContentID    int64  `json:"contentId"`
	Shortcode    string `json:"shortcode"`
	ProfileOwner string `json:"profileOwner"`

	Kind  ContentKind  `json:"kind"`
	Style ContentStyle `json:"style"`

	URL         string `json:"url"`
	Description string `json:"description,omitempty"`

	ThumbKey   string `json:"thumbKey,omitempty"`
	DisplayKey string `json:"displayKey,omitempty"`

	// ViewCount is 0 for posts (posts carry no view metric).
	ViewCount    int64 `json:"viewCount"`
	LikeCount    int64 `json:"likeCount"`
	CommentCount int64 `json:"commentCount"`

	DatePosted time.Time `json:"datePosted"`

	OutlierScore float64 `json:"outlierScore"`

	PrimaryCategory   string `json:"primaryCategory,omitempty"`
	SecondaryCategory string `json:"secondaryCategory,omitempty"`
	TertiaryCategory  string `json:"tertiaryCategory,omitempty"`

	Keyword1 string `json:"keyword1,omitempty"`
	Keyword2 string `json:"keyword2,omitempty"`
	Keyword3 string `json:"keyword3,omitempty"`
	Keyword4 string `json:"keyword4,omitempty"`

	Confidence float64 `json:"confidence,omitempty"`

	Transcript          string     `json:"transcript,omitempty"`
	TranscriptLanguage  string     `json:"transcriptLanguage,omitempty"`
	TranscriptFetchedAt *time.Time `json:"transcriptFetchedAt,omitempty"`
	TranscriptAvailable bool       `json:"transcriptAvailable"`
}

// MetricValue returns the value the outlier score is computed from: view
// count for reels, like count for posts and stories.
func (c *Content) MetricValue() int64 {
	if c.Kind == ContentKindReel {
		return c.ViewCount
	}
	return c.LikeCount
}

// Keywords returns the non-empty keyword slots as a slice, preserving
// order (at most 4 slots).
func (c *Content) Keywords() []string {
	var out []string
	for _, k := range []string{c.Keyword1, c.Keyword2, c.Keyword3, c.Keyword4} {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
