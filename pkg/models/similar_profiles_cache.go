package models

import "time"

// SimilarProfilesCache is a TTL-bounded (24h) cache row recording that
// similarUsername was observed as a similar profile of primaryUsername.
// Unique on (PrimaryUsername, SimilarUsername).
type SimilarProfilesCache struct {
	PrimaryUsername string `json:"primaryUsername"`
	SimilarUsername string `json:"similarUsername"`

	Name     string `json:"name"`
	ImageKey string `json:"imageKey,omitempty"`
	Rank     int    `json:"rank"`

	// BatchID groups all rows written by a single similar-profiles fetch,
	// so a fetch can be identified and re-run atomically.
	BatchID string `json:"batchId"`

	CreatedAt       time.Time `json:"createdAt"`
	ImageDownloaded bool      `json:"imageDownloaded"`
}

// Expired reports whether this cache row is older than ttl.
func (c *SimilarProfilesCache) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(c.CreatedAt) > ttl
}
