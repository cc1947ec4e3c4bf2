package config

import "time"

// RetentionConfig controls the background cleanup sweep (pkg/cleanup).
type RetentionConfig struct {
	// SimilarProfilesCacheTTL is the max age of a SimilarProfilesCache row
	// before it is evicted.
	SimilarProfilesCacheTTL time.Duration `yaml:"similar_profiles_cache_ttl"`

	// DiscoverySessionRetention is how long completed DiscoverySession
	// bookkeeping rows are kept for audit.
	DiscoverySessionRetention time.Duration `yaml:"discovery_session_retention"`

	// CleanupInterval is how often the sweep runs.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// DefaultRetentionConfig returns the built-in retention defaults.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		SimilarProfilesCacheTTL:   24 * time.Hour,
		DiscoverySessionRetention: 30 * 24 * time.Hour,
		CleanupInterval:           1 * time.Hour,
	}
}
