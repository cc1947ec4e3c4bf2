package config

import "time"

// ScraperHostConfig describes one third-party Instagram scraping host.
// Each host has its own credential and rate budget, since the upstream
// RapidAPI quotas are tracked independently per host.
type ScraperHostConfig struct {
	Host           string        `yaml:"host" validate:"required"`
	APIKeyEnv      string        `yaml:"api_key_env" validate:"required"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
	// RatePerSecond bounds outbound requests to this host (token-bucket).
	RatePerSecond float64 `yaml:"rate_per_second,omitempty"`
}

// ScraperConfig groups all external Instagram API hosts.
type ScraperConfig struct {
	Profile     ScraperHostConfig `yaml:"profile"`
	Listing     ScraperHostConfig `yaml:"listing"`
	Detail      ScraperHostConfig `yaml:"detail"`
	Similar     ScraperHostConfig `yaml:"similar"`
	BulkReels   ScraperHostConfig `yaml:"bulk_reels"`
	Transcripts ScraperHostConfig `yaml:"transcripts"`
}

// LLMConfig configures the LLM chat adapter used by the categoriser
// and the viral AI sub-pipeline.
type LLMConfig struct {
	APIKeyEnv   string        `yaml:"api_key_env" validate:"required"`
	Model       string        `yaml:"model" validate:"required"`
	MaxTokens   int           `yaml:"max_tokens,omitempty"`
	Temperature float64       `yaml:"temperature,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

// StorageConfig configures the relational and object stores behind the
// store gateway. The concrete clients are external collaborators;
// this only carries connection parameters.
type StorageConfig struct {
	DatabaseURLEnv string `yaml:"database_url_env" validate:"required"`

	UseRelationalStore    bool `yaml:"use_relational_store"`
	KeepLocalCSVShadow    bool `yaml:"keep_local_csv_shadow"`
	UploadImagesToStore   bool `yaml:"upload_images_to_store"`
	CSVShadowDir          string `yaml:"csv_shadow_dir,omitempty"`
	BatchSize             int    `yaml:"batch_size,omitempty"`
	MaxRetries            int    `yaml:"max_retries,omitempty"`
	RetryDelay            time.Duration `yaml:"retry_delay,omitempty"`

	ProfileImagesBucket    string `yaml:"profile_images_bucket,omitempty"`
	ContentThumbnailBucket string `yaml:"content_thumbnail_bucket,omitempty"`
	ObjectStoreBaseURLEnv  string `yaml:"object_store_base_url_env,omitempty"`
}

// ViralConfig configures the viral-ideas workflow engine and the
// AI sub-pipeline.
type ViralConfig struct {
	PrimaryTranscriptTarget    int           `yaml:"primary_transcript_target,omitempty"`
	CompetitorTranscriptTarget int           `yaml:"competitor_transcript_target,omitempty"`
	PrimaryMaxAttempts         int           `yaml:"primary_max_attempts,omitempty"`
	CompetitorMaxAttempts      int           `yaml:"competitor_max_attempts,omitempty"`
	RecurringInterval          time.Duration `yaml:"recurring_interval,omitempty"`
	PollInterval               time.Duration `yaml:"poll_interval,omitempty"`
	PollBackoffSteps           []time.Duration `yaml:"poll_backoff_steps,omitempty"`
	HooksGenerated             int           `yaml:"hooks_generated,omitempty"`
	TopOutlierReels            int           `yaml:"top_outlier_reels,omitempty"`
}

// DiscoveryConfig configures the network discoverer.
type DiscoveryConfig struct {
	DefaultSeedUsername string  `yaml:"default_seed_username,omitempty"`
	MaxRounds           int     `yaml:"max_rounds,omitempty"`
	MaxAccountsToQueue  int     `yaml:"max_accounts_to_queue,omitempty"`
	ProfilesPerRound    int     `yaml:"profiles_per_round,omitempty"`
	MinFollowerFloor    int64   `yaml:"min_follower_floor,omitempty"`
}

// DefaultViralConfig returns the built-in viral-ideas workflow defaults:
// primary transcript target 3 (max attempts 10), competitor target 5
// (max attempts 20).
func DefaultViralConfig() *ViralConfig {
	return &ViralConfig{
		PrimaryTranscriptTarget:    3,
		CompetitorTranscriptTarget: 5,
		PrimaryMaxAttempts:         10,
		CompetitorMaxAttempts:      20,
		RecurringInterval:          24 * time.Hour,
		PollInterval:               5 * time.Second,
		PollBackoffSteps: []time.Duration{
			5 * time.Second, 10 * time.Second, 30 * time.Second, 1 * time.Minute,
		},
		HooksGenerated:  5,
		TopOutlierReels: 5,
	}
}

// DefaultDiscoveryConfig returns the built-in network-discoverer defaults.
func DefaultDiscoveryConfig() *DiscoveryConfig {
	return &DiscoveryConfig{
		DefaultSeedUsername: "",
		MaxRounds:           5,
		MaxAccountsToQueue:  50,
		ProfilesPerRound:    20,
		MinFollowerFloor:    1000,
	}
}
