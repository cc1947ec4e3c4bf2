package config

import (
	"fmt"
	"os"
)

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast, stops at the
// first error). Sections are validated in dependency order: queue first
// since nothing else depends on it, then the external collaborators
// (scrapers, LLM, storage), then the workflow-level sections that assume
// those collaborators are sound.
func (v *Validator) ValidateAll() error {
	if err := v.validateQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}
	if err := v.validateScrapers(); err != nil {
		return fmt.Errorf("scraper validation failed: %w", err)
	}
	if err := v.validateLLM(); err != nil {
		return fmt.Errorf("LLM validation failed: %w", err)
	}
	if err := v.validateStorage(); err != nil {
		return fmt.Errorf("storage validation failed: %w", err)
	}
	if err := v.validateViral(); err != nil {
		return fmt.Errorf("viral workflow validation failed: %w", err)
	}
	if err := v.validateDiscovery(); err != nil {
		return fmt.Errorf("discovery validation failed: %w", err)
	}
	if err := v.validateDefaults(); err != nil {
		return fmt.Errorf("defaults validation failed: %w", err)
	}
	if err := v.validateRetention(); err != nil {
		return fmt.Errorf("retention validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue
	if q == nil {
		return fmt.Errorf("queue configuration is nil")
	}
	if q.MaxConcurrentHigh < 1 {
		return NewValidationError("queue", "max_concurrent_high", fmt.Errorf("must be at least 1, got %d", q.MaxConcurrentHigh))
	}
	if q.MaxConcurrentLow < 1 {
		return NewValidationError("queue", "max_concurrent_low", fmt.Errorf("must be at least 1, got %d", q.MaxConcurrentLow))
	}
	if q.PollInterval <= 0 {
		return NewValidationError("queue", "poll_interval", fmt.Errorf("must be positive, got %v", q.PollInterval))
	}
	if q.PollIntervalJitter < 0 {
		return NewValidationError("queue", "poll_interval_jitter", fmt.Errorf("must be non-negative, got %v", q.PollIntervalJitter))
	}
	if q.PollIntervalJitter >= q.PollInterval {
		return NewValidationError("queue", "poll_interval_jitter", fmt.Errorf("must be less than poll_interval, got jitter=%v interval=%v", q.PollIntervalJitter, q.PollInterval))
	}
	if q.ItemTimeout <= 0 {
		return NewValidationError("queue", "item_timeout", fmt.Errorf("must be positive, got %v", q.ItemTimeout))
	}
	if q.GracefulShutdownTimeout <= 0 {
		return NewValidationError("queue", "graceful_shutdown_timeout", fmt.Errorf("must be positive, got %v", q.GracefulShutdownTimeout))
	}
	if q.StuckThreshold <= 0 {
		return NewValidationError("queue", "stuck_threshold", fmt.Errorf("must be positive, got %v", q.StuckThreshold))
	}
	if q.StuckScanInterval <= 0 {
		return NewValidationError("queue", "stuck_scan_interval", fmt.Errorf("must be positive, got %v", q.StuckScanInterval))
	}
	if q.MaxAttempts < 1 {
		return NewValidationError("queue", "max_attempts", fmt.Errorf("must be at least 1, got %d", q.MaxAttempts))
	}
	return nil
}

func (v *Validator) validateScrapers() error {
	s := v.cfg.Scrapers
	if s == nil {
		return fmt.Errorf("scrapers configuration is nil")
	}
	hosts := map[string]ScraperHostConfig{
		"profile":     s.Profile,
		"listing":     s.Listing,
		"detail":      s.Detail,
		"similar":     s.Similar,
		"bulk_reels":  s.BulkReels,
		"transcripts": s.Transcripts,
	}
	for name, h := range hosts {
		if h.Host == "" {
			return NewValidationError("scrapers."+name, "host", fmt.Errorf("required"))
		}
		if h.APIKeyEnv == "" {
			return NewValidationError("scrapers."+name, "api_key_env", fmt.Errorf("required"))
		}
		if os.Getenv(h.APIKeyEnv) == "" {
			return NewValidationError("scrapers."+name, "api_key_env", fmt.Errorf("environment variable %s is not set", h.APIKeyEnv))
		}
		if h.RatePerSecond < 0 {
			return NewValidationError("scrapers."+name, "rate_per_second", fmt.Errorf("must be non-negative"))
		}
	}
	return nil
}

func (v *Validator) validateLLM() error {
	l := v.cfg.LLM
	if l == nil {
		return fmt.Errorf("llm configuration is nil")
	}
	if l.APIKeyEnv == "" {
		return NewValidationError("llm", "api_key_env", fmt.Errorf("required"))
	}
	if os.Getenv(l.APIKeyEnv) == "" {
		return NewValidationError("llm", "api_key_env", fmt.Errorf("environment variable %s is not set", l.APIKeyEnv))
	}
	if l.Model == "" {
		return NewValidationError("llm", "model", fmt.Errorf("required"))
	}
	if l.Temperature < 0 || l.Temperature > 2 {
		return NewValidationError("llm", "temperature", fmt.Errorf("must be between 0 and 2, got %v", l.Temperature))
	}
	return nil
}

func (v *Validator) validateStorage() error {
	st := v.cfg.Storage
	if st == nil {
		return fmt.Errorf("storage configuration is nil")
	}
	if st.DatabaseURLEnv == "" {
		return NewValidationError("storage", "database_url_env", fmt.Errorf("required"))
	}
	if os.Getenv(st.DatabaseURLEnv) == "" {
		return NewValidationError("storage", "database_url_env", fmt.Errorf("environment variable %s is not set", st.DatabaseURLEnv))
	}
	if st.KeepLocalCSVShadow && st.CSVShadowDir == "" {
		return NewValidationError("storage", "csv_shadow_dir", fmt.Errorf("required when keep_local_csv_shadow is enabled"))
	}
	if st.UploadImagesToStore {
		if st.ProfileImagesBucket == "" {
			return NewValidationError("storage", "profile_images_bucket", fmt.Errorf("required when upload_images_to_store is enabled"))
		}
		if st.ContentThumbnailBucket == "" {
			return NewValidationError("storage", "content_thumbnail_bucket", fmt.Errorf("required when upload_images_to_store is enabled"))
		}
	}
	if st.BatchSize < 0 {
		return NewValidationError("storage", "batch_size", fmt.Errorf("must be non-negative"))
	}
	if st.MaxRetries < 0 {
		return NewValidationError("storage", "max_retries", fmt.Errorf("must be non-negative"))
	}
	return nil
}

func (v *Validator) validateViral() error {
	vc := v.cfg.Viral
	if vc == nil {
		return fmt.Errorf("viral configuration is nil")
	}
	if vc.PrimaryTranscriptTarget < 1 {
		return NewValidationError("viral", "primary_transcript_target", fmt.Errorf("must be at least 1"))
	}
	if vc.PrimaryMaxAttempts < vc.PrimaryTranscriptTarget {
		return NewValidationError("viral", "primary_max_attempts", fmt.Errorf("must be >= primary_transcript_target"))
	}
	if vc.CompetitorTranscriptTarget < 1 {
		return NewValidationError("viral", "competitor_transcript_target", fmt.Errorf("must be at least 1"))
	}
	if vc.CompetitorMaxAttempts < vc.CompetitorTranscriptTarget {
		return NewValidationError("viral", "competitor_max_attempts", fmt.Errorf("must be >= competitor_transcript_target"))
	}
	if vc.RecurringInterval <= 0 {
		return NewValidationError("viral", "recurring_interval", fmt.Errorf("must be positive"))
	}
	if vc.PollInterval <= 0 {
		return NewValidationError("viral", "poll_interval", fmt.Errorf("must be positive"))
	}
	if vc.HooksGenerated < 1 {
		return NewValidationError("viral", "hooks_generated", fmt.Errorf("must be at least 1"))
	}
	if vc.TopOutlierReels < 1 {
		return NewValidationError("viral", "top_outlier_reels", fmt.Errorf("must be at least 1"))
	}
	return nil
}

func (v *Validator) validateDiscovery() error {
	d := v.cfg.Discovery
	if d == nil {
		return fmt.Errorf("discovery configuration is nil")
	}
	if d.MaxRounds < 1 {
		return NewValidationError("discovery", "max_rounds", fmt.Errorf("must be at least 1"))
	}
	if d.MaxAccountsToQueue < 1 {
		return NewValidationError("discovery", "max_accounts_to_queue", fmt.Errorf("must be at least 1"))
	}
	if d.ProfilesPerRound < 1 {
		return NewValidationError("discovery", "profiles_per_round", fmt.Errorf("must be at least 1"))
	}
	if d.MinFollowerFloor < 0 {
		return NewValidationError("discovery", "min_follower_floor", fmt.Errorf("must be non-negative"))
	}
	return nil
}

func (v *Validator) validateDefaults() error {
	d := v.cfg.Defaults
	if d == nil {
		return nil
	}
	if d.DetailFetchBatchMin < 1 {
		return NewValidationError("defaults", "detail_fetch_batch_min", fmt.Errorf("must be at least 1"))
	}
	if d.DetailFetchBatchMax < d.DetailFetchBatchMin {
		return NewValidationError("defaults", "detail_fetch_batch_max", fmt.Errorf("must be >= detail_fetch_batch_min"))
	}
	if d.DetailFetchBatchStart < d.DetailFetchBatchMin || d.DetailFetchBatchStart > d.DetailFetchBatchMax {
		return NewValidationError("defaults", "detail_fetch_batch_start", fmt.Errorf("must be within [min, max]"))
	}
	if d.AdapterMaxRetries < 1 {
		return NewValidationError("defaults", "adapter_max_retries", fmt.Errorf("must be at least 1"))
	}
	if d.MaxPaginationPages < 1 {
		return NewValidationError("defaults", "max_pagination_pages", fmt.Errorf("must be at least 1"))
	}
	if d.SimilarProfilesSemaphore < 1 {
		return NewValidationError("defaults", "similar_profiles_semaphore", fmt.Errorf("must be at least 1"))
	}
	if d.CategorizeConcurrency < 1 {
		return NewValidationError("defaults", "categorize_concurrency", fmt.Errorf("must be at least 1"))
	}
	return nil
}

func (v *Validator) validateRetention() error {
	r := v.cfg.Retention
	if r == nil {
		return nil
	}
	if r.SimilarProfilesCacheTTL <= 0 {
		return NewValidationError("retention", "similar_profiles_cache_ttl", fmt.Errorf("must be positive"))
	}
	if r.DiscoverySessionRetention <= 0 {
		return NewValidationError("retention", "discovery_session_retention", fmt.Errorf("must be positive"))
	}
	if r.CleanupInterval <= 0 {
		return NewValidationError("retention", "cleanup_interval", fmt.Errorf("must be positive"))
	}
	return nil
}
