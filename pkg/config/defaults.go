package config

// Defaults contains system-wide default values used when specific
// components don't specify their own.
type Defaults struct {
	// DetailFetchBatchStart/Min/Max bound the adaptive concurrency window
	// used by the fetch-pipeline's detail fetcher.
	DetailFetchBatchStart int `yaml:"detail_fetch_batch_start,omitempty"`
	DetailFetchBatchMin   int `yaml:"detail_fetch_batch_min,omitempty"`
	DetailFetchBatchMax   int `yaml:"detail_fetch_batch_max,omitempty"`

	// AdapterMaxRetries/BaseBackoff/CapBackoff parameterise the common
	// retry helper shared by all external fetch adapters.
	AdapterMaxRetries  int `yaml:"adapter_max_retries,omitempty"`

	// MaxPaginationPages is the hard cap on listing pagination.
	MaxPaginationPages int `yaml:"max_pagination_pages,omitempty"`

	// SimilarProfilesSemaphore bounds concurrent similar-profile lookups.
	SimilarProfilesSemaphore int `yaml:"similar_profiles_semaphore,omitempty"`

	// CategorizeConcurrency bounds concurrent LLM categorisation calls per batch.
	CategorizeConcurrency int `yaml:"categorize_concurrency,omitempty"`
}

// DefaultDefaults returns the built-in system-wide defaults.
func DefaultDefaults() *Defaults {
	return &Defaults{
		DetailFetchBatchStart:    3,
		DetailFetchBatchMin:      1,
		DetailFetchBatchMax:      8,
		AdapterMaxRetries:        3,
		MaxPaginationPages:       20,
		SimilarProfilesSemaphore: 3,
		CategorizeConcurrency:    20,
	}
}
