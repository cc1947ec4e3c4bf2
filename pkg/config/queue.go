package config

import "time"

// QueueConfig contains the two-level priority queue and worker pool
// configuration. These values control how QueueItems are polled,
// claimed, and processed.
type QueueConfig struct {
	// MaxConcurrentHigh is the maximum number of HIGH-priority items
	// processed concurrently by this process.
	MaxConcurrentHigh int `yaml:"max_concurrent_high"`

	// MaxConcurrentLow is the maximum number of LOW-priority items
	// processed concurrently by this process.
	MaxConcurrentLow int `yaml:"max_concurrent_low"`

	// PollInterval is the base interval for checking pending items.
	PollInterval time.Duration `yaml:"poll_interval"`

	// PollIntervalJitter is the random jitter added to PollInterval.
	PollIntervalJitter time.Duration `yaml:"poll_interval_jitter"`

	// ItemTimeout bounds how long a single claimed item may run before
	// the worker abandons it and marks it FAILED.
	ItemTimeout time.Duration `yaml:"item_timeout"`

	// GracefulShutdownTimeout is the max time to wait for active items
	// to complete during shutdown.
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout"`

	// StuckThreshold is how long a PROCESSING item can go without progress
	// before it is eligible to be reclaimed.
	StuckThreshold time.Duration `yaml:"stuck_threshold"`

	// StuckScanInterval is how often the stuck-item recovery scan runs.
	StuckScanInterval time.Duration `yaml:"stuck_scan_interval"`

	// MaxAttempts is the per-item retry ceiling before FAILED is terminal.
	MaxAttempts int `yaml:"max_attempts"`
}

// DefaultQueueConfig returns the built-in queue defaults.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		MaxConcurrentHigh:       3,
		MaxConcurrentLow:        2,
		PollInterval:            1 * time.Second,
		PollIntervalJitter:      250 * time.Millisecond,
		ItemTimeout:             10 * time.Minute,
		GracefulShutdownTimeout: 2 * time.Minute,
		StuckThreshold:          1 * time.Minute,
		StuckScanInterval:       30 * time.Second,
		MaxAttempts:             3,
	}
}
