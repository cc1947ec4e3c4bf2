package config

// Config is the umbrella configuration object produced by Initialize and
// threaded through every component of the pipeline.
type Config struct {
	configDir string

	Defaults  *Defaults
	Queue     *QueueConfig
	Scrapers  *ScraperConfig
	LLM       *LLMConfig
	Storage   *StorageConfig
	Viral     *ViralConfig
	Discovery *DiscoveryConfig
	Retention *RetentionConfig
}

// Initialize is defined in loader.go.

// ConfigStats summarises loaded configuration for startup logging.
type ConfigStats struct {
	ScraperHosts int
	MaxConcurrentQueue int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() ConfigStats {
	hosts := 0
	for _, h := range []ScraperHostConfig{
		c.Scrapers.Profile, c.Scrapers.Listing, c.Scrapers.Detail,
		c.Scrapers.Similar, c.Scrapers.BulkReels, c.Scrapers.Transcripts,
	} {
		if h.Host != "" {
			hosts++
		}
	}
	return ConfigStats{
		ScraperHosts:       hosts,
		MaxConcurrentQueue: c.Queue.MaxConcurrentHigh + c.Queue.MaxConcurrentLow,
	}
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}
