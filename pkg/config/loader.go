package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PipelineYAMLConfig represents the complete pipeline.yaml file structure.
type PipelineYAMLConfig struct {
	Scrapers  *ScraperConfig   `yaml:"scrapers"`
	LLM       *LLMConfig       `yaml:"llm"`
	Storage   *StorageConfig   `yaml:"storage"`
	Queue     *QueueConfig     `yaml:"queue"`
	Viral     *ViralConfig     `yaml:"viral"`
	Discovery *DiscoveryConfig `yaml:"discovery"`
	Defaults  *Defaults        `yaml:"defaults"`
	Retention *RetentionConfig `yaml:"retention"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load pipeline.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge built-in defaults with user overrides for sections that have
//     sane defaults (queue, viral, discovery, retention, defaults)
//  5. Use user-supplied sections verbatim for collaborator configuration
//     that has no sane default (scrapers, llm, storage)
//  6. Validate all configuration
//  7. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized",
		"scraper_hosts", stats.ScraperHosts,
		"max_concurrent_queue", stats.MaxConcurrentQueue)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	yamlCfg, err := loader.loadPipelineYAML()
	if err != nil {
		return nil, NewLoadError("pipeline.yaml", err)
	}

	if yamlCfg.Scrapers == nil {
		return nil, fmt.Errorf("%w: scrapers section is required", ErrMissingRequiredField)
	}
	if yamlCfg.LLM == nil {
		return nil, fmt.Errorf("%w: llm section is required", ErrMissingRequiredField)
	}
	if yamlCfg.Storage == nil {
		return nil, fmt.Errorf("%w: storage section is required", ErrMissingRequiredField)
	}

	queueCfg, err := mergeQueueConfig(yamlCfg.Queue)
	if err != nil {
		return nil, fmt.Errorf("failed to merge queue config: %w", err)
	}
	defaultsCfg, err := mergeDefaults(yamlCfg.Defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to merge defaults: %w", err)
	}
	retentionCfg, err := mergeRetention(yamlCfg.Retention)
	if err != nil {
		return nil, fmt.Errorf("failed to merge retention config: %w", err)
	}
	viralCfg, err := mergeViral(yamlCfg.Viral)
	if err != nil {
		return nil, fmt.Errorf("failed to merge viral config: %w", err)
	}
	discoveryCfg, err := mergeDiscovery(yamlCfg.Discovery)
	if err != nil {
		return nil, fmt.Errorf("failed to merge discovery config: %w", err)
	}

	return &Config{
		configDir: configDir,
		Defaults:  defaultsCfg,
		Queue:     queueCfg,
		Scrapers:  yamlCfg.Scrapers,
		LLM:       yamlCfg.LLM,
		Storage:   yamlCfg.Storage,
		Viral:     viralCfg,
		Discovery: discoveryCfg,
		Retention: retentionCfg,
	}, nil
}

func validate(cfg *Config) error {
	return NewValidator(cfg).ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand $VAR / ${VAR} references before parsing, so secrets and
	// per-environment hostnames never need to live in the YAML itself.
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadPipelineYAML() (*PipelineYAMLConfig, error) {
	var cfg PipelineYAMLConfig
	if err := l.loadYAML("pipeline.yaml", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
