package config

import "dario.cat/mergo"

// mergeQueueConfig merges user-supplied queue settings onto the built-in
// defaults, non-zero user values taking precedence.
func mergeQueueConfig(user *QueueConfig) (*QueueConfig, error) {
	cfg := DefaultQueueConfig()
	if user == nil {
		return cfg, nil
	}
	if err := mergo.Merge(cfg, user, mergo.WithOverride); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeDefaults merges user-supplied system defaults onto the built-in ones.
func mergeDefaults(user *Defaults) (*Defaults, error) {
	cfg := DefaultDefaults()
	if user == nil {
		return cfg, nil
	}
	if err := mergo.Merge(cfg, user, mergo.WithOverride); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeRetention merges user-supplied retention settings onto the built-in ones.
func mergeRetention(user *RetentionConfig) (*RetentionConfig, error) {
	cfg := DefaultRetentionConfig()
	if user == nil {
		return cfg, nil
	}
	if err := mergo.Merge(cfg, user, mergo.WithOverride); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeViral merges user-supplied viral workflow settings onto the built-in ones.
func mergeViral(user *ViralConfig) (*ViralConfig, error) {
	cfg := DefaultViralConfig()
	if user == nil {
		return cfg, nil
	}
	if err := mergo.Merge(cfg, user, mergo.WithOverride); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeDiscovery merges user-supplied discovery settings onto the built-in ones.
func mergeDiscovery(user *DiscoveryConfig) (*DiscoveryConfig, error) {
	cfg := DefaultDiscoveryConfig()
	if user == nil {
		return cfg, nil
	}
	if err := mergo.Merge(cfg, user, mergo.WithOverride); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Storage, Scrapers and LLM have no sane built-in defaults (they carry
// required credentials and hostnames), so the user's YAML section is used
// verbatim; validation below is responsible for catching missing fields.
