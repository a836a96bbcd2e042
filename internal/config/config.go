package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// configWithCacheSizeDefault is used for proper default handling of
// maximumMessagesCacheSize: 0 is a legitimate explicit value ("disable the
// cache"), not an absent one, so it can't be defaulted by a plain zero-value
// check the way LogLevel and RetryIntervalMillis are. MaximumMessagesCacheSizePtr
// shadows the embedded Config field's JSON tag and is what actually gets
// populated by Unmarshal; Config.MaximumMessagesCacheSize is filled in by hand
// below once presence has been determined.
type configWithCacheSizeDefault struct {
	Config
	MaximumMessagesCacheSizePtr *int `json:"maximumMessagesCacheSize"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw configWithCacheSizeDefault
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg := &raw.Config

	if raw.MaximumMessagesCacheSizePtr != nil {
		cfg.MaximumMessagesCacheSize = *raw.MaximumMessagesCacheSizePtr
	} else {
		cfg.MaximumMessagesCacheSize = DefaultMaximumMessagesCacheSize
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyDefaults sets default values for unset fields. All boolean flags in
// this config default to false, so plain zero-value defaulting is enough —
// unlike the teacher's RetryEnabled (defaults true), none of ours need the
// raw-pointer two-pass trick to distinguish "absent" from "false".
// MaximumMessagesCacheSize needs that trick instead (0 is a legitimate
// explicit value), so Load resolves it above before applyDefaults ever runs.
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.RetryIntervalMillis == 0 {
		cfg.RetryIntervalMillis = DefaultRetryIntervalMillis
	}
}

// validate checks the configuration for errors.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("logLevel must be one of: debug, info, warn, error")
	}

	if cfg.MaximumMessagesCacheSize < 0 {
		return fmt.Errorf("maximumMessagesCacheSize must be non-negative")
	}

	if cfg.RequestMessageCountThreshold < 0 {
		return fmt.Errorf("requestMessageCountThreshold must be non-negative")
	}

	if cfg.PresenceHeartbeatValue < 0 {
		return fmt.Errorf("presenceHeartbeatValue must be non-negative")
	}

	if cfg.RetryIntervalMillis < 0 {
		return fmt.Errorf("retryIntervalMillis must be non-negative")
	}

	return nil
}
