package storecheck

import (
	"github.com/hazyhaar/storecheck/storecheck/internal/config"
)

// Config is the top-level storecheck configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// TimeoutConfig holds per-operation timeouts.
type TimeoutConfig = config.TimeoutConfig

// ToleranceConfig bounds critical and warning signal counts.
type ToleranceConfig = config.ToleranceConfig

// ChecksConfig tunes the individual checks.
type ChecksConfig = config.ChecksConfig

// SinkConfig defines an output backend.
type SinkConfig = config.SinkConfig

// LoadConfigFile reads, defaults and validates a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return config.Default()
}
