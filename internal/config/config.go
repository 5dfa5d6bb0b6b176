// Package config loads CLI settings from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory
// when no --config flag is given.
const DefaultFileName = ".queries.yaml"

// Config holds application configuration.
type Config struct {
	// Database is the path of the SQLite query catalog.
	Database string `yaml:"database,omitempty"`

	// Format is the default output format ("text" or "json").
	Format string `yaml:"format,omitempty"`

	// RejectDualTagged makes validate fail on queries carrying both goal and provide.
	RejectDualTagged bool `yaml:"reject_dual_tagged,omitempty"`

	// CacheSize is the number of decoded queries the catalog keeps in memory.
	// 0 means the store default.
	CacheSize int `yaml:"cache_size,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Database: "queries.db",
		Format:   "text",
	}
}

// Load loads configuration from path, layered over the defaults.
// Returns default config if the file doesn't exist.
func Load(path string) (*Config, error) {
	cfg, err := loadFileRaw(path)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid format %q: must be text or json", c.Format)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", c.CacheSize)
	}
	return nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.Database = overlay.Database
	if result.Database == "" {
		result.Database = base.Database
	}

	result.Format = overlay.Format
	if result.Format == "" {
		result.Format = base.Format
	}

	result.CacheSize = overlay.CacheSize
	if result.CacheSize == 0 {
		result.CacheSize = base.CacheSize
	}

	// Booleans: overlay wins if true, else base
	result.RejectDualTagged = base.RejectDualTagged || overlay.RejectDualTagged

	return result
}
