// Package config provides configuration management for QuantumGrid.
//
// The config file carries identity and wiring: who the registry owner is,
// where the database lives, and where the server listens. Registry state
// itself lives in the database and can be reset without touching the config.
//
// Config file locations (priority order):
//  1. $QUANTUMGRID_CONFIG
//  2. ./quantumgrid.yaml
//  3. ~/.config/quantumgrid/config.yaml
//  4. /etc/quantumgrid/config.yaml
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig holds the SQLite settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// Config is the full server configuration
type Config struct {
	Version  int            `yaml:"version"`
	Addr     string         `yaml:"addr"`
	Database DatabaseConfig `yaml:"database"`

	// Owner is the only principal allowed to mutate the registries.
	Owner string `yaml:"owner"`

	// SeedPath optionally points to a YAML seed file applied on first start.
	SeedPath string `yaml:"seed_path,omitempty"`

	LogLevel string `yaml:"log_level,omitempty"`
}

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		Addr:     ":3000",
		Database: DatabaseConfig{Path: "./quantumgrid.db"},
		Owner:    "deployer",
		LogLevel: "info",
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./quantumgrid.db"
	}
	if c.Owner == "" {
		c.Owner = "deployer"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
