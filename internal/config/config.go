// Package config loads tool configuration for the stillsync CLI and queue
// dispatcher from a YAML file, with sensible defaults when no file exists.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stillpoint/stillsync/internal/merge"
)

// Config holds the device-side settings the core needs: where the local
// store lives, which namespace to use, the dispatcher's retry ceiling, and
// the default resolution policy for ad-hoc conflict resolution.
type Config struct {
	StorePath     string `yaml:"store_path"`
	Namespace     string `yaml:"namespace"`
	RetryCeiling  int    `yaml:"retry_ceiling"`
	DefaultPolicy string `yaml:"default_policy"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		StorePath:     "stillsync.db",
		Namespace:     "stillsync",
		RetryCeiling:  5,
		DefaultPolicy: string(merge.PolicyLastWriteWins),
	}
}

// Load reads configuration from path, layered over Default. An empty path
// returns Default unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.StorePath == "" {
		return fmt.Errorf("store_path must not be empty")
	}
	if c.Namespace == "" {
		return fmt.Errorf("namespace must not be empty")
	}
	if c.RetryCeiling < 0 {
		return fmt.Errorf("retry_ceiling must not be negative, got %d", c.RetryCeiling)
	}
	if _, err := merge.ParsePolicy(c.DefaultPolicy); err != nil {
		return fmt.Errorf("default_policy: %w", err)
	}
	return nil
}
