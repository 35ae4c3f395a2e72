// Package config provides configuration management for signalwarden.
//
// Config file locations (priority order):
//  1. $SIGNALWARDEN_CONFIG
//  2. ./signalwarden.yaml
//  3. ~/.config/signalwarden/config.yaml
//  4. /etc/signalwarden/config.yaml
//
// A missing config file is not an error; defaults apply.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load finds and loads the config file, or returns defaults if none found.
// The second return value is the path actually used, empty for defaults.
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
	cfg := &Config{
		Announce: AnnounceConfig{Speech: true},
		Prompt:   PromptConfig{Enabled: true},
		Server:   ServerConfig{Enabled: true},
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Database.Path == "" {
		c.Database.Path = "./signalwarden.db"
	}
	if c.Scan.Backend == "" {
		c.Scan.Backend = "auto"
	}
	if c.Scan.Interval == 0 {
		c.Scan.Interval = Duration(10 * time.Second)
	}
	if c.Scan.Timeout == 0 {
		c.Scan.Timeout = Duration(15 * time.Second)
	}
	if c.Scan.SSH.Port == 0 {
		c.Scan.SSH.Port = 22
	}
	if c.Thresholds.SignalJump == 0 {
		c.Thresholds.SignalJump = 20
	}
	if c.Thresholds.CloseProximity == 0 {
		c.Thresholds.CloseProximity = 60
	}
	if c.Prompt.Wait == "" {
		c.Prompt.Wait = "async"
	}
	if c.Prompt.Timeout == 0 {
		c.Prompt.Timeout = Duration(45 * time.Second)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8737"
	}
}
