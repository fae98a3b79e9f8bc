// Package config loads the provisioning server's TOML configuration.
//
// The config file carries process-level settings only: listen address,
// database location, and where to find stack metadata and blueprint
// documents. Cluster state lives in the database, not here.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ServerConfig is the full server configuration.
type ServerConfig struct {
	Addr            string `toml:"addr"`
	DatabasePath    string `toml:"database_path"`
	StackPath       string `toml:"stack_path"`
	BlueprintDir    string `toml:"blueprint_dir"`
	WatchBlueprints bool   `toml:"watch_blueprints"`
}

// Default returns the configuration used when no config file exists.
func Default() ServerConfig {
	return ServerConfig{
		Addr:         ":8080",
		DatabasePath: "./clusterforge.db",
		StackPath:    "./stack.yaml",
	}
}

// Load reads and validates a TOML config file. Missing fields fall back to
// defaults.
func Load(path string) (ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	cfg.applyDefaults()

	if err := Validate(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func (c *ServerConfig) applyDefaults() {
	defaults := Default()
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = defaults.Addr
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		c.DatabasePath = defaults.DatabasePath
	}
	if strings.TrimSpace(c.StackPath) == "" {
		c.StackPath = defaults.StackPath
	}
}

// Validate checks a configuration for usable values.
func Validate(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("config missing addr")
	}
	if strings.TrimSpace(cfg.DatabasePath) == "" {
		return fmt.Errorf("config missing database_path")
	}
	if strings.TrimSpace(cfg.StackPath) == "" {
		return fmt.Errorf("config missing stack_path")
	}
	if cfg.WatchBlueprints && strings.TrimSpace(cfg.BlueprintDir) == "" {
		return fmt.Errorf("config watch_blueprints requires blueprint_dir")
	}
	return nil
}
