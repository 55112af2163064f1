// Package config provides configuration loading for the ganglion bridge.
//
// Configuration is loaded from:
//  1. ~/.ganglion/config.json (file)
//  2. Environment variables (override file values)
//
// Environment variables:
//   - GANGLION_HUB_URL: the hub websocket URL
//   - GANGLION_API_KEY: the GANGLIONAPIKEY sent during the hub handshake
//   - GANGLION_IDLE_EXIT_SECONDS: idle-exit window, 0 disables it
//   - GANGLION_DEBUG: enables debug-level, text-format logs, which include the
//     stderr of framed apps that exit non-zero
//   - GANGLION_CONFIG_DIR: overrides the config directory (used by tests)
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// AppConfig is one configured application entry, as loaded from disk.
type AppConfig struct {
	Name             string `json:"name"`
	Slug             string `json:"slug"`
	Command          string `json:"command"`
	WorkingDirectory string `json:"working_directory"`
	Terminal         bool   `json:"terminal"`
	Color            string `json:"color"`
}

// Config holds all configuration for the bridge.
type Config struct {
	// HubURL is the websocket URL of the hub to connect to.
	HubURL string `json:"hub_url"`

	// Token is the API authentication token (sent as GANGLIONAPIKEY).
	Token string `json:"token"`

	// Devtools enables the framed-app devtools environment variables.
	Devtools bool `json:"devtools"`

	// IdleExitSeconds is the idle-exit window in seconds; 0 disables it.
	IdleExitSeconds int `json:"idle_exit_seconds"`

	// Debug gates verbose logging; with it on, a framed app's stderr is
	// logged (at debug level) when the app exits non-zero.
	Debug bool `json:"debug"`

	// Apps is the configured app list, converted to an apps.Registry at
	// startup.
	Apps []AppConfig `json:"apps"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		HubURL:          "wss://ganglion.trybotster.com/ws",
		IdleExitSeconds: 0,
		Apps:            nil,
	}
}

// ConfigDir returns the directory configuration is stored in, honoring
// GANGLION_CONFIG_DIR so tests can redirect it.
func ConfigDir() (string, error) {
	if dir := os.Getenv("GANGLION_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".ganglion"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration from file, then applies environment overrides.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if token, err := loadToken(); err == nil && token != "" {
		cfg.Token = token
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if hubURL := os.Getenv("GANGLION_HUB_URL"); hubURL != "" {
		cfg.HubURL = hubURL
	}
	if apiKey := os.Getenv("GANGLION_API_KEY"); apiKey != "" {
		cfg.Token = apiKey
	}
	if idle := os.Getenv("GANGLION_IDLE_EXIT_SECONDS"); idle != "" {
		if n, err := strconv.Atoi(idle); err == nil {
			cfg.IdleExitSeconds = n
		}
	}
	if debug := os.Getenv("GANGLION_DEBUG"); debug != "" {
		cfg.Debug = debug == "1" || debug == "true"
	}
}

// Save writes configuration to the config file.
func (c *Config) Save() error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("could not write config file: %w", err)
	}

	return nil
}

// HasToken returns true if an API token is configured.
func (c *Config) HasToken() bool {
	return c.Token != ""
}

// GetAPIKey returns the API key sent as the GANGLIONAPIKEY header.
func (c *Config) GetAPIKey() string {
	return c.Token
}
