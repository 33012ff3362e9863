// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// polychat.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/polychat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete polychat configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Store configuration
	Store StoreConfig `toml:"store" json:"store"`

	// Chat reconciliation configuration
	Chat ChatConfig `toml:"chat" json:"chat"`

	// Provider configuration
	Provider ProviderConfig `toml:"provider" json:"provider"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// StoreConfig selects and parameterizes the persistence backend.
type StoreConfig struct {
	// Backend is the store implementation: "file", "sqlite", or "memory".
	Backend string `toml:"backend" json:"backend"`
	// Dir is the data directory (empty = ~/.polychat/store).
	Dir string `toml:"dir" json:"dir"`
}

// ChatConfig holds the message reconciliation tunables.
type ChatConfig struct {
	// DuplicateWindowSecs is the near-duplicate suppression window.
	// Clamped to 1-60 seconds.
	DuplicateWindowSecs int `toml:"duplicate_window_secs" json:"duplicate_window_secs"`
	// TitleMaxLen is the rune budget for derived titles. Clamped to 10-200.
	TitleMaxLen int `toml:"title_max_len" json:"title_max_len"`
	// PreviewMaxLen is the rune budget for derived previews. Clamped to 10-500.
	PreviewMaxLen int `toml:"preview_max_len" json:"preview_max_len"`
}

// DuplicateWindow returns the suppression window as a duration.
func (c ChatConfig) DuplicateWindow() time.Duration {
	return time.Duration(c.DuplicateWindowSecs) * time.Second
}

// ProviderConfig holds provider call settings.
type ProviderConfig struct {
	// TimeoutSecs bounds one generation call. Clamped to 5-120 seconds.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// DefaultProvider is the provider for new sessions when the user has no
	// last-used preference.
	DefaultProvider string `toml:"default_provider" json:"default_provider"`
	// DefaultModel overrides the provider's built-in default model.
	DefaultModel string `toml:"default_model" json:"default_model"`
}

// Timeout returns the provider timeout as a duration.
func (c ProviderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// UIConfig contains CLI presentation settings.
type UIConfig struct {
	// Color enables styled terminal output.
	Color bool `toml:"color" json:"color"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Store: StoreConfig{
			Backend: "file",
			Dir:     "",
		},

		Chat: ChatConfig{
			DuplicateWindowSecs: 5,
			TitleMaxLen:         30,
			PreviewMaxLen:       60,
		},

		Provider: ProviderConfig{
			TimeoutSecs:     45,
			DefaultProvider: "openai",
			DefaultModel:    "",
		},

		UI: UIConfig{
			Color: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the polychat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".polychat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				return nil, fmt.Errorf("failed to load TOML config: %w", err)
			}
			return finish(cfg), nil
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				return nil, fmt.Errorf("failed to load JSON config: %w", err)
			}
			return finish(cfg), nil
		}
	}

	return finish(cfg), nil
}

// LoadFromPath loads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finish(cfg), nil
}

// finish applies env overrides and clamping in load order.
func finish(cfg *Config) *Config {
	cfg.ApplyEnvOverrides()
	cfg.Clamp()
	return cfg
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Config files are created 0600, owner read/write only.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# polychat configuration file")
	fmt.Fprintln(file, "# Generated by polychat - edit with care")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
// RELIABILITY: Atomic write with fsync prevents data loss on crash.
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// CLAMPING AND VALIDATION
// =============================================================================

// clampInt bounds v to [lo, hi], substituting def when v is unset.
func clampInt(v, def, lo, hi int) int {
	if v == 0 {
		v = def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp forces every tunable into its valid range. A hand-edited file can
// degrade a setting but never break startup.
func (c *Config) Clamp() {
	d := Default()

	c.Chat.DuplicateWindowSecs = clampInt(c.Chat.DuplicateWindowSecs, d.Chat.DuplicateWindowSecs, 1, 60)
	c.Chat.TitleMaxLen = clampInt(c.Chat.TitleMaxLen, d.Chat.TitleMaxLen, 10, 200)
	c.Chat.PreviewMaxLen = clampInt(c.Chat.PreviewMaxLen, d.Chat.PreviewMaxLen, 10, 500)
	c.Provider.TimeoutSecs = clampInt(c.Provider.TimeoutSecs, d.Provider.TimeoutSecs, 5, 120)

	switch strings.ToLower(c.Store.Backend) {
	case "file", "sqlite", "memory":
		c.Store.Backend = strings.ToLower(c.Store.Backend)
	default:
		c.Store.Backend = d.Store.Backend
	}

	if c.Provider.DefaultProvider == "" {
		c.Provider.DefaultProvider = d.Provider.DefaultProvider
	}
	if c.Version == "" {
		c.Version = d.Version
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate reports settings Clamp cannot repair.
func (c *Config) Validate() error {
	switch c.Provider.DefaultProvider {
	case "openai", "gemini", "anthropic":
	default:
		return ValidationError{
			Field:   "provider.default_provider",
			Message: fmt.Sprintf("unknown provider %q, must be one of: openai, gemini, anthropic", c.Provider.DefaultProvider),
		}
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - POLYCHAT_STORE_BACKEND: overrides store.backend
//   - POLYCHAT_STORE_DIR: overrides store.dir
//   - POLYCHAT_PROVIDER: overrides provider.default_provider
//   - POLYCHAT_MODEL: overrides provider.default_model
//   - POLYCHAT_TIMEOUT_SECS: overrides provider.timeout_secs
//   - POLYCHAT_NO_COLOR: set to "1" or "true" to disable styled output
func (c *Config) ApplyEnvOverrides() {
	if backend := os.Getenv("POLYCHAT_STORE_BACKEND"); backend != "" {
		c.Store.Backend = backend
	}
	if dir := os.Getenv("POLYCHAT_STORE_DIR"); dir != "" {
		c.Store.Dir = dir
	}
	if providerID := os.Getenv("POLYCHAT_PROVIDER"); providerID != "" {
		c.Provider.DefaultProvider = providerID
	}
	if model := os.Getenv("POLYCHAT_MODEL"); model != "" {
		c.Provider.DefaultModel = model
	}
	if secs := os.Getenv("POLYCHAT_TIMEOUT_SECS"); secs != "" {
		if n, err := strconv.Atoi(secs); err == nil {
			c.Provider.TimeoutSecs = n
		}
	}
	if noColor := os.Getenv("POLYCHAT_NO_COLOR"); noColor != "" {
		c.UI.Color = !(noColor == "1" || strings.ToLower(noColor) == "true")
	}
}
