// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// polychat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.polychat/config.toml
//   - ~/.polychat/config.json
//   - Built-in defaults
//
// # Key Types
//
//   - Config: the complete configuration tree
//   - Watcher: filesystem watcher that reloads the config on change
//
// # Usage
//
//	cfg, err := config.Load()
//	window := cfg.Chat.DuplicateWindow()
//
// Out-of-range tunables are clamped rather than rejected, so a hand-edited
// config file can degrade a setting but never prevent startup.
package config
