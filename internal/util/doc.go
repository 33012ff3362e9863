// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for polychat: atomic file
// writes for crash-safe persistence and credential masking for logs.
package util
