// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package user stores per-user profiles and preferences: API keys per
// provider and the last provider/model pair the user selected.
//
// Profiles live in the same key-value store as sessions, one JSON record
// per user under "user:{id}". Keys are stored as the user entered them;
// masking happens at display time, never at rest.
package user
