// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package repo implements the session repository: the single source of
// truth for one user's chat sessions, backed by the key-value store.
//
// # Key Types
//
//   - Repository: CRUD plus message append over per-user session lists
//   - Partial: field-wise update applied by Update
//
// # Semantics
//
// All operations go through the store and target one user id. Reads fail
// soft (a corrupt or unreadable list degrades to empty); mutating faults
// are logged and surface as a nil result, never as a panic or an error the
// UI has to handle. Duplicate appends within the reconciliation window are
// silently ignored, which makes overlapping optimistic-then-authoritative
// writes idempotent.
//
// Concurrent writers for the same user are serialized by a per-user mutex;
// operations on different users proceed independently.
package repo
