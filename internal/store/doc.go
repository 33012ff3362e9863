// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides the key-value persistence adapter backing the
// session repository and user records.
//
// # Key Types
//
//   - KV: the get/set/delete contract the rest of the core depends on
//   - FileKV: one file per key with atomic writes, under a base directory
//   - SQLiteKV: single-table SQLite backend (modernc.org/sqlite, no cgo)
//   - MemoryKV: map-backed store for tests and ephemeral runs
//
// # Usage
//
// Open a backend and hand it to the repository:
//
//	kv, err := store.OpenFileKV(dir)
//	repo := repo.New(kv, repo.Options{})
//
// Values are opaque strings; the repository owns JSON (de)serialization,
// including timestamp hydration on every read path.
package store
