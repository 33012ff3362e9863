// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides the key-value persistence adapter.
package store

import "context"

// KV is the persistence contract consumed by the repository and user store.
// Values are opaque strings; callers own serialization.
type KV interface {
	// Get returns the value for key. The second result is false when the
	// key is absent; absence is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
}

// StoreError represents a storage-layer fault.
// Use errors.Is(err, target) with the sentinel values below.
type StoreError struct {
	Op      string // "get", "set", "delete", "open"
	Key     string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	msg := "store " + e.Op
	if e.Key != "" {
		msg += " " + e.Key
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *StoreError) Unwrap() error {
	return e.Err
}
