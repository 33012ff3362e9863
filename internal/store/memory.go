// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides the key-value persistence adapter.
package store

import (
	"context"
	"sync"
)

// =============================================================================
// IN-MEMORY KV
// =============================================================================

// MemoryKV is a map-backed store for tests and ephemeral runs.
// It is safe for concurrent use.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string

	// FailGets / FailSets force faults for failure-path tests.
	FailGets bool
	FailSets bool
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

// Get returns the value for key.
func (s *MemoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if s.FailGets {
		return "", false, &StoreError{Op: "get", Key: key, Message: "forced failure"}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return value, ok, nil
}

// Set writes value under key.
func (s *MemoryKV) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.FailSets {
		return &StoreError{Op: "set", Key: key, Message: "forced failure"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Delete removes key.
func (s *MemoryKV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryKV) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
