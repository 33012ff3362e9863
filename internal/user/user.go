// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package user stores per-user profiles and preferences.
package user

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jeranaias/polychat/internal/provider"
	"github.com/jeranaias/polychat/internal/store"
)

// Preferences holds the user's provider settings.
type Preferences struct {
	// APIKeys maps provider id to the stored credential.
	APIKeys map[provider.Kind]string `json:"apiKeys"`

	// LastUsedProvider and LastUsedModel seed the selection for new
	// sessions.
	LastUsedProvider string `json:"lastUsedProvider,omitempty"`
	LastUsedModel    string `json:"lastUsedModel,omitempty"`
}

// User is one stored profile.
type User struct {
	ID          string      `json:"id"`
	Name        string      `json:"name,omitempty"`
	Preferences Preferences `json:"preferences"`
}

// APIKey returns the stored credential for a provider, or "".
func (u *User) APIKey(kind provider.Kind) string {
	return u.Preferences.APIKeys[kind]
}

// SetAPIKey stores a credential for a provider. An empty key removes the
// entry.
func (u *User) SetAPIKey(kind provider.Kind, key string) {
	if u.Preferences.APIKeys == nil {
		u.Preferences.APIKeys = make(map[provider.Kind]string)
	}
	if key == "" {
		delete(u.Preferences.APIKeys, kind)
		return
	}
	u.Preferences.APIKeys[kind] = key
}

// Store reads and writes profiles over the key-value store.
type Store struct {
	kv store.KV
}

// NewStore creates a profile store.
func NewStore(kv store.KV) *Store {
	return &Store{kv: kv}
}

func userKey(id string) string {
	return "user:" + id
}

// Get loads a profile. A missing record comes back as a fresh profile with
// the given id, so callers never special-case first use.
func (s *Store) Get(ctx context.Context, id string) (*User, error) {
	raw, ok, err := s.kv.Get(ctx, userKey(id))
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	if !ok {
		return &User{ID: id, Preferences: Preferences{APIKeys: make(map[provider.Kind]string)}}, nil
	}

	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("corrupt user record %s: %w", id, err)
	}
	if u.Preferences.APIKeys == nil {
		u.Preferences.APIKeys = make(map[provider.Kind]string)
	}
	return &u, nil
}

// Save persists a profile.
func (s *Store) Save(ctx context.Context, u *User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user %s: %w", u.ID, err)
	}
	if err := s.kv.Set(ctx, userKey(u.ID), string(data)); err != nil {
		return fmt.Errorf("save user %s: %w", u.ID, err)
	}
	return nil
}

// Delete removes a profile.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, userKey(id))
}
