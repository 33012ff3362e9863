// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package repo implements the session repository.
package repo

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/polychat/internal/chat"
	"github.com/jeranaias/polychat/internal/store"
)

// =============================================================================
// REPOSITORY
// =============================================================================

// Options holds repository tunables. Zero values fall back to the
// reconciler defaults.
type Options struct {
	// DuplicateWindow is the near-duplicate suppression window.
	DuplicateWindow time.Duration

	// TitleMaxLen and PreviewMaxLen are rune budgets for derived metadata.
	TitleMaxLen   int
	PreviewMaxLen int

	// Logger receives storage-fault reports. Defaults to log.Default().
	Logger *log.Logger
}

// Repository owns the canonical session list for each user, stored as JSON
// under "sessions:{userId}".
type Repository struct {
	kv   store.KV
	opts Options

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// New creates a repository over the given store.
func New(kv store.KV, opts Options) *Repository {
	if opts.DuplicateWindow <= 0 {
		opts.DuplicateWindow = chat.DuplicateWindow
	}
	if opts.TitleMaxLen <= 0 {
		opts.TitleMaxLen = chat.TitleMaxLen
	}
	if opts.PreviewMaxLen <= 0 {
		opts.PreviewMaxLen = chat.PreviewMaxLen
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Repository{
		kv:        kv,
		opts:      opts,
		userLocks: make(map[string]*sync.Mutex),
	}
}

// SetTunables adjusts the reconciliation tunables at runtime, used when the
// config file changes under a running process. Zero or negative values keep
// the current setting.
func (r *Repository) SetTunables(window time.Duration, titleMax, previewMax int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if window > 0 {
		r.opts.DuplicateWindow = window
	}
	if titleMax > 0 {
		r.opts.TitleMaxLen = titleMax
	}
	if previewMax > 0 {
		r.opts.PreviewMaxLen = previewMax
	}
}

// tunables snapshots the mutable settings so one operation sees a
// consistent set even if SetTunables runs concurrently.
func (r *Repository) tunables() (window time.Duration, titleMax, previewMax int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts.DuplicateWindow, r.opts.TitleMaxLen, r.opts.PreviewMaxLen
}

// lockFor returns the mutex serializing read-modify-write sequences for
// one user's list. Two mutations racing on the same store key would
// otherwise lose updates.
func (r *Repository) lockFor(userID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	mu, ok := r.userLocks[userID]
	if !ok {
		mu = &sync.Mutex{}
		r.userLocks[userID] = mu
	}
	return mu
}

func sessionsKey(userID string) string {
	return "sessions:" + userID
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// List returns all sessions for a user, most recent first. Storage read or
// parse failures degrade to an empty list: loss of cached history is
// recoverable, a fresh session can always be created.
func (r *Repository) List(ctx context.Context, userID string) []*chat.Session {
	return r.load(ctx, userID)
}

// Get returns the session with the given id, or nil when not found.
// Not-found is a normal branch for callers, not an error.
func (r *Repository) Get(ctx context.Context, userID, sessionID string) *chat.Session {
	for _, s := range r.load(ctx, userID) {
		if s.ID == sessionID {
			return s
		}
	}
	return nil
}

// load reads and hydrates the stored list. Every read path re-parses
// timestamps from their serialized RFC 3339 form via encoding/json.
func (r *Repository) load(ctx context.Context, userID string) []*chat.Session {
	raw, ok, err := r.kv.Get(ctx, sessionsKey(userID))
	if err != nil {
		r.opts.Logger.Printf("repo: read failed for user %s: %v", userID, err)
		return []*chat.Session{}
	}
	if !ok {
		return []*chat.Session{}
	}

	var sessions []*chat.Session
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		r.opts.Logger.Printf("repo: corrupt session list for user %s: %v", userID, err)
		return []*chat.Session{}
	}
	return sessions
}

// save persists the full list for a user.
func (r *Repository) save(ctx context.Context, userID string, sessions []*chat.Session) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, sessionsKey(userID), string(data))
}

// =============================================================================
// CREATE
// =============================================================================

// Create makes a new session with default sentinels and a seeded welcome
// message, inserted at the head of the list (most-recent-first is an
// invariant of the stored list). The created session is returned even when
// persistence fails; the fault is logged so the caller can retry later.
func (r *Repository) Create(ctx context.Context, userID, provider, model string) *chat.Session {
	mu := r.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	session := chat.NewSession(provider, model)

	sessions := append([]*chat.Session{session}, r.load(ctx, userID)...)
	if err := r.save(ctx, userID, sessions); err != nil {
		r.opts.Logger.Printf("repo: create persisted in memory only for user %s: %v", userID, err)
	}
	return session.Clone()
}

// =============================================================================
// UPDATE
// =============================================================================

// Partial is a field-wise session update. Nil pointers leave the field
// untouched; a non-nil Messages slice is merged, never replaced wholesale.
type Partial struct {
	Title    *string
	Preview  *string
	Provider *string
	Model    *string
	Messages []chat.Message
}

// Update applies a partial update to one session. Messages are merged with
// duplicate suppression and re-sorted; title and preview are re-derived per
// the reconciler rules unless the partial explicitly overrides them. The
// full updated list is persisted. Returns nil on not-found or storage fault.
func (r *Repository) Update(ctx context.Context, userID, sessionID string, partial Partial) *chat.Session {
	mu := r.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	window, titleMax, previewMax := r.tunables()

	sessions := r.load(ctx, userID)
	var updated *chat.Session
	for _, s := range sessions {
		if s.ID != sessionID {
			continue
		}

		if partial.Messages != nil {
			s.Messages = chat.MergeMessages(s.Messages, partial.Messages, window)
		}
		if partial.Provider != nil {
			s.Provider = *partial.Provider
		}
		if partial.Model != nil {
			s.Model = *partial.Model
		}

		if partial.Title != nil {
			s.Title = *partial.Title
		} else if s.HasDefaultTitle() {
			if first := s.FirstUserMessage(); first != nil {
				s.Title = chat.Truncate(first.Content, titleMax)
			}
		}

		if partial.Preview != nil {
			s.Preview = *partial.Preview
		} else if last := s.LastUserMessage(); last != nil {
			s.Preview = chat.Truncate(last.Content, previewMax)
		}

		s.Timestamp = time.Now()
		updated = s
		break
	}

	if updated == nil {
		return nil
	}
	if err := r.save(ctx, userID, sessions); err != nil {
		r.opts.Logger.Printf("repo: update not persisted for user %s session %s: %v", userID, sessionID, err)
		return nil
	}
	return updated.Clone()
}

// =============================================================================
// DELETE
// =============================================================================

// Delete removes a session by id and reports whether anything was removed.
// A missing id is not an error. Storage faults are logged and reported as
// "nothing removed".
func (r *Repository) Delete(ctx context.Context, userID, sessionID string) bool {
	mu := r.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	sessions := r.load(ctx, userID)
	kept := sessions[:0]
	removed := false
	for _, s := range sessions {
		if s.ID == sessionID {
			removed = true
			continue
		}
		kept = append(kept, s)
	}
	if !removed {
		return false
	}

	if err := r.save(ctx, userID, kept); err != nil {
		r.opts.Logger.Printf("repo: delete not persisted for user %s session %s: %v", userID, sessionID, err)
		return false
	}
	return true
}

// =============================================================================
// APPEND
// =============================================================================

// AppendMessage assigns an id to the message and appends it to the session.
// A near-duplicate of an existing message is silently ignored and the
// session returned unchanged; this idempotence is what makes overlapping
// optimistic and persisted writes safe. User-authored appends re-derive the
// preview always and the title while it is still the default sentinel.
// Returns nil on not-found or storage fault.
func (r *Repository) AppendMessage(ctx context.Context, userID, sessionID string, sender chat.Sender, content string, timestamp time.Time) *chat.Session {
	mu := r.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	window, titleMax, previewMax := r.tunables()

	sessions := r.load(ctx, userID)
	var target *chat.Session
	for _, s := range sessions {
		if s.ID == sessionID {
			target = s
			break
		}
	}
	if target == nil {
		return nil
	}

	msg := chat.Message{
		ID:        chat.GenerateMessageID(sender),
		Content:   content,
		Sender:    sender,
		Timestamp: timestamp,
	}

	if chat.IsDuplicate(target.Messages, msg, window) {
		return target.Clone()
	}

	target.Messages = append(target.Messages, msg)
	chat.SortMessages(target.Messages)
	target.Timestamp = time.Now()

	if sender == chat.SenderUser {
		if target.HasDefaultTitle() {
			target.Title = chat.Truncate(content, titleMax)
		}
		target.Preview = chat.Truncate(content, previewMax)
	}

	if err := r.save(ctx, userID, sessions); err != nil {
		r.opts.Logger.Printf("repo: append not persisted for user %s session %s: %v", userID, sessionID, err)
		return nil
	}
	return target.Clone()
}

// =============================================================================
// SEARCH
// =============================================================================

// Search returns sessions whose title, preview, or any message content
// contains the query, case-insensitive. An empty query returns everything.
func (r *Repository) Search(ctx context.Context, userID, query string) []*chat.Session {
	sessions := r.load(ctx, userID)
	if query == "" {
		return sessions
	}

	var results []*chat.Session
	for _, s := range sessions {
		if containsFold(s.Title, query) || containsFold(s.Preview, query) {
			results = append(results, s)
			continue
		}
		for _, msg := range s.Messages {
			if containsFold(msg.Content, query) {
				results = append(results, s)
				break
			}
		}
	}
	return results
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Seed stores the given sessions for a user only when no list exists yet.
// Used by the controller to bootstrap example sessions for new users.
func (r *Repository) Seed(ctx context.Context, userID string, sessions []*chat.Session) {
	mu := r.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	if _, ok, err := r.kv.Get(ctx, sessionsKey(userID)); err != nil || ok {
		return
	}
	if err := r.save(ctx, userID, sessions); err != nil {
		r.opts.Logger.Printf("repo: seed not persisted for user %s: %v", userID, err)
	}
}
