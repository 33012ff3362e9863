// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller coordinates the session view state.
package controller

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jeranaias/polychat/internal/chat"
	"github.com/jeranaias/polychat/internal/provider"
	"github.com/jeranaias/polychat/internal/repo"
	"github.com/jeranaias/polychat/internal/respond"
	"github.com/jeranaias/polychat/internal/user"
)

// State is the controller lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Sentinel errors for controller operations.
var (
	// ErrNoUser indicates no user has been set.
	ErrNoUser = errors.New("no user set")

	// ErrNoCurrentSession indicates no session is selected.
	ErrNoCurrentSession = errors.New("no current session")

	// ErrBusy indicates a response is already being generated.
	ErrBusy = errors.New("response generation in progress")

	// ErrNotFound indicates the named session does not exist.
	ErrNotFound = errors.New("session not found")
)

// Options holds controller tunables.
type Options struct {
	// Logger receives state transitions and fault reports.
	Logger *log.Logger

	// SeedExamples controls whether brand-new users get the example
	// sessions on first SetUser.
	SeedExamples bool

	// DefaultProvider and DefaultModel apply to new sessions when the user
	// has no last-used preference. Empty DefaultProvider means openai.
	DefaultProvider string
	DefaultModel    string
}

// Controller owns the view state over the repository.
type Controller struct {
	repo  *repo.Repository
	orch  *respond.Orchestrator
	users *user.Store
	opts  Options

	mu       sync.Mutex
	state    State
	userID   string
	profile  *user.User
	sessions []*chat.Session
	current  *chat.Session
	busy     bool
}

// New creates a controller.
func New(r *repo.Repository, orch *respond.Orchestrator, users *user.Store, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Controller{
		repo:  r,
		orch:  orch,
		users: users,
		opts:  opts,
		state: StateUninitialized,
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// SetUser switches the controller to a user, loading their profile and
// session list. Brand-new users are seeded with example sessions exactly
// once; an existing list, even an empty one, is left alone.
func (c *Controller) SetUser(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateLoading
	c.userID = userID
	c.current = nil
	c.busy = false

	profile, err := c.users.Get(ctx, userID)
	if err != nil {
		c.opts.Logger.Printf("controller: profile load failed for %s: %v", userID, err)
		profile = &user.User{ID: userID}
	}
	c.profile = profile

	if c.opts.SeedExamples {
		c.repo.Seed(ctx, userID, ExampleSessions())
	}

	c.sessions = c.repo.List(ctx, userID)
	c.state = StateReady
	return nil
}

// Reset returns the controller to its uninitialized state.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateUninitialized
	c.userID = ""
	c.profile = nil
	c.sessions = nil
	c.current = nil
	c.busy = false
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a response is being generated.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// User returns the active profile, or nil.
func (c *Controller) User() *user.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// =============================================================================
// SESSION ACCESS
// =============================================================================

// Sessions returns the loaded session list, most recent first.
func (c *Controller) Sessions() []*chat.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*chat.Session, len(c.sessions))
	copy(out, c.sessions)
	return out
}

// Current returns the selected session, or nil.
func (c *Controller) Current() *chat.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Select makes the named session current.
func (c *Controller) Select(ctx context.Context, sessionID string) (*chat.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userID == "" {
		return nil, ErrNoUser
	}
	for _, s := range c.sessions {
		if s.ID == sessionID {
			c.current = s
			return s, nil
		}
	}
	return nil, ErrNotFound
}

// NewSession creates a session with the user's last-used provider and model
// and makes it current.
func (c *Controller) NewSession(ctx context.Context) (*chat.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userID == "" {
		return nil, ErrNoUser
	}

	providerID := c.opts.DefaultProvider
	if !provider.Kind(providerID).Valid() {
		providerID = string(provider.KindOpenAI)
	}
	model := c.opts.DefaultModel
	if c.profile != nil {
		if c.profile.Preferences.LastUsedProvider != "" {
			providerID = c.profile.Preferences.LastUsedProvider
			model = c.profile.Preferences.LastUsedModel
		}
	}

	session := c.repo.Create(ctx, c.userID, providerID, model)
	c.refreshLocked(ctx)
	c.current = c.findLocked(session.ID)
	if c.current == nil {
		// Persistence failed; keep the in-memory session usable anyway.
		c.sessions = append([]*chat.Session{session}, c.sessions...)
		c.current = session
	}
	return c.current, nil
}

// Delete removes a session and reports whether anything was removed. When
// the current session is deleted the pointer clears.
func (c *Controller) Delete(ctx context.Context, sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userID == "" {
		return false
	}
	removed := c.repo.Delete(ctx, c.userID, sessionID)
	if c.current != nil && c.current.ID == sessionID {
		c.current = nil
	}
	c.refreshLocked(ctx)
	return removed
}

// Rename overrides the current session's title. An explicit title sticks:
// later message appends never re-derive over it.
func (c *Controller) Rename(ctx context.Context, title string) (*chat.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil, ErrNoCurrentSession
	}
	updated := c.repo.Update(ctx, c.userID, c.current.ID, repo.Partial{Title: &title})
	if updated == nil {
		return nil, ErrNotFound
	}
	c.refreshLocked(ctx)
	c.current = c.findLocked(updated.ID)
	return updated, nil
}

// Search returns the user's sessions matching the query.
func (c *Controller) Search(ctx context.Context, query string) []*chat.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID == "" {
		return nil
	}
	return c.repo.Search(ctx, c.userID, query)
}

// =============================================================================
// MESSAGING
// =============================================================================

// SendMessage appends a user message to the current session. The append is
// optimistic: the returned session already carries the message even before
// any assistant reply exists, and a later failed generation never erases it.
func (c *Controller) SendMessage(ctx context.Context, content string) (*chat.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userID == "" {
		return nil, ErrNoUser
	}
	if c.current == nil {
		return nil, ErrNoCurrentSession
	}
	if c.busy {
		return nil, ErrBusy
	}

	updated := c.repo.AppendMessage(ctx, c.userID, c.current.ID, chat.SenderUser, content, time.Now())
	if updated == nil {
		return nil, ErrNotFound
	}
	c.refreshLocked(ctx)
	c.current = c.findLocked(updated.ID)
	return updated, nil
}

// GenerateResponse produces the assistant reply for the current session's
// latest user message. Only one generation runs at a time.
func (c *Controller) GenerateResponse(ctx context.Context) (*chat.Session, error) {
	c.mu.Lock()
	if c.userID == "" {
		c.mu.Unlock()
		return nil, ErrNoUser
	}
	if c.current == nil {
		c.mu.Unlock()
		return nil, ErrNoCurrentSession
	}
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.busy = true
	userID := c.userID
	sessionID := c.current.ID
	apiKey := ""
	if c.profile != nil {
		apiKey = c.profile.APIKey(provider.Kind(c.current.Provider))
	}
	c.mu.Unlock()

	// The provider call runs without the lock so reads stay responsive.
	updated := c.orch.Respond(ctx, userID, sessionID, apiKey)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.refreshLocked(ctx)
	if found := c.findLocked(sessionID); found != nil && c.current != nil && c.current.ID == sessionID {
		c.current = found
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	return updated, nil
}

// UpdateProvider switches the current session's provider and model. Prior
// messages keep their original attribution; only future replies use the new
// provider. The choice persists to the profile as the last-used pair.
func (c *Controller) UpdateProvider(ctx context.Context, kind provider.Kind, model string) (*chat.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userID == "" {
		return nil, ErrNoUser
	}
	if c.current == nil {
		return nil, ErrNoCurrentSession
	}
	if !kind.Valid() {
		return nil, &provider.Error{Provider: kind, Reason: provider.ReasonUnknown, Message: "unknown provider"}
	}
	if model == "" {
		model = kind.DefaultModel()
	}

	providerID := string(kind)
	updated := c.repo.Update(ctx, c.userID, c.current.ID, repo.Partial{Provider: &providerID, Model: &model})
	if updated == nil {
		return nil, ErrNotFound
	}
	c.refreshLocked(ctx)
	c.current = c.findLocked(updated.ID)

	if c.profile != nil {
		c.profile.Preferences.LastUsedProvider = providerID
		c.profile.Preferences.LastUsedModel = model
		if err := c.users.Save(ctx, c.profile); err != nil {
			c.opts.Logger.Printf("controller: preference save failed for %s: %v", c.userID, err)
		}
	}
	return updated, nil
}

// =============================================================================
// INTERNAL
// =============================================================================

// refreshLocked reloads the session list from the repository. Callers hold
// the lock.
func (c *Controller) refreshLocked(ctx context.Context) {
	if c.userID == "" {
		return
	}
	c.sessions = c.repo.List(ctx, c.userID)
}

// findLocked returns the listed session with the given id. Callers hold
// the lock.
func (c *Controller) findLocked(sessionID string) *chat.Session {
	for _, s := range c.sessions {
		if s.ID == sessionID {
			return s
		}
	}
	return nil
}
