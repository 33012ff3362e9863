// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat contains the data structures for chat sessions and messages.
package chat

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default sentinels for freshly created sessions. Title derivation only
// runs while the title is still exactly DefaultTitle.
const (
	DefaultTitle   = "New Conversation"
	DefaultPreview = "Start a new conversation..."
)

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is one persisted conversation thread between a user and a provider.
type Session struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Preview  string    `json:"preview"`
	Provider string    `json:"provider"`
	Model    string    `json:"model,omitempty"`
	Messages []Message `json:"messages"`
	// Timestamp is the last-modified time, bumped on every append or update.
	Timestamp time.Time `json:"timestamp"`
}

// NewSession creates a session with default sentinels and a seeded welcome
// message from the assistant.
func NewSession(provider, model string) *Session {
	return &Session{
		ID:        GenerateSessionID(),
		Title:     DefaultTitle,
		Preview:   DefaultPreview,
		Provider:  provider,
		Model:     model,
		Messages:  []Message{WelcomeMessage()},
		Timestamp: time.Now(),
	}
}

// GenerateSessionID creates a unique session ID.
func GenerateSessionID() string {
	return "chat-" + uuid.New().String()
}

// =============================================================================
// SESSION METHODS
// =============================================================================

// LastUserMessage returns the most recent user message, or nil if none.
func (s *Session) LastUserMessage() *Message {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Sender == SenderUser {
			return &s.Messages[i]
		}
	}
	return nil
}

// FirstUserMessage returns the earliest user message, or nil if none.
func (s *Session) FirstUserMessage() *Message {
	for i := range s.Messages {
		if s.Messages[i].Sender == SenderUser {
			return &s.Messages[i]
		}
	}
	return nil
}

// MessageCount returns the number of messages.
func (s *Session) MessageCount() int {
	return len(s.Messages)
}

// HasDefaultTitle reports whether the title is still the creation sentinel.
func (s *Session) HasDefaultTitle() bool {
	return s.Title == DefaultTitle
}

// Clone returns a deep copy of the session. The repository hands out clones
// so callers can never mutate the stored list in place.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Messages = make([]Message, len(s.Messages))
	copy(clone.Messages, s.Messages)
	return &clone
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders the session as a Markdown transcript with the
// session metadata and role-labelled messages.
func (s *Session) ExportMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# " + s.Title + "\n\n")
	sb.WriteString("Provider: " + s.Provider)
	if s.Model != "" {
		sb.WriteString(" (" + s.Model + ")")
	}
	sb.WriteString("\n\nUpdated: " + s.Timestamp.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range s.Messages {
		sb.WriteString("**" + msg.Sender.DisplayName() + "** (" + msg.Timestamp.Format("15:04") + "):\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}

// ExportJSON renders the session as pretty-printed JSON.
func (s *Session) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Truncate shortens s to maxLen runes, appending "..." when content was cut.
// The ellipsis marker is appended after the cut, so a truncated result is
// maxLen+3 runes long.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
