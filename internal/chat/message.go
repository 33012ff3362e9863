// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat contains the data structures for chat sessions and messages.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies the author of a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderAI:
		return "Assistant"
	default:
		return string(s)
	}
}

// Valid reports whether the sender is one of the known values.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAI
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single message in a session. Messages are never mutated after
// creation and are only removed as part of whole-session deletion.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with a generated ID and the current time.
func NewMessage(sender Sender, content string) Message {
	return Message{
		ID:        GenerateMessageID(sender),
		Content:   content,
		Sender:    sender,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return NewMessage(SenderUser, content)
}

// NewAIMessage creates an assistant message.
func NewAIMessage(content string) Message {
	return NewMessage(SenderAI, content)
}

// WelcomeMessage returns the assistant greeting seeded into new sessions.
func WelcomeMessage() Message {
	return NewAIMessage("Hello! How can I assist you today?")
}

// GenerateMessageID creates a unique message ID tagged with the sender.
func GenerateMessageID(sender Sender) string {
	return "msg-" + string(sender) + "-" + uuid.New().String()
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m Message) Preview(maxLen int) string {
	return Truncate(m.Content, maxLen)
}

// IsEmpty reports whether the message has no content.
func (m Message) IsEmpty() bool {
	return len(m.Content) == 0
}
