// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the AI vendor collaborators.
package provider

import (
	"context"
	"strings"

	"github.com/jeranaias/polychat/internal/chat"
)

// =============================================================================
// PROVIDER KIND
// =============================================================================

// Kind identifies a provider integration. The set is closed: adding a
// provider means adding a Kind, a client, and one registry entry.
type Kind string

const (
	KindOpenAI    Kind = "openai"
	KindGemini    Kind = "gemini"
	KindAnthropic Kind = "anthropic"
)

// Kinds lists every supported provider.
func Kinds() []Kind {
	return []Kind{KindOpenAI, KindGemini, KindAnthropic}
}

// String returns the provider id.
func (k Kind) String() string {
	return string(k)
}

// DisplayName returns the human-readable provider name.
func (k Kind) DisplayName() string {
	switch k {
	case KindOpenAI:
		return "OpenAI"
	case KindGemini:
		return "Google Gemini"
	case KindAnthropic:
		return "Anthropic Claude"
	default:
		return string(k)
	}
}

// Valid reports whether the kind is a known provider.
func (k Kind) Valid() bool {
	switch k {
	case KindOpenAI, KindGemini, KindAnthropic:
		return true
	}
	return false
}

// KeyPrefix returns the expected credential prefix for the provider.
func (k Kind) KeyPrefix() string {
	switch k {
	case KindOpenAI:
		return "sk-"
	case KindGemini:
		return "AIza"
	case KindAnthropic:
		return "sk-ant"
	default:
		return ""
	}
}

// DefaultModel returns the model used when a session has none selected.
func (k Kind) DefaultModel() string {
	switch k {
	case KindOpenAI:
		return "gpt-3.5-turbo"
	case KindGemini:
		return "gemini-pro"
	case KindAnthropic:
		return "claude-3-haiku-20240307"
	default:
		return ""
	}
}

// Models returns the selectable models for the provider.
func (k Kind) Models() []string {
	switch k {
	case KindOpenAI:
		return []string{"gpt-4o", "gpt-4o-mini", "gpt-3.5-turbo", "o1", "o1-mini"}
	case KindGemini:
		return []string{"gemini-pro", "gemini-1.5-pro", "gemini-1.5-flash"}
	case KindAnthropic:
		return []string{"claude-3-haiku-20240307", "claude-3-sonnet-20240229", "claude-3-5-sonnet-20241022"}
	default:
		return nil
	}
}

// ValidateCredential reports whether key looks like a usable credential for
// the provider. The check is syntactic only: non-empty after trimming and
// carrying the provider's key prefix. It never talks to the network.
func (k Kind) ValidateCredential(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	prefix := k.KeyPrefix()
	return prefix != "" && strings.HasPrefix(key, prefix)
}

// =============================================================================
// CLIENT CONTRACT
// =============================================================================

// Client is the uniform generation capability the orchestrator consumes.
type Client interface {
	// Kind returns the provider this client talks to.
	Kind() Kind

	// Generate sends the conversation history (oldest first) plus the new
	// user prompt to the provider and returns the assistant text verbatim.
	// Faults are returned as *Error with a stable Reason.
	Generate(ctx context.Context, history []chat.Message, prompt, model string) (string, error)
}

// NewClient constructs the client for a provider kind, parameterized by the
// credential. Clients are cheap to build; construct one per call rather
// than sharing a mutable singleton across users.
func NewClient(kind Kind, apiKey string) (Client, error) {
	switch kind {
	case KindOpenAI:
		return NewOpenAIClient(apiKey), nil
	case KindGemini:
		return NewGeminiClient(apiKey), nil
	case KindAnthropic:
		return NewAnthropicClient(apiKey), nil
	default:
		return nil, &Error{Provider: kind, Reason: ReasonUnknown, Message: "unknown provider"}
	}
}

// =============================================================================
// WIRE HISTORY
// =============================================================================

// Turn is one history entry in the role/content shape the vendors share.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// historyTurns converts session messages to wire turns, mapping the ai
// sender to the given assistant role name ("assistant" or "model").
func historyTurns(history []chat.Message, assistantRole string) []Turn {
	turns := make([]Turn, 0, len(history))
	for _, msg := range history {
		if msg.IsEmpty() {
			continue
		}
		role := "user"
		if msg.Sender == chat.SenderAI {
			role = assistantRole
		}
		turns = append(turns, Turn{Role: role, Content: msg.Content})
	}
	return turns
}
