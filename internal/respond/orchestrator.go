// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package respond implements the AI response orchestrator.
package respond

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jeranaias/polychat/internal/chat"
	"github.com/jeranaias/polychat/internal/provider"
	"github.com/jeranaias/polychat/internal/repo"
	"github.com/jeranaias/polychat/internal/util"
)

// DefaultTimeout bounds one live generation call.
const DefaultTimeout = 45 * time.Second

// Options holds orchestrator tunables.
type Options struct {
	// Timeout bounds each live provider call. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Logger receives call traces with masked credentials.
	Logger *log.Logger

	// NewClient overrides provider client construction, used by tests to
	// substitute a stub. Defaults to provider.NewClient.
	NewClient func(kind provider.Kind, apiKey string) (provider.Client, error)
}

// Orchestrator turns the latest user message of a session into exactly one
// appended assistant message.
type Orchestrator struct {
	repo *repo.Repository
	opts Options

	// mu guards the timeout, the one setting retunable at runtime.
	mu sync.Mutex
}

// New creates an orchestrator over the given repository.
func New(r *repo.Repository, opts Options) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.NewClient == nil {
		opts.NewClient = provider.NewClient
	}
	return &Orchestrator{repo: r, opts: opts}
}

// SetTimeout adjusts the per-call timeout at runtime, used when the config
// file changes under a running process. Non-positive values are ignored.
func (o *Orchestrator) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opts.Timeout = d
}

func (o *Orchestrator) timeout() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opts.Timeout
}

// Respond generates an assistant reply for the session's latest user message
// and appends it. Returns the updated session, the unchanged session when
// there is nothing to answer, or nil when the session does not exist or the
// append could not be persisted. Provider faults never propagate: they
// become assistant messages describing the fault category.
func (o *Orchestrator) Respond(ctx context.Context, userID, sessionID, apiKey string) *chat.Session {
	session := o.repo.Get(ctx, userID, sessionID)
	if session == nil {
		return nil
	}

	prompt := session.LastUserMessage()
	if prompt == nil {
		return session
	}

	kind := provider.Kind(session.Provider)
	model := session.Model
	if model == "" {
		model = kind.DefaultModel()
	}

	var reply string
	if kind.Valid() && kind.ValidateCredential(apiKey) {
		reply = o.generate(ctx, kind, apiKey, model, session, prompt.Content)
	} else {
		reply = SimulatedReply(kind, model, prompt.Content)
	}

	return o.repo.AppendMessage(ctx, userID, sessionID, chat.SenderAI, reply, time.Now())
}

// generate performs one live provider call and converts any fault into a
// user-facing assistant message.
func (o *Orchestrator) generate(ctx context.Context, kind provider.Kind, apiKey, model string, session *chat.Session, prompt string) string {
	client, err := o.opts.NewClient(kind, apiKey)
	if err != nil {
		return faultReply(kind, model, err)
	}

	o.opts.Logger.Printf("respond: calling %s model %s with key %s", kind, model, util.MaskKey(apiKey))

	callCtx, cancel := context.WithTimeout(ctx, o.timeout())
	defer cancel()

	text, err := client.Generate(callCtx, historyBefore(session.Messages, prompt), prompt, model)
	if err != nil {
		o.opts.Logger.Printf("respond: %s call failed: %v", kind, err)
		return faultReply(kind, model, err)
	}
	if text == "" {
		return faultReply(kind, model, &provider.Error{Provider: kind, Reason: provider.ReasonMalformedResponse, Message: "empty completion"})
	}
	return text
}

// historyBefore returns the messages preceding the latest occurrence of the
// prompt, so the prompt rides as the new turn rather than twice.
func historyBefore(messages []chat.Message, prompt string) []chat.Message {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Sender == chat.SenderUser && messages[i].Content == prompt {
			return messages[:i]
		}
	}
	return messages
}

// SimulatedReply is the fallback assistant message used when no usable
// credential exists for the session's provider. The wording stays stable so
// callers and tests can recognize a simulated turn.
func SimulatedReply(kind provider.Kind, model, prompt string) string {
	return fmt.Sprintf(`This is a simulated response from %s (%s). In a real conversation, this would be a response from the actual AI provider.

You asked: %q

To get real responses, add your %s API key with "polychat key set %s".`,
		kind.DisplayName(), model, prompt, kind.DisplayName(), kind)
}

// faultReply converts a provider fault into a user-facing assistant
// message. Classification goes by the typed reason, never by sniffing
// message text.
func faultReply(kind provider.Kind, model string, err error) string {
	name := kind.DisplayName()

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("Error: The request to %s timed out. Please try again later.", name)
	}

	var pErr *provider.Error
	if !errors.As(err, &pErr) {
		return fmt.Sprintf("Error: Failed to generate a response from %s. Please try again.", name)
	}

	switch pErr.Reason {
	case provider.ReasonInvalidCredentials:
		return fmt.Sprintf("Error: Your %s API key is invalid or has insufficient permissions. Please check the key and try again.", name)
	case provider.ReasonRateLimited:
		return fmt.Sprintf("Error: You've exceeded your %s API rate limit or quota. Please check your usage limits.", name)
	case provider.ReasonServer:
		return fmt.Sprintf("Error: %s's servers encountered an error. Please try again later.", name)
	case provider.ReasonModelNotFound:
		return fmt.Sprintf("Error: The model %q was not found or is not available. Please try a different model.", model)
	case provider.ReasonMalformedResponse:
		return fmt.Sprintf("Error: Failed to parse the response from %s. Please try again.", name)
	case provider.ReasonOverloaded:
		return fmt.Sprintf("Error: %s's servers are currently overloaded. Please try again later or switch to a different model.", name)
	default:
		return fmt.Sprintf("Error: Failed to generate a response from %s. Please try again.", name)
	}
}
