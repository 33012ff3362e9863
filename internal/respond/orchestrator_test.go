// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package respond

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/polychat/internal/chat"
	"github.com/jeranaias/polychat/internal/provider"
	"github.com/jeranaias/polychat/internal/repo"
	"github.com/jeranaias/polychat/internal/store"
)

type stubClient struct {
	kind        provider.Kind
	text        string
	err         error
	calls       int
	gotHistory  []chat.Message
	gotPrompt   string
	gotModel    string
	gotDeadline time.Time
	hadDeadline bool
}

func (s *stubClient) Kind() provider.Kind {
	return s.kind
}

func (s *stubClient) Generate(ctx context.Context, history []chat.Message, prompt, model string) (string, error) {
	s.calls++
	s.gotHistory = history
	s.gotPrompt = prompt
	s.gotModel = model
	s.gotDeadline, s.hadDeadline = ctx.Deadline()
	return s.text, s.err
}

func newTestOrchestrator(t *testing.T, stub *stubClient) (*Orchestrator, *repo.Repository) {
	t.Helper()
	r := repo.New(store.NewMemoryKV(), repo.Options{})
	orch := New(r, Options{
		NewClient: func(kind provider.Kind, apiKey string) (provider.Client, error) {
			stub.kind = kind
			return stub, nil
		},
	})
	return orch, r
}

func seedSession(t *testing.T, r *repo.Repository, userID, providerName, question string) *chat.Session {
	t.Helper()
	ctx := context.Background()
	session := r.Create(ctx, userID, providerName, "")
	session = r.AppendMessage(ctx, userID, session.ID, chat.SenderUser, question, time.Now())
	if session == nil {
		t.Fatal("seed append failed")
	}
	return session
}

func TestRespondSimulatedWithoutCredential(t *testing.T) {
	stub := &stubClient{text: "should not be used"}
	orch, r := newTestOrchestrator(t, stub)
	session := seedSession(t, r, "u1", "openai", "What is Go?")

	got := orch.Respond(context.Background(), "u1", session.ID, "")
	if got == nil {
		t.Fatal("expected updated session")
	}
	if stub.calls != 0 {
		t.Errorf("provider called %d times without a credential", stub.calls)
	}

	last := got.Messages[len(got.Messages)-1]
	if last.Sender != chat.SenderAI {
		t.Fatalf("last sender = %s", last.Sender)
	}
	if !strings.Contains(last.Content, "simulated response") {
		t.Errorf("reply not marked simulated: %q", last.Content)
	}
	if !strings.Contains(last.Content, "OpenAI") || !strings.Contains(last.Content, "gpt-3.5-turbo") {
		t.Errorf("reply does not name provider and model: %q", last.Content)
	}
	if !strings.Contains(last.Content, "What is Go?") {
		t.Errorf("reply does not echo the prompt: %q", last.Content)
	}
}

func TestRespondSimulatedWithWrongPrefixKey(t *testing.T) {
	stub := &stubClient{text: "should not be used"}
	orch, r := newTestOrchestrator(t, stub)
	session := seedSession(t, r, "u1", "anthropic", "hello")

	// An OpenAI-shaped key is not usable for Anthropic.
	got := orch.Respond(context.Background(), "u1", session.ID, "sk-abcdef")
	if stub.calls != 0 {
		t.Errorf("provider called with a mismatched credential")
	}
	last := got.Messages[len(got.Messages)-1]
	if !strings.Contains(last.Content, "simulated response") {
		t.Errorf("reply not marked simulated: %q", last.Content)
	}
}

func TestRespondLiveCall(t *testing.T) {
	stub := &stubClient{text: "Go is a programming language."}
	orch, r := newTestOrchestrator(t, stub)
	session := seedSession(t, r, "u1", "openai", "What is Go?")

	got := orch.Respond(context.Background(), "u1", session.ID, "sk-valid")
	if got == nil {
		t.Fatal("expected updated session")
	}
	if stub.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", stub.calls)
	}
	if stub.gotPrompt != "What is Go?" {
		t.Errorf("prompt = %q", stub.gotPrompt)
	}
	if stub.gotModel != "gpt-3.5-turbo" {
		t.Errorf("model = %q, want session default", stub.gotModel)
	}
	for _, msg := range stub.gotHistory {
		if msg.Content == "What is Go?" {
			t.Error("prompt also present in history")
		}
	}

	last := got.Messages[len(got.Messages)-1]
	if last.Content != "Go is a programming language." {
		t.Errorf("reply = %q", last.Content)
	}
	if last.Sender != chat.SenderAI {
		t.Errorf("sender = %s", last.Sender)
	}
}

func TestRespondFaultBecomesMessage(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		marker string
	}{
		{"credentials", &provider.Error{Provider: provider.KindOpenAI, Reason: provider.ReasonInvalidCredentials}, "API key is invalid"},
		{"rate limited", &provider.Error{Provider: provider.KindOpenAI, Reason: provider.ReasonRateLimited}, "rate limit"},
		{"server", &provider.Error{Provider: provider.KindOpenAI, Reason: provider.ReasonServer}, "servers encountered an error"},
		{"model not found", &provider.Error{Provider: provider.KindOpenAI, Reason: provider.ReasonModelNotFound}, "was not found"},
		{"malformed", &provider.Error{Provider: provider.KindOpenAI, Reason: provider.ReasonMalformedResponse}, "Failed to parse"},
		{"overloaded", &provider.Error{Provider: provider.KindOpenAI, Reason: provider.ReasonOverloaded}, "currently overloaded"},
		{"timeout", context.DeadlineExceeded, "timed out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubClient{err: tt.err}
			orch, r := newTestOrchestrator(t, stub)
			session := seedSession(t, r, "u1", "openai", "question")

			got := orch.Respond(context.Background(), "u1", session.ID, "sk-valid")
			if got == nil {
				t.Fatal("fault should still append a message")
			}
			last := got.Messages[len(got.Messages)-1]
			if !strings.HasPrefix(last.Content, "Error:") {
				t.Errorf("fault reply = %q", last.Content)
			}
			if !strings.Contains(last.Content, tt.marker) {
				t.Errorf("reply %q missing %q", last.Content, tt.marker)
			}
		})
	}
}

func TestRespondNoUserMessage(t *testing.T) {
	stub := &stubClient{text: "unused"}
	orch, r := newTestOrchestrator(t, stub)
	session := r.Create(context.Background(), "u1", "openai", "")

	got := orch.Respond(context.Background(), "u1", session.ID, "sk-valid")
	if got == nil {
		t.Fatal("expected the session back")
	}
	if len(got.Messages) != len(session.Messages) {
		t.Errorf("messages grew from %d to %d with nothing to answer", len(session.Messages), len(got.Messages))
	}
	if stub.calls != 0 {
		t.Error("provider called with nothing to answer")
	}
}

func TestRespondMissingSession(t *testing.T) {
	stub := &stubClient{text: "unused"}
	orch, _ := newTestOrchestrator(t, stub)

	if got := orch.Respond(context.Background(), "u1", "chat-missing", "sk-valid"); got != nil {
		t.Errorf("expected nil for missing session, got %+v", got)
	}
}

func TestRespondPreservesSessionMetadata(t *testing.T) {
	stub := &stubClient{text: "an answer"}
	orch, r := newTestOrchestrator(t, stub)
	session := seedSession(t, r, "u1", "gemini", "Tell me about recipes")

	got := orch.Respond(context.Background(), "u1", session.ID, "AIzaValid")
	if got.Title != session.Title {
		t.Errorf("title changed from %q to %q on AI reply", session.Title, got.Title)
	}
	if got.Preview != session.Preview {
		t.Errorf("preview changed from %q to %q on AI reply", session.Preview, got.Preview)
	}
}

func TestSetTimeoutBoundsProviderCall(t *testing.T) {
	stub := &stubClient{text: "ok"}
	orch, r := newTestOrchestrator(t, stub)
	session := seedSession(t, r, "u1", "openai", "ping")

	orch.SetTimeout(5 * time.Second)
	start := time.Now()
	orch.Respond(context.Background(), "u1", session.ID, "sk-test")

	if !stub.hadDeadline {
		t.Fatal("provider call carried no deadline")
	}
	bound := stub.gotDeadline.Sub(start)
	if bound <= 0 || bound > 5*time.Second {
		t.Errorf("deadline %v from call start, want within 5s", bound)
	}

	// Non-positive values keep the current setting.
	orch.SetTimeout(0)
	if got := orch.timeout(); got != 5*time.Second {
		t.Errorf("timeout = %v after SetTimeout(0), want 5s", got)
	}
}
