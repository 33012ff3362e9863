// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/polychat/internal/chat"
)

func TestValidateCredential(t *testing.T) {
	tests := []struct {
		kind Kind
		key  string
		want bool
	}{
		{KindOpenAI, "sk-abcdef123456", true},
		{KindOpenAI, "  sk-abcdef123456  ", true},
		{KindOpenAI, "AIzaSyAbc", false},
		{KindOpenAI, "", false},
		{KindOpenAI, "   ", false},
		{KindGemini, "AIzaSyAbcdef", true},
		{KindGemini, "sk-abcdef", false},
		{KindAnthropic, "sk-ant-api03-xyz", true},
		{KindAnthropic, "sk-abcdef", false},
		{Kind("mystery"), "anything", false},
	}
	for _, tt := range tests {
		if got := tt.kind.ValidateCredential(tt.key); got != tt.want {
			t.Errorf("ValidateCredential(%s, %q) = %v, want %v", tt.kind, tt.key, got, tt.want)
		}
	}
}

func TestKindDefaults(t *testing.T) {
	if got := KindOpenAI.DefaultModel(); got != "gpt-3.5-turbo" {
		t.Errorf("openai default model = %q", got)
	}
	if got := KindGemini.DefaultModel(); got != "gemini-pro" {
		t.Errorf("gemini default model = %q", got)
	}
	if got := KindAnthropic.DefaultModel(); got != "claude-3-haiku-20240307" {
		t.Errorf("anthropic default model = %q", got)
	}
	for _, k := range Kinds() {
		if !k.Valid() {
			t.Errorf("%s should be valid", k)
		}
		if k.KeyPrefix() == "" {
			t.Errorf("%s has no key prefix", k)
		}
		if len(k.Models()) == 0 {
			t.Errorf("%s has no models", k)
		}
	}
	if Kind("mystery").Valid() {
		t.Error("unknown kind should not be valid")
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Reason
	}{
		{401, ReasonInvalidCredentials},
		{403, ReasonInvalidCredentials},
		{429, ReasonRateLimited},
		{404, ReasonModelNotFound},
		{529, ReasonOverloaded},
		{500, ReasonServer},
		{503, ReasonServer},
		{418, ReasonUnknown},
	}
	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.want {
			t.Errorf("classifyStatus(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestNewClientUnknownKind(t *testing.T) {
	_, err := NewClient(Kind("mystery"), "key")
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
	var pErr *Error
	if !errors.As(err, &pErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if pErr.Reason != ReasonUnknown {
		t.Errorf("reason = %s, want unknown", pErr.Reason)
	}
}

func TestNewClientKnownKinds(t *testing.T) {
	for _, k := range Kinds() {
		client, err := NewClient(k, "test-key")
		if err != nil {
			t.Fatalf("NewClient(%s): %v", k, err)
		}
		if client.Kind() != k {
			t.Errorf("client kind = %s, want %s", client.Kind(), k)
		}
	}
}

func TestHistoryTurns(t *testing.T) {
	now := time.Now()
	history := []chat.Message{
		{ID: "1", Content: "hello", Sender: chat.SenderUser, Timestamp: now},
		{ID: "2", Content: "hi there", Sender: chat.SenderAI, Timestamp: now},
		{ID: "3", Content: "", Sender: chat.SenderUser, Timestamp: now},
	}

	turns := historyTurns(history, "assistant")
	if len(turns) != 2 {
		t.Fatalf("expected empty message skipped, got %d turns", len(turns))
	}
	if turns[0].Role != "user" || turns[1].Role != "assistant" {
		t.Errorf("roles = %s, %s", turns[0].Role, turns[1].Role)
	}

	turns = historyTurns(history, "model")
	if turns[1].Role != "model" {
		t.Errorf("gemini assistant role = %s, want model", turns[1].Role)
	}
}

func TestErrorIs(t *testing.T) {
	err := &Error{Provider: KindOpenAI, Reason: ReasonRateLimited, Status: 429, Message: "slow down"}
	if !errors.Is(err, &Error{Reason: ReasonRateLimited}) {
		t.Error("should match by reason alone")
	}
	if !errors.Is(err, &Error{Provider: KindOpenAI, Reason: ReasonRateLimited}) {
		t.Error("should match by provider and reason")
	}
	if errors.Is(err, &Error{Provider: KindGemini, Reason: ReasonRateLimited}) {
		t.Error("should not match a different provider")
	}
	if errors.Is(err, &Error{Reason: ReasonServer}) {
		t.Error("should not match a different reason")
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"the answer"}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient("sk-test").WithBaseURL(srv.URL)
	text, err := client.Generate(context.Background(), nil, "question", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "the answer" {
		t.Errorf("text = %q", text)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth header = %q", gotAuth)
	}
}

func TestOpenAIGenerateAuthFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient("sk-bad").WithBaseURL(srv.URL)
	_, err := client.Generate(context.Background(), nil, "question", "gpt-4o")
	var pErr *Error
	if !errors.As(err, &pErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if pErr.Reason != ReasonInvalidCredentials {
		t.Errorf("reason = %s, want invalid-credentials", pErr.Reason)
	}
	if pErr.Message != "Incorrect API key provided" {
		t.Errorf("message = %q, want vendor message", pErr.Message)
	}
}

func TestGeminiGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "AIzaTest" {
			t.Errorf("key param = %q", r.URL.Query().Get("key"))
		}
		if r.URL.Path != "/models/gemini-pro:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"part one "},{"text":"part two"}]}}]}`))
	}))
	defer srv.Close()

	client := NewGeminiClient("AIzaTest").WithBaseURL(srv.URL)
	text, err := client.Generate(context.Background(), nil, "question", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "part one part two" {
		t.Errorf("text = %q", text)
	}
}

func TestGeminiGenerateEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	client := NewGeminiClient("AIzaTest").WithBaseURL(srv.URL)
	_, err := client.Generate(context.Background(), nil, "question", "")
	var pErr *Error
	if !errors.As(err, &pErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if pErr.Reason != ReasonMalformedResponse {
		t.Errorf("reason = %s, want malformed-response", pErr.Reason)
	}
}

func TestAnthropicGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "sk-ant-test" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("missing anthropic-version header")
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"claude says hi"}]}`))
	}))
	defer srv.Close()

	client := NewAnthropicClient("sk-ant-test").WithBaseURL(srv.URL)
	text, err := client.Generate(context.Background(), nil, "question", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "claude says hi" {
		t.Errorf("text = %q", text)
	}
}

func TestAnthropicGenerateOverloaded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(529)
		w.Write([]byte(`{"error":{"message":"Overloaded"}}`))
	}))
	defer srv.Close()

	client := NewAnthropicClient("sk-ant-test").WithBaseURL(srv.URL)
	_, err := client.Generate(context.Background(), nil, "question", "")
	var pErr *Error
	if !errors.As(err, &pErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if pErr.Reason != ReasonOverloaded {
		t.Errorf("reason = %s, want overloaded", pErr.Reason)
	}
}

func TestGenerateHistoryCarried(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	now := time.Now()
	history := []chat.Message{
		{ID: "1", Content: "earlier question", Sender: chat.SenderUser, Timestamp: now},
		{ID: "2", Content: "earlier answer", Sender: chat.SenderAI, Timestamp: now},
	}

	client := NewOpenAIClient("sk-test").WithBaseURL(srv.URL)
	if _, err := client.Generate(context.Background(), history, "followup", ""); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, want := range []string{"earlier question", "earlier answer", "followup", `"gpt-3.5-turbo"`} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("request body missing %q: %s", want, gotBody)
		}
	}
}
