// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the AI vendor collaborators.
package provider

import (
	"context"
	"encoding/json"
	"strings"

	"golang.org/x/time/rate"

	"github.com/jeranaias/polychat/internal/chat"
)

const (
	// DefaultAnthropicURL is the base URL for the Anthropic API.
	DefaultAnthropicURL = "https://api.anthropic.com/v1"

	// anthropicVersion is the required API version header value.
	anthropicVersion = "2023-06-01"
)

// AnthropicClient talks to the Anthropic messages endpoint.
type AnthropicClient struct {
	apiKey  string
	baseURL string
	limiter *rate.Limiter
}

// NewAnthropicClient creates a client for the given credential.
func NewAnthropicClient(apiKey string) *AnthropicClient {
	return &AnthropicClient{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultAnthropicURL,
		limiter: newLimiter(),
	}
}

// WithBaseURL sets a custom base URL, used by tests to point at a stub.
func (c *AnthropicClient) WithBaseURL(url string) *AnthropicClient {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// Kind returns KindAnthropic.
func (c *AnthropicClient) Kind() Kind {
	return KindAnthropic
}

// anthropicRequest is the messages request payload.
type anthropicRequest struct {
	Model       string  `json:"model"`
	Messages    []Turn  `json:"messages"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// anthropicResponse is the subset of the messages response we consume.
type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Generate sends the history plus prompt and returns the assistant text.
func (c *AnthropicClient) Generate(ctx context.Context, history []chat.Message, prompt, model string) (string, error) {
	if model == "" {
		model = KindAnthropic.DefaultModel()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &Error{Provider: KindAnthropic, Reason: ReasonRateLimited, Message: err.Error()}
	}

	messages := append(historyTurns(history, "assistant"), Turn{Role: "user", Content: prompt})
	reqBody := anthropicRequest{
		Model:       model,
		Messages:    messages,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}

	body, err := postJSON(ctx, KindAnthropic, c.baseURL+"/messages", headers, reqBody)
	if err != nil {
		return "", err
	}

	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &Error{Provider: KindAnthropic, Reason: ReasonMalformedResponse, Message: "failed to parse response: " + err.Error()}
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", &Error{Provider: KindAnthropic, Reason: ReasonMalformedResponse, Message: "response carried no text blocks"}
	}
	return b.String(), nil
}
