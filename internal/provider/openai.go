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

// DefaultOpenAIURL is the base URL for the OpenAI API.
const DefaultOpenAIURL = "https://api.openai.com/v1"

// OpenAIClient talks to the OpenAI chat completions endpoint.
type OpenAIClient struct {
	apiKey  string
	baseURL string
	limiter *rate.Limiter
}

// NewOpenAIClient creates a client for the given credential. An empty key
// still constructs; requests will fail with an invalid-credentials fault.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultOpenAIURL,
		limiter: newLimiter(),
	}
}

// WithBaseURL sets a custom base URL, used by tests to point at a stub.
func (c *OpenAIClient) WithBaseURL(url string) *OpenAIClient {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// Kind returns KindOpenAI.
func (c *OpenAIClient) Kind() Kind {
	return KindOpenAI
}

// openAIRequest is the chat completions request payload.
type openAIRequest struct {
	Model       string  `json:"model"`
	Messages    []Turn  `json:"messages"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// openAIResponse is the subset of the completions response we consume.
type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends the history plus prompt and returns the assistant text.
func (c *OpenAIClient) Generate(ctx context.Context, history []chat.Message, prompt, model string) (string, error) {
	if model == "" {
		model = KindOpenAI.DefaultModel()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &Error{Provider: KindOpenAI, Reason: ReasonRateLimited, Message: err.Error()}
	}

	messages := append(historyTurns(history, "assistant"), Turn{Role: "user", Content: prompt})
	reqBody := openAIRequest{
		Model:       model,
		Messages:    messages,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}

	body, err := postJSON(ctx, KindOpenAI, c.baseURL+"/chat/completions", headers, reqBody)
	if err != nil {
		return "", err
	}

	var resp openAIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &Error{Provider: KindOpenAI, Reason: ReasonMalformedResponse, Message: "failed to parse response: " + err.Error()}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &Error{Provider: KindOpenAI, Reason: ReasonMalformedResponse, Message: "response carried no completion"}
	}
	return resp.Choices[0].Message.Content, nil
}
