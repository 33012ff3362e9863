// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the AI vendor collaborators.
package provider

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/jeranaias/polychat/internal/chat"
)

// DefaultGeminiURL is the base URL for the Gemini API.
const DefaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient talks to the Google Gemini generateContent endpoint.
type GeminiClient struct {
	apiKey  string
	baseURL string
	limiter *rate.Limiter
}

// NewGeminiClient creates a client for the given credential.
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultGeminiURL,
		limiter: newLimiter(),
	}
}

// WithBaseURL sets a custom base URL, used by tests to point at a stub.
func (c *GeminiClient) WithBaseURL(url string) *GeminiClient {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// Kind returns KindGemini.
func (c *GeminiClient) Kind() Kind {
	return KindGemini
}

// geminiPart, geminiContent, and geminiRequest mirror the generateContent
// payload. Gemini names the assistant role "model" and nests text in parts.
type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends the history plus prompt and returns the assistant text.
func (c *GeminiClient) Generate(ctx context.Context, history []chat.Message, prompt, model string) (string, error) {
	if model == "" {
		model = KindGemini.DefaultModel()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &Error{Provider: KindGemini, Reason: ReasonRateLimited, Message: err.Error()}
	}

	turns := append(historyTurns(history, "model"), Turn{Role: "user", Content: prompt})
	var reqBody geminiRequest
	reqBody.Contents = make([]geminiContent, 0, len(turns))
	for _, t := range turns {
		reqBody.Contents = append(reqBody.Contents, geminiContent{
			Role:  t.Role,
			Parts: []geminiPart{{Text: t.Content}},
		})
	}
	reqBody.GenerationConfig.Temperature = defaultTemperature
	reqBody.GenerationConfig.MaxOutputTokens = defaultMaxTokens

	// The credential rides as a query parameter, not a header.
	endpoint := c.baseURL + "/models/" + model + ":generateContent?key=" + url.QueryEscape(c.apiKey)

	body, err := postJSON(ctx, KindGemini, endpoint, nil, reqBody)
	if err != nil {
		return "", err
	}

	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &Error{Provider: KindGemini, Reason: ReasonMalformedResponse, Message: "failed to parse response: " + err.Error()}
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &Error{Provider: KindGemini, Reason: ReasonMalformedResponse, Message: "response carried no candidates"}
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	if b.Len() == 0 {
		return "", &Error{Provider: KindGemini, Reason: ReasonMalformedResponse, Message: "response carried empty parts"}
	}
	return b.String(), nil
}
