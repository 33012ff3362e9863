// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the AI vendor collaborators.
package provider

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants shared by all provider clients.
const (
	// DefaultTimeout bounds one generation round-trip.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize caps the response body read.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// defaultTemperature and defaultMaxTokens are the generation settings
	// every provider request carries.
	defaultTemperature = 0.7
	defaultMaxTokens   = 1000
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// One shared HTTP client serves all provider requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// newLimiter returns the per-client request limiter. Vendors throttle at
// roughly this order of magnitude; limiting locally turns hard 429s into
// brief waits.
func newLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Second), 3)
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// postJSON marshals the request body, posts it, and returns the raw
// response body. Non-2xx statuses come back as a classified *Error built
// from the vendor's error payload when one parses.
func postJSON(ctx context.Context, kind Kind, url string, headers map[string]string, reqBody any) ([]byte, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &Error{Provider: kind, Reason: ReasonUnknown, Message: "failed to marshal request: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Provider: kind, Reason: ReasonUnknown, Message: "failed to create request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "polychat/0.1.0")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := sharedHTTPClient.Do(req)

	// SECURITY: Clear credential headers immediately after the request.
	req.Header.Del("Authorization")
	req.Header.Del("x-api-key")

	if err != nil {
		return nil, &Error{Provider: kind, Reason: ReasonServer, Message: "request failed: " + err.Error()}
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, &Error{Provider: kind, Reason: ReasonMalformedResponse, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(kind, resp.StatusCode, body)
	}
	return body, nil
}

// vendorErrorBody is the error payload shape the vendors share.
type vendorErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// statusError converts an HTTP error response into a classified *Error,
// preferring the vendor's own message when the payload parses.
func statusError(kind Kind, status int, body []byte) *Error {
	msg := http.StatusText(status)
	var payload vendorErrorBody
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		msg = payload.Error.Message
	}
	return &Error{
		Provider: kind,
		Reason:   classifyStatus(status),
		Status:   status,
		Message:  msg,
	}
}
