// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the AI vendor collaborators.
package provider

import (
	"fmt"
	"net/http"
)

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

// Reason is the typed fault classification for provider calls. The
// orchestrator switches on this, never on error message text.
type Reason int

const (
	// ReasonUnknown covers faults with no specific classification.
	ReasonUnknown Reason = iota
	// ReasonInvalidCredentials covers rejected or insufficient API keys.
	ReasonInvalidCredentials
	// ReasonRateLimited covers quota and rate-limit rejections.
	ReasonRateLimited
	// ReasonServer covers transient vendor-side failures (5xx).
	ReasonServer
	// ReasonModelNotFound covers unknown or unavailable models.
	ReasonModelNotFound
	// ReasonMalformedResponse covers unparseable or empty vendor replies.
	ReasonMalformedResponse
	// ReasonOverloaded covers capacity rejections (Anthropic 529).
	ReasonOverloaded
)

// String returns the stable name of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonInvalidCredentials:
		return "invalid-credentials"
	case ReasonRateLimited:
		return "rate-limited"
	case ReasonServer:
		return "server-error"
	case ReasonModelNotFound:
		return "model-not-found"
	case ReasonMalformedResponse:
		return "malformed-response"
	case ReasonOverloaded:
		return "overloaded"
	default:
		return "unknown"
	}
}

// Error is a classified provider fault.
type Error struct {
	Provider Kind
	Reason   Reason
	Status   int // HTTP status when applicable, 0 otherwise
	Message  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %s", e.Provider, e.Reason, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Reason, e.Message)
}

// Is supports errors.Is against another *Error by provider and reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return (t.Provider == "" || t.Provider == e.Provider) && t.Reason == e.Reason
}

// classifyStatus maps an HTTP status code to a fault reason.
func classifyStatus(status int) Reason {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ReasonInvalidCredentials
	case status == http.StatusTooManyRequests:
		return ReasonRateLimited
	case status == http.StatusNotFound:
		return ReasonModelNotFound
	case status == 529:
		return ReasonOverloaded
	case status >= 500:
		return ReasonServer
	default:
		return ReasonUnknown
	}
}
