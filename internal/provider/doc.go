// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the AI vendor collaborators: a closed set of
// provider integrations (OpenAI, Google Gemini, Anthropic) behind one
// capability interface.
//
// # Key Types
//
//   - Kind: tagged provider identifier with per-provider key format rules
//   - Client: the uniform generate contract consumed by the orchestrator
//   - Error: typed fault with a stable Reason classification
//
// # Usage
//
// Construct a client per call from the credential and generate:
//
//	client, err := provider.NewClient(provider.KindOpenAI, apiKey)
//	text, err := client.Generate(ctx, history, prompt, model)
//
// Faults carry a Reason (invalid credentials, rate limited, server
// error, model not found, malformed response, overloaded, unknown) so the
// orchestrator classifies by type, never by sniffing message text. Clients
// hold no process-wide mutable state; each is parameterized by its
// credential at construction.
//
// Credential validation is purely syntactic (a prefix check) and never
// performs a network round-trip.
package provider
