// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package respond implements the AI response orchestrator: given a session
// that just received a user message, it produces exactly one assistant
// message and appends it through the repository.
//
// # Key Types
//
//   - Orchestrator: the single entry point, Respond
//
// # Usage
//
//	orch := respond.New(repository, respond.Options{})
//	session := orch.Respond(ctx, userID, sessionID, apiKey)
//
// The orchestrator never surfaces a provider fault to its caller. A missing
// or malformed credential produces a clearly-labeled simulated response; a
// live call that fails produces an assistant message describing the fault
// category. Either way the conversation always gets a reply, so a broken
// key or a vendor outage degrades the answer quality, not the app.
package respond
