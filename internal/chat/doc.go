// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat contains the data structures for chat sessions and messages,
// plus the reconciliation logic that keeps message lists consistent.
//
// # Key Types
//
//   - Session: one conversation thread with ordered messages and metadata
//   - Message: a single user or assistant message, immutable after creation
//   - Sender: closed enumeration of message authors (user, ai)
//
// # Reconciliation
//
// The reconciler is a set of pure functions that derive session metadata
// and merge message lists:
//
//	title := chat.DeriveTitle(firstUserMessage)
//	preview := chat.DerivePreview(latestUserMessage)
//	merged := chat.MergeMessages(existing, incoming, window)
//
// Merging never drops a message that exists in only one of the two lists,
// suppresses near-duplicates (same sender and content within a short time
// window), and re-sorts the result by timestamp. Duplicate suppression is
// what makes overlapping optimistic and persisted writes safe.
package chat
