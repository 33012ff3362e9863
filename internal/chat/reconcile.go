// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// reconcile.go - Pure reconciliation functions for session metadata and
// message lists.
//
// These functions are synchronous and stateless. The repository applies them
// on every update so that the stored list always satisfies the ordering and
// no-duplicates invariants regardless of how writes interleave.
package chat

import (
	"sort"
	"time"
)

// Default tunables for reconciliation. These are heuristics, not protocol
// requirements; config may override them.
const (
	// TitleMaxLen is the rune budget for derived session titles.
	TitleMaxLen = 30

	// PreviewMaxLen is the rune budget for derived session previews.
	PreviewMaxLen = 60

	// DuplicateWindow is how close two otherwise-identical messages must be
	// in time to count as the same logical message. It guards against
	// double-submission from overlapping optimistic and persisted writes,
	// not against legitimate repeated phrases sent minutes apart.
	DuplicateWindow = 5 * time.Second
)

// =============================================================================
// TITLE / PREVIEW DERIVATION
// =============================================================================

// DeriveTitle derives a session title from the first user message.
// Invoked only while the existing title is still the default sentinel;
// once a caller sets a custom title, automatic derivation never overwrites it.
func DeriveTitle(content string) string {
	return Truncate(content, TitleMaxLen)
}

// DerivePreview derives a session preview from the latest user message.
// Unlike the title, the preview is re-derived on every user-authored append.
func DerivePreview(content string) string {
	return Truncate(content, PreviewMaxLen)
}

// =============================================================================
// DUPLICATE DETECTION
// =============================================================================

// IsDuplicate reports whether candidate is a near-duplicate of a message
// already in existing: same sender, same content, and timestamps within
// window of each other. A non-positive window falls back to DuplicateWindow.
func IsDuplicate(existing []Message, candidate Message, window time.Duration) bool {
	if window <= 0 {
		window = DuplicateWindow
	}
	for _, msg := range existing {
		if msg.Sender != candidate.Sender || msg.Content != candidate.Content {
			continue
		}
		delta := candidate.Timestamp.Sub(msg.Timestamp)
		if delta < 0 {
			delta = -delta
		}
		if delta < window {
			return true
		}
	}
	return false
}

// =============================================================================
// MESSAGE MERGING
// =============================================================================

// MergeMessages combines two message lists. Every incoming message that is
// not already present by ID and is not a near-duplicate is appended; the
// result is then stable-sorted by timestamp ascending. Messages that exist
// in only one of the two lists are never dropped.
func MergeMessages(existing, incoming []Message, window time.Duration) []Message {
	merged := make([]Message, len(existing))
	copy(merged, existing)

	if len(incoming) > 0 {
		seen := make(map[string]struct{}, len(existing))
		for _, msg := range existing {
			seen[msg.ID] = struct{}{}
		}

		for _, msg := range incoming {
			if _, ok := seen[msg.ID]; ok {
				continue
			}
			if IsDuplicate(merged, msg, window) {
				continue
			}
			merged = append(merged, msg)
			seen[msg.ID] = struct{}{}
		}
	}

	SortMessages(merged)
	return merged
}

// SortMessages stable-sorts messages by timestamp ascending. Stability keeps
// insertion order for messages created within the same clock tick.
func SortMessages(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
}

// Sorted reports whether messages are ordered non-decreasing by timestamp.
func Sorted(messages []Message) bool {
	for i := 1; i < len(messages); i++ {
		if messages[i].Timestamp.Before(messages[i-1].Timestamp) {
			return false
		}
	}
	return true
}
