// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller coordinates the session view state.
package controller

import (
	"time"

	"github.com/jeranaias/polychat/internal/chat"
	"github.com/jeranaias/polychat/internal/provider"
)

// ExampleSessions returns the starter sessions seeded for brand-new users,
// one per provider, so the history view is never empty on first run.
func ExampleSessions() []*chat.Session {
	now := time.Now()

	quantum := &chat.Session{
		ID:      chat.GenerateSessionID(),
		Title:   "Understanding Quantum Computing",
		Preview: "Can you explain the basics of quantum computing in simple terms?",
		Messages: []chat.Message{
			{
				ID:        chat.GenerateMessageID(chat.SenderUser),
				Content:   "Can you explain the basics of quantum computing in simple terms?",
				Sender:    chat.SenderUser,
				Timestamp: now.Add(-2 * time.Hour),
			},
			{
				ID:        chat.GenerateMessageID(chat.SenderAI),
				Content:   "Quantum computing uses quantum bits or qubits, which can exist in multiple states simultaneously thanks to superposition. This allows quantum computers to process complex problems much faster than classical computers for certain tasks like factoring large numbers or simulating quantum systems.",
				Sender:    chat.SenderAI,
				Timestamp: now.Add(-2*time.Hour + 30*time.Second),
			},
		},
		Timestamp: now.Add(-2 * time.Hour),
		Provider:  string(provider.KindOpenAI),
		Model:     provider.KindOpenAI.DefaultModel(),
	}

	recipes := &chat.Session{
		ID:      chat.GenerateSessionID(),
		Title:   "Recipe Recommendations",
		Preview: "I need some dinner ideas that are quick and healthy...",
		Messages: []chat.Message{
			{
				ID:        chat.GenerateMessageID(chat.SenderUser),
				Content:   "I need some dinner ideas that are quick and healthy. I'm vegetarian and have about 20 minutes to cook.",
				Sender:    chat.SenderUser,
				Timestamp: now.Add(-24 * time.Hour),
			},
			{
				ID:        chat.GenerateMessageID(chat.SenderAI),
				Content:   "Here are some quick vegetarian dinner ideas:\n\n1. Stir-fried vegetables with tofu and rice\n2. Greek yogurt bowl with chickpeas, cucumber, and olive oil\n3. Quick bean quesadillas with avocado\n4. Veggie pasta with garlic and olive oil\n5. Microwave sweet potato with black beans and salsa",
				Sender:    chat.SenderAI,
				Timestamp: now.Add(-24*time.Hour + 45*time.Second),
			},
		},
		Timestamp: now.Add(-24 * time.Hour),
		Provider:  string(provider.KindGemini),
		Model:     provider.KindGemini.DefaultModel(),
	}

	javascript := &chat.Session{
		ID:      chat.GenerateSessionID(),
		Title:   "JavaScript Help",
		Preview: "How do I use async/await in JavaScript?",
		Messages: []chat.Message{
			{
				ID:        chat.GenerateMessageID(chat.SenderUser),
				Content:   "How do I use async/await in JavaScript? I'm struggling with promises.",
				Sender:    chat.SenderUser,
				Timestamp: now.Add(-48 * time.Hour),
			},
			{
				ID:        chat.GenerateMessageID(chat.SenderAI),
				Content:   "Async/await is a way to work with promises in a more readable, synchronous-like manner.\n\nKey points:\n1. Mark functions with the async keyword to use await inside them\n2. Use await before promises to wait for their resolution\n3. Handle errors with try/catch blocks\n4. Async functions always return promises",
				Sender:    chat.SenderAI,
				Timestamp: now.Add(-48*time.Hour + time.Minute),
			},
		},
		Timestamp: now.Add(-48 * time.Hour),
		Provider:  string(provider.KindAnthropic),
		Model:     provider.KindAnthropic.DefaultModel(),
	}

	return []*chat.Session{quantum, recipes, javascript}
}
