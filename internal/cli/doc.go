// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the polychat command-line interface.
//
// The CLI wires the store, repository, orchestrator, and controller
// together and exposes them as commands:
//
//	polychat chat                 Interactive chat REPL
//	polychat sessions             List, show, search, export, delete sessions
//	polychat key                  Manage provider API keys
//	polychat config               Show or initialize configuration
//	polychat version              Show version information
//
// Output styling adapts to the terminal: colors are disabled for piped
// output and when NO_COLOR is set.
package cli
