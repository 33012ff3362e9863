// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller coordinates the session view state: the loaded session
// list, the current session pointer, and the busy flag guarding response
// generation.
//
// # Key Types
//
//   - Controller: the stateful coordinator the CLI drives
//   - State: Uninitialized -> Loading -> Ready lifecycle
//
// # Usage
//
//	ctl := controller.New(repository, orchestrator, users, controller.Options{})
//	ctl.SetUser(ctx, "u1")
//	session, _ := ctl.NewSession(ctx)
//	ctl.SendMessage(ctx, "hello")
//	ctl.GenerateResponse(ctx)
//
// All methods are safe for concurrent use. The list and current pointer
// stay consistent: the current session is always the same object the list
// holds, and deleting the current session clears the pointer.
package controller
