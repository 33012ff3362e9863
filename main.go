// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// polychat is a multi-provider AI chat client for the terminal.
package main

import (
	"os"

	"github.com/jeranaias/polychat/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
