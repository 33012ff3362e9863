// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration commands: show, init, path.
package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/polychat/internal/config"
)

// runConfig dispatches the config subcommands. It takes the already-loaded
// config so "show" reflects env overrides and clamping.
func runConfig(cfg *config.Config, parser *ArgParser) int {
	switch parser.Positional(1) {
	case "", "show":
		printConfig(cfg)
		return 0

	case "init":
		path, err := config.ConfigPathTOML()
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
			return 1
		}
		if _, err := os.Stat(path); err == nil && !parser.BoolFlag("force") {
			fmt.Fprintln(os.Stderr, WarningStyle.Render("Config already exists: "+path))
			fmt.Fprintln(os.Stderr, DimStyle.Render("Use --force to overwrite."))
			return 1
		}
		if err := config.SaveTOML(config.Default(), path); err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
			return 1
		}
		fmt.Println(SuccessStyle.Render("Wrote " + path))
		return 0

	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
			return 1
		}
		fmt.Println(path)
		return 0

	default:
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Unknown subcommand: "+parser.Positional(1)))
		fmt.Fprintln(os.Stderr, "Usage: polychat config [show|init|path]")
		return 1
	}
}

func printConfig(cfg *config.Config) {
	fmt.Println(TitleStyle.Render("Configuration"))
	fmt.Printf("%s %s\n", LabelStyle.Render("Backend:"), cfg.Store.Backend)
	dir := cfg.Store.Dir
	if dir == "" {
		dir = DimStyle.Render("(default: ~/.polychat/store)")
	}
	fmt.Printf("%s %s\n", LabelStyle.Render("Store dir:"), dir)
	fmt.Printf("%s %s\n", LabelStyle.Render("Provider:"), cfg.Provider.DefaultProvider)
	model := cfg.Provider.DefaultModel
	if model == "" {
		model = DimStyle.Render("(provider default)")
	}
	fmt.Printf("%s %s\n", LabelStyle.Render("Model:"), model)
	fmt.Printf("%s %ds\n", LabelStyle.Render("Timeout:"), cfg.Provider.TimeoutSecs)
	fmt.Printf("%s %ds window, title %d, preview %d\n", LabelStyle.Render("Chat:"),
		cfg.Chat.DuplicateWindowSecs, cfg.Chat.TitleMaxLen, cfg.Chat.PreviewMaxLen)
	fmt.Printf("%s %v\n", LabelStyle.Render("Color:"), cfg.UI.Color)
}
