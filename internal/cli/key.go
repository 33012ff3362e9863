// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// key.go - API key management: set, show (masked), clear.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jeranaias/polychat/internal/provider"
	"github.com/jeranaias/polychat/internal/util"
)

// runKey dispatches the key subcommands.
func runKey(ctx context.Context, app *App, parser *ArgParser) int {
	switch parser.Positional(1) {
	case "set":
		return runKeySet(ctx, app, parser)
	case "show", "":
		return runKeyShow(ctx, app)
	case "clear":
		return runKeyClear(ctx, app, parser)
	default:
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Unknown subcommand: "+parser.Positional(1)))
		fmt.Fprintln(os.Stderr, "Usage: polychat key [set|show|clear] <provider>")
		return 1
	}
}

func parseKind(name string) (provider.Kind, bool) {
	kind := provider.Kind(strings.ToLower(name))
	return kind, kind.Valid()
}

// runKeySet stores a provider API key on the user profile. The key is read
// without echo from a terminal, or from a piped stdin line.
func runKeySet(ctx context.Context, app *App, parser *ArgParser) int {
	kind, ok := parseKind(parser.Positional(2))
	if !ok {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Usage: polychat key set <openai|gemini|anthropic>"))
		return 1
	}

	key, err := readKey(kind)
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
		return 1
	}
	if !kind.ValidateCredential(key) {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render(
			fmt.Sprintf("Invalid key: %s keys start with %q.", kind.DisplayName(), kind.KeyPrefix())))
		return 1
	}

	profile, err := app.users.Get(ctx, app.userID)
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
		return 1
	}
	profile.SetAPIKey(kind, key)
	if err := app.users.Save(ctx, profile); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
		return 1
	}

	fmt.Printf("%s %s key stored (%s).\n",
		SuccessStyle.Render("Saved."), kind.DisplayName(), util.MaskKey(key))
	return 0
}

// readKey prompts without echo on a terminal; a piped stdin is read as one
// line so keys can be provided by scripts.
func readKey(kind provider.Kind) (string, error) {
	if IsTTY() {
		fmt.Printf("Enter %s API key: ", kind.DisplayName())
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("no key provided on stdin")
	}
	return strings.TrimSpace(scanner.Text()), nil
}

// runKeyShow lists stored keys, masked.
func runKeyShow(ctx context.Context, app *App) int {
	profile, err := app.users.Get(ctx, app.userID)
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
		return 1
	}

	for _, kind := range provider.Kinds() {
		key := profile.APIKey(kind)
		status := DimStyle.Render("not set")
		if key != "" {
			status = util.MaskKey(key)
		}
		fmt.Printf("%s %s\n", LabelStyle.Render(kind.DisplayName()+":"), status)
	}
	return 0
}

// runKeyClear removes a stored key.
func runKeyClear(ctx context.Context, app *App, parser *ArgParser) int {
	kind, ok := parseKind(parser.Positional(2))
	if !ok {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Usage: polychat key clear <openai|gemini|anthropic>"))
		return 1
	}

	profile, err := app.users.Get(ctx, app.userID)
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
		return 1
	}
	if profile.APIKey(kind) == "" {
		fmt.Println(DimStyle.Render("No " + kind.DisplayName() + " key stored."))
		return 0
	}
	profile.SetAPIKey(kind, "")
	if err := app.users.Save(ctx, profile); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
		return 1
	}
	fmt.Println(SuccessStyle.Render(kind.DisplayName() + " key removed."))
	return 0
}
