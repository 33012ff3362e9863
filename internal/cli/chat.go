// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat REPL built on liner.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/polychat/internal/chat"
	"github.com/jeranaias/polychat/internal/config"
	"github.com/jeranaias/polychat/internal/provider"
)

// historyFileName is the liner history file, stored in the config dir.
const historyFileName = "chat_history"

// chatREPL wraps liner with persistent history and prompt handling.
type chatREPL struct {
	line        *liner.State
	historyPath string
	app         *App
}

func newChatREPL(app *App) *chatREPL {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &chatREPL{line: line, app: app}
	if dir, err := config.ConfigDir(); err == nil {
		r.historyPath = filepath.Join(dir, historyFileName)
		r.loadHistory()
	}
	return r
}

func (r *chatREPL) loadHistory() {
	f, err := os.Open(r.historyPath)
	if err != nil {
		return
	}
	defer f.Close()
	r.line.ReadHistory(f)
}

func (r *chatREPL) saveHistory() {
	if r.historyPath == "" {
		return
	}
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(r.historyPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	r.line.WriteHistory(f)
}

func (r *chatREPL) close() {
	r.saveHistory()
	r.line.Close()
}

// readInput prompts for one line. The second result is false on Ctrl-C,
// Ctrl-D, or a closed stdin.
func (r *chatREPL) readInput(prompt string) (string, bool) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		if err == liner.ErrPromptAborted || err == io.EOF {
			return "", false
		}
		return "", false
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, true
}

// =============================================================================
// REPL LOOP
// =============================================================================

// runChat starts the interactive chat session.
func runChat(ctx context.Context, app *App, parser *ArgParser) int {
	if err := app.ctrl.SetUser(ctx, app.userID); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
		return 1
	}

	// Resume the most recent session, or start fresh.
	var current *chat.Session
	if sessions := app.ctrl.Sessions(); len(sessions) > 0 {
		current, _ = app.ctrl.Select(ctx, sessions[0].ID)
	}
	if current == nil {
		var err error
		current, err = app.ctrl.NewSession(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
			return 1
		}
	}

	repl := newChatREPL(app)
	defer repl.close()

	// Edits to the config file apply to the running REPL.
	if stop := app.watchConfig(); stop != nil {
		defer stop()
	}

	printChatBanner(current)

	for {
		// liner measures prompt width byte-wise, so the prompt stays
		// unstyled.
		input, ok := repl.readInput("> ")
		if !ok {
			fmt.Println()
			return 0
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := repl.handleCommand(ctx, input); quit {
				return 0
			}
			continue
		}

		repl.send(ctx, input)
	}
}

func printChatBanner(s *chat.Session) {
	kind := provider.Kind(s.Provider)
	fmt.Println(TitleStyle.Render("polychat") + DimStyle.Render(" - "+s.Title))
	fmt.Printf("%s %s (%s)\n", LabelStyle.Render("Provider:"), kind.DisplayName(), s.Model)
	fmt.Println(DimStyle.Render("Type a message, /help for commands, /quit to exit."))
	fmt.Println()
}

// send posts a user message and prints the assistant reply.
func (r *chatREPL) send(ctx context.Context, content string) {
	if _, err := r.app.ctrl.SendMessage(ctx, content); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
		return
	}

	session, err := r.app.ctrl.GenerateResponse(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
		return
	}
	if session == nil || len(session.Messages) == 0 {
		return
	}

	last := session.Messages[len(session.Messages)-1]
	if last.Sender != chat.SenderAI {
		return
	}
	fmt.Println()
	fmt.Println(AssistantStyle.Render(provider.Kind(session.Provider).DisplayName() + ":"))
	fmt.Println(WrapText(last.Content, GetTerminalWidth()))
	fmt.Println()
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleCommand processes a /command. Returns true when the REPL should
// exit.
func (r *chatREPL) handleCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	command := parts[0]
	args := parts[1:]

	switch command {
	case "/quit", "/exit":
		return true

	case "/help":
		r.printHelp()

	case "/new":
		session, err := r.app.ctrl.NewSession(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
			return false
		}
		fmt.Println(SuccessStyle.Render("Started a new conversation."))
		printChatBanner(session)

	case "/sessions":
		printSessionList(r.app.ctrl.Sessions(), r.app.ctrl.Current())

	case "/switch":
		if len(args) == 0 {
			fmt.Println(WarningStyle.Render("Usage: /switch <number|id>"))
			return false
		}
		r.switchSession(ctx, args[0])

	case "/delete":
		current := r.app.ctrl.Current()
		if current == nil {
			fmt.Println(WarningStyle.Render("No current session."))
			return false
		}
		r.app.ctrl.Delete(ctx, current.ID)
		fmt.Println(SuccessStyle.Render("Deleted: " + current.Title))
		if next, err := r.app.ctrl.NewSession(ctx); err == nil {
			printChatBanner(next)
		}

	case "/rename":
		if len(args) == 0 {
			fmt.Println(WarningStyle.Render("Usage: /rename <title>"))
			return false
		}
		title := strings.Join(args, " ")
		if _, err := r.app.ctrl.Rename(ctx, title); err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
			return false
		}
		fmt.Println(SuccessStyle.Render("Renamed to: " + title))

	case "/provider":
		if len(args) == 0 {
			r.printProviders()
			return false
		}
		model := ""
		if len(args) > 1 {
			model = args[1]
		}
		r.setProvider(ctx, args[0], model)

	case "/model":
		if len(args) == 0 {
			fmt.Println(WarningStyle.Render("Usage: /model <name>"))
			return false
		}
		current := r.app.ctrl.Current()
		if current == nil {
			fmt.Println(WarningStyle.Render("No current session."))
			return false
		}
		r.setProvider(ctx, current.Provider, args[0])

	case "/search":
		if len(args) == 0 {
			fmt.Println(WarningStyle.Render("Usage: /search <query>"))
			return false
		}
		query := strings.Join(args, " ")
		printSessionList(r.app.ctrl.Search(ctx, query), r.app.ctrl.Current())

	default:
		fmt.Println(WarningStyle.Render("Unknown command: " + command + " (try /help)"))
	}
	return false
}

func (r *chatREPL) switchSession(ctx context.Context, target string) {
	sessions := r.app.ctrl.Sessions()

	// Accept the 1-based index from /sessions output, or a session ID.
	id := target
	if n, err := strconv.Atoi(target); err == nil {
		if n < 1 || n > len(sessions) {
			fmt.Println(WarningStyle.Render("No such session number."))
			return
		}
		id = sessions[n-1].ID
	}

	session, err := r.app.ctrl.Select(ctx, id)
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
		return
	}
	printChatBanner(session)
	printTranscript(session)
}

func (r *chatREPL) setProvider(ctx context.Context, name, model string) {
	kind := provider.Kind(strings.ToLower(name))
	session, err := r.app.ctrl.UpdateProvider(ctx, kind, model)
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
		return
	}
	fmt.Printf("%s %s (%s)\n", SuccessStyle.Render("Switched to"), kind.DisplayName(), session.Model)
	if profile := r.app.ctrl.User(); profile == nil || profile.APIKey(kind) == "" {
		fmt.Println(DimStyle.Render("No API key stored for this provider; responses will be simulated."))
	}
}

func (r *chatREPL) printProviders() {
	current := r.app.ctrl.Current()
	profile := r.app.ctrl.User()
	for _, kind := range provider.Kinds() {
		marker := "  "
		if current != nil && current.Provider == string(kind) {
			marker = SuccessStyle.Render("* ")
		}
		keyed := DimStyle.Render("no key")
		if profile != nil && profile.APIKey(kind) != "" {
			keyed = SuccessStyle.Render("key stored")
		}
		fmt.Printf("%s%-10s %-22s %s\n", marker, kind, kind.DisplayName(), keyed)
	}
}

func (r *chatREPL) printHelp() {
	fmt.Println(TitleStyle.Render("Commands"))
	fmt.Println("  /new                  Start a new conversation")
	fmt.Println("  /sessions             List conversations")
	fmt.Println("  /switch <n|id>        Switch to another conversation")
	fmt.Println("  /rename <title>       Rename the current conversation")
	fmt.Println("  /delete               Delete the current conversation")
	fmt.Println("  /provider [name]      Show providers, or switch (openai, gemini, anthropic)")
	fmt.Println("  /model <name>         Change the model for the current conversation")
	fmt.Println("  /search <query>       Search conversations")
	fmt.Println("  /quit                 Exit")
}
