// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions.go - Session management commands: list, show, search, delete,
// export.
package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jeranaias/polychat/internal/chat"
	"github.com/jeranaias/polychat/internal/provider"
	"github.com/jeranaias/polychat/internal/util"
)

// runSessions dispatches the sessions subcommands.
func runSessions(ctx context.Context, app *App, parser *ArgParser) int {
	if err := app.ctrl.SetUser(ctx, app.userID); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
		return 1
	}

	switch parser.Positional(1) {
	case "", "list":
		printSessionList(app.ctrl.Sessions(), nil)
		return 0

	case "show":
		session := resolveSession(app, parser.Positional(2))
		if session == nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Session not found."))
			return 1
		}
		printSessionHeader(session)
		printTranscript(session)
		return 0

	case "search":
		query := parser.Positional(2)
		if query == "" {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Usage: polychat sessions search <query>"))
			return 1
		}
		results := app.ctrl.Search(ctx, query)
		if len(results) == 0 {
			fmt.Println(DimStyle.Render("No matching sessions."))
			return 0
		}
		printSessionList(results, nil)
		return 0

	case "delete":
		session := resolveSession(app, parser.Positional(2))
		if session == nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Session not found."))
			return 1
		}
		if !app.ctrl.Delete(ctx, session.ID) {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Session not found."))
			return 1
		}
		fmt.Println(SuccessStyle.Render("Deleted: " + session.Title))
		return 0

	case "export":
		return runExport(app, parser)

	default:
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Unknown subcommand: "+parser.Positional(1)))
		fmt.Fprintln(os.Stderr, "Usage: polychat sessions [list|show|search|delete|export]")
		return 1
	}
}

// runExport writes a session as markdown or JSON, to stdout or --out.
func runExport(app *App, parser *ArgParser) int {
	session := resolveSession(app, parser.Positional(2))
	if session == nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Session not found."))
		return 1
	}

	var data []byte
	switch format := parser.FlagOrDefault("format", "markdown"); format {
	case "markdown", "md":
		data = []byte(session.ExportMarkdown())
	case "json":
		var err error
		data, err = session.ExportJSON()
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
			return 1
		}
	default:
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Unknown format: "+format+" (markdown or json)"))
		return 1
	}

	if out := parser.Flag("out"); out != "" {
		if err := util.AtomicWriteFile(out, data, 0644); err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
			return 1
		}
		fmt.Println(SuccessStyle.Render("Exported to " + out))
		return 0
	}
	fmt.Print(string(data))
	return 0
}

// resolveSession accepts the 1-based index from list output, a session ID,
// or an ID without the "chat-" prefix.
func resolveSession(app *App, target string) *chat.Session {
	if target == "" {
		return nil
	}
	sessions := app.ctrl.Sessions()

	if n, err := strconv.Atoi(target); err == nil && n >= 1 && n <= len(sessions) {
		return sessions[n-1]
	}
	for _, s := range sessions {
		if s.ID == target || s.ID == "chat-"+target {
			return s
		}
	}
	return nil
}

// =============================================================================
// OUTPUT FORMATTING
// =============================================================================

// printSessionList renders sessions as a numbered table, marking the
// current one.
func printSessionList(sessions []*chat.Session, current *chat.Session) {
	if len(sessions) == 0 {
		fmt.Println(DimStyle.Render("No sessions yet. Start one with 'polychat chat'."))
		return
	}
	for i, s := range sessions {
		marker := "  "
		if current != nil && s.ID == current.ID {
			marker = SuccessStyle.Render("* ")
		}
		kind := provider.Kind(s.Provider)
		fmt.Printf("%s%2d. %-34s %-16s %s\n",
			marker, i+1,
			chat.Truncate(s.Title, 34),
			DimStyle.Render(kind.DisplayName()),
			DimStyle.Render(formatAge(s.Timestamp)))
		fmt.Printf("      %s\n", DimStyle.Render(chat.Truncate(s.Preview, 70)))
	}
}

func printSessionHeader(s *chat.Session) {
	kind := provider.Kind(s.Provider)
	fmt.Println(TitleStyle.Render(s.Title))
	fmt.Printf("%s %s (%s)\n", LabelStyle.Render("Provider:"), kind.DisplayName(), s.Model)
	fmt.Printf("%s %s\n", LabelStyle.Render("Updated:"), formatAge(s.Timestamp))
	fmt.Printf("%s %d\n", LabelStyle.Render("Messages:"), s.MessageCount())
	if n := len(s.Messages); n > 0 {
		last := s.Messages[n-1]
		fmt.Printf("%s %s\n", LabelStyle.Render("Last:"), DimStyle.Render(last.Preview(70)))
	}
	fmt.Println()
}

// printTranscript renders the message history with per-sender styling.
func printTranscript(s *chat.Session) {
	width := GetTerminalWidth()
	for _, m := range s.Messages {
		style := UserStyle
		if m.Sender == chat.SenderAI {
			style = AssistantStyle
		}
		fmt.Println(style.Render(m.Sender.DisplayName() + ":"))
		fmt.Println(WrapText(m.Content, width))
		fmt.Println()
	}
}

// formatAge renders a timestamp as a compact relative age ("just now",
// "5m ago", "3h ago", "2d ago") or a date for anything older than a week.
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	age := time.Since(t)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	case age < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
