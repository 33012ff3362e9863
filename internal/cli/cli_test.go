// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/polychat/internal/config"
)

func TestArgParser_Subcommand(t *testing.T) {
	parser := NewArgParser([]string{"sessions", "show", "3"})
	if got := parser.Subcommand(); got != "sessions" {
		t.Errorf("Subcommand() = %q, want %q", got, "sessions")
	}
	if got := parser.Positional(1); got != "show" {
		t.Errorf("Positional(1) = %q, want %q", got, "show")
	}
	if got := parser.Positional(2); got != "3" {
		t.Errorf("Positional(2) = %q, want %q", got, "3")
	}
}

func TestArgParser_Flags(t *testing.T) {
	parser := NewArgParser([]string{"export", "1", "--format", "json", "--out=chat.json", "--force"})

	if got := parser.Flag("format"); got != "json" {
		t.Errorf("Flag(format) = %q, want %q", got, "json")
	}
	if got := parser.Flag("out"); got != "chat.json" {
		t.Errorf("Flag(out) = %q, want %q", got, "chat.json")
	}
	if !parser.BoolFlag("force") {
		t.Error("BoolFlag(force) = false, want true")
	}
	if parser.HasFlag("missing") {
		t.Error("HasFlag(missing) = true, want false")
	}
}

func TestArgParser_FlagOrDefault(t *testing.T) {
	parser := NewArgParser([]string{"export"})
	if got := parser.FlagOrDefault("format", "markdown"); got != "markdown" {
		t.Errorf("FlagOrDefault = %q, want %q", got, "markdown")
	}
}

func TestArgParser_BoolEquals(t *testing.T) {
	parser := NewArgParser([]string{"--color=false"})
	if parser.BoolFlag("color") {
		t.Error("BoolFlag(color) = true, want false")
	}
	if !parser.HasFlag("color") {
		t.Error("HasFlag(color) = false, want true")
	}
}

func TestArgParser_PositionalFrom(t *testing.T) {
	parser := NewArgParser([]string{"rename", "my", "new", "title", "--user", "alice"})
	got := strings.Join(parser.PositionalFrom(1), " ")
	if got != "my new title" {
		t.Errorf("PositionalFrom(1) joined = %q, want %q", got, "my new title")
	}
	if parser.Flag("user") != "alice" {
		t.Errorf("Flag(user) = %q, want alice", parser.Flag("user"))
	}
	if got := parser.PositionalFrom(99); len(got) != 0 {
		t.Errorf("PositionalFrom(99) = %v, want empty", got)
	}
}

func TestWrapText(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	wrapped := WrapText(text, 20)
	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > 20 {
			t.Errorf("line %q exceeds width 20", line)
		}
	}
	joined := strings.ReplaceAll(wrapped, "\n", " ")
	if joined != text {
		t.Errorf("wrapping lost content: %q", joined)
	}
}

func TestWrapText_PreservesNewlines(t *testing.T) {
	wrapped := WrapText("one\ntwo", 40)
	if wrapped != "one\ntwo" {
		t.Errorf("WrapText = %q, want %q", wrapped, "one\ntwo")
	}
}

func TestWrapText_MultibyteWidth(t *testing.T) {
	// Each word is 5 cells but 10 bytes; byte-based measurement would
	// break after every word.
	text := "ééééé ééééé ééééé"
	wrapped := WrapText(text, 14)
	want := "ééééé ééééé\nééééé"
	if wrapped != want {
		t.Errorf("WrapText = %q, want %q", wrapped, want)
	}
}

func TestApplyConfigRetunesRepository(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "memory"
	app, err := newApp(cfg, "u1")
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer app.Close()

	ctx := context.Background()
	if err := app.ctrl.SetUser(ctx, "u1"); err != nil {
		t.Fatalf("SetUser: %v", err)
	}
	if _, err := app.ctrl.NewSession(ctx); err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	tuned := config.Default()
	tuned.Chat.TitleMaxLen = 10
	tuned.Chat.PreviewMaxLen = 12
	app.applyConfig(tuned)

	session, err := app.ctrl.SendMessage(ctx, "abcdefghijklmnopqrstuvwxyz")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if session.Title != "abcdefghij..." {
		t.Errorf("title = %q, want the retuned 10-rune budget", session.Title)
	}
	if session.Preview != "abcdefghijkl..." {
		t.Errorf("preview = %q, want the retuned 12-rune budget", session.Preview)
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"just now", now.Add(-30 * time.Second), "just now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days", now.Add(-48 * time.Hour), "2d ago"},
		{"zero", time.Time{}, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatAge(tt.t); got != tt.want {
				t.Errorf("formatAge = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatAge_OldDatesUseAbsolute(t *testing.T) {
	old := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	if got := formatAge(old); got != "2024-03-15" {
		t.Errorf("formatAge = %q, want 2024-03-15", got)
	}
}
