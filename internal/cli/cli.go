// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command dispatch and application wiring.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jeranaias/polychat/internal/config"
	"github.com/jeranaias/polychat/internal/controller"
	"github.com/jeranaias/polychat/internal/repo"
	"github.com/jeranaias/polychat/internal/respond"
	"github.com/jeranaias/polychat/internal/store"
	"github.com/jeranaias/polychat/internal/user"
)

// Version is the release version, overridden at build time via
// -ldflags "-X github.com/jeranaias/polychat/internal/cli.Version=...".
var Version = "dev"

// DefaultUserID is the profile used when --user is not given. The store is
// keyed per user, so a multi-account setup just passes different IDs.
const DefaultUserID = "local"

// =============================================================================
// APPLICATION WIRING
// =============================================================================

// App holds the assembled service graph for one CLI invocation.
type App struct {
	cfg    *config.Config
	kv     store.KV
	repo   *repo.Repository
	orch   *respond.Orchestrator
	users  *user.Store
	ctrl   *controller.Controller
	userID string
}

// newApp builds the store, repository, orchestrator, and controller from
// configuration.
func newApp(cfg *config.Config, userID string) (*App, error) {
	kv, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	r := repo.New(kv, repo.Options{
		DuplicateWindow: cfg.Chat.DuplicateWindow(),
		TitleMaxLen:     cfg.Chat.TitleMaxLen,
		PreviewMaxLen:   cfg.Chat.PreviewMaxLen,
	})
	orch := respond.New(r, respond.Options{
		Timeout: cfg.Provider.Timeout(),
	})
	users := user.NewStore(kv)
	ctrl := controller.New(r, orch, users, controller.Options{
		SeedExamples:    true,
		DefaultProvider: cfg.Provider.DefaultProvider,
		DefaultModel:    cfg.Provider.DefaultModel,
	})

	return &App{
		cfg:    cfg,
		kv:     kv,
		repo:   r,
		orch:   orch,
		users:  users,
		ctrl:   ctrl,
		userID: userID,
	}, nil
}

// openStore selects the persistence backend from configuration.
func openStore(cfg *config.Config) (store.KV, error) {
	dir := cfg.Store.Dir
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".polychat", "store")
	}

	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemoryKV(), nil
	case "sqlite":
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("cannot create store directory: %w", err)
		}
		return store.OpenSQLiteKV(filepath.Join(dir, "polychat.db"))
	default:
		return store.OpenFileKVAt(dir)
	}
}

// Close releases store resources (the SQLite backend holds a connection).
func (a *App) Close() {
	if closer, ok := a.kv.(io.Closer); ok {
		closer.Close()
	}
}

// applyConfig re-applies the runtime tunables after a config reload. The
// store backend and user wiring are fixed for the process lifetime; only
// the reconciler budgets and the provider timeout follow the file.
func (a *App) applyConfig(cfg *config.Config) {
	a.repo.SetTunables(cfg.Chat.DuplicateWindow(), cfg.Chat.TitleMaxLen, cfg.Chat.PreviewMaxLen)
	a.orch.SetTimeout(cfg.Provider.Timeout())
}

// watchConfig starts live config reload for long-running commands. Returns
// a nil cleanup when watching is unavailable; the REPL runs fine without it.
func (a *App) watchConfig() func() {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return nil
	}
	watcher, err := config.Watch(path, a.applyConfig, nil)
	if err != nil {
		return nil
	}
	return func() { watcher.Close() }
}

// =============================================================================
// COMMAND DISPATCH
// =============================================================================

// Run dispatches a CLI invocation and returns the process exit code.
func Run(args []string) int {
	parser := NewArgParser(args)

	command := parser.Subcommand()
	if command == "" || command == "help" || parser.BoolFlag("help") {
		printUsage()
		return 0
	}

	if command == "version" {
		fmt.Printf("polychat %s\n", Version)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		// Load falls back to defaults on a broken file; err here means the
		// fallback itself failed.
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
		return 1
	}
	if !cfg.UI.Color {
		DisableColors()
	}

	// The config command operates on files directly and must work even
	// when the store cannot be opened.
	if command == "config" {
		return runConfig(cfg, parser)
	}

	userID := parser.FlagOrDefault("user", DefaultUserID)
	app, err := newApp(cfg, userID)
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
		return 1
	}
	defer app.Close()

	ctx := context.Background()

	switch command {
	case "chat":
		return runChat(ctx, app, parser)
	case "sessions":
		return runSessions(ctx, app, parser)
	case "key":
		return runKey(ctx, app, parser)
	default:
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Unknown command: "+command))
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Println(TitleStyle.Render("polychat") + " - multi-provider AI chat client")
	fmt.Println()
	fmt.Println("Usage: polychat <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  chat                        Start the interactive chat REPL")
	fmt.Println("  sessions [list]             List saved sessions")
	fmt.Println("  sessions show <id>          Show a session transcript")
	fmt.Println("  sessions search <query>     Search titles, previews, and messages")
	fmt.Println("  sessions delete <id>        Delete a session")
	fmt.Println("  sessions export <id>        Export a session (--format markdown|json)")
	fmt.Println("  key set <provider>          Store an API key (openai, gemini, anthropic)")
	fmt.Println("  key show                    Show stored keys (masked)")
	fmt.Println("  key clear <provider>        Remove a stored API key")
	fmt.Println("  config [show|init|path]     Manage configuration")
	fmt.Println("  version                     Show version information")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --user <id>                 Profile to operate on (default: local)")
	fmt.Println()
	fmt.Println(DimStyle.Render("Without an API key, responses are simulated. Add one with 'polychat key set <provider>'."))
}
