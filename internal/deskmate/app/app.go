// Package app wires the assistant together: store, catalog, synonym index,
// resolver, learner, history engine, permission gate, and the interactive
// command loop.
package app

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/deskmate-ai/deskmate/internal/deskmate/automation/apps"
	"github.com/deskmate-ai/deskmate/internal/deskmate/automation/browser"
	"github.com/deskmate-ai/deskmate/internal/deskmate/automation/email"
	"github.com/deskmate-ai/deskmate/internal/deskmate/automation/media"
	"github.com/deskmate-ai/deskmate/internal/deskmate/automation/system"
	"github.com/deskmate-ai/deskmate/internal/deskmate/catalog"
	"github.com/deskmate-ai/deskmate/internal/deskmate/config"
	"github.com/deskmate-ai/deskmate/internal/deskmate/handler"
	"github.com/deskmate-ai/deskmate/internal/deskmate/history"
	"github.com/deskmate-ai/deskmate/internal/deskmate/learner"
	"github.com/deskmate-ai/deskmate/internal/deskmate/permissions"
	"github.com/deskmate-ai/deskmate/internal/deskmate/prompt"
	"github.com/deskmate-ai/deskmate/internal/deskmate/resolver"
	"github.com/deskmate-ai/deskmate/internal/deskmate/store"
	"github.com/deskmate-ai/deskmate/internal/deskmate/synonyms"
)

//go:embed commands.yaml
var defaultCommands []byte

// App is the assembled assistant.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	catalog   *catalog.Catalog
	gate      *permissions.Gate
	handler   *handler.Handler
	sessionID string

	scanner *bufio.Scanner
	out     io.Writer
}

// New builds an App from configuration. The prompt port and command loop
// read from in and write to out (normally stdin/stdout).
func New(cfg *config.Config, in io.Reader, out io.Writer) (*App, error) {
	logger := newLogger(cfg.Log.Level)

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	cat := catalog.New(logger)
	cat.RegisterProvider(apps.Module)
	cat.RegisterProvider(browser.Module)
	cat.RegisterProvider(media.Module)
	cat.RegisterProvider(system.Module)
	cat.RegisterProvider(email.Module)

	index, err := loadSynonyms(cfg.Commands.Path)
	if err != nil {
		st.Close()
		return nil, err
	}

	// One scanner shared by the command loop and the prompt port so neither
	// buffers ahead of the other on piped input.
	scanner := bufio.NewScanner(in)
	prompter := prompt.NewStdioScanner(scanner, out)

	learn := learner.New(index, cat, st, prompter, logger)
	res := resolver.New(st, cat, index, nil, prompter, learn, logger)
	hist := history.New(st, cat, logger)
	gate := permissions.NewGate(cfg.Users.Path, logger)
	h := handler.New(res, cat, gate, hist, st, cfg.User.ID, logger)

	return &App{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		catalog:   cat,
		gate:      gate,
		handler:   h,
		sessionID: uuid.NewString(),
		scanner:   scanner,
		out:       out,
	}, nil
}

// newLogger builds the application logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// loadSynonyms loads the synonym index from the configured path, falling
// back to the embedded defaults when no path is set or the file is absent.
func loadSynonyms(path string) (*synonyms.Index, error) {
	if path != "" {
		index, err := synonyms.Load(path)
		if err == nil {
			return index, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load synonym config: %w", err)
		}
	}
	index, err := synonyms.Parse(defaultCommands)
	if err != nil {
		return nil, fmt.Errorf("failed to parse default synonym config: %w", err)
	}
	return index, nil
}

// Handler exposes the command handler for the CLI subcommands.
func (a *App) Handler() *handler.Handler { return a.handler }

// Gate exposes the permission gate for user administration.
func (a *App) Gate() *permissions.Gate { return a.gate }

// ActionKeys lists the discoverable action keys, sorted.
func (a *App) ActionKeys() []string { return a.catalog.ListActionKeys() }

// Close releases the store.
func (a *App) Close() error {
	return a.store.Close()
}

// Run starts the interactive command loop and blocks until EOF, "exit", or
// a termination signal.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("session started", "session_id", a.sessionID, "user", a.cfg.User.ID)
	fmt.Fprintln(a.out, "Deskmate ready. Type a command, or 'help' for builtins.")

	for {
		fmt.Fprint(a.out, "deskmate> ")
		if !a.scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}

		line := strings.TrimSpace(a.scanner.Text())
		if line == "" {
			continue
		}
		if a.dispatchBuiltin(ctx, line) {
			if line == "exit" || line == "quit" {
				break
			}
			continue
		}

		resp := a.handler.Execute(ctx, line)
		a.printResponse(resp)
	}

	a.logger.Info("session ended", "session_id", a.sessionID)
	return a.scanner.Err()
}

// dispatchBuiltin handles the loop's built-in commands. Returns false when
// the line should go through normal resolution.
func (a *App) dispatchBuiltin(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "exit", "quit":
		return true

	case "help":
		fmt.Fprintln(a.out, `Builtins:
  undo            undo the last action
  redo            redo the last undone action
  history [n]     show recent history events
  actions         list available action keys
  clear <text>    forget the learned mapping for <text>
  exit            leave the assistant
Anything else is resolved as an automation command.`)
		return true

	case "undo":
		a.printResponse(a.handler.Undo(ctx))
		return true

	case "redo":
		a.printResponse(a.handler.Redo(ctx))
		return true

	case "history":
		limit := a.cfg.History.Limit
		if len(fields) > 1 {
			if n, err := strconv.Atoi(fields[1]); err == nil && n > 0 {
				limit = n
			}
		}
		events, err := a.handler.History(ctx, limit)
		if err != nil {
			fmt.Fprintf(a.out, "error: failed to load history\n")
			a.logger.Error("failed to load history", "error", err)
			return true
		}
		for _, e := range events {
			fmt.Fprintf(a.out, "%s  %-7s  %s (%s)\n",
				e.Timestamp.Format("2006-01-02 15:04:05"), e.Kind, e.Command, e.ActionKey)
		}
		return true

	case "actions":
		for _, key := range a.catalog.ListActionKeys() {
			fmt.Fprintf(a.out, "  %s\n", key)
		}
		return true

	case "clear":
		if len(fields) < 2 {
			fmt.Fprintln(a.out, "usage: clear <command text>")
			return true
		}
		text := strings.TrimSpace(strings.TrimPrefix(line, "clear"))
		a.printResponse(a.handler.ClearMapping(ctx, text))
		return true
	}
	return false
}

func (a *App) printResponse(resp *handler.Response) {
	if resp.Status == handler.StatusSuccess {
		fmt.Fprintf(a.out, "ok: %s\n", resp.Message)
		return
	}
	fmt.Fprintf(a.out, "error: %s\n", resp.Message)
}
