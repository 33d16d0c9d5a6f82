package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/karmapos/internal/auth"
	"github.com/roach88/karmapos/internal/backup"
	"github.com/roach88/karmapos/internal/history"
	"github.com/roach88/karmapos/internal/prompt"
	"github.com/roach88/karmapos/internal/sections"
	"github.com/roach88/karmapos/internal/seed"
	"github.com/roach88/karmapos/internal/sequencer"
	"github.com/roach88/karmapos/internal/session"
	"github.com/roach88/karmapos/internal/settings"
	"github.com/roach88/karmapos/internal/store"
)

// App is every service a command may need, wired over one open store.
type App struct {
	Store    *store.Store
	Seq      *sequencer.Sequencer
	Sections *sections.Registry
	Auth     *auth.Auth
	Settings *settings.Settings
	History  *history.History
	Backup   *backup.Service
	Sessions *session.Controller
	Prompts  *prompt.Slot
	Logger   *slog.Logger
	Now      func() time.Time

	// Seeded reports whether this open wrote the initial catalog.
	Seeded bool

	out *OutputFormatter
}

// allowLockedAnnotation marks a command that runs while the screen is locked.
const allowLockedAnnotation = "karma/allow-locked"

// allowWhileLocked is the Annotations value for commands exempt from the
// screen lock.
var allowWhileLocked = map[string]string{allowLockedAnnotation: "true"}

func allowedWhileLocked(cmd *cobra.Command) bool {
	return cmd.Annotations[allowLockedAnnotation] == "true"
}

// openApp opens the database, seeds it with the built-in catalog on first
// use and reconciles the id counters. While the screen is locked it fails
// with auth.ErrLocked unless cmd carries allowWhileLocked.
func openApp(cmd *cobra.Command, opts *RootOptions) (*App, error) {
	return openAppWithCatalog(cmd, opts, nil)
}

func openAppWithCatalog(cmd *cobra.Command, opts *RootOptions, cat *seed.Catalog) (*App, error) {
	out := newFormatter(cmd, opts)
	logger := newLogger(cmd, opts)
	ctx := commandContext(cmd)

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	logger.Debug("opening database", "path", opts.DB)
	st, err := store.Open(opts.DB)
	if err != nil {
		return nil, out.Fail("failed to open database", err)
	}

	if cat == nil {
		if cat, err = seed.Default(); err != nil {
			st.Close()
			return nil, out.Fail("failed to load catalog", err)
		}
	}
	seeded, err := seed.Seed(ctx, st, cat, logger)
	if err != nil {
		st.Close()
		return nil, out.Fail("failed to seed database", err)
	}

	seq := sequencer.New(st, logger)
	if err := seq.Reconcile(ctx); err != nil {
		st.Close()
		return nil, out.Fail("failed to reconcile counters", err)
	}

	var p prompt.Prompter = flagPrompter{
		yes:      opts.Yes,
		password: opts.Password,
		fallback: prompt.NewTerminal(cmd.InOrStdin(), cmd.ErrOrStderr()),
	}
	if opts.Prompter != nil {
		p = opts.Prompter
	}
	slot := prompt.NewSlot(p)
	a := auth.New(st, logger)

	if !allowedWhileLocked(cmd) {
		if err := a.RequireUnlocked(ctx); err != nil {
			st.Close()
			return nil, out.Fail("run 'karma unlock' first", err)
		}
	}

	return &App{
		Store:    st,
		Seq:      seq,
		Sections: sections.NewRegistry(st, nil, logger),
		Auth:     a,
		Settings: settings.New(st),
		History: history.New(st, a, slot, history.Options{
			PageSize: opts.PageSize,
			Now:      now,
			Logger:   logger,
		}),
		Backup: backup.NewService(st, a, slot, backup.Options{
			Dir:    opts.BackupDir,
			Now:    now,
			Logger: logger,
		}),
		Sessions: session.NewController(seq, slot, now, logger),
		Prompts:  slot,
		Logger:   logger,
		Now:      now,
		Seeded:   seeded,
		out:      out,
	}, nil
}

// Close closes the store, logging any error.
func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		a.Logger.Error("error closing database", "error", err)
	}
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

func newLogger(cmd *cobra.Command, opts *RootOptions) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
