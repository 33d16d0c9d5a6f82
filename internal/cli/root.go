package cli

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/karmapos/internal/prompt"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	DB        string
	BackupDir string
	PageSize  int
	EnvFile   string
	Addr      string

	// Yes answers every confirmation with yes.
	Yes bool
	// Password answers every password prompt.
	Password string

	// Prompter overrides the terminal prompter (for testing).
	Prompter prompt.Prompter
	// Now overrides the clock (for testing).
	Now func() time.Time
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the karma CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "karma",
		Short: "Karma point of sale",
		Long: `Point of sale and booking for a restaurant, a cafe and football pitches,
plus any number of custom sections.

All data lives in one SQLite file. Settings come from flags, then the
environment (KARMA_DB, KARMA_BACKUP_DIR, KARMA_ADDR, KARMA_PAGE_SIZE),
then an optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg, err := LoadConfig(opts.EnvFile)
			if err != nil {
				return newFormatter(cmd, opts).Fail("invalid configuration", err)
			}
			applyConfig(cmd, opts, cfg)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.DB, "db", DefaultDB, "path to SQLite database (env "+EnvDB+")")
	flags.StringVar(&opts.BackupDir, "backup-dir", DefaultBackupDir, "directory for new backup files (env "+EnvBackupDir+")")
	flags.IntVar(&opts.PageSize, "page-size", 0, "invoices per history page (env "+EnvPageSize+")")
	flags.StringVar(&opts.EnvFile, "env-file", ".env", "optional dotenv file")
	flags.BoolVarP(&opts.Yes, "yes", "y", false, "answer yes to every confirmation")
	flags.StringVar(&opts.Password, "password", "", "answer password prompts with this value")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewSectionCommand(opts))
	cmd.AddCommand(NewItemCommand(opts))
	cmd.AddCommand(NewSellCommand(opts))
	cmd.AddCommand(NewBookCommand(opts))
	cmd.AddCommand(NewServiceCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewSettingsCommand(opts))
	cmd.AddCommand(NewLockCommand(opts))
	cmd.AddCommand(NewUnlockCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// flagPrompter answers from --yes and --password and asks the fallback
// for anything those flags leave open.
type flagPrompter struct {
	yes      bool
	password string
	fallback prompt.Prompter
}

func (p flagPrompter) Confirm(ctx context.Context, message string) (bool, error) {
	if p.yes {
		return true, nil
	}
	return p.fallback.Confirm(ctx, message)
}

func (p flagPrompter) Password(ctx context.Context, message string) (string, error) {
	if p.password != "" {
		return p.password, nil
	}
	return p.fallback.Password(ctx, message)
}
