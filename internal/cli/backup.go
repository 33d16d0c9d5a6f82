package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/karmapos/internal/backup"
	"github.com/roach88/karmapos/internal/model"
)

// NewBackupCommand creates the backup command group.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export, import and wipe data",
	}

	cmd.AddCommand(newBackupExportCommand(rootOpts))
	cmd.AddCommand(newBackupImportCommand(rootOpts))
	cmd.AddCommand(newBackupWipeCommand(rootOpts))
	cmd.AddCommand(newBackupInfoCommand(rootOpts))
	return cmd
}

func newBackupExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string
	var stdout bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup file",
		Long: `Write every invoice, item and setting to a JSON backup file.

Without --output the file goes to the path used last time. If that path
is missing or cannot be written, a new karma_backup_<date>.json is created
in the backup dir and remembered instead.

Example:
  karma backup export
  karma backup export -o /media/usb/karma.json
  karma backup export --stdout > karma.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := commandContext(cmd)

			if stdout {
				snap, err := backup.Export(ctx, app.Store)
				if err != nil {
					return app.out.Fail("failed to export", err)
				}
				return backup.Encode(cmd.OutOrStdout(), snap)
			}

			var info model.BackupInfo
			if output != "" {
				info, err = app.Backup.SaveTo(ctx, output)
			} else {
				info, err = app.Backup.Save(ctx)
			}
			if err != nil {
				return app.out.Fail("failed to export", err)
			}
			return app.out.Emit(info, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Backup written to %s\n", info.Filename)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "backup file path (remembered for next time)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "write the backup document to stdout")
	cmd.MarkFlagsMutuallyExclusive("output", "stdout")
	return cmd
}

func newBackupImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge a backup file into the current data (admin password required)",
		Long: `Merge a backup file into the current data.

Invoices and items whose id already exists are kept as they are. Id
counters only move forward. Every other setting in the file replaces the
current one. A file that fails validation changes nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return app.out.Fail("failed to read backup", err)
			}
			result, err := app.Backup.Import(commandContext(cmd), data)
			if err != nil {
				return app.out.Fail("failed to import backup", err)
			}
			app.Sections.Invalidate()

			return app.out.Emit(result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w,
					"Imported %d invoice(s) and %d item(s); skipped %d invoice(s) and %d item(s) already present\n",
					result.InvoicesAdded, result.ItemsAdded, result.InvoicesSkipped, result.ItemsSkipped)
				return err
			})
		},
	}
}

func newBackupWipeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "wipe",
		Short: "Delete all data (admin password required)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Backup.Wipe(commandContext(cmd)); err != nil {
				return app.out.Fail("failed to wipe data", err)
			}
			app.Sections.Invalidate()

			return app.out.Emit(map[string]bool{"wiped": true}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, "All data deleted")
				return err
			})
		},
	}
}

func newBackupInfoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the last backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			info, err := app.Backup.Info(commandContext(cmd))
			if err != nil {
				return app.out.Fail("failed to read backup info", err)
			}
			return app.out.Emit(info, func(w io.Writer) error {
				if info == nil {
					_, err := fmt.Fprintln(w, "No backup yet")
					return err
				}
				_, err := fmt.Fprintf(w, "Last backup: %s at %s\n", info.Filename, info.Date.Local().Format("02/01/2006 15:04"))
				return err
			})
		},
	}
}
