package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/karmapos/internal/auth"
	"github.com/roach88/karmapos/internal/sections"
	"github.com/roach88/karmapos/internal/settings"
)

// SettingsView is the output of settings show.
type SettingsView struct {
	settings.Snapshot
	Locked bool `json:"isScreenLocked"`
}

// NewSettingsCommand creates the settings command group.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change settings",
	}

	cmd.AddCommand(newSettingsShowCommand(rootOpts))
	cmd.AddCommand(newSettingsCashierCommand(rootOpts))
	cmd.AddCommand(newSettingsQuickPriceCommand(rootOpts))
	cmd.AddCommand(newSettingsPasswordCommand(rootOpts))
	cmd.AddCommand(newSettingsLockTimeoutCommand(rootOpts))
	cmd.AddCommand(newSettingsResetPasswordCommand(rootOpts))
	return cmd
}

func newSettingsShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Annotations: allowWhileLocked,
		Short:       "Show all settings",
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := commandContext(cmd)

			snap, err := app.Settings.Load(ctx)
			if err != nil {
				return app.out.Fail("failed to load settings", err)
			}
			locked, err := app.Auth.IsLocked(ctx)
			if err != nil {
				return app.out.Fail("failed to load settings", err)
			}
			view := SettingsView{Snapshot: snap, Locked: locked}

			return app.out.Emit(view, func(w io.Writer) error {
				fmt.Fprintf(w, "Cashier:      %s (%s)\n", snap.Cashier.Name, snap.Cashier.Phone)
				fmt.Fprintf(w, "Quick price:  %s\n", sections.Money(snap.QuickPrice))
				if snap.LockTimeout > 0 {
					fmt.Fprintf(w, "Screen lock:  after %d minute(s)\n", snap.LockTimeout)
				} else {
					fmt.Fprintln(w, "Screen lock:  off")
				}
				fmt.Fprintf(w, "Locked:       %t\n", locked)
				if snap.LastBackup != nil {
					fmt.Fprintf(w, "Last backup:  %s\n", snap.LastBackup.Filename)
				} else {
					fmt.Fprintln(w, "Last backup:  never")
				}
				return nil
			})
		},
	}
}

func newSettingsCashierCommand(rootOpts *RootOptions) *cobra.Command {
	var name, phone string

	cmd := &cobra.Command{
		Use:   "cashier",
		Short: "Set the cashier name and phone printed on receipts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Settings.SetCashier(commandContext(cmd), name, phone); err != nil {
				return app.out.Fail("failed to update cashier", err)
			}
			return app.out.Success("Cashier updated")
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "cashier name")
	cmd.Flags().StringVar(&phone, "phone", "", "cashier phone")
	cmd.MarkFlagsOneRequired("name", "phone")
	return cmd
}

func newSettingsQuickPriceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "quick-price <price>",
		Short: "Set the football quick price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			price, err := parsePrice(args[0])
			if err != nil {
				return app.out.Fail("failed to set quick price", err)
			}
			if err := app.Settings.SetQuickPrice(commandContext(cmd), price); err != nil {
				return app.out.Fail("failed to set quick price", err)
			}
			return app.out.Success(fmt.Sprintf("Quick price is now %s", sections.Money(price)))
		},
	}
}

func newSettingsPasswordCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "password <admin|cashier> <new-password>",
		Short: "Change a password (admin password required)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := commandContext(cmd)

			role, err := parseRole(args[0])
			if err != nil {
				return app.out.Fail("failed to change password", err)
			}
			current, err := app.Prompts.Password(ctx, "Admin password")
			if err != nil {
				return app.out.Fail("failed to change password", err)
			}
			if err := app.Auth.Check(ctx, auth.RoleAdmin, current); err != nil {
				return app.out.Fail("failed to change password", err)
			}
			if err := app.Auth.SetPassword(ctx, role, args[1]); err != nil {
				return app.out.Fail("failed to change password", err)
			}
			return app.out.Success(fmt.Sprintf("%s password changed", role))
		},
	}
}

func newSettingsLockTimeoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lock-timeout <minutes>",
		Short: "Set the idle minutes before the screen locks (0 disables)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			minutes, err := strconv.Atoi(args[0])
			if err != nil || minutes < 0 {
				return app.out.Fail("failed to set lock timeout", fmt.Errorf("%w: minutes %q", errInvalidArgument, args[0]))
			}
			if err := app.Settings.SetLockTimeout(commandContext(cmd), minutes); err != nil {
				return app.out.Fail("failed to set lock timeout", err)
			}
			return app.out.Success(fmt.Sprintf("Screen lock timeout is now %d minute(s)", minutes))
		},
	}
}

func newSettingsResetPasswordCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <admin|cashier>",
		Short: "Restore the default password of a role",
		Long: `Restore the default password of a role.

This is the recovery path for a forgotten password and asks for no
password itself. Anyone with access to the database file can run it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := commandContext(cmd)

			role, err := parseRole(args[0])
			if err != nil {
				return app.out.Fail("failed to reset password", err)
			}
			if err := app.Prompts.Require(ctx, fmt.Sprintf("Reset the %s password to the default?", role)); err != nil {
				return app.out.Fail("password not reset", err)
			}
			if err := app.Auth.Reset(ctx, role); err != nil {
				return app.out.Fail("failed to reset password", err)
			}
			return app.out.Success(fmt.Sprintf("%s password reset to the default", role))
		},
	}
}

func parseRole(raw string) (auth.Role, error) {
	switch role := auth.Role(raw); role {
	case auth.RoleAdmin, auth.RoleCashier:
		return role, nil
	default:
		return "", fmt.Errorf("%w: role must be admin or cashier, got %q", errInvalidArgument, raw)
	}
}

// NewLockCommand creates the lock command.
func NewLockCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:         "lock",
		Annotations: allowWhileLocked,
		Short:       "Lock the screen",
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Auth.Lock(commandContext(cmd)); err != nil {
				return app.out.Fail("failed to lock", err)
			}
			return app.out.Success("Screen locked")
		},
	}
}

// NewUnlockCommand creates the unlock command.
func NewUnlockCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:         "unlock",
		Annotations: allowWhileLocked,
		Short:       "Unlock the screen with the cashier password",
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := commandContext(cmd)

			pw, err := app.Prompts.Password(ctx, "Cashier password")
			if err != nil {
				return app.out.Fail("failed to unlock", err)
			}
			if err := app.Auth.Unlock(ctx, pw); err != nil {
				return app.out.Fail("failed to unlock", err)
			}
			return app.out.Success("Screen unlocked")
		},
	}
}
