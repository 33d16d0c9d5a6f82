package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/karmapos/internal/seed"
	"github.com/roach88/karmapos/internal/store"
)

// InitResult is the output of karma init.
type InitResult struct {
	Database string `json:"database"`
	Seeded   bool   `json:"seeded"`
	Items    int    `json:"items"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create and seed the database",
		Long: `Create the database if needed and write the initial catalog.

Seeding happens once per database. Any other command also seeds an empty
database with the built-in catalog; init lets you supply your own.

Example:
  karma init
  karma init --catalog ./menu.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, catalogPath, cmd)
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "YAML catalog to seed instead of the built-in one")
	return cmd
}

func runInit(opts *RootOptions, catalogPath string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts)

	var cat *seed.Catalog
	if catalogPath != "" {
		var err error
		if cat, err = seed.LoadFile(catalogPath); err != nil {
			return formatter.Fail("failed to load catalog", err)
		}
		formatter.VerboseLog("Loaded %d item(s) from %s", cat.ItemCount(), catalogPath)
	}

	app, err := openAppWithCatalog(cmd, opts, cat)
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.Store.Count(commandContext(cmd), store.Items)
	if err != nil {
		return formatter.Fail("failed to count items", err)
	}

	result := InitResult{Database: opts.DB, Seeded: app.Seeded, Items: n}
	return formatter.Emit(result, func(w io.Writer) error {
		if result.Seeded {
			fmt.Fprintf(w, "Seeded %s with %d item(s)\n", result.Database, result.Items)
		} else {
			fmt.Fprintf(w, "%s is already initialized (%d item(s))\n", result.Database, result.Items)
		}
		return nil
	})
}
