package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/karmapos/internal/model"
	"github.com/roach88/karmapos/internal/sections"
)

// NewSectionCommand creates the section command group.
func NewSectionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "section",
		Short: "Manage business sections",
	}

	cmd.AddCommand(newSectionListCommand(rootOpts))
	cmd.AddCommand(newSectionAddCommand(rootOpts))
	cmd.AddCommand(newSectionRemoveCommand(rootOpts))
	cmd.AddCommand(newSectionRenderCommand(rootOpts))
	cmd.AddCommand(newSectionQuickPriceCommand(rootOpts))
	return cmd
}

func newSectionListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and custom sections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			all, err := app.Sections.All(commandContext(cmd))
			if err != nil {
				return app.out.Fail("failed to list sections", err)
			}
			return app.out.Emit(all, func(w io.Writer) error {
				return writeSections(w, all)
			})
		},
	}
}

func writeSections(w io.Writer, all []model.Section) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTEMPLATE\tQUICK PRICE\tKIND")
	for _, s := range all {
		quick := "-"
		if s.Template == model.TemplateBooking {
			quick = sections.Money(s.QuickPrice)
		}
		kind := "custom"
		if s.Builtin {
			kind = "built-in"
		}
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\t%s\n", s.ID, s.DisplayIcon(), s.Name, s.Template, quick, kind)
	}
	return tw.Flush()
}

func newSectionAddCommand(rootOpts *RootOptions) *cobra.Command {
	var icon, tmpl string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a custom section",
		Long: `Register a custom section bound to a page template.

Templates:
  pos      item grid with a running invoice
  booking  date and time picker with a quick price
  simple   service description and price

Example:
  karma section add "Playstation" --icon 🎮 --template booking`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			section, err := app.Sections.Register(commandContext(cmd), args[0], icon, model.Template(tmpl))
			if err != nil {
				return app.out.Fail("failed to add section", err)
			}
			return app.out.Emit(section, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Added section %s %s (%s)\n", section.DisplayIcon(), section.Name, section.ID)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&icon, "icon", "", "display icon")
	cmd.Flags().StringVarP(&tmpl, "template", "t", "", "page template (pos|booking|simple)")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

// RemoveResult is the output of section rm and item rm.
type RemoveResult struct {
	ID           string `json:"id"`
	ItemsDeleted int64  `json:"itemsDeleted"`
}

func newSectionRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <section-id>",
		Short: "Remove a custom section and all of its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := commandContext(cmd)

			section, err := app.Sections.Get(ctx, args[0])
			if err != nil {
				return app.out.Fail("failed to remove section", err)
			}
			if !section.Builtin {
				msg := fmt.Sprintf("Delete section %q and all of its items?", section.Name)
				if err := app.Prompts.Require(ctx, msg); err != nil {
					return app.out.Fail("section not removed", err)
				}
			}

			n, err := app.Sections.Remove(ctx, section.ID)
			if err != nil {
				return app.out.Fail("failed to remove section", err)
			}
			result := RemoveResult{ID: section.ID, ItemsDeleted: n}
			return app.out.Emit(result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Removed section %s and %d item(s)\n", section.Name, n)
				return err
			})
		},
	}
}

func newSectionRenderCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "render [section-id]",
		Short: "Render a section page (or the menu) as HTML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := commandContext(cmd)

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return app.out.Fail("failed to create output file", err)
				}
				defer f.Close()
				w = f
			}

			if len(args) == 0 {
				all, err := app.Sections.All(ctx)
				if err != nil {
					return app.out.Fail("failed to render menu", err)
				}
				if err := sections.RenderMenu(w, all); err != nil {
					return app.out.Fail("failed to render menu", err)
				}
				return nil
			}

			section, err := app.Sections.Get(ctx, args[0])
			if err != nil {
				return app.out.Fail("failed to render section", err)
			}
			items, err := app.Store.ItemsBySection(ctx, section.ID)
			if err != nil {
				return app.out.Fail("failed to render section", err)
			}
			if err := sections.Render(w, section, items); err != nil {
				return app.out.Fail("failed to render section", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write HTML to this file instead of stdout")
	return cmd
}

func newSectionQuickPriceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "quick-price <section-id> <price>",
		Short: "Set the quick price of a booking section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := commandContext(cmd)

			price, err := parsePrice(args[1])
			if err != nil {
				return app.out.Fail("failed to set quick price", err)
			}
			section, err := app.Sections.Get(ctx, args[0])
			if err != nil {
				return app.out.Fail("failed to set quick price", err)
			}
			if section.Template != model.TemplateBooking {
				return app.out.Fail("failed to set quick price",
					fmt.Errorf("%w: section %q is not a booking section", errInvalidArgument, section.ID))
			}
			if err := app.Sections.SetQuickPrice(ctx, section.ID, price); err != nil {
				return app.out.Fail("failed to set quick price", err)
			}
			section.QuickPrice = price
			return app.out.Emit(section, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Quick price of %s is now %s\n", section.Name, sections.Money(price))
				return err
			})
		},
	}
}

// parsePrice parses a non-negative amount.
func parsePrice(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: price %q", errInvalidArgument, raw)
	}
	return v, nil
}
