package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/karmapos/internal/model"
	"github.com/roach88/karmapos/internal/sections"
)

// NewItemCommand creates the item command group.
func NewItemCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage the items sold in POS sections",
	}

	cmd.AddCommand(newItemListCommand(rootOpts))
	cmd.AddCommand(newItemAddCommand(rootOpts))
	cmd.AddCommand(newItemRemoveCommand(rootOpts))
	return cmd
}

func newItemListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <section-id>",
		Short: "List the items of a section",
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
				return app.out.Fail("failed to list items", err)
			}
			items, err := app.Store.ItemsBySection(ctx, section.ID)
			if err != nil {
				return app.out.Fail("failed to list items", err)
			}
			return app.out.Emit(items, func(w io.Writer) error {
				if len(items) == 0 {
					_, err := fmt.Fprintf(w, "No items in %s\n", section.Name)
					return err
				}
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tPRICE\tCATEGORY")
				for _, item := range items {
					category := item.Category()
					if category == "" {
						category = "-"
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", item.ID, item.Name, sections.Money(item.Price), category)
				}
				return tw.Flush()
			})
		},
	}
}

func newItemAddCommand(rootOpts *RootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "add <section-id> <name> <price>",
		Short: "Add an item to a POS section",
		Long: `Add an item to a POS section.

Sections with categories (the cafe) need --category.

Example:
  karma item add restaurant "Shawarma" 3500
  karma item add cafe "Espresso" 1500 --category coffee`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := commandContext(cmd)

			section, err := app.Sections.Get(ctx, args[0])
			if err != nil {
				return app.out.Fail("failed to add item", err)
			}
			price, err := parsePrice(args[2])
			if err != nil {
				return app.out.Fail("failed to add item", err)
			}
			sub, err := itemCategory(section, category)
			if err != nil {
				return app.out.Fail("failed to add item", err)
			}

			item, err := app.Seq.AddItem(ctx, model.Item{
				Name:        model.Normalize(args[1]),
				Price:       price,
				SectionID:   section.ID,
				SubCategory: sub,
			})
			if err != nil {
				return app.out.Fail("failed to add item", err)
			}
			return app.out.Emit(item, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Added item %d %s (%s) to %s\n", item.ID, item.Name, sections.Money(item.Price), section.Name)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "sub-category key for sections with categories")
	return cmd
}

// itemCategory checks category against the section's categories.
func itemCategory(section model.Section, category string) (*string, error) {
	if section.Template != model.TemplatePOS {
		return nil, fmt.Errorf("%w: section %q does not sell items", errInvalidArgument, section.ID)
	}
	if len(section.Categories) == 0 {
		if category != "" {
			return nil, fmt.Errorf("%w: section %q has no categories", errInvalidArgument, section.ID)
		}
		return nil, nil
	}
	known := slices.ContainsFunc(section.Categories, func(c model.Category) bool { return c.Key == category })
	if !known {
		keys := make([]string, len(section.Categories))
		for i, c := range section.Categories {
			keys[i] = c.Key
		}
		return nil, fmt.Errorf("%w: category must be one of %v", errInvalidArgument, keys)
	}
	return &category, nil
}

func newItemRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <item-id>",
		Short: "Remove an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := commandContext(cmd)

			id, err := parseID(args[0])
			if err != nil {
				return app.out.Fail("failed to remove item", err)
			}
			item, err := app.Store.GetItem(ctx, id)
			if err != nil {
				return app.out.Fail("failed to remove item", err)
			}
			if err := app.Prompts.Require(ctx, fmt.Sprintf("Delete item %q?", item.Name)); err != nil {
				return app.out.Fail("item not removed", err)
			}
			if err := app.Store.DeleteItem(ctx, id); err != nil {
				return app.out.Fail("failed to remove item", err)
			}
			return app.out.Emit(item, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Removed item %d %s\n", item.ID, item.Name)
				return err
			})
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: id %q", errInvalidArgument, raw)
	}
	return id, nil
}
