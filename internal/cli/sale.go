package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/karmapos/internal/history"
	"github.com/roach88/karmapos/internal/model"
	"github.com/roach88/karmapos/internal/sections"
	"github.com/roach88/karmapos/internal/session"
)

// NewSellCommand creates the sell command.
func NewSellCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sell <section-id> <item-id[:qty]>...",
		Short: "Issue a POS invoice",
		Long: `Fill the running invoice of a POS section and issue it.

Each argument adds an item once; item:qty adds it qty times.
Repeating an item adds to its quantity.

Example:
  karma sell restaurant 1 2 2
  karma sell cafe 14:3`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSell(rootOpts, args[0], args[1:], cmd)
		},
	}
}

func runSell(opts *RootOptions, sectionID string, picks []string, cmd *cobra.Command) error {
	app, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer app.Close()
	ctx := commandContext(cmd)

	section, err := app.Sections.Get(ctx, sectionID)
	if err != nil {
		return app.out.Fail("failed to sell", err)
	}
	s, err := app.Sessions.Activate(section)
	if err != nil {
		return app.out.Fail("failed to sell", err)
	}
	defer app.Sessions.Leave(section.ID)

	for _, pick := range picks {
		id, qty, err := parsePick(pick)
		if err != nil {
			return app.out.Fail("failed to sell", err)
		}
		item, err := app.Store.GetItem(ctx, id)
		if err != nil {
			return app.out.Fail("failed to sell", err)
		}
		if item.SectionID != section.ID {
			return app.out.Fail("failed to sell",
				fmt.Errorf("%w: item %d belongs to %q", errInvalidArgument, item.ID, item.SectionID))
		}
		s.Add(item)
		s.ChangeQuantity(item.ID, qty-1)
		app.out.VerboseLog("Added %d x %s", qty, item.Name)
	}

	inv, err := app.Sessions.Checkout(ctx, section.ID)
	if err != nil {
		return app.out.Fail("failed to sell", err)
	}
	return app.out.Emit(inv, func(w io.Writer) error { return writeInvoice(w, inv) })
}

// parsePick parses "id" or "id:qty".
func parsePick(raw string) (int64, int, error) {
	idPart, qtyPart, hasQty := strings.Cut(raw, ":")
	id, err := parseID(idPart)
	if err != nil {
		return 0, 0, err
	}
	if !hasQty {
		return id, 1, nil
	}
	qty, err := strconv.Atoi(qtyPart)
	if err != nil || qty < 1 {
		return 0, 0, fmt.Errorf("%w: quantity %q", errInvalidArgument, qtyPart)
	}
	return id, qty, nil
}

// BookOptions holds flags for the book command.
type BookOptions struct {
	*RootOptions
	Date     string
	Slot     string
	From     string
	To       string
	Price    float64
	Quick    bool
	Field    string
	Customer string
}

// NewBookCommand creates the book command.
func NewBookCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BookOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "book <section-id>",
		Short: "Issue a booking invoice",
		Long: `Issue a booking invoice for a booking section such as the football pitches.

Pick an hourly slot with --slot, or a manual range with --from and --to.
The price is --price, or the section's quick price with --quick.

Example:
  karma book football --slot "18:00 - 19:00" --quick --field "Pitch 1"
  karma book football --from 20:30 --to 22:00 --price 30000 --date 2025-03-14`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBook(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Date, "date", "", "reservation day YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.Slot, "slot", "", `hourly slot, e.g. "18:00 - 19:00"`)
	cmd.Flags().StringVar(&opts.From, "from", "", "manual start HH:MM")
	cmd.Flags().StringVar(&opts.To, "to", "", "manual end HH:MM")
	cmd.Flags().Float64Var(&opts.Price, "price", 0, "price")
	cmd.Flags().BoolVar(&opts.Quick, "quick", false, "use the section's quick price")
	cmd.Flags().StringVar(&opts.Field, "field", "", "field or room name")
	cmd.Flags().StringVar(&opts.Customer, "customer", "", "customer name")
	cmd.MarkFlagsMutuallyExclusive("slot", "from")
	cmd.MarkFlagsMutuallyExclusive("slot", "to")
	cmd.MarkFlagsMutuallyExclusive("price", "quick")
	return cmd
}

func runBook(opts *BookOptions, sectionID string, cmd *cobra.Command) error {
	app, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer app.Close()
	ctx := commandContext(cmd)

	section, err := app.Sections.Get(ctx, sectionID)
	if err != nil {
		return app.out.Fail("failed to book", err)
	}

	req := session.BookingRequest{
		Slot:         opts.Slot,
		ManualStart:  opts.From,
		ManualEnd:    opts.To,
		Price:        opts.Price,
		FieldName:    opts.Field,
		CustomerName: opts.Customer,
	}
	if opts.Quick {
		req.Price = section.QuickPrice
	}
	if opts.Date != "" {
		day, err := time.ParseInLocation(time.DateOnly, opts.Date, time.Local)
		if err != nil {
			return app.out.Fail("failed to book", fmt.Errorf("%w: date %q", errInvalidArgument, opts.Date))
		}
		req.ReservationDate = day
	}

	inv, err := app.Sessions.IssueBooking(ctx, section, req)
	if err != nil {
		return app.out.Fail("failed to book", err)
	}
	return app.out.Emit(inv, func(w io.Writer) error { return writeInvoice(w, inv) })
}

// NewServiceCommand creates the service command.
func NewServiceCommand(rootOpts *RootOptions) *cobra.Command {
	var name string
	var price float64

	cmd := &cobra.Command{
		Use:   "service <section-id>",
		Short: "Issue a service invoice for a simple section",
		Long: `Issue a service invoice for a section with the simple template.

Example:
  karma service custom_0190... --name "Car wash" --price 5000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := commandContext(cmd)

			section, err := app.Sections.Get(ctx, args[0])
			if err != nil {
				return app.out.Fail("failed to issue service", err)
			}
			inv, err := app.Sessions.IssueSimple(ctx, section, name, price)
			if err != nil {
				return app.out.Fail("failed to issue service", err)
			}
			return app.out.Emit(inv, func(w io.Writer) error { return writeInvoice(w, inv) })
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "service description (default: section name)")
	cmd.Flags().Float64Var(&price, "price", 0, "price")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

// writeInvoice prints an invoice as a receipt.
func writeInvoice(w io.Writer, inv model.Invoice) error {
	fmt.Fprintf(w, "Invoice #%d  %s\n", inv.ID, inv.Date.Local().Format("02/01/2006 15:04"))
	fmt.Fprintf(w, "%s\n", history.Describe(inv))
	for _, line := range inv.Details.Items {
		fmt.Fprintf(w, "  %d x %s  %s\n", line.Quantity, line.Name, sections.Money(line.Subtotal()))
	}
	_, err := fmt.Fprintf(w, "Total: %s\n", sections.Money(inv.Total))
	return err
}
