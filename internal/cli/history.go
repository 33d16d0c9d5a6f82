package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/karmapos/internal/history"
	"github.com/roach88/karmapos/internal/sections"
)

// NewHistoryCommand creates the history command group.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse issued invoices",
	}

	cmd.AddCommand(newHistoryListCommand(rootOpts))
	cmd.AddCommand(newHistoryShowCommand(rootOpts))
	cmd.AddCommand(newHistoryRemoveCommand(rootOpts))
	return cmd
}

func newHistoryListCommand(rootOpts *RootOptions) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			if page < 1 {
				return app.out.Fail("failed to list invoices", fmt.Errorf("%w: page %d", errInvalidArgument, page))
			}
			p, err := app.History.Page(commandContext(cmd), page)
			if err != nil {
				return app.out.Fail("failed to list invoices", err)
			}
			return app.out.Emit(p, func(w io.Writer) error { return writePage(w, p) })
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

func writePage(w io.Writer, p history.Page) error {
	if p.Count == 0 {
		_, err := fmt.Fprintln(w, "No invoices yet")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tSECTION\tDESCRIPTION\tTOTAL")
	for _, inv := range p.Invoices {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			inv.ID, inv.Date.Local().Format("02/01/2006 15:04"), inv.SectionName, history.Describe(inv), sections.Money(inv.Total))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	nav := fmt.Sprintf("Page %d of %d (%d invoices)", p.Page, p.TotalPages, p.Count)
	if p.HasNext() {
		nav += fmt.Sprintf(", next: --page %d", p.Page+1)
	}
	_, err := fmt.Fprintln(w, nav)
	return err
}

func newHistoryShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <invoice-id>",
		Short: "Show one invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			id, err := parseID(args[0])
			if err != nil {
				return app.out.Fail("failed to find invoice", err)
			}
			inv, err := app.History.Find(commandContext(cmd), id)
			if err != nil {
				return app.out.Fail("failed to find invoice", err)
			}
			return app.out.Emit(inv, func(w io.Writer) error { return writeInvoice(w, inv) })
		},
	}
}

func newHistoryRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <invoice-id>",
		Short: "Delete an invoice (admin password required)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			id, err := parseID(args[0])
			if err != nil {
				return app.out.Fail("failed to delete invoice", err)
			}
			if err := app.History.Delete(commandContext(cmd), id); err != nil {
				return app.out.Fail("failed to delete invoice", err)
			}
			return app.out.Emit(map[string]int64{"deleted": id}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Deleted invoice #%d\n", id)
				return err
			})
		},
	}
}

// NewReportCommand creates the report command group.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize invoices over a period",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "today",
		Short: "Report from midnight to now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(rootOpts, cmd, func(h *history.History) (history.Report, error) {
				return h.Today(commandContext(cmd))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "days <n>",
		Short: "Report for the last n days, today included",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := strconv.Atoi(args[0])
			if err != nil || days < 1 {
				return newFormatter(cmd, rootOpts).Fail("failed to build report",
					fmt.Errorf("%w: days %q", errInvalidArgument, args[0]))
			}
			return runReport(rootOpts, cmd, func(h *history.History) (history.Report, error) {
				return h.LastDays(commandContext(cmd), days)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "range <from> <to>",
		Short: "Report for whole days YYYY-MM-DD through YYYY-MM-DD",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, rootOpts)
			from, err := time.ParseInLocation(time.DateOnly, args[0], time.Local)
			if err != nil {
				return formatter.Fail("failed to build report", fmt.Errorf("%w: from %q", errInvalidArgument, args[0]))
			}
			to, err := time.ParseInLocation(time.DateOnly, args[1], time.Local)
			if err != nil {
				return formatter.Fail("failed to build report", fmt.Errorf("%w: to %q", errInvalidArgument, args[1]))
			}
			return runReport(rootOpts, cmd, func(h *history.History) (history.Report, error) {
				return h.Range(commandContext(cmd), from, to)
			})
		},
	})

	return cmd
}

func runReport(opts *RootOptions, cmd *cobra.Command, build func(*history.History) (history.Report, error)) error {
	app, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	r, err := build(app.History)
	if err != nil {
		return app.out.Fail("failed to build report", err)
	}
	return app.out.Emit(r, func(w io.Writer) error {
		if r.Empty() {
			_, err := fmt.Fprintf(w, "%s\nNo invoices in this period\n", r.Title)
			return err
		}
		return r.WriteText(w, time.Local)
	})
}
