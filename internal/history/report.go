package history

import (
	"context"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/roach88/karmapos/internal/model"
	"github.com/roach88/karmapos/internal/sections"
)

// Report is the invoices of a period, oldest first, with totals.
type Report struct {
	Title     string          `json:"title"`
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	Invoices  []model.Invoice `json:"invoices"`
	Total     float64         `json:"total"`
	BySection []SectionTotal  `json:"bySection"`
}

// SectionTotal sums the invoices of one section name.
type SectionTotal struct {
	Section string  `json:"section"`
	Count   int     `json:"count"`
	Total   float64 `json:"total"`
}

// Empty reports whether the period has no invoices.
func (r Report) Empty() bool { return len(r.Invoices) == 0 }

// Today reports from local midnight to now.
func (h *History) Today(ctx context.Context) (Report, error) {
	return h.LastDays(ctx, 1)
}

// LastDays reports from the start of the day days-1 days ago to now.
func (h *History) LastDays(ctx context.Context, days int) (Report, error) {
	if days < 1 {
		return Report{}, fmt.Errorf("days must be >= 1, got %d", days)
	}
	now := h.now().In(h.loc)
	from := startOfDay(now.AddDate(0, 0, -(days - 1)))

	title := "Report for today " + now.Format("2006-01-02")
	if days > 1 {
		title = fmt.Sprintf("Report for the last %d days", days)
	}
	return h.build(ctx, title, from, now)
}

// Range reports whole days from the start of from through the end of to.
func (h *History) Range(ctx context.Context, from, to time.Time) (Report, error) {
	start := startOfDay(from.In(h.loc))
	end := startOfDay(to.In(h.loc)).AddDate(0, 0, 1).Add(-time.Millisecond)
	if start.After(end) {
		return Report{}, ErrInvalidRange
	}
	title := fmt.Sprintf("Report from %s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	return h.build(ctx, title, start, end)
}

func (h *History) build(ctx context.Context, title string, from, to time.Time) (Report, error) {
	invoices, err := h.st.InvoicesBetween(ctx, from, to)
	if err != nil {
		return Report{}, fmt.Errorf("report: %w", err)
	}
	slices.Reverse(invoices)

	r := Report{Title: title, From: from, To: to, Invoices: invoices, BySection: []SectionTotal{}}
	index := map[string]int{}
	for _, inv := range invoices {
		r.Total += inv.Total
		i, ok := index[inv.SectionName]
		if !ok {
			i = len(r.BySection)
			index[inv.SectionName] = i
			r.BySection = append(r.BySection, SectionTotal{Section: inv.SectionName})
		}
		r.BySection[i].Count++
		r.BySection[i].Total += inv.Total
	}
	return r, nil
}

// WriteText renders the report as plain text: one block per day, then the
// per-section and grand totals.
func (r Report) WriteText(w io.Writer, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\n", r.Title)
	fmt.Fprintf(tw, "Invoices: %d\n\n", len(r.Invoices))

	lastDay := ""
	for _, inv := range r.Invoices {
		local := inv.Date.In(loc)
		if day := local.Format("02/01/2006"); day != lastDay {
			fmt.Fprintf(tw, "--- %s ---\n", day)
			lastDay = day
		}
		fmt.Fprintf(tw, "#%d\t%s\t%s\t%s\n", inv.ID, local.Format("15:04"), Describe(inv), sections.Money(inv.Total))
	}

	if len(r.BySection) > 0 {
		fmt.Fprintln(tw)
	}
	for _, s := range r.BySection {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Section, s.Count, sections.Money(s.Total))
	}
	fmt.Fprintf(tw, "\nTotal: %s\n", sections.Money(r.Total))
	return tw.Flush()
}

// Describe is the one-line summary of an invoice used in listings.
func Describe(inv model.Invoice) string {
	d := inv.Details
	desc := inv.SectionName
	switch {
	case d.ServiceName != "":
		desc = d.ServiceName
	case d.TimeDisplay != "":
		desc = inv.SectionName + " " + d.TimeDisplay
		if d.FieldName != "" {
			desc += " " + d.FieldName
		}
	case len(d.Items) > 0:
		desc = fmt.Sprintf("%s (%d items)", inv.SectionName, len(d.Items))
	}
	if d.CustomerName != "" {
		desc += " (" + d.CustomerName + ")"
	}
	return desc
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
