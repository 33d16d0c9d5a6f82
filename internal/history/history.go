// Package history lists, finds and deletes issued invoices and builds
// period reports over them.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/karmapos/internal/auth"
	"github.com/roach88/karmapos/internal/model"
	"github.com/roach88/karmapos/internal/prompt"
	"github.com/roach88/karmapos/internal/store"
)

// DefaultPageSize is the number of invoices per history page.
const DefaultPageSize = 20

// ErrInvalidRange is returned when a report range starts after it ends.
var ErrInvalidRange = errors.New("start date is after end date")

// Options configures a History. Zero values select defaults.
type Options struct {
	PageSize int
	Now      func() time.Time
	Location *time.Location
	Logger   *slog.Logger
}

// History reads the invoice collection for display and reports.
type History struct {
	st      *store.Store
	auth    *auth.Auth
	prompts *prompt.Slot

	pageSize int
	now      func() time.Time
	loc      *time.Location
	logger   *slog.Logger
}

// New creates a History.
func New(st *store.Store, a *auth.Auth, prompts *prompt.Slot, opts Options) *History {
	h := &History{
		st:       st,
		auth:     a,
		prompts:  prompts,
		pageSize: opts.PageSize,
		now:      opts.Now,
		loc:      opts.Location,
		logger:   opts.Logger,
	}
	if h.pageSize < 1 {
		h.pageSize = DefaultPageSize
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Page is one page of the invoice list, newest first.
type Page struct {
	Invoices   []model.Invoice `json:"invoices"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
	Count      int             `json:"count"`
}

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool { return p.Page < p.TotalPages }

// Page returns page n (1-based). TotalPages is at least 1 even when there
// are no invoices.
func (h *History) Page(ctx context.Context, n int) (Page, error) {
	invoices, err := h.st.InvoicePage(ctx, n, h.pageSize)
	if err != nil {
		return Page{}, err
	}
	count, err := h.st.Count(ctx, store.Invoices)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Invoices:   invoices,
		Page:       n,
		TotalPages: TotalPages(count, h.pageSize),
		Count:      count,
	}, nil
}

// TotalPages is ceil(count/size), and 1 for an empty collection.
func TotalPages(count, size int) int {
	if count <= 0 {
		return 1
	}
	return (count + size - 1) / size
}

// Find returns the invoice with id, or store.ErrNotFound.
func (h *History) Find(ctx context.Context, id int64) (model.Invoice, error) {
	return h.st.GetInvoice(ctx, id)
}

// Delete removes an invoice after the operator enters the admin password.
func (h *History) Delete(ctx context.Context, id int64) error {
	if _, err := h.st.GetInvoice(ctx, id); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}

	pw, err := h.prompts.Password(ctx, "Admin password")
	if err != nil {
		return fmt.Errorf("delete invoice %d: %w", id, err)
	}
	if err := h.auth.Check(ctx, auth.RoleAdmin, pw); err != nil {
		return fmt.Errorf("delete invoice %d: %w", id, err)
	}

	if err := h.st.DeleteInvoice(ctx, id); err != nil {
		return err
	}
	h.logger.Info("invoice deleted", "id", id)
	return nil
}
