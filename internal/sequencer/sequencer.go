// Package sequencer assigns monotonic invoice and item ids.
//
// The last assigned id of each collection is a counter in app state
// (invoiceCounter, itemCounter). Issuing a record is two sequential writes:
// the counter first, then the record. There is no transaction around them,
// so a crash between the writes leaves the counter advanced with no record
// for that id. That gap is accepted; a duplicate id never is.
//
// Counters only move forward. Raise never lowers a stored value.
package sequencer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/roach88/karmapos/internal/model"
	"github.com/roach88/karmapos/internal/store"
)

// Sequencer reads and advances the id counters.
//
// It holds no lock: two callers that read the same counter before either
// writes will compute the same id, and the second AddInvoice fails with
// store.ErrExists.
type Sequencer struct {
	st     *store.Store
	logger *slog.Logger
}

// New creates a sequencer over st. A nil logger uses slog.Default().
func New(st *store.Store, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{st: st, logger: logger}
}

// Current returns the stored counter value, or 0 if it was never written.
func (s *Sequencer) Current(ctx context.Context, key string) (int64, error) {
	var raw json.Number
	if err := s.st.GetValue(ctx, key, &raw); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	return parseCounter(key, raw)
}

// NextInvoiceID returns the id the next invoice should use.
// It does not write anything.
func (s *Sequencer) NextInvoiceID(ctx context.Context) (int64, error) {
	cur, err := s.Current(ctx, model.KeyInvoiceCounter)
	if err != nil {
		return 0, err
	}
	return cur + 1, nil
}

// NextItemID returns the id the next item should use.
func (s *Sequencer) NextItemID(ctx context.Context) (int64, error) {
	cur, err := s.Current(ctx, model.KeyItemCounter)
	if err != nil {
		return 0, err
	}
	return cur + 1, nil
}

// IssueInvoice assigns the next id to inv, advances the counter, then adds
// the invoice. The returned invoice carries the assigned id.
func (s *Sequencer) IssueInvoice(ctx context.Context, inv model.Invoice) (model.Invoice, error) {
	id, err := s.NextInvoiceID(ctx)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("issue invoice: %w", err)
	}
	inv.ID = id
	if err := model.JoinErrors(inv.Validate()); err != nil {
		return model.Invoice{}, fmt.Errorf("issue invoice: %w", err)
	}

	if err := s.st.SetValue(ctx, model.KeyInvoiceCounter, id); err != nil {
		return model.Invoice{}, fmt.Errorf("issue invoice: advance counter: %w", err)
	}
	if err := s.st.AddInvoice(ctx, inv); err != nil {
		return model.Invoice{}, fmt.Errorf("issue invoice: %w", err)
	}

	s.logger.Info("invoice issued", "id", id, "type", inv.Type, "section", inv.SectionName, "total", inv.Total)
	return inv, nil
}

// AddItem assigns the next item id, advances the counter, then adds the item.
func (s *Sequencer) AddItem(ctx context.Context, item model.Item) (model.Item, error) {
	id, err := s.NextItemID(ctx)
	if err != nil {
		return model.Item{}, fmt.Errorf("add item: %w", err)
	}
	item.ID = id
	if err := model.JoinErrors(item.Validate()); err != nil {
		return model.Item{}, fmt.Errorf("add item: %w", err)
	}

	if err := s.st.SetValue(ctx, model.KeyItemCounter, id); err != nil {
		return model.Item{}, fmt.Errorf("add item: advance counter: %w", err)
	}
	if err := s.st.AddItem(ctx, item); err != nil {
		return model.Item{}, fmt.Errorf("add item: %w", err)
	}

	s.logger.Debug("item added", "id", id, "section", item.SectionID)
	return item, nil
}

// Raise stores v under key only if it is strictly greater than the current
// value. Returns whether the counter moved.
func (s *Sequencer) Raise(ctx context.Context, key string, v int64) (bool, error) {
	cur, err := s.Current(ctx, key)
	if err != nil {
		return false, err
	}
	if v <= cur {
		return false, nil
	}
	if err := s.st.SetValue(ctx, key, v); err != nil {
		return false, fmt.Errorf("raise %s: %w", key, err)
	}
	return true, nil
}

// Reconcile raises both counters to at least the highest stored id.
func (s *Sequencer) Reconcile(ctx context.Context) error {
	invoices, err := s.st.AllInvoices(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	var maxInvoice int64
	for _, inv := range invoices {
		maxInvoice = max(maxInvoice, inv.ID)
	}

	items, err := s.st.AllItems(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	var maxItem int64
	for _, item := range items {
		maxItem = max(maxItem, item.ID)
	}

	if moved, err := s.Raise(ctx, model.KeyInvoiceCounter, maxInvoice); err != nil {
		return fmt.Errorf("reconcile: %w", err)
	} else if moved {
		s.logger.Warn("invoice counter was behind stored ids", "raised_to", maxInvoice)
	}
	if moved, err := s.Raise(ctx, model.KeyItemCounter, maxItem); err != nil {
		return fmt.Errorf("reconcile: %w", err)
	} else if moved {
		s.logger.Warn("item counter was behind stored ids", "raised_to", maxItem)
	}
	return nil
}

// ParseCounter decodes a counter value written by this or an older build.
// Whole-number floats (5.0) are accepted.
func ParseCounter(key string, raw json.RawMessage) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%s: not a number: %s", key, string(raw))
	}
	return parseCounter(key, n)
}

func parseCounter(key string, n json.Number) (int64, error) {
	if v, err := n.Int64(); err == nil {
		return v, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("%s: not an integer: %s", key, n.String())
	}
	return int64(f), nil
}
