// Package seed writes the initial app state and catalog into an empty store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/karmapos/internal/model"
	"github.com/roach88/karmapos/internal/sequencer"
	"github.com/roach88/karmapos/internal/store"
)

// Seed writes the catalog once. It returns false without writing anything
// when the seeded flag is already true.
//
// Order: initial app state with seeded=false, then the items, then the
// counters, then seeded=true. An interrupted seed runs again on the next
// open; items already present by section and name are not added twice.
// Existing counters are never lowered.
func Seed(ctx context.Context, st *store.Store, cat *Catalog, logger *slog.Logger) (bool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var seeded bool
	if err := st.GetValue(ctx, model.KeySeeded, &seeded); err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("seed: %w", err)
	}
	if seeded {
		logger.Debug("store already seeded")
		return false, nil
	}

	initial := []struct {
		key   string
		value any
	}{
		{model.KeySeeded, false},
		{model.KeyCashierInfo, cat.Cashier},
		{model.KeyQuickPrice, cat.QuickPrice},
		{model.KeyAdminPassword, model.DefaultPassword},
		{model.KeyCustomSections, []model.Section{}},
	}
	for _, e := range initial {
		if err := st.SetValue(ctx, e.key, e.value); err != nil {
			return false, fmt.Errorf("seed %s: %w", e.key, err)
		}
	}

	seq := sequencer.New(st, logger)
	added := 0
	for _, section := range cat.Sections {
		existing, err := st.ItemsBySection(ctx, section.ID)
		if err != nil {
			return false, fmt.Errorf("seed: %w", err)
		}
		have := make(map[string]bool, len(existing))
		for _, item := range existing {
			have[item.Name] = true
		}

		for _, ci := range section.Items {
			name := model.Normalize(ci.Name)
			if have[name] {
				continue
			}
			item := model.Item{Name: name, Price: ci.Price, SectionID: section.ID}
			if ci.SubCategory != "" {
				sub := ci.SubCategory
				item.SubCategory = &sub
			}
			if _, err := seq.AddItem(ctx, item); err != nil {
				return false, fmt.Errorf("seed: %w", err)
			}
			added++
		}
	}

	for _, key := range []string{model.KeyItemCounter, model.KeyInvoiceCounter} {
		if err := ensureCounter(ctx, st, key); err != nil {
			return false, err
		}
	}
	if err := st.SetValue(ctx, model.KeySeeded, true); err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}

	logger.Info("seed applied", "items", added)
	return true, nil
}

// ensureCounter writes 0 under key if it is missing.
func ensureCounter(ctx context.Context, st *store.Store, key string) error {
	_, err := st.GetState(ctx, key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("seed %s: %w", key, err)
	}
	if err := st.SetValue(ctx, key, 0); err != nil {
		return fmt.Errorf("seed %s: %w", key, err)
	}
	return nil
}
