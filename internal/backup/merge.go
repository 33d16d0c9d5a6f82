package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/karmapos/internal/model"
	"github.com/roach88/karmapos/internal/sequencer"
	"github.com/roach88/karmapos/internal/store"
)

// MergeResult counts what a merge did.
type MergeResult struct {
	InvoicesAdded   int `json:"invoicesAdded"`
	InvoicesSkipped int `json:"invoicesSkipped"`
	ItemsAdded      int `json:"itemsAdded"`
	ItemsSkipped    int `json:"itemsSkipped"`
	StateWritten    int `json:"stateWritten"`
	CountersRaised  int `json:"countersRaised"`
	CountersKept    int `json:"countersKept"`
}

// Merge folds snap into the store. Callers must invalidate any cached
// state (the section registry) afterwards.
func Merge(ctx context.Context, st *store.Store, snap Snapshot, logger *slog.Logger) (MergeResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	seq := sequencer.New(st, logger)
	var res MergeResult

	for _, inv := range snap.Invoices {
		err := st.AddInvoice(ctx, inv)
		switch {
		case err == nil:
			res.InvoicesAdded++
		case errors.Is(err, store.ErrExists):
			res.InvoicesSkipped++
		default:
			return res, fmt.Errorf("merge invoice %d: %w", inv.ID, err)
		}
	}

	for _, item := range snap.Items {
		err := st.AddItem(ctx, item)
		switch {
		case err == nil:
			res.ItemsAdded++
		case errors.Is(err, store.ErrExists):
			res.ItemsSkipped++
		default:
			return res, fmt.Errorf("merge item %d: %w", item.ID, err)
		}
	}

	for _, entry := range snap.AppState {
		if model.IsCounterKey(entry.Key) {
			v, err := sequencer.ParseCounter(entry.Key, entry.Value)
			if err != nil {
				return res, fmt.Errorf("merge: %w", err)
			}
			moved, err := seq.Raise(ctx, entry.Key, v)
			if err != nil {
				return res, fmt.Errorf("merge: %w", err)
			}
			if moved {
				res.CountersRaised++
			} else {
				res.CountersKept++
			}
			continue
		}
		if err := st.PutState(ctx, entry); err != nil {
			return res, fmt.Errorf("merge %s: %w", entry.Key, err)
		}
		res.StateWritten++
	}

	// A document whose counters lag its own ids must not leave the store
	// able to reissue one of them.
	if err := seq.Reconcile(ctx); err != nil {
		return res, fmt.Errorf("merge: %w", err)
	}

	logger.Info("backup merged",
		"invoices_added", res.InvoicesAdded,
		"invoices_skipped", res.InvoicesSkipped,
		"items_added", res.ItemsAdded,
		"items_skipped", res.ItemsSkipped,
		"state_written", res.StateWritten,
		"counters_kept", res.CountersKept,
	)
	return res, nil
}
