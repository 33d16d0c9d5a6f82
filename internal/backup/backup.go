// Package backup exports the whole store to a portable JSON document and
// merges such a document back in.
//
// A merge only adds: invoices and items whose id is already present are
// skipped, and the id counters are raised but never lowered. Every other
// app state key from the document overwrites the stored value. The merge is
// a sequence of independent writes; a failure part way leaves the records
// written so far in place.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/roach88/karmapos/internal/model"
	"github.com/roach88/karmapos/internal/sequencer"
	"github.com/roach88/karmapos/internal/store"
)

// Snapshot is the backup document. The field names match the files written
// by every earlier version of the app.
type Snapshot struct {
	Invoices []model.Invoice       `json:"invoices"`
	Items    []model.Item          `json:"items"`
	AppState []model.AppStateEntry `json:"appState"`
}

// Export reads all three collections. An empty store yields three empty
// (non-nil) lists.
func Export(ctx context.Context, st *store.Store) (Snapshot, error) {
	invoices, err := st.AllInvoices(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("export: %w", err)
	}
	items, err := st.AllItems(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("export: %w", err)
	}
	state, err := st.AllState(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("export: %w", err)
	}
	return Snapshot{Invoices: invoices, Items: items, AppState: state}, nil
}

// Encode writes snap as indented JSON.
func Encode(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// Decode validates data against the backup schema and decodes it, then
// checks every record the way the store will on insert, so a document that
// decodes cannot fail Merge for its content. Missing collections decode as
// empty lists. Every failure is a *ParseError wrapping ErrImportParse.
func Decode(data []byte) (Snapshot, error) {
	if err := Validate(data); err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&snap); err != nil {
		return Snapshot{}, &ParseError{Message: err.Error()}
	}

	if err := checkRecords(snap); err != nil {
		return Snapshot{}, err
	}

	if snap.Invoices == nil {
		snap.Invoices = []model.Invoice{}
	}
	if snap.Items == nil {
		snap.Items = []model.Item{}
	}
	if snap.AppState == nil {
		snap.AppState = []model.AppStateEntry{}
	}
	return snap, nil
}

// checkRecords reports the first record the store would refuse.
func checkRecords(snap Snapshot) error {
	for i, inv := range snap.Invoices {
		if errs := inv.Validate(); len(errs) > 0 {
			return recordError("invoices", i, errs[0])
		}
	}
	for i, item := range snap.Items {
		if errs := item.Validate(); len(errs) > 0 {
			return recordError("items", i, errs[0])
		}
	}
	for i, entry := range snap.AppState {
		if !model.IsCounterKey(entry.Key) {
			continue
		}
		path := fmt.Sprintf("appState.%d.value", i)
		v, err := sequencer.ParseCounter(entry.Key, entry.Value)
		if err != nil {
			return &ParseError{Path: path, Message: err.Error()}
		}
		if v < 0 {
			return &ParseError{Path: path, Message: fmt.Sprintf("%s must not be negative", entry.Key)}
		}
	}
	return nil
}

func recordError(collection string, idx int, ve model.ValidationError) *ParseError {
	return &ParseError{
		Path:    fmt.Sprintf("%s.%d.%s", collection, idx, ve.Field),
		Message: ve.Message,
	}
}
