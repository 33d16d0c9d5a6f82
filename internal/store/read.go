package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/karmapos/internal/model"
)

const invoiceColumns = `id, type, section_name, date, details, total`
const itemColumns = `id, name, price, section_id, sub_category`

// GetInvoice retrieves a single invoice by id.
// Returns ErrNotFound if missing.
func (s *Store) GetInvoice(ctx context.Context, id int64) (model.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		return model.Invoice{}, notFound("get invoice", id, err)
	}
	return inv, nil
}

// AllInvoices returns every invoice ordered by id ascending.
// Returns an empty slice (not nil) if none exist.
func (s *Store) AllInvoices(ctx context.Context) ([]model.Invoice, error) {
	return s.queryInvoices(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY id ASC`)
}

// InvoicePage returns page p of size n in reverse-chronological order:
// records [(p-1)*n, p*n) by date DESC, id DESC.
func (s *Store) InvoicePage(ctx context.Context, page, size int) ([]model.Invoice, error) {
	if page < 1 {
		return nil, fmt.Errorf("invoice page: page must be >= 1, got %d", page)
	}
	if size < 1 {
		return nil, fmt.Errorf("invoice page: size must be >= 1, got %d", size)
	}
	return s.queryInvoices(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		ORDER BY date DESC, id DESC
		LIMIT ? OFFSET ?
	`, size, (page-1)*size)
}

// InvoicesBetween returns invoices dated within [from, to], newest first.
func (s *Store) InvoicesBetween(ctx context.Context, from, to time.Time) ([]model.Invoice, error) {
	return s.queryInvoices(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE date >= ? AND date <= ?
		ORDER BY date DESC, id DESC
	`, from.UTC().Format(model.DateLayout), to.UTC().Format(model.DateLayout))
}

func (s *Store) queryInvoices(ctx context.Context, query string, args ...any) ([]model.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	invoices := []model.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return invoices, nil
}

// GetItem retrieves a single item by id.
// Returns ErrNotFound if missing.
func (s *Store) GetItem(ctx context.Context, id int64) (model.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err != nil {
		return model.Item{}, notFound("get item", id, err)
	}
	return item, nil
}

// AllItems returns every item ordered by id.
func (s *Store) AllItems(ctx context.Context) ([]model.Item, error) {
	return s.queryItems(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id ASC`)
}

// ItemsBySection returns the items of one section ordered by id.
func (s *Store) ItemsBySection(ctx context.Context, sectionID string) ([]model.Item, error) {
	return s.queryItems(ctx, `SELECT `+itemColumns+` FROM items WHERE section_id = ? ORDER BY id ASC`, sectionID)
}

func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// GetState retrieves one app state entry.
// Returns ErrNotFound if the key is missing.
func (s *Store) GetState(ctx context.Context, key string) (model.AppStateEntry, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return model.AppStateEntry{}, notFound("get state", key, err)
	}
	return model.AppStateEntry{Key: key, Value: json.RawMessage(value)}, nil
}

// GetValue unmarshals the value under key into dest.
// Returns ErrNotFound if the key is missing; dest is left untouched.
func (s *Store) GetValue(ctx context.Context, key string, dest any) error {
	entry, err := s.GetState(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(entry.Value, dest); err != nil {
		return fmt.Errorf("decode state %q: %w", key, err)
	}
	return nil
}

// AllState returns every app state entry ordered by key.
func (s *Store) AllState(ctx context.Context) ([]model.AppStateEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM app_state ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("query state: %w", err)
	}
	defer rows.Close()

	entries := []model.AppStateEntry{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		entries = append(entries, model.AppStateEntry{Key: key, Value: json.RawMessage(value)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate state: %w", err)
	}
	return entries, nil
}
