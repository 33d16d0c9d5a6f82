package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/karmapos/internal/model"
)

// AddInvoice inserts an invoice. Returns ErrExists if the id is taken;
// the stored record is never overwritten.
func (s *Store) AddInvoice(ctx context.Context, inv model.Invoice) error {
	if err := model.JoinErrors(inv.Validate()); err != nil {
		return fmt.Errorf("add invoice: %w", err)
	}
	details, err := marshalDetails(inv.Details)
	if err != nil {
		return fmt.Errorf("add invoice: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (id, type, section_name, date, details, total)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, inv.ID, string(inv.Type), inv.SectionName, inv.DateKey(), details, inv.Total)
	if err != nil {
		return fmt.Errorf("add invoice %d: %w", inv.ID, err)
	}
	return checkInserted(result, "invoice", inv.ID)
}

// PutInvoice inserts or replaces an invoice.
func (s *Store) PutInvoice(ctx context.Context, inv model.Invoice) error {
	if err := model.JoinErrors(inv.Validate()); err != nil {
		return fmt.Errorf("put invoice: %w", err)
	}
	details, err := marshalDetails(inv.Details)
	if err != nil {
		return fmt.Errorf("put invoice: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (id, type, section_name, date, details, total)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			section_name = excluded.section_name,
			date = excluded.date,
			details = excluded.details,
			total = excluded.total
	`, inv.ID, string(inv.Type), inv.SectionName, inv.DateKey(), details, inv.Total)
	if err != nil {
		return fmt.Errorf("put invoice %d: %w", inv.ID, err)
	}
	return nil
}

// DeleteInvoice removes an invoice. Deleting a missing id is not an error.
func (s *Store) DeleteInvoice(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete invoice %d: %w", id, err)
	}
	return nil
}

// AddItem inserts an item. Returns ErrExists if the id is taken.
func (s *Store) AddItem(ctx context.Context, item model.Item) error {
	if err := model.JoinErrors(item.Validate()); err != nil {
		return fmt.Errorf("add item: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, name, price, section_id, sub_category)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, item.ID, item.Name, item.Price, item.SectionID, nullableString(item.SubCategory))
	if err != nil {
		return fmt.Errorf("add item %d: %w", item.ID, err)
	}
	return checkInserted(result, "item", item.ID)
}

// PutItem inserts or replaces an item.
func (s *Store) PutItem(ctx context.Context, item model.Item) error {
	if err := model.JoinErrors(item.Validate()); err != nil {
		return fmt.Errorf("put item: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, name, price, section_id, sub_category)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			section_id = excluded.section_id,
			sub_category = excluded.sub_category
	`, item.ID, item.Name, item.Price, item.SectionID, nullableString(item.SubCategory))
	if err != nil {
		return fmt.Errorf("put item %d: %w", item.ID, err)
	}
	return nil
}

// DeleteItem removes an item. Deleting a missing id is not an error.
func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	return nil
}

// DeleteItemsBySection removes every item of a section and returns how
// many were deleted.
func (s *Store) DeleteItemsBySection(ctx context.Context, sectionID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE section_id = ?`, sectionID)
	if err != nil {
		return 0, fmt.Errorf("delete items of %q: %w", sectionID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete items of %q: rows affected: %w", sectionID, err)
	}
	return n, nil
}

// PutState upserts an app state entry.
func (s *Store) PutState(ctx context.Context, entry model.AppStateEntry) error {
	if entry.Key == "" {
		return fmt.Errorf("put state: key is required")
	}
	value := string(entry.Value)
	if value == "" {
		value = "null"
	}
	if !json.Valid([]byte(value)) {
		return fmt.Errorf("put state %q: value is not valid JSON", entry.Key)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, entry.Key, value)
	if err != nil {
		return fmt.Errorf("put state %q: %w", entry.Key, err)
	}
	return nil
}

// SetValue marshals v and stores it under key.
func (s *Store) SetValue(ctx context.Context, key string, v any) error {
	entry, err := model.NewAppStateEntry(key, v)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return s.PutState(ctx, entry)
}

// DeleteState removes an app state key. Deleting a missing key is not an error.
func (s *Store) DeleteState(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM app_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete state %q: %w", key, err)
	}
	return nil
}

// checkInserted turns a no-op ON CONFLICT DO NOTHING into ErrExists.
func checkInserted(result interface{ RowsAffected() (int64, error) }, kind string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("add %s %d: rows affected: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("add %s %d: %w", kind, id, ErrExists)
	}
	return nil
}
