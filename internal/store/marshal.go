package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/karmapos/internal/model"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// marshalDetails serializes invoice details to JSON for storage.
func marshalDetails(d model.Details) (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal details: %w", err)
	}
	return string(b), nil
}

// unmarshalDetails deserializes invoice details from storage.
func unmarshalDetails(s string) (model.Details, error) {
	var d model.Details
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return model.Details{}, fmt.Errorf("unmarshal details: %w", err)
	}
	return d, nil
}

// parseDate reads a stored invoice date.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		// Dates written by older builds may carry nanoseconds or an offset.
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
		}
	}
	return t.UTC(), nil
}

// scanInvoice scans a row into an Invoice.
// Column order: id, type, section_name, date, details, total.
func scanInvoice(row rowScanner) (model.Invoice, error) {
	var inv model.Invoice
	var typ, date, details string

	if err := row.Scan(&inv.ID, &typ, &inv.SectionName, &date, &details, &inv.Total); err != nil {
		return model.Invoice{}, err
	}
	inv.Type = model.InvoiceType(typ)

	t, err := parseDate(date)
	if err != nil {
		return model.Invoice{}, err
	}
	inv.Date = t

	d, err := unmarshalDetails(details)
	if err != nil {
		return model.Invoice{}, err
	}
	inv.Details = d

	return inv, nil
}

// scanItem scans a row into an Item.
// Column order: id, name, price, section_id, sub_category.
func scanItem(row rowScanner) (model.Item, error) {
	var item model.Item
	var sub sql.NullString

	if err := row.Scan(&item.ID, &item.Name, &item.Price, &item.SectionID, &sub); err != nil {
		return model.Item{}, err
	}
	if sub.Valid {
		v := sub.String
		item.SubCategory = &v
	}
	return item, nil
}

// nullableString converts an optional string for a nullable column.
func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
