package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the fixed-width UTC layout used for Invoice dates on disk.
// Fixed width keeps lexical order equal to chronological order.
const DateLayout = "2006-01-02T15:04:05.000Z"

// InvoiceType identifies the kind of sale an invoice records.
type InvoiceType string

const (
	InvoiceRestaurant InvoiceType = "restaurant-pos"
	InvoiceCafe       InvoiceType = "cafe-pos"
	InvoicePOS        InvoiceType = "pos" // custom POS sections and legacy backups
	InvoiceFootball   InvoiceType = "football"
	InvoiceBooking    InvoiceType = "booking"
	InvoiceSimple     InvoiceType = "simple"
)

// ValidInvoiceTypes lists every type accepted by the store.
var ValidInvoiceTypes = map[InvoiceType]bool{
	InvoiceRestaurant: true,
	InvoiceCafe:       true,
	InvoicePOS:        true,
	InvoiceFootball:   true,
	InvoiceBooking:    true,
	InvoiceSimple:     true,
}

// Item is a sellable catalog entry belonging to a section.
type Item struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	SectionID   string  `json:"sectionId"`
	SubCategory *string `json:"subCategory"`
}

// Category returns the sub-category or "" when unset.
func (i Item) Category() string {
	if i.SubCategory == nil {
		return ""
	}
	return *i.SubCategory
}

// LineItem is an Item on an invoice with the quantity sold.
type LineItem struct {
	Item
	Quantity int `json:"quantity"`
}

// Subtotal returns quantity × price.
func (l LineItem) Subtotal() float64 {
	return float64(l.Quantity) * l.Price
}

// Details holds the type-specific part of an invoice.
// POS invoices use Items; booking and football use TimeDisplay, FieldName
// and CustomerName; simple invoices use ServiceName.
type Details struct {
	Items        []LineItem `json:"items,omitempty"`
	TimeDisplay  string     `json:"timeDisplay,omitempty"`
	FieldName    string     `json:"fieldName,omitempty"`
	CustomerName string     `json:"customerName,omitempty"`
	ServiceName  string     `json:"serviceName,omitempty"`
}

// Invoice is an issued sale. Invoices are never updated, only deleted.
type Invoice struct {
	ID          int64       `json:"id"`
	Type        InvoiceType `json:"type"`
	SectionName string      `json:"sectionName"`
	Date        time.Time   `json:"date"`
	Details     Details     `json:"details"`
	Total       float64     `json:"total"`
}

// DateKey returns the date formatted for the date index.
func (inv Invoice) DateKey() string {
	return inv.Date.UTC().Format(DateLayout)
}

// Validate checks the invariants every stored invoice must satisfy.
// Returns all errors (not fail-fast).
func (inv Invoice) Validate() []ValidationError {
	var errs []ValidationError
	if inv.ID <= 0 {
		errs = append(errs, ValidationError{Field: "id", Message: "must be positive"})
	}
	if !ValidInvoiceTypes[inv.Type] {
		errs = append(errs, ValidationError{Field: "type", Message: fmt.Sprintf("unknown invoice type %q", inv.Type)})
	}
	if inv.Date.IsZero() {
		errs = append(errs, ValidationError{Field: "date", Message: "is required"})
	}
	if inv.Total < 0 {
		errs = append(errs, ValidationError{Field: "total", Message: "must not be negative"})
	}
	return errs
}

// Validate checks an item before it is stored.
func (i Item) Validate() []ValidationError {
	var errs []ValidationError
	if i.ID <= 0 {
		errs = append(errs, ValidationError{Field: "id", Message: "must be positive"})
	}
	if i.Name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "is required"})
	}
	if i.Price < 0 {
		errs = append(errs, ValidationError{Field: "price", Message: "must not be negative"})
	}
	if i.SectionID == "" {
		errs = append(errs, ValidationError{Field: "sectionId", Message: "is required"})
	}
	return errs
}

// AppStateEntry is one key/value pair of application state.
// Value holds raw JSON so unknown keys survive a backup round trip.
type AppStateEntry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// NewAppStateEntry marshals v into an entry.
func NewAppStateEntry(key string, v any) (AppStateEntry, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return AppStateEntry{}, fmt.Errorf("marshal %s: %w", key, err)
	}
	return AppStateEntry{Key: key, Value: raw}, nil
}

// CashierInfo identifies the operator printed on receipts.
type CashierInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// BackupInfo records the last successful backup.
type BackupInfo struct {
	Date     time.Time `json:"date"`
	Filename string    `json:"filename"`
}

// ValidationError represents a validation error with field path and message.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
