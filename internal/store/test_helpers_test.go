package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/karmapos/internal/model"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// baseTime is a fixed instant used to derive distinct invoice dates.
var baseTime = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

// createTestInvoice creates a simple invoice dated baseTime + minutes.
func createTestInvoice(id int64, minutes int) model.Invoice {
	return model.Invoice{
		ID:          id,
		Type:        model.InvoiceSimple,
		SectionName: "Massage",
		Date:        baseTime.Add(time.Duration(minutes) * time.Minute),
		Details:     model.Details{ServiceName: "Massage"},
		Total:       1000,
	}
}

// createTestItem creates an item with minimal required fields.
func createTestItem(id int64, sectionID string) model.Item {
	return model.Item{
		ID:        id,
		Name:      "item",
		Price:     1500,
		SectionID: sectionID,
	}
}
