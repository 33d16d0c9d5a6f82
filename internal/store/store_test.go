package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"invoices", "items", "app_state"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Fatal("expected error for invalid path, got nil")
	}
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("error = %v, want ErrStoreUnavailable", err)
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragma_JournalMode(t *testing.T) {
	s := createTestStore(t)
	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s := createTestStore(t)
	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := createTestStore(t)
	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestMigration_DateIndex(t *testing.T) {
	s := createTestStore(t)

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_invoices_date'",
	).Scan(&name)
	if err != nil {
		t.Fatalf("date index missing: %v", err)
	}

	if err := s.verifyPragma("user_version", "1"); err != nil {
		t.Error(err)
	}
}

func TestCountAndClear(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		if err := s.AddItem(ctx, createTestItem(i, "restaurant")); err != nil {
			t.Fatalf("AddItem(%d) failed: %v", i, err)
		}
	}
	if err := s.SetValue(ctx, "quickPrice", 20000); err != nil {
		t.Fatalf("SetValue() failed: %v", err)
	}

	n, err := s.Count(ctx, Items)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Count(items) = %d, want 3", n)
	}

	if err := s.Clear(ctx, Items); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	n, _ = s.Count(ctx, Items)
	if n != 0 {
		t.Errorf("Count(items) after clear = %d, want 0", n)
	}

	// Other collections untouched
	n, _ = s.Count(ctx, AppState)
	if n != 1 {
		t.Errorf("Count(appState) = %d, want 1", n)
	}
}

func TestCount_UnknownCollection(t *testing.T) {
	s := createTestStore(t)
	if _, err := s.Count(context.Background(), Collection("bogus")); err == nil {
		t.Error("expected error for unknown collection")
	}
}
