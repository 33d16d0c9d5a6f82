package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGetInvoice_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.GetInvoice(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestAllInvoices_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)
	invoices, err := s.AllInvoices(context.Background())
	if err != nil {
		t.Fatalf("AllInvoices() failed: %v", err)
	}
	if invoices == nil {
		t.Error("AllInvoices() returned nil, want empty slice")
	}
}

func TestInvoicePage_SecondPageOfFortyFive(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Insert ids in an order unrelated to their dates: id i is dated
	// (i*7 mod 45) minutes after baseTime, which is a permutation.
	minutesByID := make(map[int64]int)
	for i := int64(1); i <= 45; i++ {
		minutes := int((i * 7) % 45)
		minutesByID[i] = minutes
		if err := s.AddInvoice(ctx, createTestInvoice(i, minutes)); err != nil {
			t.Fatalf("AddInvoice(%d) failed: %v", i, err)
		}
	}

	page, err := s.InvoicePage(ctx, 2, 20)
	if err != nil {
		t.Fatalf("InvoicePage() failed: %v", err)
	}
	if len(page) != 20 {
		t.Fatalf("len(page) = %d, want 20", len(page))
	}

	// Ranks 21..40 by descending date are minutes 24 down to 5.
	for i, inv := range page {
		wantMinutes := 44 - (20 + i)
		if minutesByID[inv.ID] != wantMinutes {
			t.Errorf("page[%d] = invoice %d at minute %d, want minute %d",
				i, inv.ID, minutesByID[inv.ID], wantMinutes)
		}
	}

	last, err := s.InvoicePage(ctx, 3, 20)
	if err != nil {
		t.Fatalf("InvoicePage(3) failed: %v", err)
	}
	if len(last) != 5 {
		t.Errorf("len(page 3) = %d, want 5", len(last))
	}

	beyond, err := s.InvoicePage(ctx, 4, 20)
	if err != nil {
		t.Fatalf("InvoicePage(4) failed: %v", err)
	}
	if len(beyond) != 0 {
		t.Errorf("len(page 4) = %d, want 0", len(beyond))
	}
}

func TestInvoicePage_InvalidArgs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.InvoicePage(ctx, 0, 20); err == nil {
		t.Error("expected error for page 0")
	}
	if _, err := s.InvoicePage(ctx, 1, 0); err == nil {
		t.Error("expected error for size 0")
	}
}

func TestInvoicesBetween_Inclusive(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		if err := s.AddInvoice(ctx, createTestInvoice(i, int(i)*60)); err != nil {
			t.Fatalf("AddInvoice() failed: %v", err)
		}
	}

	from := baseTime.Add(2 * time.Hour)
	to := baseTime.Add(4 * time.Hour)
	got, err := s.InvoicesBetween(ctx, from, to)
	if err != nil {
		t.Fatalf("InvoicesBetween() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ID != 4 || got[2].ID != 2 {
		t.Errorf("order = [%d..%d], want [4..2]", got[0].ID, got[2].ID)
	}
}

func TestInvoiceDate_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	local := time.FixedZone("CAT", 2*60*60)
	inv := createTestInvoice(1, 0)
	inv.Date = time.Date(2025, 5, 10, 21, 30, 15, 250*int(time.Millisecond), local)
	if err := s.AddInvoice(ctx, inv); err != nil {
		t.Fatalf("AddInvoice() failed: %v", err)
	}

	got, err := s.GetInvoice(ctx, 1)
	if err != nil {
		t.Fatalf("GetInvoice() failed: %v", err)
	}
	if !got.Date.Equal(inv.Date) {
		t.Errorf("date = %v, want %v", got.Date, inv.Date)
	}
}

func TestGetValue_NotFoundLeavesDest(t *testing.T) {
	s := createTestStore(t)
	dest := 20000
	err := s.GetValue(context.Background(), "quickPrice", &dest)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if dest != 20000 {
		t.Errorf("dest = %d, want untouched default", dest)
	}
}

func TestAllState_OrderedByKey(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"seeded", "adminPassword", "itemCounter"} {
		if err := s.SetValue(ctx, key, 1); err != nil {
			t.Fatalf("SetValue() failed: %v", err)
		}
	}

	entries, err := s.AllState(ctx)
	if err != nil {
		t.Fatalf("AllState() failed: %v", err)
	}
	want := []string{"adminPassword", "itemCounter", "seeded"}
	for i, e := range entries {
		if e.Key != want[i] {
			t.Errorf("entries[%d].Key = %q, want %q", i, e.Key, want[i])
		}
	}
}
