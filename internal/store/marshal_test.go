package store

import (
	"testing"
	"time"

	"github.com/roach88/karmapos/internal/model"
)

func TestMarshalDetails_Empty(t *testing.T) {
	got, err := marshalDetails(model.Details{})
	if err != nil {
		t.Fatalf("marshalDetails() failed: %v", err)
	}
	if got != "{}" {
		t.Errorf("marshalDetails() = %q, want %q", got, "{}")
	}
}

func TestMarshalDetails_Booking(t *testing.T) {
	got, err := marshalDetails(model.Details{FieldName: "Field A", TimeDisplay: "18:00 - 19:00"})
	if err != nil {
		t.Fatalf("marshalDetails() failed: %v", err)
	}
	want := `{"timeDisplay":"18:00 - 19:00","fieldName":"Field A"}`
	if got != want {
		t.Errorf("marshalDetails() = %q, want %q", got, want)
	}
}

func TestUnmarshalDetails_Invalid(t *testing.T) {
	if _, err := unmarshalDetails("not json"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseDate_Layouts(t *testing.T) {
	want := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []string{
		"2025-01-02T03:04:05.000Z",
		"2025-01-02T03:04:05Z",
		"2025-01-02T05:04:05+02:00",
	}
	for _, in := range tests {
		got, err := parseDate(in)
		if err != nil {
			t.Errorf("parseDate(%q) failed: %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("parseDate(%q) = %v, want %v", in, got, want)
		}
		if got.Location() != time.UTC {
			t.Errorf("parseDate(%q) location = %v, want UTC", in, got.Location())
		}
	}

	if _, err := parseDate("yesterday"); err == nil {
		t.Error("expected error for unparseable date")
	}
}
