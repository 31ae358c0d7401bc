package models

import (
	"errors"
	"testing"
	"time"
)

func validInput() ActivityLogInput {
	return ActivityLogInput{
		ActorID:     "u-1",
		ActorName:   "Jane Admin",
		Action:      ActionCreate,
		LogCategory: CategoryBusinesses,
		Status:      StatusSuccess,
		EntityLabel: "Acme Store",
	}
}

func TestActivityLogInputValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ActivityLogInput)
		valid  bool
	}{
		{"ok", func(*ActivityLogInput) {}, true},
		{"missing actor", func(in *ActivityLogInput) { in.ActorID = " " }, false},
		{"bad action", func(in *ActivityLogInput) { in.Action = "Purge" }, false},
		{"lowercase action", func(in *ActivityLogInput) { in.Action = "create" }, false},
		{"bad category", func(in *ActivityLogInput) { in.LogCategory = "Invoices" }, false},
		{"bad status", func(in *ActivityLogInput) { in.Status = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			err := in.Validate()
			if tt.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	in := time.Date(2026, 3, 1, 12, 0, 0, 123456789, loc)
	got := NormalizeTimestamp(in)

	if got.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", got.Location())
	}
	if got.Nanosecond() != 123000000 {
		t.Errorf("nanos = %d, want 123000000", got.Nanosecond())
	}
	if !got.Equal(in.Truncate(time.Millisecond)) {
		t.Errorf("instant changed: %v vs %v", got, in)
	}
}

func TestExportRowMatchesColumns(t *testing.T) {
	l := validInput().Record("id-1", time.Now())
	if len(l.ExportRow()) != len(ExportColumns) {
		t.Fatalf("row has %d values, want %d", len(l.ExportRow()), len(ExportColumns))
	}

	l.Metadata = &ActivityLogMetadata{IPAddress: "10.0.0.1", UserAgent: "curl"}
	row := l.ExportRow()
	if row[len(row)-2] != "10.0.0.1" || row[len(row)-1] != "curl" {
		t.Errorf("metadata columns = %v", row[len(row)-2:])
	}
}
