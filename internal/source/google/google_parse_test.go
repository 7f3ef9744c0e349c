package google

import (
	"testing"

	"studiometrics/internal/core"
)

func TestParseSessions(t *testing.T) {
	values := [][]interface{}{
		{"Date", "Location", "Trainer", "Class_Name", "Class_Type", "Sessions", "Checked_In", "Capacity", "Revenue"},
		{"2024-03-04", "Centro", "Giulia", "Morning Flow", "Yoga", "1", "8", "12", "240,50"},
		{"04/03/2024", "Darsena", "Marco", "Power Hour", "HIIT", "2", "20", "24", "480.00"},
		{"", "Centro", "Giulia", "Morning Flow", "Yoga", "1", "8", "12", "100"},
		{"2024-03-06", "", "", "", "", "1", "8", "12", "100"},
	}

	got, skipped := parseSessions(values)
	if len(got) != 2 {
		t.Fatalf("parsed %d sessions, want 2", len(got))
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2 (missing date, empty location)", skipped)
	}

	first := got[0]
	if first.Trainer != "Giulia" || first.CheckedIn != 8 {
		t.Errorf("first session = %+v", first)
	}
	if first.Revenue.Cents != 24050 {
		t.Errorf("comma-decimal revenue = %d cents, want 24050", first.Revenue.Cents)
	}
	if got[1].Date.MonthKey() != "2024-03" {
		t.Errorf("day-first date month key = %q, want 2024-03", got[1].Date.MonthKey())
	}
}

func TestParseSessions_HeaderOnly(t *testing.T) {
	values := [][]interface{}{
		{"date", "location", "trainer", "class_name"},
	}
	got, skipped := parseSessions(values)
	if len(got) != 0 || skipped != 0 {
		t.Errorf("header-only sheet: got %d sessions, %d skipped", len(got), skipped)
	}
}

func TestParsePayroll(t *testing.T) {
	values := [][]interface{}{
		{"date", "location", "trainer", "sessions", "customers", "total_paid"},
		{"2024-02-01", "Centro", "Giulia", "18", "140", "1250.00"},
		{"2024-02-01", "Centro", "Marco", "12", "90", "n/a"},
	}

	got, skipped := parsePayroll(values)
	if len(got) != 1 || skipped != 1 {
		t.Fatalf("got %d lines, %d skipped, want 1 and 1", len(got), skipped)
	}
	if got[0].TotalPaid.Cents != 125000 {
		t.Errorf("total paid = %d, want 125000", got[0].TotalPaid.Cents)
	}
}

func TestParseClients(t *testing.T) {
	values := [][]interface{}{
		{"client_id", "location", "trainer", "status", "first_seen", "visits", "ltv"},
		{"c-1", "Centro", "Giulia", "RETAINED", "2024-01-10", "14", "890.00"},
		{"c-2", "Centro", "Marco", "trialing", "2024-02-02", "1", "0"},
	}

	got, skipped := parseClients(values)
	if len(got) != 1 || skipped != 1 {
		t.Fatalf("got %d clients, %d skipped, want 1 and 1", len(got), skipped)
	}
	if got[0].Status != core.StatusRetained {
		t.Errorf("status = %q, want retained", got[0].Status)
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in       string
		fallback int
		want     int
	}{
		{"12", 0, 12},
		{"12.0", 0, 12},
		{"", 1, 1},
		{"abc", 3, 3},
	}
	for _, tt := range tests {
		if got := parseInt(tt.in, tt.fallback); got != tt.want {
			t.Errorf("parseInt(%q, %d) = %d, want %d", tt.in, tt.fallback, got, tt.want)
		}
	}
}
