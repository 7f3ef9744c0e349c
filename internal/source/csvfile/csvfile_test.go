package csvfile

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"studiometrics/internal/core"
	"studiometrics/internal/log"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError, Component: "test"})
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListSessions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, SessionsFile, strings.Join([]string{
		"date,location,trainer,class_name,class_type,sessions,booked,checked_in,capacity,revenue",
		"2024-03-04,Centro,Giulia,Morning Flow,Yoga,1,10,8,12,240.50",
		"2024-03-05,Centro,Marco,Power Hour,HIIT,2,24,20,24,480",
		"not-a-date,Centro,Giulia,Morning Flow,Yoga,1,10,8,12,100",
		",,,,Yoga,1,10,8,12,100",
	}, "\n"))

	s := New(dir, testLogger())
	got, err := s.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d sessions, want 2 (bad date and empty row skipped)", len(got))
	}

	first := got[0]
	if first.Trainer != "Giulia" || first.CheckedIn != 8 {
		t.Errorf("first row = %+v", first)
	}
	if first.Revenue.Cents != 24050 {
		t.Errorf("revenue cents = %d, want 24050", first.Revenue.Cents)
	}
	if first.Date.MonthKey() != "2024-03" {
		t.Errorf("month key = %q, want 2024-03", first.Date.MonthKey())
	}
}

func TestListSessions_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, SessionsFile, "date,location,trainer\n2024-03-04,Centro,Giulia\n")

	s := New(dir, testLogger())
	if _, err := s.ListSessions(context.Background()); err == nil {
		t.Fatal("expected error for missing class_name column")
	}
}

func TestListSessions_ColumnOrderIndependent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, SessionsFile, strings.Join([]string{
		"Trainer,CLASS_NAME,date,location,extra",
		"Sara,Spin,2024-01-15,Darsena,ignored",
	}, "\n"))

	s := New(dir, testLogger())
	got, err := s.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(got) != 1 || got[0].Trainer != "Sara" || got[0].Location != "Darsena" {
		t.Errorf("got %+v, want Sara at Darsena", got)
	}
	if got[0].Sessions != 1 {
		t.Errorf("sessions fallback = %d, want 1", got[0].Sessions)
	}
}

func TestListPayroll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, PayrollFile, strings.Join([]string{
		"date,location,trainer,sessions,customers,total_paid",
		"2024-02-01,Centro,Giulia,18,140,1250.00",
		"2024-02-01,Centro,Marco,12,90,not-money",
	}, "\n"))

	s := New(dir, testLogger())
	got, err := s.ListPayroll(context.Background())
	if err != nil {
		t.Fatalf("ListPayroll: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d lines, want 1 (unparsable pay skipped)", len(got))
	}
	if got[0].TotalPaid.Cents != 125000 {
		t.Errorf("total paid = %d cents, want 125000", got[0].TotalPaid.Cents)
	}
}

func TestListClients(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ClientsFile, strings.Join([]string{
		"client_id,location,trainer,status,first_seen,visits,ltv",
		"c-1,Centro,Giulia,Converted,2024-01-10,14,890.00",
		"c-2,Centro,Marco,prospect,2024-02-02,1,0",
		"c-3,Centro,Marco,unknown-status,2024-02-03,2,0",
	}, "\n"))

	s := New(dir, testLogger())
	got, err := s.ListClients(context.Background())
	if err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d clients, want 2 (bad status skipped)", len(got))
	}
	if got[0].Status != core.StatusConverted {
		t.Errorf("status = %q, want converted (case-insensitive parse)", got[0].Status)
	}
	if got[1].Status != core.StatusProspect {
		t.Errorf("status = %q, want prospect", got[1].Status)
	}
}

func TestParseDateLayouts(t *testing.T) {
	tests := []struct {
		in      string
		wantKey string
		wantErr bool
	}{
		{"2024-03-04", "2024-03", false},
		{"04/03/2024", "2024-03", false},
		{"2024-03", "2024-03", false},
		{"", "", true},
		{"yesterday", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := parseDate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseDate(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDate(%q): %v", tt.in, err)
			}
			if d.MonthKey() != tt.wantKey {
				t.Errorf("month key = %q, want %q", d.MonthKey(), tt.wantKey)
			}
		})
	}
}
