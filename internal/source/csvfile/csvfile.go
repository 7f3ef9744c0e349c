package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"studiometrics/internal/core"
	"studiometrics/internal/log"
	"studiometrics/internal/source"
)

// Default file names inside the data directory.
const (
	SessionsFile = "sessions.csv"
	PayrollFile  = "payroll.csv"
	ClientsFile  = "clients.csv"
)

// Store reads studio records from CSV exports in a directory. Each file
// carries a header row; columns are matched by name, so column order and
// extra columns do not matter. Malformed rows are skipped with a warning
// rather than failing the whole load.
type Store struct {
	dir    string
	logger *log.Logger
}

var _ source.RecordSource = (*Store)(nil)

func New(dir string, logger *log.Logger) *Store {
	return &Store{dir: dir, logger: logger.WithComponent(log.ComponentCSV)}
}

func (s *Store) ListSessions(ctx context.Context) ([]core.Session, error) {
	path := filepath.Join(s.dir, SessionsFile)
	rows, idx, err := readTable(path, []string{"date", "location", "trainer", "class_name"})
	if err != nil {
		return nil, err
	}

	var out []core.Session
	skipped := 0
	for _, row := range rows {
		date, err := parseDate(cell(row, idx, "date"))
		if err != nil {
			skipped++
			continue
		}
		revenue, ok := core.MoneyFromString(cell(row, idx, "revenue"))
		if !ok {
			revenue = core.Money{}
		}
		sess := core.Session{
			SessionID:     cell(row, idx, "session_id"),
			Location:      cell(row, idx, "location"),
			Trainer:       cell(row, idx, "trainer"),
			ClassName:     cell(row, idx, "class_name"),
			ClassType:     cell(row, idx, "class_type"),
			TimeSlot:      cell(row, idx, "time_slot"),
			Date:          date,
			Sessions:      intCell(row, idx, "sessions", 1),
			Booked:        intCell(row, idx, "booked", 0),
			CheckedIn:     intCell(row, idx, "checked_in", 0),
			Capacity:      intCell(row, idx, "capacity", 0),
			LateCancelled: intCell(row, idx, "late_cancelled", 0),
			EmptySessions: intCell(row, idx, "empty_sessions", 0),
			Revenue:       revenue,
		}
		if err := sess.Validate(); err != nil {
			skipped++
			continue
		}
		out = append(out, sess)
	}
	s.logLoad(ctx, path, len(out), skipped)
	return out, nil
}

func (s *Store) ListPayroll(ctx context.Context) ([]core.PayrollLine, error) {
	path := filepath.Join(s.dir, PayrollFile)
	rows, idx, err := readTable(path, []string{"date", "location", "trainer"})
	if err != nil {
		return nil, err
	}

	var out []core.PayrollLine
	skipped := 0
	for _, row := range rows {
		date, err := parseDate(cell(row, idx, "date"))
		if err != nil {
			skipped++
			continue
		}
		paid, ok := core.MoneyFromString(cell(row, idx, "total_paid"))
		if !ok {
			skipped++
			continue
		}
		line := core.PayrollLine{
			Location:  cell(row, idx, "location"),
			Trainer:   cell(row, idx, "trainer"),
			Date:      date,
			Sessions:  intCell(row, idx, "sessions", 0),
			Customers: intCell(row, idx, "customers", 0),
			TotalPaid: paid,
		}
		if err := line.Validate(); err != nil {
			skipped++
			continue
		}
		out = append(out, line)
	}
	s.logLoad(ctx, path, len(out), skipped)
	return out, nil
}

func (s *Store) ListClients(ctx context.Context) ([]core.ClientConversion, error) {
	path := filepath.Join(s.dir, ClientsFile)
	rows, idx, err := readTable(path, []string{"client_id", "location", "status"})
	if err != nil {
		return nil, err
	}

	var out []core.ClientConversion
	skipped := 0
	for _, row := range rows {
		status, err := core.ParseStatus(cell(row, idx, "status"))
		if err != nil {
			skipped++
			continue
		}
		firstSeen, err := parseDate(cell(row, idx, "first_seen"))
		if err != nil {
			firstSeen = core.Date{}
		}
		ltv, ok := core.MoneyFromString(cell(row, idx, "ltv"))
		if !ok {
			ltv = core.Money{}
		}
		c := core.ClientConversion{
			ClientID:  cell(row, idx, "client_id"),
			Location:  cell(row, idx, "location"),
			Trainer:   cell(row, idx, "trainer"),
			Status:    status,
			FirstSeen: firstSeen,
			Visits:    intCell(row, idx, "visits", 0),
			LTV:       ltv,
		}
		if err := c.Validate(); err != nil {
			skipped++
			continue
		}
		out = append(out, c)
	}
	s.logLoad(ctx, path, len(out), skipped)
	return out, nil
}

func (s *Store) logLoad(ctx context.Context, path string, loaded, skipped int) {
	if skipped > 0 {
		s.logger.WarnContext(ctx, "loaded csv with skipped rows",
			log.FieldFile, path, log.FieldRecords, loaded, log.FieldSkipped, skipped)
		return
	}
	s.logger.DebugContext(ctx, "loaded csv",
		log.FieldFile, path, log.FieldRecords, loaded)
}

// readTable opens a CSV file and returns its data rows plus a header
// index. Required column names must all be present.
func readTable(path string, required []string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	idx := indexMap(header)
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, nil, fmt.Errorf("%s missing column %q", filepath.Base(path), col)
		}
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		rows = append(rows, rec)
	}
	return rows, idx, nil
}

func indexMap(headers []string) map[string]int {
	m := make(map[string]int, len(headers))
	for i, h := range headers {
		m[strings.TrimSpace(strings.ToLower(h))] = i
	}
	return m
}

func cell(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func intCell(row []string, idx map[string]int, col string, fallback int) int {
	v := cell(row, idx, col)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func parseDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, core.ErrInvalidDate
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006", "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return core.Date{Time: t}, nil
		}
	}
	return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
}
