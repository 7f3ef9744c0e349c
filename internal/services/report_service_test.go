package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"studiometrics/internal/analytics"
	"studiometrics/internal/core"
	"studiometrics/internal/log"
	"studiometrics/internal/source"
	"studiometrics/internal/source/memory"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError, Component: "test"})
}

func session(trainer, classType string, date core.Date, checkedIn, capacity int, revenueCents int64) core.Session {
	return core.Session{
		Location:  "Centro",
		Trainer:   trainer,
		ClassName: classType + " class",
		ClassType: classType,
		TimeSlot:  "Mon 18:00",
		Date:      date,
		Sessions:  1,
		Booked:    capacity,
		CheckedIn: checkedIn,
		Capacity:  capacity,
		Revenue:   core.Money{Cents: revenueCents},
	}
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	sessions := []core.Session{
		session("Giulia", "Yoga", core.NewDate(2023, 11, 6), 8, 12, 24000),
		session("Giulia", "Yoga", core.NewDate(2024, 1, 8), 10, 12, 30000),
		session("Giulia", "Yoga", core.NewDate(2024, 2, 5), 12, 12, 36000),
		session("Marco", "HIIT", core.NewDate(2024, 1, 9), 18, 24, 48000),
		session("Marco", "HIIT", core.NewDate(2024, 2, 6), 20, 24, 54000),
		// Hosted classes are comp sessions and must never reach a report.
		session("Marco", "Hosted Event", core.NewDate(2024, 2, 7), 50, 50, 0),
	}
	payroll := []core.PayrollLine{
		{Location: "Centro", Trainer: "Giulia", Date: core.NewDate(2024, 2, 1), Sessions: 20, Customers: 180, TotalPaid: core.Money{Cents: 150000}},
		{Location: "Centro", Trainer: "Marco", Date: core.NewDate(2024, 2, 1), Sessions: 10, Customers: 160, TotalPaid: core.Money{Cents: 100000}},
	}
	clients := []core.ClientConversion{
		{ClientID: "c-1", Location: "Centro", Trainer: "Giulia", Status: core.StatusConverted, Visits: 10, LTV: core.Money{Cents: 80000}},
		{ClientID: "c-2", Location: "Centro", Trainer: "Giulia", Status: core.StatusRetained, Visits: 30, LTV: core.Money{Cents: 240000}},
		{ClientID: "c-3", Location: "Centro", Trainer: "Marco", Status: core.StatusProspect, Visits: 1},
		{ClientID: "c-4", Location: "Darsena", Trainer: "Sara", Status: core.StatusDropped, Visits: 3, LTV: core.Money{Cents: 12000}},
	}
	if err := store.Seed(sessions, payroll, clients); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func newTestService(t *testing.T) *ReportService {
	t.Helper()
	return NewReportService(seededStore(t), NewRecordCache(1, time.Minute), Options{}, testLogger())
}

func TestRankings(t *testing.T) {
	svc := newTestService(t)

	rows, err := svc.TrainerRankings(context.Background(), Options{SortBy: MetricRevenue})
	if err != nil {
		t.Fatalf("TrainerRankings: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d trainers, want 2", len(rows))
	}
	if rows[0].Labels[DimTrainer] != "Marco" {
		t.Errorf("top trainer by revenue = %q, want Marco", rows[0].Labels[DimTrainer])
	}

	// The hosted event must not have leaked into Marco's numbers.
	if got := rows[0].Value(MetricCheckedIn); got != 38 {
		t.Errorf("Marco checked_in = %v, want 38 (hosted excluded)", got)
	}

	giulia := rows[1]
	wantFill := float64(8+10+12) / float64(36) * 100
	if math.Abs(giulia.Value(MetricFillRate)-wantFill) > 1e-9 {
		t.Errorf("Giulia fill_rate = %v, want %v", giulia.Value(MetricFillRate), wantFill)
	}
}

func TestRankings_MinSessionsHidesSmallGroups(t *testing.T) {
	svc := newTestService(t)

	rows, err := svc.TrainerRankings(context.Background(), Options{MinSessions: 3})
	if err != nil {
		t.Fatalf("TrainerRankings: %v", err)
	}
	if len(rows) != 1 || rows[0].Labels[DimTrainer] != "Giulia" {
		t.Fatalf("want only Giulia (3 sessions), got %d rows", len(rows))
	}
}

func TestRankings_UnknownDimension(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Rankings(context.Background(), Options{Dimension: "studio_color"})
	if err == nil {
		t.Fatal("expected error for unknown dimension")
	}
}

func TestRankings_UnknownSortField(t *testing.T) {
	svc := newTestService(t)

	// A typoed sort field must fail instead of returning rows in
	// insertion order with every comparison reading 0.
	_, err := svc.Rankings(context.Background(), Options{SortBy: "fil_rate"})
	if !errors.Is(err, analytics.ErrUnknownMetric) {
		t.Fatalf("Rankings(sort=fil_rate) error = %v, want ErrUnknownMetric", err)
	}

	// Sorting by the grouping dimension itself stays valid.
	if _, err := svc.Rankings(context.Background(), Options{SortBy: DimTrainer}); err != nil {
		t.Fatalf("Rankings(sort=trainer): %v", err)
	}
}

func TestFormatComparison(t *testing.T) {
	svc := newTestService(t)

	rows, err := svc.FormatComparison(context.Background(), Options{})
	if err != nil {
		t.Fatalf("FormatComparison: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d formats, want 2 (Yoga, HIIT; hosted dropped)", len(rows))
	}
	for _, r := range rows {
		if analytics.IsHosted(r.Labels[DimClassType]) {
			t.Errorf("hosted format %q reached the report", r.Labels[DimClassType])
		}
	}
}

func TestMonthOnMonth(t *testing.T) {
	svc := newTestService(t)

	trends, err := svc.MonthOnMonth(context.Background(), Options{Dimension: DimTrainer})
	if err != nil {
		t.Fatalf("MonthOnMonth: %v", err)
	}

	var giulia *analytics.TrendRow
	for i := range trends {
		if trends[i].Labels[DimTrainer] == "Giulia" {
			giulia = &trends[i]
		}
	}
	if giulia == nil {
		t.Fatal("no trend row for Giulia")
	}
	if giulia.LatestPeriod != "2024-02" || giulia.PriorPeriod != "2024-01" {
		t.Errorf("compared periods = %q vs %q", giulia.PriorPeriod, giulia.LatestPeriod)
	}
	if got := giulia.Deltas[MetricCheckedIn]; math.Abs(got-20) > 1e-9 {
		t.Errorf("checked_in delta = %v, want 20 (10 -> 12)", got)
	}
	if giulia.LowConfidence {
		t.Error("three months of data must not be low confidence")
	}
}

func TestYearOnYear(t *testing.T) {
	svc := newTestService(t)

	years, err := svc.YearOnYear(context.Background(), Options{Dimension: DimTrainer})
	if err != nil {
		t.Fatalf("YearOnYear: %v", err)
	}
	// Only Giulia spans 2023 and 2024; Marco has a single year.
	if len(years) != 1 {
		t.Fatalf("got %d year comparisons, want 1", len(years))
	}
	yc := years[0]
	if yc.PriorYear != "2023" || yc.LatestYear != "2024" {
		t.Errorf("years = %q vs %q", yc.PriorYear, yc.LatestYear)
	}
	// Revenue 240 -> 660 euros.
	if got := yc.Growth[MetricRevenue]; math.Abs(got-175) > 1e-9 {
		t.Errorf("revenue growth = %v, want 175", got)
	}
}

func TestPayrollSummary(t *testing.T) {
	svc := newTestService(t)

	rows, err := svc.PayrollSummary(context.Background(), Options{})
	if err != nil {
		t.Fatalf("PayrollSummary: %v", err)
	}
	if len(rows) != 2 || rows[0].Labels[DimTrainer] != "Giulia" {
		t.Fatalf("top paid trainer should be Giulia, got %+v", rows)
	}
	if got := rows[0].Value(MetricPayPerSession); math.Abs(got-75) > 1e-9 {
		t.Errorf("pay_per_session = %v, want 75 (1500/20)", got)
	}
}

func TestConversionFunnel(t *testing.T) {
	svc := newTestService(t)

	funnels, err := svc.ConversionFunnel(context.Background())
	if err != nil {
		t.Fatalf("ConversionFunnel: %v", err)
	}
	// Studio-wide plus Centro and Darsena.
	if len(funnels) != 3 {
		t.Fatalf("got %d funnels, want 3", len(funnels))
	}

	overall := funnels[0]
	if overall.Location != "" || overall.Total != 4 {
		t.Fatalf("overall funnel = %+v", overall)
	}
	if math.Abs(overall.ConversionRate-50) > 1e-9 {
		t.Errorf("conversion rate = %v, want 50", overall.ConversionRate)
	}
	if math.Abs(overall.RetentionRate-50) > 1e-9 {
		t.Errorf("retention rate = %v, want 50", overall.RetentionRate)
	}
	// (800 + 2400) / 2 euros, in cents.
	if overall.AvgLTV.Cents != 160000 {
		t.Errorf("avg LTV = %d cents, want 160000", overall.AvgLTV.Cents)
	}
}

// countingSource wraps a RecordSource and counts backend reads.
type countingSource struct {
	source.RecordSource
	calls atomic.Int32
}

func (c *countingSource) ListSessions(ctx context.Context) ([]core.Session, error) {
	c.calls.Add(1)
	return c.RecordSource.ListSessions(ctx)
}

func TestReportsShareOneLoad(t *testing.T) {
	src := &countingSource{RecordSource: seededStore(t)}
	svc := NewReportService(src, NewRecordCache(1, time.Minute), Options{}, testLogger())
	ctx := context.Background()

	if _, err := svc.TrainerRankings(ctx, Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.MonthOnMonth(ctx, Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.PayrollSummary(ctx, Options{}); err != nil {
		t.Fatal(err)
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("backend was read %d times, want 1 (cached)", got)
	}

	svc.InvalidateRecords()
	if _, err := svc.TrainerRankings(ctx, Options{}); err != nil {
		t.Fatal(err)
	}
	if got := src.calls.Load(); got != 2 {
		t.Errorf("after invalidation backend reads = %d, want 2", got)
	}
}
