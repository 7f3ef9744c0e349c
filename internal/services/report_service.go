package services

import (
	"context"
	"fmt"
	"time"

	"studiometrics/internal/analytics"
	"studiometrics/internal/cache"
	"studiometrics/internal/core"
	"studiometrics/internal/log"
	"studiometrics/internal/source"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options tunes one report run. Zero values fall back to the service
// defaults configured at construction.
type Options struct {
	// Dimension to group by, e.g. "trainer" or "class_type".
	Dimension string
	// SortBy names the metric used for ordering and ranking.
	SortBy    string
	Direction analytics.Direction
	// TopN caps the number of rows returned; 0 returns all.
	TopN int
	// MinSessions hides groups with too few sessions to mean anything.
	MinSessions int
	// RetainLimit caps the drill-down records kept per row.
	RetainLimit int
}

// ReportService loads studio records from the configured source and runs
// the aggregation engine over them. One loaded record set is shared by
// all reports through the cache, so switching between views does not
// re-read the backend.
type ReportService struct {
	src      source.RecordSource
	logger   *log.Logger
	records  *cache.Cache[recordSet]
	defaults Options
}

type recordSet struct {
	sessions []core.Session
	payroll  []core.PayrollLine
	clients  []core.ClientConversion
}

const recordSetKey = "records"

func NewReportService(src source.RecordSource, records *cache.Cache[recordSet], defaults Options, logger *log.Logger) *ReportService {
	if defaults.Dimension == "" {
		defaults.Dimension = DimTrainer
	}
	if defaults.SortBy == "" {
		defaults.SortBy = MetricCheckedIn
	}
	if defaults.Direction == "" {
		defaults.Direction = analytics.Descending
	}
	if records == nil {
		records = NewRecordCache(1, 5*time.Minute)
	}
	return &ReportService{
		src:      src,
		logger:   logger.WithComponent(log.ComponentReports),
		records:  records,
		defaults: defaults,
	}
}

// NewRecordCache builds a record-set cache sized for a report service.
func NewRecordCache(size int, ttl time.Duration) *cache.Cache[recordSet] {
	return cache.New[recordSet](size, ttl)
}

// load fetches all three record families, concurrently, through the
// cache. A failure in any family fails the whole load; reports never see
// a partially loaded set.
func (s *ReportService) load(ctx context.Context) (recordSet, error) {
	return s.records.GetOrLoad(recordSetKey, func() (recordSet, error) {
		var rs recordSet
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			rs.sessions, err = s.src.ListSessions(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			rs.payroll, err = s.src.ListPayroll(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			rs.clients, err = s.src.ListClients(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return recordSet{}, fmt.Errorf("load records: %w", err)
		}
		return rs, nil
	})
}

func (s *ReportService) merge(opts Options) Options {
	if opts.Dimension == "" {
		opts.Dimension = s.defaults.Dimension
	}
	if opts.SortBy == "" {
		opts.SortBy = s.defaults.SortBy
	}
	if opts.Direction == "" {
		opts.Direction = s.defaults.Direction
	}
	if opts.TopN == 0 {
		opts.TopN = s.defaults.TopN
	}
	if opts.MinSessions == 0 {
		opts.MinSessions = s.defaults.MinSessions
	}
	if opts.RetainLimit == 0 {
		opts.RetainLimit = s.defaults.RetainLimit
	}
	return opts
}

func (s *ReportService) sessionSpec(opts Options) analytics.GroupSpec {
	spec := analytics.GroupSpec{
		Keys:         []string{opts.Dimension},
		Accumulators: sessionAccumulators(),
		Derived:      sessionDerived(),
		RetainLimit:  opts.RetainLimit,
	}
	if opts.MinSessions > 0 {
		spec.MinThreshold = &analytics.Threshold{Field: MetricSessions, Min: float64(opts.MinSessions)}
	}
	return spec
}

// validateSortField rejects a sort field the spec does not produce.
// Aggregate already fails loudly on unknown dimensions and accumulator
// sources; without this check a typoed SortBy would compare zeros and
// hand back the rows in insertion order.
func validateSortField(spec analytics.GroupSpec, field string) error {
	if field == "count" {
		return nil
	}
	for _, k := range spec.Keys {
		if field == k {
			return nil
		}
	}
	for _, acc := range spec.Accumulators {
		if field == acc.Name {
			return nil
		}
	}
	for _, d := range spec.Derived {
		if field == d.Name {
			return nil
		}
	}
	return fmt.Errorf("%w: sort field %q", analytics.ErrUnknownMetric, field)
}

// Rankings aggregates sessions along one dimension and ranks the groups
// by the requested metric.
func (s *ReportService) Rankings(ctx context.Context, opts Options) ([]analytics.Row, error) {
	opts = s.merge(opts)
	spec := s.sessionSpec(opts)
	if err := validateSortField(spec, opts.SortBy); err != nil {
		return nil, fmt.Errorf("rankings by %s: %w", opts.Dimension, err)
	}
	runID := uuid.NewString()
	s.logger.InfoContext(ctx, "running report",
		log.FieldRunID, runID, log.FieldReport, "rankings",
		log.FieldDimension, opts.Dimension, log.FieldMetric, opts.SortBy)

	rs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	ds := analytics.Normalize(rs.sessions, sessionMapping())
	table, err := analytics.Aggregate(ds, spec)
	if err != nil {
		return nil, fmt.Errorf("rankings by %s: %w", opts.Dimension, err)
	}
	rows := analytics.Rank(table.Rows, opts.SortBy, opts.Direction, opts.TopN)
	s.logger.DebugContext(ctx, "report done",
		log.FieldRunID, runID, log.FieldRows, len(rows))
	return rows, nil
}

// TrainerRankings is Rankings fixed to the trainer dimension.
func (s *ReportService) TrainerRankings(ctx context.Context, opts Options) ([]analytics.Row, error) {
	opts.Dimension = DimTrainer
	return s.Rankings(ctx, opts)
}

// FormatComparison compares class formats: one row per class type with
// the full metric set, ranked like any other dimension.
func (s *ReportService) FormatComparison(ctx context.Context, opts Options) ([]analytics.Row, error) {
	opts.Dimension = DimClassType
	return s.Rankings(ctx, opts)
}

// MonthOnMonth buckets sessions per month along one dimension and
// reports the latest month-over-month deltas per metric.
func (s *ReportService) MonthOnMonth(ctx context.Context, opts Options) ([]analytics.TrendRow, error) {
	opts = s.merge(opts)
	runID := uuid.NewString()
	s.logger.InfoContext(ctx, "running report",
		log.FieldRunID, runID, log.FieldReport, "month_on_month",
		log.FieldDimension, opts.Dimension)

	rs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	ds := analytics.Normalize(rs.sessions, sessionMapping())
	trends, err := analytics.Trends(ds, s.sessionSpec(opts))
	if err != nil {
		return nil, fmt.Errorf("month on month by %s: %w", opts.Dimension, err)
	}
	s.logger.DebugContext(ctx, "report done",
		log.FieldRunID, runID, log.FieldRows, len(trends))
	return trends, nil
}

// YearOnYear compares the latest two years of sessions per dimension.
// Dimensions present in only one year are excluded rather than zero-filled.
func (s *ReportService) YearOnYear(ctx context.Context, opts Options) ([]analytics.YearComparison, error) {
	opts = s.merge(opts)
	runID := uuid.NewString()
	s.logger.InfoContext(ctx, "running report",
		log.FieldRunID, runID, log.FieldReport, "year_on_year",
		log.FieldDimension, opts.Dimension)

	rs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	ds := analytics.Normalize(rs.sessions, sessionMapping())
	years, err := analytics.YearOverYear(ds, s.sessionSpec(opts))
	if err != nil {
		return nil, fmt.Errorf("year on year by %s: %w", opts.Dimension, err)
	}
	s.logger.DebugContext(ctx, "report done",
		log.FieldRunID, runID, log.FieldRows, len(years))
	return years, nil
}

// PayrollSummary aggregates payroll lines per location and trainer with
// per-session and per-customer pay rates, ranked by total paid.
func (s *ReportService) PayrollSummary(ctx context.Context, opts Options) ([]analytics.Row, error) {
	opts = s.merge(opts)
	runID := uuid.NewString()
	s.logger.InfoContext(ctx, "running report",
		log.FieldRunID, runID, log.FieldReport, "payroll_summary")

	rs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	ds := analytics.Normalize(rs.payroll, payrollMapping())
	table, err := analytics.Aggregate(ds, analytics.GroupSpec{
		Keys:         []string{DimLocation, DimTrainer},
		Accumulators: payrollAccumulators(),
		Derived:      payrollDerived(),
	})
	if err != nil {
		return nil, fmt.Errorf("payroll summary: %w", err)
	}
	rows := analytics.Rank(table.Rows, MetricTotalPaid, analytics.Descending, opts.TopN)
	s.logger.DebugContext(ctx, "report done",
		log.FieldRunID, runID, log.FieldRows, len(rows))
	return rows, nil
}

// InvalidateRecords drops the cached record set so the next report
// re-reads the backend.
func (s *ReportService) InvalidateRecords() {
	s.records.Invalidate(recordSetKey)
}
