package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"studiometrics/internal/analytics"
	"studiometrics/internal/cli"
	"studiometrics/internal/log"
	"studiometrics/internal/services"
)

func main() {
	report := flag.String("report", "rankings", "report to run: rankings, formats, mom, yoy, payroll, funnel")
	dimension := flag.String("dimension", "trainer", "dimension to group by: location, trainer, class_name, class_type, time_slot")
	sortBy := flag.String("sort", "", "metric to sort by (default depends on report)")
	direction := flag.String("direction", "descending", "sort direction: ascending or descending")
	topN := flag.Int("top", 0, "limit output to the top N rows, 0 for all")
	minSessions := flag.Int("min-sessions", -1, "hide groups with fewer sessions, -1 uses the configured default")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := cli.SetupLogger(level)
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	src, err := cli.NewSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize data backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	logger.Info("Initialized data backend", log.FieldBackend, cfg.DataBackend)

	opts := services.Options{
		Dimension:   *dimension,
		SortBy:      *sortBy,
		TopN:        *topN,
		MinSessions: cfg.MinSessions,
		RetainLimit: cfg.RetainLimit,
	}
	if *minSessions >= 0 {
		opts.MinSessions = *minSessions
	}
	if *direction == "ascending" {
		opts.Direction = analytics.Ascending
	} else {
		opts.Direction = analytics.Descending
	}

	svc := services.NewReportService(src, services.NewRecordCache(cfg.CacheSize, cfg.CacheTTL), opts, logger)

	if err := run(ctx, svc, *report, opts); err != nil {
		logger.Error("Report failed", log.FieldReport, *report, log.FieldError, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, svc *services.ReportService, report string, opts services.Options) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	switch report {
	case "rankings":
		rows, err := svc.Rankings(ctx, opts)
		if err != nil {
			return err
		}
		return renderRows(w, opts.Dimension, rows)
	case "formats":
		rows, err := svc.FormatComparison(ctx, opts)
		if err != nil {
			return err
		}
		return renderRows(w, services.DimClassType, rows)
	case "mom":
		trends, err := svc.MonthOnMonth(ctx, opts)
		if err != nil {
			return err
		}
		return renderTrends(w, opts.Dimension, trends)
	case "yoy":
		years, err := svc.YearOnYear(ctx, opts)
		if err != nil {
			return err
		}
		return renderYears(w, opts.Dimension, years)
	case "payroll":
		rows, err := svc.PayrollSummary(ctx, opts)
		if err != nil {
			return err
		}
		return renderPayroll(w, rows)
	case "funnel":
		funnels, err := svc.ConversionFunnel(ctx)
		if err != nil {
			return err
		}
		return renderFunnels(w, funnels)
	default:
		return fmt.Errorf("unknown report %q", report)
	}
}

func renderRows(w *tabwriter.Writer, dimension string, rows []analytics.Row) error {
	fmt.Fprintf(w, "%s\tsessions\tchecked_in\tfill_rate\tcancel_rate\tavg_size\trevenue\trev_per_attendee\n", dimension)
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%.1f%%\t%.1f%%\t%.1f\t%.2f\t%.2f\n",
			r.Labels[dimension],
			r.Value(services.MetricSessions),
			r.Value(services.MetricCheckedIn),
			r.Value(services.MetricFillRate),
			r.Value(services.MetricCancellationRate),
			r.Value(services.MetricAvgClassSize),
			r.Value(services.MetricRevenue),
			r.Value(services.MetricRevenuePerAttendee),
		)
	}
	return nil
}

func renderTrends(w *tabwriter.Writer, dimension string, trends []analytics.TrendRow) error {
	fmt.Fprintf(w, "%s\tperiods\tlatest\tsessions Δ\tchecked_in Δ\trevenue Δ\tfill_rate Δ\tnote\n", dimension)
	for _, tr := range trends {
		note := ""
		if tr.LowConfidence {
			note = "single period"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%+.1f%%\t%+.1f%%\t%+.1f%%\t%+.1f%%\t%s\n",
			tr.Labels[dimension],
			len(tr.Periods),
			tr.LatestPeriod,
			tr.Deltas[services.MetricSessions],
			tr.Deltas[services.MetricCheckedIn],
			tr.Deltas[services.MetricRevenue],
			tr.Deltas[services.MetricFillRate],
			note,
		)
	}
	return nil
}

func renderYears(w *tabwriter.Writer, dimension string, years []analytics.YearComparison) error {
	fmt.Fprintf(w, "%s\tyears\trevenue prior\trevenue latest\trevenue Δ\tchecked_in Δ\n", dimension)
	for _, yc := range years {
		fmt.Fprintf(w, "%s\t%s vs %s\t%.2f\t%.2f\t%+.1f%%\t%+.1f%%\n",
			yc.Labels[dimension],
			yc.PriorYear, yc.LatestYear,
			yc.Prior.Value(services.MetricRevenue),
			yc.Latest.Value(services.MetricRevenue),
			yc.Growth[services.MetricRevenue],
			yc.Growth[services.MetricCheckedIn],
		)
	}
	return nil
}

func renderPayroll(w *tabwriter.Writer, rows []analytics.Row) error {
	fmt.Fprintf(w, "location\ttrainer\tsessions\tcustomers\ttotal_paid\tper_session\tper_customer\n")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%.0f\t%.0f\t%.2f\t%.2f\t%.2f\n",
			r.Labels[services.DimLocation],
			r.Labels[services.DimTrainer],
			r.Value(services.MetricSessions),
			r.Value(services.MetricCustomers),
			r.Value(services.MetricTotalPaid),
			r.Value(services.MetricPayPerSession),
			r.Value(services.MetricPayPerCustomer),
		)
	}
	return nil
}

func renderFunnels(w *tabwriter.Writer, funnels []services.Funnel) error {
	fmt.Fprintf(w, "location\tprospect\tconverted\tretained\tdropped\tconversion\tretention\tavg_ltv\n")
	for _, f := range funnels {
		name := f.Location
		if name == "" {
			name = "(all)"
		}
		counts := make(map[string]int, len(f.Stages))
		for _, st := range f.Stages {
			counts[string(st.Status)] = st.Count
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.1f%%\t%.1f%%\t%.2f\n",
			name,
			counts["prospect"], counts["converted"], counts["retained"], counts["dropped"],
			f.ConversionRate, f.RetentionRate, f.AvgLTV.Euros(),
		)
	}
	return nil
}
