package services

import (
	"time"

	"studiometrics/internal/analytics"
	"studiometrics/internal/core"
)

// Metric names shared by the session reports.
const (
	MetricSessions      = "sessions"
	MetricBooked        = "booked"
	MetricCheckedIn     = "checked_in"
	MetricCapacity      = "capacity"
	MetricLateCancelled = "late_cancelled"
	MetricEmptySessions = "empty_sessions"
	MetricRevenue       = "revenue"

	MetricFillRate           = "fill_rate"
	MetricCancellationRate   = "cancellation_rate"
	MetricAvgClassSize       = "avg_class_size"
	MetricRevenuePerAttendee = "revenue_per_attendee"
	MetricEmptyRate          = "empty_rate"
)

// Dimension names a session report can group by.
const (
	DimLocation  = "location"
	DimTrainer   = "trainer"
	DimClassName = "class_name"
	DimClassType = "class_type"
	DimTimeSlot  = "time_slot"
)

// sessionMapping flattens session rows for the engine. Hosted classes are
// excluded here, before any grouping, so no report ever sees them.
func sessionMapping() analytics.Mapping[core.Session] {
	return analytics.Mapping[core.Session]{
		GroupFields: []analytics.Field[core.Session]{
			{Name: DimLocation, Get: func(s core.Session) string { return s.Location }},
			{Name: DimTrainer, Get: func(s core.Session) string { return s.Trainer }},
			{Name: DimClassName, Get: func(s core.Session) string { return s.ClassName }},
			{Name: DimClassType, Get: func(s core.Session) string { return s.ClassType }},
			{Name: DimTimeSlot, Get: func(s core.Session) string { return s.TimeSlot }},
		},
		Numerics: []analytics.Numeric[core.Session]{
			{Name: MetricSessions, Get: func(s core.Session) float64 { return float64(s.Sessions) }},
			{Name: MetricBooked, Get: func(s core.Session) float64 { return float64(s.Booked) }},
			{Name: MetricCheckedIn, Get: func(s core.Session) float64 { return float64(s.CheckedIn) }},
			{Name: MetricCapacity, Get: func(s core.Session) float64 { return float64(s.Capacity) }},
			{Name: MetricLateCancelled, Get: func(s core.Session) float64 { return float64(s.LateCancelled) }},
			{Name: MetricEmptySessions, Get: func(s core.Session) float64 { return float64(s.EmptySessions) }},
			{Name: MetricRevenue, Get: func(s core.Session) float64 { return s.Revenue.Euros() }},
		},
		Date: func(s core.Session) (time.Time, bool) {
			return s.Date.Time, !s.Date.IsZero()
		},
		Exclude: func(s core.Session) bool {
			return analytics.IsHosted(s.ClassType)
		},
	}
}

// sessionAccumulators folds every raw session metric by addition.
func sessionAccumulators() []analytics.Accumulator {
	return []analytics.Accumulator{
		{Name: MetricSessions},
		{Name: MetricBooked},
		{Name: MetricCheckedIn},
		{Name: MetricCapacity},
		{Name: MetricLateCancelled},
		{Name: MetricEmptySessions},
		{Name: MetricRevenue},
	}
}

// sessionDerived defines the ratio metrics. All of them are computed from
// the group's final totals, and all of them read 0 on a zero denominator.
func sessionDerived() []analytics.Derived {
	return []analytics.Derived{
		analytics.Ratio(MetricFillRate, MetricCheckedIn, MetricCapacity, 100),
		analytics.Ratio(MetricCancellationRate, MetricLateCancelled, MetricBooked, 100),
		analytics.Ratio(MetricAvgClassSize, MetricCheckedIn, MetricSessions, 1),
		analytics.Ratio(MetricRevenuePerAttendee, MetricRevenue, MetricCheckedIn, 1),
		analytics.Ratio(MetricEmptyRate, MetricEmptySessions, MetricSessions, 100),
	}
}

// Payroll metrics.
const (
	MetricCustomers      = "customers"
	MetricTotalPaid      = "total_paid"
	MetricPayPerSession  = "pay_per_session"
	MetricPayPerCustomer = "pay_per_customer"
)

func payrollMapping() analytics.Mapping[core.PayrollLine] {
	return analytics.Mapping[core.PayrollLine]{
		GroupFields: []analytics.Field[core.PayrollLine]{
			{Name: DimLocation, Get: func(p core.PayrollLine) string { return p.Location }},
			{Name: DimTrainer, Get: func(p core.PayrollLine) string { return p.Trainer }},
		},
		Numerics: []analytics.Numeric[core.PayrollLine]{
			{Name: MetricSessions, Get: func(p core.PayrollLine) float64 { return float64(p.Sessions) }},
			{Name: MetricCustomers, Get: func(p core.PayrollLine) float64 { return float64(p.Customers) }},
			{Name: MetricTotalPaid, Get: func(p core.PayrollLine) float64 { return p.TotalPaid.Euros() }},
		},
		Date: func(p core.PayrollLine) (time.Time, bool) {
			return p.Date.Time, !p.Date.IsZero()
		},
	}
}

func payrollAccumulators() []analytics.Accumulator {
	return []analytics.Accumulator{
		{Name: MetricSessions},
		{Name: MetricCustomers},
		{Name: MetricTotalPaid},
	}
}

func payrollDerived() []analytics.Derived {
	return []analytics.Derived{
		analytics.Ratio(MetricPayPerSession, MetricTotalPaid, MetricSessions, 1),
		analytics.Ratio(MetricPayPerCustomer, MetricTotalPaid, MetricCustomers, 1),
	}
}
