package analytics

import (
	"sort"
	"strings"
)

// Delta returns the percentage change from a to b: (b-a)/a*100 when a is
// positive, otherwise 0. A missing or zero baseline never divides, never
// throws, and always yields a concrete number.
func Delta(a, b float64) float64 {
	if a <= 0 {
		return 0
	}
	return (b - a) / a * 100
}

// TrendRow extends one dimension across its month buckets, with a
// rolled-up total and the latest month-over-month deltas.
type TrendRow struct {
	Key     string
	Labels  map[string]string
	Periods map[string]Row
	// Total accumulates every period-carrying record of the dimension, so
	// its totals equal the sum over Periods.
	Total Row
	// Deltas compares the two most recent periods present, per metric.
	Deltas Totals
	// LatestPeriod and PriorPeriod name the two compared months. With a
	// single bucket PriorPeriod is empty, Deltas are all 0, and
	// LowConfidence is set so callers can flag the number.
	LatestPeriod  string
	PriorPeriod   string
	LowConfidence bool
}

// Trends aggregates the dataset per dimension and month, then computes
// month-over-month deltas. Records without a period are skipped. When a
// dimension has a gap in its months, the comparison uses the nearest
// available periods rather than a fixed calendar offset.
func Trends(ds Dataset, spec GroupSpec) ([]TrendRow, error) {
	if err := validateSpec(ds, spec); err != nil {
		return nil, err
	}

	dated := Dataset{
		KeyFields:     ds.KeyFields,
		NumericFields: ds.NumericFields,
	}
	for _, rec := range ds.Records {
		if rec.Period != "" {
			dated.Records = append(dated.Records, rec)
		}
	}

	totals, err := Aggregate(dated, GroupSpec{
		Keys:         spec.Keys,
		Accumulators: spec.Accumulators,
		Derived:      spec.Derived,
		RetainLimit:  spec.RetainLimit,
	})
	if err != nil {
		return nil, err
	}

	trends := make([]TrendRow, 0, len(totals.Rows))
	rowIndex := make(map[string]int, len(totals.Rows))
	for _, total := range totals.Rows {
		trends = append(trends, TrendRow{
			Key:     total.Key,
			Labels:  total.Labels,
			Periods: make(map[string]Row),
			Total:   total,
		})
		rowIndex[total.Key] = len(trends) - 1
	}

	// Bucket per dimension and month. Buckets reuse Aggregate on the
	// dimension's records partitioned by period so every invariant of the
	// plain engine carries over.
	byKeyPeriod := make(map[string]Dataset)
	for _, rec := range dated.Records {
		bk := GroupKeyOf(rec, spec.Keys) + "\x00" + rec.Period
		part := byKeyPeriod[bk]
		part.KeyFields = ds.KeyFields
		part.NumericFields = ds.NumericFields
		part.Records = append(part.Records, rec)
		byKeyPeriod[bk] = part
	}
	for bk, part := range byKeyPeriod {
		sep := strings.IndexByte(bk, '\x00')
		key, period := bk[:sep], bk[sep+1:]
		bucketTable, err := Aggregate(part, GroupSpec{
			Keys:         spec.Keys,
			Accumulators: spec.Accumulators,
			Derived:      spec.Derived,
		})
		if err != nil {
			return nil, err
		}
		if len(bucketTable.Rows) != 1 {
			continue
		}
		trends[rowIndex[key]].Periods[period] = bucketTable.Rows[0]
	}

	for i := range trends {
		computeMoM(&trends[i], spec)
	}

	// Threshold is judged on the rolled-up totals, post aggregation.
	if th := spec.MinThreshold; th != nil {
		kept := trends[:0:0]
		for _, tr := range trends {
			if tr.Total.Value(th.Field) >= th.Min {
				kept = append(kept, tr)
			}
		}
		trends = kept
	}

	return trends, nil
}

func computeMoM(tr *TrendRow, spec GroupSpec) {
	periods := make([]string, 0, len(tr.Periods))
	for p := range tr.Periods {
		periods = append(periods, p)
	}
	// "2006-01" labels sort chronologically as strings.
	sort.Strings(periods)

	tr.Deltas = make(Totals)
	if len(periods) == 0 {
		tr.LowConfidence = true
		return
	}
	tr.LatestPeriod = periods[len(periods)-1]
	if len(periods) < 2 {
		for _, acc := range spec.Accumulators {
			tr.Deltas[acc.Name] = 0
		}
		for _, d := range spec.Derived {
			tr.Deltas[d.Name] = 0
		}
		tr.LowConfidence = true
		return
	}
	tr.PriorPeriod = periods[len(periods)-2]
	latest := tr.Periods[tr.LatestPeriod]
	prior := tr.Periods[tr.PriorPeriod]
	for _, acc := range spec.Accumulators {
		tr.Deltas[acc.Name] = Delta(prior.Totals[acc.Name], latest.Totals[acc.Name])
	}
	for _, d := range spec.Derived {
		tr.Deltas[d.Name] = Delta(prior.Derived[d.Name], latest.Derived[d.Name])
	}
}

// YearComparison holds one dimension's latest two year buckets and the
// growth per metric between them.
type YearComparison struct {
	Key        string
	Labels     map[string]string
	PriorYear  string
	LatestYear string
	Prior      Row
	Latest     Row
	Growth     Totals
}

// YearOverYear buckets the dataset per dimension and year and compares the
// two most recent years. Dimensions with fewer than two distinct years are
// excluded entirely, never zero-filled.
func YearOverYear(ds Dataset, spec GroupSpec) ([]YearComparison, error) {
	if err := validateSpec(ds, spec); err != nil {
		return nil, err
	}

	type yearBuckets struct {
		labels map[string]string
		parts  map[string]Dataset // year -> records
		order  int
	}
	dims := make(map[string]*yearBuckets)
	orderedKeys := make([]string, 0)

	for _, rec := range ds.Records {
		if len(rec.Period) < 4 {
			continue
		}
		key := GroupKeyOf(rec, spec.Keys)
		year := rec.Period[:4]
		yb, ok := dims[key]
		if !ok {
			labels := make(map[string]string, len(rec.Keys))
			for k, v := range rec.Keys {
				labels[k] = v
			}
			yb = &yearBuckets{labels: labels, parts: make(map[string]Dataset)}
			dims[key] = yb
			orderedKeys = append(orderedKeys, key)
		}
		part := yb.parts[year]
		part.KeyFields = ds.KeyFields
		part.NumericFields = ds.NumericFields
		part.Records = append(part.Records, rec)
		yb.parts[year] = part
	}

	out := make([]YearComparison, 0, len(dims))
	for _, key := range orderedKeys {
		yb := dims[key]
		if len(yb.parts) < 2 {
			continue
		}
		years := make([]string, 0, len(yb.parts))
		for y := range yb.parts {
			years = append(years, y)
		}
		sort.Strings(years)
		latestYear := years[len(years)-1]
		priorYear := years[len(years)-2]

		latest, err := aggregateSingle(yb.parts[latestYear], spec)
		if err != nil {
			return nil, err
		}
		prior, err := aggregateSingle(yb.parts[priorYear], spec)
		if err != nil {
			return nil, err
		}

		growth := make(Totals)
		for _, acc := range spec.Accumulators {
			growth[acc.Name] = Delta(prior.Totals[acc.Name], latest.Totals[acc.Name])
		}
		for _, d := range spec.Derived {
			growth[d.Name] = Delta(prior.Derived[d.Name], latest.Derived[d.Name])
		}

		out = append(out, YearComparison{
			Key:        key,
			Labels:     yb.labels,
			PriorYear:  priorYear,
			LatestYear: latestYear,
			Prior:      prior,
			Latest:     latest,
			Growth:     growth,
		})
	}
	return out, nil
}

func aggregateSingle(ds Dataset, spec GroupSpec) (Row, error) {
	t, err := Aggregate(ds, GroupSpec{
		Keys:         spec.Keys,
		Accumulators: spec.Accumulators,
		Derived:      spec.Derived,
	})
	if err != nil {
		return Row{}, err
	}
	if len(t.Rows) == 0 {
		return Row{}, nil
	}
	return t.Rows[0], nil
}
