package analytics

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownDimension marks a grouping field the dataset never
	// declared. This is a caller bug, not bad data, and is raised before
	// any output is produced.
	ErrUnknownDimension = errors.New("unknown grouping dimension")
	// ErrUnknownMetric marks an accumulator or threshold field no record
	// can carry.
	ErrUnknownMetric = errors.New("unknown metric")
)

// Totals maps metric name to accumulated or derived value.
type Totals map[string]float64

// Accumulator folds one numeric field across a group. Combine defaults to
// addition, which covers every count/amount metric the reports use.
type Accumulator struct {
	Name string
	// Field is the source numeric field; empty means same as Name.
	Field   string
	Combine func(acc, v float64) float64
}

func (a Accumulator) sourceField() string {
	if a.Field != "" {
		return a.Field
	}
	return a.Name
}

// Derived computes a metric from the final totals of a group. Derived
// metrics run in a second pass after folding, never interleaved with it,
// so rounding cannot depend on record order.
type Derived struct {
	Name    string
	Compute func(t Totals) float64
}

// Ratio builds a zero-safe Derived: num/den scaled by scale. A zero or
// missing denominator yields 0, never NaN or Inf.
func Ratio(name, num, den string, scale float64) Derived {
	return Derived{
		Name: name,
		Compute: func(t Totals) float64 {
			d := t[den]
			if d == 0 {
				return 0
			}
			return t[num] / d * scale
		},
	}
}

// Threshold drops groups whose metric stays below Min. It is applied
// strictly after aggregation: a group is judged on its full totals, never
// on a single contributing record.
type Threshold struct {
	Field string
	Min   float64
}

// GroupSpec configures one aggregation pass.
type GroupSpec struct {
	Keys         []string
	Accumulators []Accumulator
	Derived      []Derived
	MinThreshold *Threshold
	// RetainLimit caps how many contributing records each row keeps for
	// drill-down. 0 keeps none.
	RetainLimit int
}

// Row is the accumulated result for one group key.
type Row struct {
	Key     string
	Labels  map[string]string
	Totals  Totals
	Derived Totals
	Count   int
	Records []Record
}

// Value resolves a metric or count on the row; unknown names read as 0.
func (r Row) Value(field string) float64 {
	if field == "count" {
		return float64(r.Count)
	}
	if v, ok := r.Totals[field]; ok {
		return v
	}
	return r.Derived[field]
}

// Table holds aggregated rows in first-seen group order.
type Table struct {
	Rows []Row
}

// Lookup finds a row by its group key.
func (t Table) Lookup(key string) (Row, bool) {
	for _, r := range t.Rows {
		if r.Key == key {
			return r, true
		}
	}
	return Row{}, false
}

// GroupKeyOf builds the composite key for a record: the named key fields
// joined with "|", case-sensitive, in the given order.
func GroupKeyOf(r Record, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = r.Keys[k]
	}
	return strings.Join(parts, "|")
}

// Aggregate folds the dataset into one row per composite group key.
// Records fold left to right; the first appearance of a key fixes the
// row's position and its identity labels. Derived metrics are computed
// after folding, and the minimum threshold after that. An empty dataset
// yields an empty table.
func Aggregate(ds Dataset, spec GroupSpec) (Table, error) {
	if err := validateSpec(ds, spec); err != nil {
		return Table{}, err
	}

	index := make(map[string]int)
	rows := make([]Row, 0)

	for _, rec := range ds.Records {
		key := GroupKeyOf(rec, spec.Keys)
		i, seen := index[key]
		if !seen {
			labels := make(map[string]string, len(rec.Keys))
			for k, v := range rec.Keys {
				labels[k] = v
			}
			rows = append(rows, Row{
				Key:    key,
				Labels: labels,
				Totals: make(Totals, len(spec.Accumulators)),
			})
			i = len(rows) - 1
			index[key] = i
		}
		row := &rows[i]
		row.Count++
		for _, acc := range spec.Accumulators {
			v := rec.Values[acc.sourceField()]
			if acc.Combine != nil {
				row.Totals[acc.Name] = acc.Combine(row.Totals[acc.Name], v)
			} else {
				row.Totals[acc.Name] += v
			}
		}
		if spec.RetainLimit > 0 && len(row.Records) < spec.RetainLimit {
			row.Records = append(row.Records, rec)
		}
	}

	// Second pass: derived metrics from final totals only.
	for i := range rows {
		rows[i].Derived = make(Totals, len(spec.Derived))
		for _, d := range spec.Derived {
			rows[i].Derived[d.Name] = d.Compute(rows[i].Totals)
		}
	}

	if th := spec.MinThreshold; th != nil {
		kept := rows[:0:0]
		for _, r := range rows {
			if r.Value(th.Field) >= th.Min {
				kept = append(kept, r)
			}
		}
		rows = kept
	}

	return Table{Rows: rows}, nil
}

func validateSpec(ds Dataset, spec GroupSpec) error {
	if len(spec.Keys) == 0 {
		return fmt.Errorf("%w: no grouping fields given", ErrUnknownDimension)
	}
	keySet := make(map[string]bool, len(ds.KeyFields))
	for _, k := range ds.KeyFields {
		keySet[k] = true
	}
	for _, k := range spec.Keys {
		if !keySet[k] {
			return fmt.Errorf("%w: %q", ErrUnknownDimension, k)
		}
	}
	numSet := make(map[string]bool, len(ds.NumericFields))
	for _, n := range ds.NumericFields {
		numSet[n] = true
	}
	metricSet := map[string]bool{"count": true}
	for _, acc := range spec.Accumulators {
		if !numSet[acc.sourceField()] {
			return fmt.Errorf("%w: %q", ErrUnknownMetric, acc.sourceField())
		}
		metricSet[acc.Name] = true
	}
	for _, d := range spec.Derived {
		metricSet[d.Name] = true
	}
	if th := spec.MinThreshold; th != nil && !metricSet[th.Field] {
		return fmt.Errorf("%w: threshold field %q", ErrUnknownMetric, th.Field)
	}
	return nil
}
