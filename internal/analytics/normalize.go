// Package analytics is the in-memory aggregation engine behind every
// studio report: it normalizes typed records into flat key/value rows,
// groups and accumulates them, derives ratio metrics, compares periods,
// and sorts/ranks the result for presentation.
//
// Every entry point is a pure function of its inputs. No state survives a
// call, so concurrent callers with different parameters never interfere.
package analytics

import (
	"log/slog"
	"strings"
	"time"

	"studiometrics/internal/log"
)

// Record is one normalized fact: string key fields used for grouping,
// numeric fields folded by accumulators, and an optional month label.
type Record struct {
	Keys   map[string]string
	Values map[string]float64
	// Period is the "2006-01" month label, empty when the source record
	// had no parseable date. Period-keyed views skip such records; plain
	// aggregates still include them.
	Period string
}

// Dataset is the normalizer output. KeyFields and NumericFields declare
// every field the mapping produced, so the engine can reject a grouping
// or metric name no record could ever carry.
type Dataset struct {
	Records       []Record
	KeyFields     []string
	NumericFields []string
}

// Field extracts one grouping key from a source record.
type Field[T any] struct {
	Name string
	Get  func(T) string
}

// Numeric extracts one numeric field. Absent source values must come back
// as 0 so they never poison downstream arithmetic.
type Numeric[T any] struct {
	Name string
	Get  func(T) float64
}

// Mapping declares how one record family flattens into the engine's shape.
type Mapping[T any] struct {
	GroupFields []Field[T]
	Numerics    []Numeric[T]
	// Date yields the record's date for period derivation. ok=false marks
	// the record as period-less: kept for plain aggregates, skipped by
	// period views, and logged once here.
	Date func(T) (time.Time, bool)
	// Exclude drops a record before grouping. nil means keep everything.
	Exclude func(T) bool
}

// IsHosted reports whether a class type denotes a hosted or complimentary
// class. Those rows are not real performance data and are dropped before
// any grouping.
func IsHosted(classType string) bool {
	return strings.Contains(strings.ToLower(classType), "hosted")
}

// Normalize flattens typed records into a Dataset using the mapping.
// Excluded records are dropped; records without a usable date are kept
// with an empty period and a logged warning.
func Normalize[T any](items []T, m Mapping[T]) Dataset {
	ds := Dataset{
		Records:       make([]Record, 0, len(items)),
		KeyFields:     make([]string, 0, len(m.GroupFields)),
		NumericFields: make([]string, 0, len(m.Numerics)),
	}
	for _, f := range m.GroupFields {
		ds.KeyFields = append(ds.KeyFields, f.Name)
	}
	for _, n := range m.Numerics {
		ds.NumericFields = append(ds.NumericFields, n.Name)
	}

	dateless := 0
	for _, item := range items {
		if m.Exclude != nil && m.Exclude(item) {
			continue
		}
		rec := Record{
			Keys:   make(map[string]string, len(m.GroupFields)),
			Values: make(map[string]float64, len(m.Numerics)),
		}
		for _, f := range m.GroupFields {
			rec.Keys[f.Name] = f.Get(item)
		}
		for _, n := range m.Numerics {
			rec.Values[n.Name] = n.Get(item)
		}
		if m.Date != nil {
			if t, ok := m.Date(item); ok && !t.IsZero() {
				rec.Period = t.Format("2006-01")
			} else {
				dateless++
			}
		}
		ds.Records = append(ds.Records, rec)
	}
	if dateless > 0 {
		slog.Warn("Records without a parseable date excluded from period views",
			log.FieldComponent, log.ComponentAnalytics,
			"count", dateless, "total", len(items))
	}
	return ds
}
