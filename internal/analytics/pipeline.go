package analytics

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// SortRows returns a stably sorted copy of rows. Fields present in the
// row labels compare as collated strings; everything else compares as a
// number via Row.Value. The input slice is never mutated.
func SortRows(rows []Row, field string, dir Direction) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)

	isLabel := false
	if len(out) > 0 {
		_, isLabel = out[0].Labels[field]
	}

	// Label fields sort with locale-aware collation so accented trainer
	// and class names order the way the UI shows them. The collator keeps
	// scratch buffers, so it is built per call like the rest of the
	// engine's state.
	var collator *collate.Collator
	if isLabel {
		collator = collate.New(language.English, collate.IgnoreCase)
	}

	less := func(i, j int) bool {
		if isLabel {
			c := collator.CompareString(out[i].Labels[field], out[j].Labels[field])
			if dir == Ascending {
				return c < 0
			}
			return c > 0
		}
		a, b := out[i].Value(field), out[j].Value(field)
		if dir == Ascending {
			return a < b
		}
		return a > b
	}
	sort.SliceStable(out, less)
	return out
}

// Rank returns the first limit rows of the stable sort; ties keep their
// insertion order. limit <= 0 returns every row.
func Rank(rows []Row, field string, dir Direction, limit int) []Row {
	sorted := SortRows(rows, field, dir)
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// FilterByThreshold keeps rows whose field value is at least min
// (inclusive).
func FilterByThreshold(rows []Row, field string, min float64) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Value(field) >= min {
			out = append(out, r)
		}
	}
	return out
}

// SortState models column-header clicks in the tables: the first click on
// a column sorts descending, a repeat click toggles, and clicking a
// different column resets to descending.
type SortState struct {
	Field     string
	Direction Direction
}

// Click updates the state for a click on the named column.
func (s *SortState) Click(field string) {
	if s.Field != field {
		s.Field = field
		s.Direction = Descending
		return
	}
	if s.Direction == Descending {
		s.Direction = Ascending
	} else {
		s.Direction = Descending
	}
}

// Apply sorts rows with the current state.
func (s SortState) Apply(rows []Row) []Row {
	if s.Field == "" {
		out := make([]Row, len(rows))
		copy(out, rows)
		return out
	}
	return SortRows(rows, s.Field, s.Direction)
}
