// Package report turns the stored survey records into the aggregates shown
// on the statistics page.
package report

import (
	"slices"
	"strconv"

	"github.com/Lemmmy/SCHardwareSurvey/internal/stats"
)

// Group is one bucket of an aggregate.
type Group struct {
	Value string `json:"value"`
	Count int    `json:"count"`
	Link  string `json:"link,omitempty"`
}

// Extractor pulls the value to group on out of a record. ok is false when
// the record does not carry it.
type Extractor func(rec stats.Record) (value string, ok bool)

// Transform maps an extracted value to its group key.
type Transform func(string) string

// Field extracts a string field by name.
func Field(name string) Extractor {
	return func(rec stats.Record) (string, bool) {
		return rec.Lookup(name)
	}
}

// Engine computes aggregates over a set of records. It is cheap to create and
// is not safe for concurrent use; build one per report.
type Engine struct {
	order *naturalOrder
}

func NewEngine() *Engine {
	return &Engine{order: newNaturalOrder()}
}

// Group counts records per transformed value of extract and returns the
// buckets in natural order of their keys. Records without the field count
// towards Unknown. A nil transform keeps values as they are.
func (e *Engine) Group(records []stats.Record, extract Extractor, transform Transform) []Group {
	counts := make(map[string]int)
	for _, rec := range records {
		v, ok := extract(rec)
		switch {
		case !ok:
			v = Unknown
		case transform != nil:
			v = transform(v)
		}
		counts[v]++
	}

	groups := make([]Group, 0, len(counts))
	for v, n := range counts {
		groups = append(groups, Group{Value: v, Count: n})
	}
	slices.SortFunc(groups, func(a, b Group) int {
		return e.order.Compare(a.Value, b.Value)
	})
	return groups
}

// Total sums the counts of groups.
func Total(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += g.Count
	}
	return n
}

// sortByInt orders groups by their value read as an integer. Values that are
// not integers go last, in natural order.
func (e *Engine) sortByInt(groups []Group) {
	slices.SortStableFunc(groups, func(a, b Group) int {
		x, errX := strconv.ParseInt(a.Value, 10, 64)
		y, errY := strconv.ParseInt(b.Value, 10, 64)
		switch {
		case errX == nil && errY == nil:
			if x < y {
				return -1
			}
			if x > y {
				return 1
			}
			return 0
		case errX == nil:
			return -1
		case errY == nil:
			return 1
		default:
			return e.order.Compare(a.Value, b.Value)
		}
	})
}

func countWhere(records []stats.Record, pred func(stats.Record) bool) int {
	n := 0
	for _, rec := range records {
		if pred(rec) {
			n++
		}
	}
	return n
}
