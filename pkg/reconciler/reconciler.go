// Package reconciler matches the records of two list stores on a set of
// identifying attributes and pushes a lookup mapping through the matched
// master records.
//
// A run uses it twice: once to pair the lookup-target lists, once to pair
// the master lists. Every matched pair is kept, so a source record that
// matches several destination records shows up several times; Duplicates
// surfaces that instead of picking one.
package reconciler

import (
	"github.com/agentstation/lookupsync/pkg/lists"
)

// Reconciler pairs records with a configured strategy.
type Reconciler struct {
	options *options
}

// New creates a Reconciler.
func New(opts ...Option) (*Reconciler, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Reconciler{options: o}, nil
}

// Strategy returns the configured join strategy.
func (r *Reconciler) Strategy() Strategy {
	return r.options.strategy
}

// Reconcile returns one Mapping per matching (source, destination) pair,
// ordered by source position then destination position. Source records
// without a match are absent from the result.
func (r *Reconciler) Reconcile(src, dst []lists.Record, attrs []string) Mappings {
	return r.options.strategy.Join(src, dst, attrs)
}

// Reconcile pairs records with the default cross-join.
func Reconcile(src, dst []lists.Record, attrs []string) Mappings {
	return CrossJoin.Join(src, dst, attrs)
}

// Matches reports whether two records agree on every identifying
// attribute. "Id" (any case) compares record identifiers; any other
// attribute must be present on both records with equal values.
func Matches(a, b lists.Record, attrs []string) bool {
	for _, name := range attrs {
		if lists.IsIDAttribute(name) {
			if a.ID != b.ID {
				return false
			}
			continue
		}

		av, ok := a.Get(name)
		if !ok {
			return false
		}
		bv, ok := b.Get(name)
		if !ok {
			return false
		}
		if !lists.Equal(av, bv) {
			return false
		}
	}
	return true
}

// Unmatched returns the source records that have no entry in m, in source order.
func Unmatched(src []lists.Record, m Mappings) []lists.Record {
	seen := make(map[int]bool, len(m))
	for _, entry := range m {
		seen[entry.SourceID] = true
	}

	var out []lists.Record
	for _, r := range src {
		if !seen[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

func newMapping(s, d lists.Record) Mapping {
	return Mapping{
		SourceID:         s.ID,
		SourceTitle:      s.Title(),
		DestinationID:    d.ID,
		DestinationTitle: d.Title(),
	}
}
