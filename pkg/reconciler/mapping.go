package reconciler

import (
	"github.com/agentstation/lookupsync/pkg/errors"
)

// Mapping records that a source record corresponds to a destination record.
type Mapping struct {
	SourceID         int    `json:"source_id" yaml:"source_id"`
	SourceTitle      string `json:"source_title" yaml:"source_title"`
	DestinationID    int    `json:"destination_id" yaml:"destination_id"`
	DestinationTitle string `json:"destination_title" yaml:"destination_title"`
}

// Mappings is the ordered result of a reconciliation. A source id appears
// more than once when it matched several destination records.
type Mappings []Mapping

// Duplicate is a source record that matched more than one destination record.
type Duplicate = errors.DuplicateGroup

// Duplicates groups entries by source id and returns every group with
// more than one entry, in order of first appearance.
func (m Mappings) Duplicates() []Duplicate {
	return duplicates(m, func(e Mapping) (int, string, int) {
		return e.SourceID, e.SourceTitle, e.DestinationID
	})
}

// Index keys the mapping by source id. It must only be called once
// Duplicates returned nothing; otherwise the last entry per key wins.
func (m Mappings) Index() map[int]Mapping {
	idx := make(map[int]Mapping, len(m))
	for _, e := range m {
		idx[e.SourceID] = e
	}
	return idx
}

func duplicates[T any](entries []T, key func(T) (int, string, int)) []Duplicate {
	groups := make(map[int]*Duplicate)
	var order []int
	for _, e := range entries {
		src, title, dst := key(e)
		g, ok := groups[src]
		if !ok {
			g = &Duplicate{SourceID: src, SourceTitle: title}
			groups[src] = g
			order = append(order, src)
		}
		g.DestinationIDs = append(g.DestinationIDs, dst)
	}

	var out []Duplicate
	for _, src := range order {
		if g := groups[src]; len(g.DestinationIDs) > 1 {
			out = append(out, *g)
		}
	}
	return out
}
