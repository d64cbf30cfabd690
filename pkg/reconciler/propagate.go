package reconciler

import (
	"github.com/agentstation/lookupsync/pkg/lists"
	"github.com/agentstation/lookupsync/pkg/lookup"
)

// MasterItemMapping is one matched master record with its lookup ids on
// both sides. Either id list may be empty.
type MasterItemMapping struct {
	SourceID             int    `json:"source_id" yaml:"source_id"`
	SourceTitle          string `json:"source_title" yaml:"source_title"`
	SourceLookupIDs      []int  `json:"source_lookup_ids" yaml:"source_lookup_ids"`
	DestinationID        int    `json:"destination_id" yaml:"destination_id"`
	DestinationTitle     string `json:"destination_title" yaml:"destination_title"`
	DestinationLookupIDs []int  `json:"destination_lookup_ids" yaml:"destination_lookup_ids"`
}

// Propagate rewrites the lookup value of every matched master record
// through the lookup mapping. For each entry of master, the source
// record's references in field are extracted with codec and translated
// via lookups; references without a translation are dropped, the rest
// keep their order.
func Propagate(master Mappings, sources []lists.Record, field string, codec lookup.Codec, lookups map[int]Mapping) []MasterItemMapping {
	bySource := lists.Index(sources)

	items := make([]MasterItemMapping, 0, len(master))
	for _, m := range master {
		var srcIDs []int
		if rec, ok := bySource[m.SourceID]; ok {
			value, _ := rec.Get(field)
			srcIDs = codec.Extract(value)
		} else {
			srcIDs = []int{}
		}

		items = append(items, MasterItemMapping{
			SourceID:             m.SourceID,
			SourceTitle:          m.SourceTitle,
			SourceLookupIDs:      srcIDs,
			DestinationID:        m.DestinationID,
			DestinationTitle:     m.DestinationTitle,
			DestinationLookupIDs: Translate(srcIDs, lookups),
		})
	}
	return items
}

// Translate maps source lookup ids to destination ids, skipping ids that
// have no mapping.
func Translate(ids []int, lookups map[int]Mapping) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if m, ok := lookups[id]; ok {
			out = append(out, m.DestinationID)
		}
	}
	return out
}

// MasterDuplicates groups master item mappings by source id, like
// Mappings.Duplicates.
func MasterDuplicates(items []MasterItemMapping) []Duplicate {
	return duplicates(items, func(e MasterItemMapping) (int, string, int) {
		return e.SourceID, e.SourceTitle, e.DestinationID
	})
}
