// Package lists defines the record and field model shared by every list
// store, and the contracts a store must satisfy to take part in a
// lookup reconciliation run.
package lists

import (
	"reflect"
	"strings"

	"github.com/agentstation/lookupsync/pkg/constants"
)

// Record is an immutable snapshot of one list item: its store-unique
// identifier plus its attribute values keyed by internal field name.
type Record struct {
	ID     int            `json:"id" yaml:"id"`
	Fields map[string]any `json:"fields" yaml:"fields"`
}

// NewRecord builds a record from an id and attribute values.
func NewRecord(id int, fields map[string]any) Record {
	if fields == nil {
		fields = map[string]any{}
	}
	return Record{ID: id, Fields: fields}
}

// Get returns an attribute value and whether the record carries it.
func (r Record) Get(name string) (any, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Title returns the record's Title attribute, or "" when absent or not a string.
func (r Record) Title() string {
	s, _ := r.Fields[constants.TitleAttribute].(string)
	return s
}

// IsIDAttribute reports whether name denotes the record's own identifier.
func IsIDAttribute(name string) bool {
	return strings.EqualFold(name, constants.IDAttribute)
}

// Equal compares two attribute values. Values decoded from a store are
// plain data (strings, numbers, booleans, lookup references, slices and
// maps of those), so deep equality is the store's native equality.
func Equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// Index keys records by id. Later records win on duplicate ids, which a
// conforming store never returns.
func Index(records []Record) map[int]Record {
	idx := make(map[int]Record, len(records))
	for _, r := range records {
		idx[r.ID] = r
	}
	return idx
}
