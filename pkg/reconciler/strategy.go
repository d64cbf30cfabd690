package reconciler

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/lists"
)

// StrategyType represents the type of join strategy.
type StrategyType string

// String returns the string representation of a strategy type.
func (s StrategyType) String() string {
	return string(s)
}

const (
	// StrategyTypeCross compares every source record with every destination record.
	StrategyTypeCross StrategyType = "cross"
	// StrategyTypeHash buckets destination records by their identifying values.
	StrategyTypeHash StrategyType = "hash"
)

// Strategy decides how candidate pairs are enumerated. Every strategy
// applies Matches as the final word, so they differ in cost only.
type Strategy interface {
	// Type returns the strategy type
	Type() StrategyType

	// Description returns a human-readable description
	Description() string

	// Join returns the matching pairs in (source, destination) order
	Join(src, dst []lists.Record, attrs []string) Mappings
}

var (
	// CrossJoin is O(|src|·|dst|·|attrs|); fine for lists of a few thousand items.
	CrossJoin Strategy = crossJoin{}

	// HashJoin only compares records that share a bucket.
	HashJoin Strategy = hashJoin{}
)

// ParseStrategy resolves a strategy by name; "" selects CrossJoin.
func ParseStrategy(name string) (Strategy, error) {
	switch StrategyType(strings.ToLower(strings.TrimSpace(name))) {
	case "", StrategyTypeCross:
		return CrossJoin, nil
	case StrategyTypeHash:
		return HashJoin, nil
	}
	return nil, errors.NewValidationError("strategy", name, "must be one of: cross, hash")
}

type crossJoin struct{}

func (crossJoin) Type() StrategyType { return StrategyTypeCross }

func (crossJoin) Description() string {
	return "Compares every source record with every destination record"
}

func (crossJoin) Join(src, dst []lists.Record, attrs []string) Mappings {
	var out Mappings
	for _, s := range src {
		for _, d := range dst {
			if Matches(s, d, attrs) {
				out = append(out, newMapping(s, d))
			}
		}
	}
	return out
}

type hashJoin struct{}

func (hashJoin) Type() StrategyType { return StrategyTypeHash }

func (hashJoin) Description() string {
	return "Buckets destination records by identifying values before comparing"
}

func (hashJoin) Join(src, dst []lists.Record, attrs []string) Mappings {
	buckets := make(map[string][]int)
	for i, d := range dst {
		if key, ok := compositeKey(d, attrs); ok {
			buckets[key] = append(buckets[key], i)
		}
	}

	var out Mappings
	for _, s := range src {
		key, ok := compositeKey(s, attrs)
		if !ok {
			continue
		}
		// bucket indexes are ascending, so output order matches crossJoin
		for _, i := range buckets[key] {
			if Matches(s, dst[i], attrs) {
				out = append(out, newMapping(s, dst[i]))
			}
		}
	}
	return out
}

// compositeKey renders the identifying values of r. ok is false when r
// lacks one of the attributes and therefore cannot match anything.
// Values that lists.Equal treats as equal always render the same key;
// unequal values may share one, since every candidate is confirmed with
// Matches.
func compositeKey(r lists.Record, attrs []string) (string, bool) {
	var b strings.Builder
	for _, name := range attrs {
		if lists.IsIDAttribute(name) {
			fmt.Fprintf(&b, "id:%d\x1f", r.ID)
			continue
		}
		v, ok := r.Get(name)
		if !ok {
			return "", false
		}
		writeKey(&b, reflect.ValueOf(v), 0)
		b.WriteByte('\x1f')
	}
	return b.String(), true
}

// maxKeyDepth bounds the walk so cyclic values terminate.
const maxKeyDepth = 16

// writeKey renders v by content: pointers and interfaces are followed
// rather than printed by address, and map entries are sorted.
func writeKey(b *strings.Builder, v reflect.Value, depth int) {
	if !v.IsValid() {
		b.WriteString("nil")
		return
	}
	if depth > maxKeyDepth {
		b.WriteByte('~')
		return
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			fmt.Fprintf(b, "%s(nil)", v.Type())
			return
		}
		b.WriteByte('&')
		writeKey(b, v.Elem(), depth+1)
	case reflect.Slice, reflect.Array:
		fmt.Fprintf(b, "%s[", v.Type())
		for i := 0; i < v.Len(); i++ {
			writeKey(b, v.Index(i), depth+1)
			b.WriteByte(',')
		}
		b.WriteByte(']')
	case reflect.Map:
		entries := make([]string, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			var e strings.Builder
			writeKey(&e, iter.Key(), depth+1)
			e.WriteByte('=')
			writeKey(&e, iter.Value(), depth+1)
			entries = append(entries, e.String())
		}
		sort.Strings(entries)
		fmt.Fprintf(b, "%s{%s}", v.Type(), strings.Join(entries, ","))
	case reflect.Struct:
		fmt.Fprintf(b, "%s{", v.Type())
		for i := 0; i < v.NumField(); i++ {
			writeKey(b, v.Field(i), depth+1)
			b.WriteByte(',')
		}
		b.WriteByte('}')
	default:
		fmt.Fprintf(b, "%s:%v", v.Type(), v)
	}
}
