package lookup

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/lists"
)

// Codec extracts referenced ids from stored lookup values and builds
// values to write back.
type Codec interface {
	// Kind is the field kind this codec handles.
	Kind() lists.FieldKind

	// Extract returns the referenced ids of value in order. nil and
	// values of a foreign type yield an empty slice.
	Extract(value any) []int

	// Construct wraps id in a single reference.
	Construct(id int) Reference

	// Value builds the native value for ids: a slice of references when
	// multi is set, otherwise a single reference to the first id. No ids
	// yields nil.
	Value(ids []int, multi bool) any

	// Decode parses a stored JSON lookup value: null, an object, an
	// array of objects, or a bare numeric id.
	Decode(raw json.RawMessage) (any, error)
}

// Plain handles Lookup fields.
var Plain Codec = codec[PlainReference]{
	kind: lists.FieldKindLookup,
	construct: func(id int) PlainReference {
		return PlainReference{LookupID: id}
	},
}

// User handles User fields.
var User Codec = codec[UserReference]{
	kind: lists.FieldKindUser,
	construct: func(id int) UserReference {
		return UserReference{LookupID: id}
	},
}

// ForKind selects the codec for a field kind. Any other kind yields a
// *errors.LookupFieldError.
func ForKind(kind lists.FieldKind) (Codec, error) {
	switch kind {
	case lists.FieldKindLookup:
		return Plain, nil
	case lists.FieldKindUser:
		return User, nil
	}
	return nil, errors.NewUnsupportedKindError(string(kind))
}

type codec[T Reference] struct {
	kind      lists.FieldKind
	construct func(int) T
}

func (c codec[T]) Kind() lists.FieldKind {
	return c.kind
}

func (c codec[T]) Extract(value any) []int {
	switch v := value.(type) {
	case T:
		return []int{v.TargetID()}
	case *T:
		if v == nil {
			return []int{}
		}
		return []int{(*v).TargetID()}
	case []T:
		ids := make([]int, len(v))
		for i, ref := range v {
			ids[i] = ref.TargetID()
		}
		return ids
	}
	return []int{}
}

func (c codec[T]) Construct(id int) Reference {
	return c.construct(id)
}

func (c codec[T]) Value(ids []int, multi bool) any {
	if len(ids) == 0 {
		return nil
	}
	if !multi {
		return c.construct(ids[0])
	}
	refs := make([]T, len(ids))
	for i, id := range ids {
		refs[i] = c.construct(id)
	}
	return refs
}

func (c codec[T]) Decode(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var refs []T
		if err := json.Unmarshal(trimmed, &refs); err != nil {
			return nil, errors.WrapParse("json", string(c.kind), err)
		}
		return refs, nil
	case '{':
		var ref T
		if err := json.Unmarshal(trimmed, &ref); err != nil {
			return nil, errors.WrapParse("json", string(c.kind), err)
		}
		return ref, nil
	}

	id, err := strconv.Atoi(string(trimmed))
	if err != nil {
		return nil, errors.WrapParse("json", string(c.kind), err)
	}
	return c.construct(id), nil
}
