package lookup

import (
	"encoding/json"

	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/lists"
)

// DecodeAttributes turns a raw JSON item into record attributes. Fields
// of a reference kind are decoded into typed references so every record
// leaves the store with its lookups resolved; all other values are kept
// as generic JSON values.
func DecodeAttributes(raw map[string]json.RawMessage, fields []lists.Field) (map[string]any, error) {
	kinds := make(map[string]lists.FieldKind, len(fields))
	for _, f := range fields {
		kinds[f.InternalName] = f.Kind
	}

	attrs := make(map[string]any, len(raw))
	for name, value := range raw {
		if codec, err := ForKind(kinds[name]); err == nil {
			decoded, err := codec.Decode(value)
			if err != nil {
				return nil, errors.WrapResource("decode", "field", name, err)
			}
			attrs[name] = decoded
			continue
		}

		var generic any
		if err := json.Unmarshal(value, &generic); err != nil {
			return nil, errors.WrapParse("json", name, err)
		}
		attrs[name] = generic
	}
	return attrs, nil
}

// Encode renders a lookup value built by Codec.Value for a store write.
// nil encodes as JSON null, which clears the field.
func Encode(value any) (json.RawMessage, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, errors.WrapParse("json", "lookup value", err)
	}
	return raw, nil
}
