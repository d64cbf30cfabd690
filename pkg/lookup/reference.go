// Package lookup converts between a store's native lookup values and the
// canonical sequence of referenced record ids.
//
// A lookup value is either a single reference, a slice of references, or
// nil. Two reference flavours exist: plain record references and user
// references. Which one a field holds is decided by the field's kind, see
// ForKind.
package lookup

// Reference is a pointer from one list record to a record of another list.
type Reference interface {
	TargetID() int
}

// PlainReference references a record of the field's lookup list.
type PlainReference struct {
	LookupID    int    `json:"LookupId" yaml:"lookup_id"`
	LookupValue string `json:"LookupValue,omitempty" yaml:"lookup_value,omitempty"`
}

// TargetID implements Reference.
func (r PlainReference) TargetID() int {
	return r.LookupID
}

// UserReference references an entry of the store's user list.
type UserReference struct {
	LookupID    int    `json:"LookupId" yaml:"lookup_id"`
	LookupValue string `json:"LookupValue,omitempty" yaml:"lookup_value,omitempty"`
	Email       string `json:"Email,omitempty" yaml:"email,omitempty"`
}

// TargetID implements Reference.
func (r UserReference) TargetID() int {
	return r.LookupID
}
