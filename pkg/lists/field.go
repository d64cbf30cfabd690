package lists

import "strings"

// FieldKind is the declared type of a list field.
type FieldKind string

// Field kinds. Only Lookup and User carry references to other records.
const (
	FieldKindText     FieldKind = "Text"
	FieldKindNumber   FieldKind = "Number"
	FieldKindBoolean  FieldKind = "Boolean"
	FieldKindDateTime FieldKind = "DateTime"
	FieldKindChoice   FieldKind = "Choice"
	FieldKindLookup   FieldKind = "Lookup"
	FieldKindUser     FieldKind = "User"
)

// IsReference reports whether values of this kind reference records of another list.
func (k FieldKind) IsReference() bool {
	return k == FieldKindLookup || k == FieldKindUser
}

// String implements fmt.Stringer.
func (k FieldKind) String() string {
	return string(k)
}

// Field describes one column of a list.
type Field struct {
	// InternalName is the key used in Record.Fields
	InternalName string `json:"InternalName" yaml:"internal_name"`

	// Title is the display name operators type on the command line
	Title string `json:"Title" yaml:"title"`

	// Kind is the declared field type
	Kind FieldKind `json:"FieldTypeKind" yaml:"kind"`

	// AllowMultiple is true when the field stores a sequence of references
	AllowMultiple bool `json:"AllowMultipleValues" yaml:"allow_multiple"`

	// LookupList is the id of the list a reference field targets
	LookupList string `json:"LookupList,omitempty" yaml:"lookup_list,omitempty"`
}

// Matches reports whether name refers to this field by title or internal name.
func (f Field) Matches(name string) bool {
	return f.Title == name || f.InternalName == name
}

// FindField returns the field named name, preferring an exact title match.
func FindField(fields []Field, name string) (*Field, bool) {
	for i := range fields {
		if fields[i].Title == name {
			return &fields[i], true
		}
	}
	for i := range fields {
		if fields[i].InternalName == name {
			return &fields[i], true
		}
	}
	return nil, false
}

// ParseFieldKind normalises a kind name as stores report it.
func ParseFieldKind(s string) FieldKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lookup", "lookupmulti":
		return FieldKindLookup
	case "user", "usermulti":
		return FieldKindUser
	case "text", "note":
		return FieldKindText
	case "number", "integer", "counter", "currency":
		return FieldKindNumber
	case "boolean":
		return FieldKindBoolean
	case "datetime":
		return FieldKindDateTime
	case "choice", "multichoice":
		return FieldKindChoice
	}
	return FieldKind(s)
}
