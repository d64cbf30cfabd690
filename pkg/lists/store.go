package lists

import (
	"context"
	"fmt"
)

// ListRef addresses a list either by title or by id. Master lists are
// named by the operator; lookup-target lists are known only by the id a
// lookup field points at.
type ListRef struct {
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
}

// ByTitle returns a reference to the list with the given title.
func ByTitle(title string) ListRef {
	return ListRef{Title: title}
}

// ByID returns a reference to the list with the given id.
func ByID(id string) ListRef {
	return ListRef{ID: id}
}

// String implements fmt.Stringer.
func (l ListRef) String() string {
	if l.ID != "" {
		return fmt.Sprintf("list(%s)", l.ID)
	}
	return l.Title
}

// Reader is the read side of a list store.
type Reader interface {
	// Records returns every record of the list exactly once, fetched in
	// pages of at most pageSize, with reference fields already decoded.
	Records(ctx context.Context, list ListRef, pageSize int) ([]Record, error)

	// Field returns the field with the given title or internal name, or
	// nil with a nil error when the list has no such field.
	Field(ctx context.Context, list ListRef, name string) (*Field, error)
}

// Writer is the write side of a list store. Stage only records the
// intended change; Flush commits everything staged since the last Flush.
type Writer interface {
	Stage(list ListRef, id int, field string, value any) error
	Flush(ctx context.Context) error
}

// Store is a list store that can be reconciled against another one.
type Store interface {
	Reader
	Writer

	// Name identifies the store in logs and errors.
	Name() string
}
