// Package seed provides the seed command, which loads list snapshots
// described in YAML into a SQLite store.
package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"

	"github.com/agentstation/lookupsync/internal/stores/sqlite"
	"github.com/agentstation/lookupsync/pkg/constants"
	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/lists"
	"github.com/agentstation/lookupsync/pkg/lookup"
)

// Document is a seed file.
//
//	lists:
//	  - title: Colors
//	    items:
//	      - {Id: 77, Title: Red}
//	  - title: Products
//	    fields:
//	      - {name: Color, kind: Lookup, lookup_list: Colors}
//	    items:
//	      - {Id: 9, Title: Foo, Color: 77}
//
// Reference values are given as bare ids (or a sequence of ids for
// multi-valued fields) and are stored as typed references.
type Document struct {
	Lists []List `yaml:"lists"`
}

// List is one list of a seed document.
type List struct {
	Title  string           `yaml:"title"`
	Fields []Field          `yaml:"fields,omitempty"`
	Items  []map[string]any `yaml:"items,omitempty"`
}

// Field declares one column. LookupList names a list of the same
// document by title, or gives a list id directly.
type Field struct {
	Name       string `yaml:"name"`
	Title      string `yaml:"title,omitempty"`
	Kind       string `yaml:"kind"`
	Multiple   bool   `yaml:"multiple,omitempty"`
	LookupList string `yaml:"lookup_list,omitempty"`
}

// Summary counts what a seed run created.
type Summary struct {
	Lists   int `json:"lists" yaml:"lists"`
	Fields  int `json:"fields" yaml:"fields"`
	Records int `json:"records" yaml:"records"`
}

// Load reads and strictly decodes a seed file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return Parse(data, path)
}

// Parse decodes a seed document; name labels parse errors.
func Parse(data []byte, name string) (*Document, error) {
	var doc Document
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.Strict()); err != nil {
		return nil, errors.WrapParse("yaml", name, err)
	}
	for i, l := range doc.Lists {
		if l.Title == "" {
			return nil, errors.NewValidationError(fmt.Sprintf("lists[%d].title", i), l.Title, "cannot be empty")
		}
	}
	return &doc, nil
}

// Apply creates every list of doc in store. Lists are created first so
// reference fields can point at lists declared later in the file.
func Apply(ctx context.Context, store *sqlite.Store, doc *Document) (*Summary, error) {
	summary := &Summary{}

	ids := make(map[string]string, len(doc.Lists))
	for _, l := range doc.Lists {
		id, err := store.CreateList(ctx, l.Title)
		if err != nil {
			return summary, err
		}
		ids[l.Title] = id
		summary.Lists++
	}

	for _, l := range doc.Lists {
		fields, err := resolveFields(l, ids)
		if err != nil {
			return summary, err
		}
		for _, f := range fields {
			if err := store.AddField(ctx, ids[l.Title], f); err != nil {
				return summary, err
			}
			summary.Fields++
		}

		for i, item := range l.Items {
			record, err := toRecord(item, fields)
			if err != nil {
				return summary, errors.WrapResource("seed", "record", fmt.Sprintf("%s[%d]", l.Title, i), err)
			}
			if err := store.PutRecord(ctx, ids[l.Title], record); err != nil {
				return summary, err
			}
			summary.Records++
		}
	}

	return summary, nil
}

// resolveFields converts declared fields, adding a Title text field when
// the list does not declare one.
func resolveFields(l List, ids map[string]string) ([]lists.Field, error) {
	out := make([]lists.Field, 0, len(l.Fields)+1)
	if _, ok := findDeclared(l.Fields, constants.TitleAttribute); !ok {
		out = append(out, lists.Field{
			InternalName: constants.TitleAttribute,
			Title:        constants.TitleAttribute,
			Kind:         lists.FieldKindText,
		})
	}

	for _, f := range l.Fields {
		field := lists.Field{
			InternalName:  f.Name,
			Title:         f.Title,
			Kind:          lists.ParseFieldKind(f.Kind),
			AllowMultiple: f.Multiple,
		}
		if field.Title == "" {
			field.Title = f.Name
		}
		if field.Kind.IsReference() && f.LookupList != "" {
			target, ok := ids[f.LookupList]
			if !ok {
				if _, err := uuid.Parse(f.LookupList); err != nil {
					return nil, errors.NewNotFoundError("list", f.LookupList)
				}
				target = f.LookupList
			}
			field.LookupList = target
		}
		out = append(out, field)
	}
	return out, nil
}

func findDeclared(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// toRecord builds a record from a seed item. Reference fields given as
// ids are wrapped by the field's codec.
func toRecord(item map[string]any, fields []lists.Field) (lists.Record, error) {
	var id int
	attrs := make(map[string]any, len(item))
	for name, value := range item {
		if lists.IsIDAttribute(name) {
			n, ok := toInt(value)
			if !ok {
				return lists.Record{}, errors.NewValidationError(name, value, "must be an integer")
			}
			id = n
			continue
		}
		attrs[name] = value
	}
	if id <= 0 {
		return lists.Record{}, errors.NewValidationError(constants.IDAttribute, id, "must be a positive integer")
	}

	for _, f := range fields {
		codec, err := lookup.ForKind(f.Kind)
		if err != nil {
			continue
		}
		value, ok := attrs[f.InternalName]
		if !ok || value == nil {
			continue
		}
		refs, ok := toInts(value)
		if !ok {
			return lists.Record{}, errors.NewValidationError(f.InternalName, value, "reference values must be ids")
		}
		attrs[f.InternalName] = codec.Value(refs, f.AllowMultiple)
	}

	return lists.NewRecord(id, attrs), nil
}

func toInts(value any) ([]int, bool) {
	if seq, ok := value.([]any); ok {
		out := make([]int, 0, len(seq))
		for _, v := range seq {
			n, ok := toInt(v)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	}
	n, ok := toInt(value)
	if !ok {
		return nil, false
	}
	return []int{n}, true
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}
