// Package memory provides an in-process list store for tests and
// dry experiments. It keeps call counters so callers can verify how a
// run used the store.
package memory

import (
	"context"
	"sync"

	"github.com/agentstation/lookupsync/pkg/constants"
	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/lists"
)

// Write is one staged attribute change.
type Write struct {
	List  lists.ListRef
	ID    int
	Field string
	Value any
}

type list struct {
	id      string
	title   string
	fields  []lists.Field
	records []lists.Record
}

// Store is a thread-safe in-memory list store.
type Store struct {
	mu      sync.Mutex
	name    string
	lists   []*list
	staged  []Write
	written []Write

	// FlushErr, when set, is returned by every Flush.
	FlushErr error

	stageCalls int
	flushCalls int
	pageCalls  int
	closed     bool
}

// New creates an empty store.
func New(name string) *Store {
	return &Store{name: name}
}

// Name implements lists.Store.
func (s *Store) Name() string {
	return s.name
}

// AddList registers a list. Records are copied.
func (s *Store) AddList(title, id string, fields []lists.Field, records ...lists.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := &list{id: id, title: title, fields: append([]lists.Field(nil), fields...)}
	for _, r := range records {
		l.records = append(l.records, copyRecord(r))
	}
	s.lists = append(s.lists, l)
}

// Records implements lists.Reader. Pages are emulated so page counts are observable.
func (s *Store) Records(_ context.Context, ref lists.ListRef, pageSize int) ([]lists.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.find(ref)
	if err != nil {
		return nil, err
	}

	size := constants.ClampPageSize(pageSize)
	out := make([]lists.Record, 0, len(l.records))
	for start := 0; start < len(l.records); start += size {
		end := min(start+size, len(l.records))
		for _, r := range l.records[start:end] {
			out = append(out, copyRecord(r))
		}
		s.pageCalls++
	}
	return out, nil
}

// Field implements lists.Reader.
func (s *Store) Field(_ context.Context, ref lists.ListRef, name string) (*lists.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.find(ref)
	if err != nil {
		return nil, err
	}
	f, ok := lists.FindField(l.fields, name)
	if !ok {
		return nil, nil
	}
	field := *f
	return &field, nil
}

// Stage implements lists.Writer.
func (s *Store) Stage(ref lists.ListRef, id int, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stageCalls++
	if _, err := s.find(ref); err != nil {
		return err
	}
	s.staged = append(s.staged, Write{List: ref, ID: id, Field: field, Value: value})
	return nil
}

// Flush implements lists.Writer by applying every staged write.
func (s *Store) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flushCalls++
	if s.FlushErr != nil {
		return s.FlushErr
	}

	for _, w := range s.staged {
		l, err := s.find(w.List)
		if err != nil {
			return err
		}
		rec := l.record(w.ID)
		if rec == nil {
			return errors.NewNotFoundError("record", l.title)
		}
		rec.Fields[w.Field] = w.Value
	}
	s.written = append(s.written, s.staged...)
	s.staged = nil
	return nil
}

// Record returns a copy of one stored record.
func (s *Store) Record(ref lists.ListRef, id int) (lists.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.find(ref)
	if err != nil {
		return lists.Record{}, false
	}
	if rec := l.record(id); rec != nil {
		return copyRecord(*rec), true
	}
	return lists.Record{}, false
}

// Written returns every flushed write in order.
func (s *Store) Written() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Write(nil), s.written...)
}

// StageCalls returns how many times Stage was called.
func (s *Store) StageCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stageCalls
}

// FlushCalls returns how many times Flush was called.
func (s *Store) FlushCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushCalls
}

// Close marks the store closed. Staged writes that were never flushed are dropped.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.staged = nil
	return nil
}

// Closed reports whether Close was called.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// PageCalls returns how many pages Records served.
func (s *Store) PageCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageCalls
}

func (s *Store) find(ref lists.ListRef) (*list, error) {
	for _, l := range s.lists {
		if ref.ID != "" && l.id == ref.ID {
			return l, nil
		}
		if ref.ID == "" && l.title == ref.Title {
			return l, nil
		}
	}
	return nil, errors.NewNotFoundError("list", ref.String())
}

func (l *list) record(id int) *lists.Record {
	for i := range l.records {
		if l.records[i].ID == id {
			return &l.records[i]
		}
	}
	return nil
}

func copyRecord(r lists.Record) lists.Record {
	fields := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return lists.NewRecord(r.ID, fields)
}

var _ lists.Store = (*Store)(nil)
