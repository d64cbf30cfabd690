// Package sqlite stores list snapshots in a local SQLite database. A
// snapshot can stand in for either side of a reconciliation run, which
// makes it useful for rehearsals and for seeding test data.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/agentstation/lookupsync/internal/stores/sqlite/migrations"
	"github.com/agentstation/lookupsync/pkg/constants"
	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/lists"
	"github.com/agentstation/lookupsync/pkg/lookup"
)

const schemaVersion = "1"

// ErrStoreClosed is returned by every operation after Close.
var ErrStoreClosed = errors.New("sqlite store is closed")

type stagedWrite struct {
	list  lists.ListRef
	id    int
	field string
	value any
}

// Store is a list store backed by a SQLite file.
type Store struct {
	name string
	path string
	db   *sql.DB

	mu     sync.Mutex
	closed bool
	staged []stagedWrite
}

// Open opens or creates the database at path and applies migrations.
func Open(name, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("create", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, errors.WrapIO("open", path, err)
	}

	s := &Store{name: name, path: path, db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return errors.NewConfigError("sqlite", "set goose dialect", err)
	}
	if err := goose.Up(s.db, "."); err != nil {
		return errors.WrapResource("migrate", "database", s.path, err)
	}

	_, err := s.db.Exec(`INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', ?)`, schemaVersion)
	return errors.WrapResource("migrate", "database", s.path, err)
}

// Name implements lists.Store.
func (s *Store) Name() string {
	return s.name
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database. Staged writes are discarded.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.staged = nil
	return s.db.Close()
}

// CreateList adds an empty list and returns its generated id.
func (s *Store) CreateList(ctx context.Context, title string) (string, error) {
	if title == "" {
		return "", errors.NewValidationError("title", title, "cannot be empty")
	}
	if err := s.check(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lists (id, title, created_at) VALUES (?, ?, ?)`,
		id, title, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", errors.WrapResource("create", "list", title, err)
	}
	return id, nil
}

// AddField adds a field descriptor to a list. Reference fields must
// point at a list id in UUID form.
func (s *Store) AddField(ctx context.Context, listID string, f lists.Field) error {
	if f.InternalName == "" {
		return errors.NewValidationError("internal_name", f.InternalName, "cannot be empty")
	}
	if f.Title == "" {
		f.Title = f.InternalName
	}
	var lookupList sql.NullString
	if f.Kind.IsReference() && f.LookupList != "" {
		id, err := uuid.Parse(f.LookupList)
		if err != nil {
			return errors.WrapValidation("lookup_list", err)
		}
		lookupList = sql.NullString{String: id.String(), Valid: true}
	}
	if err := s.check(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fields (list_id, internal_name, title, kind, allow_multiple, lookup_list, position)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COUNT(*) FROM fields WHERE list_id = ?))
	`, listID, f.InternalName, f.Title, string(f.Kind), f.AllowMultiple, lookupList, listID)
	return errors.WrapResource("create", "field", f.InternalName, err)
}

// PutRecord inserts or replaces a record. An Id attribute in Fields is ignored.
func (s *Store) PutRecord(ctx context.Context, listID string, r lists.Record) error {
	attrs := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		if !lists.IsIDAttribute(k) {
			attrs[k] = v
		}
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return errors.WrapParse("json", "record", err)
	}
	if err := s.check(); err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO items (list_id, id, attrs, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (list_id, id) DO UPDATE SET attrs = excluded.attrs, updated_at = excluded.updated_at
	`, listID, r.ID, string(raw), time.Now().UTC().Format(time.RFC3339))
	return errors.WrapResource("put", "record", listID, err)
}

// ListID resolves a list reference to its id.
func (s *Store) ListID(ctx context.Context, ref lists.ListRef) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}

	var id string
	var err error
	if ref.ID != "" {
		err = s.db.QueryRowContext(ctx, `SELECT id FROM lists WHERE id = ?`, ref.ID).Scan(&id)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT id FROM lists WHERE title = ?`, ref.Title).Scan(&id)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.NewNotFoundError("list", ref.String())
	}
	if err != nil {
		return "", errors.WrapResource("fetch", "list", ref.String(), err)
	}
	return id, nil
}

// Field implements lists.Reader.
func (s *Store) Field(ctx context.Context, ref lists.ListRef, name string) (*lists.Field, error) {
	listID, err := s.ListID(ctx, ref)
	if err != nil {
		return nil, err
	}
	fields, err := s.fields(ctx, listID)
	if err != nil {
		return nil, err
	}
	f, ok := lists.FindField(fields, name)
	if !ok {
		return nil, nil
	}
	field := *f
	return &field, nil
}

// Records implements lists.Reader, reading pageSize rows per query.
func (s *Store) Records(ctx context.Context, ref lists.ListRef, pageSize int) ([]lists.Record, error) {
	listID, err := s.ListID(ctx, ref)
	if err != nil {
		return nil, err
	}
	fields, err := s.fields(ctx, listID)
	if err != nil {
		return nil, err
	}

	size := constants.ClampPageSize(pageSize)
	var records []lists.Record
	for offset := 0; ; offset += size {
		page, err := s.page(ctx, listID, fields, size, offset)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
		if len(page) < size {
			return records, nil
		}
	}
}

func (s *Store) page(ctx context.Context, listID string, fields []lists.Field, limit, offset int) ([]lists.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, attrs FROM items WHERE list_id = ? ORDER BY id LIMIT ? OFFSET ?`,
		listID, limit, offset)
	if err != nil {
		return nil, errors.WrapResource("fetch", "records", listID, err)
	}
	defer rows.Close()

	var out []lists.Record
	for rows.Next() {
		var id int
		var text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, errors.WrapResource("fetch", "records", listID, err)
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return nil, errors.WrapParse("json", "items", err)
		}
		attrs, err := lookup.DecodeAttributes(raw, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, lists.NewRecord(id, attrs))
	}
	return out, errors.WrapResource("fetch", "records", listID, rows.Err())
}

func (s *Store) fields(ctx context.Context, listID string) ([]lists.Field, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT internal_name, title, kind, allow_multiple, lookup_list
		FROM fields WHERE list_id = ? ORDER BY position
	`, listID)
	if err != nil {
		return nil, errors.WrapResource("fetch", "fields", listID, err)
	}
	defer rows.Close()

	var fields []lists.Field
	for rows.Next() {
		var f lists.Field
		var kind string
		var lookupList sql.NullString
		if err := rows.Scan(&f.InternalName, &f.Title, &kind, &f.AllowMultiple, &lookupList); err != nil {
			return nil, errors.WrapResource("fetch", "fields", listID, err)
		}
		f.Kind = lists.FieldKind(kind)
		f.LookupList = lookupList.String
		fields = append(fields, f)
	}
	return fields, errors.WrapResource("fetch", "fields", listID, rows.Err())
}

// Stage implements lists.Writer.
func (s *Store) Stage(list lists.ListRef, id int, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.staged = append(s.staged, stagedWrite{list: list, id: id, field: field, value: value})
	return nil
}

// Flush implements lists.Writer. All staged writes commit in one transaction.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	staged := s.staged
	s.staged = nil
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return ErrStoreClosed
	}
	if len(staged) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapResource("flush", "batch", s.path, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	listIDs := make(map[lists.ListRef]string)
	for _, w := range staged {
		listID, ok := listIDs[w.list]
		if !ok {
			if listID, err = s.ListID(ctx, w.list); err != nil {
				return err
			}
			listIDs[w.list] = listID
		}
		if err := applyWrite(ctx, tx, listID, w); err != nil {
			return err
		}
	}

	return errors.WrapResource("flush", "batch", s.path, tx.Commit())
}

func applyWrite(ctx context.Context, tx *sql.Tx, listID string, w stagedWrite) error {
	var text string
	err := tx.QueryRowContext(ctx, `SELECT attrs FROM items WHERE list_id = ? AND id = ?`, listID, w.id).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.NewNotFoundError("record", w.list.String())
	}
	if err != nil {
		return errors.WrapResource("flush", "record", w.list.String(), err)
	}

	var attrs map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &attrs); err != nil {
		return errors.WrapParse("json", "items", err)
	}
	if attrs == nil {
		attrs = map[string]json.RawMessage{}
	}
	value, err := lookup.Encode(w.value)
	if err != nil {
		return err
	}
	attrs[w.field] = value

	raw, err := json.Marshal(attrs)
	if err != nil {
		return errors.WrapParse("json", "items", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE items SET attrs = ?, updated_at = ? WHERE list_id = ? AND id = ?`,
		string(raw), time.Now().UTC().Format(time.RFC3339), listID, w.id)
	return errors.WrapResource("flush", "record", w.list.String(), err)
}

func (s *Store) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

var _ lists.Store = (*Store)(nil)
