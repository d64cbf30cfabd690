package seed

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/lookupsync/internal/appcontext"
	"github.com/agentstation/lookupsync/internal/stores/sqlite"
	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/lists"
	"github.com/agentstation/lookupsync/pkg/lookup"
)

const document = `
lists:
  - title: Products
    fields:
      - name: Color
        kind: Lookup
        lookup_list: Colors
      - name: Tags
        kind: LookupMulti
        multiple: true
        lookup_list: Colors
    items:
      - {Id: 9, Title: Foo, Color: 77, Tags: [77, 78]}
      - {Id: 10, Title: Bar}
  - title: Colors
    items:
      - {Id: 77, Title: Red}
      - {Id: 78, Title: Blue}
`

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open("seed", filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	doc, err := Parse([]byte(document), "document")
	require.NoError(t, err)

	summary, err := Apply(ctx, store, doc)
	require.NoError(t, err)
	assert.Equal(t, Summary{Lists: 2, Fields: 4, Records: 4}, *summary)

	colorsID, err := store.ListID(ctx, lists.ByTitle("Colors"))
	require.NoError(t, err)

	field, err := store.Field(ctx, lists.ByTitle("Products"), "Color")
	require.NoError(t, err)
	require.NotNil(t, field)
	assert.Equal(t, lists.FieldKindLookup, field.Kind)
	assert.Equal(t, colorsID, field.LookupList)

	records, err := store.Records(ctx, lists.ByTitle("Products"), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	foo := records[0]
	assert.Equal(t, 9, foo.ID)
	color, _ := foo.Get("Color")
	assert.Equal(t, []int{77}, lookup.Plain.Extract(color))
	tags, _ := foo.Get("Tags")
	assert.Equal(t, []int{77, 78}, lookup.Plain.Extract(tags))
}

func TestParseErrors(t *testing.T) {
	t.Run("unknown key", func(t *testing.T) {
		_, err := Parse([]byte("lists:\n  - title: A\n    colour: red\n"), "bad.yaml")
		require.Error(t, err)
		var parseErr *errors.ParseError
		assert.True(t, errors.As(err, &parseErr))
	})

	t.Run("missing title", func(t *testing.T) {
		_, err := Parse([]byte("lists:\n  - items: []\n"), "bad.yaml")
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestApplyErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown lookup list", func(t *testing.T) {
		doc := &Document{Lists: []List{{
			Title:  "Products",
			Fields: []Field{{Name: "Color", Kind: "Lookup", LookupList: "Shades"}},
		}}}
		_, err := Apply(ctx, openStore(t), doc)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("missing id", func(t *testing.T) {
		doc := &Document{Lists: []List{{
			Title: "Colors",
			Items: []map[string]any{{"Title": "Red"}},
		}}}
		_, err := Apply(ctx, openStore(t), doc)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("reference is not an id", func(t *testing.T) {
		doc := &Document{Lists: []List{{
			Title:  "Products",
			Fields: []Field{{Name: "Color", Kind: "Lookup"}},
			Items:  []map[string]any{{"Id": 1, "Color": "Red"}},
		}}}
		_, err := Apply(ctx, openStore(t), doc)
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestCommand(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(file, []byte(document), 0o600))
	dbPath := filepath.Join(dir, "out.db")

	cmd := NewCommand(&appcontext.Mock{OutputFormatFunc: func() string { return "json" }})
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{file, "--db", dbPath})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.JSONEq(t, `{"lists":2,"fields":4,"records":4}`, stdout.String())

	store, err := sqlite.Open("check", dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	records, err := store.Records(context.Background(), lists.ByTitle("Colors"), 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
