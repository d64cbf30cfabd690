package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/lookupsync/internal/stores/sqlite"
	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/lists"
	"github.com/agentstation/lookupsync/pkg/lookup"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open("destination", filepath.Join(t.TempDir(), "snapshot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seed(t *testing.T, store *sqlite.Store, n int) (colorsID, productsID string) {
	t.Helper()
	ctx := context.Background()

	colorsID, err := store.CreateList(ctx, "Colors")
	require.NoError(t, err)
	require.NoError(t, store.AddField(ctx, colorsID, lists.Field{InternalName: "Title", Kind: lists.FieldKindText}))
	require.NoError(t, store.PutRecord(ctx, colorsID, lists.NewRecord(77, map[string]any{"Title": "Red"})))

	productsID, err = store.CreateList(ctx, "Products")
	require.NoError(t, err)
	require.NoError(t, store.AddField(ctx, productsID, lists.Field{InternalName: "Title", Kind: lists.FieldKindText}))
	require.NoError(t, store.AddField(ctx, productsID, lists.Field{
		InternalName: "Color",
		Title:        "Colour",
		Kind:         lists.FieldKindLookup,
		LookupList:   colorsID,
	}))
	for i := 1; i <= n; i++ {
		require.NoError(t, store.PutRecord(ctx, productsID, lists.NewRecord(i, map[string]any{
			"Id":    i,
			"Title": "p",
			"Color": lookup.PlainReference{LookupID: 77, LookupValue: "Red"},
		})))
	}
	return colorsID, productsID
}

func TestFieldAndListResolution(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	colorsID, _ := seed(t, store, 1)

	f, err := store.Field(ctx, lists.ByTitle("Products"), "Colour")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "Color", f.InternalName)
	assert.Equal(t, lists.FieldKindLookup, f.Kind)
	assert.Equal(t, colorsID, f.LookupList)

	byInternal, err := store.Field(ctx, lists.ByTitle("Products"), "Color")
	require.NoError(t, err)
	assert.Equal(t, f, byInternal)

	missing, err := store.Field(ctx, lists.ByTitle("Products"), "Size")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = store.Field(ctx, lists.ByTitle("Nope"), "Colour")
	assert.True(t, errors.IsNotFound(err))

	records, err := store.Records(ctx, lists.ByID(colorsID), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Red", records[0].Title())
}

func TestAddFieldRejectsBadLookupList(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	id, err := store.CreateList(ctx, "Products")
	require.NoError(t, err)

	err = store.AddField(ctx, id, lists.Field{InternalName: "Color", Kind: lists.FieldKindLookup, LookupList: "not-a-uuid"})
	assert.True(t, errors.IsValidationError(err))
}

func TestRecordsPaging(t *testing.T) {
	store := openStore(t)
	seed(t, store, 7)

	for _, size := range []int{1, 3, 7, 100, 0, -1} {
		records, err := store.Records(context.Background(), lists.ByTitle("Products"), size)
		require.NoError(t, err)
		require.Len(t, records, 7, "page size %d", size)
		for i, r := range records {
			assert.Equal(t, i+1, r.ID)
			assert.NotContains(t, r.Fields, "Id")
			assert.Equal(t, []int{77}, lookup.Plain.Extract(r.Fields["Color"]))
		}
	}
}

func TestStageAndFlush(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	seed(t, store, 2)
	products := lists.ByTitle("Products")

	require.NoError(t, store.Stage(products, 1, "Color", lookup.Plain.Value([]int{78}, false)))
	require.NoError(t, store.Stage(products, 2, "Color", nil))

	before, err := store.Records(ctx, products, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{77}, lookup.Plain.Extract(before[0].Fields["Color"]), "staged writes are not visible before flush")

	require.NoError(t, store.Flush(ctx))

	after, err := store.Records(ctx, products, 10)
	require.NoError(t, err)
	assert.Equal(t, lookup.PlainReference{LookupID: 78}, after[0].Fields["Color"])
	assert.Nil(t, after[1].Fields["Color"])
	assert.Equal(t, "p", after[1].Title())
}

func TestFlushMissingRecordRollsBack(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	seed(t, store, 1)
	products := lists.ByTitle("Products")

	require.NoError(t, store.Stage(products, 1, "Color", lookup.Plain.Value([]int{78}, false)))
	require.NoError(t, store.Stage(products, 99, "Color", lookup.Plain.Value([]int{78}, false)))

	err := store.Flush(ctx)
	assert.True(t, errors.IsNotFound(err))

	records, err := store.Records(ctx, products, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{77}, lookup.Plain.Extract(records[0].Fields["Color"]))
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	store, err := sqlite.Open("source", path)
	require.NoError(t, err)
	seed(t, store, 3)
	require.NoError(t, store.Close())

	_, err = store.Records(context.Background(), lists.ByTitle("Products"), 10)
	assert.ErrorIs(t, err, sqlite.ErrStoreClosed)

	reopened, err := sqlite.Open("source", path)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.Records(context.Background(), lists.ByTitle("Products"), 10)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}
