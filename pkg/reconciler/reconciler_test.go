package reconciler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/lookupsync/pkg/lists"
	"github.com/agentstation/lookupsync/pkg/lookup"
	"github.com/agentstation/lookupsync/pkg/reconciler"
)

func rec(id int, title string, extra ...any) lists.Record {
	fields := map[string]any{"Title": title}
	for i := 0; i+1 < len(extra); i += 2 {
		fields[extra[i].(string)] = extra[i+1]
	}
	return lists.NewRecord(id, fields)
}

func TestMatches(t *testing.T) {
	a := rec(1, "Red", "Code", "R")
	b := rec(2, "Red", "Code", "R")
	c := rec(1, "Blue")

	tests := []struct {
		name  string
		a, b  lists.Record
		attrs []string
		want  bool
	}{
		{"title equal", a, b, []string{"Title"}, true},
		{"two attributes equal", a, b, []string{"Title", "Code"}, true},
		{"ids differ", a, b, []string{"Id"}, false},
		{"ids equal lower case", a, c, []string{"id"}, true},
		{"attribute missing on one side", a, c, []string{"Code"}, false},
		{"empty attribute list", a, c, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reconciler.Matches(tt.a, tt.b, tt.attrs))
		})
	}
}

func TestReconcileOrderAndDuplicates(t *testing.T) {
	src := []lists.Record{rec(1, "A"), rec(2, "B"), rec(3, "C")}
	dst := []lists.Record{rec(10, "B"), rec(11, "A"), rec(12, "A")}

	got := reconciler.Reconcile(src, dst, []string{"Title"})

	want := reconciler.Mappings{
		{SourceID: 1, SourceTitle: "A", DestinationID: 11, DestinationTitle: "A"},
		{SourceID: 1, SourceTitle: "A", DestinationID: 12, DestinationTitle: "A"},
		{SourceID: 2, SourceTitle: "B", DestinationID: 10, DestinationTitle: "B"},
	}
	assert.Equal(t, want, got)

	unmatched := reconciler.Unmatched(src, got)
	require.Len(t, unmatched, 1)
	assert.Equal(t, 3, unmatched[0].ID)
}

func TestReconcileAttributeOrderIrrelevant(t *testing.T) {
	src := []lists.Record{rec(1, "A", "Code", "x"), rec(2, "A", "Code", "y"), rec(3, "B", "Code", "x")}
	dst := []lists.Record{rec(7, "A", "Code", "y"), rec(8, "A", "Code", "x"), rec(9, "B", "Code", "x")}

	forward := reconciler.Reconcile(src, dst, []string{"Title", "Code"})
	backward := reconciler.Reconcile(src, dst, []string{"Code", "Title"})

	assert.Equal(t, forward, backward)
	assert.Len(t, forward, 3)
}

func TestReconcileByID(t *testing.T) {
	src := []lists.Record{rec(1, "A"), rec(2, "B"), rec(5, "E")}
	dst := []lists.Record{rec(2, "other"), rec(5, "E"), rec(6, "F")}

	got := reconciler.Reconcile(src, dst, []string{"Id"})

	require.Len(t, got, 2)
	for _, m := range got {
		assert.Equal(t, m.SourceID, m.DestinationID)
	}
	assert.Empty(t, got.Duplicates())
	assert.Equal(t, []int{2, 5}, []int{got[0].SourceID, got[1].SourceID})
}

func TestHashJoinMatchesCrossJoin(t *testing.T) {
	src := []lists.Record{
		rec(1, "A", "Code", 1.0),
		rec(2, "A", "Code", 2.0),
		rec(3, "B"),
		rec(4, "A", "Code", 1.0),
		rec(5, "C", "Code", "1"),
	}
	dst := []lists.Record{
		rec(10, "A", "Code", 1.0),
		rec(11, "B", "Code", 1.0),
		rec(12, "A", "Code", 1.0),
		rec(13, "C", "Code", 1.0),
		rec(4, "Z", "Code", 2.0),
	}

	hash, err := reconciler.New(reconciler.WithStrategy(reconciler.HashJoin))
	require.NoError(t, err)
	assert.Equal(t, reconciler.StrategyTypeHash, hash.Strategy().Type())

	for _, attrs := range [][]string{
		{"Title"},
		{"Title", "Code"},
		{"Code"},
		{"Id"},
		{"Id", "Code"},
		{},
	} {
		assert.Equal(t, reconciler.Reconcile(src, dst, attrs), hash.Reconcile(src, dst, attrs), "attrs %v", attrs)
	}
}

func TestHashJoinComparesNestedPointersByValue(t *testing.T) {
	red, alsoRed, blue := "Red", "Red", "Blue"
	one, alsoOne := 1, 1

	src := []lists.Record{
		rec(1, "A", "Tags", []*string{&red}),
		rec(2, "B", "Tags", map[string]*int{"n": &one}),
		rec(3, "C", "Tags", []any{&red, nil}),
	}
	dst := []lists.Record{
		rec(10, "A", "Tags", []*string{&alsoRed}),
		rec(11, "A", "Tags", []*string{&blue}),
		rec(12, "B", "Tags", map[string]*int{"n": &alsoOne}),
		rec(13, "C", "Tags", []any{&alsoRed, nil}),
		rec(14, "C", "Tags", []any{alsoRed, nil}),
	}

	hash, err := reconciler.New(reconciler.WithStrategy(reconciler.HashJoin))
	require.NoError(t, err)

	want := reconciler.Reconcile(src, dst, []string{"Tags"})
	require.Len(t, want, 3)
	assert.Equal(t, want, hash.Reconcile(src, dst, []string{"Tags"}))
	assert.Equal(t, reconciler.Reconcile(src, dst, []string{"Title", "Tags"}), hash.Reconcile(src, dst, []string{"Title", "Tags"}))
}

func TestNewRejectsNilStrategy(t *testing.T) {
	_, err := reconciler.New(reconciler.WithStrategy(nil))
	require.Error(t, err)
}

func TestParseStrategy(t *testing.T) {
	s, err := reconciler.ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, reconciler.StrategyTypeCross, s.Type())

	s, err = reconciler.ParseStrategy("HASH")
	require.NoError(t, err)
	assert.Equal(t, reconciler.StrategyTypeHash, s.Type())

	_, err = reconciler.ParseStrategy("merge")
	assert.Error(t, err)
}

func TestDuplicates(t *testing.T) {
	// {A,B} titled the same on both sides: each source maps to {X,Y}
	src := []lists.Record{rec(1, "Same"), rec(2, "Same")}
	dst := []lists.Record{rec(20, "Same"), rec(21, "Same")}

	dups := reconciler.Reconcile(src, dst, []string{"Title"}).Duplicates()

	require.Len(t, dups, 2)
	assert.Equal(t, 1, dups[0].SourceID)
	assert.Equal(t, []int{20, 21}, dups[0].DestinationIDs)
	assert.Equal(t, 2, dups[1].SourceID)
	assert.Equal(t, []int{20, 21}, dups[1].DestinationIDs)
}

func TestPropagate(t *testing.T) {
	lookups := reconciler.Mappings{
		{SourceID: 501, DestinationID: 77},
		{SourceID: 503, DestinationID: 79},
	}.Index()

	t.Run("single reference", func(t *testing.T) {
		sources := []lists.Record{rec(1, "Foo", "Color", lookup.PlainReference{LookupID: 501})}
		master := reconciler.Mappings{{SourceID: 1, SourceTitle: "Foo", DestinationID: 9, DestinationTitle: "Foo"}}

		items := reconciler.Propagate(master, sources, "Color", lookup.Plain, lookups)

		require.Len(t, items, 1)
		assert.Equal(t, reconciler.MasterItemMapping{
			SourceID:             1,
			SourceTitle:          "Foo",
			SourceLookupIDs:      []int{501},
			DestinationID:        9,
			DestinationTitle:     "Foo",
			DestinationLookupIDs: []int{77},
		}, items[0])
	})

	t.Run("unmapped ids dropped in order", func(t *testing.T) {
		refs := []lookup.PlainReference{{LookupID: 503}, {LookupID: 502}, {LookupID: 501}}
		sources := []lists.Record{rec(1, "Foo", "Color", refs)}
		master := reconciler.Mappings{{SourceID: 1, DestinationID: 9}}

		items := reconciler.Propagate(master, sources, "Color", lookup.Plain, lookups)

		require.Len(t, items, 1)
		assert.Equal(t, []int{503, 502, 501}, items[0].SourceLookupIDs)
		assert.Equal(t, []int{79, 77}, items[0].DestinationLookupIDs)
		assert.LessOrEqual(t, len(items[0].DestinationLookupIDs), len(items[0].SourceLookupIDs))
	})

	t.Run("empty lookup", func(t *testing.T) {
		sources := []lists.Record{rec(1, "Foo", "Color", nil), rec(2, "Bar")}
		master := reconciler.Mappings{{SourceID: 1, DestinationID: 9}, {SourceID: 2, DestinationID: 10}}

		items := reconciler.Propagate(master, sources, "Color", lookup.Plain, lookups)

		require.Len(t, items, 2)
		for _, item := range items {
			assert.Empty(t, item.SourceLookupIDs)
			assert.Empty(t, item.DestinationLookupIDs)
		}
	})

	t.Run("foreign reference type yields nothing", func(t *testing.T) {
		sources := []lists.Record{rec(1, "Foo", "Owner", lookup.PlainReference{LookupID: 501})}
		master := reconciler.Mappings{{SourceID: 1, DestinationID: 9}}

		items := reconciler.Propagate(master, sources, "Owner", lookup.User, lookups)

		require.Len(t, items, 1)
		assert.Empty(t, items[0].SourceLookupIDs)
	})
}

func TestTranslateNeverIntroducesIDs(t *testing.T) {
	lookups := map[int]reconciler.Mapping{
		1: {SourceID: 1, DestinationID: 100},
		3: {SourceID: 3, DestinationID: 300},
	}
	targets := map[int]bool{100: true, 300: true}

	for _, ids := range [][]int{{}, {1}, {2}, {3, 1}, {1, 2, 3, 4}, {4, 4, 1}} {
		out := reconciler.Translate(ids, lookups)
		assert.LessOrEqual(t, len(out), len(ids))
		for _, id := range out {
			assert.True(t, targets[id], "unexpected id %d", id)
		}
	}
}

func TestMasterDuplicates(t *testing.T) {
	items := []reconciler.MasterItemMapping{
		{SourceID: 1, SourceTitle: "A", DestinationID: 10},
		{SourceID: 2, SourceTitle: "B", DestinationID: 11},
		{SourceID: 1, SourceTitle: "A", DestinationID: 12},
	}

	dups := reconciler.MasterDuplicates(items)

	require.Len(t, dups, 1)
	assert.Equal(t, 1, dups[0].SourceID)
	assert.Equal(t, "A", dups[0].SourceTitle)
	assert.Equal(t, []int{10, 12}, dups[0].DestinationIDs)
}
