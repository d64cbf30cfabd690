package rest_test

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/lookupsync/internal/stores/rest"
	"github.com/agentstation/lookupsync/internal/transport"
	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/lists"
	"github.com/agentstation/lookupsync/pkg/lookup"
)

const colorsList = "8a0c6c5e-4b3f-4c1e-9f7a-2d6b1e3c4a5f"

const fieldsJSON = `{"value":[
	{"InternalName":"Title","Title":"Title","TypeAsString":"Text"},
	{"InternalName":"Color","Title":"Colour","TypeAsString":"Lookup","LookupList":"{8A0C6C5E-4B3F-4C1E-9F7A-2D6B1E3C4A5F}"},
	{"InternalName":"Owners","Title":"Owners","TypeAsString":"UserMulti","AllowMultipleValues":true,"LookupList":"UserInfo"}
]}`

type fakeSite struct {
	*httptest.Server
	batches  []string
	requests []string
	auth     []string
}

func newFakeSite(t *testing.T) *fakeSite {
	t.Helper()
	site := &fakeSite{}
	site.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site.requests = append(site.requests, r.URL.RequestURI())
		site.auth = append(site.auth, r.Header.Get("Authorization"))
		switch {
		case strings.HasSuffix(r.URL.Path, "/fields") && strings.Contains(r.URL.Path, "Missing"):
			http.Error(w, `{"error":"list does not exist"}`, http.StatusNotFound)
		case strings.HasSuffix(r.URL.Path, "/fields"):
			fmt.Fprint(w, fieldsJSON)
		case strings.HasSuffix(r.URL.Path, "/items") && r.URL.Query().Get("$skiptoken") == "":
			assert.Equal(t, "2", r.URL.Query().Get("$top"))
			fmt.Fprintf(w, `{"value":[
				{"Id":1,"Title":"Foo","Color":{"LookupId":501,"LookupValue":"Red"},"Owners":[{"LookupId":3},{"LookupId":4}]},
				{"ID":2,"Title":"Bar","Color":null,"Owners":[]}
			],"odata.nextLink":"%s%s?$skiptoken=2&$top=2"}`, site.URL, r.URL.Path)
		case strings.HasSuffix(r.URL.Path, "/items"):
			fmt.Fprint(w, `{"value":[{"Id":3,"Title":"Baz","Color":{"LookupId":502}}]}`)
		case strings.HasSuffix(r.URL.Path, "/$batch"):
			site.batches = append(site.batches, readBatch(t, r))
			w.Header().Set("Content-Type", "multipart/mixed; boundary=batchresponse_x")
			fmt.Fprint(w, "--batchresponse_x\r\nContent-Type: application/http\r\n\r\nHTTP/1.1 204 No Content\r\n\r\n--batchresponse_x--\r\n")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(site.Close)
	return site
}

func readBatch(t *testing.T, r *http.Request) string {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/mixed", mediaType)
	require.True(t, strings.HasPrefix(params["boundary"], "batch_"))

	reader := multipart.NewReader(r.Body, params["boundary"])
	part, err := reader.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(part)
	require.NoError(t, err)
	return string(body)
}

func newStore(site *fakeSite) *rest.Store {
	client := transport.NewWithHTTPClient(site.Client(), &transport.BearerAuth{Token: "site-token"})
	return rest.New("source", site.URL+"/", client)
}

func TestField(t *testing.T) {
	site := newFakeSite(t)
	store := newStore(site)
	ctx := context.Background()

	f, err := store.Field(ctx, lists.ByTitle("Products"), "Colour")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, lists.FieldKindLookup, f.Kind)
	assert.Equal(t, colorsList, f.LookupList)
	assert.False(t, f.AllowMultiple)

	owners, err := store.Field(ctx, lists.ByTitle("Products"), "Owners")
	require.NoError(t, err)
	assert.Equal(t, lists.FieldKindUser, owners.Kind)
	assert.True(t, owners.AllowMultiple)

	missing, err := store.Field(ctx, lists.ByTitle("Products"), "Size")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// field descriptors are cached per list
	fieldCalls := 0
	for _, r := range site.requests {
		if strings.Contains(r, "/fields") {
			fieldCalls++
		}
	}
	assert.Equal(t, 1, fieldCalls)

	_, err = store.Field(ctx, lists.ByTitle("Missing"), "Colour")
	assert.True(t, errors.IsNotFound(err))

	require.NotEmpty(t, site.auth)
	for _, got := range site.auth {
		assert.Equal(t, "Bearer site-token", got)
	}
}

func TestRecordsPaging(t *testing.T) {
	site := newFakeSite(t)
	store := newStore(site)

	records, err := store.Records(context.Background(), lists.ByTitle("Products"), 2)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, 1, records[0].ID)
	assert.Equal(t, "Foo", records[0].Title())
	assert.NotContains(t, records[0].Fields, "Id")
	assert.Equal(t, lookup.PlainReference{LookupID: 501, LookupValue: "Red"}, records[0].Fields["Color"])
	assert.Equal(t, []int{3, 4}, lookup.User.Extract(records[0].Fields["Owners"]))

	assert.Equal(t, 2, records[1].ID)
	assert.NotContains(t, records[1].Fields, "ID")
	assert.Nil(t, records[1].Fields["Color"])

	assert.Equal(t, []int{502}, lookup.Plain.Extract(records[2].Fields["Color"]))
}

func TestRecordsByID(t *testing.T) {
	site := newFakeSite(t)
	store := newStore(site)

	_, err := store.Records(context.Background(), lists.ByID(colorsList), 2)
	require.NoError(t, err)
	assert.Contains(t, site.requests[0], "getbyid('"+colorsList+"')")
}

func TestFlush(t *testing.T) {
	site := newFakeSite(t)
	store := newStore(site)
	ctx := context.Background()

	require.NoError(t, store.Flush(ctx))
	assert.Empty(t, site.batches, "empty flush sends nothing")

	require.NoError(t, store.Stage(lists.ByTitle("Products"), 9, "Color", lookup.Plain.Value([]int{77}, false)))
	require.NoError(t, store.Stage(lists.ByTitle("Products"), 10, "Color", lookup.Plain.Value([]int{78, 79}, true)))
	require.NoError(t, store.Flush(ctx))

	require.Len(t, site.batches, 1)
	batch := site.batches[0]
	assert.Contains(t, batch, "PATCH "+site.URL+"/_api/web/lists/getbytitle('Products')/items(9) HTTP/1.1")
	assert.Contains(t, batch, `{"Color":{"LookupId":77}}`)
	assert.Contains(t, batch, `{"Color":[{"LookupId":78},{"LookupId":79}]}`)

	require.NoError(t, store.Flush(ctx))
	assert.Len(t, site.batches, 1, "staged writes are cleared after a flush")
}

func TestFlushEmbeddedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "--b\r\nContent-Type: application/http\r\n\r\nHTTP/1.1 412 Precondition Failed\r\n\r\n--b--\r\n")
	}))
	defer srv.Close()

	store := rest.New("destination", srv.URL, transport.New(nil))
	require.NoError(t, store.Stage(lists.ByTitle("Products"), 1, "Color", nil))

	err := store.Flush(context.Background())
	require.Error(t, err)

	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 412, apiErr.StatusCode)
	assert.Equal(t, "destination", apiErr.Store)
}
