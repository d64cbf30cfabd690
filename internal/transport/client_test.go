package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/lookupsync/internal/transport"
	"github.com/agentstation/lookupsync/pkg/errors"
)

func TestClientGetAppliesAuth(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`{"value":[1,2]}`))
	}))
	defer srv.Close()

	client := transport.New(&transport.BearerAuth{Token: "abc"})
	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	var out struct {
		Value []int `json:"value"`
	}
	require.NoError(t, transport.DecodeResponse("source", resp, &out))

	assert.Equal(t, []int{1, 2}, out.Value)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.True(t, strings.HasPrefix(gotAccept, "application/json"))
}

func TestClientPostContentType(t *testing.T) {
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := transport.New(nil)
	resp, err := client.Post(context.Background(), srv.URL, "multipart/mixed; boundary=b", strings.NewReader("x"))
	require.NoError(t, err)

	_, err = transport.ReadResponse("destination", resp)
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed; boundary=b", gotType)
}

func TestReadResponseStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusUnauthorized, errors.IsUnauthorized},
		{http.StatusNotFound, errors.IsNotFound},
		{http.StatusServiceUnavailable, func(err error) bool { return errors.Is(err, errors.ErrStoreUnavailable) }},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			resp, err := transport.New(nil).Get(context.Background(), srv.URL)
			require.NoError(t, err)

			_, err = transport.ReadResponse("source", resp)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)

			var apiErr *errors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "nope", apiErr.Message)
			assert.Equal(t, srv.URL, apiErr.Endpoint)
		})
	}
}

func TestNewWithHTTPClient(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "alice" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	// The test server's certificate is only trusted by its own client.
	client := transport.NewWithHTTPClient(srv.Client(), &transport.BasicAuth{User: "alice", Password: "secret"})
	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	_, err = transport.ReadResponse("source", resp)
	require.NoError(t, err)

	fallback := transport.NewWithHTTPClient(nil, nil)
	_, err = fallback.Get(context.Background(), srv.URL)
	assert.Error(t, err, "default client does not trust the test certificate")
}
