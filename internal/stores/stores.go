// Package stores opens list stores from endpoint strings.
package stores

import (
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agentstation/lookupsync/internal/stores/rest"
	"github.com/agentstation/lookupsync/internal/stores/sqlite"
	"github.com/agentstation/lookupsync/internal/transport"
	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/lists"
)

// Store is an opened list store that must be closed after use.
type Store interface {
	lists.Store
	io.Closer
}

type opener func(name, target string, cred transport.Credential) (Store, error)

// registry maps endpoint schemes to their store constructors
var registry = map[string]opener{
	"http":   openREST,
	"https":  openREST,
	"sqlite": openSQLite,
}

// Open opens the store behind endpoint. name labels the store in logs
// and errors ("source", "destination").
//
//	https://host/sites/team   remote site over the REST API
//	sqlite:///path/to/file.db  local snapshot
//	./snapshot.db              local snapshot (.db or .sqlite suffix)
func Open(name, endpoint string, cred transport.Credential) (Store, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.NewValidationError(name, endpoint, "endpoint cannot be empty")
	}

	scheme, target := split(endpoint)
	open, ok := registry[scheme]
	if !ok {
		return nil, &errors.ValidationError{
			Field:   name,
			Value:   endpoint,
			Message: fmt.Sprintf("unsupported endpoint scheme %q (supported: %s)", scheme, strings.Join(Schemes(), ", ")),
		}
	}
	return open(name, target, cred)
}

// Schemes returns the supported endpoint schemes.
func Schemes() []string {
	out := make([]string, 0, len(registry))
	for scheme := range registry {
		out = append(out, scheme)
	}
	sort.Strings(out)
	return out
}

func split(endpoint string) (scheme, target string) {
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		switch strings.ToLower(u.Scheme) {
		case "sqlite":
			return "sqlite", strings.TrimPrefix(endpoint[len(u.Scheme):], "://")
		default:
			return strings.ToLower(u.Scheme), endpoint
		}
	}

	switch strings.ToLower(filepath.Ext(endpoint)) {
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite", endpoint
	}
	return "", endpoint
}

func openREST(name, target string, cred transport.Credential) (Store, error) {
	auth, err := transport.NewAuthenticator(cred)
	if err != nil {
		var authErr *errors.AuthenticationError
		if errors.As(err, &authErr) {
			authErr.Store = name
		}
		return nil, err
	}
	return rest.New(name, target, transport.New(auth)), nil
}

func openSQLite(name, target string, _ transport.Credential) (Store, error) {
	if target == "" {
		return nil, errors.NewValidationError(name, target, "sqlite endpoint needs a file path")
	}
	return sqlite.Open(name, target)
}
