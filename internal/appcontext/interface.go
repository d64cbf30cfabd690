// Package appcontext provides the shared application context interface
// used by all commands. Commands depend on this interface rather than
// the concrete App so they can be tested with Mock.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/lookupsync"
	"github.com/agentstation/lookupsync/internal/stores"
	"github.com/agentstation/lookupsync/internal/transport"
	"github.com/agentstation/lookupsync/pkg/lists"
)

// Interface defines the application context interface that commands need.
// The App struct from cmd/lookupsync/app implements it.
type Interface interface {
	// OpenStore opens the list store behind endpoint. role labels the
	// store in logs and errors ("source" or "destination").
	OpenStore(role, endpoint string, cred transport.Credential) (stores.Store, error)

	// Client creates a reconciliation client over two opened stores.
	Client(source, destination lists.Store, opts ...lookupsync.Option) (lookupsync.Client, error)

	// Endpoints returns the configured default source and destination
	// endpoints (config file or environment), either of which may be empty.
	Endpoints() (source, destination string)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured report format (text, table, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
