package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/lookupsync"
	"github.com/agentstation/lookupsync/internal/stores"
	"github.com/agentstation/lookupsync/internal/transport"
	"github.com/agentstation/lookupsync/pkg/lists"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default value; OpenStore
// and Client fall back to the real constructors.
//
// Example Usage:
//
//	mock := &appcontext.Mock{
//	    OpenStoreFunc: func(role, endpoint string, _ transport.Credential) (stores.Store, error) {
//	        return fixtures[role], nil
//	    },
//	}
//	cmd := sync.NewCommand(mock)
type Mock struct {
	OpenStoreFunc    func(role, endpoint string, cred transport.Credential) (stores.Store, error)
	ClientFunc       func(source, destination lists.Store, opts ...lookupsync.Option) (lookupsync.Client, error)
	EndpointsFunc    func() (string, string)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// OpenStore opens a store using the mock function or stores.Open.
func (m *Mock) OpenStore(role, endpoint string, cred transport.Credential) (stores.Store, error) {
	if m.OpenStoreFunc != nil {
		return m.OpenStoreFunc(role, endpoint, cred)
	}
	return stores.Open(role, endpoint, cred)
}

// Client creates a client using the mock function or lookupsync.New.
func (m *Mock) Client(source, destination lists.Store, opts ...lookupsync.Option) (lookupsync.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc(source, destination, opts...)
	}
	return lookupsync.New(source, destination, opts...)
}

// Endpoints returns endpoints using the mock function or empty strings.
func (m *Mock) Endpoints() (string, string) {
	if m.EndpointsFunc != nil {
		return m.EndpointsFunc()
	}
	return "", ""
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the format using the mock function or "text".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "text"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
