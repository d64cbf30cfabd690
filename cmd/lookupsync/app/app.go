// Package app provides the application context and dependency management
// for the lookupsync CLI. It centralizes configuration, logging and the
// lifecycle of the list stores a command opens.
package app

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/lookupsync"
	"github.com/agentstation/lookupsync/internal/stores"
	"github.com/agentstation/lookupsync/internal/transport"
	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/lists"
)

// StoreOpener opens a list store from an endpoint.
type StoreOpener func(role, endpoint string, cred transport.Credential) (stores.Store, error)

// App represents the lookupsync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Store lifecycle
	openStore StoreOpener
	mu        sync.Mutex
	opened    []stores.Store
}

// New creates a new App instance with the given version information.
// The app is initialized with configuration from the environment and
// config file; functional options override it.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version:   version,
		commit:    commit,
		date:      date,
		builtBy:   builtBy,
		openStore: stores.Open,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured report format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Endpoints returns the configured default source and destination endpoints.
func (a *App) Endpoints() (string, string) {
	return a.config.Source, a.config.Destination
}

// OpenStore opens a list store and tracks it so Shutdown can close it.
func (a *App) OpenStore(role, endpoint string, cred transport.Credential) (stores.Store, error) {
	store, err := a.openStore(role, endpoint, cred)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.opened = append(a.opened, store)
	a.mu.Unlock()

	a.logger.Debug().Str("store", role).Str("endpoint", endpoint).Msg("Opened store")
	return store, nil
}

// Client creates a reconciliation client that logs through the app logger.
func (a *App) Client(source, destination lists.Store, opts ...lookupsync.Option) (lookupsync.Client, error) {
	opts = append([]lookupsync.Option{lookupsync.WithLogger(a.logger)}, opts...)
	client, err := lookupsync.New(source, destination, opts...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}
	return client, nil
}

// Shutdown closes every store opened through the app. Stores tolerate a
// second Close, so commands may close their own stores first.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	opened := a.opened
	a.opened = nil
	a.mu.Unlock()

	var errs []error
	for _, store := range opened {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := store.Close(); err != nil {
			a.logger.Error().Err(err).Str("store", store.Name()).Msg("Failed to close store during shutdown")
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return &errors.ValidationError{Field: "config", Message: "cannot be nil"}
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStoreOpener replaces stores.Open (useful for testing).
func WithStoreOpener(open StoreOpener) Option {
	return func(a *App) error {
		if open == nil {
			return &errors.ValidationError{Field: "store_opener", Message: "cannot be nil"}
		}
		a.openStore = open
		return nil
	}
}
