// Package lookupsync reconciles a lookup field between two independently
// hosted list stores.
//
// The lookup-target lists of both stores are matched on identifying
// attributes, the resulting mapping is checked for ambiguity, pushed
// through the matched master records, checked again, and finally either
// reported or written to the destination in batches.
//
// Example usage:
//
//	client, err := lookupsync.New(source, destination)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := client.Sync(ctx,
//	    sync.WithMaster("Products"),
//	    sync.WithLookup("Color"),
//	    sync.WithSimulate(true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary())
package lookupsync

import (
	"context"

	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/lists"
	"github.com/agentstation/lookupsync/pkg/sync"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// SyncOption configures one Sync run.
type SyncOption = sync.Option

// Result is the outcome of one Sync run.
type Result = sync.Result

// Syncer runs reconciliations.
type Syncer interface {
	// Sync fetches, reconciles and writes (or reports) one lookup field.
	Sync(ctx context.Context, opts ...SyncOption) (*Result, error)
}

// Client reconciles lookups between a source and a destination store.
type Client interface {
	Syncer

	// Hooks provides access to event callback registration
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options

	source      lists.Store
	destination lists.Store

	hooks *hooks
}

// New creates a Client for the given stores.
func New(source, destination lists.Store, opts ...Option) (Client, error) {
	if source == nil {
		return nil, &errors.ValidationError{Field: "source", Message: "store cannot be nil"}
	}
	if destination == nil {
		return nil, &errors.ValidationError{Field: "destination", Message: "store cannot be nil"}
	}

	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	return &client{
		options:     o,
		source:      source,
		destination: destination,
		hooks:       newHooks(),
	}, nil
}
