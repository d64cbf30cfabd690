// Package writeback turns propagated master item mappings into either a
// report or batched writes against the destination store.
package writeback

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/lists"
	"github.com/agentstation/lookupsync/pkg/logging"
	"github.com/agentstation/lookupsync/pkg/lookup"
	"github.com/agentstation/lookupsync/pkg/reconciler"
)

// Result summarises one Write call.
type Result struct {
	Mode     Mode `json:"mode" yaml:"mode"`
	Reported int  `json:"reported" yaml:"reported"` // items handed to the reporter
	Staged   int  `json:"staged" yaml:"staged"`     // writes staged on the store
	Skipped  int  `json:"skipped" yaml:"skipped"`   // items without lookup ids on either side
	Batches  int  `json:"batches" yaml:"batches"`   // flushes performed
}

// Writer applies master item mappings to one destination list field.
type Writer struct {
	store   lists.Writer
	list    lists.ListRef
	field   string
	codec   lookup.Codec
	options *options
}

// New creates a Writer for field of list in store.
func New(store lists.Writer, list lists.ListRef, field string, codec lookup.Codec, opts ...Option) (*Writer, error) {
	if store == nil {
		return nil, &errors.ValidationError{Field: "store", Message: "cannot be nil"}
	}
	if codec == nil {
		return nil, &errors.ValidationError{Field: "codec", Message: "cannot be nil"}
	}
	if field == "" {
		return nil, &errors.ValidationError{Field: "field", Message: "cannot be empty"}
	}

	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	if o.reporter == nil {
		o.reporter = NewTextReporter(os.Stdout)
	}

	return &Writer{store: store, list: list, field: field, codec: codec, options: o}, nil
}

// Write reports or applies items depending on the configured mode.
func (w *Writer) Write(ctx context.Context, items []reconciler.MasterItemMapping) (*Result, error) {
	if w.options.mode == Simulate {
		if err := w.options.reporter.Report(items); err != nil {
			return nil, err
		}
		return &Result{Mode: Simulate, Reported: len(items)}, nil
	}
	return w.apply(ctx, items)
}

func (w *Writer) apply(ctx context.Context, items []reconciler.MasterItemMapping) (*Result, error) {
	logger := w.logger(ctx)
	result := &Result{Mode: Apply}
	pending := 0

	for _, item := range items {
		if len(item.SourceLookupIDs) == 0 || len(item.DestinationLookupIDs) == 0 {
			result.Skipped++
			continue
		}

		value := w.codec.Value(item.DestinationLookupIDs, w.options.multiple)
		if err := w.store.Stage(w.list, item.DestinationID, w.field, value); err != nil {
			return result, errors.WrapResource("stage", "record", w.list.String(), err)
		}
		result.Staged++
		pending++

		if pending >= w.options.batchSize {
			if err := w.flush(ctx, logger, result); err != nil {
				return result, err
			}
			pending = 0
		}
	}

	if pending > 0 {
		if err := w.flush(ctx, logger, result); err != nil {
			return result, err
		}
	}

	logger.Info().
		Int("staged", result.Staged).
		Int("skipped", result.Skipped).
		Int("batches", result.Batches).
		Msg("Lookup values written")
	return result, nil
}

func (w *Writer) flush(ctx context.Context, logger *zerolog.Logger, result *Result) error {
	if err := w.store.Flush(ctx); err != nil {
		return errors.WrapResource("flush", "batch", w.list.String(), err)
	}
	result.Batches++
	logger.Debug().Int("batch", result.Batches).Int("staged", result.Staged).Msg("Batch flushed")
	return nil
}

func (w *Writer) logger(ctx context.Context) *zerolog.Logger {
	if w.options.logger != nil {
		return w.options.logger
	}
	return logging.FromContext(ctx)
}
