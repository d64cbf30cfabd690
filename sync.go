package lookupsync

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/lookupsync/pkg/constants"
	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/lists"
	"github.com/agentstation/lookupsync/pkg/logging"
	"github.com/agentstation/lookupsync/pkg/lookup"
	"github.com/agentstation/lookupsync/pkg/reconciler"
	"github.com/agentstation/lookupsync/pkg/sync"
	"github.com/agentstation/lookupsync/pkg/writeback"
)

// Phases name the two reconciliation passes in errors and logs.
const (
	PhaseLookup = "lookup"
	PhaseMaster = "master"
)

// snapshot holds every record set a run needs, fetched before any matching.
type snapshot struct {
	sourceTargets      []lists.Record
	destinationTargets []lists.Record
	sourceMaster       []lists.Record
	destinationMaster  []lists.Record
}

// Sync reconciles the lookup field using staged execution.
//
// A missing or non-lookup field yields *errors.LookupFieldError and a
// duplicate mapping yields *errors.AmbiguityError; in both cases nothing
// is written.
func (c *client) Sync(ctx context.Context, opts ...SyncOption) (*Result, error) {
	// Step 0: Set context
	if ctx == nil {
		ctx = context.Background()
	}
	if c.options.logger != nil && !logging.HasLogger(ctx) {
		ctx = logging.WithLogger(ctx, c.options.logger)
	}

	// Step 1: Parse and validate options
	options := sync.Defaults().Apply(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}
	strategy, err := reconciler.ParseStrategy(options.Strategy)
	if err != nil {
		return nil, err
	}
	rec, err := reconciler.New(reconciler.WithStrategy(strategy))
	if err != nil {
		return nil, err
	}

	// Step 2: Setup context with timeout
	var cancel context.CancelFunc
	if options.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
	} else {
		cancel = func() {}
	}
	defer cancel()

	ctx = logging.WithList(ctx, options.Master)
	logger := logging.FromContext(ctx)
	logger.Debug().Str("strategy", strategy.Type().String()).Msg(strategy.Description())

	// Step 3: Resolve the lookup field on both sides
	srcField, dstField, codec, err := c.resolveFields(ctx, options.Master, options.Lookup)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("field", srcField.InternalName).
		Str("kind", string(codec.Kind())).
		Bool("multiple", dstField.AllowMultiple).
		Msg("Lookup field resolved")

	// Step 4: Fetch every list
	snap, err := c.fetch(ctx, options, srcField, dstField)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Kind:     codec.Kind(),
		Multiple: dstField.AllowMultiple,
		Simulate: options.Simulate,
	}

	// Step 5: Reconcile lookup targets; duplicates gate everything after
	lookups := rec.Reconcile(snap.sourceTargets, snap.destinationTargets, options.EffectiveLookupKeys())
	if dups := lookups.Duplicates(); len(dups) > 0 {
		return nil, &errors.AmbiguityError{Phase: PhaseLookup, Groups: dups}
	}
	result.LookupMappings = len(lookups)
	logger.Info().Int("mappings", len(lookups)).Str("phase", PhaseLookup).Msg("Lookup targets reconciled")
	c.hooks.triggerMappings(PhaseLookup, lookups)

	// Step 6: Reconcile master records and propagate the lookup mapping
	master := rec.Reconcile(snap.sourceMaster, snap.destinationMaster, options.MasterKeys)
	items := reconciler.Propagate(master, snap.sourceMaster, srcField.InternalName, codec, lookups.Index())
	if dups := reconciler.MasterDuplicates(items); len(dups) > 0 {
		return nil, &errors.AmbiguityError{Phase: PhaseMaster, Groups: dups}
	}
	result.MasterMappings = len(master)
	result.Items = items
	logger.Info().Int("mappings", len(master)).Str("phase", PhaseMaster).Msg("Master records reconciled")
	c.hooks.triggerMappings(PhaseMaster, master)

	// Step 7: Report unmatched master records when asked to
	unmatched := reconciler.Unmatched(snap.sourceMaster, master)
	result.Unmatched = len(unmatched)
	if options.WarnUnmatched {
		warnUnmatched(logger, unmatched)
	}

	c.hooks.triggerItems(items)

	// Step 8: Report or write
	written, err := c.write(ctx, options, dstField, codec, items)
	if err != nil {
		return nil, err
	}
	result.Write = written
	c.hooks.triggerWritten(written)

	if options.Simulate {
		logger.Info().Bool("simulate", true).Int("items", len(items)).Msg("Simulation completed - no changes applied")
	} else {
		logger.Info().Msg(result.Summary())
	}
	return result, nil
}

// resolveFields validates the lookup field in both stores and selects the codec.
func (c *client) resolveFields(ctx context.Context, masterTitle, name string) (src, dst *lists.Field, codec lookup.Codec, err error) {
	list := lists.ByTitle(masterTitle)

	src, err = lookupField(ctx, c.source, constants.SourceStore, list, name)
	if err != nil {
		return nil, nil, nil, err
	}
	dst, err = lookupField(ctx, c.destination, constants.DestinationStore, list, name)
	if err != nil {
		return nil, nil, nil, err
	}

	codec, err = lookup.ForKind(src.Kind)
	if err != nil {
		return nil, nil, nil, errors.NewNotLookupError(constants.SourceStore, name)
	}
	if dst.Kind != src.Kind {
		return nil, nil, nil, &errors.LookupFieldError{
			Store:  constants.DestinationStore,
			Field:  name,
			Reason: "is a " + string(dst.Kind) + " field but the source field is a " + string(src.Kind) + " field",
		}
	}
	return src, dst, codec, nil
}

func lookupField(ctx context.Context, store lists.Reader, role string, list lists.ListRef, name string) (*lists.Field, error) {
	f, err := store.Field(ctx, list, name)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, errors.NewMissingFieldError(role, name)
	}
	if !f.Kind.IsReference() {
		return nil, errors.NewNotLookupError(role, name)
	}
	if f.LookupList == "" {
		return nil, &errors.LookupFieldError{Store: role, Field: name, Reason: "has no lookup list"}
	}
	return f, nil
}

// fetch reads the four record sets sequentially.
func (c *client) fetch(ctx context.Context, options *sync.Options, srcField, dstField *lists.Field) (*snapshot, error) {
	pageSize := options.EffectivePageSize()
	master := lists.ByTitle(options.Master)
	snap := &snapshot{}

	steps := []struct {
		store lists.Reader
		role  string
		list  lists.ListRef
		into  *[]lists.Record
	}{
		{c.source, constants.SourceStore, lists.ByID(srcField.LookupList), &snap.sourceTargets},
		{c.destination, constants.DestinationStore, lists.ByID(dstField.LookupList), &snap.destinationTargets},
		{c.source, constants.SourceStore, master, &snap.sourceMaster},
		{c.destination, constants.DestinationStore, master, &snap.destinationMaster},
	}

	for _, step := range steps {
		stepCtx := logging.WithStore(ctx, step.role)
		records, err := step.store.Records(stepCtx, step.list, pageSize)
		if err != nil {
			return nil, err
		}
		*step.into = records
		logging.FromContext(stepCtx).Info().
			Str("from", step.list.String()).
			Int("records", len(records)).
			Msg("Records loaded")
	}
	return snap, nil
}

func (c *client) write(ctx context.Context, options *sync.Options, dstField *lists.Field, codec lookup.Codec, items []reconciler.MasterItemMapping) (*writeback.Result, error) {
	mode := writeback.Apply
	if options.Simulate {
		mode = writeback.Simulate
	}

	wopts := []writeback.Option{
		writeback.WithMode(mode),
		writeback.WithBatchSize(options.BatchSize),
		writeback.WithMultiple(dstField.AllowMultiple),
		writeback.WithLogger(logging.FromContext(logging.WithPhase(ctx, "write"))),
	}
	if c.options.reporter != nil {
		wopts = append(wopts, writeback.WithReporter(c.options.reporter))
	}

	w, err := writeback.New(c.destination, lists.ByTitle(options.Master), dstField.InternalName, codec, wopts...)
	if err != nil {
		return nil, err
	}
	return w.Write(ctx, items)
}

func warnUnmatched(logger *zerolog.Logger, unmatched []lists.Record) {
	for _, r := range unmatched {
		logger.Warn().Int("source_id", r.ID).Str("title", r.Title()).Msg("Master record has no destination match")
	}
}
