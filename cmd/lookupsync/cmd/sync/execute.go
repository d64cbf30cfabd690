package sync

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/agentstation/lookupsync"
	"github.com/agentstation/lookupsync/internal/appcontext"
	"github.com/agentstation/lookupsync/internal/cmd/output"
	"github.com/agentstation/lookupsync/internal/stores"
	"github.com/agentstation/lookupsync/internal/transport"
	"github.com/agentstation/lookupsync/pkg/constants"
	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/reconciler"
)

// Execute opens both stores, runs one reconciliation and reports the
// outcome. A lookup field error is printed to stderr and yields a nil
// error with a nil result; every other failure is returned.
func Execute(ctx context.Context, app appcontext.Interface, flags *Flags, stdout, stderr io.Writer) (*lookupsync.Result, error) {
	logger := app.Logger()

	sourceEndpoint, destinationEndpoint := app.Endpoints()
	if flags.Source != "" {
		sourceEndpoint = flags.Source
	}
	if flags.Destination != "" {
		destinationEndpoint = flags.Destination
	}

	formatName := flags.Format
	if formatName == "" {
		formatName = app.OutputFormat()
	}
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return nil, errors.WrapValidation("format", err)
	}
	reporter, err := output.NewReporter(output.DetectFormat(string(format)), stdout)
	if err != nil {
		return nil, err
	}

	cred := transport.CredentialFromEnv(flags.User, flags.Password)
	logger.Debug().Str("auth", cred.Method()).Msg("Resolved credential")

	source, err := app.OpenStore(constants.SourceStore, sourceEndpoint, cred)
	if err != nil {
		return nil, err
	}
	defer closeStore(logger, source)

	destination, err := app.OpenStore(constants.DestinationStore, destinationEndpoint, cred)
	if err != nil {
		return nil, err
	}
	defer closeStore(logger, destination)

	client, err := app.Client(source, destination,
		lookupsync.WithLogger(logger),
		lookupsync.WithReporter(reporter),
	)
	if err != nil {
		return nil, err
	}

	var reportErr error
	if flags.Report != "" {
		client.OnItems(func(items []reconciler.MasterItemMapping) {
			reportErr = output.SaveWorkbook(flags.Report, items)
		})
	}

	result, err := client.Sync(ctx, BuildSyncOptions(flags)...)
	if err != nil {
		var fieldErr *errors.LookupFieldError
		if errors.As(err, &fieldErr) {
			_, _ = fmt.Fprintln(stderr, fieldErr.Error())
			return nil, nil
		}
		return nil, err
	}
	if reportErr != nil {
		return result, reportErr
	}

	event := logger.Info().
		Int("lookup_mappings", result.LookupMappings).
		Int("master_mappings", result.MasterMappings).
		Int("unmatched", result.Unmatched)
	if flags.Report != "" {
		event = event.Str("report", flags.Report)
	}
	event.Msg("Sync finished")

	return result, nil
}

func closeStore(logger *zerolog.Logger, s stores.Store) {
	if err := s.Close(); err != nil {
		logger.Warn().Err(err).Str("store", s.Name()).Msg("Failed to close store")
	}
}
