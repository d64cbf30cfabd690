package lookupsync

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/writeback"
)

// options holds client-wide settings that do not change between runs.
type options struct {
	logger   *zerolog.Logger
	reporter writeback.Reporter
}

func defaults() *options {
	return &options{}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Option is a function that configures a Client.
type Option func(*options) error

// WithLogger sets the logger used when the run context carries none.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithReporter sets the reporter for simulate runs. The default writes
// the text report to stdout.
func WithReporter(r writeback.Reporter) Option {
	return func(o *options) error {
		if r == nil {
			return &errors.ValidationError{Field: "reporter", Message: "cannot be nil"}
		}
		o.reporter = r
		return nil
	}
}
