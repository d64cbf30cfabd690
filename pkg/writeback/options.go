package writeback

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/lookupsync/pkg/constants"
	"github.com/agentstation/lookupsync/pkg/errors"
)

// Mode selects between reporting and writing.
type Mode int

// Mode constants.
const (
	// Simulate reports every item and performs no store call.
	Simulate Mode = iota
	// Apply stages and flushes the destination lookup values.
	Apply
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case Simulate:
		return "simulate"
	case Apply:
		return "apply"
	}
	return "unknown"
}

type options struct {
	mode      Mode
	batchSize int
	multiple  bool
	reporter  Reporter
	logger    *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		mode:      Simulate,
		batchSize: constants.DefaultBatchSize,
	}
}

// Option is a function that configures a Writer.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithMode sets simulate or apply mode.
func WithMode(mode Mode) Option {
	return func(o *options) error {
		if mode != Simulate && mode != Apply {
			return &errors.ValidationError{Field: "mode", Value: mode, Message: "must be simulate or apply"}
		}
		o.mode = mode
		return nil
	}
}

// WithBatchSize sets how many staged writes go into one flush.
func WithBatchSize(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return &errors.ValidationError{Field: "batch_size", Value: n, Message: "must be positive"}
		}
		o.batchSize = n
		return nil
	}
}

// WithMultiple marks the lookup field as holding several references.
func WithMultiple(multiple bool) Option {
	return func(o *options) error {
		o.multiple = multiple
		return nil
	}
}

// WithReporter replaces the default text reporter used in simulate mode.
func WithReporter(r Reporter) Option {
	return func(o *options) error {
		if r == nil {
			return &errors.ValidationError{Field: "reporter", Message: "cannot be nil"}
		}
		o.reporter = r
		return nil
	}
}

// WithLogger sets the logger for progress messages.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}
