package reconciler

import (
	"github.com/agentstation/lookupsync/pkg/errors"
)

// Options configures a reconciler.
type options struct {
	strategy Strategy
}

func defaultOptions() *options {
	return &options{
		strategy: CrossJoin,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithStrategy sets the join strategy.
func WithStrategy(strategy Strategy) Option {
	return func(o *options) error {
		if strategy == nil {
			return &errors.ValidationError{
				Field:   "strategy",
				Message: "cannot be nil",
			}
		}
		o.strategy = strategy
		return nil
	}
}
