// Package sync provides options and results for one lookup reconciliation run.
package sync

import (
	"strings"
	"time"

	"github.com/agentstation/lookupsync/pkg/constants"
	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/reconciler"
)

// Options controls a Sync run.
type Options struct {
	// What to reconcile
	Master     string   // Title of the master list in both stores
	Lookup     string   // Title or internal name of the lookup field on the master list
	MasterKeys []string // Identifying attributes of master records
	LookupKeys []string // Identifying attributes of lookup-target records (empty means MasterKeys)

	// Fetch and write sizing
	PageSize  int // Records per fetched page; out-of-range values use constants.MaxPageSize
	BatchSize int // Staged writes per flush

	// Orchestration control
	Simulate      bool          // Report proposed changes without writing
	Strategy      string        // Join strategy name: cross or hash
	WarnUnmatched bool          // Log master records without a destination counterpart
	Timeout       time.Duration // Timeout for the entire run (0 means none)
}

// Apply applies the given options to the sync options.
func (s *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{
		MasterKeys:    []string{constants.TitleAttribute},
		LookupKeys:    nil,
		PageSize:      constants.DefaultPageSize,
		BatchSize:     constants.DefaultBatchSize,
		Simulate:      false,
		Strategy:      string(reconciler.StrategyTypeCross),
		WarnUnmatched: false,
		Timeout:       0,
	}
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Validate checks if the sync options are valid.
func (s *Options) Validate() error {
	if strings.TrimSpace(s.Master) == "" {
		return &errors.ValidationError{Field: "master", Value: s.Master, Message: "master list is required"}
	}
	if strings.TrimSpace(s.Lookup) == "" {
		return &errors.ValidationError{Field: "lookup", Value: s.Lookup, Message: "lookup field is required"}
	}
	if s.BatchSize <= 0 {
		return &errors.ValidationError{Field: "batch_size", Value: s.BatchSize, Message: "batch size must be positive"}
	}
	if s.Timeout < 0 {
		return &errors.ValidationError{Field: "timeout", Value: s.Timeout, Message: "timeout must be non-negative"}
	}
	if _, err := reconciler.ParseStrategy(s.Strategy); err != nil {
		return err
	}
	return nil
}

// EffectivePageSize returns the page size after applying the bound.
func (s *Options) EffectivePageSize() int {
	return constants.ClampPageSize(s.PageSize)
}

// EffectiveLookupKeys returns LookupKeys, or MasterKeys when none were set.
func (s *Options) EffectiveLookupKeys() []string {
	if len(s.LookupKeys) == 0 {
		return s.MasterKeys
	}
	return s.LookupKeys
}

// WithMaster sets the master list title.
func WithMaster(title string) Option {
	return func(opts *Options) {
		opts.Master = title
	}
}

// WithLookup sets the lookup field name.
func WithLookup(field string) Option {
	return func(opts *Options) {
		opts.Lookup = field
	}
}

// WithMasterKeys sets the identifying attributes of master records.
func WithMasterKeys(keys ...string) Option {
	return func(opts *Options) {
		opts.MasterKeys = cleanKeys(keys)
	}
}

// WithLookupKeys sets the identifying attributes of lookup-target records.
func WithLookupKeys(keys ...string) Option {
	return func(opts *Options) {
		opts.LookupKeys = cleanKeys(keys)
	}
}

// WithPageSize sets the fetch page size.
func WithPageSize(n int) Option {
	return func(opts *Options) {
		opts.PageSize = n
	}
}

// WithBatchSize sets the write batch size.
func WithBatchSize(n int) Option {
	return func(opts *Options) {
		opts.BatchSize = n
	}
}

// WithSimulate configures report-only mode.
func WithSimulate(simulate bool) Option {
	return func(opts *Options) {
		opts.Simulate = simulate
	}
}

// WithStrategy sets the join strategy by name.
func WithStrategy(name string) Option {
	return func(opts *Options) {
		opts.Strategy = name
	}
}

// WithWarnUnmatched configures logging of unmatched master records.
func WithWarnUnmatched(warn bool) Option {
	return func(opts *Options) {
		opts.WarnUnmatched = warn
	}
}

// WithTimeout configures the run timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// cleanKeys trims names and drops empty ones, so "Title, Code" style
// input from flags splits cleanly.
func cleanKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, part := range strings.Split(k, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
