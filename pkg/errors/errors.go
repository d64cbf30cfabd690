// Package errors provides custom error types for lookupsync.
// Every failure the reconciliation run can hit has a typed error here so
// the CLI can decide between "nothing to do", "ambiguous mapping" and a
// fatal remote failure with errors.Is / errors.As.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New is the standard library errors.New, re-exported for convenience.
var New = errors.New

// Sentinel errors.
var (
	// ErrNotFound indicates that a requested list, field or record was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrLookupField indicates the lookup field is missing or is not a lookup
	ErrLookupField = errors.New("lookup field unusable")

	// ErrAmbiguous indicates that a mapping has more than one destination for a source record
	ErrAmbiguous = errors.New("ambiguous mapping")

	// ErrUnauthorized indicates the store rejected the credential
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStoreUnavailable indicates a remote store answered with a server error
	ErrStoreUnavailable = errors.New("store unavailable")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// LookupFieldError is the configuration error raised when the lookup field
// cannot be used in one of the stores. It is detected before any mapping
// work and is treated by the CLI as "nothing to do".
type LookupFieldError struct {
	Store  string // "source" or "destination"
	Field  string
	Kind   string // set when only the field kind is known
	Reason string // "cannot be found", "is not a lookup"
}

// Error implements the error interface
func (e *LookupFieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("field kind %q %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("Field %q in %s %s", e.Field, e.Store, e.Reason)
}

// Is implements errors.Is support
func (e *LookupFieldError) Is(target error) bool {
	return target == ErrLookupField
}

// NewMissingFieldError reports a lookup field absent from a store.
func NewMissingFieldError(store, field string) *LookupFieldError {
	return &LookupFieldError{Store: store, Field: field, Reason: "cannot be found"}
}

// NewNotLookupError reports a field that exists but is not a lookup kind.
func NewNotLookupError(store, field string) *LookupFieldError {
	return &LookupFieldError{Store: store, Field: field, Reason: "is not a lookup"}
}

// NewUnsupportedKindError reports a field kind no lookup codec handles.
func NewUnsupportedKindError(kind string) *LookupFieldError {
	return &LookupFieldError{Kind: kind, Reason: "is not a lookup"}
}

// DuplicateGroup is one source record that matched several destination records.
type DuplicateGroup struct {
	SourceID       int
	SourceTitle    string
	DestinationIDs []int
}

// String renders the group the way the operator sees it.
func (g DuplicateGroup) String() string {
	ids := make([]string, len(g.DestinationIDs))
	for i, id := range g.DestinationIDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("source %d %q maps to destinations [%s]", g.SourceID, g.SourceTitle, strings.Join(ids, ", "))
}

// AmbiguityError reports every duplicate group found in one reconciliation phase.
type AmbiguityError struct {
	Phase  string // "lookup" or "master"
	Groups []DuplicateGroup
}

// Error implements the error interface
func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("%d duplicate %s mapping(s) found", len(e.Groups), e.Phase)
}

// Is implements errors.Is support
func (e *AmbiguityError) Is(target error) bool {
	return target == ErrAmbiguous
}

// Report returns one line per duplicate group.
func (e *AmbiguityError) Report() []string {
	lines := make([]string, len(e.Groups))
	for i, g := range e.Groups {
		lines[i] = fmt.Sprintf("duplicate %s mapping: %s", e.Phase, g)
	}
	return lines
}

// APIError represents an error answered by a remote list store
type APIError struct {
	Store      string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Store, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Store, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode == 401 || e.StatusCode == 403:
		return target == ErrUnauthorized
	case e.StatusCode == 404:
		return target == ErrNotFound
	case e.StatusCode >= 500:
		return target == ErrStoreUnavailable
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(store string, statusCode int, message string) *APIError {
	return &APIError{
		Store:      store,
		StatusCode: statusCode,
		Message:    message,
	}
}

// AuthenticationError represents a credential that could not be applied
type AuthenticationError struct {
	Store   string
	Method  string // "basic", "bearer", "ambient"
	Message string
	Err     error
}

// Error implements the error interface
func (e *AuthenticationError) Error() string {
	if e.Store != "" {
		return fmt.Sprintf("authentication error for %s (%s): %s", e.Store, e.Method, e.Message)
	}
	return fmt.Sprintf("authentication error (%s): %s", e.Method, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrUnauthorized
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when decoding store payloads
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// ResourceError represents an error while operating on a list resource
type ResourceError struct {
	Operation string // "fetch", "stage", "flush", "create"
	Resource  string // "list", "field", "records", "batch"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsLookupField checks if an error is a lookup field configuration error
func IsLookupField(err error) bool {
	return errors.Is(err, ErrLookupField)
}

// IsAmbiguous checks if an error reports duplicate mappings
func IsAmbiguous(err error) bool {
	return errors.Is(err, ErrAmbiguous)
}

// IsUnauthorized checks if an error is an authentication failure
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// As is the standard library errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is the standard library errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Message: err.Error(), Err: err}
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   err.Error(),
		Err:       err,
	}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

// WrapAPI wraps an error as an APIError
func WrapAPI(store string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{
		Store:      store,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}
