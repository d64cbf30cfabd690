// Package constants provides shared constants used throughout lookupsync.
// This includes timeouts, page and batch limits, file permissions and the
// well-known attribute names of list records.
package constants

import "time"

// Timeout constants
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to list stores
	DefaultHTTPTimeout = 60 * time.Second

	// ShutdownTimeout bounds graceful shutdown after a failed run
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants
const (
	// DefaultPageSize is the number of records requested per page when fetching a list
	DefaultPageSize = 500

	// MaxPageSize is the hard upper bound on records per page; requests
	// outside (0, MaxPageSize] fall back to it
	MaxPageSize = 5000

	// DefaultBatchSize is the number of staged writes flushed per remote call
	DefaultBatchSize = 200
)

// Attribute names every list record carries.
const (
	// IDAttribute names the record's own identifier; matched case-insensitively
	IDAttribute = "Id"

	// TitleAttribute is the default identifying attribute
	TitleAttribute = "Title"
)

// Store roles used in operator messages and log fields.
const (
	SourceStore      = "source"
	DestinationStore = "destination"
)

// Environment variables.
const (
	// EnvToken carries a bearer token for the invoking identity
	EnvToken = "LOOKUPSYNC_TOKEN"

	// EnvPrefix prefixes every environment-bound configuration key
	EnvPrefix = "LOOKUPSYNC"
)

// ClampPageSize applies the page size bound: out-of-range requests use MaxPageSize.
func ClampPageSize(n int) int {
	if n <= 0 || n > MaxPageSize {
		return MaxPageSize
	}
	return n
}
