// Package constants provides shared constants used throughout shelfsync.
package constants

import "time"

// Timeout constants
const (
	// DefaultHTTPTimeout is the standard timeout for requests to the remote catalog API
	DefaultHTTPTimeout = 30 * time.Second

	// SyncTimeout is the default upper bound for one bulk sync run (0 disables)
	SyncTimeout = 30 * time.Minute

	// ShutdownTimeout bounds graceful shutdown of the CLI
	ShutdownTimeout = 5 * time.Second
)

// Sync tuning
const (
	// DefaultConcurrency is the number of reconciliations allowed in flight at once
	DefaultConcurrency = 25

	// DefaultPacingDelay precedes every document store lookup
	DefaultPacingDelay = 50 * time.Millisecond

	// DefaultPageSize is the number of entities requested per remote page
	DefaultPageSize = 50

	// MaxPageSize is the largest page the remote API accepts
	MaxPageSize = 250
)

// Remote API defaults
const (
	// DefaultAPIVersion is the remote admin API version used for queries
	DefaultAPIVersion = "2024-10"

	// DefaultRateLimit is the client-side request rate (requests per second)
	DefaultRateLimit = 2.0

	// DefaultRateBurst is the token bucket burst size for remote requests
	DefaultRateBurst = 4
)

// File permission constants
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)
