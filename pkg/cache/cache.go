// Package cache provides byte-level caching backends for lookups that are
// expensive to repeat, such as metadata store queries.
//
// Three backends implement [Cache]:
//   - [NullCache]: caching disabled
//   - [FileCache]: JSON entry files under a directory, for CLI use
//   - [RedisCache]: shared cache for multi-instance deployments
//
// Keys are produced by a [Keyer] so that deployments sharing a Redis instance
// can be isolated with [NewScopedKeyer].
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional time-to-live.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key and whether it was present.
	// A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
