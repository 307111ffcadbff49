// Package cache stores rendered artifacts so identical boxes are not drawn
// twice.
//
// Three backends share the [Cache] interface:
//   - [NullCache] never stores anything (caching disabled)
//   - [FileCache] keeps JSON entries under a directory, used by the CLI
//   - [RedisCache] keeps entries in Redis, used by the HTTP server
//
// Keys are built by a [Keyer] from the generation options and the content
// hashes of the artwork, so a changed image always misses.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the data for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Default TTLs.
const (
	// TTLArtifact applies to rendered documents and previews.
	TTLArtifact = 7 * 24 * time.Hour

	// TTLPreview is shorter since previews are cheap to redo and the server
	// produces many of them while a user adjusts dimensions.
	TTLPreview = 24 * time.Hour
)
