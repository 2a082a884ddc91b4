// Package cache stores generator results keyed by blueprint content.
//
// Three backends implement [Cache]:
//   - [NullCache] never stores anything (caching disabled)
//   - [FileCache] keeps zstd-compressed entries under a directory (CLI)
//   - [RedisCache] shares entries between API servers
//
// Keys come from a [Keyer], so the same blueprint and options always map to
// the same entry regardless of how the blueprint was edited.
package cache

import (
	"context"
	"time"
)

// TTLResult is how long generator results are kept.
const TTLResult = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
// Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the stored value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Clearer is implemented by caches that can drop every entry.
type Clearer interface {
	Clear(ctx context.Context) error
}
