// Package cache stores validation results and rendered artifacts keyed by
// content hash.
//
// Three backends share the [Cache] interface:
//
//   - [FileCache]: one JSON file per entry, used by the CLI
//   - [RedisCache]: a shared Redis instance, used by the validation service
//   - [NullCache]: caching disabled
//
// Keys come from a [Keyer] so every component derives them the same way:
//
//	k := cache.NewDefaultKeyer()
//	key := k.ValidationKey(apiURL, graph.Hash(snap))
package cache

import (
	"context"
	"errors"
	"time"
)

// Default time-to-live values.
const (
	// TTLValidation applies to validation responses. Acyclicity of an
	// identical snapshot never changes, so the TTL only bounds disk use.
	TTLValidation = 24 * time.Hour

	// TTLArtifact applies to rendered SVG/PNG output.
	TTLArtifact = 7 * 24 * time.Hour
)

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("cache closed")

// Cache is a byte-oriented key/value store with expiry.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A ttl of zero means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
