// Package cache abstracts the remote key-value store behind a narrow
// interface so different backends (Redis, in-memory, no-op) can be
// injected. Absence is reported as a found=false result, not an error;
// store errors are surfaced to the caching layer, which degrades them to
// misses.
package cache

import (
	"context"
	"time"
)

// Member is one entry of a score-ordered set.
type Member struct {
	ID    string
	Score float64
}

// Store is the remote cache backend. All implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the raw value for key. found is false when the key is
	// absent or expired.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set writes value under key with the given expiry. A zero ttl means
	// no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys and returns how many existed.
	Delete(ctx context.Context, keys ...string) (int64, error)

	// Keys enumerates keys matching a glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Incr atomically increments the integer at key, creating it at 1.
	Incr(ctx context.Context, key string) (int64, error)

	// Expire sets the remaining time-to-live of key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// TTL returns the remaining time-to-live of key, or a negative
	// duration when the key is absent or has no expiry.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// ZAdd sets member's score in the sorted set at key.
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZRevRange returns up to limit members of the sorted set at key in
	// descending score order.
	ZRevRange(ctx context.Context, key string, limit int64) ([]string, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
