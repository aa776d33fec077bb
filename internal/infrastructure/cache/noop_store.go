package cache

import (
	"context"
	"time"
)

// NoopStore is a Store that caches nothing. It is wired in when caching is
// disabled or the cache backend is unreachable at startup; every read is a
// miss and every write succeeds silently, so callers always fall through
// to the system of record.
type NoopStore struct{}

// NewNoopStore creates a store that never holds data.
func NewNoopStore() *NoopStore { return &NoopStore{} }

func (NoopStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoopStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (NoopStore) Delete(ctx context.Context, keys ...string) (int64, error) { return 0, nil }

func (NoopStore) Keys(ctx context.Context, pattern string) ([]string, error) { return nil, nil }

func (NoopStore) Incr(ctx context.Context, key string) (int64, error) { return 0, nil }

func (NoopStore) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }

func (NoopStore) TTL(ctx context.Context, key string) (time.Duration, error) { return -2, nil }

func (NoopStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return nil
}

func (NoopStore) ZRevRange(ctx context.Context, key string, limit int64) ([]string, error) {
	return nil, nil
}

func (NoopStore) Ping(ctx context.Context) error { return nil }

func (NoopStore) Close() error { return nil }
