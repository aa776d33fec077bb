package cache

import (
	"context"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by unit tests and as a local
// fallback. Expiry is enforced lazily on access.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	zsets map[string]map[string]float64
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryItem),
		zsets: make(map[string]map[string]float64),
	}
}

func (s *MemoryStore) expired(item memoryItem) bool {
	return !item.expiresAt.IsZero() && time.Now().After(item.expiresAt)
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[key]
	if !ok || s.expired(item) {
		return nil, false, nil
	}
	return item.value, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := memoryItem{value: value}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}
	s.items[key] = item
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for _, key := range keys {
		if item, ok := s.items[key]; ok {
			if !s.expired(item) {
				deleted++
			}
			delete(s.items, key)
		}
	}
	return deleted, nil
}

// Keys matches against the same glob grammar Redis uses for SCAN
// (*, ?, character classes), which path.Match also implements since keys
// never contain a path separator.
func (s *MemoryStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key, item := range s.items {
		if s.expired(item) {
			continue
		}
		if ok, err := path.Match(pattern, key); err == nil && ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Incr(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	if item, ok := s.items[key]; ok && !s.expired(item) {
		parsed, err := strconv.ParseInt(string(item.value), 10, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	}
	n++

	item := s.items[key]
	if s.expired(item) {
		item = memoryItem{}
	}
	item.value = []byte(strconv.FormatInt(n, 10))
	s.items[key] = item
	return n, nil
}

func (s *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item, ok := s.items[key]; ok && !s.expired(item) {
		item.expiresAt = time.Now().Add(ttl)
		s.items[key] = item
	}
	return nil
}

// TTL mirrors Redis semantics: -1 for a key without expiry, -2 for a
// missing key.
func (s *MemoryStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[key]
	if !ok || s.expired(item) {
		return -2, nil
	}
	if item.expiresAt.IsZero() {
		return -1, nil
	}
	return time.Until(item.expiresAt), nil
}

func (s *MemoryStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.zsets[key]
	if !ok {
		set = make(map[string]float64)
		s.zsets[key] = set
	}
	set[member] = score
	return nil
}

func (s *MemoryStore) ZRevRange(ctx context.Context, key string, limit int64) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.zsets[key]
	members := make([]Member, 0, len(set))
	for id, score := range set {
		members = append(members, Member{ID: id, Score: score})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score > members[j].Score
		}
		// Redis breaks score ties lexicographically; reversed here.
		return members[i].ID > members[j].ID
	})

	if limit < int64(len(members)) {
		members = members[:limit]
	}
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids, nil
}

// ZScore returns a member's score, used by tests to observe rankings.
func (s *MemoryStore) ZScore(key, member string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	score, ok := s.zsets[key][member]
	return score, ok
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
