// Package service implements the application services: namespaced
// caching with popularity tracking, cached read-through product access,
// price history bookkeeping and marketplace ingestion.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"dealradar-backend/internal/config"
	"dealradar-backend/internal/infrastructure/cache"
	"dealradar-backend/internal/infrastructure/observability"
)

// Cache key namespaces. Full keys are "<namespace>:<key>".
const (
	NamespaceProduct      = "product"
	NamespaceSearch       = "search"
	NamespaceOffers       = "offers"
	NamespacePriceHistory = "price_history"
)

const (
	viewKeyPrefix = "views:"
	popularSetKey = "popular_products"
)

// searchKeySanitizer keeps search cache keys inside the safe character
// set; everything else becomes an underscore.
var searchKeySanitizer = regexp.MustCompile(`[^a-zA-Z0-9:|-]`)

// CacheService provides namespaced, fail-soft JSON caching plus view
// counting over the shared cache store. Every store fault is logged and
// degraded to a miss (or a no-op for writes): callers can never observe
// the difference between an absent key and an unreachable backend, and
// caching failures never break primary functionality.
type CacheService struct {
	store   cache.Store
	logger  *zap.Logger
	metrics *observability.Collector

	mu  sync.RWMutex
	ttl config.CacheConfig
}

// NewCacheService creates a cache service over store with the given TTLs.
func NewCacheService(store cache.Store, ttl config.CacheConfig, logger *zap.Logger, metrics *observability.Collector) *CacheService {
	return &CacheService{store: store, ttl: ttl, logger: logger, metrics: metrics}
}

// SetTTLs swaps the TTL configuration; wired to the config hot reloader.
func (s *CacheService) SetTTLs(ttl config.CacheConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttl = ttl
}

func (s *CacheService) ttls() config.CacheConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ttl
}

// Get loads and decodes the cached value into dest. Returns false on a
// miss, a store fault or a malformed payload.
func (s *CacheService) Get(ctx context.Context, namespace, key string, dest any) bool {
	fullKey := namespace + ":" + key
	data, found, err := s.store.Get(ctx, fullKey)
	if err != nil {
		s.cacheFault("get", fullKey, err)
		return false
	}
	if !found {
		s.miss()
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.cacheFault("decode", fullKey, err)
		return false
	}
	s.hit()
	return true
}

// Set encodes value as JSON and writes it with the given expiry.
// Fire-and-forget: failures are logged and swallowed.
func (s *CacheService) Set(ctx context.Context, namespace, key string, value any, ttl time.Duration) {
	fullKey := namespace + ":" + key
	if ttl <= 0 {
		ttl = s.ttls().DefaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		s.cacheFault("encode", fullKey, err)
		return
	}
	if err := s.store.Set(ctx, fullKey, data, ttl); err != nil {
		s.cacheFault("set", fullKey, err)
		return
	}
	s.logger.Debug("cache set", zap.String("key", fullKey), zap.Duration("ttl", ttl))
}

// Delete removes a key. Idempotent; absent keys are not an error.
func (s *CacheService) Delete(ctx context.Context, namespace, key string) {
	fullKey := namespace + ":" + key
	if _, err := s.store.Delete(ctx, fullKey); err != nil {
		s.cacheFault("delete", fullKey, err)
	}
}

// InvalidatePattern deletes every key matching the glob pattern and
// returns how many were removed.
func (s *CacheService) InvalidatePattern(ctx context.Context, pattern string) int64 {
	keys, err := s.store.Keys(ctx, pattern)
	if err != nil {
		s.cacheFault("scan", pattern, err)
		return 0
	}
	if len(keys) == 0 {
		return 0
	}
	deleted, err := s.store.Delete(ctx, keys...)
	if err != nil {
		s.cacheFault("delete", pattern, err)
		return 0
	}
	s.logger.Info("cache pattern invalidated",
		zap.String("pattern", pattern),
		zap.Int64("deleted", deleted),
	)
	return deleted
}

// CacheProduct stores a product aggregate under product:{id}.
func (s *CacheService) CacheProduct(ctx context.Context, productID string, value any) {
	s.Set(ctx, NamespaceProduct, productID, value, s.ttls().ProductTTL)
}

// CachedProduct loads a cached product aggregate.
func (s *CacheService) CachedProduct(ctx context.Context, productID string, dest any) bool {
	return s.Get(ctx, NamespaceProduct, productID, dest)
}

// InvalidateProduct removes the product entry and every derived search
// and offers entry that could embed it. Other derived entries (for
// example similar-product lists) are left to expire by TTL.
func (s *CacheService) InvalidateProduct(ctx context.Context, productID string) {
	s.Delete(ctx, NamespaceProduct, productID)
	s.InvalidatePattern(ctx, fmt.Sprintf("%s:*:%s*", NamespaceSearch, productID))
	s.InvalidatePattern(ctx, fmt.Sprintf("%s:%s*", NamespaceOffers, productID))
}

// CacheSearchResults stores search results keyed by the normalized
// query+filters key.
func (s *CacheService) CacheSearchResults(ctx context.Context, query string, filters map[string]string, value any) {
	s.Set(ctx, NamespaceSearch, searchKey(query, filters), value, s.ttls().SearchTTL)
}

// CachedSearchResults loads cached search results for query+filters.
func (s *CacheService) CachedSearchResults(ctx context.Context, query string, filters map[string]string, dest any) bool {
	return s.Get(ctx, NamespaceSearch, searchKey(query, filters), dest)
}

// CacheProductOffers stores a product's offer list under offers:{id}.
func (s *CacheService) CacheProductOffers(ctx context.Context, productID string, value any) {
	s.Set(ctx, NamespaceOffers, productID, value, s.ttls().OffersTTL)
}

// CachedProductOffers loads a cached offer list.
func (s *CacheService) CachedProductOffers(ctx context.Context, productID string, dest any) bool {
	return s.Get(ctx, NamespaceOffers, productID, dest)
}

// CachePriceHistory stores a computed price history under
// price_history:{offerId}.
func (s *CacheService) CachePriceHistory(ctx context.Context, offerID string, value any) {
	s.Set(ctx, NamespacePriceHistory, offerID, value, s.ttls().PriceHistoryTTL)
}

// CachedPriceHistory loads a cached price history.
func (s *CacheService) CachedPriceHistory(ctx context.Context, offerID string, dest any) bool {
	return s.Get(ctx, NamespacePriceHistory, offerID, dest)
}

// IncrementView atomically bumps the entity's view counter and mirrors
// the new count into the popularity ranking. The first increment arms a
// 24-hour expiry on the counter so popularity decays naturally. Returns
// the new count, or 0 on any store fault.
func (s *CacheService) IncrementView(ctx context.Context, entityID string) int64 {
	key := viewKeyPrefix + entityID
	views, err := s.store.Incr(ctx, key)
	if err != nil {
		s.cacheFault("incr", key, err)
		return 0
	}
	if views == 1 {
		if err := s.store.Expire(ctx, key, s.ttls().ViewCounterTTL); err != nil {
			s.cacheFault("expire", key, err)
		}
	}
	if err := s.store.ZAdd(ctx, popularSetKey, float64(views), entityID); err != nil {
		s.cacheFault("zadd", popularSetKey, err)
	}
	if s.metrics != nil {
		s.metrics.ViewIncrements.Inc()
	}
	return views
}

// PopularProducts returns up to limit entity ids in descending view-count
// order. A store fault yields an empty list.
func (s *CacheService) PopularProducts(ctx context.Context, limit int) []string {
	ids, err := s.store.ZRevRange(ctx, popularSetKey, int64(limit))
	if err != nil {
		s.cacheFault("zrevrange", popularSetKey, err)
		return nil
	}
	return ids
}

// Stats reports the number of live keys per namespace.
type Stats struct {
	Products       int `json:"products"`
	Searches       int `json:"searches"`
	Offers         int `json:"offers"`
	PriceHistories int `json:"price_history"`
}

// CacheStats counts live keys per namespace.
func (s *CacheService) CacheStats(ctx context.Context) Stats {
	count := func(namespace string) int {
		keys, err := s.store.Keys(ctx, namespace+":*")
		if err != nil {
			s.cacheFault("scan", namespace, err)
			return 0
		}
		return len(keys)
	}
	return Stats{
		Products:       count(NamespaceProduct),
		Searches:       count(NamespaceSearch),
		Offers:         count(NamespaceOffers),
		PriceHistories: count(NamespacePriceHistory),
	}
}

func (s *CacheService) hit() {
	if s.metrics != nil {
		s.metrics.CacheHits.Inc()
	}
}

func (s *CacheService) miss() {
	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}
}

func (s *CacheService) cacheFault(op, key string, err error) {
	if s.metrics != nil {
		s.metrics.CacheErrors.Inc()
	}
	s.logger.Warn("cache fault, treating as miss",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	)
}

// searchKey derives a deterministic cache key from the query plus every
// filter in lexicographic key order, so equal searches share one entry
// regardless of filter map iteration order.
func searchKey(query string, filters map[string]string) string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+":"+filters[k])
	}
	raw := query + ":" + strings.Join(pairs, "|")
	return searchKeySanitizer.ReplaceAllString(raw, "_")
}
