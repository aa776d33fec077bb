package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dealradar-backend/internal/config"
	"dealradar-backend/internal/infrastructure/cache"
)

func testTTLs() config.CacheConfig {
	return config.CacheConfig{
		DefaultTTL:      time.Hour,
		ProductTTL:      time.Hour,
		SearchTTL:       30 * time.Minute,
		OffersTTL:       30 * time.Minute,
		PriceHistoryTTL: time.Hour,
		ViewCounterTTL:  24 * time.Hour,
	}
}

func newTestCacheService() (*CacheService, *cache.MemoryStore) {
	store := cache.NewMemoryStore()
	return NewCacheService(store, testTTLs(), zap.NewNop(), nil), store
}

func TestCacheServiceRoundTrip(t *testing.T) {
	svc, _ := newTestCacheService()
	ctx := context.Background()

	type payload struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}

	svc.Set(ctx, NamespaceProduct, "p1", payload{Name: "Laptop", Price: 999.99}, 0)

	var got payload
	require.True(t, svc.Get(ctx, NamespaceProduct, "p1", &got))
	assert.Equal(t, "Laptop", got.Name)
	assert.Equal(t, 999.99, got.Price)
}

func TestCacheServiceMiss(t *testing.T) {
	svc, _ := newTestCacheService()

	var got map[string]string
	assert.False(t, svc.Get(context.Background(), NamespaceProduct, "absent", &got))
}

func TestCacheServiceDelete(t *testing.T) {
	svc, _ := newTestCacheService()
	ctx := context.Background()

	svc.Set(ctx, NamespaceProduct, "p1", "value", 0)
	svc.Delete(ctx, NamespaceProduct, "p1")

	var got string
	assert.False(t, svc.Get(ctx, NamespaceProduct, "p1", &got))

	// Deleting an absent key is a quiet no-op.
	svc.Delete(ctx, NamespaceProduct, "p1")
}

func TestCacheServiceFaultIsMiss(t *testing.T) {
	svc := NewCacheService(cache.NewNoopStore(), testTTLs(), zap.NewNop(), nil)
	ctx := context.Background()

	svc.Set(ctx, NamespaceProduct, "p1", "value", 0)

	var got string
	assert.False(t, svc.Get(ctx, NamespaceProduct, "p1", &got))
	assert.Zero(t, svc.IncrementView(ctx, "p1"))
	assert.Empty(t, svc.PopularProducts(ctx, 10))
}

func TestInvalidatePattern(t *testing.T) {
	svc, _ := newTestCacheService()
	ctx := context.Background()

	svc.Set(ctx, NamespaceSearch, "laptop:brand:Dell", "a", 0)
	svc.Set(ctx, NamespaceSearch, "laptop:brand:HP", "b", 0)
	svc.Set(ctx, NamespaceProduct, "laptop", "c", 0)

	deleted := svc.InvalidatePattern(ctx, "search:laptop*")
	assert.Equal(t, int64(2), deleted)

	var got string
	assert.True(t, svc.Get(ctx, NamespaceProduct, "laptop", &got))
	assert.Zero(t, svc.InvalidatePattern(ctx, "search:laptop*"))
}

func TestInvalidateProductDropsDerivedEntries(t *testing.T) {
	svc, _ := newTestCacheService()
	ctx := context.Background()

	svc.CacheProduct(ctx, "p1", "aggregate")
	svc.Set(ctx, NamespaceSearch, "laptop:p1", "derived", 0)
	svc.CacheProductOffers(ctx, "p1", "offers")
	svc.CacheProduct(ctx, "p2", "other")

	svc.InvalidateProduct(ctx, "p1")

	var got string
	assert.False(t, svc.CachedProduct(ctx, "p1", &got))
	assert.False(t, svc.Get(ctx, NamespaceSearch, "laptop:p1", &got))
	assert.False(t, svc.CachedProductOffers(ctx, "p1", &got))
	assert.True(t, svc.CachedProduct(ctx, "p2", &got))
}

func TestIncrementView(t *testing.T) {
	svc, store := newTestCacheService()
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		assert.Equal(t, i, svc.IncrementView(ctx, "p1"))
	}

	// The counter was armed with an expiry on the first increment.
	ttl, err := store.TTL(ctx, "views:p1")
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	score, ok := store.ZScore("popular_products", "p1")
	require.True(t, ok)
	assert.Equal(t, 5.0, score)
}

func TestPopularProductsOrdering(t *testing.T) {
	svc, _ := newTestCacheService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc.IncrementView(ctx, "p1")
	}
	svc.IncrementView(ctx, "p2")
	for i := 0; i < 2; i++ {
		svc.IncrementView(ctx, "p3")
	}

	assert.Equal(t, []string{"p1", "p3", "p2"}, svc.PopularProducts(ctx, 10))
	assert.Equal(t, []string{"p1", "p3"}, svc.PopularProducts(ctx, 2))
}

func TestSearchKeyDeterministic(t *testing.T) {
	a := searchKey("laptop", map[string]string{"brand": "Dell", "category": "Electronics"})
	b := searchKey("laptop", map[string]string{"category": "Electronics", "brand": "Dell"})
	assert.Equal(t, a, b)
	assert.Equal(t, "laptop:brand:Dell|category:Electronics", a)

	different := searchKey("laptop", map[string]string{"brand": "HP"})
	assert.NotEqual(t, a, different)
}

func TestSearchKeySanitized(t *testing.T) {
	key := searchKey(`gaming "laptop" & more`, map[string]string{"max price": "1500.00"})
	assert.Regexp(t, `^[a-zA-Z0-9:|_-]+$`, key)
}

func TestCacheStats(t *testing.T) {
	svc, _ := newTestCacheService()
	ctx := context.Background()

	svc.CacheProduct(ctx, "p1", "a")
	svc.CacheProduct(ctx, "p2", "b")
	svc.CacheSearchResults(ctx, "laptop", nil, "c")
	svc.CachePriceHistory(ctx, "o1", "d")

	stats := svc.CacheStats(ctx)
	assert.Equal(t, 2, stats.Products)
	assert.Equal(t, 1, stats.Searches)
	assert.Equal(t, 0, stats.Offers)
	assert.Equal(t, 1, stats.PriceHistories)
}

func TestSetTTLsHotReload(t *testing.T) {
	svc, store := newTestCacheService()
	ctx := context.Background()

	ttls := testTTLs()
	ttls.ProductTTL = time.Minute
	svc.SetTTLs(ttls)

	svc.CacheProduct(ctx, "p1", "value")
	ttl, err := store.TTL(ctx, "product:p1")
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Minute)
	assert.Greater(t, ttl, 50*time.Second)
}
