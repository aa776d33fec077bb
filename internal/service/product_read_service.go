package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"dealradar-backend/internal/domain/catalog"
	apperrors "dealradar-backend/internal/errors"
	"dealradar-backend/internal/repository"
)

// ProductReadService serves product, search and popularity reads through
// the cache, falling back to the system of record on a miss. Concurrent
// misses on one key each hit the repository and each populate the cache;
// the writes are idempotent (same value either way), so no single-flight
// de-duplication is attempted.
//
// The error contract is asymmetric: the cache may fail softly (handled
// inside CacheService), the system of record may not: repository faults
// propagate to the caller.
type ProductReadService struct {
	cache    *CacheService
	products repository.ProductRepository
	offers   repository.OfferRepository
	prices   *PriceHistoryService
	logger   *zap.Logger
}

// NewProductReadService creates the read-through service.
func NewProductReadService(
	cache *CacheService,
	products repository.ProductRepository,
	offers repository.OfferRepository,
	prices *PriceHistoryService,
	logger *zap.Logger,
) *ProductReadService {
	return &ProductReadService{cache: cache, products: products, offers: offers, prices: prices, logger: logger}
}

// GetProductWithOffers returns the product aggregate, cache-first when
// useCache is set. Every read, hit or repopulated miss, increments the
// product's view counter, so popularity reflects all reads. A not-found
// result is returned as a typed error and is never cached.
func (s *ProductReadService) GetProductWithOffers(ctx context.Context, productID string, useCache bool) (*catalog.ProductWithOffers, error) {
	if useCache {
		var cached catalog.ProductWithOffers
		if s.cache.CachedProduct(ctx, productID, &cached) {
			s.cache.IncrementView(ctx, productID)
			return &cached, nil
		}
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	offers, err := s.offers.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	aggregate := &catalog.ProductWithOffers{Product: *product, Offers: offers}
	if useCache {
		s.cache.CacheProduct(ctx, productID, aggregate)
		s.cache.IncrementView(ctx, productID)
	}
	return aggregate, nil
}

// SearchProducts runs a product search through the search-results cache.
// Only non-empty result sets are cached, so a temporarily empty index
// cannot poison the cache for its TTL.
func (s *ProductReadService) SearchProducts(ctx context.Context, query string, filters map[string]string, useCache bool) ([]catalog.Product, error) {
	if useCache {
		var cached []catalog.Product
		if s.cache.CachedSearchResults(ctx, query, filters, &cached) {
			s.logger.Debug("search cache hit", zap.String("query", query))
			return cached, nil
		}
	}

	results, err := s.products.Search(ctx, searchFromFilters(query, filters))
	if err != nil {
		return nil, err
	}

	if useCache && len(results) > 0 {
		s.cache.CacheSearchResults(ctx, query, filters, results)
		s.logger.Debug("search results cached",
			zap.String("query", query),
			zap.Int("count", len(results)),
		)
	}
	return results, nil
}

// GetProductOffers returns just the product's offer list, reading
// through the offers cache namespace. The product must exist; its
// offers are cached even when the list is empty.
func (s *ProductReadService) GetProductOffers(ctx context.Context, productID string, useCache bool) ([]catalog.Offer, error) {
	if useCache {
		var cached []catalog.Offer
		if s.cache.CachedProductOffers(ctx, productID, &cached) {
			return cached, nil
		}
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	offers, err := s.offers.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if useCache {
		s.cache.CacheProductOffers(ctx, productID, offers)
	}
	return offers, nil
}

// GetPriceHistory returns the offer's computed price history, reading
// through the price-history cache. The cache key carries only the offer
// id: within the TTL a repeat request with a different window is served
// the cached one.
func (s *ProductReadService) GetPriceHistory(ctx context.Context, offerID string, days int, useCache bool) (*catalog.PriceHistory, error) {
	// A non-positive window never consults the cache; the underlying
	// service rejects it.
	if useCache && days > 0 {
		var cached catalog.PriceHistory
		if s.cache.CachedPriceHistory(ctx, offerID, &cached) {
			return &cached, nil
		}
	}

	history, err := s.prices.GetPriceHistory(ctx, offerID, days)
	if err != nil {
		return nil, err
	}
	if useCache {
		s.cache.CachePriceHistory(ctx, offerID, history)
	}
	return history, nil
}

// PopularProducts resolves the top-viewed entity ids through the
// cache-first product read. Entities whose lookup fails are skipped, so
// limit is an upper bound, not a guarantee.
func (s *ProductReadService) PopularProducts(ctx context.Context, limit int) ([]catalog.ProductWithOffers, error) {
	ids := s.cache.PopularProducts(ctx, limit)

	products := make([]catalog.ProductWithOffers, 0, len(ids))
	for _, id := range ids {
		aggregate, err := s.GetProductWithOffers(ctx, id, true)
		if err != nil {
			if !apperrors.IsNotFound(err) {
				s.logger.Warn("skipping popular product",
					zap.String("product_id", id),
					zap.Error(err),
				)
			}
			continue
		}
		products = append(products, *aggregate)
	}
	return products, nil
}

// InvalidateProductCache drops the product's cache entry plus the derived
// search and offers entries.
func (s *ProductReadService) InvalidateProductCache(ctx context.Context, productID string) {
	s.cache.InvalidateProduct(ctx, productID)
	s.logger.Info("product cache invalidated", zap.String("product_id", productID))
}

// WarmCache refreshes the cache entries for the given products. Each id
// is read fresh from the system of record and the result written over
// whatever sits under the key, so a stale entry cannot survive a warm.
// Per-item failures are logged and do not abort the batch.
func (s *ProductReadService) WarmCache(ctx context.Context, productIDs []string) {
	s.logger.Info("cache warming started", zap.Int("count", len(productIDs)))

	for _, id := range productIDs {
		aggregate, err := s.GetProductWithOffers(ctx, id, false)
		if err != nil {
			s.logger.Warn("cache warm failed", zap.String("product_id", id), zap.Error(err))
			continue
		}
		s.cache.CacheProduct(ctx, id, aggregate)
		s.logger.Debug("cache warmed", zap.String("product_id", id))
	}

	s.logger.Info("cache warming completed")
}

// CacheStats exposes the cache key counts for the admin surface.
func (s *ProductReadService) CacheStats(ctx context.Context) Stats {
	return s.cache.CacheStats(ctx)
}

// searchFromFilters maps the free-form filter map onto the repository
// query. Unknown filter keys still participate in the cache key but do
// not reach the repository.
func searchFromFilters(query string, filters map[string]string) repository.ProductSearch {
	search := repository.ProductSearch{Text: query, Limit: 20}
	if v, ok := filters["brand"]; ok {
		search.Brand = v
	}
	if v, ok := filters["category"]; ok {
		search.Category = v
	}
	if v, ok := filters["min_price"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			search.MinPrice = parsed
		}
	}
	if v, ok := filters["max_price"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			search.MaxPrice = parsed
		}
	}
	if v, ok := filters["limit"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			search.Limit = parsed
		}
	}
	return search
}
