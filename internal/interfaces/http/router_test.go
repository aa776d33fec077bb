package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dealradar-backend/internal/config"
	"dealradar-backend/internal/domain/catalog"
	"dealradar-backend/internal/infrastructure/cache"
	"dealradar-backend/internal/infrastructure/connectors"
	"dealradar-backend/internal/repository/mocks"
	"dealradar-backend/internal/service"
)

type routerFixture struct {
	router    http.Handler
	products  *mocks.ProductRepository
	offers    *mocks.OfferRepository
	snapshots *mocks.SnapshotRepository
	store     *cache.MemoryStore
}

func newRouterFixture(t *testing.T, upstream string) *routerFixture {
	t.Helper()
	logger := zap.NewNop()
	store := cache.NewMemoryStore()
	products := mocks.NewProductRepository()
	offers := mocks.NewOfferRepository()
	snapshots := mocks.NewSnapshotRepository(offers)

	ttl := config.CacheConfig{
		DefaultTTL:      time.Hour,
		ProductTTL:      time.Hour,
		SearchTTL:       time.Hour,
		OffersTTL:       time.Hour,
		PriceHistoryTTL: time.Hour,
		ViewCounterTTL:  24 * time.Hour,
	}
	cacheSvc := service.NewCacheService(store, ttl, logger, nil)
	prices := service.NewPriceHistoryService(offers, snapshots, logger, nil)
	reads := service.NewProductReadService(cacheSvc, products, offers, prices, logger)
	ingest := service.NewIngestionService(products, offers, prices, cacheSvc, logger)

	ebay := connectors.NewEbayClient(config.EbayConfig{BaseURL: upstream, Token: "t", Timeout: 2 * time.Second}, logger)
	scraper := connectors.NewScraperClient(config.ScraperConfig{BaseURL: upstream, Timeout: 2 * time.Second}, logger)

	handlers := NewHandlers(reads, prices, ingest, ebay, scraper, store, nil, logger)
	cfg := &config.Config{EnableMetrics: false, EnableCORS: true}

	return &routerFixture{
		router:    NewRouter(handlers, cfg),
		products:  products,
		offers:    offers,
		snapshots: snapshots,
		store:     store,
	}
}

func (f *routerFixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func seedCatalog(f *routerFixture) {
	f.products.Seed(catalog.Product{ID: "p1", Title: "Dell XPS 13", Brand: "Dell", Category: "Laptops"})
	f.offers.Seed(catalog.Offer{
		ID: "o1", ProductID: "p1", SellerName: "TechStore", SellerSite: "ebay",
		SellerSiteID: "e1", CurrentPrice: 999.99, Currency: "USD",
	})
}

func TestGetProductEndpoint(t *testing.T) {
	f := newRouterFixture(t, "http://unused")
	seedCatalog(f)

	rec := f.do(t, http.MethodGet, "/api/v1/products/p1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body catalog.ProductWithOffers
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Dell XPS 13", body.Product.Title)
	require.Len(t, body.Offers, 1)
	assert.Equal(t, 999.99, body.Offers[0].CurrentPrice)

	// Second request is a cache hit: the repository is not consulted again.
	f.do(t, http.MethodGet, "/api/v1/products/p1", "")
	assert.Equal(t, 1, f.products.FindCalls)
}

func TestGetProductNotFound(t *testing.T) {
	f := newRouterFixture(t, "http://unused")

	rec := f.do(t, http.MethodGet, "/api/v1/products/ghost", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "PRODUCT_NOT_FOUND", body["code"])
}

func TestGetProductCacheOptOut(t *testing.T) {
	f := newRouterFixture(t, "http://unused")
	seedCatalog(f)

	f.do(t, http.MethodGet, "/api/v1/products/p1?cache=false", "")
	f.do(t, http.MethodGet, "/api/v1/products/p1?cache=false", "")
	assert.Equal(t, 2, f.products.FindCalls)
}

func TestSearchEndpoint(t *testing.T) {
	f := newRouterFixture(t, "http://unused")
	seedCatalog(f)

	rec := f.do(t, http.MethodGet, "/api/v1/products/search?q=xps&brand=Dell", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count   int               `json:"count"`
		Results []catalog.Product `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
}

func TestRepositoryFailureMapsTo500(t *testing.T) {
	f := newRouterFixture(t, "http://unused")
	f.products.FailFind = true

	rec := f.do(t, http.MethodGet, "/api/v1/products/p1", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal error")
	assert.NotContains(t, rec.Body.String(), "system of record")
}

func TestInvalidateEndpoint(t *testing.T) {
	f := newRouterFixture(t, "http://unused")
	seedCatalog(f)

	f.do(t, http.MethodGet, "/api/v1/products/p1", "")
	assert.Equal(t, 1, f.products.FindCalls)

	rec := f.do(t, http.MethodPost, "/api/v1/products/p1/invalidate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	f.do(t, http.MethodGet, "/api/v1/products/p1", "")
	assert.Equal(t, 2, f.products.FindCalls)
}

func TestWarmEndpointValidation(t *testing.T) {
	f := newRouterFixture(t, "http://unused")

	rec := f.do(t, http.MethodPost, "/api/v1/cache/warm", `{"product_ids": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/cache/warm", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWarmEndpoint(t *testing.T) {
	f := newRouterFixture(t, "http://unused")
	seedCatalog(f)

	rec := f.do(t, http.MethodPost, "/api/v1/cache/warm", `{"product_ids": ["p1"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	// The warmed entry now serves reads without touching the repository.
	calls := f.products.FindCalls
	f.do(t, http.MethodGet, "/api/v1/products/p1", "")
	assert.Equal(t, calls, f.products.FindCalls)
}

func TestOfferHistoryEndpoint(t *testing.T) {
	f := newRouterFixture(t, "http://unused")
	seedCatalog(f)
	f.snapshots.Seed(catalog.PriceSnapshot{
		OfferID: "o1", Timestamp: time.Now().AddDate(0, 0, -5), Price: 1099.99, Currency: "USD",
	})

	rec := f.do(t, http.MethodGet, "/api/v1/offers/o1/history?days=30", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body catalog.PriceHistory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 999.99, body.CurrentPrice)
	require.Len(t, body.History, 1)

	// Second request is a cache hit: the offer is not looked up again.
	findCalls := f.offers.FindCalls
	rec = f.do(t, http.MethodGet, "/api/v1/offers/o1/history?days=30", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, findCalls, f.offers.FindCalls)

	rec = f.do(t, http.MethodGet, "/api/v1/offers/o1/history?days=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/offers/ghost/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductOffersEndpoint(t *testing.T) {
	f := newRouterFixture(t, "http://unused")
	seedCatalog(f)

	rec := f.do(t, http.MethodGet, "/api/v1/products/p1/offers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []catalog.Offer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, 999.99, body[0].CurrentPrice)

	// Second request is a cache hit: the product is not looked up again.
	findCalls := f.products.FindCalls
	rec = f.do(t, http.MethodGet, "/api/v1/products/p1/offers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, findCalls, f.products.FindCalls)

	rec = f.do(t, http.MethodGet, "/api/v1/products/ghost/offers", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkPricesEndpoint(t *testing.T) {
	f := newRouterFixture(t, "http://unused")
	seedCatalog(f)

	rec := f.do(t, http.MethodPost, "/api/v1/prices/bulk",
		`{"updates": [{"id": "o1", "price": 899.99, "currency": "USD"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result service.BulkResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, f.snapshots.Count("o1"))
}

func TestBulkPricesEndpointValidation(t *testing.T) {
	f := newRouterFixture(t, "http://unused")

	rec := f.do(t, http.MethodPost, "/api/v1/prices/bulk", `{"updates": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/prices/bulk",
		`{"updates": [{"id": "", "price": -5}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndReady(t *testing.T) {
	f := newRouterFixture(t, "http://unused")

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/ready", "").Code)
}

func TestEbayIngestEndpoint(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"total": 1,
			"itemSummaries": [{
				"itemId": "v1|777|0",
				"title": "Lenovo ThinkPad X1",
				"price": {"value": "1299.00", "currency": "USD"},
				"condition": "New",
				"itemWebUrl": "https://ebay.com/itm/777"
			}]
		}`))
	}))
	defer upstream.Close()

	f := newRouterFixture(t, upstream.URL)

	rec := f.do(t, http.MethodPost, "/api/v1/connectors/ebay/ingest?q=thinkpad", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Ingested service.BulkResult `json:"ingested"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Ingested.Updated)

	offer, err := f.offers.FindBySiteKey(context.Background(), "ebay", "v1|777|0")
	require.NoError(t, err)
	assert.Equal(t, 1299.00, offer.CurrentPrice)

	// Missing query is a validation error.
	rec = f.do(t, http.MethodPost, "/api/v1/connectors/ebay/ingest", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEbayIngestUpstreamDownMapsTo503(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	f := newRouterFixture(t, upstream.URL)
	rec := f.do(t, http.MethodPost, "/api/v1/connectors/ebay/ingest?q=laptop", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
