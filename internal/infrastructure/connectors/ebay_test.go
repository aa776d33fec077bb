package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dealradar-backend/internal/config"
	apperrors "dealradar-backend/internal/errors"
)

func newEbayClient(baseURL string) *EbayClient {
	return NewEbayClient(config.EbayConfig{
		BaseURL: baseURL,
		Token:   "test-token",
		Timeout: 5 * time.Second,
	}, zap.NewNop())
}

func TestEbaySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/buy/browse/v1/item_summary/search", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "EBAY_US", r.Header.Get("X-EBAY-C-MARKETPLACE-ID"))
		assert.Equal(t, "laptop", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"total": 2,
			"limit": 5,
			"offset": 0,
			"itemSummaries": [
				{
					"itemId": "v1|123|0",
					"title": "Dell XPS 13",
					"price": {"value": "899.99", "currency": "USD"},
					"condition": "New",
					"itemWebUrl": "https://ebay.com/itm/123",
					"seller": {"username": "techdeals"},
					"categories": [{"categoryId": "177", "categoryName": "Laptops"}]
				},
				{
					"itemId": "v1|456|0",
					"title": "Broken Price",
					"price": {"value": "not-a-number", "currency": "USD"}
				}
			]
		}`))
	}))
	defer server.Close()

	client := newEbayClient(server.URL)
	result, err := client.Search(context.Background(), EbaySearchParams{Keywords: "laptop", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	require.Len(t, result.Items, 2)

	listings := client.Listings(result)
	require.Len(t, listings, 1) // unparseable price skipped
	assert.Equal(t, "v1|123|0", listings[0].SellerSiteID)
	assert.Equal(t, "ebay", listings[0].SellerSite)
	assert.Equal(t, 899.99, listings[0].Price)
	assert.Equal(t, "techdeals", listings[0].SellerName)
	assert.Equal(t, "Laptops", listings[0].Category)
}

func TestEbayItemNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newEbayClient(server.URL).Item(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestEbayServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newEbayClient(server.URL).Search(context.Background(), EbaySearchParams{Keywords: "laptop"})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
}

func TestEbayBreakerOpensAfterRepeatedFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newEbayClient(server.URL)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_, err := client.Search(ctx, EbaySearchParams{Keywords: "laptop"})
		require.Error(t, err)
	}

	// The breaker is now open: requests are rejected without reaching
	// the server, still surfaced as unavailability.
	_, err := client.Search(ctx, EbaySearchParams{Keywords: "laptop"})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
}
