package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"dealradar-backend/internal/config"
	apperrors "dealradar-backend/internal/errors"
	"dealradar-backend/internal/service"
)

// EbaySearchParams selects what to search on the Browse API.
type EbaySearchParams struct {
	Keywords   string
	CategoryID string
	Limit      int
	Offset     int
}

// EbayPrice is the Browse API price shape: the value arrives as a string.
type EbayPrice struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// EbayItem is one Browse API item summary.
type EbayItem struct {
	ItemID     string    `json:"itemId"`
	Title      string    `json:"title"`
	Price      EbayPrice `json:"price"`
	Condition  string    `json:"condition"`
	ItemWebURL string    `json:"itemWebUrl"`
	Image      struct {
		ImageURL string `json:"imageUrl"`
	} `json:"image"`
	Seller struct {
		Username           string `json:"username"`
		FeedbackPercentage string `json:"feedbackPercentage"`
	} `json:"seller"`
	Categories []struct {
		CategoryID   string `json:"categoryId"`
		CategoryName string `json:"categoryName"`
	} `json:"categories"`
}

// EbaySearchResult is the Browse API item_summary/search response.
type EbaySearchResult struct {
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
	Items  []EbayItem `json:"itemSummaries"`
}

// EbayClient calls the eBay Browse API.
type EbayClient struct {
	baseURL string
	token   string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewEbayClient creates an eBay Browse API client from configuration.
func NewEbayClient(cfg config.EbayConfig, logger *zap.Logger) *EbayClient {
	return &EbayClient{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: newBreaker("ebay", logger),
		logger:  logger,
	}
}

// Search runs an item summary search. Fixed-price listings only.
func (c *EbayClient) Search(ctx context.Context, params EbaySearchParams) (*EbaySearchResult, error) {
	if params.Limit <= 0 {
		params.Limit = 10
	}

	query := url.Values{}
	if params.Keywords != "" {
		query.Set("q", params.Keywords)
	}
	if params.CategoryID != "" {
		query.Set("category_ids", params.CategoryID)
	}
	query.Set("limit", strconv.Itoa(params.Limit))
	query.Set("offset", strconv.Itoa(params.Offset))
	query.Add("filter", "buyingOptions:{FIXED_PRICE}")

	var result EbaySearchResult
	endpoint := c.baseURL + "/buy/browse/v1/item_summary/search?" + query.Encode()
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	c.logger.Info("ebay search completed",
		zap.String("keywords", params.Keywords),
		zap.Int("total", result.Total),
		zap.Int("items", len(result.Items)),
	)
	return &result, nil
}

// Item fetches one item's details by Browse API item id.
func (c *EbayClient) Item(ctx context.Context, itemID string) (*EbayItem, error) {
	var item EbayItem
	endpoint := c.baseURL + "/buy/browse/v1/item/" + url.PathEscape(itemID)
	if err := c.getJSON(ctx, endpoint, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *EbayClient) getJSON(ctx context.Context, endpoint string, dest any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, apperrors.Internal("EBAY_REQUEST", "building ebay request failed").WithCause(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-EBAY-C-MARKETPLACE-ID", "EBAY_US")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, apperrors.Unavailable("EBAY_UNREACHABLE", "ebay api unreachable").WithCause(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, apperrors.NotFound("EBAY_ITEM_NOT_FOUND", "ebay item not found").WithResource("ebay_item")
		}
		if resp.StatusCode != http.StatusOK {
			return nil, apperrors.Unavailable("EBAY_STATUS", fmt.Sprintf("ebay api returned status %d", resp.StatusCode))
		}
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return nil, apperrors.Internal("EBAY_DECODE", "decoding ebay response failed").WithCause(err)
		}
		return nil, nil
	})
	return breakerErr("ebay", err)
}

// Listings converts search results into normalized marketplace listings.
// Items whose price does not parse are skipped.
func (c *EbayClient) Listings(result *EbaySearchResult) []service.ListingItem {
	items := make([]service.ListingItem, 0, len(result.Items))
	for _, item := range result.Items {
		price, err := strconv.ParseFloat(item.Price.Value, 64)
		if err != nil {
			c.logger.Warn("skipping ebay item with unparseable price",
				zap.String("item_id", item.ItemID),
				zap.String("price", item.Price.Value),
			)
			continue
		}

		category := ""
		if len(item.Categories) > 0 {
			category = item.Categories[0].CategoryName
		}
		sellerName := item.Seller.Username
		if sellerName == "" {
			sellerName = "eBay Seller"
		}

		items = append(items, service.ListingItem{
			Title:        item.Title,
			Price:        price,
			Currency:     item.Price.Currency,
			URL:          item.ItemWebURL,
			ImageURL:     item.Image.ImageURL,
			SellerName:   sellerName,
			SellerSite:   "ebay",
			SellerSiteID: item.ItemID,
			Condition:    item.Condition,
			Category:     category,
		})
	}
	return items
}
