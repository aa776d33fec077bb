package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"dealradar-backend/internal/config"
	apperrors "dealradar-backend/internal/errors"
	"dealradar-backend/internal/service"
)

// Marketplace identifies a scraper target.
type Marketplace string

const (
	MarketplaceAmazon Marketplace = "amazon"
	MarketplaceMyntra Marketplace = "myntra"
)

func (m Marketplace) currency() string {
	if m == MarketplaceMyntra {
		return "INR"
	}
	return "USD"
}

func (m Marketplace) displayName() string {
	if m == MarketplaceMyntra {
		return "Myntra"
	}
	return "Amazon"
}

// ScrapedProduct is one listing as emitted by the scraper sidecar. All
// numeric fields arrive as loosely formatted strings.
type ScrapedProduct struct {
	Title        string `json:"title"`
	Price        string `json:"price"`
	ImageURL     string `json:"image_url"`
	ProductURL   string `json:"product_url"`
	Rating       string `json:"rating"`
	ReviewsCount string `json:"reviews_count"`
}

// ScrapeResult is a scrape of one marketplace.
type ScrapeResult struct {
	Marketplace Marketplace
	Query       string
	Products    []ScrapedProduct
}

// ScraperClient calls the scraper sidecar service.
type ScraperClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewScraperClient creates a scraper sidecar client from configuration.
func NewScraperClient(cfg config.ScraperConfig, logger *zap.Logger) *ScraperClient {
	return &ScraperClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: newBreaker("scraper", logger),
		logger:  logger,
	}
}

// Search scrapes one marketplace for the query.
func (c *ScraperClient) Search(ctx context.Context, marketplace Marketplace, query string, limit int) (*ScrapeResult, error) {
	if limit <= 0 {
		limit = 20
	}

	endpoint := fmt.Sprintf("%s/scrape/%s?q=%s", c.baseURL, marketplace, url.QueryEscape(query))

	var products []ScrapedProduct
	_, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, apperrors.Internal("SCRAPER_REQUEST", "building scraper request failed").WithCause(err)
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, apperrors.Unavailable("SCRAPER_UNREACHABLE", "scraper service unreachable").WithCause(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, apperrors.Unavailable("SCRAPER_STATUS", fmt.Sprintf("scraper returned status %d", resp.StatusCode))
		}
		if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
			return nil, apperrors.Internal("SCRAPER_DECODE", "decoding scraper response failed").WithCause(err)
		}
		return nil, nil
	})
	if err != nil {
		return nil, breakerErr("scraper", err)
	}

	if len(products) > limit {
		products = products[:limit]
	}
	c.logger.Info("marketplace scraped",
		zap.String("marketplace", string(marketplace)),
		zap.String("query", query),
		zap.Int("products", len(products)),
	)
	return &ScrapeResult{Marketplace: marketplace, Query: query, Products: products}, nil
}

// SearchAll scrapes every marketplace for the query. A failing
// marketplace contributes nothing instead of failing the whole search;
// an error is returned only when every marketplace failed.
func (c *ScraperClient) SearchAll(ctx context.Context, query string, limit int) ([]ScrapeResult, error) {
	marketplaces := []Marketplace{MarketplaceAmazon, MarketplaceMyntra}
	perSite := (limit + len(marketplaces) - 1) / len(marketplaces)

	results := make([]ScrapeResult, 0, len(marketplaces))
	var lastErr error
	for _, marketplace := range marketplaces {
		result, err := c.Search(ctx, marketplace, query, perSite)
		if err != nil {
			lastErr = err
			c.logger.Warn("marketplace scrape failed",
				zap.String("marketplace", string(marketplace)),
				zap.Error(err),
			)
			continue
		}
		results = append(results, *result)
	}
	if len(results) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return results, nil
}

// Listings converts a scrape into normalized marketplace listings. The
// scraped product URL doubles as the stable per-site listing id.
func (c *ScraperClient) Listings(result *ScrapeResult) []service.ListingItem {
	items := make([]service.ListingItem, 0, len(result.Products))
	for _, product := range result.Products {
		price, ok := parsePrice(product.Price)
		if !ok {
			c.logger.Warn("skipping scraped product with unparseable price",
				zap.String("title", product.Title),
				zap.String("price", product.Price),
			)
			continue
		}

		item := service.ListingItem{
			Title:        product.Title,
			Price:        price,
			Currency:     result.Marketplace.currency(),
			URL:          product.ProductURL,
			ImageURL:     product.ImageURL,
			SellerName:   result.Marketplace.displayName(),
			SellerSite:   "scraper-" + string(result.Marketplace),
			SellerSiteID: product.ProductURL,
			Condition:    "New",
			ReviewCount:  parseReviews(product.ReviewsCount),
		}
		if rating, ok := parseRating(product.Rating); ok {
			item.Rating = &rating
		}
		items = append(items, item)
	}
	return items
}

var (
	priceDigits  = regexp.MustCompile(`[^\d.]`)
	ratingNumber = regexp.MustCompile(`\d+\.?\d*`)
)

func parsePrice(raw string) (float64, bool) {
	cleaned := priceDigits.ReplaceAllString(raw, "")
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}

// parseRating extracts the leading number from strings like
// "4.2 out of 5 stars" and clamps it to the 0..5 scale.
func parseRating(raw string) (float64, bool) {
	match := ratingNumber.FindString(raw)
	if match == "" {
		return 0, false
	}
	rating, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return rating, true
}

func parseReviews(raw string) int {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	count, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return count
}
