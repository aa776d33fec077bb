package catalog

import (
	"math"
	"time"
)

// Trend classifies a price movement over a window.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// trendBand is the percent change beyond which a movement stops counting
// as stable. Matched by market-trend bucketing, which uses the same band.
const trendBand = 2.0

// ClassifyTrend buckets an overall percent change into up/down/stable.
func ClassifyTrend(changePercent float64) Trend {
	switch {
	case changePercent > trendBand:
		return TrendUp
	case changePercent < -trendBand:
		return TrendDown
	default:
		return TrendStable
	}
}

// Round2 rounds a value to two decimals for display. Snapshot-worthiness
// comparisons use the raw value with an epsilon, never this rounding.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PricePoint is one entry of a computed price history series.
type PricePoint struct {
	Timestamp     time.Time `json:"timestamp"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"change_percent"`
}

// PriceStats summarizes a price history window.
type PriceStats struct {
	MinPrice          float64 `json:"min_price"`
	MaxPrice          float64 `json:"max_price"`
	AvgPrice          float64 `json:"avg_price"`
	PriceTrend        Trend   `json:"price_trend"`
	LastChangePercent float64 `json:"last_change_percent"`
}

// PriceHistory is the computed series and stats for a single offer.
type PriceHistory struct {
	OfferID      string       `json:"offer_id"`
	CurrentPrice float64      `json:"current_price"`
	History      []PricePoint `json:"price_history"`
	Stats        PriceStats   `json:"price_stats"`
}

// OfferPriceHistory is an offer's history annotated with seller identity,
// as returned by product-level aggregation.
type OfferPriceHistory struct {
	PriceHistory
	SellerName string `json:"seller_name"`
	SellerSite string `json:"seller_site"`
}

// BestPrice pairs the lowest current offer price with the lowest price
// observed anywhere in the window.
type BestPrice struct {
	Current    float64 `json:"current"`
	Historical float64 `json:"historical"`
}

// ProductPriceHistory aggregates per-offer histories for a product.
type ProductPriceHistory struct {
	ProductID string              `json:"product_id"`
	Offers    []OfferPriceHistory `json:"offers_with_history"`
	BestPrice BestPrice           `json:"best_price"`
}

// TrendBuckets counts offers by price direction over a window.
type TrendBuckets struct {
	Increasing int `json:"increasing"`
	Decreasing int `json:"decreasing"`
	Stable     int `json:"stable"`
}

// MarketTrends reports market-wide price movement, optionally scoped to a
// category.
type MarketTrends struct {
	Category       string       `json:"category,omitempty"`
	TotalOffers    int          `json:"total_products"`
	Trends         TrendBuckets `json:"price_trends"`
	AvgPriceChange float64      `json:"avg_price_change"`
}
