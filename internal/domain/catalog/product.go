// Package catalog defines the canonical product model: deduplicated
// products, per-seller offers and the append-only price snapshot series.
package catalog

import "time"

// Product is the canonical, deduplicated representation of an item that
// may be listed by multiple sellers. The relational store owns products;
// cache entries hold read-only copies keyed by id.
type Product struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Brand       string         `json:"brand,omitempty"`
	Attributes  map[string]any `json:"attributes"`
	Description string         `json:"canonical_description,omitempty"`
	Images      []string       `json:"images"`
	Category    string         `json:"category,omitempty"`
	AvgRating   *float64       `json:"avg_rating,omitempty"`
	ReviewCount int            `json:"review_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ProductWithOffers is the aggregate served by product reads.
type ProductWithOffers struct {
	Product Product `json:"product"`
	Offers  []Offer `json:"offers"`
}
