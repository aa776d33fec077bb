// Package repository defines the persistence interfaces for the catalog.
// The relational store behind these interfaces is the system of record:
// repository faults always propagate to callers, unlike cache faults,
// which the caching layer degrades to misses.
package repository

import (
	"context"
	"time"

	"dealradar-backend/internal/domain/catalog"
)

// ProductSearch carries the search filters and pagination for product
// queries.
type ProductSearch struct {
	Text     string
	Category string
	Brand    string
	MinPrice float64
	MaxPrice float64
	Limit    int
	Offset   int
}

// ProductRepository persists canonical products.
type ProductRepository interface {
	Create(ctx context.Context, product *catalog.Product) error
	FindByID(ctx context.Context, id string) (*catalog.Product, error)
	Search(ctx context.Context, query ProductSearch) ([]catalog.Product, error)
	Update(ctx context.Context, product *catalog.Product) error
}

// OfferRepository persists seller offers. Upsert is keyed on the unique
// (seller_site, seller_site_id) pair so repeated ingestion of the same
// listing never duplicates an offer.
type OfferRepository interface {
	Upsert(ctx context.Context, offer *catalog.Offer) (*catalog.Offer, error)
	FindByID(ctx context.Context, id string) (*catalog.Offer, error)
	FindBySiteKey(ctx context.Context, site, siteID string) (*catalog.Offer, error)
	FindByProduct(ctx context.Context, productID string) ([]catalog.Offer, error)
	UpdatePrice(ctx context.Context, offerID string, price float64, checkedAt time.Time) error
	Touch(ctx context.Context, offerID string, checkedAt time.Time) error
}

// OfferObservation is one snapshot row joined with its offer's current
// price, as consumed by market-trend aggregation.
type OfferObservation struct {
	OfferID      string
	CurrentPrice float64
	Price        float64
	Timestamp    time.Time
}

// SnapshotRepository persists the append-only price series.
type SnapshotRepository interface {
	Insert(ctx context.Context, snapshot *catalog.PriceSnapshot) error
	FindByOfferSince(ctx context.Context, offerID string, since time.Time) ([]catalog.PriceSnapshot, error)
	// FindSince returns observations in ascending time order across all
	// offers, optionally filtered by a category substring match.
	FindSince(ctx context.Context, since time.Time, category string) ([]OfferObservation, error)
}
