// Package mocks provides in-memory repository implementations with call
// counters, used by service tests to observe how often the system of
// record is hit behind the cache.
package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"dealradar-backend/internal/domain/catalog"
	apperrors "dealradar-backend/internal/errors"
	"dealradar-backend/internal/repository"
)

// ProductRepository is an in-memory repository.ProductRepository.
type ProductRepository struct {
	mu          sync.Mutex
	products    map[string]catalog.Product
	FindCalls   int
	SearchCalls int

	// FailFind forces FindByID to return an internal error, simulating a
	// system-of-record outage.
	FailFind bool
}

// NewProductRepository creates an empty in-memory product repository.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[string]catalog.Product)}
}

// Seed stores a product without counting the call.
func (r *ProductRepository) Seed(product catalog.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = product
}

func (r *ProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FindCalls++
	if r.FailFind {
		return nil, apperrors.Internal("DB_DOWN", "system of record unavailable")
	}
	product, ok := r.products[id]
	if !ok {
		return nil, apperrors.NotFound("PRODUCT_NOT_FOUND", "product not found").WithResource("product")
	}
	return &product, nil
}

func (r *ProductRepository) Search(ctx context.Context, query repository.ProductSearch) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SearchCalls++

	var results []catalog.Product
	for _, product := range r.products {
		if query.Text != "" &&
			!strings.Contains(strings.ToLower(product.Title), strings.ToLower(query.Text)) &&
			!strings.Contains(strings.ToLower(product.Brand), strings.ToLower(query.Text)) {
			continue
		}
		if query.Brand != "" && !strings.EqualFold(product.Brand, query.Brand) {
			continue
		}
		if query.Category != "" && !strings.EqualFold(product.Category, query.Category) {
			continue
		}
		results = append(results, product)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	return results, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; !ok {
		return apperrors.NotFound("PRODUCT_NOT_FOUND", "product not found").WithResource("product")
	}
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// OfferRepository is an in-memory repository.OfferRepository.
type OfferRepository struct {
	mu          sync.Mutex
	offers      map[string]catalog.Offer
	FindCalls   int
	UpsertCalls int
}

// NewOfferRepository creates an empty in-memory offer repository.
func NewOfferRepository() *OfferRepository {
	return &OfferRepository{offers: make(map[string]catalog.Offer)}
}

// Seed stores an offer without counting the call.
func (r *OfferRepository) Seed(offer catalog.Offer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offers[offer.ID] = offer
}

// Get returns the stored offer, for assertions.
func (r *OfferRepository) Get(id string) (catalog.Offer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	offer, ok := r.offers[id]
	return offer, ok
}

func (r *OfferRepository) Upsert(ctx context.Context, offer *catalog.Offer) (*catalog.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UpsertCalls++

	now := time.Now()
	for id, existing := range r.offers {
		if existing.SellerSite == offer.SellerSite && existing.SellerSiteID == offer.SellerSiteID {
			updated := *offer
			updated.ID = id
			updated.CreatedAt = existing.CreatedAt
			updated.LastCheckedAt = now
			updated.UpdatedAt = now
			r.offers[id] = updated
			return &updated, nil
		}
	}
	created := *offer
	created.CreatedAt = now
	created.UpdatedAt = now
	created.LastCheckedAt = now
	r.offers[created.ID] = created
	return &created, nil
}

func (r *OfferRepository) FindByID(ctx context.Context, id string) (*catalog.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FindCalls++
	offer, ok := r.offers[id]
	if !ok {
		return nil, apperrors.NotFound("OFFER_NOT_FOUND", "offer not found").WithResource("offer")
	}
	return &offer, nil
}

func (r *OfferRepository) FindBySiteKey(ctx context.Context, site, siteID string) (*catalog.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, offer := range r.offers {
		if offer.SellerSite == site && offer.SellerSiteID == siteID {
			return &offer, nil
		}
	}
	return nil, apperrors.NotFound("OFFER_NOT_FOUND", "offer not found").WithResource("offer")
}

func (r *OfferRepository) FindByProduct(ctx context.Context, productID string) ([]catalog.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var offers []catalog.Offer
	for _, offer := range r.offers {
		if offer.ProductID == productID {
			offers = append(offers, offer)
		}
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].ID < offers[j].ID })
	return offers, nil
}

func (r *OfferRepository) UpdatePrice(ctx context.Context, offerID string, price float64, checkedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	offer, ok := r.offers[offerID]
	if !ok {
		return apperrors.NotFound("OFFER_NOT_FOUND", "offer not found").WithResource("offer")
	}
	offer.CurrentPrice = price
	offer.LastCheckedAt = checkedAt
	offer.UpdatedAt = checkedAt
	r.offers[offerID] = offer
	return nil
}

func (r *OfferRepository) Touch(ctx context.Context, offerID string, checkedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	offer, ok := r.offers[offerID]
	if !ok {
		return apperrors.NotFound("OFFER_NOT_FOUND", "offer not found").WithResource("offer")
	}
	offer.LastCheckedAt = checkedAt
	r.offers[offerID] = offer
	return nil
}

// SnapshotRepository is an in-memory repository.SnapshotRepository.
// Observations for market trends are derived from the seeded offers of a
// companion OfferRepository.
type SnapshotRepository struct {
	mu        sync.Mutex
	snapshots []catalog.PriceSnapshot
	offers    *OfferRepository
	nextID    int64
	// Categories maps offer id to product category for FindSince filtering.
	Categories map[string]string
}

// NewSnapshotRepository creates an empty snapshot repository. offers may
// be nil when market trends are not under test.
func NewSnapshotRepository(offers *OfferRepository) *SnapshotRepository {
	return &SnapshotRepository{offers: offers, Categories: make(map[string]string)}
}

// Seed appends a snapshot without counting, assigning ids in order.
func (r *SnapshotRepository) Seed(snapshot catalog.PriceSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	snapshot.ID = r.nextID
	r.snapshots = append(r.snapshots, snapshot)
}

// Count returns how many snapshots exist for the offer.
func (r *SnapshotRepository) Count(offerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.snapshots {
		if s.OfferID == offerID {
			n++
		}
	}
	return n
}

func (r *SnapshotRepository) Insert(ctx context.Context, snapshot *catalog.PriceSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	snapshot.ID = r.nextID
	r.snapshots = append(r.snapshots, *snapshot)
	return nil
}

func (r *SnapshotRepository) FindByOfferSince(ctx context.Context, offerID string, since time.Time) ([]catalog.PriceSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []catalog.PriceSnapshot
	for _, s := range r.snapshots {
		if s.OfferID == offerID && !s.Timestamp.Before(since) {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Timestamp.Before(result[j].Timestamp) })
	return result, nil
}

func (r *SnapshotRepository) FindSince(ctx context.Context, since time.Time, category string) ([]repository.OfferObservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []repository.OfferObservation
	for _, s := range r.snapshots {
		if s.Timestamp.Before(since) {
			continue
		}
		if category != "" {
			offerCategory := r.Categories[s.OfferID]
			if !strings.Contains(strings.ToLower(offerCategory), strings.ToLower(category)) {
				continue
			}
		}
		current := s.Price
		if r.offers != nil {
			if offer, ok := r.offers.Get(s.OfferID); ok {
				current = offer.CurrentPrice
			}
		}
		result = append(result, repository.OfferObservation{
			OfferID:      s.OfferID,
			CurrentPrice: current,
			Price:        s.Price,
			Timestamp:    s.Timestamp,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Timestamp.Before(result[j].Timestamp) })
	return result, nil
}
