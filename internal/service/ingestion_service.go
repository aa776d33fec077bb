package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dealradar-backend/internal/domain/catalog"
	apperrors "dealradar-backend/internal/errors"
	"dealradar-backend/internal/repository"
)

// commonBrands are recognized in listing titles during normalization.
var commonBrands = []string{
	"Apple", "Samsung", "Dell", "HP", "Lenovo", "ASUS", "Acer", "MSI",
	"Microsoft", "Google", "Sony", "LG",
}

// tagKeywords become product attribute tags when present in the title.
var tagKeywords = []string{
	"laptop", "desktop", "tablet", "phone", "computer",
	"gaming", "business", "new", "used", "refurbished",
}

const maxTitleLength = 200

// ListingItem is a normalized marketplace listing as produced by the
// connectors.
type ListingItem struct {
	Title        string
	Price        float64
	Currency     string
	URL          string
	ImageURL     string
	SellerName   string
	SellerSite   string
	SellerSiteID string
	Condition    string
	Rating       *float64
	ReviewCount  int
	Category     string
	Availability catalog.Availability
}

// IngestionService turns marketplace listings into canonical products and
// offers. A listing whose (seller_site, seller_site_id) key is already
// known becomes a price observation on the existing offer; a new listing
// creates a product and its first offer.
type IngestionService struct {
	products repository.ProductRepository
	offers   repository.OfferRepository
	prices   *PriceHistoryService
	cache    *CacheService
	logger   *zap.Logger
}

// NewIngestionService creates the ingestion service.
func NewIngestionService(
	products repository.ProductRepository,
	offers repository.OfferRepository,
	prices *PriceHistoryService,
	cache *CacheService,
	logger *zap.Logger,
) *IngestionService {
	return &IngestionService{products: products, offers: offers, prices: prices, cache: cache, logger: logger}
}

// IngestListings processes each listing independently: one item's failure
// is counted and logged but never aborts the batch.
func (s *IngestionService) IngestListings(ctx context.Context, items []ListingItem) BulkResult {
	var result BulkResult
	for _, item := range items {
		if err := s.ingestOne(ctx, item); err != nil {
			result.Errors++
			s.logger.Error("listing ingestion failed",
				zap.String("seller_site", item.SellerSite),
				zap.String("seller_site_id", item.SellerSiteID),
				zap.Error(err),
			)
			continue
		}
		result.Updated++
	}
	s.logger.Info("listing ingestion completed",
		zap.Int("updated", result.Updated),
		zap.Int("errors", result.Errors),
		zap.Int("total", len(items)),
	)
	return result
}

func (s *IngestionService) ingestOne(ctx context.Context, item ListingItem) error {
	if item.SellerSite == "" || item.SellerSiteID == "" {
		return apperrors.Validation("LISTING_KEY_MISSING", "listing needs a seller site and site id")
	}

	existing, err := s.offers.FindBySiteKey(ctx, item.SellerSite, item.SellerSiteID)
	if err != nil && !apperrors.IsNotFound(err) {
		return err
	}

	if existing != nil {
		// Known listing: treat as a fresh price observation and scrub the
		// cached aggregate it feeds.
		if err := s.prices.RecordPriceSnapshot(ctx, existing.ID, item.Price, item.Currency); err != nil {
			return err
		}
		s.cache.InvalidateProduct(ctx, existing.ProductID)
		return nil
	}

	product := s.buildProduct(item)
	if err := s.products.Create(ctx, product); err != nil {
		return err
	}

	offer := s.buildOffer(product.ID, item)
	if _, err := s.offers.Upsert(ctx, offer); err != nil {
		return err
	}

	s.logger.Info("product created from listing",
		zap.String("product_id", product.ID),
		zap.String("offer_id", offer.ID),
		zap.String("title", product.Title),
		zap.Float64("price", item.Price),
	)
	return nil
}

func (s *IngestionService) buildProduct(item ListingItem) *catalog.Product {
	title := item.Title
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength]
	}
	category := item.Category
	if category == "" {
		category = "Electronics"
	}

	var images []string
	if item.ImageURL != "" {
		images = []string{item.ImageURL}
	}

	return &catalog.Product{
		ID:          uuid.NewString(),
		Title:       title,
		Brand:       extractBrand(title),
		Description: title,
		Category:    category,
		Images:      images,
		Attributes: map[string]any{
			"condition": item.Condition,
			"source":    item.SellerSite,
			"tags":      extractTags(title),
		},
	}
}

func (s *IngestionService) buildOffer(productID string, item ListingItem) *catalog.Offer {
	availability := item.Availability
	if !availability.Valid() {
		availability = catalog.AvailabilityAvailable
	}
	currency := item.Currency
	if currency == "" {
		currency = "USD"
	}
	sellerName := item.SellerName
	if sellerName == "" {
		sellerName = "Unknown"
	}

	return &catalog.Offer{
		ID:           uuid.NewString(),
		ProductID:    productID,
		SellerName:   sellerName,
		SellerSite:   item.SellerSite,
		SellerSiteID: item.SellerSiteID,
		CurrentPrice: item.Price,
		Currency:     currency,
		URL:          item.URL,
		Availability: availability,
		ShippingInfo: map[string]any{},
		Rating:       item.Rating,
		ReviewCount:  item.ReviewCount,
	}
}

// extractBrand matches the title against the known-brand list, falling
// back to the first word when it looks brand-like.
func extractBrand(title string) string {
	upper := strings.ToUpper(title)
	for _, brand := range commonBrands {
		if strings.Contains(upper, strings.ToUpper(brand)) {
			return brand
		}
	}
	if first, _, _ := strings.Cut(title, " "); len(first) > 2 {
		return first
	}
	return ""
}

func extractTags(title string) []string {
	lower := strings.ToLower(title)
	tags := []string{}
	for _, keyword := range tagKeywords {
		if strings.Contains(lower, keyword) {
			tags = append(tags, keyword)
		}
	}
	return tags
}
