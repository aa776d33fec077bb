package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dealradar-backend/internal/domain/catalog"
	apperrors "dealradar-backend/internal/errors"
	"dealradar-backend/internal/infrastructure/observability"
)

const offerColumns = `id, product_id, seller_name, seller_site, seller_site_id,
	current_price, currency, url, availability, shipping_info, rating,
	review_count, last_checked_at, created_at, updated_at`

// OfferRepository implements repository.OfferRepository on Postgres.
type OfferRepository struct {
	db      *sql.DB
	metrics *observability.Collector
}

// NewOfferRepository creates an offer repository over db.
func NewOfferRepository(db *sql.DB, metrics *observability.Collector) *OfferRepository {
	return &OfferRepository{db: db, metrics: metrics}
}

// Upsert inserts the offer or, when the (seller_site, seller_site_id) key
// already exists, refreshes the existing row. Returns the stored offer.
func (r *OfferRepository) Upsert(ctx context.Context, offer *catalog.Offer) (*catalog.Offer, error) {
	defer track(r.metrics, "upsert", "offers")()

	shipping, err := json.Marshal(orEmptyMap(offer.ShippingInfo))
	if err != nil {
		return nil, apperrors.Internal("OFFER_ENCODE", "failed to encode shipping info").WithCause(err)
	}
	availability := offer.Availability
	if !availability.Valid() {
		availability = catalog.AvailabilityAvailable
	}

	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`
		INSERT INTO offers (id, product_id, seller_name, seller_site, seller_site_id,
			current_price, currency, url, availability, shipping_info, rating, review_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (seller_site, seller_site_id) DO UPDATE SET
			product_id = EXCLUDED.product_id,
			seller_name = EXCLUDED.seller_name,
			current_price = EXCLUDED.current_price,
			currency = EXCLUDED.currency,
			url = EXCLUDED.url,
			availability = EXCLUDED.availability,
			shipping_info = EXCLUDED.shipping_info,
			rating = EXCLUDED.rating,
			review_count = EXCLUDED.review_count,
			last_checked_at = now(),
			updated_at = now()
		RETURNING %s`, offerColumns),
		offer.ID, offer.ProductID, offer.SellerName, offer.SellerSite, offer.SellerSiteID,
		offer.CurrentPrice, offer.Currency, offer.URL, availability, shipping,
		offer.Rating, offer.ReviewCount,
	)
	stored, err := scanOffer(row)
	if err != nil {
		return nil, apperrors.Internal("OFFER_UPSERT", "failed to upsert offer").
			WithResource("offer").WithCause(err)
	}
	return stored, nil
}

func (r *OfferRepository) FindByID(ctx context.Context, id string) (*catalog.Offer, error) {
	defer track(r.metrics, "select", "offers")()

	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM offers WHERE id = $1`, offerColumns), id)
	offer, err := scanOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("OFFER_NOT_FOUND", "offer not found").
			WithResource("offer")
	}
	if err != nil {
		return nil, apperrors.Internal("OFFER_QUERY", "failed to load offer").
			WithResource("offer").WithCause(err)
	}
	return offer, nil
}

func (r *OfferRepository) FindBySiteKey(ctx context.Context, site, siteID string) (*catalog.Offer, error) {
	defer track(r.metrics, "select", "offers")()

	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM offers WHERE seller_site = $1 AND seller_site_id = $2`, offerColumns),
		site, siteID)
	offer, err := scanOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("OFFER_NOT_FOUND", "offer not found").
			WithResource("offer")
	}
	if err != nil {
		return nil, apperrors.Internal("OFFER_QUERY", "failed to load offer").
			WithResource("offer").WithCause(err)
	}
	return offer, nil
}

func (r *OfferRepository) FindByProduct(ctx context.Context, productID string) ([]catalog.Offer, error) {
	defer track(r.metrics, "select", "offers")()

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM offers WHERE product_id = $1 ORDER BY current_price ASC`, offerColumns),
		productID)
	if err != nil {
		return nil, apperrors.Internal("OFFER_QUERY", "failed to load offers").
			WithResource("offer").WithCause(err)
	}
	defer rows.Close()

	var offers []catalog.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, apperrors.Internal("OFFER_SCAN", "failed to read offer row").WithCause(err)
		}
		offers = append(offers, *offer)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("OFFER_QUERY", "failed to load offers").WithCause(err)
	}
	return offers, nil
}

// UpdatePrice sets a new current price and advances last_checked_at.
func (r *OfferRepository) UpdatePrice(ctx context.Context, offerID string, price float64, checkedAt time.Time) error {
	defer track(r.metrics, "update", "offers")()

	_, err := r.db.ExecContext(ctx, `
		UPDATE offers
		SET current_price = $2, last_checked_at = $3, updated_at = now()
		WHERE id = $1`,
		offerID, price, checkedAt)
	if err != nil {
		return apperrors.Internal("OFFER_UPDATE", "failed to update offer price").
			WithResource("offer").WithCause(err)
	}
	return nil
}

// Touch advances last_checked_at without changing the price.
func (r *OfferRepository) Touch(ctx context.Context, offerID string, checkedAt time.Time) error {
	defer track(r.metrics, "update", "offers")()

	_, err := r.db.ExecContext(ctx,
		`UPDATE offers SET last_checked_at = $2 WHERE id = $1`, offerID, checkedAt)
	if err != nil {
		return apperrors.Internal("OFFER_UPDATE", "failed to touch offer").
			WithResource("offer").WithCause(err)
	}
	return nil
}

func scanOffer(row rowScanner) (*catalog.Offer, error) {
	var (
		offer    catalog.Offer
		shipping []byte
		rating   sql.NullFloat64
	)
	err := row.Scan(
		&offer.ID, &offer.ProductID, &offer.SellerName, &offer.SellerSite, &offer.SellerSiteID,
		&offer.CurrentPrice, &offer.Currency, &offer.URL, &offer.Availability, &shipping,
		&rating, &offer.ReviewCount, &offer.LastCheckedAt, &offer.CreatedAt, &offer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rating.Valid {
		offer.Rating = &rating.Float64
	}
	if err := json.Unmarshal(shipping, &offer.ShippingInfo); err != nil {
		offer.ShippingInfo = map[string]any{}
	}
	return &offer, nil
}
