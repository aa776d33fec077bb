package catalog

import "time"

// Availability describes an offer's stock state.
type Availability string

const (
	AvailabilityAvailable  Availability = "available"
	AvailabilityOutOfStock Availability = "out_of_stock"
	AvailabilityLimited    Availability = "limited"
)

// Valid reports whether the availability is one of the known states.
func (a Availability) Valid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityOutOfStock, AvailabilityLimited:
		return true
	}
	return false
}

// Offer is a single seller's listing of a canonical product.
// (SellerSite, SellerSiteID) identifies exactly one offer; ingestion
// upserts on that key and never duplicates.
type Offer struct {
	ID            string         `json:"id"`
	ProductID     string         `json:"product_id"`
	SellerName    string         `json:"seller_name"`
	SellerSite    string         `json:"seller_site"`
	SellerSiteID  string         `json:"seller_site_id"`
	CurrentPrice  float64        `json:"current_price"`
	Currency      string         `json:"currency"`
	URL           string         `json:"url"`
	Availability  Availability   `json:"availability"`
	ShippingInfo  map[string]any `json:"shipping_info"`
	Rating        *float64       `json:"rating,omitempty"`
	ReviewCount   int            `json:"review_count"`
	LastCheckedAt time.Time      `json:"last_checked_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
