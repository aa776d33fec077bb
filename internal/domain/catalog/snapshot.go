package catalog

import "time"

// PriceSnapshot is one immutable price observation for an offer. Snapshots
// are append-only; they are never mutated and only disappear through the
// offer's cascade delete.
type PriceSnapshot struct {
	ID        int64     `json:"id"`
	OfferID   string    `json:"offer_id"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
}
