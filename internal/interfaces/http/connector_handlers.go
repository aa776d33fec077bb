package http

import (
	"net/http"

	apperrors "dealradar-backend/internal/errors"
	"dealradar-backend/internal/infrastructure/connectors"
	"dealradar-backend/internal/service"
)

// ingestEbay searches the eBay Browse API and feeds the results through
// ingestion, creating products and recording price observations.
func (h *Handlers) ingestEbay(w http.ResponseWriter, r *http.Request) {
	keywords := r.URL.Query().Get("q")
	if keywords == "" {
		respondServiceError(w, apperrors.Validation("MISSING_QUERY", "q query parameter is required"))
		return
	}

	result, err := h.ebay.Search(r.Context(), connectors.EbaySearchParams{
		Keywords: keywords,
		Limit:    queryInt(r, "limit", 10),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	listings := h.ebay.Listings(result)
	ingested := h.ingest.IngestListings(r.Context(), listings)
	respondJSON(w, http.StatusOK, map[string]any{
		"source":   "ebay",
		"found":    result.Total,
		"listings": len(listings),
		"ingested": ingested,
	})
}

// ingestScraper scrapes all supported marketplaces and ingests the
// results. A partially failing scrape still ingests what came back.
func (h *Handlers) ingestScraper(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondServiceError(w, apperrors.Validation("MISSING_QUERY", "q query parameter is required"))
		return
	}

	results, err := h.scraper.SearchAll(r.Context(), query, queryInt(r, "limit", 20))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var listings []service.ListingItem
	for i := range results {
		listings = append(listings, h.scraper.Listings(&results[i])...)
	}
	ingested := h.ingest.IngestListings(r.Context(), listings)
	respondJSON(w, http.StatusOK, map[string]any{
		"source":   "scraper",
		"listings": len(listings),
		"ingested": ingested,
	})
}
