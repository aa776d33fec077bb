package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "dealradar-backend/internal/errors"
	"dealradar-backend/internal/service"
)

func (h *Handlers) offerPriceHistory(w http.ResponseWriter, r *http.Request) {
	offerID := chi.URLParam(r, "offerID")
	days := queryInt(r, "days", 30)
	useCache := r.URL.Query().Get("cache") != "false"

	history, err := h.reads.GetPriceHistory(r.Context(), offerID, days, useCache)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

func (h *Handlers) productPriceHistory(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	days := queryInt(r, "days", 30)

	history, err := h.prices.GetProductPriceHistory(r.Context(), productID, days)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

type bulkPricesRequest struct {
	Updates []service.PriceUpdate `json:"updates" validate:"required,min=1,max=500,dive"`
}

func (h *Handlers) bulkUpdatePrices(w http.ResponseWriter, r *http.Request) {
	var req bulkPricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondServiceError(w, apperrors.Validation("INVALID_BODY", "request body must be JSON").WithCause(err))
		return
	}
	if err := validateRequest(req); err != nil {
		respondServiceError(w, err)
		return
	}

	result := h.prices.BulkUpdatePrices(r.Context(), req.Updates)
	respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) marketTrends(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	days := queryInt(r, "days", 30)

	trends, err := h.prices.GetMarketTrends(r.Context(), category, days)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, trends)
}
