package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "dealradar-backend/internal/errors"
)

func (h *Handlers) getProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	useCache := r.URL.Query().Get("cache") != "false"

	product, err := h.reads.GetProductWithOffers(r.Context(), productID, useCache)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) getProductOffers(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	useCache := r.URL.Query().Get("cache") != "false"

	offers, err := h.reads.GetProductOffers(r.Context(), productID, useCache)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, offers)
}

func (h *Handlers) searchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	useCache := r.URL.Query().Get("cache") != "false"

	// Every other query parameter participates as a search filter.
	filters := make(map[string]string)
	for key, values := range r.URL.Query() {
		if key == "q" || key == "cache" || len(values) == 0 {
			continue
		}
		filters[key] = values[0]
	}

	results, err := h.reads.SearchProducts(r.Context(), query, filters, useCache)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

func (h *Handlers) popularProducts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	if limit <= 0 || limit > 100 {
		respondServiceError(w, apperrors.Validation("INVALID_LIMIT", "limit must be between 1 and 100"))
		return
	}

	products, err := h.reads.PopularProducts(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(products),
		"products": products,
	})
}

func (h *Handlers) invalidateProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	h.reads.InvalidateProductCache(r.Context(), productID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "invalidated", "product_id": productID})
}

type warmRequest struct {
	ProductIDs []string `json:"product_ids" validate:"required,min=1,max=100,dive,required"`
}

func (h *Handlers) warmCache(w http.ResponseWriter, r *http.Request) {
	var req warmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondServiceError(w, apperrors.Validation("INVALID_BODY", "request body must be JSON").WithCause(err))
		return
	}
	if err := validateRequest(req); err != nil {
		respondServiceError(w, err)
		return
	}

	h.reads.WarmCache(r.Context(), req.ProductIDs)
	respondJSON(w, http.StatusAccepted, map[string]any{"status": "warmed", "count": len(req.ProductIDs)})
}

func (h *Handlers) cacheStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.reads.CacheStats(r.Context()))
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
