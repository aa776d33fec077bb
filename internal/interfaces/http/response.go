// Package http exposes the REST surface over the application services:
// cached product reads, price history, bulk price ingestion and the
// marketplace connector endpoints.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "dealradar-backend/internal/errors"
)

// errorResponse is the wire shape of every error reply.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func respondError(w http.ResponseWriter, status int, message, code string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// respondServiceError maps the application error taxonomy onto HTTP
// status codes. Internal error details never leak to clients.
func respondServiceError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		respondError(w, http.StatusInternalServerError, "an internal error occurred", "")
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeNotFound:
		respondError(w, http.StatusNotFound, appErr.Message, appErr.Code)
	case apperrors.ErrorTypeValidation:
		respondError(w, http.StatusBadRequest, appErr.Message, appErr.Code)
	case apperrors.ErrorTypeConflict:
		respondError(w, http.StatusConflict, appErr.Message, appErr.Code)
	case apperrors.ErrorTypeUnavailable:
		respondError(w, http.StatusServiceUnavailable, "service temporarily unavailable", appErr.Code)
	default:
		respondError(w, http.StatusInternalServerError, "an internal error occurred", "")
	}
}
