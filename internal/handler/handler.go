// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pulseboard/pulseboard/internal/handler/dto"
	"github.com/pulseboard/pulseboard/internal/scoring"
	"github.com/pulseboard/pulseboard/internal/service"
)

// NotFound handles 404 responses.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	case errors.Is(err, scoring.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, "INVALID_PERIOD", "Period must be one of all, 7d, 30d")
	case errors.Is(err, service.ErrMissingProduct):
		writeError(w, http.StatusBadRequest, "MISSING_PRODUCT", "product_id is required")
	case errors.Is(err, service.ErrInvalidDestination):
		writeError(w, http.StatusBadRequest, "INVALID_DESTINATION", "Invalid destination URL")
	case errors.Is(err, service.ErrURLTooLong):
		writeError(w, http.StatusBadRequest, "URL_TOO_LONG", "Destination URL exceeds maximum length")
	case errors.Is(err, service.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
	case errors.Is(err, service.ErrLinkNotFound):
		writeError(w, http.StatusNotFound, "LINK_NOT_FOUND", "Link not found")
	case errors.Is(err, service.ErrCampaignNotFound):
		writeError(w, http.StatusNotFound, "CAMPAIGN_NOT_FOUND", "Campaign not found")
	case errors.Is(err, service.ErrContentPieceNotFound):
		writeError(w, http.StatusNotFound, "CONTENT_NOT_FOUND", "Content piece not found")
	case errors.Is(err, service.ErrCampaignProductMismatch):
		writeError(w, http.StatusUnprocessableEntity, "CAMPAIGN_PRODUCT_MISMATCH", "Campaign does not belong to this product")
	case errors.Is(err, service.ErrContentProductMismatch):
		writeError(w, http.StatusUnprocessableEntity, "CONTENT_PRODUCT_MISMATCH", "Content piece does not belong to this product")
	default:
		logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
