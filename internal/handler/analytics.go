package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pulseboard/pulseboard/internal/model"
)

// SummaryLoader builds the link analytics overview.
type SummaryLoader interface {
	Summary(ctx context.Context, productID string) (*model.AnalyticsSummary, error)
}

// AnalyticsHandler handles analytics API requests.
type AnalyticsHandler struct {
	svc    SummaryLoader
	logger *slog.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(svc SummaryLoader, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		svc:    svc,
		logger: logger.With("component", "handler.analytics"),
	}
}

// Summary handles GET /api/v1/analytics/summary?product_id=.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context(), r.URL.Query().Get("product_id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
