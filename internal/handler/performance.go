package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulseboard/pulseboard/internal/handler/dto"
	"github.com/pulseboard/pulseboard/internal/model"
	"github.com/pulseboard/pulseboard/internal/scoring"
)

// ScoreLoader returns scoreboards for an authenticated caller.
type ScoreLoader interface {
	LoadScores(ctx context.Context, productID string, period scoring.Period) (*model.PerformanceData, error)
}

// PerformanceHandler serves the scoreboards.
type PerformanceHandler struct {
	svc    ScoreLoader
	logger *slog.Logger
}

// NewPerformanceHandler creates a new PerformanceHandler.
func NewPerformanceHandler(svc ScoreLoader, logger *slog.Logger) *PerformanceHandler {
	return &PerformanceHandler{
		svc:    svc,
		logger: logger.With("component", "handler.performance"),
	}
}

// Get handles GET /api/v1/products/{productID}/performance?period=.
func (h *PerformanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	period, err := scoring.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	data, err := h.svc.LoadScores(r.Context(), productID, period)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToPerformanceResponse(period, data))
}
