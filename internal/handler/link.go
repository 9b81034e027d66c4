package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/pulseboard/pulseboard/internal/handler/dto"
	"github.com/pulseboard/pulseboard/internal/model"
	"github.com/pulseboard/pulseboard/internal/service"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

// LinkIssuer creates and reads tracked links.
type LinkIssuer interface {
	CreateTrackedLink(ctx context.Context, input service.CreateTrackedLinkInput) (*service.TrackedLink, error)
	GetLink(ctx context.Context, id string) (*model.Link, error)
	ListLinks(ctx context.Context, productID, campaignID string) ([]model.Link, error)
	TrackedURL(slug string) string
}

// LinkHandler handles HTTP requests for link operations.
type LinkHandler struct {
	svc    LinkIssuer
	logger *slog.Logger
}

// NewLinkHandler creates a new LinkHandler.
func NewLinkHandler(svc LinkIssuer, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{
		svc:    svc,
		logger: logger.With("component", "handler.link"),
	}
}

// Create handles POST /api/v1/links.
func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	out, err := h.svc.CreateTrackedLink(r.Context(), service.CreateTrackedLinkInput{
		ProductID:      req.ProductID,
		CampaignID:     req.CampaignID,
		ContentPieceID: req.ContentPieceID,
		DestinationURL: req.DestinationURL,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToLinkResponse(out.Link, out.TrackedURL))
}

// Get handles GET /api/v1/links/{id}.
func (h *LinkHandler) Get(w http.ResponseWriter, r *http.Request) {
	link, err := h.svc.GetLink(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLinkResponse(link, h.svc.TrackedURL(link.Slug)))
}

// List handles GET /api/v1/products/{productID}/links?campaign_id=.
func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	links, err := h.svc.ListLinks(r.Context(), chi.URLParam(r, "productID"), r.URL.Query().Get("campaign_id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLinkListResponse(links, h.svc.TrackedURL))
}

// QR handles GET /api/v1/links/{id}/qr?size=. It renders the tracked URL,
// not the destination, so scans are counted.
func (h *LinkHandler) QR(w http.ResponseWriter, r *http.Request) {
	size := defaultQRSize
	if s := r.URL.Query().Get("size"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < minQRSize || parsed > maxQRSize {
			writeError(w, http.StatusBadRequest, "INVALID_SIZE", "size must be between 64 and 1024")
			return
		}
		size = parsed
	}

	link, err := h.svc.GetLink(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	png, err := qrcode.Encode(h.svc.TrackedURL(link.Slug), qrcode.Medium, size)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
