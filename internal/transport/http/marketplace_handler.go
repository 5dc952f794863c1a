package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "sellerpulse/internal/errors"
	"sellerpulse/pkg/contracts/domain"
)

// MarketplaceList is the response of GET /api/marketplaces.
type MarketplaceList struct {
	Marketplaces []domain.MarketplaceMetadata `json:"marketplaces"`
	Total        int                          `json:"total_transactions"`
}

// DeleteResult is the response of DELETE /api/marketplaces/{code}.
type DeleteResult struct {
	Code    string `json:"code"`
	Removed int    `json:"removed"`
}

// MarketplaceHandler exposes stored marketplace data.
type MarketplaceHandler struct {
	service      MarketplaceServiceInterface
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewMarketplaceHandler creates a marketplace handler
func NewMarketplaceHandler(service MarketplaceServiceInterface, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *MarketplaceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketplaceHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "marketplaces")),
	}
}

// Routes returns the marketplace routes
func (h *MarketplaceHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Route("/{code}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
	})
	return r
}

// List handles GET /api/marketplaces
func (h *MarketplaceHandler) List(w http.ResponseWriter, r *http.Request) {
	metas, err := h.service.List(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	out := MarketplaceList{Marketplaces: metas}
	if out.Marketplaces == nil {
		out.Marketplaces = []domain.MarketplaceMetadata{}
	}
	for _, m := range metas {
		out.Total += m.TransactionCount
	}
	render.JSON(w, r, out)
}

// Get handles GET /api/marketplaces/{code}
func (h *MarketplaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	meta, err := h.service.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, meta)
}

// Delete handles DELETE /api/marketplaces/{code}
func (h *MarketplaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	removed, err := h.service.Delete(r.Context(), code)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "marketplace deleted",
		slog.String("code", code),
		slog.Int("removed", removed))
	render.JSON(w, r, DeleteResult{Code: code, Removed: removed})
}
