package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "sellerpulse/internal/errors"
	custommw "sellerpulse/internal/middleware"
	"sellerpulse/pkg/contracts/domain"
)

// AnalyticsQuery is the validated query string of the analytics endpoints.
type AnalyticsQuery struct {
	StartDate   string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Marketplace string `json:"marketplace" validate:"marketplace"`
	Fulfillment string `json:"fulfillment" validate:"omitempty,oneof=all ALL FBA FBM fba fbm"`
}

// CompareQuery adds the comparison mode.
type CompareQuery struct {
	AnalyticsQuery
	Mode string `json:"mode" validate:"required,oneof=previous-period previous-year"`
}

// Filters converts the query to report filters.
func (q AnalyticsQuery) Filters() domain.Filters {
	return domain.Filters{
		StartDate:   q.StartDate,
		EndDate:     q.EndDate,
		Marketplace: q.Marketplace,
		Fulfillment: domain.Fulfillment(q.Fulfillment),
	}
}

func analyticsQueryFrom(r *http.Request) AnalyticsQuery {
	q := r.URL.Query()
	return AnalyticsQuery{
		StartDate:   q.Get("start_date"),
		EndDate:     q.Get("end_date"),
		Marketplace: q.Get("marketplace"),
		Fulfillment: q.Get("fulfillment"),
	}
}

// AnalyticsHandler serves reports, comparisons and exchange rates.
type AnalyticsHandler struct {
	service      ReportServiceInterface
	validator    *custommw.Validator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewAnalyticsHandler creates an analytics handler
func NewAnalyticsHandler(service ReportServiceInterface, validator *custommw.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "analytics")),
	}
}

// Routes returns the analytics routes
func (h *AnalyticsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetAnalytics)
	r.Get("/compare", h.GetComparison)
	return r
}

// GetAnalytics handles GET /api/analytics
func (h *AnalyticsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	query := analyticsQueryFrom(r)
	if err := h.validator.Struct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.Report(r.Context(), query.Filters())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "analytics served",
		slog.String("marketplace", report.Filters.Marketplace),
		slog.Int("records", report.RecordCount))
	render.JSON(w, r, report)
}

// GetComparison handles GET /api/analytics/compare
func (h *AnalyticsHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	query := CompareQuery{AnalyticsQuery: analyticsQueryFrom(r), Mode: r.URL.Query().Get("mode")}
	if err := h.validator.Struct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	cmp, err := h.service.Compare(r.Context(), query.Filters(), domain.ComparisonMode(query.Mode))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, cmp)
}

// GetRates handles GET /api/rates
func (h *AnalyticsHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	table, err := h.service.Rates(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, table)
}
