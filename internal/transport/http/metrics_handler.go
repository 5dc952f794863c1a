package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MetricsHandler serves the Prometheus scrape endpoint
type MetricsHandler struct {
	exporter http.Handler
}

// NewMetricsHandler wraps the exporter's scrape handler. A nil exporter
// answers 404.
func NewMetricsHandler(exporter http.Handler) *MetricsHandler {
	if exporter == nil {
		exporter = http.NotFoundHandler()
	}
	return &MetricsHandler{exporter: exporter}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/", h.exporter)
	return r
}
