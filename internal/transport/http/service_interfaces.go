package http

import (
	"context"
	"io"

	"sellerpulse/internal/currency"
	"sellerpulse/internal/services"
	"sellerpulse/pkg/contracts/domain"
)

// IngestServiceInterface defines the upload operations
type IngestServiceInterface interface {
	IngestFile(ctx context.Context, name string, r io.Reader, override string) (*services.IngestResult, error)
}

// ReportServiceInterface defines the analytics operations
type ReportServiceInterface interface {
	Report(ctx context.Context, f domain.Filters) (*domain.DetailedAnalytics, error)
	Compare(ctx context.Context, f domain.Filters, mode domain.ComparisonMode) (*domain.Comparison, error)
	Rates(ctx context.Context) (currency.RateTable, error)
}

// MarketplaceServiceInterface defines the marketplace bookkeeping operations
type MarketplaceServiceInterface interface {
	List(ctx context.Context) ([]domain.MarketplaceMetadata, error)
	Get(ctx context.Context, code string) (domain.MarketplaceMetadata, error)
	Delete(ctx context.Context, code string) (int, error)
}

// HealthServiceInterface defines the health operations
type HealthServiceInterface interface {
	ReadinessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
