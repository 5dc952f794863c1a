package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"

	"sellerpulse/internal/analytics"
	"sellerpulse/internal/config"
	"sellerpulse/internal/currency"
	apierrors "sellerpulse/internal/errors"
	"sellerpulse/internal/infrastructure"
	"sellerpulse/internal/marketplace"
	"sellerpulse/internal/products"
	"sellerpulse/internal/storage"
	"sellerpulse/pkg/contracts/domain"
)

// ProductSource supplies the SKU to product mapping.
type ProductSource interface {
	ProductMap(ctx context.Context) (products.Map, error)
}

// RateSource supplies the exchange rate table used for cross-marketplace
// reports.
type RateSource interface {
	Rates(ctx context.Context) (currency.RateTable, error)
}

// ReportService builds analytics reports from the stored dataset. Results
// are memoized per filter set until the next commit or delete. Returned
// reports are shared and must not be modified.
type ReportService struct {
	store         storage.Store
	products      ProductSource
	rates         RateSource
	miscThreshold float64
	metrics       *infrastructure.PipelineMetrics
	logger        *slog.Logger
	base          *slog.Logger

	cache *gocache.Cache
	// generation is bumped by Invalidate; results computed under an older
	// generation are not memoized.
	generation atomic.Uint64
	// memoMu orders memoize against Invalidate
	memoMu sync.Mutex
}

// NewReportService creates a report service. products and rates may be nil:
// reports then carry no product data, and cross-marketplace amounts are
// summed unconverted.
func NewReportService(store storage.Store, productSource ProductSource, rateSource RateSource, cfg config.AnalyticsConfig, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *ReportService {
	ttl := cfg.ReportCacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	threshold := cfg.MiscThreshold
	if threshold <= 0 {
		threshold = config.MiscThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		store:         store,
		products:      productSource,
		rates:         rateSource,
		miscThreshold: threshold,
		metrics:       metrics,
		logger:        infrastructure.ComponentLogger(logger, "reports"),
		base:          logger,
		cache:         gocache.New(ttl, 2*ttl),
	}
}

// NormalizeFilters canonicalizes marketplace and fulfillment values and
// checks the date range.
func NormalizeFilters(f domain.Filters) (domain.Filters, error) {
	switch m := strings.TrimSpace(f.Marketplace); {
	case m == "" || strings.EqualFold(m, domain.AllMarketplaces):
		f.Marketplace = domain.AllMarketplaces
	default:
		code := marketplace.NormalizeCode(m)
		if _, ok := marketplace.Lookup(code); !ok {
			return f, apierrors.NewAppError(apierrors.ErrTypeValidation, fmt.Sprintf("unknown marketplace %q", m), ErrUnknownMarketplace)
		}
		f.Marketplace = code
	}

	switch strings.ToUpper(strings.TrimSpace(string(f.Fulfillment))) {
	case "FBA":
		f.Fulfillment = domain.FulfillmentFBA
	case "FBM":
		f.Fulfillment = domain.FulfillmentFBM
	case "", "ALL":
		f.Fulfillment = ""
	default:
		return f, apierrors.NewAppValidationError(fmt.Sprintf("unknown fulfillment %q", f.Fulfillment))
	}

	if f.StartDate != "" && f.EndDate != "" && f.StartDate > f.EndDate {
		return f, apierrors.NewAppError(apierrors.ErrTypeValidation,
			fmt.Sprintf("start date %s is after end date %s", f.StartDate, f.EndDate), ErrInvalidDateRange)
	}
	return f, nil
}

// Report returns the analytics for f.
func (s *ReportService) Report(ctx context.Context, f domain.Filters) (*domain.DetailedAnalytics, error) {
	f, err := NormalizeFilters(f)
	if err != nil {
		return nil, err
	}
	key := "report|" + filterKey(f)
	if v, ok := s.cache.Get(key); ok {
		return v.(*domain.DetailedAnalytics), nil
	}

	ctx, span := infrastructure.StartSpan(ctx, "reports.report", filterAttributes(f)...)
	defer span.End()
	started := time.Now()
	gen := s.generation.Load()

	records, agg, warnings, err := s.prepare(ctx, f)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	report := agg.Aggregate(records, f)
	report.Warnings = append(warnings, report.Warnings...)

	s.memoize(key, gen, report)
	s.metrics.RecordReport(ctx, "report", time.Since(started))
	return report, nil
}

// Compare returns the analytics for f's date range shifted by mode.
func (s *ReportService) Compare(ctx context.Context, f domain.Filters, mode domain.ComparisonMode) (*domain.Comparison, error) {
	f, err := NormalizeFilters(f)
	if err != nil {
		return nil, err
	}
	if mode != domain.ComparePreviousPeriod && mode != domain.ComparePreviousYear {
		return nil, apierrors.NewAppError(apierrors.ErrTypeValidation, fmt.Sprintf("unknown comparison mode %q", mode), ErrInvalidMode)
	}
	key := "compare|" + string(mode) + "|" + filterKey(f)
	if v, ok := s.cache.Get(key); ok {
		return v.(*domain.Comparison), nil
	}

	ctx, span := infrastructure.StartSpan(ctx, "reports.compare",
		append(filterAttributes(f), attribute.String("mode", string(mode)))...)
	defer span.End()
	started := time.Now()
	gen := s.generation.Load()

	records, agg, warnings, err := s.prepare(ctx, f)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	cmp, err := agg.Compare(records, f, mode)
	if err != nil {
		return nil, err
	}
	cmp.Analytics.Warnings = append(warnings, cmp.Analytics.Warnings...)

	s.memoize(key, gen, cmp)
	s.metrics.RecordReport(ctx, "compare", time.Since(started))
	return cmp, nil
}

// Rates returns the current exchange rate table.
func (s *ReportService) Rates(ctx context.Context) (currency.RateTable, error) {
	if s.rates == nil {
		return currency.RateTable{}, apierrors.NewNotFoundError("exchange rate provider")
	}
	table, err := s.rates.Rates(ctx)
	if err != nil {
		return currency.RateTable{}, err
	}
	s.metrics.RecordRateSource(ctx, string(table.Source))
	return table, nil
}

// Invalidate drops every memoized report.
func (s *ReportService) Invalidate() {
	s.memoMu.Lock()
	defer s.memoMu.Unlock()
	s.generation.Add(1)
	s.cache.Flush()
}

// prepare loads and enriches the records for f and builds an aggregator
// with the rates the report needs. Degraded dependencies come back as
// warnings.
func (s *ReportService) prepare(ctx context.Context, f domain.Filters) ([]domain.EnrichedTransaction, *analytics.Aggregator, []string, error) {
	var (
		txs []domain.Transaction
		err error
	)
	if f.CrossMarketplace() {
		txs, err = s.store.AllTransactions(ctx)
	} else {
		txs, err = s.store.TransactionsByMarketplace(ctx, f.Marketplace)
	}
	if err != nil {
		return nil, nil, nil, apierrors.NewStorageError("failed to load transactions", err)
	}

	var warnings []string
	productMap := s.productMap(ctx, &warnings)

	cfg := analytics.Config{MiscThreshold: s.miscThreshold}
	if f.CrossMarketplace() && s.rates != nil {
		table, err := s.Rates(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		cfg.Converter = table.Converter()
		cfg.RateSource = string(table.Source)
		if table.Warning != "" {
			warnings = append(warnings, table.Warning)
		}
	}

	return products.EnrichAll(txs, productMap), analytics.NewAggregator(s.base, cfg), warnings, nil
}

func (s *ReportService) productMap(ctx context.Context, warnings *[]string) products.Map {
	if s.products == nil {
		return nil
	}
	m, err := s.products.ProductMap(ctx)
	switch {
	case err == nil:
		return m
	case errors.Is(err, products.ErrNotConfigured):
		return nil
	default:
		s.logger.WarnContext(ctx, "reporting without product data", slog.String("error", err.Error()))
		*warnings = append(*warnings, fmt.Sprintf("product data unavailable: %v", err))
		return nil
	}
}

func (s *ReportService) memoize(key string, gen uint64, v interface{}) {
	s.memoMu.Lock()
	defer s.memoMu.Unlock()
	if s.generation.Load() == gen {
		s.cache.SetDefault(key, v)
	}
}

func filterKey(f domain.Filters) string {
	return strings.Join([]string{f.StartDate, f.EndDate, f.Marketplace, string(f.Fulfillment)}, "|")
}

func filterAttributes(f domain.Filters) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("marketplace", f.Marketplace),
		attribute.String("fulfillment", string(f.Fulfillment)),
		attribute.String("start_date", f.StartDate),
		attribute.String("end_date", f.EndDate),
	}
}
