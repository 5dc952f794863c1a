package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	apierrors "sellerpulse/internal/errors"
	"sellerpulse/internal/infrastructure"
)

// Source tags where a rate table came from.
type Source string

const (
	SourceAPI      Source = "api"
	SourceCached   Source = "cached"
	SourceFallback Source = "fallback"
)

// CacheKey is the key the last good table is persisted under.
const CacheKey = "currency.rates"

// Default provider settings.
const (
	DefaultTimeout  = 5 * time.Second
	DefaultCacheTTL = 12 * time.Hour
)

// FallbackRates are units per USD used when no live or cached table exists.
var FallbackRates = map[string]float64{
	"USD": 1,
	"EUR": 0.92,
	"GBP": 0.79,
	"CAD": 1.36,
	"AUD": 1.52,
	"AED": 3.6725,
	"SAR": 3.75,
}

// RateTable is a base-currency rate table with its provenance.
type RateTable struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	Source    Source             `json:"source"`
	FetchedAt time.Time          `json:"fetched_at"`
	// Warning explains why the live service was not used, when it failed.
	Warning string `json:"warning,omitempty"`
}

// Matrix derives the cross-rate matrix of the table.
func (t RateTable) Matrix() Matrix {
	return NewMatrixFromBase(t.Base, t.Rates)
}

// Converter returns a converter over the table.
func (t RateTable) Converter() *Converter {
	return NewConverter(t.Matrix())
}

// RateCache persists the last good table between runs.
type RateCache interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	PutValue(ctx context.Context, key, value string) error
}

// ProviderConfig configures a Provider.
type ProviderConfig struct {
	URL        string
	Timeout    time.Duration
	CacheTTL   time.Duration
	HTTPClient *http.Client
	Cache      RateCache
	Logger     *slog.Logger
	Now        func() time.Time
}

// Provider resolves the current rate table.
type Provider struct {
	url        string
	timeout    time.Duration
	ttl        time.Duration
	httpClient *http.Client
	cache      RateCache
	logger     *slog.Logger
	now        func() time.Time

	group singleflight.Group

	mu   sync.RWMutex
	last *RateTable
}

// NewProvider creates a rate provider.
func NewProvider(cfg ProviderConfig) *Provider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Provider{
		url:        cfg.URL,
		timeout:    timeout,
		ttl:        ttl,
		httpClient: httpClient,
		cache:      cfg.Cache,
		logger:     logger.With(slog.String("component", "currency")),
		now:        now,
	}
}

// Rates returns the best available table: a cached table younger than the
// TTL, then the live service, then the last cached table of any age, then
// FallbackRates. The returned table is always usable; the error is non-nil
// only when ctx is already done.
func (p *Provider) Rates(ctx context.Context) (RateTable, error) {
	if err := ctx.Err(); err != nil {
		return RateTable{}, err
	}

	if t, ok := p.cached(ctx); ok && p.fresh(t) {
		t.Source = SourceCached
		return t, nil
	}

	v, _, _ := p.group.Do("rates", func() (interface{}, error) {
		return p.resolve(ctx), nil
	})
	return v.(RateTable), nil
}

func (p *Provider) resolve(ctx context.Context) RateTable {
	live, err := p.fetch(ctx)
	if err == nil {
		p.store(ctx, live)
		return live
	}

	warning := fmt.Sprintf("live exchange rates unavailable: %v", err)
	if t, ok := p.cached(ctx); ok {
		p.logger.WarnContext(ctx, "using cached exchange rates",
			slog.String("error", err.Error()),
			slog.Time("fetched_at", t.FetchedAt))
		t.Source = SourceCached
		t.Warning = warning
		return t
	}

	p.logger.WarnContext(ctx, "using fallback exchange rates", slog.String("error", err.Error()))
	return RateTable{
		Base:      BaseCurrency,
		Rates:     copyRates(FallbackRates),
		Source:    SourceFallback,
		FetchedAt: p.now(),
		Warning:   warning,
	}
}

func (p *Provider) fresh(t RateTable) bool {
	return p.now().Sub(t.FetchedAt) < p.ttl
}

// cached returns the in-memory table, loading it from the RateCache when
// memory is empty.
func (p *Provider) cached(ctx context.Context) (RateTable, bool) {
	p.mu.RLock()
	last := p.last
	p.mu.RUnlock()
	if last != nil {
		t := *last
		t.Rates = copyRates(last.Rates)
		return t, true
	}
	if p.cache == nil {
		return RateTable{}, false
	}

	raw, ok, err := p.cache.GetValue(ctx, CacheKey)
	if err != nil {
		p.logger.WarnContext(ctx, "failed to read cached exchange rates", slog.String("error", err.Error()))
		return RateTable{}, false
	}
	if !ok {
		return RateTable{}, false
	}
	var t RateTable
	if err := json.Unmarshal([]byte(raw), &t); err != nil || len(t.Rates) == 0 {
		p.logger.WarnContext(ctx, "discarding unreadable cached exchange rates")
		return RateTable{}, false
	}
	t.Warning = ""

	p.mu.Lock()
	stored := t
	p.last = &stored
	p.mu.Unlock()
	t.Rates = copyRates(stored.Rates)
	return t, true
}

func (p *Provider) store(ctx context.Context, t RateTable) {
	p.mu.Lock()
	stored := t
	stored.Rates = copyRates(t.Rates)
	p.last = &stored
	p.mu.Unlock()

	if p.cache == nil {
		return
	}
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := p.cache.PutValue(ctx, CacheKey, string(data)); err != nil {
		p.logger.WarnContext(ctx, "failed to persist exchange rates", slog.String("error", err.Error()))
	}
}

// ratesResponse accepts both {"base","rates"} and {"base_code","conversion_rates"} payloads.
type ratesResponse struct {
	Base            string             `json:"base"`
	BaseCode        string             `json:"base_code"`
	Rates           map[string]float64 `json:"rates"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

func (p *Provider) fetch(ctx context.Context) (RateTable, error) {
	ctx, span := infrastructure.StartSpan(ctx, "currency.fetch")
	defer span.End()

	t, err := p.request(ctx)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return RateTable{}, err
	}
	span.SetAttributes(attribute.Int("currencies", len(t.Rates)))
	return t, nil
}

func (p *Provider) request(ctx context.Context) (RateTable, error) {
	if p.url == "" {
		return RateTable{}, errors.New("no rate service configured")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return RateTable{}, apierrors.NewConfigError("invalid rate service URL", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return RateTable{}, apierrors.NewNetworkError("rate service request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return RateTable{}, apierrors.NewNetworkError(fmt.Sprintf("rate service returned %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return RateTable{}, apierrors.NewNetworkError("failed to read rate service response", err)
	}

	var payload ratesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return RateTable{}, apierrors.NewParsingError("rate service returned a malformed payload", err)
	}
	base := payload.Base
	if base == "" {
		base = payload.BaseCode
	}
	rates := payload.Rates
	if len(rates) == 0 {
		rates = payload.ConversionRates
	}
	if base == "" || len(rates) == 0 {
		return RateTable{}, apierrors.NewParsingError("rate service payload has no base or rates", nil)
	}

	return RateTable{
		Base:      normalize(base),
		Rates:     copyRates(rates),
		Source:    SourceAPI,
		FetchedAt: p.now(),
	}, nil
}

func copyRates(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[normalize(k)] = v
	}
	return out
}
