package products

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
	"sellerpulse/pkg/contracts/domain"
)

// ErrNotConfigured is returned when no product service URL is set.
var ErrNotConfigured = errors.New("product service not configured")

const maxPayloadBytes = 32 << 20

// ClientConfig configures the product-mapping client.
type ClientConfig struct {
	URL        string
	Timeout    time.Duration
	CacheTTL   time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	// Now overrides the clock used for cache expiry.
	Now func() time.Time
}

type cacheEntry struct {
	products  Map
	records   int
	cachedAt  time.Time
	expiresAt time.Time
}

// Client fetches the remote SKU mapping and keeps the last good result for
// CacheTTL. Concurrent callers share one in-flight request.
type Client struct {
	url        string
	ttl        time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	entry     *cacheEntry
	hitCount  int64
	missCount int64
}

// NewClient creates a product client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Client{
		url:        cfg.URL,
		ttl:        ttl,
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "products")),
		now:        now,
	}
}

// ProductMap returns the cached product map, fetching it when the cache is
// empty or expired.
func (c *Client) ProductMap(ctx context.Context) (Map, error) {
	if c.url == "" {
		return nil, ErrNotConfigured
	}

	if m, ok := c.cached(); ok {
		return m, nil
	}

	v, err, shared := c.group.Do("products", func() (interface{}, error) {
		if m, ok := c.cached(); ok {
			return m, nil
		}
		records, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		m := CreateProductMap(records)
		now := c.now()
		c.mu.Lock()
		c.entry = &cacheEntry{products: m, records: len(records), cachedAt: now, expiresAt: now.Add(c.ttl)}
		c.mu.Unlock()
		c.logger.InfoContext(ctx, "product map refreshed", slog.Int("records", len(records)))
		return m, nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "product map unavailable", slog.String("error", err.Error()), slog.Bool("shared", shared))
		return nil, err
	}
	return v.(Map), nil
}

func (c *Client) cached() (Map, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil || !c.now().Before(c.entry.expiresAt) {
		c.missCount++
		return nil, false
	}
	c.hitCount++
	return c.entry.products, true
}

// Invalidate drops the cached map.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.entry = nil
	c.mu.Unlock()
}

// CacheStats returns cache hit and miss counts.
func (c *Client) CacheStats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hitCount, c.missCount
}

func (c *Client) fetch(ctx context.Context) ([]domain.ProductInfo, error) {
	ctx, span := infrastructure.StartSpan(ctx, "products.fetch")
	defer span.End()

	records, err := c.request(ctx)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("records", len(records)))
	return records, nil
}

func (c *Client) request(ctx context.Context) ([]domain.ProductInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, apierrors.NewConfigError("invalid product service URL", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "SellerPulse-Products/1.0")

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierrors.NewNetworkError("product service request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apierrors.NewNetworkError(fmt.Sprintf("product service returned %d", resp.StatusCode), nil).
			WithContext("status", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, apierrors.NewNetworkError("failed to read product service response", err)
	}

	var records []domain.ProductInfo
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, apierrors.NewParsingError("product service returned a malformed payload", err)
	}

	c.logger.DebugContext(ctx, "product service responded",
		slog.Int("records", len(records)),
		slog.Duration("duration", c.now().Sub(start)))
	return records, nil
}
