package currency

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatrixFromBase(t *testing.T) {
	m := NewMatrixFromBase("usd", map[string]float64{"EUR": 0.92, "gbp": 0.79, "BAD": 0})

	tests := []struct {
		from, to string
		want     float64
		ok       bool
	}{
		{"USD", "EUR", 0.92, true},
		{"EUR", "USD", 1 / 0.92, true},
		{"GBP", "EUR", 0.92 / 0.79, true},
		{"eur", "eur", 1, true},
		{"USD", "BAD", 0, false},
		{"XYZ", "USD", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			got, ok := m.Rate(tt.from, tt.to)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
	assert.Equal(t, []string{"EUR", "GBP", "USD"}, m.Currencies())
}

func TestConverter_Convert(t *testing.T) {
	c := NewConverter(NewMatrixFromBase("USD", FallbackRates))

	tests := []struct {
		name   string
		amount float64
		from   string
		to     string
		want   float64
	}{
		{"same currency is a no-op", 123.45, "EUR", "EUR", 123.45},
		{"usd to eur", 100, "USD", "EUR", 92},
		{"eur to usd", 92, "EUR", "USD", 100},
		{"aed to usd", 367.25, "AED", "USD", 100},
		{"negative amounts keep sign", -79, "GBP", "USD", -100},
		{"missing pair is zero", 100, "GBP", "XYZ", 0},
		{"unknown source is zero", 100, "XYZ", "USD", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, c.Convert(tt.amount, tt.from, tt.to), 1e-9)
		})
	}

	assert.True(t, c.CanConvert("SAR", "CAD"))
	assert.False(t, c.CanConvert("SAR", "XYZ"))
}

func TestConverter_Nil(t *testing.T) {
	var c *Converter
	assert.Equal(t, 5.0, c.Convert(5, "USD", "usd"))
	assert.Equal(t, 0.0, c.Convert(5, "USD", "EUR"))
	assert.Nil(t, c.Matrix())
}

type memoryCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string]string)}
}

func (c *memoryCache) GetValue(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *memoryCache) PutValue(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type rateServer struct {
	*httptest.Server
	calls int32
	fail  atomic.Bool
}

func newRateServer(t *testing.T, body string) *rateServer {
	rs := &rateServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&rs.calls, 1)
		if rs.fail.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *rateServer) Calls() int32 { return atomic.LoadInt32(&rs.calls) }

func TestProvider_Rates(t *testing.T) {
	srv := newRateServer(t, `{"base":"USD","rates":{"EUR":0.9,"GBP":0.8,"AED":3.67}}`)
	cache := newMemoryCache()
	clk := &clock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	p := NewProvider(ProviderConfig{URL: srv.URL, Cache: cache, CacheTTL: time.Hour, Now: clk.Now})
	ctx := context.Background()

	table, err := p.Rates(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceAPI, table.Source)
	assert.Equal(t, 0.9, table.Rates["EUR"])
	assert.Empty(t, table.Warning)
	assert.Contains(t, cache.values, CacheKey)

	table, err = p.Rates(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceCached, table.Source)
	assert.Equal(t, int32(1), srv.Calls(), "fresh table served without a request")

	clk.Advance(2 * time.Hour)
	srv.fail.Store(true)
	table, err = p.Rates(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceCached, table.Source)
	assert.Equal(t, 0.9, table.Rates["EUR"])
	assert.NotEmpty(t, table.Warning)
	assert.Equal(t, int32(2), srv.Calls())

	srv.fail.Store(false)
	table, err = p.Rates(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceAPI, table.Source)
}

func TestProvider_PersistedCacheSurvivesRestart(t *testing.T) {
	clk := &clock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache := newMemoryCache()
	persisted, err := json.Marshal(RateTable{
		Base: "USD", Rates: map[string]float64{"EUR": 0.95}, Source: SourceAPI, FetchedAt: clk.Now().Add(-time.Minute),
	})
	require.NoError(t, err)
	cache.values[CacheKey] = string(persisted)

	srv := newRateServer(t, `{"base":"USD","rates":{"EUR":0.5}}`)
	p := NewProvider(ProviderConfig{URL: srv.URL, Cache: cache, CacheTTL: time.Hour, Now: clk.Now})

	table, err := p.Rates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceCached, table.Source)
	assert.Equal(t, 0.95, table.Rates["EUR"])
	assert.Equal(t, int32(0), srv.Calls())
}

func TestProvider_StalePersistedCacheUsedWhenServiceDown(t *testing.T) {
	clk := &clock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache := newMemoryCache()
	persisted, err := json.Marshal(RateTable{Base: "USD", Rates: map[string]float64{"EUR": 0.95}, FetchedAt: clk.Now().Add(-72 * time.Hour)})
	require.NoError(t, err)
	cache.values[CacheKey] = string(persisted)

	srv := newRateServer(t, "")
	srv.fail.Store(true)
	p := NewProvider(ProviderConfig{URL: srv.URL, Cache: cache, CacheTTL: time.Hour, Now: clk.Now})

	table, err := p.Rates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceCached, table.Source)
	assert.Equal(t, 0.95, table.Rates["EUR"])
	assert.Contains(t, table.Warning, "unavailable")
}

func TestProvider_Fallback(t *testing.T) {
	tests := []struct {
		name string
		url  func(t *testing.T) string
	}{
		{"no service configured", func(t *testing.T) string { return "" }},
		{"service error", func(t *testing.T) string {
			srv := newRateServer(t, "")
			srv.fail.Store(true)
			return srv.URL
		}},
		{"malformed payload", func(t *testing.T) string { return newRateServer(t, `{"rates":`).URL }},
		{"empty rates", func(t *testing.T) string { return newRateServer(t, `{"base":"USD","rates":{}}`).URL }},
		{"timeout", func(t *testing.T) string {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			}))
			t.Cleanup(srv.Close)
			return srv.URL
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider(ProviderConfig{URL: tt.url(t), Timeout: 50 * time.Millisecond})
			table, err := p.Rates(context.Background())
			require.NoError(t, err)
			assert.Equal(t, SourceFallback, table.Source)
			assert.Equal(t, "USD", table.Base)
			assert.Equal(t, 3.6725, table.Rates["AED"])
			assert.NotEmpty(t, table.Warning)

			c := table.Converter()
			assert.InDelta(t, 100.0, c.Convert(92, "EUR", "USD"), 1e-9)
		})
	}
}

func TestProvider_AlternatePayloadShape(t *testing.T) {
	srv := newRateServer(t, `{"result":"success","base_code":"USD","conversion_rates":{"EUR":0.91}}`)
	p := NewProvider(ProviderConfig{URL: srv.URL})

	table, err := p.Rates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceAPI, table.Source)
	assert.Equal(t, 0.91, table.Rates["EUR"])
}

func TestProvider_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewProvider(ProviderConfig{}).Rates(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFallbackRatesNotMutated(t *testing.T) {
	p := NewProvider(ProviderConfig{})
	table, _ := p.Rates(context.Background())
	table.Rates["EUR"] = 99
	assert.Equal(t, 0.92, FallbackRates["EUR"])
}
