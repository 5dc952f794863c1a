package products

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sellerpulse/pkg/contracts/domain"
)

func cost(v float64) *float64 { return &v }

func TestCreateProductMap(t *testing.T) {
	m := CreateProductMap([]domain.ProductInfo{
		{SKU: "MUG-RED", Marketplace: "US", Name: "Red Mug", Cost: cost(3.5)},
		{SKU: "MUG-RED", Marketplace: "DE", Name: "Rote Tasse"},
		{SKU: " TEE ", Name: "Tee"},
		{SKU: "", Name: "ignored"},
	})

	require.Contains(t, m, "US:MUG-RED")
	require.Contains(t, m, "DE:MUG-RED")
	assert.Equal(t, "Rote Tasse", m["DE:MUG-RED"].Name)

	// the bare key keeps the record with a cost
	assert.Equal(t, "Red Mug", m["MUG-RED"].Name)
	assert.True(t, m["MUG-RED"].HasCost())

	assert.Contains(t, m, "TEE")
	assert.Len(t, m, 4)
}

func TestCreateProductMap_CostReplacesBlank(t *testing.T) {
	m := CreateProductMap([]domain.ProductInfo{
		{SKU: "A", Marketplace: "UK"},
		{SKU: "A", Marketplace: "FR", Cost: cost(2)},
	})
	assert.Equal(t, "FR", m["A"].Marketplace)
}

func TestMap_Lookup(t *testing.T) {
	m := CreateProductMap([]domain.ProductInfo{
		{SKU: "DATES", Marketplace: "UAE", Name: "uae record", Cost: cost(1)},
		{SKU: "DATES", Marketplace: "US", Name: "us record", Cost: cost(2)},
		{SKU: "SOAP", Marketplace: "KSA", Name: "ksa soap"},
		{SKU: "ONLY-BARE", Name: "bare"},
	})

	tests := []struct {
		name string
		code string
		sku  string
		want string
		ok   bool
	}{
		{"exact", "US", "DATES", "us record", true},
		{"alias of code", "AE", "DATES", "uae record", true},
		{"alias of code for saudi", "SA", "SOAP", "ksa soap", true},
		{"bare fallback", "DE", "ONLY-BARE", "bare", true},
		{"no marketplace uses bare", "", "ONLY-BARE", "bare", true},
		{"unknown sku", "US", "NOPE", "", false},
		{"blank sku", "US", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := m.Lookup(tt.code, tt.sku)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, p.Name)
		})
	}
}

func TestEnrich(t *testing.T) {
	m := CreateProductMap([]domain.ProductInfo{
		{SKU: "MUG-RED", Marketplace: "UK", ASIN: "B000111", Name: "Red Mug", Parent: "MUGS",
			Category: "Kitchen", Cost: cost(4.25), Size: "Standard", CustomShipping: cost(1.1), FBMSource: "warehouse"},
	})

	enriched := Enrich(domain.Transaction{SKU: "MUG-RED", MarketplaceCode: "UK"}, m)
	require.NotNil(t, enriched.Product)
	assert.Equal(t, "B000111", enriched.Product.ASIN)
	assert.Equal(t, "MUGS", enriched.Product.Parent)
	assert.Equal(t, "Kitchen", enriched.Product.ProductCategory)
	assert.Equal(t, "warehouse", enriched.Product.ProductFBMSource)
	unit, ok := enriched.UnitCost()
	assert.True(t, ok)
	assert.Equal(t, 4.25, unit)

	missing := Enrich(domain.Transaction{SKU: "OTHER", MarketplaceCode: "UK"}, m)
	assert.Nil(t, missing.Product)
	_, ok = missing.UnitCost()
	assert.False(t, ok)
}

func TestEnrich_UnknownCostStaysNil(t *testing.T) {
	m := CreateProductMap([]domain.ProductInfo{{SKU: "X", Name: "no cost"}})
	enriched := Enrich(domain.Transaction{SKU: "X"}, m)
	require.NotNil(t, enriched.Product)
	assert.Nil(t, enriched.Product.ProductCost)
}

func TestEnrichAll(t *testing.T) {
	txs := []domain.Transaction{{ID: "1", SKU: "A"}, {ID: "2", SKU: "B"}}

	out := EnrichAll(txs, nil)
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].ID)
	assert.Nil(t, out[0].Product)

	out = EnrichAll(txs, CreateProductMap([]domain.ProductInfo{{SKU: "B"}}))
	assert.Nil(t, out[0].Product)
	assert.NotNil(t, out[1].Product)
}
