package products

import (
	"strings"

	"sellerpulse/internal/marketplace"
	"sellerpulse/pkg/contracts/domain"
)

// Map indexes product records by "CODE:SKU" and by bare SKU.
type Map map[string]domain.ProductInfo

// Key returns the marketplace-qualified lookup key.
func Key(code, sku string) string {
	return strings.ToUpper(strings.TrimSpace(code)) + ":" + strings.TrimSpace(sku)
}

// CreateProductMap indexes records under both their qualified and bare
// keys. When two records share a key, one with a known cost is never
// replaced by one without.
func CreateProductMap(records []domain.ProductInfo) Map {
	m := make(Map, len(records)*2)
	for _, p := range records {
		sku := strings.TrimSpace(p.SKU)
		if sku == "" {
			continue
		}
		p.SKU = sku
		if p.Marketplace != "" {
			m.put(Key(p.Marketplace, sku), p)
		}
		m.put(sku, p)
	}
	return m
}

func (m Map) put(key string, p domain.ProductInfo) {
	if existing, ok := m[key]; ok && existing.HasCost() && !p.HasCost() {
		return
	}
	m[key] = p
}

// Lookup resolves a product for a marketplace and SKU: the exact
// qualified key, then the code's canonical form and aliases, then the bare
// SKU.
func (m Map) Lookup(code, sku string) (domain.ProductInfo, bool) {
	sku = strings.TrimSpace(sku)
	if sku == "" || len(m) == 0 {
		return domain.ProductInfo{}, false
	}
	if code != "" {
		if p, ok := m[Key(code, sku)]; ok {
			return p, true
		}
		candidates := append([]string{marketplace.NormalizeCode(code)}, marketplace.Aliases(code)...)
		for _, alt := range candidates {
			if p, ok := m[Key(alt, sku)]; ok {
				return p, true
			}
		}
	}
	p, ok := m[sku]
	return p, ok
}

// Enrich joins product fields onto a transaction. Unmatched SKUs get a nil
// Product, which aggregation treats as unknown cost.
func Enrich(tx domain.Transaction, m Map) domain.EnrichedTransaction {
	out := domain.EnrichedTransaction{Transaction: tx}
	p, ok := m.Lookup(tx.MarketplaceCode, tx.SKU)
	if !ok {
		return out
	}
	out.Product = &domain.Enrichment{
		ASIN:                  p.ASIN,
		Name:                  p.Name,
		Parent:                p.Parent,
		ProductCategory:       p.Category,
		ProductCost:           p.Cost,
		ProductSize:           p.Size,
		ProductCustomShipping: p.CustomShipping,
		ProductFBMSource:      p.FBMSource,
	}
	return out
}

// EnrichAll enriches every transaction. A nil map yields unenriched
// records.
func EnrichAll(txs []domain.Transaction, m Map) []domain.EnrichedTransaction {
	out := make([]domain.EnrichedTransaction, len(txs))
	for i, tx := range txs {
		out[i] = Enrich(tx, m)
	}
	return out
}
