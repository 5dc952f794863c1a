package domain

// ProductInfo is one record of the remote SKU mapping. Nil pointers and
// empty strings mean "unknown"; they are never defaulted to zero.
type ProductInfo struct {
	SKU            string   `json:"sku"`
	Marketplace    string   `json:"marketplace,omitempty"`
	ASIN           string   `json:"asin,omitempty"`
	Name           string   `json:"name,omitempty"`
	Parent         string   `json:"parent,omitempty"`
	Category       string   `json:"category,omitempty"`
	Cost           *float64 `json:"cost"`
	Size           string   `json:"size,omitempty"`
	CustomShipping *float64 `json:"customShipping"`
	FBMSource      string   `json:"fbmSource,omitempty"`
}

// HasCost reports whether the product carries a known unit cost.
func (p ProductInfo) HasCost() bool {
	return p.Cost != nil
}

// Enrichment holds the product fields joined onto a transaction.
type Enrichment struct {
	ASIN                  string   `json:"asin,omitempty"`
	Name                  string   `json:"name,omitempty"`
	Parent                string   `json:"parent,omitempty"`
	ProductCategory       string   `json:"product_category,omitempty"`
	ProductCost           *float64 `json:"product_cost,omitempty"`
	ProductSize           string   `json:"product_size,omitempty"`
	ProductCustomShipping *float64 `json:"product_custom_shipping,omitempty"`
	ProductFBMSource      string   `json:"product_fbm_source,omitempty"`
}

// EnrichedTransaction is a Transaction with an optional product join.
// Product is nil when the SKU had no match.
type EnrichedTransaction struct {
	Transaction
	Product *Enrichment `json:"product,omitempty"`
}

// UnitCost returns the joined unit cost and whether it is known.
func (e EnrichedTransaction) UnitCost() (float64, bool) {
	if e.Product == nil || e.Product.ProductCost == nil {
		return 0, false
	}
	return *e.Product.ProductCost, true
}
