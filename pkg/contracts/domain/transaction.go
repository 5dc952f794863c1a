package domain

import (
	"time"
)

// CategoryType is the canonical classification of a settlement row.
// The set is closed: rows whose type cannot be mapped to one of these
// values never enter the dataset.
type CategoryType string

const (
	CategoryOrder              CategoryType = "Order"
	CategoryRefund             CategoryType = "Refund"
	CategoryAdjustment         CategoryType = "Adjustment"
	CategoryFBAInventoryFee    CategoryType = "FBA Inventory Fee"
	CategoryChargebackRefund   CategoryType = "Chargeback Refund"
	CategoryServiceFee         CategoryType = "Service Fee"
	CategoryFBATransactionFee  CategoryType = "FBA Transaction Fee"
	CategoryFeeAdjustment      CategoryType = "Fee Adjustment"
	CategorySAFETReimbursement CategoryType = "SAFE-T Reimbursement"
	CategoryLiquidations       CategoryType = "Liquidations"
	CategoryShippingServices   CategoryType = "Shipping Services"
)

// AllCategories lists every CategoryType in reporting order.
var AllCategories = []CategoryType{
	CategoryOrder,
	CategoryRefund,
	CategoryAdjustment,
	CategoryFBAInventoryFee,
	CategoryChargebackRefund,
	CategoryServiceFee,
	CategoryFBATransactionFee,
	CategoryFeeAdjustment,
	CategorySAFETReimbursement,
	CategoryLiquidations,
	CategoryShippingServices,
}

// Valid reports whether c is a member of the closed category set.
func (c CategoryType) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Fulfillment identifies the fulfillment channel of a row.
type Fulfillment string

const (
	FulfillmentFBA     Fulfillment = "FBA"
	FulfillmentFBM     Fulfillment = "FBM"
	FulfillmentMixed   Fulfillment = "Mixed"
	FulfillmentUnknown Fulfillment = "unknown"
)

// Transaction is the canonical, classified form of one spreadsheet row.
// All financial fields are in the marketplace's local currency.
type Transaction struct {
	ID        string `json:"id"`
	UniqueKey string `json:"unique_key"`

	Date     time.Time `json:"date"`
	DateOnly string    `json:"date_only"`

	Type         string       `json:"type"`
	CategoryType CategoryType `json:"category_type"`

	OrderID          string  `json:"order_id"`
	SKU              string  `json:"sku"`
	Quantity         float64 `json:"quantity"`
	Description      string  `json:"description"`
	DescriptionLower string  `json:"description_lower"`
	OrderPostal      string  `json:"order_postal,omitempty"`

	Marketplace     string      `json:"marketplace"`
	MarketplaceCode string      `json:"marketplace_code"`
	Fulfillment     Fulfillment `json:"fulfillment"`

	ProductSales         float64 `json:"product_sales"`
	PromotionalRebates   float64 `json:"promotional_rebates"`
	SellingFees          float64 `json:"selling_fees"`
	FBAFees              float64 `json:"fba_fees"`
	OtherTransactionFees float64 `json:"other_transaction_fees"`
	Other                float64 `json:"other"`
	VAT                  float64 `json:"vat"`
	Liquidations         float64 `json:"liquidations"`
	Total                float64 `json:"total"`

	// NormalizedDescription holds the canonical fee label for inventory fee
	// and adjustment rows, and the raw description otherwise.
	NormalizedDescription string `json:"normalized_description,omitempty"`

	SourceFile string `json:"source_file,omitempty"`
}

// Filters selects the slice of the dataset an analytics run covers.
// Dates are inclusive YYYY-MM-DD strings; an empty bound is open.
type Filters struct {
	StartDate   string      `json:"start_date,omitempty"`
	EndDate     string      `json:"end_date,omitempty"`
	Marketplace string      `json:"marketplace,omitempty"`
	Fulfillment Fulfillment `json:"fulfillment,omitempty"`
}

// AllMarketplaces is the Filters.Marketplace value for cross-marketplace mode.
const AllMarketplaces = "all"

// CrossMarketplace reports whether the filter spans every marketplace.
func (f Filters) CrossMarketplace() bool {
	return f.Marketplace == "" || f.Marketplace == AllMarketplaces
}

// FulfillmentFiltered reports whether a single fulfillment channel is selected.
func (f Filters) FulfillmentFiltered() bool {
	return f.Fulfillment == FulfillmentFBA || f.Fulfillment == FulfillmentFBM
}
