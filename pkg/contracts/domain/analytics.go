package domain

import (
	"time"
)

// BreakdownItem is one bucket of a consolidated fee breakdown.
type BreakdownItem struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// Rollup is a grouped aggregation of order and refund rows.
type Rollup struct {
	Key   string `json:"key"`
	Label string `json:"label"`

	Revenue        float64 `json:"revenue"`
	Quantity       float64 `json:"quantity"`
	RefundQuantity float64 `json:"refund_quantity"`
	Orders         int     `json:"orders"`

	SellingFees          float64 `json:"selling_fees"`
	FBAFees              float64 `json:"fba_fees"`
	OtherTransactionFees float64 `json:"other_transaction_fees"`
	PromotionalRebates   float64 `json:"promotional_rebates"`
	RefundAmount         float64 `json:"refund_amount"`
	RefundLoss           float64 `json:"refund_loss"`
	NetProceeds          float64 `json:"net_proceeds"`

	ProductCost      float64 `json:"product_cost"`
	CostKnown        bool    `json:"cost_known"`
	UnknownCostUnits float64 `json:"unknown_cost_units"`
	Profit           float64 `json:"profit"`

	FeePercentage    float64 `json:"fee_percentage"`
	RefundRate       float64 `json:"refund_rate"`
	MarginPercentage float64 `json:"margin_percentage"`
}

// MarketplaceSummary is the per-marketplace slice of a cross-marketplace report.
type MarketplaceSummary struct {
	Code             string  `json:"code"`
	Currency         string  `json:"currency"`
	Sales            float64 `json:"sales"`
	Total            float64 `json:"total"`
	RefundAmount     float64 `json:"refund_amount"`
	RecoveryRate     float64 `json:"recovery_rate"`
	RecoveredRefunds float64 `json:"recovered_refunds"`
	ActualLoss       float64 `json:"actual_loss"`
	Orders           int     `json:"orders"`
	Transactions     int     `json:"transactions"`
	ConversionRate   float64 `json:"conversion_rate"`
}

// DetailedAnalytics is the full output of one aggregation run. It is
// regenerated on every filter change and never updated incrementally.
type DetailedAnalytics struct {
	Filters     Filters  `json:"filters"`
	Currency    string   `json:"currency"`
	RecordCount int      `json:"record_count"`
	RateSource  string   `json:"rate_source,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`

	TotalSales           float64 `json:"total_sales"`
	TotalOrders          int     `json:"total_orders"`
	UnitsSold            float64 `json:"units_sold"`
	UnitsRefunded        float64 `json:"units_refunded"`
	PromotionalRebates   float64 `json:"promotional_rebates"`
	SellingFees          float64 `json:"selling_fees"`
	FBAFees              float64 `json:"fba_fees"`
	OtherTransactionFees float64 `json:"other_transaction_fees"`
	VAT                  float64 `json:"vat"`

	AdvertisingCost     float64 `json:"advertising_cost"`
	AdvertisingProrated bool    `json:"advertising_prorated"`
	TotalRefundAmount   float64 `json:"total_refund_amount"`
	RecoveredRefunds    float64 `json:"recovered_refunds"`
	ActualRefundLoss    float64 `json:"actual_refund_loss"`
	RefundCount         int     `json:"refund_count"`

	FBACost      float64 `json:"fba_cost"`
	FBMCost      float64 `json:"fbm_cost"`
	Liquidations float64 `json:"liquidations"`

	ProductCost          float64 `json:"product_cost"`
	UnitsWithUnknownCost float64 `json:"units_with_unknown_cost"`
	NetProceeds          float64 `json:"net_proceeds"`
	NetProfit            float64 `json:"net_profit"`

	FeePercentage         float64 `json:"fee_percentage"`
	AdvertisingPercentage float64 `json:"advertising_percentage"`
	RefundLossPercentage  float64 `json:"refund_loss_percentage"`
	FBACostPercentage     float64 `json:"fba_cost_percentage"`
	MarginPercentage      float64 `json:"margin_percentage"`

	CategoryTotals   map[CategoryType]float64      `json:"category_totals"`
	CategoryCounts   map[CategoryType]int          `json:"category_counts"`
	InventoryFees    []BreakdownItem               `json:"inventory_fees"`
	Adjustments      []BreakdownItem               `json:"adjustments"`
	ServiceFees      []BreakdownItem               `json:"service_fees"`
	FulfillmentSales map[Fulfillment]float64       `json:"fulfillment_sales"`
	Marketplaces     map[string]MarketplaceSummary `json:"marketplaces"`
	PostalZones      []BreakdownItem               `json:"postal_zones,omitempty"`

	BySKU         []Rollup `json:"by_sku"`
	ByProduct     []Rollup `json:"by_product"`
	ByParent      []Rollup `json:"by_parent"`
	ByCategory    []Rollup `json:"by_category"`
	ByMarketplace []Rollup `json:"by_marketplace"`
}

// ComparisonMode selects how the comparison window is derived.
type ComparisonMode string

const (
	ComparePreviousPeriod ComparisonMode = "previous-period"
	ComparePreviousYear   ComparisonMode = "previous-year"
)

// Comparison is an analytics snapshot over a shifted window. Consumers
// diff it field by field against the current snapshot.
type Comparison struct {
	Mode      ComparisonMode     `json:"mode"`
	Label     string             `json:"label"`
	StartDate string             `json:"start_date"`
	EndDate   string             `json:"end_date"`
	Analytics *DetailedAnalytics `json:"analytics"`
}

// UploadEvent records one committed file import.
type UploadEvent struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	Marketplace string    `json:"marketplace"`
	UploadedAt  time.Time `json:"uploaded_at"`
	RowsRead    int       `json:"rows_read"`
	Accepted    int       `json:"accepted"`
	Inserted    int       `json:"inserted"`
	Duplicates  int       `json:"duplicates"`
	Dropped     int       `json:"dropped"`
}

// DateRange is an inclusive YYYY-MM-DD range.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// MarketplaceMetadata is the per-marketplace bookkeeping record of the store.
type MarketplaceMetadata struct {
	Code             string        `json:"code"`
	TransactionCount int           `json:"transactionCount"`
	DateRange        DateRange     `json:"dateRange"`
	UploadHistory    []UploadEvent `json:"uploadHistory"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}
