package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sellerpulse/internal/shared/testutil"
	"sellerpulse/pkg/contracts/domain"
)

// reportRow lays values out in testutil.ReportHeaders order.
func reportRow(t *testing.T, values map[Field]string) []string {
	t.Helper()
	columns := BuildColumnMap(testutil.ReportHeaders)
	row := make([]string, len(testutil.ReportHeaders))
	for f, v := range values {
		idx, ok := columns[f]
		require.True(t, ok, "field %s not mapped", f)
		row[idx] = v
	}
	return row
}

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder(BuildColumnMap(testutil.ReportHeaders), "UK", "2024Jan_UK.xlsx")

	row := reportRow(t, map[Field]string{
		FieldDate:                 "15 Jan 2024 10:30:00 UTC",
		FieldType:                 "Order",
		FieldOrderID:              "202-1234567-7654321",
		FieldSKU:                  "MUG-RED",
		FieldDescription:          "Red Mug",
		FieldQuantity:             "2",
		FieldMarketplace:          "amazon.co.uk",
		FieldFulfillment:          "Amazon",
		FieldProductSales:         "20.00",
		FieldProductSalesTax:      "4.00",
		FieldPromotionalRebates:   "-1.00",
		FieldSellingFees:          "-3.00",
		FieldFBAFees:              "-2.50",
		FieldOtherTransactionFees: "-0.10",
		FieldOther:                "0",
		FieldTotal:                "17.40",
	})

	tx, reason := b.Build(row, 9)
	require.Equal(t, DropNone, reason)

	assert.Equal(t, "2024Jan_UK_xlsx_9", tx.ID)
	assert.Equal(t, "2024-01-15", tx.DateOnly)
	assert.Equal(t, domain.CategoryOrder, tx.CategoryType)
	assert.Equal(t, "UK", tx.MarketplaceCode)
	assert.Equal(t, "amazon.co.uk", tx.Marketplace)
	assert.Equal(t, domain.FulfillmentFBA, tx.Fulfillment)
	assert.Equal(t, 2.0, tx.Quantity)
	// UK gross sales include VAT
	assert.InDelta(t, 24.0, tx.ProductSales, 1e-9)
	assert.InDelta(t, 4.0, tx.VAT, 1e-9)
	assert.InDelta(t, 17.4, tx.Total, 1e-9)
	assert.Equal(t, 0.0, tx.Liquidations)
	assert.Equal(t, "red mug", tx.DescriptionLower)
	assert.Equal(t, "2024Jan_UK.xlsx", tx.SourceFile)
	assert.Equal(t, "20240115T103000_202-1234567-7654321_MUG-RED_Order_17_40", tx.UniqueKey)
}

func TestBuilder_MarketplaceFormulas(t *testing.T) {
	tests := []struct {
		name         string
		code         string
		typ          string
		wantSales    float64
		wantVAT      float64
		wantLiquid   float64
		wantCategory domain.CategoryType
	}{
		{"us sales only", "US", "Order", 100, 0, 0, domain.CategoryOrder},
		{"de sales plus tax", "DE", "Order", 119, 19, 0, domain.CategoryOrder},
		{"ae principal includes tax", "AE", "Order", 100, 19, 0, domain.CategoryOrder},
		{"us liquidation", "US", "Liquidations", 100, 0, 50, domain.CategoryLiquidations},
		{"ca has no liquidations", "CA", "Liquidations", 100, 0, 0, domain.CategoryLiquidations},
		{"us liquidation adjustment", "US", "Liquidations Adjustments", 100, 0, 0, domain.CategoryLiquidations},
		{"de liquidation", "DE", "Liquidationen", 119, 19, 50, domain.CategoryLiquidations},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(BuildColumnMap(testutil.ReportHeaders), tt.code, "f.xlsx")
			row := reportRow(t, map[Field]string{
				FieldDate:            "2024-03-01",
				FieldType:            tt.typ,
				FieldProductSales:    "100",
				FieldProductSalesTax: "19",
				FieldTotal:           "50",
			})

			tx, reason := b.Build(row, 2)
			require.Equal(t, DropNone, reason)
			assert.Equal(t, tt.wantCategory, tx.CategoryType)
			assert.InDelta(t, tt.wantSales, tx.ProductSales, 1e-9)
			assert.InDelta(t, tt.wantVAT, tx.VAT, 1e-9)
			assert.InDelta(t, tt.wantLiquid, tx.Liquidations, 1e-9)
		})
	}
}

func TestBuilder_Drops(t *testing.T) {
	b := NewBuilder(BuildColumnMap(testutil.ReportHeaders), "US", "f.xlsx")

	_, reason := b.Build(reportRow(t, map[Field]string{FieldDate: "Jan 1, 2024", FieldType: "Transfer"}), 2)
	assert.Equal(t, DropUnknownType, reason)

	_, reason = b.Build(reportRow(t, map[Field]string{FieldDate: "someday", FieldType: "Order"}), 3)
	assert.Equal(t, DropBadDate, reason)

	_, reason = b.Build(make([]string, 5), 4)
	assert.Equal(t, DropBlank, reason)
}

func TestBuilder_MissingColumnsDefault(t *testing.T) {
	columns := BuildColumnMap([]string{"date/time", "type", "sku", "total"})
	b := NewBuilder(columns, "US", "f.xlsx")

	tx, reason := b.Build([]string{"Jan 2, 2024", "Refund", "SKU-1"}, 2)
	require.Equal(t, DropNone, reason)

	assert.Equal(t, 0.0, tx.Total)
	assert.Equal(t, "", tx.OrderID)
	assert.Equal(t, domain.FulfillmentUnknown, tx.Fulfillment)
	assert.Equal(t, "US", tx.MarketplaceCode)
}

func TestBuilder_MarketplaceResolution(t *testing.T) {
	columns := BuildColumnMap(testutil.ReportHeaders)

	// row cell wins over the file code
	b := NewBuilder(columns, "DE", "f.xlsx")
	tx, _ := b.Build(reportRow(t, map[Field]string{FieldDate: "2024-01-01", FieldType: "Order", FieldMarketplace: "amazon.fr"}), 2)
	assert.Equal(t, "FR", tx.MarketplaceCode)

	// unrecognised cell falls back to the file code
	tx, _ = b.Build(reportRow(t, map[Field]string{FieldDate: "2024-01-01", FieldType: "Order", FieldMarketplace: "Non-Amazon"}), 3)
	assert.Equal(t, "DE", tx.MarketplaceCode)

	// nothing known leaves it empty
	b = NewBuilder(columns, "", "f.xlsx")
	tx, _ = b.Build(reportRow(t, map[Field]string{FieldDate: "2024-01-01", FieldType: "Order"}), 4)
	assert.Equal(t, "", tx.MarketplaceCode)
}

func TestBuilder_NormalizesFeeDescriptions(t *testing.T) {
	b := NewBuilder(BuildColumnMap(testutil.ReportHeaders), "US", "f.xlsx")

	tx, _ := b.Build(reportRow(t, map[Field]string{
		FieldDate: "2024-01-01", FieldType: "FBA Inventory Fee", FieldOrderID: "FBA194PTBZ6H",
	}), 2)
	assert.Equal(t, LabelPartneredCarrier, tx.NormalizedDescription)

	tx, _ = b.Build(reportRow(t, map[Field]string{
		FieldDate: "2024-01-01", FieldType: "Service Fee", FieldDescription: "Cost of Advertising",
	}), 3)
	assert.Equal(t, "Cost of Advertising", tx.NormalizedDescription)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a_b-c_1_d", Sanitize("a b-c.1/d"))
	assert.Equal(t, "___", Sanitize("äöü"))
}
