package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"

	"sellerpulse/internal/marketplace"
	"sellerpulse/pkg/contracts/domain"
)

// DropReason explains why a row did not become a transaction.
type DropReason string

const (
	DropNone        DropReason = ""
	DropBlank       DropReason = "blank"
	DropUnknownType DropReason = "unknown_type"
	DropBadDate     DropReason = "bad_date"
)

// Builder turns raw report rows into canonical transactions. It is bound
// to one sheet's column map and the marketplace detected for the file.
type Builder struct {
	columns         ColumnMap
	fileMarketplace string
	fileName        string
	idPrefix        string
}

// NewBuilder creates a builder for one sheet.
func NewBuilder(columns ColumnMap, fileMarketplace, fileName string) *Builder {
	return &Builder{
		columns:         columns,
		fileMarketplace: marketplace.NormalizeCode(fileMarketplace),
		fileName:        fileName,
		idPrefix:        Sanitize(fileName),
	}
}

// Build converts one row. Missing columns and unparseable amounts default
// to empty strings and zero; an unknown type or unparseable date drops the
// row.
func (b *Builder) Build(row []string, rowIndex int) (domain.Transaction, DropReason) {
	if isBlankRow(row) {
		return domain.Transaction{}, DropBlank
	}

	rawType := b.cell(row, FieldType)
	category, ok := Classify(rawType)
	if !ok {
		return domain.Transaction{}, DropUnknownType
	}

	rawMarketplace := b.cell(row, FieldMarketplace)
	code := b.resolveMarketplace(rawMarketplace)
	cfg := marketplace.MustLookup(code)

	date, ok := ParseDate(b.cell(row, FieldDate), cfg.DayFirst)
	if !ok {
		return domain.Transaction{}, DropBadDate
	}

	sales := b.amount(row, FieldProductSales)
	tax := b.amount(row, FieldProductSalesTax)
	total := b.amount(row, FieldTotal)

	vat := 0.0
	if cfg.HasVAT {
		vat = tax
	}
	liquidations := 0.0
	if cfg.HasLiquidations && IsLiquidationProceeds(rawType) {
		liquidations = total
	}

	fulfillment := domain.FulfillmentUnknown
	if b.columns.Has(FieldFulfillment) {
		fulfillment = ParseFulfillment(b.cell(row, FieldFulfillment))
	}

	orderID := b.cell(row, FieldOrderID)
	sku := b.cell(row, FieldSKU)
	description := b.cell(row, FieldDescription)

	tx := domain.Transaction{
		ID:                    fmt.Sprintf("%s_%d", b.idPrefix, rowIndex),
		Date:                  date,
		DateOnly:              DateOnly(date),
		Type:                  strings.TrimSpace(rawType),
		CategoryType:          category,
		OrderID:               orderID,
		SKU:                   sku,
		Quantity:              b.amount(row, FieldQuantity),
		Description:           description,
		DescriptionLower:      strings.ToLower(description),
		OrderPostal:           b.cell(row, FieldOrderPostal),
		Marketplace:           rawMarketplace,
		MarketplaceCode:       code,
		Fulfillment:           fulfillment,
		ProductSales:          cfg.GrossSalesOf(sales, tax),
		PromotionalRebates:    b.amount(row, FieldPromotionalRebates),
		SellingFees:           b.amount(row, FieldSellingFees),
		FBAFees:               b.amount(row, FieldFBAFees),
		OtherTransactionFees:  b.amount(row, FieldOtherTransactionFees),
		Other:                 b.amount(row, FieldOther),
		VAT:                   vat,
		Liquidations:          liquidations,
		Total:                 total,
		NormalizedDescription: NormalizeDescription(category, description, orderID),
		SourceFile:            b.fileName,
	}
	tx.UniqueKey = UniqueKey(tx)
	return tx, DropNone
}

// resolveMarketplace prefers the row's own marketplace cell over the code
// detected for the whole file.
func (b *Builder) resolveMarketplace(cell string) string {
	if cell != "" {
		if code, ok := marketplace.Detect(cell); ok {
			return code
		}
	}
	return b.fileMarketplace
}

func (b *Builder) cell(row []string, f Field) string {
	idx, ok := b.columns[f]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (b *Builder) amount(row []string, f Field) float64 {
	return ParseAmount(b.cell(row, f))
}

// UniqueKey derives the dedup key from date, order ID, SKU, type and total.
func UniqueKey(tx domain.Transaction) string {
	parts := []string{
		tx.Date.Format("20060102T150405"),
		tx.OrderID,
		tx.SKU,
		tx.Type,
		strconv.FormatFloat(tx.Total, 'f', 2, 64),
	}
	return Sanitize(strings.Join(parts, "_"))
}

// Sanitize replaces every character outside [A-Za-z0-9_-] with '_'.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
