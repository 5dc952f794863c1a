package analytics

import (
	"strings"
	"time"

	"sellerpulse/pkg/contracts/domain"
)

var rowSeq int

// row builds an enriched transaction for tests. Amount fields are set by
// the caller through the mutators.
func row(code string, category domain.CategoryType, date string, mutate ...func(*domain.Transaction)) domain.EnrichedTransaction {
	rowSeq++
	d, _ := time.Parse("2006-01-02", date)
	tx := domain.Transaction{
		ID:              "test_" + strings.ReplaceAll(date, "-", "") + "_" + string(rune('a'+rowSeq%26)),
		Date:            d,
		DateOnly:        date,
		Type:            string(category),
		CategoryType:    category,
		MarketplaceCode: code,
		Fulfillment:     domain.FulfillmentUnknown,
	}
	for _, m := range mutate {
		m(&tx)
	}
	tx.DescriptionLower = strings.ToLower(tx.Description)
	if tx.NormalizedDescription == "" {
		tx.NormalizedDescription = tx.Description
	}
	return domain.EnrichedTransaction{Transaction: tx}
}

func order(orderID, sku string, qty, sales, total float64, channel domain.Fulfillment) func(*domain.Transaction) {
	return func(tx *domain.Transaction) {
		tx.OrderID = orderID
		tx.SKU = sku
		tx.Quantity = qty
		tx.ProductSales = sales
		tx.Total = total
		tx.Fulfillment = channel
	}
}

func total(v float64) func(*domain.Transaction) {
	return func(tx *domain.Transaction) { tx.Total = v }
}

func describe(desc string) func(*domain.Transaction) {
	return func(tx *domain.Transaction) { tx.Description = desc }
}

func withProduct(et domain.EnrichedTransaction, p domain.Enrichment) domain.EnrichedTransaction {
	et.Product = &p
	return et
}

func costOf(v float64) *float64 { return &v }
