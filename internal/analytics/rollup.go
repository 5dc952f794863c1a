package analytics

import (
	"math"
	"sort"

	"sellerpulse/pkg/contracts/domain"
)

// Fallback rollup keys for records without product data.
const (
	UnmappedProduct  = "Unmapped"
	UncategorizedKey = "Uncategorized"
)

// grouping maps a record to its rollup key and display label.
type grouping func(r record) (key, label string)

func bySKU(r record) (string, string) {
	if r.Product != nil && r.Product.Name != "" {
		return r.SKU, r.Product.Name
	}
	return r.SKU, r.SKU
}

func byProduct(r record) (string, string) {
	if r.Product != nil && r.Product.Name != "" {
		return r.Product.Name, r.Product.Name
	}
	return UnmappedProduct, UnmappedProduct
}

func byParent(r record) (string, string) {
	if r.Product != nil && r.Product.Parent != "" {
		return r.Product.Parent, r.Product.Parent
	}
	return UnmappedProduct, UnmappedProduct
}

func byCategory(r record) (string, string) {
	if r.Product != nil && r.Product.ProductCategory != "" {
		return r.Product.ProductCategory, r.Product.ProductCategory
	}
	return UncategorizedKey, UncategorizedKey
}

func byMarketplace(r record) (string, string) {
	return r.MarketplaceCode, r.cfg.Name
}

type rollupAcc struct {
	rollup  domain.Rollup
	orders  map[string]bool
	refunds map[string]float64
	rates   map[string]float64
}

// buildRollups groups order and refund records. Each group derives its own
// revenue, quantities, fees, refund loss and ratios.
func buildRollups(rows []record, group grouping) []domain.Rollup {
	accs := make(map[string]*rollupAcc)
	for _, r := range rows {
		if r.CategoryType != domain.CategoryOrder && r.CategoryType != domain.CategoryRefund {
			continue
		}
		key, label := group(r)
		acc, ok := accs[key]
		if !ok {
			acc = &rollupAcc{
				rollup:  domain.Rollup{Key: key, Label: label},
				orders:  make(map[string]bool),
				refunds: make(map[string]float64),
				rates:   make(map[string]float64),
			}
			accs[key] = acc
		}
		ro := &acc.rollup

		if r.CategoryType == domain.CategoryOrder {
			ro.Revenue += r.ProductSales
			ro.Quantity += r.Quantity
			countOrder(acc.orders, r)
			if r.costKnown {
				ro.ProductCost += r.unitCost * r.Quantity
			} else {
				ro.UnknownCostUnits += r.Quantity
			}
		} else {
			ro.RefundQuantity += math.Abs(r.Quantity)
			acc.refunds[r.MarketplaceCode] += r.Total
			acc.rates[r.MarketplaceCode] = r.cfg.RefundRecoveryRate
		}
		ro.SellingFees += r.SellingFees
		ro.FBAFees += r.FBAFees
		ro.OtherTransactionFees += r.OtherTransactionFees
		ro.PromotionalRebates += r.PromotionalRebates
		ro.NetProceeds += r.Total
	}

	out := make([]domain.Rollup, 0, len(accs))
	for _, key := range sortedKeys(accs) {
		acc := accs[key]
		ro := acc.rollup
		ro.Orders = len(acc.orders)
		for _, code := range sortedKeys(acc.refunds) {
			amount := math.Abs(acc.refunds[code])
			_, loss := refundSplit(amount, acc.rates[code])
			ro.RefundAmount += amount
			ro.RefundLoss += loss
		}
		ro.CostKnown = ro.Quantity > 0 && ro.UnknownCostUnits == 0
		ro.Profit = ro.NetProceeds - ro.ProductCost

		fees := math.Abs(ro.SellingFees + ro.FBAFees + ro.OtherTransactionFees)
		ro.FeePercentage = percent(fees, ro.Revenue)
		ro.MarginPercentage = percent(ro.Profit, ro.Revenue)
		ro.RefundRate = percent(ro.RefundQuantity, ro.Quantity)
		out = append(out, ro)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Key < out[j].Key
	})
	return out
}
