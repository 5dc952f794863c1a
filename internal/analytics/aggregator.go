package analytics

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"sellerpulse/internal/currency"
	"sellerpulse/internal/dataprocessing"
	"sellerpulse/internal/marketplace"
	"sellerpulse/pkg/contracts/domain"
)

// DefaultMiscThreshold is the absolute amount under which a breakdown
// bucket is folded into MiscellaneousLabel.
const DefaultMiscThreshold = 10.0

// Config configures an Aggregator.
type Config struct {
	MiscThreshold float64
	// Converter is used for cross-marketplace reports. Without one, amounts
	// are summed unconverted and the report carries a warning.
	Converter *currency.Converter
	// RateSource is copied onto cross-marketplace reports.
	RateSource string
}

// Aggregator computes DetailedAnalytics. It holds no state between calls.
type Aggregator struct {
	logger        *slog.Logger
	converter     *currency.Converter
	rateSource    string
	miscThreshold float64
	lookup        func(code string) marketplace.Config
}

// NewAggregator creates an aggregator.
func NewAggregator(logger *slog.Logger, cfg Config) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MiscThreshold <= 0 {
		cfg.MiscThreshold = DefaultMiscThreshold
	}
	return &Aggregator{
		logger:        logger.With(slog.String("component", "analytics")),
		converter:     cfg.Converter,
		rateSource:    cfg.RateSource,
		miscThreshold: cfg.MiscThreshold,
		lookup:        marketplace.MustLookup,
	}
}

// record is a filtered transaction with its amounts in the reporting
// currency.
type record struct {
	domain.EnrichedTransaction
	cfg       marketplace.Config
	ad        bool
	unitCost  float64
	costKnown bool
	rate      float64
}

// fbaCostCategories are summed (signed) into FBA cost.
var fbaCostCategories = map[domain.CategoryType]bool{
	domain.CategoryAdjustment:         true,
	domain.CategoryFBAInventoryFee:    true,
	domain.CategoryChargebackRefund:   true,
	domain.CategoryServiceFee:         true,
	domain.CategoryFBATransactionFee:  true,
	domain.CategoryFeeAdjustment:      true,
	domain.CategorySAFETReimbursement: true,
}

// Aggregate computes the report for the records matching f.
func (a *Aggregator) Aggregate(records []domain.EnrichedTransaction, f domain.Filters) *domain.DetailedAnalytics {
	out := newAnalytics(f)
	cross := f.CrossMarketplace()

	if cross {
		out.Currency = currency.BaseCurrency
		out.RateSource = a.rateSource
		if a.converter == nil {
			out.Currency = ""
			out.Warnings = append(out.Warnings, "exchange rates unavailable; amounts are summed in their local currencies")
		}
	} else {
		out.Currency = a.lookup(marketplace.NormalizeCode(f.Marketplace)).Currency
	}

	rows, missingRates := a.prepare(records, f, out.Currency)
	for _, cur := range missingRates {
		out.Warnings = append(out.Warnings, fmt.Sprintf("no exchange rate for %s; its amounts count as 0", cur))
	}

	adShare := 1.0
	if f.FulfillmentFiltered() {
		adShare = channelShare(rows, f.Fulfillment)
		out.AdvertisingProrated = true
	}

	kept := make([]record, 0, len(rows))
	for _, r := range rows {
		if r.ad || !f.FulfillmentFiltered() || channelOf(r.Transaction) == f.Fulfillment {
			kept = append(kept, r)
		}
	}
	out.RecordCount = len(kept)

	a.summarize(out, kept, adShare)
	a.refunds(out, kept)
	a.costs(out, kept, adShare)
	a.breakdowns(out, kept, adShare)
	a.marketplaceSummaries(out, kept)
	out.PostalZones = postalZones(kept)

	out.BySKU = buildRollups(kept, bySKU)
	out.ByProduct = buildRollups(kept, byProduct)
	out.ByParent = buildRollups(kept, byParent)
	out.ByCategory = buildRollups(kept, byCategory)
	out.ByMarketplace = buildRollups(kept, byMarketplace)

	a.ratios(out)

	a.logger.Debug("analytics computed",
		slog.Int("records", out.RecordCount),
		slog.String("marketplace", f.Marketplace),
		slog.String("fulfillment", string(f.Fulfillment)),
		slog.Float64("total_sales", out.TotalSales))
	return out
}

func newAnalytics(f domain.Filters) *domain.DetailedAnalytics {
	return &domain.DetailedAnalytics{
		Filters:          f,
		CategoryTotals:   make(map[domain.CategoryType]float64),
		CategoryCounts:   make(map[domain.CategoryType]int),
		FulfillmentSales: make(map[domain.Fulfillment]float64),
		Marketplaces:     make(map[string]domain.MarketplaceSummary),
		InventoryFees:    []domain.BreakdownItem{},
		Adjustments:      []domain.BreakdownItem{},
		ServiceFees:      []domain.BreakdownItem{},
		BySKU:            []domain.Rollup{},
		ByProduct:        []domain.Rollup{},
		ByParent:         []domain.Rollup{},
		ByCategory:       []domain.Rollup{},
		ByMarketplace:    []domain.Rollup{},
	}
}

// prepare applies the date and marketplace filters and converts amounts
// into the reporting currency. It returns the currencies that had no rate.
func (a *Aggregator) prepare(records []domain.EnrichedTransaction, f domain.Filters, reporting string) ([]record, []string) {
	code := ""
	if !f.CrossMarketplace() {
		code = marketplace.NormalizeCode(f.Marketplace)
	}

	missing := make(map[string]bool)
	rates := make(map[string]float64)
	rows := make([]record, 0, len(records))
	for _, tx := range records {
		if f.StartDate != "" && tx.DateOnly < f.StartDate {
			continue
		}
		if f.EndDate != "" && tx.DateOnly > f.EndDate {
			continue
		}
		if code != "" && tx.MarketplaceCode != code {
			continue
		}

		cfg := a.lookup(tx.MarketplaceCode)
		rate := 1.0
		if f.CrossMarketplace() && a.converter != nil {
			r, ok := rates[cfg.Currency]
			if !ok {
				r = a.converter.Convert(1, cfg.Currency, reporting)
				rates[cfg.Currency] = r
				if !a.converter.CanConvert(cfg.Currency, reporting) {
					missing[cfg.Currency] = true
				}
			}
			rate = r
		}

		r := record{EnrichedTransaction: tx, cfg: cfg, rate: rate}
		if rate != 1 {
			r.Transaction = convertTransaction(tx.Transaction, rate)
		}
		if tx.CategoryType == domain.CategoryServiceFee {
			r.ad = dataprocessing.IsAdvertisingDescription(tx.DescriptionLower)
		}
		if unit, ok := tx.UnitCost(); ok {
			r.unitCost = convertAmount(unit, rate)
			r.costKnown = true
		}
		rows = append(rows, r)
	}

	out := make([]string, 0, len(missing))
	for cur := range missing {
		out = append(out, cur)
	}
	sort.Strings(out)
	return rows, out
}

func convertAmount(v, rate float64) float64 {
	if rate == 1 {
		return v
	}
	return decimal.NewFromFloat(v).Mul(decimal.NewFromFloat(rate)).InexactFloat64()
}

func convertTransaction(tx domain.Transaction, rate float64) domain.Transaction {
	tx.ProductSales = convertAmount(tx.ProductSales, rate)
	tx.PromotionalRebates = convertAmount(tx.PromotionalRebates, rate)
	tx.SellingFees = convertAmount(tx.SellingFees, rate)
	tx.FBAFees = convertAmount(tx.FBAFees, rate)
	tx.OtherTransactionFees = convertAmount(tx.OtherTransactionFees, rate)
	tx.Other = convertAmount(tx.Other, rate)
	tx.VAT = convertAmount(tx.VAT, rate)
	tx.Liquidations = convertAmount(tx.Liquidations, rate)
	tx.Total = convertAmount(tx.Total, rate)
	return tx
}

// channelOf attributes a transaction to FBA or FBM. Rows without a channel
// tag are attributed by category: shipping label purchases to FBM, the
// Amazon fee categories to FBA. Untagged orders and refunds cannot be
// attributed and report FulfillmentUnknown.
func channelOf(tx domain.Transaction) domain.Fulfillment {
	switch tx.Fulfillment {
	case domain.FulfillmentFBA, domain.FulfillmentFBM:
		return tx.Fulfillment
	}
	switch tx.CategoryType {
	case domain.CategoryShippingServices:
		return domain.FulfillmentFBM
	case domain.CategoryOrder, domain.CategoryRefund:
		return domain.FulfillmentUnknown
	default:
		return domain.FulfillmentFBA
	}
}

// channelShare is the channel's share of tagged order sales among rows.
func channelShare(rows []record, channel domain.Fulfillment) float64 {
	var channelSales, taggedSales float64
	for _, r := range rows {
		if r.CategoryType != domain.CategoryOrder {
			continue
		}
		switch r.Fulfillment {
		case domain.FulfillmentFBA, domain.FulfillmentFBM:
			taggedSales += r.ProductSales
			if r.Fulfillment == channel {
				channelSales += r.ProductSales
			}
		}
	}
	return ratio(channelSales, taggedSales)
}

// signed returns the amount a row contributes: advertising rows are scaled
// by the channel share.
func signed(r record, v, adShare float64) float64 {
	if r.ad {
		return v * adShare
	}
	return v
}

func (a *Aggregator) summarize(out *domain.DetailedAnalytics, rows []record, adShare float64) {
	orders := make(map[string]bool)
	for _, r := range rows {
		out.CategoryTotals[r.CategoryType] += signed(r, r.Total, adShare)
		out.CategoryCounts[r.CategoryType]++
		out.NetProceeds += signed(r, r.Total, adShare)

		switch r.CategoryType {
		case domain.CategoryOrder:
			out.TotalSales += r.ProductSales
			out.UnitsSold += r.Quantity
			out.FulfillmentSales[r.Fulfillment] += r.ProductSales
			countOrder(orders, r)
			if r.costKnown {
				out.ProductCost += r.unitCost * r.Quantity
			} else {
				out.UnitsWithUnknownCost += r.Quantity
			}
		case domain.CategoryRefund:
			out.UnitsRefunded += math.Abs(r.Quantity)
		default:
			continue
		}
		out.PromotionalRebates += r.PromotionalRebates
		out.SellingFees += r.SellingFees
		out.FBAFees += r.FBAFees
		out.OtherTransactionFees += r.OtherTransactionFees
		out.VAT += r.VAT
	}
	out.TotalOrders = len(orders)
	out.NetProfit = out.NetProceeds - out.ProductCost
}

// countOrder records a distinct order. Rows without an order ID count
// individually.
func countOrder(orders map[string]bool, r record) {
	key := r.MarketplaceCode + "|" + r.OrderID
	if r.OrderID == "" {
		key = "row|" + r.ID
	}
	orders[key] = true
}

// refundSplit splits a refund amount into recovered and lost parts that sum
// exactly to the amount.
func refundSplit(amount, recoveryRate float64) (recovered, loss float64) {
	total := decimal.NewFromFloat(amount)
	rec := total.Mul(decimal.NewFromFloat(recoveryRate))
	return rec.InexactFloat64(), total.Sub(rec).InexactFloat64()
}

func (a *Aggregator) refunds(out *domain.DetailedAnalytics, rows []record) {
	sums := make(map[string]float64)
	cfgs := make(map[string]marketplace.Config)
	for _, r := range rows {
		if r.CategoryType != domain.CategoryRefund {
			continue
		}
		sums[r.MarketplaceCode] += r.Total
		cfgs[r.MarketplaceCode] = r.cfg
		out.RefundCount++
	}

	for _, code := range sortedKeys(sums) {
		amount := math.Abs(sums[code])
		recovered, loss := refundSplit(amount, cfgs[code].RefundRecoveryRate)
		out.TotalRefundAmount += amount
		out.RecoveredRefunds += recovered
		out.ActualRefundLoss += loss
	}
}

func (a *Aggregator) costs(out *domain.DetailedAnalytics, rows []record, adShare float64) {
	var advertising, fba, fbm float64
	for _, r := range rows {
		if r.ad {
			advertising += r.Total * adShare
		} else if fbaCostCategories[r.CategoryType] {
			fba += r.Total
		}
		if r.CategoryType == domain.CategoryLiquidations && r.cfg.HasLiquidations {
			fba += r.Liquidations
			out.Liquidations += r.Liquidations
		}

		src := r.cfg.FBMShipping
		if r.CategoryType == src.Category && (!src.RequireFBM || r.Fulfillment == domain.FulfillmentFBM) {
			fbm += src.Field.Value(r.Transaction)
		}
	}
	out.AdvertisingCost = math.Abs(advertising)
	out.FBACost = math.Abs(fba)
	out.FBMCost = math.Abs(fbm)
}

func (a *Aggregator) breakdowns(out *domain.DetailedAnalytics, rows []record, adShare float64) {
	inventory := newBuckets()
	adjustments := newBuckets()
	services := newBuckets()
	for _, r := range rows {
		label := r.NormalizedDescription
		switch r.CategoryType {
		case domain.CategoryFBAInventoryFee:
			inventory.add(label, r.Total)
		case domain.CategoryAdjustment:
			adjustments.add(label, r.Total)
		case domain.CategoryServiceFee:
			if r.ad {
				label = AdvertisingLabel
			}
			if strings.TrimSpace(label) == "" {
				label = dataprocessing.LabelOther
			}
			services.add(label, signed(r, r.Total, adShare))
		}
	}
	out.InventoryFees = Consolidate(inventory.items(), a.miscThreshold)
	out.Adjustments = Consolidate(adjustments.items(), a.miscThreshold)
	out.ServiceFees = Consolidate(services.items(), a.miscThreshold)
}

func (a *Aggregator) marketplaceSummaries(out *domain.DetailedAnalytics, rows []record) {
	type acc struct {
		summary domain.MarketplaceSummary
		refunds float64
		orders  map[string]bool
	}
	accs := make(map[string]*acc)
	for _, r := range rows {
		m, ok := accs[r.MarketplaceCode]
		if !ok {
			m = &acc{
				summary: domain.MarketplaceSummary{
					Code:           r.MarketplaceCode,
					Currency:       r.cfg.Currency,
					RecoveryRate:   r.cfg.RefundRecoveryRate,
					ConversionRate: r.rate,
				},
				orders: make(map[string]bool),
			}
			accs[r.MarketplaceCode] = m
		}
		m.summary.Transactions++
		m.summary.Total += r.Total
		switch r.CategoryType {
		case domain.CategoryOrder:
			m.summary.Sales += r.ProductSales
			countOrder(m.orders, r)
		case domain.CategoryRefund:
			m.refunds += r.Total
		}
	}

	for code, m := range accs {
		m.summary.Orders = len(m.orders)
		m.summary.RefundAmount = math.Abs(m.refunds)
		m.summary.RecoveredRefunds, m.summary.ActualLoss = refundSplit(m.summary.RefundAmount, m.summary.RecoveryRate)
		out.Marketplaces[code] = m.summary
	}
}

// postalZones groups orders of marketplaces with postal-zone analysis by
// the first digit of the postal code.
func postalZones(rows []record) []domain.BreakdownItem {
	zones := newBuckets()
	for _, r := range rows {
		if r.CategoryType != domain.CategoryOrder || !r.cfg.PostalZoneAnalysis {
			continue
		}
		postal := strings.TrimSpace(r.OrderPostal)
		if postal == "" || postal[0] < '0' || postal[0] > '9' {
			continue
		}
		zones.add("Zone "+postal[:1], r.ProductSales)
	}
	if len(zones.amounts) == 0 {
		return nil
	}
	items := zones.items()
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

func (a *Aggregator) ratios(out *domain.DetailedAnalytics) {
	sales := out.TotalSales
	fees := math.Abs(out.SellingFees + out.FBAFees + out.OtherTransactionFees)
	out.FeePercentage = percent(fees, sales)
	out.AdvertisingPercentage = percent(out.AdvertisingCost, sales)
	out.RefundLossPercentage = percent(out.ActualRefundLoss, sales)
	out.FBACostPercentage = percent(out.FBACost, sales)
	out.MarginPercentage = percent(out.NetProfit, sales)
}

// ratio returns n/d, or 0 when the division is undefined.
func ratio(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	v := n / d
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func percent(n, d float64) float64 {
	return ratio(n, d) * 100
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
