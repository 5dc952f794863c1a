// Package analytics turns canonical transactions into DetailedAnalytics.
//
// Aggregation is a pure function of the records and the filters: every
// call recomputes the whole report, and identical inputs give identical
// output. Ratios use a zero guard, so an empty or zero-revenue slice
// reports 0 rather than NaN or Inf.
//
// Refund loss is computed per marketplace with that marketplace's recovery
// rate, even when a report spans several marketplaces. Advertising rows
// carry no fulfillment channel; under an FBA or FBM filter the advertising
// total is prorated by the channel's share of order sales.
//
// Cross-marketplace reports are converted to USD through a
// currency.Converter; a single-marketplace report stays in that
// marketplace's currency.
package analytics
