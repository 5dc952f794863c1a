// Package currency converts marketplace-local amounts into the reporting
// currency.
//
// A Matrix holds direct rates between every pair of known currencies and
// is normally derived from a single base-currency table. Converter
// returns zero for a pair it has no rate for, so a gap shows up as a
// visibly low total instead of an amount silently left in the wrong
// currency.
//
// Provider sources the base table: the live rate service first, then the
// last table it cached (in memory or through a RateCache), then built-in
// fallback rates. Every RateTable carries the Source it came from.
package currency
