package currency

import (
	"sort"
	"strings"
)

// BaseCurrency is the reporting currency of cross-marketplace analytics.
const BaseCurrency = "USD"

// Matrix maps from-currency to to-currency to the multiplier that converts
// an amount between them.
type Matrix map[string]map[string]float64

// NewMatrixFromBase derives every cross rate from a table of units per one
// base unit. Non-positive rates are ignored.
func NewMatrixFromBase(base string, rates map[string]float64) Matrix {
	base = normalize(base)
	perBase := map[string]float64{base: 1}
	for code, r := range rates {
		if r > 0 {
			perBase[normalize(code)] = r
		}
	}
	perBase[base] = 1

	m := make(Matrix, len(perBase))
	for from, fromRate := range perBase {
		row := make(map[string]float64, len(perBase))
		for to, toRate := range perBase {
			row[to] = toRate / fromRate
		}
		m[from] = row
	}
	return m
}

// Rate returns the multiplier for from -> to.
func (m Matrix) Rate(from, to string) (float64, bool) {
	from, to = normalize(from), normalize(to)
	if from == to {
		return 1, true
	}
	row, ok := m[from]
	if !ok {
		return 0, false
	}
	r, ok := row[to]
	return r, ok && r > 0
}

// Currencies lists the currencies in the matrix, sorted.
func (m Matrix) Currencies() []string {
	out := make([]string, 0, len(m))
	for code := range m {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
