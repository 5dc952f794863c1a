package currency

import (
	"github.com/shopspring/decimal"
)

// Converter converts amounts with a fixed Matrix.
type Converter struct {
	matrix Matrix
}

// NewConverter creates a converter over m.
func NewConverter(m Matrix) *Converter {
	return &Converter{matrix: m}
}

// Convert returns amount in the to currency. Converting to the same
// currency returns amount unchanged; a pair without a rate returns 0.
func (c *Converter) Convert(amount float64, from, to string) float64 {
	if normalize(from) == normalize(to) {
		return amount
	}
	if c == nil {
		return 0
	}
	rate, ok := c.matrix.Rate(from, to)
	if !ok {
		return 0
	}
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(rate)).InexactFloat64()
}

// CanConvert reports whether a rate exists for from -> to.
func (c *Converter) CanConvert(from, to string) bool {
	if normalize(from) == normalize(to) {
		return true
	}
	if c == nil {
		return false
	}
	_, ok := c.matrix.Rate(from, to)
	return ok
}

// Matrix returns the converter's rate matrix.
func (c *Converter) Matrix() Matrix {
	if c == nil {
		return nil
	}
	return c.matrix
}
