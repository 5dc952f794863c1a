package analytics

import (
	"math"
	"sort"

	"sellerpulse/pkg/contracts/domain"
)

// Breakdown labels.
const (
	MiscellaneousLabel = "Miscellaneous"
	AdvertisingLabel   = "Cost of Advertising"
)

// buckets accumulates labelled amounts in first-seen order.
type buckets struct {
	order   []string
	amounts map[string]float64
	counts  map[string]int
}

func newBuckets() *buckets {
	return &buckets{amounts: make(map[string]float64), counts: make(map[string]int)}
}

func (b *buckets) add(label string, amount float64) {
	if _, ok := b.amounts[label]; !ok {
		b.order = append(b.order, label)
	}
	b.amounts[label] += amount
	b.counts[label]++
}

func (b *buckets) items() []domain.BreakdownItem {
	out := make([]domain.BreakdownItem, 0, len(b.order))
	for _, label := range b.order {
		out = append(out, domain.BreakdownItem{Label: label, Amount: b.amounts[label], Count: b.counts[label]})
	}
	return out
}

// Consolidate folds every item whose absolute amount is under threshold
// into a single MiscellaneousLabel item and sorts the result by absolute
// amount, largest first, then by label. The sum of amounts and counts is
// preserved. Nothing is folded when threshold is not positive.
func Consolidate(items []domain.BreakdownItem, threshold float64) []domain.BreakdownItem {
	out := make([]domain.BreakdownItem, 0, len(items))
	var misc domain.BreakdownItem
	merged := false
	for _, item := range items {
		if item.Label == MiscellaneousLabel || (threshold > 0 && math.Abs(item.Amount) < threshold) {
			misc.Amount += item.Amount
			misc.Count += item.Count
			merged = true
			continue
		}
		out = append(out, item)
	}
	if merged {
		misc.Label = MiscellaneousLabel
		out = append(out, misc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := math.Abs(out[i].Amount), math.Abs(out[j].Amount)
		if ai != aj {
			return ai > aj
		}
		return out[i].Label < out[j].Label
	})
	return out
}
