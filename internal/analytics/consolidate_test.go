package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sellerpulse/pkg/contracts/domain"
)

func TestConsolidate(t *testing.T) {
	items := []domain.BreakdownItem{
		{Label: "Storage Fee", Amount: -4.5, Count: 3},
		{Label: "Long-Term Storage Fee", Amount: -120, Count: 1},
		{Label: "Disposal Fee", Amount: -9.99, Count: 2},
		{Label: "Return Fee", Amount: 15, Count: 1},
		{Label: "Capacity Reservation Fee", Amount: -10, Count: 1},
	}

	out := Consolidate(items, 10)

	require.Len(t, out, 4)
	assert.Equal(t, "Long-Term Storage Fee", out[0].Label)
	assert.Equal(t, "Return Fee", out[1].Label)
	assert.Equal(t, MiscellaneousLabel, out[2].Label)
	assert.InDelta(t, -14.49, out[2].Amount, 1e-9)
	assert.Equal(t, 5, out[2].Count)
	// exactly at the threshold is kept
	assert.Equal(t, "Capacity Reservation Fee", out[3].Label)
}

func TestConsolidate_PreservesTotals(t *testing.T) {
	tests := []struct {
		name      string
		items     []domain.BreakdownItem
		threshold float64
	}{
		{"mixed signs", []domain.BreakdownItem{{Label: "a", Amount: 3, Count: 1}, {Label: "b", Amount: -7, Count: 2}, {Label: "c", Amount: 42, Count: 1}}, 10},
		{"all small", []domain.BreakdownItem{{Label: "a", Amount: 1}, {Label: "b", Amount: 2}}, 10},
		{"existing misc bucket", []domain.BreakdownItem{{Label: MiscellaneousLabel, Amount: 50, Count: 4}, {Label: "x", Amount: 1, Count: 1}}, 10},
		{"no threshold", []domain.BreakdownItem{{Label: "a", Amount: 0.01}, {Label: "b", Amount: 200}}, 0},
		{"empty", nil, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var wantAmount float64
			var wantCount int
			for _, it := range tt.items {
				wantAmount += it.Amount
				wantCount += it.Count
			}

			out := Consolidate(tt.items, tt.threshold)

			var gotAmount float64
			var gotCount, miscBuckets int
			for _, it := range out {
				gotAmount += it.Amount
				gotCount += it.Count
				if it.Label == MiscellaneousLabel {
					miscBuckets++
				}
			}
			assert.InDelta(t, wantAmount, gotAmount, 1e-9)
			assert.Equal(t, wantCount, gotCount)
			assert.LessOrEqual(t, miscBuckets, 1)
			assert.NotNil(t, out)
		})
	}
}
