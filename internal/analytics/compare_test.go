package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "sellerpulse/internal/errors"
	"sellerpulse/pkg/contracts/domain"
)

func TestShiftRange(t *testing.T) {
	tests := []struct {
		name      string
		mode      domain.ComparisonMode
		start     string
		end       string
		wantStart string
		wantEnd   string
	}{
		{"month to previous 31 days", domain.ComparePreviousPeriod, "2024-03-01", "2024-03-31", "2024-01-30", "2024-02-29"},
		{"single day", domain.ComparePreviousPeriod, "2024-01-01", "2024-01-01", "2023-12-31", "2023-12-31"},
		{"week", domain.ComparePreviousPeriod, "2024-06-10", "2024-06-16", "2024-06-03", "2024-06-09"},
		{"previous year", domain.ComparePreviousYear, "2024-03-01", "2024-03-31", "2023-03-01", "2023-03-31"},
		{"leap day maps to feb 28", domain.ComparePreviousYear, "2024-02-01", "2024-02-29", "2023-02-01", "2023-02-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, label, err := ShiftRange(tt.mode, tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
			assert.Contains(t, label, tt.wantStart)
		})
	}
}

func TestShiftRange_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		mode       domain.ComparisonMode
		start, end string
	}{
		{"missing start", domain.ComparePreviousPeriod, "", "2024-01-31"},
		{"bad date", domain.ComparePreviousPeriod, "2024-13-01", "2024-12-31"},
		{"reversed", domain.ComparePreviousYear, "2024-02-01", "2024-01-01"},
		{"unknown mode", domain.ComparisonMode("next-week"), "2024-01-01", "2024-01-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := ShiftRange(tt.mode, tt.start, tt.end)
			require.Error(t, err)
			assert.Equal(t, apierrors.ErrTypeValidation, apierrors.TypeOf(err))
		})
	}
}

func TestAggregator_Compare(t *testing.T) {
	records := []domain.EnrichedTransaction{
		row("US", domain.CategoryOrder, "2023-03-15", order("1", "A", 1, 50, 40, domain.FulfillmentFBA)),
		row("UK", domain.CategoryOrder, "2023-03-15", order("2", "A", 1, 70, 60, domain.FulfillmentFBA)),
		row("US", domain.CategoryOrder, "2024-02-15", order("3", "A", 1, 30, 25, domain.FulfillmentFBA)),
		row("US", domain.CategoryOrder, "2024-03-15", order("4", "A", 1, 90, 80, domain.FulfillmentFBA)),
	}
	f := domain.Filters{Marketplace: "US", StartDate: "2024-03-01", EndDate: "2024-03-31"}
	agg := newTestAggregator(nil)

	yoy, err := agg.Compare(records, f, domain.ComparePreviousYear)
	require.NoError(t, err)
	assert.Equal(t, domain.ComparePreviousYear, yoy.Mode)
	assert.Equal(t, "2023-03-01", yoy.StartDate)
	assert.InDelta(t, 50.0, yoy.Analytics.TotalSales, 1e-9)
	assert.Equal(t, "US", yoy.Analytics.Filters.Marketplace)

	prev, err := agg.Compare(records, f, domain.ComparePreviousPeriod)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, prev.Analytics.TotalSales, 1e-9)

	_, err = agg.Compare(records, domain.Filters{Marketplace: "US"}, domain.ComparePreviousPeriod)
	assert.Error(t, err)
}
