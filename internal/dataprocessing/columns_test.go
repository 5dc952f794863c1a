package dataprocessing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sellerpulse/internal/shared/testutil"
)

func TestResolveHeader(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		field   Field
		want    string
		found   bool
	}{
		{"english date", testutil.ReportHeaders, FieldDate, "date/time", true},
		{"case insensitive", []string{"DATE/TIME", "TYPE"}, FieldType, "TYPE", true},
		{"substring match", []string{"Settlement date/time (UTC)"}, FieldDate, "Settlement date/time (UTC)", true},
		{"exact match beats substring", testutil.ReportHeaders, FieldOther, "other", true},
		{"product sales not tax", testutil.ReportHeaders, FieldProductSales, "product sales", true},
		{"tax column", testutil.ReportHeaders, FieldProductSalesTax, "product sales tax", true},
		{"german total", testutil.GermanReportHeaders, FieldTotal, "Gesamt", true},
		{"german other", testutil.GermanReportHeaders, FieldOther, "Andere", true},
		{"german fulfillment", testutil.GermanReportHeaders, FieldFulfillment, "Versand", true},
		{"german fba fees", testutil.GermanReportHeaders, FieldFBAFees, "Gebühren zu Versand durch Amazon", true},
		{"missing", []string{"foo", "bar"}, FieldSKU, "", false},
		{"empty headers", nil, FieldSKU, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveHeader(tt.headers, tt.field)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildColumnMap(t *testing.T) {
	columns := BuildColumnMap(testutil.ReportHeaders)

	for _, f := range Fields {
		assert.True(t, columns.Has(f), "field %s not resolved", f)
	}
	assert.Equal(t, 0, columns[FieldDate])
	assert.Equal(t, 2, columns[FieldType])
	assert.Equal(t, 4, columns[FieldSKU])
	assert.Equal(t, len(testutil.ReportHeaders)-1, columns[FieldTotal])
	assert.Equal(t, len(testutil.ReportHeaders)-2, columns[FieldOther])
}

func TestBuildColumnMap_German(t *testing.T) {
	columns := BuildColumnMap(testutil.GermanReportHeaders)

	assert.Equal(t, 0, columns[FieldDate])
	assert.Equal(t, 2, columns[FieldType])
	assert.Equal(t, 3, columns[FieldOrderID])
	assert.Equal(t, 13, columns[FieldProductSales])
	assert.Equal(t, 14, columns[FieldProductSalesTax])
	assert.Equal(t, 26, columns[FieldTotal])
}

func TestLocateHeaderRow(t *testing.T) {
	rows := [][]string{
		{"Includes Amazon Marketplace, Fulfillment by Amazon (FBA), and Amazon Webstore transactions"},
		{"All amounts in local currency, unless specified"},
		{},
		testutil.ReportHeaders,
		{"Jan 1, 2024", "1", "Order"},
	}

	idx, err := LocateHeaderRow(rows, 20)
	require.NoError(t, err)
	assert.Equal(t, 3, idx)
}

func TestLocateHeaderRow_OutsideScanWindow(t *testing.T) {
	rows := make([][]string, 0, 25)
	for i := 0; i < 22; i++ {
		rows = append(rows, []string{"preamble"})
	}
	rows = append(rows, testutil.ReportHeaders)

	_, err := LocateHeaderRow(rows, 20)
	assert.True(t, errors.Is(err, ErrHeaderNotFound))
}

func TestIsHeaderRow(t *testing.T) {
	tests := []struct {
		name string
		row  []string
		want bool
	}{
		{"english header", testutil.ReportHeaders, true},
		{"german header", testutil.GermanReportHeaders, true},
		{"marketplace with other columns", []string{"marketplace", "total", "description"}, true},
		{"preamble mentioning marketplace", []string{"Includes Amazon Marketplace and Fulfillment by Amazon"}, false},
		{"data row", []string{"Jan 1, 2024", "123", "Order", "111-222", "SKU-1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHeaderRow(tt.row))
		})
	}
}
