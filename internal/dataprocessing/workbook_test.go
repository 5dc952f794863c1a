package dataprocessing

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "sellerpulse/internal/errors"
	"sellerpulse/internal/shared/testutil"
	"sellerpulse/pkg/contracts/domain"
)

func TestReadWorkbook(t *testing.T) {
	fx := testutil.NewReportFixtures(t)
	buf := fx.Report(
		testutil.ReportRow{
			Date: "Jan 2, 2024 10:00:00 AM PST", Type: "Order", OrderID: "111-0000001-0000001", SKU: "MUG-RED",
			Quantity: 1, Marketplace: "amazon.com", Fulfillment: "Amazon",
			ProductSales: 20, ProductSalesTax: 1.6, SellingFees: -3, FBAFees: -4, Total: 13,
		},
		testutil.ReportRow{
			Date: "Jan 3, 2024 10:00:00 AM PST", Type: "FBA Inventory Fee", OrderID: "FBA194PTBZ6H",
			Marketplace: "amazon.com", Total: -12.5,
		},
		testutil.ReportRow{
			Date: "Jan 4, 2024 10:00:00 AM PST", Type: "Transfer", Marketplace: "amazon.com", Total: -500,
		},
		testutil.ReportRow{
			Date: "not a date", Type: "Order", Marketplace: "amazon.com", Total: 1,
		},
	)

	parsed, err := ReadWorkbook(buf, "report.xlsx", ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "US", parsed.Marketplace)
	assert.Equal(t, 4, parsed.Stats.RowsRead)
	assert.Equal(t, 2, parsed.Stats.RowsAccepted)
	assert.Equal(t, 1, parsed.Stats.DroppedUnknownType)
	assert.Equal(t, 1, parsed.Stats.DroppedBadDate)
	require.Len(t, parsed.Records, 2)

	order := parsed.Records[0]
	assert.Equal(t, domain.CategoryOrder, order.CategoryType)
	assert.Equal(t, "2024-01-02", order.DateOnly)
	assert.InDelta(t, 20.0, order.ProductSales, 1e-9)
	assert.Equal(t, domain.FulfillmentFBA, order.Fulfillment)
	// header is row 4 after the three preamble lines
	assert.Equal(t, "report_xlsx_5", order.ID)

	fee := parsed.Records[1]
	assert.Equal(t, domain.CategoryFBAInventoryFee, fee.CategoryType)
	assert.Equal(t, LabelPartneredCarrier, fee.NormalizedDescription)

	for _, r := range parsed.Records {
		assert.True(t, r.CategoryType.Valid())
	}
}

func TestReadWorkbook_GermanReport(t *testing.T) {
	fx := testutil.NewReportFixtures(t)
	header := make([]interface{}, len(testutil.GermanReportHeaders))
	for i, h := range testutil.GermanReportHeaders {
		header[i] = h
	}
	row := make([]interface{}, len(testutil.GermanReportHeaders))
	row[0] = "01.02.2024 09:15:00 UTC"
	row[2] = "Bestellung"
	row[3] = "302-1111111-2222222"
	row[4] = "TASSE-BLAU"
	row[6] = "1"
	row[7] = "amazon.de"
	row[8] = "Versand durch Amazon"
	row[13] = "16,81"
	row[14] = "3,19"
	row[22] = "-3,00"
	row[26] = "1.017,00"

	buf := fx.Workbook([][]interface{}{header, row})

	parsed, err := ReadWorkbook(buf, "Februar.xlsx", ReadOptions{})
	require.NoError(t, err)
	require.Len(t, parsed.Records, 1)

	tx := parsed.Records[0]
	assert.Equal(t, "DE", tx.MarketplaceCode)
	assert.Equal(t, "2024-02-01", tx.DateOnly)
	assert.InDelta(t, 20.0, tx.ProductSales, 1e-9)
	assert.InDelta(t, 3.19, tx.VAT, 1e-9)
	assert.InDelta(t, -3.0, tx.SellingFees, 1e-9)
	assert.InDelta(t, 1017.0, tx.Total, 1e-9)
	assert.Equal(t, domain.FulfillmentFBA, tx.Fulfillment)
}

func TestReadWorkbook_HeaderNotFound(t *testing.T) {
	fx := testutil.NewReportFixtures(t)
	rows := make([][]interface{}, 0, 30)
	for i := 0; i < 21; i++ {
		rows = append(rows, []interface{}{"notes"})
	}
	rows = append(rows, []interface{}{"date/time", "type", "sku"})

	_, err := ReadWorkbook(fx.Workbook(rows), "late-header.xlsx", ReadOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHeaderNotFound))
	assert.Equal(t, apierrors.ErrTypeParsing, apierrors.TypeOf(err))
	assert.Contains(t, err.Error(), "late-header.xlsx")
}

func TestReadWorkbook_MarketplaceDetection(t *testing.T) {
	fx := testutil.NewReportFixtures(t)
	row := testutil.ReportRow{Date: "2024-01-01", Type: "Order", SKU: "A", Total: 1}

	t.Run("from file name", func(t *testing.T) {
		parsed, err := ReadWorkbook(fx.Report(row), "2024Jan_UK.xlsx", ReadOptions{})
		require.NoError(t, err)
		assert.Equal(t, "UK", parsed.Marketplace)
	})

	t.Run("override wins", func(t *testing.T) {
		parsed, err := ReadWorkbook(fx.Report(row), "2024Jan_UK.xlsx", ReadOptions{MarketplaceOverride: "uae"})
		require.NoError(t, err)
		assert.Equal(t, "AE", parsed.Marketplace)
		assert.Equal(t, "AE", parsed.Records[0].MarketplaceCode)
	})

	t.Run("unknown override rejected", func(t *testing.T) {
		_, err := ReadWorkbook(fx.Report(row), "x.xlsx", ReadOptions{MarketplaceOverride: "XX"})
		assert.Equal(t, apierrors.ErrTypeValidation, apierrors.TypeOf(err))
	})

	t.Run("majority of cells", func(t *testing.T) {
		a := row
		a.Marketplace = "amazon.de"
		b := row
		b.Marketplace = "amazon.fr"
		b.OrderID = "2"
		c := row
		c.Marketplace = "amazon.de"
		c.OrderID = "3"
		parsed, err := ReadWorkbook(fx.Report(a, b, c), "export.xlsx", ReadOptions{})
		require.NoError(t, err)
		assert.Equal(t, "DE", parsed.Marketplace)
		assert.Equal(t, "FR", parsed.Records[1].MarketplaceCode)
	})

	t.Run("undetectable", func(t *testing.T) {
		_, err := ReadWorkbook(fx.Report(row), "export.xlsx", ReadOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMarketplaceUndetected))
	})
}

func TestReadWorkbook_RowLimit(t *testing.T) {
	fx := testutil.NewReportFixtures(t)

	parsed, err := ReadWorkbook(fx.Report(fx.RepeatedOrders(5, "amazon.com")...), "ok.xlsx", ReadOptions{MaxRows: 5})
	require.NoError(t, err)
	assert.Len(t, parsed.Records, 5)

	parsed, err = ReadWorkbook(fx.Report(fx.RepeatedOrders(6, "amazon.com")...), "big.xlsx", ReadOptions{MaxRows: 5})
	require.Error(t, err)
	assert.Nil(t, parsed)
	assert.True(t, errors.Is(err, ErrFileTooLarge))

	var appErr *apierrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apierrors.ErrTypeLimit, appErr.Type)
	assert.Equal(t, 5, appErr.Context["limit"])
	assert.Equal(t, 6, appErr.Context["actual"])
}

func TestReadWorkbook_DefaultRowLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("builds a 150,001 row workbook")
	}
	fx := testutil.NewReportFixtures(t)

	parsed, err := ReadWorkbook(fx.Report(fx.RepeatedOrders(DefaultMaxRowsPerFile+1, "amazon.com")...), "huge.xlsx", ReadOptions{})
	require.Error(t, err)
	assert.Nil(t, parsed)
	assert.True(t, errors.Is(err, ErrFileTooLarge))
}

func TestReadWorkbook_NotAWorkbook(t *testing.T) {
	_, err := ReadWorkbook(bytes.NewBufferString("date,type\n"), "data.csv", ReadOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreadableWorkbook))
}

func TestIngestStats_Add(t *testing.T) {
	total := IngestStats{RowsRead: 3, RowsAccepted: 2, DroppedBadDate: 1}
	total.Add(IngestStats{RowsRead: 2, RowsAccepted: 1, DroppedUnknownType: 1})

	assert.Equal(t, 5, total.RowsRead)
	assert.Equal(t, 3, total.RowsAccepted)
	assert.Equal(t, 2, total.Dropped())
}
