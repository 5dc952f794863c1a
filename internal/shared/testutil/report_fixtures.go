package testutil

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ReportHeaders are the English column headers of an Amazon "Date Range"
// transaction report, in export order.
var ReportHeaders = []string{
	"date/time", "settlement id", "type", "order id", "sku", "description",
	"quantity", "marketplace", "fulfillment", "order city", "order state",
	"order postal", "tax collection model", "product sales", "product sales tax",
	"shipping credits", "shipping credits tax", "gift wrap credits", "giftwrap credits tax",
	"Regulatory Fee", "Tax On Regulatory Fee", "promotional rebates", "promotional rebates tax",
	"marketplace withheld tax", "selling fees", "fba fees", "other transaction fees",
	"other", "total",
}

// GermanReportHeaders are the amazon.de equivalents of ReportHeaders.
var GermanReportHeaders = []string{
	"Datum/Uhrzeit", "Abrechnungsnummer", "Typ", "Bestellnummer", "SKU", "Beschreibung",
	"Menge", "Marketplace", "Versand", "Ort der Bestellung", "Bundesland",
	"Postleitzahl", "Steuererhebungsmodell", "Umsätze", "Produktumsatzsteuer",
	"Gutschrift für Versandkosten", "Steuer auf Versandgutschrift", "Gutschrift für Geschenkverpackung",
	"Steuer auf Geschenkverpackungsgutschriften", "Rabatte aus Werbeaktionen",
	"Steuer auf Aktionsrabatte", "Einbehaltene Steuer auf Marketplace", "Verkaufsgebühren",
	"Gebühren zu Versand durch Amazon", "Andere Transaktionsgebühren", "Andere", "Gesamt",
}

// ReportPreamble mimics the explanatory lines Amazon writes above the
// header row.
var ReportPreamble = []string{
	"Includes Amazon Marketplace, Fulfillment by Amazon (FBA), and Amazon Webstore transactions",
	"All amounts in local currency, unless specified",
	"",
}

// ReportRow is one data row of a generated transaction report.
type ReportRow struct {
	Date                 string
	Type                 string
	OrderID              string
	SKU                  string
	Description          string
	Quantity             float64
	Marketplace          string
	Fulfillment          string
	Postal               string
	ProductSales         float64
	ProductSalesTax      float64
	PromotionalRebates   float64
	SellingFees          float64
	FBAFees              float64
	OtherTransactionFees float64
	Other                float64
	Total                float64
}

// cells lays the row out in ReportHeaders order.
func (r ReportRow) cells() []interface{} {
	return []interface{}{
		r.Date, "1234567890", r.Type, r.OrderID, r.SKU, r.Description,
		r.Quantity, r.Marketplace, r.Fulfillment, "", "",
		r.Postal, "", r.ProductSales, r.ProductSalesTax,
		0, 0, 0, 0,
		0, 0, r.PromotionalRebates, 0,
		0, r.SellingFees, r.FBAFees, r.OtherTransactionFees,
		r.Other, r.Total,
	}
}

// ReportFixtures builds in-memory transaction workbooks for tests.
type ReportFixtures struct {
	t testing.TB
}

// NewReportFixtures creates a fixtures builder bound to t.
func NewReportFixtures(t testing.TB) *ReportFixtures {
	return &ReportFixtures{t: t}
}

// Report returns an English report workbook with the standard preamble.
func (f *ReportFixtures) Report(rows ...ReportRow) *bytes.Buffer {
	f.t.Helper()

	sheet := make([][]interface{}, 0, len(ReportPreamble)+1+len(rows))
	for _, line := range ReportPreamble {
		sheet = append(sheet, []interface{}{line})
	}
	sheet = append(sheet, toCells(ReportHeaders))
	for _, r := range rows {
		sheet = append(sheet, r.cells())
	}
	return f.Workbook(sheet)
}

// Workbook writes arbitrary rows into the first sheet of a new workbook.
func (f *ReportFixtures) Workbook(rows [][]interface{}) *bytes.Buffer {
	f.t.Helper()

	wb := excelize.NewFile()
	defer wb.Close()

	sw, err := wb.NewStreamWriter(wb.GetSheetName(0))
	if err != nil {
		f.t.Fatalf("failed to create stream writer: %v", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			f.t.Fatalf("invalid cell for row %d: %v", i+1, err)
		}
		if err := sw.SetRow(cell, row); err != nil {
			f.t.Fatalf("failed to write row %d: %v", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		f.t.Fatalf("failed to flush workbook: %v", err)
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		f.t.Fatalf("failed to serialize workbook: %v", err)
	}
	return buf
}

// RepeatedOrders returns n order rows with distinct order IDs.
func (f *ReportFixtures) RepeatedOrders(n int, marketplace string) []ReportRow {
	rows := make([]ReportRow, n)
	for i := range rows {
		rows[i] = ReportRow{
			Date:         "Jan 2, 2024 10:00:00 AM PST",
			Type:         "Order",
			OrderID:      fmt.Sprintf("111-%07d-0000000", i),
			SKU:          "SKU-BULK",
			Quantity:     1,
			Marketplace:  marketplace,
			Fulfillment:  "Amazon",
			ProductSales: 10,
			SellingFees:  -1.5,
			FBAFees:      -3,
			Total:        5.5,
		}
	}
	return rows
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
