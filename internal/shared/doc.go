// Package shared holds helpers used across SellerPulse packages that do not
// belong to a single domain layer.
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler / NewTestLogger for asserting on structured logs
//   - ReportFixtures for generating Amazon transaction workbooks in memory
//
// Example usage:
//
//	func TestIngest(t *testing.T) {
//	    fx := testutil.NewReportFixtures(t)
//	    buf := fx.Report(testutil.ReportRow{Date: "Jan 2, 2024", Type: "Order", SKU: "A-1", Total: 12})
//	    // feed buf to dataprocessing.ReadWorkbook
//	}
package shared
