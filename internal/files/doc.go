// Package files locates transaction workbooks on disk for batch
// ingestion.
//
//	workbooks, err := files.FindWorkbooks("reports/2024")
//	for _, wb := range workbooks {
//	    // open wb.Path and parse it
//	}
package files
