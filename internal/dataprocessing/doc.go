// Package dataprocessing turns Amazon seller transaction reports into
// canonical transactions.
//
// # Architecture
//
// The package is organized into the pipeline stages a row passes through:
//
// 1. Column Mapper (columns.go): locates the header row and resolves each
// canonical field to a column using ranked EN/DE/FR/IT/ES aliases
// 2. Row Classifier (classifier.go): maps the raw "type" to a CategoryType
// 3. Description Normalizer (normalizer.go): collapses inventory fee and
// adjustment descriptions into canonical labels
// 4. Record Builder (builder.go): applies the marketplace's VAT, gross
// sales and liquidation rules and derives the dedup key
//
// ReadWorkbook (workbook.go) drives the stages over an .xlsx file.
//
// # Usage
//
//	parsed, err := dataprocessing.ReadWorkbook(r, "2024Jan_UK.xlsx", dataprocessing.ReadOptions{})
//	if err != nil {
//	    return err // file rejected, nothing to persist
//	}
//	store.PutTransactions(ctx, parsed.Records)
//
// # Error Handling
//
// Errors follow three levels:
//
//   - Row level: unknown types and unparseable dates are dropped and counted
//     in IngestStats
//   - Field level: missing columns or cells default to "" and 0
//   - File level: header not found, marketplace undetected or too many rows
//     reject the whole file with an *errors.AppError
package dataprocessing
