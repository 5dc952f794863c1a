// Package services implements the business logic layer of SellerPulse.
// It sits between the HTTP handlers (and the batch CLI) and the parsing,
// storage and analytics packages.
//
// # Available Services
//
//	- IngestService: parses transaction workbooks and commits them to the store
//	- ReportService: builds memoized analytics reports and period comparisons
//	- MarketplaceService: lists and deletes per-marketplace data
//	- HealthService: readiness and version information
//
// # Error Handling
//
// Services return *errors.AppError values that the HTTP layer maps to
// status codes:
//
//	- VALIDATION for bad filters or unknown marketplaces
//	- PARSING and LIMIT for rejected workbooks
//	- NOT_FOUND for missing marketplaces
//	- STORAGE for store failures
//
// External dependencies (product mapping, exchange rates) never fail a
// report; their problems surface as report warnings.
package services
