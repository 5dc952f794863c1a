package config

// Application constants
const (
	AppName     = "SellerPulse"
	ServiceName = "sellerpulse"
)

// Ingestion and reporting policy defaults. Config values override them.
const (
	// MaxRowsPerFile rejects a single workbook above this many data rows.
	MaxRowsPerFile = 150000
	// MaxRowsTotal caps the persisted dataset across all uploads.
	MaxRowsTotal = 200000
	// HeaderScanRows is how many leading rows are searched for the header.
	HeaderScanRows = 20
	// MiscThreshold folds breakdown buckets below this absolute amount into
	// "Miscellaneous".
	MiscThreshold = 10.0
	// BaseCurrency is the reporting currency of cross-marketplace reports.
	BaseCurrency = "USD"
	// MiscellaneousLabel names the consolidated small-amount bucket.
	MiscellaneousLabel = "Miscellaneous"
)

// API endpoints
const (
	APIBasePath       = "/api"
	UploadsEndpoint   = "/api/uploads"
	AnalyticsEndpoint = "/api/analytics"
	MarketsEndpoint   = "/api/marketplaces"
	RatesEndpoint     = "/api/rates"
	HealthEndpoint    = "/healthz"
	MetricsEndpoint   = "/metrics"
)
