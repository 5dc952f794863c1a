package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable (SELLERPULSE_SERVER_PORT...).
const EnvPrefix = "SELLERPULSE"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Ingest    IngestConfig    `yaml:"ingest" envconfig:"INGEST"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
	Currency  CurrencyConfig  `yaml:"currency" envconfig:"CURRENCY"`
	Products  ProductsConfig  `yaml:"products" envconfig:"PRODUCTS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	// MaxUploadBytes caps a multipart upload body.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"67108864"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/sellerpulse.log"`
}

// StorageConfig locates the persisted transaction store.
type StorageConfig struct {
	// Path is the SQLite database file; ":memory:" keeps everything in process.
	Path string `yaml:"path" envconfig:"DB_PATH" default:"data/sellerpulse.db"`
}

// IngestConfig bounds workbook ingestion.
type IngestConfig struct {
	MaxRowsPerFile int `yaml:"max_rows_per_file" envconfig:"MAX_ROWS_PER_FILE" default:"150000"`
	MaxRowsTotal   int `yaml:"max_rows_total" envconfig:"MAX_ROWS_TOTAL" default:"200000"`
	HeaderScanRows int `yaml:"header_scan_rows" envconfig:"HEADER_SCAN_ROWS" default:"20"`
}

// AnalyticsConfig tunes report generation.
type AnalyticsConfig struct {
	MiscThreshold  float64       `yaml:"misc_threshold" envconfig:"MISC_THRESHOLD" default:"10"`
	ReportCacheTTL time.Duration `yaml:"report_cache_ttl" envconfig:"REPORT_CACHE_TTL" default:"10m"`
}

// CurrencyConfig points at the exchange rate API.
type CurrencyConfig struct {
	RatesURL string        `yaml:"rates_url" envconfig:"RATES_URL"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"5s"`
	CacheTTL time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL" default:"12h"`
}

// ProductsConfig points at the remote SKU mapping service.
type ProductsConfig struct {
	URL      string        `yaml:"url" envconfig:"URL"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"10s"`
	CacheTTL time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL" default:"15m"`
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME" default:"sellerpulse"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	EnableMetrics bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS" default:"true"`
}

// Load loads configuration from a .env file, environment variables and an
// optional YAML config file. Environment values win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg, envOverrides())
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envOverrides reports which variables were set explicitly, so tag
// defaults filled in by envconfig do not shadow the file.
func envOverrides() map[string]bool {
	keys := []string{
		"SERVER_PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_MAX_UPLOAD_BYTES",
		"SECURITY_ALLOWED_ORIGINS", "SECURITY_RATE_LIMIT_RPS", "SECURITY_RATE_LIMIT_BURST",
		"LOGGING_LEVEL", "LOGGING_OUTPUT", "LOGGING_FILE_PATH",
		"STORAGE_DB_PATH",
		"INGEST_MAX_ROWS_PER_FILE", "INGEST_MAX_ROWS_TOTAL", "INGEST_HEADER_SCAN_ROWS",
		"ANALYTICS_MISC_THRESHOLD",
		"CURRENCY_RATES_URL", "CURRENCY_TIMEOUT", "CURRENCY_CACHE_TTL",
		"PRODUCTS_URL", "PRODUCTS_TIMEOUT", "PRODUCTS_CACHE_TTL",
		"TELEMETRY_TRACE_EXPORTER",
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		if _, ok := os.LookupEnv(EnvPrefix + "_" + k); ok {
			set[k] = true
		}
	}
	return set
}

// mergeConfigs merges file config with env config (env takes precedence
// for every variable named in explicit).
func mergeConfigs(fileConfig, envConfig Config, explicit map[string]bool) Config {
	pick := func(key string, fileSet bool, apply func()) {
		if fileSet && !explicit[key] {
			apply()
		}
	}

	f := fileConfig
	pick("SERVER_PORT", f.Server.Port != 0, func() { envConfig.Server.Port = f.Server.Port })
	pick("SERVER_READ_TIMEOUT", f.Server.ReadTimeout != 0, func() { envConfig.Server.ReadTimeout = f.Server.ReadTimeout })
	pick("SERVER_WRITE_TIMEOUT", f.Server.WriteTimeout != 0, func() { envConfig.Server.WriteTimeout = f.Server.WriteTimeout })
	pick("SERVER_MAX_UPLOAD_BYTES", f.Server.MaxUploadBytes != 0, func() { envConfig.Server.MaxUploadBytes = f.Server.MaxUploadBytes })
	pick("SECURITY_ALLOWED_ORIGINS", len(f.Security.AllowedOrigins) > 0, func() { envConfig.Security.AllowedOrigins = f.Security.AllowedOrigins })
	pick("SECURITY_RATE_LIMIT_RPS", f.Security.RateLimit.RPS != 0, func() { envConfig.Security.RateLimit.RPS = f.Security.RateLimit.RPS })
	pick("SECURITY_RATE_LIMIT_BURST", f.Security.RateLimit.Burst != 0, func() { envConfig.Security.RateLimit.Burst = f.Security.RateLimit.Burst })
	pick("LOGGING_LEVEL", f.Logging.Level != "", func() { envConfig.Logging.Level = f.Logging.Level })
	pick("LOGGING_OUTPUT", f.Logging.Output != "", func() { envConfig.Logging.Output = f.Logging.Output })
	pick("LOGGING_FILE_PATH", f.Logging.FilePath != "", func() { envConfig.Logging.FilePath = f.Logging.FilePath })
	pick("STORAGE_DB_PATH", f.Storage.Path != "", func() { envConfig.Storage.Path = f.Storage.Path })
	pick("INGEST_MAX_ROWS_PER_FILE", f.Ingest.MaxRowsPerFile != 0, func() { envConfig.Ingest.MaxRowsPerFile = f.Ingest.MaxRowsPerFile })
	pick("INGEST_MAX_ROWS_TOTAL", f.Ingest.MaxRowsTotal != 0, func() { envConfig.Ingest.MaxRowsTotal = f.Ingest.MaxRowsTotal })
	pick("INGEST_HEADER_SCAN_ROWS", f.Ingest.HeaderScanRows != 0, func() { envConfig.Ingest.HeaderScanRows = f.Ingest.HeaderScanRows })
	pick("ANALYTICS_MISC_THRESHOLD", f.Analytics.MiscThreshold != 0, func() { envConfig.Analytics.MiscThreshold = f.Analytics.MiscThreshold })
	pick("CURRENCY_RATES_URL", f.Currency.RatesURL != "", func() { envConfig.Currency.RatesURL = f.Currency.RatesURL })
	pick("CURRENCY_TIMEOUT", f.Currency.Timeout != 0, func() { envConfig.Currency.Timeout = f.Currency.Timeout })
	pick("CURRENCY_CACHE_TTL", f.Currency.CacheTTL != 0, func() { envConfig.Currency.CacheTTL = f.Currency.CacheTTL })
	pick("PRODUCTS_URL", f.Products.URL != "", func() { envConfig.Products.URL = f.Products.URL })
	pick("PRODUCTS_TIMEOUT", f.Products.Timeout != 0, func() { envConfig.Products.Timeout = f.Products.Timeout })
	pick("PRODUCTS_CACHE_TTL", f.Products.CacheTTL != 0, func() { envConfig.Products.CacheTTL = f.Products.CacheTTL })
	pick("TELEMETRY_TRACE_EXPORTER", f.Telemetry.TraceExporter != "", func() { envConfig.Telemetry.TraceExporter = f.Telemetry.TraceExporter })

	return envConfig
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage path must be set")
	}

	if c.Ingest.MaxRowsPerFile <= 0 || c.Ingest.MaxRowsTotal <= 0 {
		return fmt.Errorf("ingest row ceilings must be positive")
	}

	if c.Ingest.MaxRowsPerFile > c.Ingest.MaxRowsTotal {
		return fmt.Errorf("max rows per file (%d) exceeds max rows total (%d)",
			c.Ingest.MaxRowsPerFile, c.Ingest.MaxRowsTotal)
	}

	if c.Ingest.HeaderScanRows <= 0 {
		return fmt.Errorf("header scan rows must be positive")
	}

	if c.Analytics.MiscThreshold < 0 {
		return fmt.Errorf("misc threshold must not be negative")
	}

	switch c.Telemetry.TraceExporter {
	case "", "none", "stdout":
	default:
		return fmt.Errorf("unknown trace exporter: %q", c.Telemetry.TraceExporter)
	}

	// JSON is the only supported log format
	c.Logging.Format = "json"

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/sellerpulse.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			MaxUploadBytes:  64 << 20,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/sellerpulse.log",
		},
		Storage: StorageConfig{
			Path: "data/sellerpulse.db",
		},
		Ingest: IngestConfig{
			MaxRowsPerFile: MaxRowsPerFile,
			MaxRowsTotal:   MaxRowsTotal,
			HeaderScanRows: HeaderScanRows,
		},
		Analytics: AnalyticsConfig{
			MiscThreshold:  MiscThreshold,
			ReportCacheTTL: 10 * time.Minute,
		},
		Currency: CurrencyConfig{
			Timeout:  5 * time.Second,
			CacheTTL: 12 * time.Hour,
		},
		Products: ProductsConfig{
			Timeout:  10 * time.Second,
			CacheTTL: 15 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   ServiceName,
			TraceExporter: "none",
			EnableMetrics: true,
		},
	}
}
