package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"SELLERPULSE_SERVER_PORT":               "9090",
				"SELLERPULSE_STORAGE_DB_PATH":           ":memory:",
				"SELLERPULSE_INGEST_MAX_ROWS_TOTAL":     "250000",
				"SELLERPULSE_ANALYTICS_MISC_THRESHOLD":  "25",
				"SELLERPULSE_CURRENCY_RATES_URL":        "http://rates.local/latest",
				"SELLERPULSE_PRODUCTS_CACHE_TTL":        "1m",
				"SELLERPULSE_SECURITY_ALLOWED_ORIGINS":  "http://a.local,http://b.local",
				"SELLERPULSE_TELEMETRY_TRACE_EXPORTER":  "stdout",
				"SELLERPULSE_SECURITY_RATE_LIMIT_BURST": "5",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, ":memory:", cfg.Storage.Path)
				assert.Equal(t, 250000, cfg.Ingest.MaxRowsTotal)
				assert.Equal(t, 150000, cfg.Ingest.MaxRowsPerFile)
				assert.Equal(t, 25.0, cfg.Analytics.MiscThreshold)
				assert.Equal(t, "http://rates.local/latest", cfg.Currency.RatesURL)
				assert.Equal(t, time.Minute, cfg.Products.CacheTTL)
				assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
				assert.Equal(t, 5, cfg.Security.RateLimit.Burst)
			},
		},
		{
			name: "yaml file fills unset values",
			file: `
server:
  port: 7070
storage:
  path: /var/lib/sellerpulse/store.db
products:
  url: http://products.local/map.json
  timeout: 3s
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "/var/lib/sellerpulse/store.db", cfg.Storage.Path)
				assert.Equal(t, "http://products.local/map.json", cfg.Products.URL)
				assert.Equal(t, 3*time.Second, cfg.Products.Timeout)
				assert.Equal(t, 12*time.Hour, cfg.Currency.CacheTTL)
			},
		},
		{
			name: "environment wins over yaml file",
			env:  map[string]string{"SELLERPULSE_SERVER_PORT": "9191"},
			file: "server:\n  port: 7070\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9191, cfg.Server.Port)
			},
		},
		{
			name:    "invalid port from env",
			env:     map[string]string{"SELLERPULSE_SERVER_PORT": "70000"},
			wantErr: "invalid server port",
		},
		{
			name:    "malformed duration",
			env:     map[string]string{"SELLERPULSE_CURRENCY_TIMEOUT": "soon"},
			wantErr: "failed to load config from env",
		},
		{
			name:    "malformed yaml",
			file:    "server: [",
			wantErr: "failed to load config from file",
		},
		{
			name:    "unknown trace exporter",
			env:     map[string]string{"SELLERPULSE_TELEMETRY_TRACE_EXPORTER": "jaeger"},
			wantErr: "unknown trace exporter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.file != "" {
				path := filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o644))
				t.Setenv("SELLERPULSE_CONFIG_FILE", path)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid configuration", mutate: func(*Config) {}},
		{name: "invalid port - zero", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "invalid server port: 0"},
		{name: "invalid port - too high", mutate: func(c *Config) { c.Server.Port = 99999 }, wantErr: "invalid server port: 99999"},
		{name: "invalid read timeout", mutate: func(c *Config) { c.Server.ReadTimeout = -time.Second }, wantErr: "server read timeout must be positive"},
		{name: "invalid write timeout", mutate: func(c *Config) { c.Server.WriteTimeout = 0 }, wantErr: "server write timeout must be positive"},
		{name: "empty allowed origins", mutate: func(c *Config) { c.Security.AllowedOrigins = nil }, wantErr: "at least one allowed origin"},
		{name: "empty storage path", mutate: func(c *Config) { c.Storage.Path = "" }, wantErr: "storage path must be set"},
		{name: "zero row ceiling", mutate: func(c *Config) { c.Ingest.MaxRowsTotal = 0 }, wantErr: "row ceilings must be positive"},
		{name: "file ceiling above total", mutate: func(c *Config) { c.Ingest.MaxRowsPerFile = 300000 }, wantErr: "exceeds max rows total"},
		{name: "zero header scan", mutate: func(c *Config) { c.Ingest.HeaderScanRows = 0 }, wantErr: "header scan rows"},
		{name: "negative misc threshold", mutate: func(c *Config) { c.Analytics.MiscThreshold = -1 }, wantErr: "misc threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateNormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "syslog"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "console", cfg.Logging.Output)
	assert.Equal(t, "logs/sellerpulse.log", cfg.Logging.FilePath)
}

func TestMergeConfigs(t *testing.T) {
	env := *Default()
	file := Config{
		Server:   ServerConfig{Port: 7000},
		Ingest:   IngestConfig{MaxRowsTotal: 180000},
		Currency: CurrencyConfig{RatesURL: "http://file.local"},
	}

	merged := mergeConfigs(file, env, map[string]bool{"INGEST_MAX_ROWS_TOTAL": true})

	assert.Equal(t, 7000, merged.Server.Port)
	assert.Equal(t, MaxRowsTotal, merged.Ingest.MaxRowsTotal, "explicit env value must win")
	assert.Equal(t, "http://file.local", merged.Currency.RatesURL)
	assert.Equal(t, env.Storage.Path, merged.Storage.Path, "unset file values keep env defaults")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(64<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "data/sellerpulse.db", cfg.Storage.Path)
	assert.Equal(t, 150000, cfg.Ingest.MaxRowsPerFile)
	assert.Equal(t, 200000, cfg.Ingest.MaxRowsTotal)
	assert.Equal(t, 20, cfg.Ingest.HeaderScanRows)
	assert.Equal(t, 10.0, cfg.Analytics.MiscThreshold)
	assert.Equal(t, 5*time.Second, cfg.Currency.Timeout)
	assert.Equal(t, 12*time.Hour, cfg.Currency.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.Products.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.Products.CacheTTL)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
	assert.True(t, cfg.Telemetry.EnableMetrics)
	assert.NoError(t, cfg.validate())
}
