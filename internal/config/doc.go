// Package config provides centralized configuration management for SellerPulse.
// It loads configuration from multiple sources, validates it, and exposes a
// typed struct to the rest of the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority), optionally seeded from .env
//	2. A YAML configuration file (config.yaml, configs/config.yaml or
//	   SELLERPULSE_CONFIG_FILE)
//	3. Default values from struct tags (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern SELLERPULSE_<SECTION>_<FIELD>:
//
//	SELLERPULSE_SERVER_PORT=8080
//	SELLERPULSE_STORAGE_DB_PATH=data/sellerpulse.db
//	SELLERPULSE_INGEST_MAX_ROWS_TOTAL=200000
//	SELLERPULSE_CURRENCY_RATES_URL=https://open.er-api.com/v6/latest/USD
//	SELLERPULSE_PRODUCTS_URL=https://example.com/products.json
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests use config.Default(), which mirrors the struct tag defaults and needs
// no environment.
package config
