// Package config provides centralized configuration management for the
// procurement analyzer. It loads configuration from the environment and an
// optional YAML file, validates it, and exposes a type-safe Config.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern PROCUREMENT_<SECTION>_<FIELD>:
//
//	PROCUREMENT_SERVER_PORT=8000
//	PROCUREMENT_ANALYSIS_TARGET_YEAR=2025
//	PROCUREMENT_ANALYSIS_TARGET_MONTH=6
//	PROCUREMENT_SOURCE_KIND=sheets
//	PROCUREMENT_SHEETS_SPREADSHEET_ID=1gSa...
//	PROCUREMENT_SHEETS_CREDENTIALS_JSON='{"type":"service_account",...}'
//	PROCUREMENT_SEARCH_MIN_INTERVAL=2s
//
// PROCUREMENT_CONFIG_FILE selects an explicit YAML file; otherwise config.yaml
// and configs/config.yaml are searched.
//
// # Target Period
//
// The analysis target period (year, month) anchors every deviation and trend
// computation. It is always read from configuration and never derived from
// the data.
//
// # Testing
//
// Use Default() to obtain a validated configuration that needs no environment.
package config
