package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "PROCUREMENT"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Sheets    SheetsConfig    `yaml:"sheets" envconfig:"SHEETS"`
	Search    SearchConfig    `yaml:"search" envconfig:"SEARCH"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"5m"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	// AnalysisTimeout bounds a single analysis request, outsourcing lookups included.
	AnalysisTimeout time.Duration `yaml:"analysis_timeout" envconfig:"ANALYSIS_TIMEOUT" default:"4m"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"*"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"20"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"10"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// AnalysisConfig anchors every deviation and trend computation.
type AnalysisConfig struct {
	TargetYear  int `yaml:"target_year" envconfig:"TARGET_YEAR" default:"2025"`
	TargetMonth int `yaml:"target_month" envconfig:"TARGET_MONTH" default:"6"`
	// Thresholds are percentages; a value must be strictly greater to be flagged.
	DeviationThreshold float64 `yaml:"deviation_threshold" envconfig:"DEVIATION_THRESHOLD" default:"10"`
	SpikeThreshold     float64 `yaml:"spike_threshold" envconfig:"SPIKE_THRESHOLD" default:"10"`
	// MaxOutsourcingLookups caps external searches per run; 0 means no cap.
	MaxOutsourcingLookups int `yaml:"max_outsourcing_lookups" envconfig:"MAX_OUTSOURCING_LOOKUPS" default:"0"`
}

// SourceConfig selects where rows are read from.
type SourceConfig struct {
	Kind      string `yaml:"kind" envconfig:"KIND" default:"sheets"`
	Path      string `yaml:"path" envconfig:"FILE"`
	SheetName string `yaml:"sheet_name" envconfig:"SHEET_NAME"`
}

// SheetsConfig contains Google Sheets access configuration
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	Range           string `yaml:"range" envconfig:"RANGE" default:"Sheet1"`
	CredentialsJSON string `yaml:"-" envconfig:"CREDENTIALS_JSON"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// SearchConfig configures the outsourcing lookup client
type SearchConfig struct {
	Enabled     bool          `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	BaseURL     string        `yaml:"base_url" envconfig:"BASE_URL" default:"https://html.duckduckgo.com/html/"`
	UserAgent   string        `yaml:"user_agent" envconfig:"USER_AGENT" default:"Mozilla/5.0 (compatible; procurement-analyzer/1.0)"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"10s"`
	MinInterval time.Duration `yaml:"min_interval" envconfig:"MIN_INTERVAL" default:"2s"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	EnableMetrics bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS" default:"true"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	Environment   string `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
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

// mergeConfigs fills values the environment left unset from the file config.
// envconfig applies defaults, so only fields without a default can be empty here.
func mergeConfigs(fileConfig, envConfig Config) Config {
	if os.Getenv(EnvPrefix+"_SERVER_PORT") == "" && fileConfig.Server.Port != 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if os.Getenv(EnvPrefix+"_ANALYSIS_TARGET_YEAR") == "" && fileConfig.Analysis.TargetYear != 0 {
		envConfig.Analysis.TargetYear = fileConfig.Analysis.TargetYear
	}
	if os.Getenv(EnvPrefix+"_ANALYSIS_TARGET_MONTH") == "" && fileConfig.Analysis.TargetMonth != 0 {
		envConfig.Analysis.TargetMonth = fileConfig.Analysis.TargetMonth
	}
	if os.Getenv(EnvPrefix+"_SOURCE_KIND") == "" && fileConfig.Source.Kind != "" {
		envConfig.Source.Kind = fileConfig.Source.Kind
	}
	if envConfig.Source.Path == "" {
		envConfig.Source.Path = fileConfig.Source.Path
	}
	if envConfig.Source.SheetName == "" {
		envConfig.Source.SheetName = fileConfig.Source.SheetName
	}
	if envConfig.Sheets.SpreadsheetID == "" {
		envConfig.Sheets.SpreadsheetID = fileConfig.Sheets.SpreadsheetID
	}
	if envConfig.Sheets.CredentialsFile == "" {
		envConfig.Sheets.CredentialsFile = fileConfig.Sheets.CredentialsFile
	}
	if os.Getenv(EnvPrefix+"_SHEETS_RANGE") == "" && fileConfig.Sheets.Range != "" {
		envConfig.Sheets.Range = fileConfig.Sheets.Range
	}
	if os.Getenv(EnvPrefix+"_LOGGING_LEVEL") == "" && fileConfig.Logging.Level != "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}

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

	if err := c.Analysis.Validate(); err != nil {
		return err
	}

	switch strings.ToLower(c.Source.Kind) {
	case SourceSheets, SourceXLSX, SourceCSV:
		c.Source.Kind = strings.ToLower(c.Source.Kind)
	default:
		return fmt.Errorf("unsupported source kind: %q", c.Source.Kind)
	}

	if c.Source.Kind != SourceSheets && c.Source.Path == "" {
		return fmt.Errorf("source path is required for %s sources", c.Source.Kind)
	}

	if c.Search.Enabled && c.Search.Timeout <= 0 {
		return fmt.Errorf("search timeout must be positive")
	}

	if c.Search.Enabled && c.Search.MinInterval <= 0 {
		return fmt.Errorf("search min interval must be positive, got %s", c.Search.MinInterval)
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	return nil
}

// Validate checks the analysis anchor and thresholds.
func (a AnalysisConfig) Validate() error {
	if a.TargetYear <= 0 {
		return fmt.Errorf("invalid target year: %d", a.TargetYear)
	}
	if a.TargetMonth < 1 || a.TargetMonth > 12 {
		return fmt.Errorf("invalid target month: %d", a.TargetMonth)
	}
	if a.DeviationThreshold < 0 || a.SpikeThreshold < 0 {
		return fmt.Errorf("thresholds cannot be negative")
	}
	if a.MaxOutsourcingLookups < 0 {
		return fmt.Errorf("max outsourcing lookups cannot be negative")
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

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    5 * time.Minute,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AnalysisTimeout: 4 * time.Minute,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"*"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   10,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Analysis: AnalysisConfig{
			TargetYear:         2025,
			TargetMonth:        6,
			DeviationThreshold: 10,
			SpikeThreshold:     10,
		},
		Source: SourceConfig{
			Kind: SourceSheets,
		},
		Sheets: SheetsConfig{
			Range: "Sheet1",
		},
		Search: SearchConfig{
			Enabled:     true,
			BaseURL:     "https://html.duckduckgo.com/html/",
			UserAgent:   "Mozilla/5.0 (compatible; procurement-analyzer/1.0)",
			Timeout:     10 * time.Second,
			MinInterval: 2 * time.Second,
		},
		Telemetry: TelemetryConfig{
			EnableMetrics: true,
			TraceExporter: "none",
			Environment:   "development",
		},
	}
}
