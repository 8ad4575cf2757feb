// Package config loads the stockquery YAML configuration and applies
// environment variable overrides.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the stockquery service.
type Config struct {
	Storage   Storage        `yaml:"storage"`
	Server    Server         `yaml:"server"`
	Alpaca    Alpaca         `yaml:"alpaca"`
	Providers Providers      `yaml:"providers"`
	Logging   Logging        `yaml:"logging"`
	Warmup    Warmup         `yaml:"warmup"`
	Backtest  BacktestConfig `yaml:"backtest"`
}

// Storage selects and locates the bar cache backend.
type Storage struct {
	Backend    string `yaml:"backend"` // "parquet" or "sqlite"
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
// Leaving the key empty disables the Alpaca provider; US symbols then fall
// through to the Yahoo fallback.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Providers tunes outbound fetch behaviour shared by all providers.
type Providers struct {
	TimeoutSeconds  int `yaml:"timeout_seconds"`
	RateLimitPerMin int `yaml:"rate_limit_per_min"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Warmup configures the optional daily cache-refresh job. An empty cron
// spec or symbol list disables it.
type Warmup struct {
	Cron     string   `yaml:"cron"`
	Symbols  []string `yaml:"symbols"`
	Lookback int      `yaml:"lookback_days"`
}

// BacktestConfig holds the request defaults applied when a field is absent
// from an incoming request.
type BacktestConfig struct {
	InitialAmount    float64 `yaml:"initial_amount"`
	InvestmentAmount float64 `yaml:"investment_amount"`
	Frequency        string  `yaml:"frequency"`
	FeeRate          float64 `yaml:"fee_rate"`
	TaxRate          float64 `yaml:"tax_rate"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into
// a Config struct, applies environment variable overrides, and fills in
// defaults for anything still unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Canonical Alpaca SDK env vars take priority over the ALPACA_ aliases.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

// applyDefaults fills zero-valued fields with sensible defaults. The
// backtest defaults mirror the public contract: 1,000,000 initial,
// 100,000 per contribution, monthly cadence, 0.015% fee, 0.3% tax
// (the tax rate is accepted on requests but not applied to any figure).
func applyDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "parquet"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/stockquery.db"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Providers.TimeoutSeconds == 0 {
		cfg.Providers.TimeoutSeconds = 30
	}
	if cfg.Providers.RateLimitPerMin == 0 {
		cfg.Providers.RateLimitPerMin = 120
	}
	if cfg.Warmup.Lookback == 0 {
		cfg.Warmup.Lookback = 30
	}
	if cfg.Backtest.InitialAmount == 0 {
		cfg.Backtest.InitialAmount = 1000000
	}
	if cfg.Backtest.InvestmentAmount == 0 {
		cfg.Backtest.InvestmentAmount = 100000
	}
	if cfg.Backtest.Frequency == "" {
		cfg.Backtest.Frequency = "monthly"
	}
	if cfg.Backtest.FeeRate == 0 {
		cfg.Backtest.FeeRate = 0.015
	}
	if cfg.Backtest.TaxRate == 0 {
		cfg.Backtest.TaxRate = 0.3
	}
}
