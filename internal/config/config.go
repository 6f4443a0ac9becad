// Package config loads the riptide YAML configuration and applies
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for riptide.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Logging  Logging        `yaml:"logging"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Backtest BacktestConfig `yaml:"backtest"`
	Strategy StrategyConfig `yaml:"strategy"`
	Gather   GatherConfig   `yaml:"gather"`
}

// Storage holds paths for bar data persistence. Backend selects which
// BarStore implementation serves reads and writes.
type Storage struct {
	Backend    string `yaml:"backend"` // "parquet" (default) or "sqlite"
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
	Feed      string `yaml:"feed"`
}

// BacktestConfig defines the run parameters of a backtest.
type BacktestConfig struct {
	Symbols        []string     `yaml:"symbols"`
	Start          string       `yaml:"start"` // YYYY-MM-DD
	End            string       `yaml:"end"`   // YYYY-MM-DD
	InitialCapital float64      `yaml:"initial_capital"`
	SlippageRate   float64      `yaml:"slippage_rate"`
	CommissionRate float64      `yaml:"commission_rate"`
	MinCommission  float64      `yaml:"min_commission"`
	ProgressEvery  int          `yaml:"progress_every"` // trading days between progress lines
	Sizing         SizingConfig `yaml:"sizing"`
}

// SizingConfig selects the position sizing policy.
type SizingConfig struct {
	Policy   string  `yaml:"policy"` // "fixed_fraction" (default) or "fixed_quantity"
	Fraction float64 `yaml:"fraction"`
	Quantity int64   `yaml:"quantity"`
}

// StrategyConfig names the strategy under test and its parameter overrides.
// Params not listed fall back to the strategy's schema defaults.
type StrategyConfig struct {
	ID     string         `yaml:"id"`
	Params map[string]any `yaml:"params"`
}

// GatherConfig controls the daily-bar gatherer.
type GatherConfig struct {
	Symbols         []string `yaml:"symbols"`
	StartDate       string   `yaml:"start_date"`
	BatchSize       int      `yaml:"batch_size"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
}

// DateRange parses the configured start and end dates.
func (b BacktestConfig) DateRange() (start, end time.Time, err error) {
	start, err = time.Parse("2006-01-02", b.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing backtest start %q: %w", b.Start, err)
	}
	end, err = time.Parse("2006-01-02", b.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing backtest end %q: %w", b.End, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("backtest end %s before start %s", b.End, b.Start)
	}
	return start, end, nil
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies defaults, and then applies environment variable
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyDefaults fills the fields a minimal config file may omit.
func applyDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "parquet"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Backtest.InitialCapital == 0 {
		cfg.Backtest.InitialCapital = 100000
	}
	if cfg.Backtest.Sizing.Policy == "" {
		cfg.Backtest.Sizing.Policy = "fixed_fraction"
	}
	if cfg.Backtest.Sizing.Policy == "fixed_fraction" && cfg.Backtest.Sizing.Fraction == 0 {
		cfg.Backtest.Sizing.Fraction = 0.1
	}
	if cfg.Gather.BatchSize == 0 {
		cfg.Gather.BatchSize = 200
	}
	if cfg.Gather.RateLimitPerMin == 0 {
		cfg.Gather.RateLimitPerMin = 200
	}
	if cfg.Alpaca.Feed == "" {
		cfg.Alpaca.Feed = "sip"
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}

	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}

	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
