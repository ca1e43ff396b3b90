package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quantfall/crucible/internal/sim"
)

// Config is the top-level configuration for a research run.
type Config struct {
	Sim       sim.Config      `yaml:"sim"`
	Portfolio PortfolioConfig `yaml:"portfolio"`
	Backtest  BacktestConfig  `yaml:"backtest"`
	Stress    StressConfig    `yaml:"stress"`
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Universe  string          `yaml:"universe"` // path to the universe YAML
}

// PortfolioConfig parameterizes the capital ledger.
type PortfolioConfig struct {
	InitialCapital float64 `yaml:"initial_capital"`
	MaxDrawdown    float64 `yaml:"max_drawdown"`
	RiskPct        float64 `yaml:"risk_pct"`
}

// BacktestConfig parameterizes the fill model used by the backtest engine.
type BacktestConfig struct {
	SlippagePct float64 `yaml:"slippage_pct"`
	LatencyMS   int     `yaml:"latency_ms"`
}

// Latency converts the configured latency to a duration.
func (c BacktestConfig) Latency() time.Duration {
	return time.Duration(c.LatencyMS) * time.Millisecond
}

// StressConfig parameterizes Monte Carlo stress testing.
type StressConfig struct {
	NSims int   `yaml:"n_sims"`
	Seed  int64 `yaml:"seed"`
}

// ServerConfig holds the read-only HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RedisConfig covers both the candle cache and the event journal.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	CacheTTLMS int    `yaml:"cache_ttl_ms"`
	Stream     string `yaml:"stream"`
}

// CacheTTL converts the configured TTL to a duration.
func (c RedisConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMS) * time.Millisecond
}

// PostgresConfig holds the persistence DSN.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Sim: sim.DefaultConfig(),
		Portfolio: PortfolioConfig{
			InitialCapital: 10000,
			MaxDrawdown:    0.2,
			RiskPct:        0.01,
		},
		Backtest: BacktestConfig{
			SlippagePct: 0.001,
			LatencyMS:   250,
		},
		Stress: StressConfig{
			NSims: 1000,
			Seed:  42,
		},
		Server: ServerConfig{
			Host: "127.0.0.1", // local-only by default
			Port: 8080,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			CacheTTLMS: 300000,
			Stream:     "crucible:events",
		},
	}
}

// Load reads configuration from a YAML file, layered over the defaults.
// Environment variables win over the file for connection settings.
func Load(path string) (*Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// applyEnv overrides connection settings from the environment, so secrets
// stay out of checked-in config files.
func (c *Config) applyEnv() {
	if addr := os.Getenv("CRUCIBLE_REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if dsn := os.Getenv("CRUCIBLE_POSTGRES_DSN"); dsn != "" {
		c.Postgres.DSN = dsn
	}
}

// Validate ensures the configuration is consistent.
func (c *Config) Validate() error {
	if err := c.Sim.Validate(); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	if c.Portfolio.InitialCapital <= 0 {
		return fmt.Errorf("portfolio: initial_capital must be positive, got %v", c.Portfolio.InitialCapital)
	}
	if c.Portfolio.MaxDrawdown < 0 || c.Portfolio.MaxDrawdown >= 1 {
		return fmt.Errorf("portfolio: max_drawdown must be in [0,1), got %v", c.Portfolio.MaxDrawdown)
	}
	if c.Portfolio.RiskPct <= 0 || c.Portfolio.RiskPct > 1 {
		return fmt.Errorf("portfolio: risk_pct must be in (0,1], got %v", c.Portfolio.RiskPct)
	}
	if c.Backtest.SlippagePct < 0 {
		return fmt.Errorf("backtest: slippage_pct must be non-negative, got %v", c.Backtest.SlippagePct)
	}
	if c.Backtest.LatencyMS < 0 {
		return fmt.Errorf("backtest: latency_ms must be non-negative, got %d", c.Backtest.LatencyMS)
	}
	if c.Stress.NSims <= 0 {
		return fmt.Errorf("stress: n_sims must be positive, got %d", c.Stress.NSims)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: port must be in (0,65535], got %d", c.Server.Port)
	}
	return nil
}
