package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 250*time.Millisecond, cfg.Backtest.Latency())
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `sim:
  slippage_pct: 0.002
  error_rate: 0.05
  partial_fill_min: 0.8
portfolio:
  initial_capital: 50000
  max_drawdown: 0.15
  risk_pct: 0.02
stress:
  n_sims: 500
  seed: 7
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.002, cfg.Sim.SlippagePct, 1e-9)
	assert.InDelta(t, 0.05, cfg.Sim.ErrorRate, 1e-9)
	assert.InDelta(t, 50000.0, cfg.Portfolio.InitialCapital, 1e-9)
	assert.Equal(t, 500, cfg.Stress.NSims)
	assert.Equal(t, int64(7), cfg.Stress.Seed)

	// Untouched sections keep their defaults.
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "crucible:events", cfg.Redis.Stream)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `redis:
  addr: filehost:6379
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	t.Setenv("CRUCIBLE_REDIS_ADDR", "envhost:6380")
	t.Setenv("CRUCIBLE_POSTGRES_DSN", "postgres://env/crucible")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "envhost:6380", cfg.Redis.Addr)
	assert.Equal(t, "postgres://env/crucible", cfg.Postgres.DSN)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `portfolio:
  initial_capital: -1
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad error rate", func(c *Config) { c.Sim.ErrorRate = 1.5 }},
		{"bad drawdown", func(c *Config) { c.Portfolio.MaxDrawdown = 1.0 }},
		{"bad risk pct", func(c *Config) { c.Portfolio.RiskPct = 0 }},
		{"negative slippage", func(c *Config) { c.Backtest.SlippagePct = -0.1 }},
		{"negative latency", func(c *Config) { c.Backtest.LatencyMS = -1 }},
		{"zero sims", func(c *Config) { c.Stress.NSims = 0 }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
