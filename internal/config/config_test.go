package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketcalls/quantbt/internal/core"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "quantbt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, `
provider:
  name: openalgo
  openalgo:
    host: http://localhost:5000
    api_key: test-key
portfolio:
  init_cash: 500000
  size: 0.5
  fees: 0.001
walkforward:
  train_days: 120
  test_days: 20
montecarlo:
  runs: 500
server:
  host: 127.0.0.1
  port: 9090
strategies:
  ema_crossover:
    enabled: true
    params:
      fast_period: 10
      slow_period: 20
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openalgo", cfg.Provider.Name)
	assert.Equal(t, "test-key", cfg.Provider.OpenAlgo.APIKey)
	assert.Equal(t, 500000.0, cfg.Portfolio.InitCash)
	assert.Equal(t, 120, cfg.WalkForward.TrainDays)
	assert.Equal(t, 500, cfg.MonteCarlo.Runs)
	assert.Equal(t, 9090, cfg.Server.Port)

	sc, ok := cfg.Strategies["ema_crossover"]
	require.True(t, ok, "ema_crossover strategy should be present")
	assert.True(t, sc.Enabled)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("QBT_TEST_KEY", "secret-from-env")
	path := writeTempConfig(t, `
provider:
  name: openalgo
  openalgo:
    host: http://localhost:5000
    api_key: ${QBT_TEST_KEY}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-from-env", cfg.Provider.OpenAlgo.APIKey)
}

func TestLoad_OpenAlgoEnvFallback(t *testing.T) {
	t.Setenv("OPENALGO_API_KEY", "fallback-key")
	t.Setenv("OPENALGO_HOST", "http://fallback:5000")
	path := writeTempConfig(t, `
provider:
  name: openalgo
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fallback-key", cfg.Provider.OpenAlgo.APIKey)
	assert.Equal(t, "http://fallback:5000", cfg.Provider.OpenAlgo.Host)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/quantbt.yaml")
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 1_000_000.0, cfg.Portfolio.InitCash)
	assert.Equal(t, 0.001, cfg.Portfolio.Fees)
	assert.Equal(t, 1000, cfg.MonteCarlo.Runs)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   *core.Error
	}{
		{"negative cash", func(c *Config) { c.Portfolio.InitCash = -1 }, core.ErrConfigInvalid},
		{"zero size", func(c *Config) { c.Portfolio.Size = 0 }, core.ErrConfigInvalid},
		{"size above one", func(c *Config) { c.Portfolio.Size = 1.5 }, core.ErrConfigInvalid},
		{"negative fees", func(c *Config) { c.Portfolio.Fees = -0.01 }, core.ErrConfigInvalid},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, core.ErrConfigInvalid},
		{"zero train days", func(c *Config) { c.WalkForward.TrainDays = 0 }, core.ErrConfigInvalid},
		{"zero mc runs", func(c *Config) { c.MonteCarlo.Runs = 0 }, core.ErrConfigInvalid},
		{"unknown provider", func(c *Config) { c.Provider.Name = "bloomberg" }, core.ErrConfigInvalid},
		{"csvfile without dir", func(c *Config) { c.Provider.Name = "csvfile" }, core.ErrConfigMissing},
		{"claude without key", func(c *Config) { c.Advisor.Provider = "claude" }, core.ErrConfigMissing},
		{"openai without key", func(c *Config) { c.Advisor.Provider = "openai" }, core.ErrConfigMissing},
		{"unknown advisor", func(c *Config) { c.Advisor.Provider = "gemini" }, core.ErrConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
