package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
telegram:
  bot_token: "yaml-token"
  chat_id: 42
model:
  carrying_capacity: 1000000
  initial_r: 0.002
analysis:
  year: 2024
valuation:
  log_backend: sqlite
log:
  level: debug
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_YAMLAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "yaml-token", cfg.Telegram.BotToken)
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
	assert.Equal(t, 1000000.0, cfg.Model.CarryingCapacity)
	assert.Equal(t, 0.002, cfg.Model.InitialR)
	assert.Equal(t, 2024, cfg.Analysis.Year)
	assert.Equal(t, LogBackendSQLite, cfg.Valuation.LogBackend)
	assert.Equal(t, "debug", cfg.Log.Level)

	assert.Equal(t, "BTC", cfg.DataSource.Symbol)
	assert.Equal(t, "USD", cfg.DataSource.Currency)
	assert.Equal(t, 0.15, cfg.Analysis.BuyThreshold)
	assert.Equal(t, 0.15, cfg.Analysis.SellThreshold)
	assert.Equal(t, 200, cfg.Valuation.CostPeriod)
	assert.Equal(t, 10000, cfg.Model.MaxEvaluations)

	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.ValidateBot())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("MODEL_CARRYING_CAPACITY", "5000000")
	t.Setenv("BUY_THRESHOLD", "0.2")
	t.Setenv("HTTPS_PROXY", "http://proxy:8080")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
	assert.Equal(t, 5000000.0, cfg.Model.CarryingCapacity)
	assert.Equal(t, 0.2, cfg.Analysis.BuyThreshold)
	assert.Equal(t, "http://proxy:8080", cfg.Proxy)
	// untouched by env
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "data/model_params.json", cfg.Model.ParamsFile)
	assert.Error(t, cfg.Validate(), "carrying capacity has no default")
}

func TestValidate(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	cfg.Analysis.SellThreshold = 1.5
	assert.Error(t, cfg.Validate())
	cfg.Analysis.SellThreshold = 0.15

	cfg.Valuation.LogBackend = "parquet"
	assert.Error(t, cfg.Validate())
	cfg.Valuation.LogBackend = LogBackendCSV

	cfg.Telegram.ChatID = 0
	assert.NoError(t, cfg.Validate())
	assert.Error(t, cfg.ValidateBot())
}
