package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"AHRSentinel/internal/logger"
)

// Valuation log backends.
const (
	LogBackendCSV    = "csv"
	LogBackendSQLite = "sqlite"
	LogBackendNone   = "none"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token" envconfig:"TELEGRAM_BOT_TOKEN"`
		ChatID   int64  `yaml:"chat_id" envconfig:"TELEGRAM_CHAT_ID"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL     string `yaml:"base_url" envconfig:"CRYPTOCOMPARE_BASE_URL"`
		APIKey      string `yaml:"api_key" envconfig:"CRYPTOCOMPARE_API_KEY"`
		Symbol      string `yaml:"symbol" envconfig:"SYMBOL"`
		Currency    string `yaml:"currency" envconfig:"CURRENCY"`
		HistoryFile string `yaml:"history_file" envconfig:"HISTORY_FILE"`
	} `yaml:"data_source"`
	Model struct {
		CarryingCapacity float64 `yaml:"carrying_capacity" envconfig:"MODEL_CARRYING_CAPACITY"`
		InitialR         float64 `yaml:"initial_r" envconfig:"MODEL_INITIAL_R"`
		MaxEvaluations   int     `yaml:"max_evaluations" envconfig:"MODEL_MAX_EVALUATIONS"`
		ParamsFile       string  `yaml:"params_file" envconfig:"PARAMS_FILE"`
	} `yaml:"model"`
	Analysis struct {
		Year                int     `yaml:"year" envconfig:"ANALYSIS_YEAR"` // 0 = year of the latest bar
		BuyThreshold        float64 `yaml:"buy_threshold" envconfig:"BUY_THRESHOLD"`
		SellThreshold       float64 `yaml:"sell_threshold" envconfig:"SELL_THRESHOLD"`
		CorrectionThreshold float64 `yaml:"correction_threshold" envconfig:"CORRECTION_THRESHOLD"`
	} `yaml:"analysis"`
	Valuation struct {
		CostPeriod int    `yaml:"cost_period" envconfig:"VALUATION_COST_PERIOD"`
		LogBackend string `yaml:"log_backend" envconfig:"VALUATION_LOG_BACKEND"`
		LogFile    string `yaml:"log_file" envconfig:"VALUATION_LOG_FILE"`
	} `yaml:"valuation"`
	Schedule struct {
		ValuationCron string `yaml:"valuation_cron" envconfig:"CRON_VALUATION"`
		RefitCron     string `yaml:"refit_cron" envconfig:"CRON_REFIT"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	} `yaml:"database"`
	Log   logger.Config `yaml:"log"`
	Proxy string        `yaml:"proxy" envconfig:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then a .env file if present, then
// applies environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.BaseURL == "" {
		c.DataSource.BaseURL = "https://min-api.cryptocompare.com"
	}
	if c.DataSource.Symbol == "" {
		c.DataSource.Symbol = "BTC"
	}
	if c.DataSource.Currency == "" {
		c.DataSource.Currency = "USD"
	}
	if c.DataSource.HistoryFile == "" {
		c.DataSource.HistoryFile = "data/bitcoin_historical_data.csv"
	}
	if c.Model.InitialR == 0 {
		c.Model.InitialR = 0.001
	}
	if c.Model.MaxEvaluations == 0 {
		c.Model.MaxEvaluations = 10000
	}
	if c.Model.ParamsFile == "" {
		c.Model.ParamsFile = "data/model_params.json"
	}
	if c.Analysis.BuyThreshold == 0 {
		c.Analysis.BuyThreshold = 0.15
	}
	if c.Analysis.SellThreshold == 0 {
		c.Analysis.SellThreshold = 0.15
	}
	if c.Analysis.CorrectionThreshold == 0 {
		c.Analysis.CorrectionThreshold = 0.15
	}
	if c.Valuation.CostPeriod == 0 {
		c.Valuation.CostPeriod = 200
	}
	if c.Valuation.LogBackend == "" {
		c.Valuation.LogBackend = LogBackendCSV
	}
	if c.Valuation.LogFile == "" {
		c.Valuation.LogFile = "data/ahr999_history.csv"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/ahr_sentinel.db"
	}
	if c.Schedule.ValuationCron == "" {
		c.Schedule.ValuationCron = "0 5 0 * * *"
	}
	if c.Schedule.RefitCron == "" {
		c.Schedule.RefitCron = "0 30 0 * * 1"
	}
}

// Validate checks the settings the analysis engine depends on.
func (c *Config) Validate() error {
	if c.Model.CarryingCapacity <= 0 {
		return errors.New("model.carrying_capacity must be positive")
	}
	if c.Model.InitialR <= 0 || c.Model.InitialR >= 0.5 {
		return errors.New("model.initial_r must be in (0, 0.5)")
	}
	for name, v := range map[string]float64{
		"analysis.buy_threshold":        c.Analysis.BuyThreshold,
		"analysis.sell_threshold":       c.Analysis.SellThreshold,
		"analysis.correction_threshold": c.Analysis.CorrectionThreshold,
	} {
		if v <= 0 || v >= 1 {
			return fmt.Errorf("%s must be in (0, 1)", name)
		}
	}
	if c.Valuation.CostPeriod <= 0 {
		return errors.New("valuation.cost_period must be positive")
	}
	switch c.Valuation.LogBackend {
	case LogBackendCSV, LogBackendSQLite, LogBackendNone:
	default:
		return fmt.Errorf("valuation.log_backend %q is not one of csv, sqlite, none", c.Valuation.LogBackend)
	}
	return nil
}

// ValidateBot additionally checks the Telegram settings.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == 0 {
		return errors.New("telegram.chat_id is required")
	}
	return nil
}
