// Package app wires configuration into the valuation service.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"AHRSentinel/internal/analysis"
	"AHRSentinel/internal/calculator"
	"AHRSentinel/internal/collector"
	"AHRSentinel/internal/config"
	"AHRSentinel/internal/model"
	"AHRSentinel/internal/store"
	"AHRSentinel/internal/valuation"
)

// NewValuationLog opens the configured valuation log backend.
func NewValuationLog(cfg *config.Config, log zerolog.Logger) (store.ValuationLog, error) {
	switch cfg.Valuation.LogBackend {
	case config.LogBackendSQLite:
		l, err := store.NewSQLiteLog(cfg.Database.SQLitePath, log)
		if err != nil {
			return nil, fmt.Errorf("open sqlite valuation log: %w", err)
		}
		return l, nil
	case config.LogBackendNone:
		return store.NewNoopLog(), nil
	default:
		return store.NewCSVLog(cfg.Valuation.LogFile), nil
	}
}

// NewOnlineFetcher returns the CryptoCompare client.
func NewOnlineFetcher(cfg *config.Config) collector.Fetcher {
	return collector.NewCryptoCompareFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
}

// NewService builds the valuation service over fetcher. The caller closes
// the returned log.
func NewService(cfg *config.Config, fetcher collector.Fetcher, log zerolog.Logger) (*valuation.Service, store.ValuationLog, error) {
	vlog, err := NewValuationLog(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	col := collector.NewCollector(fetcher, cfg.DataSource.Symbol, cfg.DataSource.Currency, log)
	fit := calculator.FitOptions{
		CarryingCapacity: cfg.Model.CarryingCapacity,
		Seed:             cfg.Model.InitialR,
		MaxEvaluations:   cfg.Model.MaxEvaluations,
	}
	svc := valuation.NewService(col, store.NewJSONParamStore(cfg.Model.ParamsFile), vlog, fit, cfg.Valuation.CostPeriod, log)
	return svc, vlog, nil
}

// AnalysisOptions maps the analysis section of the config.
func AnalysisOptions(cfg *config.Config) analysis.Options {
	return analysis.Options{
		Year: cfg.Analysis.Year,
		Thresholds: model.Thresholds{
			Buy:  cfg.Analysis.BuyThreshold,
			Sell: cfg.Analysis.SellThreshold,
		},
		CorrectionThreshold: cfg.Analysis.CorrectionThreshold,
	}
}

// Close runs closeFn and logs its error under name.
func Close(log zerolog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Error().Err(err).Str("resource", name).Msg("close failed")
	}
}
