package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AHRSentinel/internal/analysis"
	"AHRSentinel/internal/calculator"
	"AHRSentinel/internal/collector"
	"AHRSentinel/internal/config"
	"AHRSentinel/internal/model"
	"AHRSentinel/internal/store"
	"AHRSentinel/internal/valuation"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.DataSource.Symbol = "BTC"
	cfg.DataSource.Currency = "USD"
	cfg.DataSource.HistoryFile = filepath.Join(dir, "history.csv")
	cfg.Model.CarryingCapacity = 100000
	cfg.Model.InitialR = calculator.DefaultGrowthSeed
	cfg.Model.ParamsFile = filepath.Join(dir, "params.json")
	cfg.Analysis.BuyThreshold = 0.15
	cfg.Analysis.SellThreshold = 0.15
	cfg.Analysis.CorrectionThreshold = 0.15
	cfg.Valuation.CostPeriod = 200
	cfg.Valuation.LogBackend = config.LogBackendSQLite
	cfg.Database.SQLitePath = filepath.Join(dir, "ahr.db")
	return cfg
}

func writeHistory(t *testing.T, path string, n int) {
	t.Helper()
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]model.OHLCV, n)
	for i := range rows {
		c := calculator.LogisticPrice(float64(i), 10, 100000, 0.002)
		rows[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	require.NoError(t, collector.SaveCSV(path, rows))
}

func TestRun_MissingHistoryReturnsError(t *testing.T) {
	cfg := testConfig(t)
	var buf bytes.Buffer
	err := run(context.Background(), cfg, flags{}, &buf, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load history")
	assert.Empty(t, buf.String())
}

func TestRun_InvalidConfigReturnsError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Model.CarryingCapacity = 0
	err := run(context.Background(), cfg, flags{}, &bytes.Buffer{}, zerolog.Nop())
	assert.ErrorContains(t, err, "config validation")
}

func TestRun_ValuationClosesSQLiteLog(t *testing.T) {
	cfg := testConfig(t)
	writeHistory(t, cfg.DataSource.HistoryFile, 2000)

	var buf bytes.Buffer
	err := run(context.Background(), cfg, flags{refit: true, runValuation: true, asJSON: true}, &buf, zerolog.Nop())
	require.NoError(t, err)

	var out struct {
		Report    json.RawMessage        `json:"report"`
		Params    *model.ModelParameters `json:"params"`
		Valuation *valuation.Result      `json:"valuation"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.NotNil(t, out.Params)
	require.NotNil(t, out.Valuation)

	// the log was closed by run, so a fresh handle sees the row
	l, err := store.NewSQLiteLog(cfg.Database.SQLitePath, zerolog.Nop())
	require.NoError(t, err)
	defer l.Close()
	rows, err := l.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, out.Valuation.Valuation.Index, rows[0].Value, 1e-9)
}

func TestPrintText(t *testing.T) {
	d := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	out := output{
		Report: &analysis.Report{
			Year: 2024, From: d, To: d, Bars: 1,
			Tail:            []model.PricePoint{{Date: d, Open: 1, High: 2, Low: 1, Close: 1.5}},
			YearMaxDrawdown: &model.DrawdownRecord{AnchorDate: d, AnchorPrice: 1.5, ExtremeDate: d, ExtremePrice: 1.5},
			Current:         model.DrawdownRecord{AnchorDate: d, AnchorPrice: 1.5, ExtremeDate: d, ExtremePrice: 1.5},
		},
		Params: &model.ModelParameters{X0: 0.05, XM: 1e6, R: 0.001, LastFitDate: d},
		Valuation: &valuation.Result{
			Valuation: model.Valuation{Index: 0.42, Price: 1.5, Cost: 2, FairValue: 3},
			Zone:      valuation.ZoneBottom,
		},
	}
	var buf bytes.Buffer
	printText(&buf, out)
	s := buf.String()

	assert.Contains(t, s, "Data range: 2024-05-01 to 2024-05-01 (1 bars)")
	assert.Contains(t, s, "2024 max drawdown: 0.00%")
	assert.Contains(t, s, "r=0.00100000 (fitted through 2024-05-01)")
	assert.Contains(t, s, "AHR999 0.4200 (bottom)")
}

func TestPrintText_MissingYear(t *testing.T) {
	d := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printText(&buf, output{Report: &analysis.Report{Year: 2010, From: d, To: d}})
	assert.Contains(t, buf.String(), "Warning: no data for 2010")
	assert.NotContains(t, buf.String(), "simulated trades")
}
