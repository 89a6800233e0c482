package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"AHRSentinel/internal/calculator"
	"AHRSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Days  int
	Bars  []model.OHLCV
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyHistory(_ context.Context, _, _ string) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	return generateMockBars(m.Price, m.Days), nil
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector loads the raw history and turns it into a cleaned series.
type Collector struct {
	Fetcher  Fetcher
	Symbol   string
	Currency string
	log      zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol, currency string, log zerolog.Logger) *Collector {
	return &Collector{
		Fetcher:  fetcher,
		Symbol:   symbol,
		Currency: currency,
		log:      log.With().Str("component", "collector").Str("source", fetcher.Name()).Logger(),
	}
}

// Collect fetches the history, validates every bar and cleans the closes.
// Any malformed bar fails the whole collection.
func (c *Collector) Collect(ctx context.Context) (model.PriceSeries, error) {
	rows, err := c.Fetcher.FetchDailyHistory(ctx, c.Symbol, c.Currency)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	if err := calculator.ValidateBars(rows); err != nil {
		return nil, fmt.Errorf("validate history: %w", err)
	}
	series := calculator.CleanBars(rows)
	if len(series) > 0 {
		c.log.Debug().
			Int("bars", len(series)).
			Time("from", series.First().Date).
			Time("to", series.Last().Date).
			Msg("history collected")
	}
	return series, nil
}

// Sync downloads the full history from src and stores it at path, returning
// the number of bars written.
func Sync(ctx context.Context, src Fetcher, symbol, currency, path string) (int, error) {
	rows, err := src.FetchDailyHistory(ctx, symbol, currency)
	if err != nil {
		return 0, fmt.Errorf("fetch history: %w", err)
	}
	if err := calculator.ValidateBars(rows); err != nil {
		return 0, fmt.Errorf("validate history: %w", err)
	}
	if err := SaveCSV(path, rows); err != nil {
		return 0, fmt.Errorf("save history: %w", err)
	}
	return len(rows), nil
}
