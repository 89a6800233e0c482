package collector

import (
	"context"

	"AHRSentinel/internal/model"
)

// Fetcher defines the interface for fetching the daily price history.
type Fetcher interface {
	FetchDailyHistory(ctx context.Context, symbol, currency string) ([]model.OHLCV, error)
	Name() string
}
