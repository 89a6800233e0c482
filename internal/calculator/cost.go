package calculator

import (
	"errors"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"AHRSentinel/internal/model"
)

// DefaultCostPeriod is the trailing window of the holding-cost average.
const DefaultCostPeriod = 200

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sma := talib.Sma(prices, period)
	return sma[len(sma)-1], nil
}

// CalculateMA200 returns the 200-day simple moving average of the closes.
func CalculateMA200(series model.PriceSeries) (float64, error) {
	return CalculateSMA(series.Closes(), 200)
}

// GeometricCost returns the geometric mean of the last period closes, the
// "holding cost" term of the valuation index.
func GeometricCost(series model.PriceSeries, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(series) < period {
		return 0, errors.New("not enough data for cost calculation")
	}
	closes := series.Closes()
	return stat.GeometricMean(closes[len(closes)-period:], nil), nil
}
