package calculator

import (
	"fmt"
	"math"

	"AHRSentinel/internal/model"
)

// ValidateBars checks that every bar has four positive, finite prices and that
// dates are unique and strictly ascending.
func ValidateBars(rows []model.OHLCV) error {
	for i, r := range rows {
		for _, f := range []struct {
			name string
			v    float64
		}{{"open", r.Open}, {"high", r.High}, {"low", r.Low}, {"close", r.Close}} {
			if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v <= 0 {
				return fmt.Errorf("%w: row %d (%s) has %s=%v", ErrInvalidBar, i, r.Time.Format("2006-01-02"), f.name, f.v)
			}
		}
		if r.Low > r.High {
			return fmt.Errorf("%w: row %d (%s) has low %v above high %v", ErrInvalidBar, i, r.Time.Format("2006-01-02"), r.Low, r.High)
		}
		if r.Time.IsZero() {
			return fmt.Errorf("%w: row %d has no date", ErrInvalidBar, i)
		}
		if i > 0 && !r.Time.After(rows[i-1].Time) {
			return fmt.Errorf("%w: row %d (%s) is not after %s", ErrInvalidBar, i,
				r.Time.Format("2006-01-02"), rows[i-1].Time.Format("2006-01-02"))
		}
	}
	return nil
}

// CleanBars replaces each close with the OHLC mean clipped into [low, high].
// The feed occasionally reports closes outside the day's range.
func CleanBars(rows []model.OHLCV) model.PriceSeries {
	series := make(model.PriceSeries, len(rows))
	for i, r := range rows {
		mean := (r.Open + r.High + r.Low + r.Close) / 4
		series[i] = model.PricePoint{
			Date:  r.Time,
			Open:  r.Open,
			High:  r.High,
			Low:   r.Low,
			Close: clip(mean, r.Low, r.High),
		}
	}
	return series
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
