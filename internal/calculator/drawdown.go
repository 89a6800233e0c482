package calculator

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"AHRSentinel/internal/model"
)

// DefaultCorrectionThreshold is the decline that marks a qualifying correction
// in CurrentDrawdownFromLatest.
const DefaultCorrectionThreshold = 0.15

// RunningDrawdown returns (close_t - max(close_0..t)) / max(close_0..t) for every point.
func RunningDrawdown(series model.PriceSeries) []float64 {
	dd := make([]float64, len(series))
	peak := 0.0
	for i, p := range series {
		if i == 0 || p.Close > peak {
			peak = p.Close
		}
		dd[i] = ratio(p.Close, peak)
	}
	return dd
}

// InYear matches points in calendar year y.
func InYear(y int) func(model.PricePoint) bool {
	return func(p model.PricePoint) bool { return p.Date.Year() == y }
}

// WindowedMaxDrawdown finds the deepest running drawdown inside the points
// matching pred. The peak is searched only within the matching points, up to
// and including the extreme.
func WindowedMaxDrawdown(series model.PriceSeries, pred func(model.PricePoint) bool) (model.DrawdownRecord, error) {
	sub := series.Filter(pred)
	if len(sub) == 0 {
		return model.DrawdownRecord{}, fmt.Errorf("windowed drawdown: %w", ErrEmptySeries)
	}
	dd := RunningDrawdown(sub)
	e := floats.MinIdx(dd)
	closes := sub.Closes()
	pk := floats.MaxIdx(closes[:e+1])

	return model.DrawdownRecord{
		AnchorDate:   sub[pk].Date,
		AnchorPrice:  sub[pk].Close,
		ExtremeDate:  sub[e].Date,
		ExtremePrice: sub[e].Close,
		Ratio:        dd[e],
	}, nil
}

type scanState int

const (
	scanSearching scanState = iota // no qualifying decline seen yet
	scanStable                     // a decline beyond the threshold has been seen
)

// peakScanner walks a series from newest to oldest looking for the peak that
// precedes the latest qualifying correction.
type peakScanner struct {
	state     scanState
	threshold float64
	peak      model.PricePoint
}

// step consumes the next older point and reports whether to keep scanning.
// A higher price always replaces the peak, even in the stable state, so a
// later exceedance can be measured against an older, higher peak.
func (s *peakScanner) step(p model.PricePoint) bool {
	if p.Close > s.peak.Close {
		s.peak = p
		return true
	}
	decline := (s.peak.Close - p.Close) / s.peak.Close
	if s.state == scanStable {
		return decline <= s.threshold
	}
	if decline > s.threshold {
		s.state = scanStable
	}
	return true
}

// CurrentDrawdownFromLatest measures the latest close against the peak found
// by a backward scan. See peakScanner for the stopping rule.
func CurrentDrawdownFromLatest(series model.PriceSeries, threshold float64) (model.DrawdownRecord, error) {
	if len(series) == 0 {
		return model.DrawdownRecord{}, fmt.Errorf("current drawdown: %w", ErrEmptySeries)
	}
	latest := series.Last()
	sc := &peakScanner{threshold: threshold, peak: latest}
	for i := len(series) - 1; i >= 0; i-- {
		if !sc.step(series[i]) {
			break
		}
	}

	return model.DrawdownRecord{
		AnchorDate:   sc.peak.Date,
		AnchorPrice:  sc.peak.Close,
		ExtremeDate:  latest.Date,
		ExtremePrice: latest.Close,
		Ratio:        ratio(latest.Close, sc.peak.Close),
	}, nil
}

// ratio returns (price - base) / base. A non-positive base means a series
// slipped past validation.
func ratio(price, base float64) float64 {
	if base <= 0 {
		panic(fmt.Sprintf("calculator: non-positive reference price %v", base))
	}
	return (price - base) / base
}
