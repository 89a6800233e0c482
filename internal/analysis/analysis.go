package analysis

import (
	"fmt"
	"time"

	"AHRSentinel/internal/calculator"
	"AHRSentinel/internal/model"
)

// Options configures Analyze.
type Options struct {
	Year                int // calendar year of the window; 0 means the year of the latest bar
	Thresholds          model.Thresholds
	CorrectionThreshold float64
}

// DefaultOptions returns the 15% rules over the latest year.
func DefaultOptions() Options {
	return Options{
		Thresholds:          model.DefaultThresholds(),
		CorrectionThreshold: calculator.DefaultCorrectionThreshold,
	}
}

// Report is the drawdown analysis of one series.
type Report struct {
	Year int                `json:"year"`
	From time.Time          `json:"from"`
	To   time.Time          `json:"to"`
	Bars int                `json:"bars"`
	Tail []model.PricePoint `json:"tail"`

	// Year sections are empty when the series has no bar in Year.
	YearMaxDrawdown *model.DrawdownRecord   `json:"year_max_drawdown,omitempty"`
	Trades          []model.TradeEvent      `json:"trades,omitempty"`
	PostTrade       []model.PostTradeRecord `json:"post_trade,omitempty"`

	Current model.DrawdownRecord `json:"current"`
}

// HasYear reports whether the year sections were computed.
func (r *Report) HasYear() bool { return r.YearMaxDrawdown != nil }

const tailSize = 5

// Analyze runs the drawdown analysis. Trades are simulated on the year
// subset, while the loss after each buy is measured over the full series so
// that a position still open at year end is followed to the latest bar.
func Analyze(series model.PriceSeries, opts Options) (*Report, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("analyze: %w", calculator.ErrEmptySeries)
	}
	if opts.Year == 0 {
		opts.Year = series.Last().Date.Year()
	}
	if opts.CorrectionThreshold <= 0 {
		opts.CorrectionThreshold = calculator.DefaultCorrectionThreshold
	}

	tail := series
	if len(tail) > tailSize {
		tail = tail[len(tail)-tailSize:]
	}
	rep := &Report{
		Year: opts.Year,
		From: series.First().Date,
		To:   series.Last().Date,
		Bars: len(series),
		Tail: tail,
	}

	inYear := calculator.InYear(opts.Year)
	if year := series.Filter(inYear); len(year) > 0 {
		dd, err := calculator.WindowedMaxDrawdown(series, inYear)
		if err != nil {
			return nil, err
		}
		rep.YearMaxDrawdown = &dd
		rep.Trades = calculator.SimulateTrades(year, opts.Thresholds)
		rep.PostTrade, err = calculator.AnalyzeAfterBuys(series, rep.Trades)
		if err != nil {
			return nil, err
		}
	}

	cur, err := calculator.CurrentDrawdownFromLatest(series, opts.CorrectionThreshold)
	if err != nil {
		return nil, err
	}
	rep.Current = cur
	return rep, nil
}
