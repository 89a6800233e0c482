package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AHRSentinel/internal/calculator"
	"AHRSentinel/internal/model"
)

func seriesOf(start time.Time, closes ...float64) model.PriceSeries {
	s := make(model.PriceSeries, len(closes))
	for i, c := range closes {
		s[i] = model.PricePoint{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	return s
}

var dec30 = time.Date(2023, 12, 30, 0, 0, 0, 0, time.UTC)

func TestAnalyze_YearWindow(t *testing.T) {
	s := seriesOf(dec30, 120, 110, 100, 92, 85, 90, 100, 98)
	opts := DefaultOptions()
	opts.Year = 2024

	rep, err := Analyze(s, opts)
	require.NoError(t, err)
	require.True(t, rep.HasYear())

	// the 2023 peak is outside the window
	assert.Equal(t, s[2].Date, rep.YearMaxDrawdown.AnchorDate)
	assert.Equal(t, s[4].Date, rep.YearMaxDrawdown.ExtremeDate)
	assert.InDelta(t, -0.15, rep.YearMaxDrawdown.Ratio, 1e-12)

	require.Len(t, rep.Trades, 2)
	assert.Equal(t, model.TradeBuy, rep.Trades[0].Kind)
	assert.Equal(t, s[4].Date, rep.Trades[0].Date)
	assert.Equal(t, model.TradeSell, rep.Trades[1].Kind)
	assert.Equal(t, s[6].Date, rep.Trades[1].Date)

	require.Len(t, rep.PostTrade, 1)
	assert.Equal(t, 85.0, rep.PostTrade[0].WorstPrice)
	assert.Equal(t, 0.0, rep.PostTrade[0].WorstDrawdown)

	// the backward scan never sees a decline beyond 15% and reaches the 2023 peak
	assert.Equal(t, s[0].Date, rep.Current.AnchorDate)
	assert.Equal(t, s[7].Date, rep.Current.ExtremeDate)
	assert.InDelta(t, (98.0-120)/120, rep.Current.Ratio, 1e-12)

	assert.Equal(t, s[0].Date, rep.From)
	assert.Equal(t, s[7].Date, rep.To)
	assert.Equal(t, 8, rep.Bars)
	assert.Len(t, rep.Tail, 5)
}

func TestAnalyze_OpenPositionFollowedPastYearEnd(t *testing.T) {
	start := time.Date(2023, 12, 28, 0, 0, 0, 0, time.UTC)
	s := seriesOf(start, 100, 80, 70, 75, 60, 90)
	opts := DefaultOptions()
	opts.Year = 2023

	rep, err := Analyze(s, opts)
	require.NoError(t, err)
	require.Len(t, rep.Trades, 1)
	assert.Equal(t, 80.0, rep.Trades[0].Price)

	require.Len(t, rep.PostTrade, 1)
	assert.Equal(t, s[4].Date, rep.PostTrade[0].WorstDate)
	assert.InDelta(t, -0.25, rep.PostTrade[0].WorstDrawdown, 1e-12)
}

func TestAnalyze_MissingYear(t *testing.T) {
	s := seriesOf(dec30, 120, 110, 100)
	opts := DefaultOptions()
	opts.Year = 2019

	rep, err := Analyze(s, opts)
	require.NoError(t, err)
	assert.False(t, rep.HasYear())
	assert.Empty(t, rep.Trades)
	assert.Empty(t, rep.PostTrade)
	assert.Equal(t, 100.0, rep.Current.ExtremePrice)
}

func TestAnalyze_DefaultsToLatestYear(t *testing.T) {
	s := seriesOf(dec30, 120, 110, 100)
	rep, err := Analyze(s, Options{Thresholds: model.DefaultThresholds()})
	require.NoError(t, err)
	assert.Equal(t, 2024, rep.Year)
	require.True(t, rep.HasYear())
	assert.Equal(t, 0.0, rep.YearMaxDrawdown.Ratio)
}

func TestAnalyze_Empty(t *testing.T) {
	_, err := Analyze(nil, DefaultOptions())
	assert.ErrorIs(t, err, calculator.ErrEmptySeries)
}
