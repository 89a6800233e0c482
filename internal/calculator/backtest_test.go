package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AHRSentinel/internal/model"
)

func TestSimulateTrades_WorkedScenario(t *testing.T) {
	s := seriesOf(day0, 100, 92, 85, 90, 100, 98)
	events := SimulateTrades(s, model.DefaultThresholds())
	require.Len(t, events, 2)
	assert.Equal(t, model.TradeEvent{Date: s[2].Date, Kind: model.TradeBuy, Price: 85}, events[0])
	assert.Equal(t, model.TradeEvent{Date: s[4].Date, Kind: model.TradeSell, Price: 100}, events[1])
}

func TestSimulateTrades_PeakUpdatedAfterCheck(t *testing.T) {
	// 200 raises the peak at the end of its step; the next close is measured
	// against it and 170 = 200*0.85 buys.
	s := seriesOf(day0, 100, 200, 170)
	events := SimulateTrades(s, model.DefaultThresholds())
	require.Len(t, events, 1)
	assert.Equal(t, model.TradeBuy, events[0].Kind)
	assert.Equal(t, 170.0, events[0].Price)
}

func TestSimulateTrades_TrailingBuy(t *testing.T) {
	s := seriesOf(day0, 100, 80, 70, 75)
	events := SimulateTrades(s, model.DefaultThresholds())
	require.Len(t, events, 1)
	assert.Equal(t, model.TradeBuy, events[0].Kind)
	assert.Equal(t, 80.0, events[0].Price)
}

func TestSimulateTrades_Degenerate(t *testing.T) {
	assert.Empty(t, SimulateTrades(nil, model.DefaultThresholds()))
	assert.Empty(t, SimulateTrades(seriesOf(day0, 10), model.DefaultThresholds()))
}

func TestSimulateTrades_AlwaysAlternates(t *testing.T) {
	for seed := int64(1); seed <= 30; seed++ {
		s := seriesOf(day0, randomWalk(seed, 400)...)
		events := SimulateTrades(s, model.Thresholds{Buy: 0.1, Sell: 0.1})
		require.NoError(t, ValidateTrades(events), "seed %d", seed)
	}
}
