package valuation

import (
	"fmt"

	"AHRSentinel/internal/calculator"
	"AHRSentinel/internal/model"
)

// Zone classifies an AHR999 reading.
type Zone string

const (
	ZoneBottom     Zone = "bottom"     // below 0.45
	ZoneAccumulate Zone = "accumulate" // 0.45 to 1.2
	ZoneWait       Zone = "wait"       // above 1.2
)

// Zone thresholds of the AHR999 heuristic.
const (
	BottomLine     = 0.45
	AccumulateLine = 1.2
)

// ZoneOf maps an index value to its zone.
func ZoneOf(index float64) Zone {
	switch {
	case index < BottomLine:
		return ZoneBottom
	case index < AccumulateLine:
		return ZoneAccumulate
	default:
		return ZoneWait
	}
}

// Index computes AHR999 = (price / cost) * (price / fair value) at the latest
// bar, where cost is the geometric mean of the last costPeriod closes and the
// fair value comes from the fitted growth model.
func Index(series model.PriceSeries, params model.ModelParameters, costPeriod int) (model.Valuation, error) {
	if len(series) == 0 {
		return model.Valuation{}, fmt.Errorf("valuation: %w", calculator.ErrEmptySeries)
	}
	cost, err := calculator.GeometricCost(series, costPeriod)
	if err != nil {
		return model.Valuation{}, fmt.Errorf("valuation cost: %w", err)
	}
	latest := series.Last()
	fair := params.FairValue(calculator.DaysSince(series.First().Date, latest.Date))
	if fair <= 0 || cost <= 0 {
		return model.Valuation{}, fmt.Errorf("valuation: non-positive cost %v or fair value %v", cost, fair)
	}

	return model.Valuation{
		AsOf:      latest.Date,
		Price:     latest.Close,
		Cost:      cost,
		FairValue: fair,
		Index:     (latest.Close / cost) * (latest.Close / fair),
	}, nil
}
