package calculator

import "AHRSentinel/internal/model"

type positionState int

const (
	stateFlat positionState = iota
	stateLong
)

// SimulateTrades runs the long/flat threshold rule over the series.
//
// The running peak starts at the first close and is raised after the trade
// check on every step, whatever the position. A Buy fires when the close falls
// to peak*(1-Buy); the following Sell fires when the close reaches
// buyPrice*(1+Sell). An open position at the end of the series is left as a
// trailing Buy.
func SimulateTrades(series model.PriceSeries, th model.Thresholds) []model.TradeEvent {
	if len(series) < 2 {
		return nil
	}

	var events []model.TradeEvent
	state := stateFlat
	peak := series[0].Close
	buyPrice := 0.0

	for _, p := range series {
		switch state {
		case stateFlat:
			if p.Close <= peak*(1-th.Buy) {
				buyPrice = p.Close
				events = append(events, model.TradeEvent{Date: p.Date, Kind: model.TradeBuy, Price: p.Close})
				state = stateLong
			}
		case stateLong:
			if p.Close >= buyPrice*(1+th.Sell) {
				events = append(events, model.TradeEvent{Date: p.Date, Kind: model.TradeSell, Price: p.Close})
				state = stateFlat
			}
		}
		if p.Close > peak {
			peak = p.Close
		}
	}
	return events
}
