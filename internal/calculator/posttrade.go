package calculator

import (
	"fmt"

	"AHRSentinel/internal/model"
)

// ValidateTrades checks that events alternate Buy, Sell, Buy, ... in date order.
// A trailing Buy is allowed.
func ValidateTrades(events []model.TradeEvent) error {
	for i, ev := range events {
		want := model.TradeBuy
		if i%2 == 1 {
			want = model.TradeSell
		}
		if ev.Kind != want {
			return fmt.Errorf("%w: event %d is %s, want %s", ErrTradeSequence, i, ev.Kind, want)
		}
		if i > 0 && ev.Date.Before(events[i-1].Date) {
			return fmt.Errorf("%w: event %d is dated before event %d", ErrTradeSequence, i, i-1)
		}
	}
	return nil
}

// AnalyzeAfterBuys reports, for each Buy, the worst close relative to the buy
// price between the buy date and the next event (or the end of the series),
// both ends inclusive.
func AnalyzeAfterBuys(series model.PriceSeries, events []model.TradeEvent) ([]model.PostTradeRecord, error) {
	if err := ValidateTrades(events); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		if len(events) > 0 {
			return nil, fmt.Errorf("post-trade analysis: %w", ErrEmptySeries)
		}
		return nil, nil
	}

	var records []model.PostTradeRecord
	for i, ev := range events {
		if ev.Kind != model.TradeBuy {
			continue
		}
		end := series.Last().Date
		if i+1 < len(events) {
			end = events[i+1].Date
		}

		rec := model.PostTradeRecord{BuyDate: ev.Date, BuyPrice: ev.Price}
		found := false
		for _, p := range series.Between(ev.Date, end) {
			dd := ratio(p.Close, ev.Price)
			if !found || dd < rec.WorstDrawdown {
				rec.WorstDate = p.Date
				rec.WorstPrice = p.Close
				rec.WorstDrawdown = dd
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("post-trade analysis: buy on %s: %w", ev.Date.Format("2006-01-02"), ErrEmptySeries)
		}
		records = append(records, rec)
	}
	return records, nil
}
