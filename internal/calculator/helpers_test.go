package calculator

import (
	"time"

	"AHRSentinel/internal/model"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// seriesOf builds a daily series starting at start with the given closes.
func seriesOf(start time.Time, closes ...float64) model.PriceSeries {
	s := make(model.PriceSeries, len(closes))
	for i, c := range closes {
		s[i] = model.PricePoint{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	return s
}
