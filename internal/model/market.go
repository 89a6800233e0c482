package model

import "time"

// OHLCV represents a single raw daily bar as delivered by a data source.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PricePoint is a cleaned daily bar. After cleaning Low <= Close <= High.
type PricePoint struct {
	Date  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// PriceSeries is ordered by date ascending with unique dates.
type PriceSeries []PricePoint

// Closes returns the close prices in series order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, p := range s {
		closes[i] = p.Close
	}
	return closes
}

// Filter returns the points matching pred, preserving order.
func (s PriceSeries) Filter(pred func(PricePoint) bool) PriceSeries {
	out := make(PriceSeries, 0, len(s))
	for _, p := range s {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}

// Between returns the points with from <= Date <= to.
func (s PriceSeries) Between(from, to time.Time) PriceSeries {
	return s.Filter(func(p PricePoint) bool {
		return !p.Date.Before(from) && !p.Date.After(to)
	})
}

// First returns the earliest point. The series must not be empty.
func (s PriceSeries) First() PricePoint { return s[0] }

// Last returns the most recent point. The series must not be empty.
func (s PriceSeries) Last() PricePoint { return s[len(s)-1] }
