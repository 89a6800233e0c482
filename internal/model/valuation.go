package model

import "time"

// Valuation is one computed AHR999 reading.
type Valuation struct {
	AsOf      time.Time `json:"as_of"` // date of the latest bar
	Price     float64   `json:"price"`
	Cost      float64   `json:"cost"`       // geometric mean of the trailing closes
	FairValue float64   `json:"fair_value"` // logistic model value at the latest date
	Index     float64   `json:"ahr999"`
}

// ValuationEntry is one row of the append-only valuation log.
type ValuationEntry struct {
	Date  string // 2006-01-02
	Time  string // 15:04:05
	Value float64
}
