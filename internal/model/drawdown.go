package model

import "time"

// DrawdownRecord describes a decline from an anchor peak to an extreme point.
// Ratio = (ExtremePrice - AnchorPrice) / AnchorPrice and is never positive.
type DrawdownRecord struct {
	AnchorDate   time.Time `json:"anchor_date"`
	AnchorPrice  float64   `json:"anchor_price"`
	ExtremeDate  time.Time `json:"extreme_date"`
	ExtremePrice float64   `json:"extreme_price"`
	Ratio        float64   `json:"ratio"`
}
