package store

import (
	"time"

	"AHRSentinel/internal/model"
)

// ValuationLog is the append-only history of valuation readings.
type ValuationLog interface {
	Append(e model.ValuationEntry) error
	ReadAll() ([]model.ValuationEntry, error)
	Close() error
}

// NewEntry stamps a value with the date and time of ts.
func NewEntry(ts time.Time, value float64) model.ValuationEntry {
	return model.ValuationEntry{
		Date:  ts.Format("2006-01-02"),
		Time:  ts.Format("15:04:05"),
		Value: value,
	}
}
