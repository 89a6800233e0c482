package store

import "AHRSentinel/internal/model"

// NoopLog is a no-op implementation used when no log backend is configured.
type NoopLog struct{}

func NewNoopLog() *NoopLog { return &NoopLog{} }

func (n *NoopLog) Append(_ model.ValuationEntry) error        { return nil }
func (n *NoopLog) ReadAll() ([]model.ValuationEntry, error) { return nil, nil }
func (n *NoopLog) Close() error                             { return nil }
