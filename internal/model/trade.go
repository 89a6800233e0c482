package model

import "time"

// TradeKind is the side of a simulated trade.
type TradeKind string

const (
	TradeBuy  TradeKind = "Buy"
	TradeSell TradeKind = "Sell"
)

// TradeEvent is one simulated trade.
type TradeEvent struct {
	Date  time.Time `json:"date"`
	Kind  TradeKind `json:"kind"`
	Price float64   `json:"price"`
}

// Thresholds configures the long/flat trading rule.
type Thresholds struct {
	Buy  float64 // fractional drop from the running peak that opens a position
	Sell float64 // fractional gain over the buy price that closes it
}

// DefaultThresholds returns the 15%/15% rule.
func DefaultThresholds() Thresholds {
	return Thresholds{Buy: 0.15, Sell: 0.15}
}

// PostTradeRecord holds the worst unrealized loss seen while a position was open.
type PostTradeRecord struct {
	BuyDate       time.Time `json:"buy_date"`
	BuyPrice      float64   `json:"buy_price"`
	WorstDate     time.Time `json:"worst_date"`
	WorstPrice    float64   `json:"worst_price"`
	WorstDrawdown float64   `json:"worst_drawdown"`
}
