package calculator

import "errors"

var (
	// ErrEmptySeries is returned when a query needs at least one point.
	ErrEmptySeries = errors.New("empty price series")
	// ErrInvalidBar marks malformed or missing OHLC input.
	ErrInvalidBar = errors.New("invalid OHLC bar")
	// ErrTradeSequence marks trade events that do not alternate Buy, Sell, Buy, ...
	ErrTradeSequence = errors.New("invalid trade sequence")
	// ErrInsufficientData is returned when too few usable points remain for a fit.
	ErrInsufficientData = errors.New("not enough data for model fit")
	// ErrInvalidSeed is returned when the growth-rate seed lies outside the fit bounds.
	ErrInvalidSeed = errors.New("growth rate seed out of bounds")
	// ErrInvalidCapacity is returned when the carrying capacity does not exceed the first close.
	ErrInvalidCapacity = errors.New("carrying capacity must exceed the initial price")
	// ErrFitNotConverged is returned when the least-squares fit fails.
	ErrFitNotConverged = errors.New("model fit did not converge")
)
