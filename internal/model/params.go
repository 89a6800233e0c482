package model

import (
	"math"
	"time"
)

// ModelParameters is the fitted logistic growth model. It is produced by the
// fitter, persisted as a single artifact and read by the valuation index.
type ModelParameters struct {
	X0          float64   // first usable close of the fitted series
	XM          float64   // carrying capacity, supplied by configuration
	R           float64   // fitted growth rate
	LastFitDate time.Time // date of the last point used by the fit
}

// FairValue evaluates the logistic curve t days after the series start.
func (p ModelParameters) FairValue(t float64) float64 {
	return p.XM / (1 + (p.XM/p.X0-1)*math.Exp(-p.R*t))
}
