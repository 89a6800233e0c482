package valuation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"AHRSentinel/internal/calculator"
	"AHRSentinel/internal/collector"
	"AHRSentinel/internal/model"
	"AHRSentinel/internal/store"
)

// Result is one valuation run.
type Result struct {
	Valuation model.Valuation
	Params    model.ModelParameters
	Zone      Zone
	MA200     float64 // zero when the history is shorter than 200 bars
	Refitted  bool
}

// Service ties the collector, the model fit and the two artifacts together.
// It assumes it is the only writer of the parameter artifact and the log.
type Service struct {
	Collector  *collector.Collector
	Params     store.ParamStore
	Log        store.ValuationLog
	Fit        calculator.FitOptions // Seed is the default used when nothing is stored
	CostPeriod int
	log        zerolog.Logger
}

// NewService creates a Service.
func NewService(col *collector.Collector, params store.ParamStore, vlog store.ValuationLog,
	fit calculator.FitOptions, costPeriod int, log zerolog.Logger) *Service {
	return &Service{
		Collector:  col,
		Params:     params,
		Log:        vlog,
		Fit:        fit,
		CostPeriod: costPeriod,
		log:        log.With().Str("component", "valuation").Logger(),
	}
}

// Refit fits the growth model to the series, warm-starting from the stored
// rate when there is one, and overwrites the artifact on success. A failed
// fit leaves the stored artifact untouched.
func (s *Service) Refit(series model.PriceSeries) (model.ModelParameters, error) {
	opts := s.Fit
	prev, err := s.Params.Load()
	switch {
	case err == nil:
		opts.Seed = prev.R
	case errors.Is(err, store.ErrParamsNotFound):
	default:
		return model.ModelParameters{}, fmt.Errorf("load model parameters: %w", err)
	}

	p, err := calculator.FitGrowthModel(series, opts)
	if err != nil {
		return model.ModelParameters{}, err
	}
	if err := s.Params.Save(p); err != nil {
		return model.ModelParameters{}, fmt.Errorf("save model parameters: %w", err)
	}
	s.log.Info().
		Float64("seed", opts.Seed).
		Float64("r", p.R).
		Float64("x0", p.X0).
		Float64("x_m", p.XM).
		Str("last_fit_date", p.LastFitDate.Format("2006-01-02")).
		Msg("growth model fitted")
	return p, nil
}

// EnsureParams returns the stored parameters, fitting them first if the
// artifact is missing. Stale parameters are used as they are.
func (s *Service) EnsureParams(series model.PriceSeries) (model.ModelParameters, bool, error) {
	p, err := s.Params.Load()
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, store.ErrParamsNotFound) {
		return model.ModelParameters{}, false, fmt.Errorf("load model parameters: %w", err)
	}
	s.log.Info().Msg("model parameters not found, fitting")
	p, err = s.Refit(series)
	if err != nil {
		return model.ModelParameters{}, false, err
	}
	return p, true, nil
}

// Run collects the history, computes the index and appends it to the log
// stamped with now.
func (s *Service) Run(ctx context.Context, now time.Time) (*Result, error) {
	series, err := s.Collector.Collect(ctx)
	if err != nil {
		return nil, err
	}
	return s.RunOn(series, now)
}

// RunOn is Run over an already collected series.
func (s *Service) RunOn(series model.PriceSeries, now time.Time) (*Result, error) {
	params, refitted, err := s.EnsureParams(series)
	if err != nil {
		return nil, err
	}
	v, err := Index(series, params, s.CostPeriod)
	if err != nil {
		return nil, err
	}
	if err := s.Log.Append(store.NewEntry(now, v.Index)); err != nil {
		return nil, fmt.Errorf("append valuation log: %w", err)
	}
	s.log.Info().
		Float64("ahr999", v.Index).
		Float64("price", v.Price).
		Float64("cost", v.Cost).
		Float64("fair_value", v.FairValue).
		Msg("valuation computed")
	ma200, err := calculator.CalculateMA200(series)
	if err != nil {
		ma200 = 0
	}
	return &Result{Valuation: v, Params: params, Zone: ZoneOf(v.Index), MA200: ma200, Refitted: refitted}, nil
}
