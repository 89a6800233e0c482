package calculator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"AHRSentinel/internal/model"
)

const (
	// MaxGrowthRate is the open upper bound of the fitted growth rate.
	MaxGrowthRate = 0.5
	// DefaultGrowthSeed seeds the fit when no previous rate is stored.
	DefaultGrowthSeed = 0.001
	// DefaultMaxEvaluations caps objective evaluations per fit.
	DefaultMaxEvaluations = 10000
)

// FitOptions configures FitGrowthModel.
type FitOptions struct {
	CarryingCapacity float64 // X_M
	Seed             float64 // starting growth rate, usually the last fitted r
	MaxEvaluations   int
}

// LogisticPrice evaluates xm / (1 + (xm/x0 - 1) * exp(-r*t)).
func LogisticPrice(t, x0, xm, r float64) float64 {
	return xm / (1 + (xm/x0-1)*math.Exp(-r*t))
}

// DaysSince returns the whole days elapsed from start to d.
func DaysSince(start, d time.Time) float64 {
	return math.Floor(d.Sub(start).Hours() / 24)
}

// FitGrowthModel fits the growth rate of the logistic curve to the series by
// least squares. Time is measured in whole days from the first date of the
// series; non-positive closes are dropped and X0 is the first remaining close.
//
// The fit runs in two stages. A log-spaced scan over (0, MaxGrowthRate), plus
// the seed, brackets the minimum; Newton steps on the Gauss-Newton Hessian then
// refine the rate inside that bracket. A refinement that stalls at the noise
// floor keeps its best point. Exhausting the evaluation budget, or a minimum
// at the upper bound, returns ErrFitNotConverged.
func FitGrowthModel(series model.PriceSeries, opts FitOptions) (model.ModelParameters, error) {
	if len(series) == 0 {
		return model.ModelParameters{}, fmt.Errorf("fit growth model: %w", ErrInsufficientData)
	}
	if opts.Seed <= 0 || opts.Seed >= MaxGrowthRate || math.IsNaN(opts.Seed) {
		return model.ModelParameters{}, fmt.Errorf("%w: %v not in (0, %v)", ErrInvalidSeed, opts.Seed, MaxGrowthRate)
	}
	maxEval := opts.MaxEvaluations
	if maxEval <= 0 {
		maxEval = DefaultMaxEvaluations
	}

	start := series.First().Date
	var ts, ys []float64
	var last time.Time
	for _, p := range series {
		if p.Close <= 0 {
			continue
		}
		ts = append(ts, DaysSince(start, p.Date))
		ys = append(ys, p.Close)
		last = p.Date
	}
	if len(ys) < 2 {
		return model.ModelParameters{}, fmt.Errorf("fit growth model: %d usable points: %w", len(ys), ErrInsufficientData)
	}
	x0, xm := ys[0], opts.CarryingCapacity
	if !(xm > x0) {
		return model.ModelParameters{}, fmt.Errorf("%w: X_M=%v, X0=%v", ErrInvalidCapacity, xm, x0)
	}

	obj := &rateObjective{ts: ts, ys: ys, x0: x0, xm: xm, res: make([]float64, len(ts)), jac: make([]float64, len(ts))}
	for _, y := range ys {
		obj.scale += y * y
	}
	r, err := obj.fit(opts.Seed, maxEval)
	if err != nil {
		return model.ModelParameters{}, err
	}
	return model.ModelParameters{X0: x0, XM: xm, R: r, LastFitDate: last}, nil
}

const (
	scanPoints  = 160
	minScanRate = 1e-6
)

// rateObjective is the scaled sum of squared residuals of the logistic curve
// as a function of the rate alone.
type rateObjective struct {
	ts, ys   []float64
	x0, xm   float64
	scale    float64 // sum of squared observations, keeps the objective O(1)
	res, jac []float64
	evals    int
}

// residuals fills res with f(t)-y and, when withJac is set, jac with df/dr.
func (o *rateObjective) residuals(r float64, withJac bool) {
	for i, t := range o.ts {
		f := LogisticPrice(t, o.x0, o.xm, r)
		o.res[i] = f - o.ys[i]
		if withJac {
			o.jac[i] = f * t * (1 - f/o.xm)
		}
	}
}

func (o *rateObjective) value(r float64) float64 {
	o.evals++
	o.residuals(r, false)
	sum := 0.0
	for _, e := range o.res {
		sum += e * e
	}
	return sum / o.scale
}

// scanRates returns the log-spaced scan grid over [minScanRate, MaxGrowthRate).
func scanRates() []float64 {
	rates := make([]float64, scanPoints)
	step := math.Log(MaxGrowthRate/minScanRate) / scanPoints
	for i := range rates {
		rates[i] = minScanRate * math.Exp(float64(i)*step)
	}
	return rates
}

// bracket evaluates the scan grid and the seed and returns the best rate with
// an interval around it that holds the local minimum.
func (o *rateObjective) bracket(seed float64) (lo, best, hi, fBest float64) {
	rates := scanRates()
	ratio := rates[1] / rates[0]

	bi := 0
	fBest = math.Inf(1)
	for i, r := range rates {
		if f := o.value(r); f < fBest {
			bi, fBest = i, f
		}
	}
	best = rates[bi]
	lo = 0
	if bi > 0 {
		lo = rates[bi-1]
	}
	hi = MaxGrowthRate
	if bi+1 < len(rates) {
		hi = rates[bi+1]
	}

	if f := o.value(seed); f <= fBest {
		best, fBest = seed, f
		lo, hi = seed/ratio, math.Min(seed*ratio, MaxGrowthRate)
	}
	return lo, best, hi, fBest
}

func (o *rateObjective) fit(seed float64, maxEval int) (float64, error) {
	// gonum reads a zero FuncEvaluations as unlimited
	if maxEval <= scanPoints+2 {
		return 0, fmt.Errorf("%w: budget of %d evaluations does not cover the %d-point scan", ErrFitNotConverged, maxEval, scanPoints+1)
	}
	lo, best, hi, fBest := o.bracket(seed)
	width := hi - lo

	// r = lo + width*sigmoid(u) keeps every step inside the bracket.
	rate := func(u float64) float64 { return lo + width/(1+math.Exp(-u)) }
	drdu := func(r float64) float64 { return (r - lo) * (hi - r) / width }

	problem := optimize.Problem{
		Func: func(x []float64) float64 { return o.value(rate(x[0])) },
		Grad: func(grad, x []float64) {
			r := rate(x[0])
			o.residuals(r, true)
			d := drdu(r)
			g := 0.0
			for i := range o.res {
				g += o.res[i] * o.jac[i] * d
			}
			grad[0] = 2 * g / o.scale
		},
		Hess: func(hess *mat.SymDense, x []float64) {
			r := rate(x[0])
			o.residuals(r, true)
			d := drdu(r)
			h := 0.0
			for _, j := range o.jac {
				h += j * j * d * d
			}
			hess.SetSym(0, 0, 2*h/o.scale)
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: 1e-12,
		FuncEvaluations:   maxEval - o.evals,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-15,
			Relative:   1e-9,
			Iterations: 5,
		},
	}

	s := (best - lo) / width
	result, err := optimize.Minimize(problem, []float64{math.Log(s / (1 - s))}, settings, &optimize.Newton{})
	if result == nil {
		return 0, fmt.Errorf("%w: %w", ErrFitNotConverged, err)
	}
	switch result.Status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence:
	case optimize.FunctionEvaluationLimit:
		return 0, fmt.Errorf("%w: evaluation budget of %d exhausted", ErrFitNotConverged, maxEval)
	default:
		// A failed line search near the minimum means no representable step
		// lowers the objective any further; the best point stands.
		if err == nil || math.IsNaN(result.F) {
			return 0, fmt.Errorf("%w: status=%v: %v", ErrFitNotConverged, result.Status, err)
		}
	}

	r := best
	if result.F <= fBest {
		r = rate(result.X[0])
	}
	if math.IsNaN(r) || r <= 0 || r >= MaxGrowthRate*(1-1e-6) {
		return 0, fmt.Errorf("%w: rate %v at or outside bounds", ErrFitNotConverged, r)
	}
	return r, nil
}

// IsFitFailure reports whether err came from a failed or impossible fit.
func IsFitFailure(err error) bool {
	return errors.Is(err, ErrFitNotConverged) || errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrInvalidSeed) || errors.Is(err, ErrInvalidCapacity)
}
