package degradation

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/pitwall-racing/pitwall/log"
	"github.com/pitwall-racing/pitwall/pkg/model"
)

var (
	// ErrModelNotFitted is raised when predictions are requested before Fit.
	// This is a programmer error, not a data problem.
	ErrModelNotFitted = errors.New("degradation model not fitted")
	// ErrNoSamples is raised when Fit gets too few samples for the curve.
	ErrNoSamples = errors.New("no degradation samples")
	// ErrInvalidBaseline guards the formulas against division by zero.
	ErrInvalidBaseline = errors.New("baseline lap time must be positive")
)

const (
	polyDegree = 2
	// DefaultDegradationRate is used when fewer than 2 distinct tire ages exist.
	DefaultDegradationRate = 0.1
	// DefaultThresholdPct is the stint planning degradation limit (percent).
	DefaultThresholdPct = 3.0
	// StintScanLimit caps the forward scan of RecommendStint.
	StintScanLimit = 50
	// fallback pit age offset when the threshold is never reached in the scan
	defaultPitAgeOffset = 15
)

type (
	// Model fits a degree-2 decay curve over (tire age, degradation pct)
	// samples of one vehicle. Immutable after Fit.
	Model struct {
		coeffs          []float64 // c0 + c1*age + c2*age^2
		degradationRate float64   // percent per lap, linear summary
		baselineLaptime float64
		fitted          bool
		scanLimit       int
		l               *log.Logger
	}
	ModelOption func(m *Model)
)

func WithLogger(l *log.Logger) ModelOption {
	return func(m *Model) {
		m.l = l
	}
}

// WithStintScanLimit overrides the forward scan cap of RecommendStint.
func WithStintScanLimit(limit int) ModelOption {
	return func(m *Model) {
		m.scanLimit = limit
	}
}

func NewModel(opts ...ModelOption) *Model {
	m := &Model{
		scanLimit: StintScanLimit,
		l:         log.Default().Named("degradation"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Fit regresses degradation pct on tire age with a degree-2 polynomial and
// derives the linear degradation rate from per-age means.
func (m *Model) Fit(samples []model.DegradationSample) (*model.FitSummary, error) {
	// the degree-2 design matrix needs at least degree+1 rows
	if len(samples) <= polyDegree {
		return nil, fmt.Errorf("%w: need at least %d, got %d",
			ErrNoSamples, polyDegree+1, len(samples))
	}

	ages := make([]float64, len(samples))
	degs := make([]float64, len(samples))
	baselines := make([]float64, len(samples))
	for i := range samples {
		ages[i] = float64(samples[i].TireAge)
		degs[i] = samples[i].DegradationPct
		baselines[i] = samples[i].BaselineTime
	}

	coeffs, err := polyFit(ages, degs, polyDegree)
	if err != nil {
		return nil, fmt.Errorf("fitting decay curve: %w", err)
	}
	m.coeffs = coeffs

	estimates := make([]float64, len(samples))
	absErrSum := 0.0
	for i := range ages {
		estimates[i] = evalPoly(coeffs, ages[i])
		absErrSum += math.Abs(estimates[i] - degs[i])
	}
	mae := absErrSum / float64(len(samples))
	r2 := stat.RSquaredFrom(estimates, degs, nil)

	m.degradationRate = rateFromAgeMeans(ages, degs)
	m.baselineLaptime = stat.Mean(baselines, nil)
	if m.baselineLaptime <= 0 || math.IsNaN(m.baselineLaptime) {
		return nil, fmt.Errorf("%w: got %f", ErrInvalidBaseline, m.baselineLaptime)
	}
	m.fitted = true

	m.l.Debug("model fitted",
		log.Int("samples", len(samples)),
		log.Float64("mae", mae),
		log.Float64("r2", r2),
		log.Float64("rate", m.degradationRate))

	return &model.FitSummary{
		Mae:             mae,
		R2Score:         r2,
		DegradationRate: m.degradationRate,
		Samples:         len(samples),
		BaselineLaptime: m.baselineLaptime,
	}, nil
}

// DegradationRate returns the linear percent-per-lap summary of the fit.
func (m *Model) DegradationRate() float64 { return m.degradationRate }

// Baseline returns the mean baseline lap time of the training samples.
func (m *Model) Baseline() float64 { return m.baselineLaptime }

// PredictDegradation evaluates the fitted decay curve at the given tire age.
func (m *Model) PredictDegradation(tireAge int) (float64, error) {
	if !m.fitted {
		return 0, ErrModelNotFitted
	}
	return evalPoly(m.coeffs, float64(tireAge)), nil
}

// Forecast predicts degradation and lap time for the next n laps.
func (m *Model) Forecast(currentTireAge, n int) ([]model.LapForecast, error) {
	if !m.fitted {
		return nil, ErrModelNotFitted
	}
	forecasts := make([]model.LapForecast, 0, n)
	for i := 1; i <= n; i++ {
		age := currentTireAge + i
		deg := evalPoly(m.coeffs, float64(age))
		predicted := m.baselineLaptime * (1 + deg/100)
		forecasts = append(forecasts, model.LapForecast{
			Lap:              i,
			TireAge:          age,
			DegradationPct:   deg,
			PredictedLaptime: predicted,
			TimeLoss:         predicted - m.baselineLaptime,
		})
	}
	return forecasts, nil
}

// RecommendStint scans forward until the predicted degradation exceeds
// thresholdPct and recommends pitting the lap before.
func (m *Model) RecommendStint(
	currentTireAge int,
	thresholdPct float64,
) (*model.StintRecommendation, error) {
	if !m.fitted {
		return nil, ErrModelNotFitted
	}

	recommendedPitAge := currentTireAge + defaultPitAgeOffset
	cumulativeTimeLoss := 0.0
	for add := 1; add <= m.scanLimit; add++ {
		age := currentTireAge + add
		deg := evalPoly(m.coeffs, float64(age))
		if deg > thresholdPct {
			// pit before this age
			recommendedPitAge = age - 1
			break
		}
		cumulativeTimeLoss += m.baselineLaptime * (deg / 100)
	}

	remaining := recommendedPitAge - currentTireAge
	recommendation := model.RecommendPitNow
	switch {
	case remaining > 3:
		recommendation = model.RecommendContinue
	case remaining > 1:
		recommendation = model.RecommendConsiderPit
	}

	return &model.StintRecommendation{
		OptimalTireAgeForPit:      recommendedPitAge,
		RemainingLapsOnTires:      remaining,
		ProjectedDegradationAtPit: evalPoly(m.coeffs, float64(recommendedPitAge)),
		CumulativeTimeLoss:        cumulativeTimeLoss,
		Recommendation:            recommendation,
	}, nil
}

// polyFit solves the least squares Vandermonde system for the given degree.
func polyFit(xs, ys []float64, degree int) ([]float64, error) {
	a := mat.NewDense(len(xs), degree+1, nil)
	for i, x := range xs {
		v := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, v)
			v *= x
		}
	}
	b := mat.NewVecDense(len(ys), slices.Clone(ys))

	var qr mat.QR
	qr.Factorize(a)
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, b); err != nil {
		return nil, err
	}
	coeffs := make([]float64, degree+1)
	for j := range coeffs {
		coeffs[j] = sol.AtVec(j)
	}
	return coeffs, nil
}

func evalPoly(coeffs []float64, x float64) float64 {
	result := 0.0
	for j := len(coeffs) - 1; j >= 0; j-- {
		result = result*x + coeffs[j]
	}
	return result
}

// rateFromAgeMeans averages degradation per tire age and fits a line over the
// per-age means. Falls back to DefaultDegradationRate for <2 distinct ages.
func rateFromAgeMeans(ages, degs []float64) float64 {
	sums := make(map[float64]float64)
	counts := make(map[float64]float64)
	for i := range ages {
		sums[ages[i]] += degs[i]
		counts[ages[i]]++
	}
	if len(sums) < 2 {
		return DefaultDegradationRate
	}
	distinct := make([]float64, 0, len(sums))
	for age := range sums {
		distinct = append(distinct, age)
	}
	slices.Sort(distinct)
	means := make([]float64, len(distinct))
	for i, age := range distinct {
		means[i] = sums[age] / counts[age]
	}
	_, slope := stat.LinearRegression(distinct, means, nil, false)
	return slope
}
