//nolint:thelper,funlen // ok for tests
package degradation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pitwall-racing/pitwall/pkg/model"
)

// linearSamples builds one sample per tire age with degradation ratePct*age.
func linearSamples(ratePct, baseline float64, ages int) []model.DegradationSample {
	samples := make([]model.DegradationSample, 0, ages)
	for age := 1; age <= ages; age++ {
		samples = append(samples, model.DegradationSample{
			VehicleID:      "12",
			LapNumber:      age,
			StintNumber:    1,
			TireAge:        age,
			BaselineTime:   baseline,
			DegradationPct: ratePct * float64(age),
		})
	}
	return samples
}

func TestModel_NotFitted(t *testing.T) {
	m := NewModel()

	_, err := m.PredictDegradation(5)
	assert.ErrorIs(t, err, ErrModelNotFitted)
	_, err = m.Forecast(5, 3)
	assert.ErrorIs(t, err, ErrModelNotFitted)
	_, err = m.RecommendStint(5, DefaultThresholdPct)
	assert.ErrorIs(t, err, ErrModelNotFitted)
}

func TestModel_FitNoSamples(t *testing.T) {
	_, err := NewModel().Fit(nil)
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestModel_FitTooFewSamples(t *testing.T) {
	// a degree-2 curve needs at least 3 samples
	for _, n := range []int{1, 2} {
		_, err := NewModel().Fit(linearSamples(0.2, 100, n))
		assert.ErrorIs(t, err, ErrNoSamples)
	}
}

func TestModel_FitLinearDecay(t *testing.T) {
	m := NewModel()
	summary, err := m.Fit(linearSamples(0.2, 100, 10))

	assert.NoError(t, err)
	assert.Equal(t, 10, summary.Samples)
	assert.InDelta(t, 0.2, summary.DegradationRate, 1e-6)
	assert.InDelta(t, 100, summary.BaselineLaptime, 1e-6)
	// the curve reproduces linear data exactly
	assert.InDelta(t, 0, summary.Mae, 1e-6)
	assert.InDelta(t, 1, summary.R2Score, 1e-6)

	deg, err := m.PredictDegradation(5)
	assert.NoError(t, err)
	assert.InDelta(t, 1.0, deg, 1e-6)

	deg, err = m.PredictDegradation(0)
	assert.NoError(t, err)
	assert.InDelta(t, 0, deg, 1e-6)
}

func TestModel_Forecast(t *testing.T) {
	m := NewModel()
	_, err := m.Fit(linearSamples(0.2, 100, 10))
	assert.NoError(t, err)

	forecasts, err := m.Forecast(4, 3)
	assert.NoError(t, err)
	assert.Len(t, forecasts, 3)
	for i, f := range forecasts {
		assert.Equal(t, i+1, f.Lap)
		assert.Equal(t, 5+i, f.TireAge)
		expectedDeg := 0.2 * float64(5+i)
		assert.InDelta(t, expectedDeg, f.DegradationPct, 1e-6)
		assert.InDelta(t, 100*(1+expectedDeg/100), f.PredictedLaptime, 1e-6)
		assert.InDelta(t, expectedDeg, f.TimeLoss, 1e-6)
	}
}

func TestModel_RecommendStint(t *testing.T) {
	// degradation passes 3% at age 16, so the pit belongs at age 15
	m := NewModel()
	_, err := m.Fit(linearSamples(0.2, 100, 10))
	assert.NoError(t, err)

	tests := []struct {
		name           string
		tireAge        int
		recommendation string
		remaining      int
	}{
		{name: "plenty left", tireAge: 10, recommendation: model.RecommendContinue, remaining: 5},
		{name: "getting close", tireAge: 13, recommendation: model.RecommendConsiderPit, remaining: 2},
		{name: "last lap on tires", tireAge: 14, recommendation: model.RecommendPitNow, remaining: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, recErr := m.RecommendStint(tc.tireAge, 3.05)
			assert.NoError(t, recErr)
			assert.Equal(t, 15, rec.OptimalTireAgeForPit)
			assert.Equal(t, tc.remaining, rec.RemainingLapsOnTires)
			assert.Equal(t, tc.recommendation, rec.Recommendation)
			assert.InDelta(t, 3.0, rec.ProjectedDegradationAtPit, 1e-6)
		})
	}

	// cumulative loss sums the scanned laps up to the pit age
	rec, err := m.RecommendStint(10, 3.05)
	assert.NoError(t, err)
	assert.InDelta(t, 0.2*(11+12+13+14+15), rec.CumulativeTimeLoss, 1e-6)
}

func TestModel_RecommendStintThresholdNeverReached(t *testing.T) {
	m := NewModel()
	_, err := m.Fit(linearSamples(0.01, 100, 10))
	assert.NoError(t, err)

	rec, err := m.RecommendStint(0, 3.0)
	assert.NoError(t, err)
	// falls back to the fixed offset
	assert.Equal(t, 15, rec.OptimalTireAgeForPit)
	assert.Equal(t, model.RecommendContinue, rec.Recommendation)
}

func TestModel_FitInvalidBaseline(t *testing.T) {
	samples := linearSamples(0.2, 100, 5)
	for i := range samples {
		samples[i].BaselineTime = 0
	}
	_, err := NewModel().Fit(samples)
	assert.ErrorIs(t, err, ErrInvalidBaseline)
}

func TestRateFromAgeMeans(t *testing.T) {
	// per-age means: age 1 -> 0.2, age 2 -> 0.4
	rate := rateFromAgeMeans(
		[]float64{1, 1, 2, 2},
		[]float64{0.1, 0.3, 0.3, 0.5})
	assert.InDelta(t, 0.2, rate, 1e-9)

	// a single distinct age cannot yield a slope
	rate = rateFromAgeMeans([]float64{5, 5}, []float64{1, 1.2})
	assert.InDelta(t, DefaultDegradationRate, rate, 1e-9)
}
