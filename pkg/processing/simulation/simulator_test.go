//nolint:thelper,funlen // ok for tests
package simulation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pitwall-racing/pitwall/pkg/model"
	"github.com/pitwall-racing/pitwall/pkg/processing/degradation"
)

func mustSimulator(t *testing.T, baseline float64, laps int, opts ...SimulatorOption) *Simulator {
	s, err := NewSimulator(baseline, laps, opts...)
	assert.NoError(t, err)
	return s
}

func TestNewSimulator_InvalidBaseline(t *testing.T) {
	_, err := NewSimulator(0, 20)
	assert.ErrorIs(t, err, degradation.ErrInvalidBaseline)
}

func TestCompoundProfile(t *testing.T) {
	soft := CompoundProfile(model.CompoundSoft)
	assert.InDelta(t, -0.5, soft.BaseGripAdvantage, 1e-9)
	assert.Equal(t, 12, soft.CliffLap)

	hard := CompoundProfile(model.CompoundHard)
	assert.InDelta(t, 0.08, hard.DegradationRate, 1e-9)

	// unknown compounds fall back to medium
	unknown := CompoundProfile(model.TireCompound("intermediate"))
	assert.Equal(t, model.CompoundMedium, unknown.Compound)
}

func TestCalcTireDegradation(t *testing.T) {
	s := mustSimulator(t, 98.5, 28)
	medium := CompoundProfile(model.CompoundMedium)

	assert.InDelta(t, 0, s.calcTireDegradation(0, medium), 1e-9)
	// linear below the cliff
	assert.InDelta(t, 1.5, s.calcTireDegradation(10, medium), 1e-9)
	assert.InDelta(t, 2.7, s.calcTireDegradation(18, medium), 1e-9)
	// super-linear beyond: 20*0.15 + 2^1.5*0.2
	assert.InDelta(t, 3.5657, s.calcTireDegradation(20, medium), 1e-3)
	// strictly worse than the linear extrapolation
	assert.Greater(t, s.calcTireDegradation(20, medium), 20*medium.DegradationRate)
}

func TestSimulateRace_NoStopDeterministic(t *testing.T) {
	s := mustSimulator(t, 98.5, 28)
	strategy := &model.RaceStrategy{
		Name:             "no_stop",
		StartingCompound: model.CompoundMedium,
	}

	// nil rand disables the traffic term
	res := s.SimulateRace(strategy, nil)

	assert.Len(t, res.LapResults, 28)
	assert.Equal(t, 0, res.TotalPitStops)
	assert.Equal(t, 28, res.TireUsage[model.CompoundMedium])

	// lap 1: baseline + age-1 wear + 28 laps of fuel
	first := res.LapResults[0]
	assert.Equal(t, 1, first.TireAge)
	assert.InDelta(t, 98.5+98.5*0.0015+28*0.03, first.LapTime, 1e-6)
	assert.InDelta(t, 27, first.FuelLoad, 1e-9)

	// lap times grow monotonically once fuel burn is outweighed by wear
	last := res.LapResults[27]
	assert.Equal(t, 28, last.TireAge)
	assert.Greater(t, last.LapTime, first.LapTime)
	assert.Contains(t, last.Notes, "past cliff")
}

func TestSimulateRace_PitStop(t *testing.T) {
	s := mustSimulator(t, 100, 6)
	strategy := &model.RaceStrategy{
		Name:             "one_stop",
		StartingCompound: model.CompoundSoft,
		PitStops: []model.PitStop{
			{Lap: 3, NewCompound: model.CompoundMedium, PitLossTime: 30},
		},
	}

	res := s.SimulateRace(strategy, nil)

	assert.Equal(t, 1, res.TotalPitStops)
	pitLap := res.LapResults[2]
	assert.True(t, pitLap.IsPitLap)
	// the stop happens before the timed lap: fresh tires, age 0
	assert.Equal(t, model.CompoundMedium, pitLap.TireCompound)
	assert.Equal(t, 0, pitLap.TireAge)
	assert.InDelta(t, 0, pitLap.TireDegradation, 1e-9)
	assert.Contains(t, pitLap.Notes, "PIT STOP")

	next := res.LapResults[3]
	assert.Equal(t, 1, next.TireAge)
	assert.Equal(t, model.CompoundMedium, next.TireCompound)

	// the pit loss lives in the cumulative time, not the lap time
	beforePit := res.LapResults[1]
	assert.InDelta(t, 30,
		pitLap.CumulativeTime-beforePit.CumulativeTime-pitLap.LapTime, 1e-6)

	assert.Equal(t, 2, res.TireUsage[model.CompoundSoft])
	assert.Equal(t, 4, res.TireUsage[model.CompoundMedium])

	// pit laps are excluded from the lap statistics
	flying := []float64{
		res.LapResults[0].LapTime, res.LapResults[1].LapTime,
		res.LapResults[3].LapTime, res.LapResults[4].LapTime,
		res.LapResults[5].LapTime,
	}
	sum := 0.0
	for _, lt := range flying {
		sum += lt
	}
	assert.InDelta(t, sum/5, res.AverageLapTime, 1e-6)
}

func TestSimulateRace_PushAndFuelSaving(t *testing.T) {
	s := mustSimulator(t, 100, 5,
		WithFuelEffectPerLap(0), WithTrafficVariance(0))

	plain := s.SimulateRace(&model.RaceStrategy{
		StartingCompound: model.CompoundMedium,
	}, nil)
	pushed := s.SimulateRace(&model.RaceStrategy{
		StartingCompound: model.CompoundMedium,
		PushLaps:         []int{2},
	}, nil)
	saving := s.SimulateRace(&model.RaceStrategy{
		StartingCompound: model.CompoundMedium,
		FuelSavingMode:   true,
	}, nil)

	assert.InDelta(t, plain.LapResults[1].LapTime-0.3,
		pushed.LapResults[1].LapTime, 1e-9)
	assert.InDelta(t, plain.LapResults[0].LapTime+0.2,
		saving.LapResults[0].LapTime, 1e-9)
}

func TestSimulateRace_SharedSeedIsDeterministic(t *testing.T) {
	s := mustSimulator(t, 98.5, 20)
	strategy := &model.RaceStrategy{StartingCompound: model.CompoundMedium}

	a := s.SimulateRace(strategy, rand.New(rand.NewSource(42)))
	b := s.SimulateRace(strategy, rand.New(rand.NewSource(42)))
	assert.InDelta(t, a.TotalTime, b.TotalTime, 1e-9)
}

func TestCompareStrategies_NoStrategies(t *testing.T) {
	s := mustSimulator(t, 98.5, 28)
	assert.Empty(t, s.CompareStrategies(nil, 4711))
}

func TestCompareStrategies(t *testing.T) {
	s := mustSimulator(t, 98.5, 28)
	strategies := []*model.RaceStrategy{
		{Name: "no_stop", StartingCompound: model.CompoundMedium},
		{
			Name:             "one_stop",
			StartingCompound: model.CompoundSoft,
			PitStops: []model.PitStop{
				{Lap: 12, NewCompound: model.CompoundMedium, PitLossTime: 45},
			},
		},
	}

	results := s.CompareStrategies(strategies, 4711)

	assert.Len(t, results, 2)
	assert.LessOrEqual(t, results[0].TotalTime, results[1].TotalTime)
	assert.Equal(t, 1, results[0].FinalPosition)
	assert.Equal(t, 2, results[1].FinalPosition)
	for _, lr := range results[0].LapResults {
		assert.InDelta(t, 0, lr.GapToLeader, 1e-9)
	}
	// the runner-up trails by the total time difference on the last lap
	lastIdx := len(results[1].LapResults) - 1
	assert.InDelta(t, results[1].TotalTime-results[0].TotalTime,
		results[1].LapResults[lastIdx].GapToLeader, 1e-6)
}

func TestDefaultStrategies(t *testing.T) {
	short := mustSimulator(t, 100, 20).DefaultStrategies()
	names := make([]string, 0, len(short))
	for _, st := range short {
		names = append(names, st.Name)
	}
	assert.Contains(t, names, "no_stop")
	assert.NotContains(t, names, "two_stop_aggressive")

	long := mustSimulator(t, 100, 40).DefaultStrategies()
	names = names[:0]
	for _, st := range long {
		names = append(names, st.Name)
	}
	assert.NotContains(t, names, "no_stop")
	assert.Contains(t, names, "two_stop_aggressive")

	// every planned stop lies inside the race distance
	for _, st := range long {
		for _, ps := range st.PitStops {
			assert.Greater(t, ps.Lap, 0)
			assert.Less(t, ps.Lap, 40)
		}
	}
}
