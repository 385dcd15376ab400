package simulation

import (
	"fmt"
	"math"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/pitwall-racing/pitwall/log"
	"github.com/pitwall-racing/pitwall/pkg/model"
	"github.com/pitwall-racing/pitwall/pkg/processing/degradation"
)

const (
	DefaultPitLossTime      = 45.0
	DefaultFuelEffectPerLap = 0.03
	DefaultTrafficVariance  = 0.2
	DefaultCliffExponent    = 1.5
	DefaultCliffFactor      = 0.2
	// lap times never drop below this fraction of the baseline
	lapTimeFloorFactor = 0.95
	pushLapGain        = 0.3
	fuelSavingPenalty  = 0.2
)

type (
	// Simulator plays out a full race distance lap by lap for a strategy.
	// It uses the static compound table, not a fitted model.
	Simulator struct {
		baselineLapTime  float64
		totalRaceLaps    int
		trackName        string
		fuelEffectPerLap float64
		trafficVariance  float64
		cliffExponent    float64
		cliffFactor      float64
		l                *log.Logger
	}
	SimulatorOption func(s *Simulator)
)

func WithTrackName(name string) SimulatorOption {
	return func(s *Simulator) {
		s.trackName = name
	}
}

func WithFuelEffectPerLap(seconds float64) SimulatorOption {
	return func(s *Simulator) {
		s.fuelEffectPerLap = seconds
	}
}

func WithTrafficVariance(seconds float64) SimulatorOption {
	return func(s *Simulator) {
		s.trafficVariance = seconds
	}
}

func WithCliffPenalty(exponent, factor float64) SimulatorOption {
	return func(s *Simulator) {
		s.cliffExponent = exponent
		s.cliffFactor = factor
	}
}

func WithLogger(l *log.Logger) SimulatorOption {
	return func(s *Simulator) {
		s.l = l
	}
}

func NewSimulator(
	baselineLapTime float64,
	totalRaceLaps int,
	opts ...SimulatorOption,
) (*Simulator, error) {
	if baselineLapTime <= 0 {
		return nil, fmt.Errorf("%w: got %f",
			degradation.ErrInvalidBaseline, baselineLapTime)
	}
	s := &Simulator{
		baselineLapTime:  baselineLapTime,
		totalRaceLaps:    totalRaceLaps,
		trackName:        "Unknown",
		fuelEffectPerLap: DefaultFuelEffectPerLap,
		trafficVariance:  DefaultTrafficVariance,
		cliffExponent:    DefaultCliffExponent,
		cliffFactor:      DefaultCliffFactor,
		l:                log.Default().Named("simulation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SimulateRace runs one strategy over the full race distance.
// rnd supplies the traffic variance draws; a nil rnd disables the traffic
// term, which keeps single-strategy runs fully deterministic.
//
//nolint:funlen // lap loop reads better unsplit
func (s *Simulator) SimulateRace(
	strategy *model.RaceStrategy,
	rnd *rand.Rand,
) *model.SimulationResult {
	lapResults := make([]model.LapResult, 0, s.totalRaceLaps)
	cumulativeTime := 0.0
	currentCompound := strategy.StartingCompound
	tireAge := 0
	fuelLoad := float64(s.totalRaceLaps)
	tireUsage := make(map[model.TireCompound]int)
	pitStopCount := 0

	for lap := 1; lap <= s.totalRaceLaps; lap++ {
		pitIdx := slices.IndexFunc(strategy.PitStops, func(ps model.PitStop) bool {
			return ps.Lap == lap
		})
		isPitLap := pitIdx != -1
		if isPitLap {
			// tires are swapped before the timed lap, so the pit lap
			// already runs on the new unaged set
			pitStop := strategy.PitStops[pitIdx]
			currentCompound = pitStop.NewCompound
			tireAge = 0
			pitStopCount++
			cumulativeTime += pitLossOf(pitStop)
		} else {
			tireAge++
		}

		profile := CompoundProfile(currentCompound)
		lapTime := s.calcLapTime(
			profile,
			tireAge,
			fuelLoad,
			slices.Contains(strategy.PushLaps, lap),
			strategy.FuelSavingMode,
			rnd)
		cumulativeTime += lapTime

		tireUsage[currentCompound]++
		fuelLoad--

		lapResults = append(lapResults, model.LapResult{
			LapNumber:       lap,
			LapTime:         lapTime,
			CumulativeTime:  cumulativeTime,
			TireCompound:    currentCompound,
			TireAge:         tireAge,
			TireDegradation: s.calcTireDegradation(tireAge, profile),
			Position:        1,
			GapToLeader:     0,
			IsPitLap:        isPitLap,
			FuelLoad:        fuelLoad,
			Notes:           lapNotes(tireAge, profile, isPitLap),
		})
	}

	// pit laps are excluded from the lap time statistics
	flyingLaps := make([]float64, 0, len(lapResults))
	for i := range lapResults {
		if !lapResults[i].IsPitLap {
			flyingLaps = append(flyingLaps, lapResults[i].LapTime)
		}
	}

	result := &model.SimulationResult{
		Strategy:      *strategy,
		LapResults:    lapResults,
		TotalTime:     cumulativeTime,
		FinalPosition: 1,
		TotalPitStops: pitStopCount,
		TireUsage:     tireUsage,
	}
	if len(flyingLaps) > 0 {
		result.AverageLapTime = stat.Mean(flyingLaps, nil)
		result.FastestLap = slices.Min(flyingLaps)
		result.SlowestLap = slices.Max(flyingLaps)
	}
	return result
}

// CompareStrategies simulates each strategy with an identical traffic draw
// sequence (shared seed) and ranks them by total time. Positions and per-lap
// gaps to the leader are filled in on the returned results.
func (s *Simulator) CompareStrategies(
	strategies []*model.RaceStrategy,
	seed int64,
) []*model.SimulationResult {
	results := make([]*model.SimulationResult, 0, len(strategies))
	for _, strategy := range strategies {
		// fresh source per strategy: all runs see the same draw sequence
		rnd := rand.New(rand.NewSource(seed))
		results = append(results, s.SimulateRace(strategy, rnd))
	}

	if len(results) == 0 {
		return results
	}

	slices.SortStableFunc(results, func(a, b *model.SimulationResult) int {
		switch {
		case a.TotalTime < b.TotalTime:
			return -1
		case a.TotalTime > b.TotalTime:
			return 1
		default:
			return 0
		}
	})

	leader := results[0]
	for i, result := range results {
		result.FinalPosition = i + 1
		for lapIdx := range result.LapResults {
			result.LapResults[lapIdx].Position = i + 1
			result.LapResults[lapIdx].GapToLeader = result.LapResults[lapIdx].CumulativeTime -
				leader.LapResults[lapIdx].CumulativeTime
		}
	}

	s.l.Debug("strategies compared",
		log.Int("count", len(results)),
		log.String("winner", leader.Strategy.Name),
		log.Float64("winnerTotal", leader.TotalTime))
	return results
}

// DefaultStrategies generates the common strategy set for the race distance.
func (s *Simulator) DefaultStrategies() []*model.RaceStrategy {
	strategies := make([]*model.RaceStrategy, 0, 5)

	if s.totalRaceLaps <= 25 {
		strategies = append(strategies, &model.RaceStrategy{
			Name:             "no_stop",
			StartingCompound: model.CompoundMedium,
			PitStops:         []model.PitStop{},
		})
	}

	earlyStopLap := min(12, s.totalRaceLaps/2)
	strategies = append(strategies, &model.RaceStrategy{
		Name:             "one_stop_early",
		StartingCompound: model.CompoundSoft,
		PitStops: []model.PitStop{
			{Lap: earlyStopLap, NewCompound: model.CompoundMedium, PitLossTime: DefaultPitLossTime},
		},
	})

	lateStopLap := min(18, int(float64(s.totalRaceLaps)*0.65))
	strategies = append(strategies, &model.RaceStrategy{
		Name:             "one_stop_late",
		StartingCompound: model.CompoundMedium,
		PitStops: []model.PitStop{
			{Lap: lateStopLap, NewCompound: model.CompoundSoft, PitLossTime: DefaultPitLossTime},
		},
	})

	if s.totalRaceLaps > 30 {
		strategies = append(strategies, &model.RaceStrategy{
			Name:             "two_stop_aggressive",
			StartingCompound: model.CompoundSoft,
			PitStops: []model.PitStop{
				{Lap: s.totalRaceLaps / 3, NewCompound: model.CompoundSoft, PitLossTime: DefaultPitLossTime},
				{Lap: int(float64(s.totalRaceLaps) * 0.67), NewCompound: model.CompoundSoft, PitLossTime: DefaultPitLossTime},
			},
		})
	}

	strategies = append(strategies, &model.RaceStrategy{
		Name:             "conservative",
		StartingCompound: model.CompoundMedium,
		PitStops: []model.PitStop{
			{Lap: s.totalRaceLaps / 2, NewCompound: model.CompoundHard, PitLossTime: DefaultPitLossTime},
		},
	})

	return strategies
}

//nolint:whitespace // param list
func (s *Simulator) calcLapTime(
	profile model.TireCompoundProfile,
	tireAge int,
	fuelLoad float64,
	isPushLap, fuelSaving bool,
	rnd *rand.Rand,
) float64 {
	lapTime := s.baselineLapTime
	lapTime += profile.BaseGripAdvantage
	lapTime += s.baselineLapTime * (s.calcTireDegradation(tireAge, profile) / 100)
	lapTime += fuelLoad * s.fuelEffectPerLap
	if isPushLap {
		lapTime -= pushLapGain
	}
	if fuelSaving {
		lapTime += fuelSavingPenalty
	}
	if rnd != nil {
		lapTime += -s.trafficVariance + rnd.Float64()*2*s.trafficVariance
	}
	return max(lapTime, s.baselineLapTime*lapTimeFloorFactor)
}

// linear wear until the cliff, super-linear beyond it
func (s *Simulator) calcTireDegradation(
	tireAge int,
	profile model.TireCompoundProfile,
) float64 {
	if tireAge == 0 {
		return 0
	}
	deg := float64(tireAge) * profile.DegradationRate
	if tireAge > profile.CliffLap {
		lapsPastCliff := float64(tireAge - profile.CliffLap)
		deg += math.Pow(lapsPastCliff, s.cliffExponent) * s.cliffFactor
	}
	return deg
}

func lapNotes(tireAge int, profile model.TireCompoundProfile, isPitLap bool) string {
	switch {
	case isPitLap:
		return fmt.Sprintf("PIT STOP - Fresh %s tires", profile.Compound)
	case tireAge == 1:
		return fmt.Sprintf("Fresh %s tires", profile.Compound)
	case tireAge > profile.CliffLap:
		return fmt.Sprintf("CRITICAL: %d laps past cliff!", tireAge-profile.CliffLap)
	case tireAge >= profile.OptimalStintLength:
		return "Tires worn - consider pit stop"
	case tireAge < 5:
		return "Good tire performance"
	default:
		return "Managing tire wear"
	}
}

func pitLossOf(ps model.PitStop) float64 {
	if ps.PitLossTime > 0 {
		return ps.PitLossTime
	}
	return DefaultPitLossTime
}
