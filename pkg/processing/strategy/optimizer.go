package strategy

import (
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/pitwall-racing/pitwall/log"
	"github.com/pitwall-racing/pitwall/pkg/model"
	"github.com/pitwall-racing/pitwall/pkg/processing/degradation"
)

// Heuristic constants from race engineering practice. Values are deliberate
// and overridable, not derived; treat changes as a domain expert decision.
const (
	DefaultPitLossTime = 45.0
	// candidates are generated up to this many laps ahead
	DefaultMaxLookahead = 15
	// a no-pit scenario is only eligible below both limits
	DefaultNoPitMaxRemainLaps = 8
	DefaultNoPitMaxTireAge    = 12
	// super-linear wear penalty beyond this tire age
	DefaultCliffAge      = 15
	DefaultCliffExponent = 1.5
	DefaultCliffFactor   = 0.2
	// undercut fresh-tire advantage window
	undercutLookaheadLaps = 3
)

type (
	// Optimizer searches candidate pit laps and undercut scenarios given a
	// fitted degradation rate and baseline lap time.
	Optimizer struct {
		pitLossTime        float64
		maxLookahead       int
		noPitMaxRemainLaps int
		noPitMaxTireAge    int
		cliffAge           int
		cliffExponent      float64
		cliffFactor        float64
		l                  *log.Logger
	}
	OptimizerOption func(o *Optimizer)

	// PitWindowParams describes the race situation for a pit window search.
	PitWindowParams struct {
		CurrentLap      int
		TotalRaceLaps   int
		CurrentTireAge  int
		DegradationRate float64 // percent per lap
		BaselineLaptime float64 // seconds
	}

	// UndercutParams describes the situation for an undercut evaluation.
	// GapToCompetitor is signed, positive = ahead of the competitor.
	UndercutParams struct {
		OwnTireAge        int
		CompetitorTireAge int
		GapToCompetitor   float64
		DegradationRate   float64
		BaselineLaptime   float64
	}

	// RaceToFinishParams describes a deterministic run to the race end.
	RaceToFinishParams struct {
		CurrentLap      int
		TotalRaceLaps   int
		CurrentTireAge  int
		PitLaps         []int
		DegradationRate float64
		BaselineLaptime float64
	}
)

func WithPitLossTime(seconds float64) OptimizerOption {
	return func(o *Optimizer) {
		o.pitLossTime = seconds
	}
}

func WithMaxLookahead(laps int) OptimizerOption {
	return func(o *Optimizer) {
		o.maxLookahead = laps
	}
}

func WithNoPitEligibility(maxRemainLaps, maxTireAge int) OptimizerOption {
	return func(o *Optimizer) {
		o.noPitMaxRemainLaps = maxRemainLaps
		o.noPitMaxTireAge = maxTireAge
	}
}

func WithCliffPenalty(exponent, factor float64) OptimizerOption {
	return func(o *Optimizer) {
		o.cliffExponent = exponent
		o.cliffFactor = factor
	}
}

func WithCliffAge(age int) OptimizerOption {
	return func(o *Optimizer) {
		o.cliffAge = age
	}
}

func WithLogger(l *log.Logger) OptimizerOption {
	return func(o *Optimizer) {
		o.l = l
	}
}

func NewOptimizer(opts ...OptimizerOption) *Optimizer {
	o := &Optimizer{
		pitLossTime:        DefaultPitLossTime,
		maxLookahead:       DefaultMaxLookahead,
		noPitMaxRemainLaps: DefaultNoPitMaxRemainLaps,
		noPitMaxTireAge:    DefaultNoPitMaxTireAge,
		cliffAge:           DefaultCliffAge,
		cliffExponent:      DefaultCliffExponent,
		cliffFactor:        DefaultCliffFactor,
		l:                  log.Default().Named("strategy"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CalcPitWindow evaluates every pit lap candidate in the lookahead window,
// plus the no-pit scenario when eligible, and ranks them by net advantage.
func (o *Optimizer) CalcPitWindow(param *PitWindowParams) (*model.PitWindowResult, error) {
	if param.BaselineLaptime <= 0 {
		return nil, fmt.Errorf("%w: got %f",
			degradation.ErrInvalidBaseline, param.BaselineLaptime)
	}
	remainingLaps := param.TotalRaceLaps - param.CurrentLap
	lookahead := min(o.maxLookahead, remainingLaps)

	scenarios := make([]model.PitScenario, 0, lookahead+1)
	for pitLap := param.CurrentLap + 1; pitLap <= param.CurrentLap+lookahead; pitLap++ {
		scenarios = append(scenarios, o.evaluatePitScenario(param, pitLap))
	}

	// no-pit is rarely optimal outside very short sprints
	if remainingLaps <= o.noPitMaxRemainLaps && param.CurrentTireAge < o.noPitMaxTireAge {
		scenarios = append(scenarios, o.evaluateNoPitScenario(param))
	}
	// with nothing left to evaluate (final lap, worn tires) staying out is
	// the only remaining move
	if len(scenarios) == 0 {
		scenarios = append(scenarios, o.evaluateNoPitScenario(param))
	}

	slices.SortStableFunc(scenarios, func(a, b model.PitScenario) int {
		switch {
		case a.NetAdvantage > b.NetAdvantage:
			return -1
		case a.NetAdvantage < b.NetAdvantage:
			return 1
		default:
			return 0
		}
	})
	optimal := scenarios[0]

	lapsUntilPit := 0
	if optimal.PitLap > 0 {
		lapsUntilPit = optimal.PitLap - param.CurrentLap
	}

	o.l.Debug("pit window",
		log.Int("optimalPitLap", optimal.PitLap),
		log.Float64("netAdvantage", optimal.NetAdvantage),
		log.Int("evaluated", len(scenarios)))

	return &model.PitWindowResult{
		OptimalPitLap:     optimal.PitLap,
		LapsUntilPit:      lapsUntilPit,
		ProjectedTimeLoss: optimal.TotalTimeLoss,
		ProjectedTimeGain: optimal.TotalTimeGain,
		NetAdvantage:      optimal.NetAdvantage,
		Recommendation:    bucketRecommendation(&optimal, param.CurrentLap),
		ConfidenceScore:   optimal.RecommendationScore,
		Alternatives: lo.Map(scenarios[:min(3, len(scenarios))],
			func(s model.PitScenario, _ int) model.ScenarioAlternative {
				return model.ScenarioAlternative{
					PitLap:       s.PitLap,
					NetAdvantage: s.NetAdvantage,
					Score:        s.RecommendationScore,
				}
			}),
	}, nil
}

// evaluatePitScenario charges the aging losses up to the pit lap plus the pit
// loss, and credits the fresh-vs-old saving for every lap after it.
func (o *Optimizer) evaluatePitScenario(
	param *PitWindowParams,
	pitLap int,
) model.PitScenario {
	tireAgeAtPit := param.CurrentTireAge + (pitLap - param.CurrentLap)

	timeLossBeforePit := 0.0
	for lap := param.CurrentLap + 1; lap <= pitLap; lap++ {
		age := param.CurrentTireAge + (lap - param.CurrentLap)
		timeLossBeforePit += param.BaselineLaptime * (param.DegradationRate * float64(age) / 100)
	}

	timeGainAfterPit := 0.0
	for lap := pitLap + 1; lap <= param.TotalRaceLaps; lap++ {
		freshAge := lap - pitLap
		freshTime := param.BaselineLaptime *
			(1 + param.DegradationRate*float64(freshAge)/100)

		oldAge := param.CurrentTireAge + (lap - param.CurrentLap)
		oldTime := param.BaselineLaptime *
			(1 + param.DegradationRate*float64(oldAge)/100)

		timeGainAfterPit += oldTime - freshTime
	}

	totalTimeLoss := o.pitLossTime + timeLossBeforePit
	netAdvantage := timeGainAfterPit - totalTimeLoss

	return model.PitScenario{
		PitLap:              pitLap,
		TimeInPit:           o.pitLossTime,
		TireAgeAtPit:        tireAgeAtPit,
		TotalTimeLoss:       totalTimeLoss,
		TotalTimeGain:       timeGainAfterPit,
		NetAdvantage:        netAdvantage,
		RecommendationScore: clampScore(50 + netAdvantage/5),
	}
}

// evaluateNoPitScenario accumulates the cost of running the current tires to
// the flag, with the super-linear wear penalty once the set passes the cliff.
// Its score is deliberately harsher to bias against long no-stop stints.
func (o *Optimizer) evaluateNoPitScenario(param *PitWindowParams) model.PitScenario {
	remainingLaps := param.TotalRaceLaps - param.CurrentLap

	timeLoss := 0.0
	for lap := param.CurrentLap + 1; lap <= param.TotalRaceLaps; lap++ {
		age := param.CurrentTireAge + (lap - param.CurrentLap)
		deg := param.DegradationRate * float64(age)
		if age > o.cliffAge {
			deg += math.Pow(float64(age-o.cliffAge), o.cliffExponent) * o.cliffFactor
		}
		timeLoss += param.BaselineLaptime * (deg / 100)
	}

	var score float64
	if remainingLaps <= 5 && math.Abs(param.DegradationRate) < 0.5 {
		score = 60 - timeLoss/2
	} else {
		score = 20 - timeLoss/3
	}

	return model.PitScenario{
		PitLap:              0,
		TimeInPit:           0,
		TireAgeAtPit:        param.CurrentTireAge + remainingLaps,
		TotalTimeLoss:       timeLoss,
		TotalTimeGain:       0,
		NetAdvantage:        -timeLoss,
		RecommendationScore: clampScore(score),
	}
}

// CalcUndercut checks whether pitting before the competitor gains enough to
// clear the current gap.
func (o *Optimizer) CalcUndercut(param *UndercutParams) (*model.UndercutResult, error) {
	if param.BaselineLaptime <= 0 {
		return nil, fmt.Errorf("%w: got %f",
			degradation.ErrInvalidBaseline, param.BaselineLaptime)
	}

	// out-lap is slowed by the pit exit
	outLapTime := param.BaselineLaptime + o.pitLossTime/2

	competitorDeg := param.DegradationRate * float64(param.CompetitorTireAge+1)
	competitorInLapTime := param.BaselineLaptime * (1 + competitorDeg/100)

	undercutGain := competitorInLapTime - outLapTime

	freshTireAdvantage := 0.0
	for offset := 1; offset <= undercutLookaheadLaps; offset++ {
		freshDeg := param.DegradationRate * float64(offset)
		oldDeg := param.DegradationRate * float64(param.CompetitorTireAge+offset)
		freshTireAdvantage += param.BaselineLaptime * (1 + oldDeg/100)
		freshTireAdvantage -= param.BaselineLaptime * (1 + freshDeg/100)
	}

	totalPotential := undercutGain + freshTireAdvantage
	gapRequired := math.Abs(param.GapToCompetitor)
	viable := totalPotential > gapRequired
	margin := totalPotential - gapRequired

	recommendation := model.UndercutMonitor
	if viable && margin > 2 {
		recommendation = model.UndercutNow
	}

	return &model.UndercutResult{
		UndercutViable:    viable,
		TimeGainPotential: totalPotential,
		GapRequired:       gapRequired,
		AdvantageMargin:   margin,
		Recommendation:    recommendation,
	}, nil
}

// SimulateRaceToFinish plays the remaining laps forward with the given pit
// laps. Purely deterministic, no randomness involved.
func (o *Optimizer) SimulateRaceToFinish(
	param *RaceToFinishParams,
) (*model.RaceToFinishResult, error) {
	if param.BaselineLaptime <= 0 {
		return nil, fmt.Errorf("%w: got %f",
			degradation.ErrInvalidBaseline, param.BaselineLaptime)
	}

	tireAge := param.CurrentTireAge
	totalTime := 0.0
	lapTimes := make([]float64, 0, param.TotalRaceLaps-param.CurrentLap)
	for lap := param.CurrentLap + 1; lap <= param.TotalRaceLaps; lap++ {
		if slices.Contains(param.PitLaps, lap) {
			// the pit lap itself runs at baseline on the fresh set
			totalTime += o.pitLossTime
			tireAge = 0
		} else {
			tireAge++
		}
		lapTime := param.BaselineLaptime *
			(1 + param.DegradationRate*float64(tireAge)/100)
		totalTime += lapTime
		lapTimes = append(lapTimes, lapTime)
	}

	result := &model.RaceToFinishResult{
		TotalRaceTime: totalTime,
		TotalPitStops: len(param.PitLaps),
		FinalTireAge:  tireAge,
		LapTimes:      lapTimes,
	}
	if len(lapTimes) > 0 {
		result.AverageLapTime = stat.Mean(lapTimes, nil)
		result.FastestLapTime = slices.Min(lapTimes)
		result.SlowestLapTime = slices.Max(lapTimes)
	}
	return result, nil
}

func bucketRecommendation(optimal *model.PitScenario, currentLap int) string {
	if optimal.PitLap == 0 {
		return model.NoPitRecommended
	}
	lapsUntilPit := optimal.PitLap - currentLap
	switch {
	case lapsUntilPit <= 1:
		return model.PitNow
	case lapsUntilPit <= 3:
		return fmt.Sprintf("PIT_IN_%d_LAPS", lapsUntilPit)
	case lapsUntilPit <= 5:
		return model.PitSoon
	default:
		return fmt.Sprintf("PIT_WINDOW_LAP_%d", optimal.PitLap)
	}
}

func clampScore(score float64) float64 {
	return max(0, min(100, score))
}
