package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/pitwall-racing/pitwall/log"
	"github.com/pitwall-racing/pitwall/pkg/model"
	"github.com/pitwall-racing/pitwall/pkg/processing/degradation"
	"github.com/pitwall-racing/pitwall/pkg/processing/laps"
	"github.com/pitwall-racing/pitwall/pkg/processing/simulation"
	"github.com/pitwall-racing/pitwall/pkg/processing/strategy"
	"github.com/pitwall-racing/pitwall/pkg/utils"
	"github.com/pitwall-racing/pitwall/pkg/utils/cache"
	"github.com/pitwall-racing/pitwall/pkg/utils/cache/loadercache"
)

type (
	// AnalysisService is the library boundary for one race dataset.
	// Construct a fresh instance per dataset; fitted models are cached per
	// (vehicle, lap-data snapshot) and may be invalidated at any time.
	AnalysisService struct {
		byVehicle  map[string][]model.LapRecord
		processor  *laps.LapProcessor
		optimizer  *strategy.Optimizer
		modelOpts  []degradation.ModelOption
		modelCache cache.Cache[modelKey, vehicleModel]
		l          *log.Logger
	}
	AnalysisServiceOption func(s *AnalysisService)

	modelKey struct {
		vehicleID string
		snapshot  string
	}
	vehicleModel struct {
		model      *degradation.Model
		summary    model.FitSummary
		normalized *model.NormalizedLaps
	}

	// DegradationReport is the fit summary handed to the presentation layer.
	DegradationReport struct {
		RunID        string           `json:"runId"`
		VehicleID    string           `json:"vehicleId"`
		Fit          model.FitSummary `json:"fit"`
		PitLaps      []int            `json:"pitLaps"`
		StintCount   int              `json:"stintCount"`
		AcceptedLaps int              `json:"acceptedLaps"`
	}

	// SimulationReport wraps the ranked simulation results of one comparison.
	SimulationReport struct {
		RunID         string                    `json:"runId"`
		BaselineTime  float64                   `json:"baselineTime"`
		TotalRaceLaps int                       `json:"totalRaceLaps"`
		Seed          int64                     `json:"seed"`
		Race          model.RaceClassification  `json:"race"`
		Results       []*model.SimulationResult `json:"results"`
	}
)

func WithLapProcessor(p *laps.LapProcessor) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.processor = p
	}
}

func WithOptimizer(o *strategy.Optimizer) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.optimizer = o
	}
}

// WithModelOptions forwards options to the degradation model fits.
func WithModelOptions(opts ...degradation.ModelOption) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.modelOpts = opts
	}
}

func WithLogger(l *log.Logger) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.l = l
	}
}

func NewAnalysisService(
	records []model.LapRecord,
	opts ...AnalysisServiceOption,
) *AnalysisService {
	s := &AnalysisService{
		byVehicle: lo.GroupBy(records, func(r model.LapRecord) string {
			return r.VehicleID
		}),
		processor: laps.NewLapProcessor(),
		optimizer: strategy.NewOptimizer(),
		l:         log.Default().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.modelCache = loadercache.New(
		loadercache.WithLoader(s.fitVehicle),
		loadercache.WithLogger[modelKey, vehicleModel](s.l),
	)
	return s
}

// Vehicles lists the vehicle ids present in the dataset.
func (s *AnalysisService) Vehicles() []string {
	ids := lo.Keys(s.byVehicle)
	slices.Sort(ids)
	return ids
}

// DegradationReport normalizes the vehicle's laps and fits the decay model.
func (s *AnalysisService) DegradationReport(
	ctx context.Context,
	vehicleID string,
) (*DegradationReport, error) {
	vm, err := s.modelFor(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	stints := 0
	if n := len(vm.normalized.Samples); n > 0 {
		stints = vm.normalized.Samples[n-1].StintNumber
	}
	return &DegradationReport{
		RunID:        uuid.NewString(),
		VehicleID:    vehicleID,
		Fit:          vm.summary,
		PitLaps:      vm.normalized.PitLaps,
		StintCount:   stints,
		AcceptedLaps: len(vm.normalized.Samples),
	}, nil
}

// Forecast predicts lap times for the next n laps of the current stint.
func (s *AnalysisService) Forecast(
	ctx context.Context,
	vehicleID string,
	currentTireAge, n int,
) ([]model.LapForecast, error) {
	vm, err := s.modelFor(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	return vm.model.Forecast(currentTireAge, n)
}

// StintRecommendation reports how long the current tires should stay on.
func (s *AnalysisService) StintRecommendation(
	ctx context.Context,
	vehicleID string,
	currentTireAge int,
	thresholdPct float64,
) (*model.StintRecommendation, error) {
	vm, err := s.modelFor(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	return vm.model.RecommendStint(currentTireAge, thresholdPct)
}

// PitRecommendation runs the pit window search with the vehicle's fitted
// degradation rate and baseline.
func (s *AnalysisService) PitRecommendation(
	ctx context.Context,
	vehicleID string,
	currentLap, totalRaceLaps, currentTireAge int,
) (*model.PitWindowResult, error) {
	vm, err := s.modelFor(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	return s.optimizer.CalcPitWindow(&strategy.PitWindowParams{
		CurrentLap:      currentLap,
		TotalRaceLaps:   totalRaceLaps,
		CurrentTireAge:  currentTireAge,
		DegradationRate: vm.model.DegradationRate(),
		BaselineLaptime: vm.model.Baseline(),
	})
}

// Undercut evaluates pitting before a competitor.
func (s *AnalysisService) Undercut(
	ctx context.Context,
	vehicleID string,
	ownTireAge, competitorTireAge int,
	gapToCompetitor float64,
) (*model.UndercutResult, error) {
	vm, err := s.modelFor(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	return s.optimizer.CalcUndercut(&strategy.UndercutParams{
		OwnTireAge:        ownTireAge,
		CompetitorTireAge: competitorTireAge,
		GapToCompetitor:   gapToCompetitor,
		DegradationRate:   vm.model.DegradationRate(),
		BaselineLaptime:   vm.model.Baseline(),
	})
}

// RaceToFinish plays the remaining laps deterministically with a fixed
// pit plan.
func (s *AnalysisService) RaceToFinish(
	ctx context.Context,
	vehicleID string,
	currentLap, totalRaceLaps, currentTireAge int,
	pitLaps []int,
) (*model.RaceToFinishResult, error) {
	vm, err := s.modelFor(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	return s.optimizer.SimulateRaceToFinish(&strategy.RaceToFinishParams{
		CurrentLap:      currentLap,
		TotalRaceLaps:   totalRaceLaps,
		CurrentTireAge:  currentTireAge,
		PitLaps:         pitLaps,
		DegradationRate: vm.model.DegradationRate(),
		BaselineLaptime: vm.model.Baseline(),
	})
}

// Simulate compares race strategies on the vehicle's fitted baseline.
// An empty strategy list falls back to the default strategy set.
func (s *AnalysisService) Simulate(
	ctx context.Context,
	vehicleID string,
	totalRaceLaps int,
	strategies []*model.RaceStrategy,
	seed int64,
) (*SimulationReport, error) {
	vm, err := s.modelFor(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	return RunSimulation(vm.model.Baseline(), totalRaceLaps, strategies, seed)
}

// RunSimulation compares strategies on an explicit baseline, without a fitted
// model.
func RunSimulation(
	baselineLapTime float64,
	totalRaceLaps int,
	strategies []*model.RaceStrategy,
	seed int64,
	opts ...simulation.SimulatorOption,
) (*SimulationReport, error) {
	sim, err := simulation.NewSimulator(baselineLapTime, totalRaceLaps, opts...)
	if err != nil {
		return nil, err
	}
	if len(strategies) == 0 {
		strategies = sim.DefaultStrategies()
	}
	return &SimulationReport{
		RunID:         uuid.NewString(),
		BaselineTime:  baselineLapTime,
		TotalRaceLaps: totalRaceLaps,
		Seed:          seed,
		Race:          ClassifyRace(totalRaceLaps),
		Results:       sim.CompareStrategies(strategies, seed),
	}, nil
}

// ClassifyRace buckets a race distance into sprint/endurance with a
// strategic hint.
func ClassifyRace(totalLaps int) model.RaceClassification {
	switch {
	case totalLaps <= 20:
		return model.RaceClassification{
			RaceType: model.RaceTypeSprint,
			Strategy: "Minimal tire management - Focus on track position",
		}
	case totalLaps <= 35:
		return model.RaceClassification{
			RaceType: model.RaceTypeSprint,
			Strategy: "Single pit stop may be optional depending on tire wear",
		}
	case totalLaps <= 60:
		return model.RaceClassification{
			RaceType: model.RaceTypeEndurance,
			Strategy: "One pit stop recommended - Monitor tire degradation",
		}
	default:
		return model.RaceClassification{
			RaceType: model.RaceTypeEndurance,
			Strategy: "Multiple pit stops required - Active tire management",
		}
	}
}

// InvalidateModel drops the cached fit of the vehicle.
func (s *AnalysisService) InvalidateModel(ctx context.Context, vehicleID string) {
	s.modelCache.Invalidate(ctx, s.keyFor(vehicleID))
}

func (s *AnalysisService) modelFor(
	ctx context.Context,
	vehicleID string,
) (*vehicleModel, error) {
	if _, ok := s.byVehicle[vehicleID]; !ok {
		return nil, fmt.Errorf("%w: unknown vehicle %s",
			laps.ErrInsufficientData, vehicleID)
	}
	return s.modelCache.Get(ctx, s.keyFor(vehicleID))
}

func (s *AnalysisService) keyFor(vehicleID string) modelKey {
	return modelKey{
		vehicleID: vehicleID,
		snapshot:  utils.LapDataHash(s.byVehicle[vehicleID]),
	}
}

// fitVehicle is the cache loader: normalize, then fit.
func (s *AnalysisService) fitVehicle(key modelKey) (*vehicleModel, error) {
	normalized, err := s.processor.Process(s.byVehicle[key.vehicleID])
	if err != nil {
		return nil, err
	}
	m := degradation.NewModel(s.modelOpts...)
	summary, err := m.Fit(normalized.Samples)
	if err != nil {
		return nil, err
	}
	s.l.Debug("vehicle model fitted",
		log.String("vehicleId", key.vehicleID),
		log.Float64("rate", summary.DegradationRate))
	return &vehicleModel{model: m, summary: *summary, normalized: normalized}, nil
}
