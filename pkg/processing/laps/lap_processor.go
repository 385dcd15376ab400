package laps

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pitwall-racing/pitwall/log"
	"github.com/pitwall-racing/pitwall/pkg/model"
)

// ErrInsufficientData is returned when a vehicle has fewer than MinValidLaps
// usable laps after filtering. Callers treat this as "no analysis available".
var ErrInsufficientData = errors.New("insufficient lap data")

const (
	// PitTimeThreshold marks a lap as pit lap when exceeded (seconds).
	PitTimeThreshold = 130.0
	// MinValidLaps is the minimum number of accepted laps per vehicle.
	MinValidLaps = 5
	// lap times outside these bounds are invalid regardless of distribution
	MinPlausibleLap = 80.0
	MaxPlausibleLap = 130.0
	// DefaultMadMultiplier is the outlier window half-width in MADs.
	DefaultMadMultiplier = 3.0
	// baseline is averaged over this many fastest laps
	baselineLapCount = 3
)

type (
	// LapProcessor converts raw lap timestamps of one vehicle into
	// cleaned degradation samples with tire age and stint bookkeeping.
	LapProcessor struct {
		knownPitLaps  map[string][]int
		madMultiplier float64
		l             *log.Logger
	}
	LapProcessorOption func(p *LapProcessor)

	lapTiming struct {
		lapNum  int
		lapTime float64
	}
)

// WithKnownPitLaps supplies ground-truth pit laps per vehicle
// (sourced from race results data). They are unioned with detected pit laps.
func WithKnownPitLaps(pitLaps map[string][]int) LapProcessorOption {
	return func(p *LapProcessor) {
		p.knownPitLaps = pitLaps
	}
}

// WithMadMultiplier overrides the outlier window half-width (default 3 MADs).
func WithMadMultiplier(m float64) LapProcessorOption {
	return func(p *LapProcessor) {
		p.madMultiplier = m
	}
}

func WithLogger(l *log.Logger) LapProcessorOption {
	return func(p *LapProcessor) {
		p.l = l
	}
}

func NewLapProcessor(opts ...LapProcessorOption) *LapProcessor {
	p := &LapProcessor{
		knownPitLaps:  map[string][]int{},
		madMultiplier: DefaultMadMultiplier,
		l:             log.Default().Named("laps"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// detectPitLaps returns the lap numbers whose lap time exceeds
// max(PitTimeThreshold, 1.5 x median of all lap times).
func detectPitLaps(timings []lapTiming) []int {
	if len(timings) == 0 {
		return nil
	}
	lapTimes := make([]float64, len(timings))
	for i := range timings {
		lapTimes[i] = timings[i].lapTime
	}
	threshold := max(PitTimeThreshold, median(lapTimes)*1.5)
	pitLaps := make([]int, 0)
	for i := range timings {
		if timings[i].lapTime > threshold {
			pitLaps = append(pitLaps, timings[i].lapNum)
		}
	}
	return pitLaps
}

// Process normalizes the lap records of a single vehicle.
// Records may arrive unordered; they are sorted by timestamp.
//
//nolint:funlen // sequential pipeline reads better unsplit
func (p *LapProcessor) Process(records []model.LapRecord) (*model.NormalizedLaps, error) {
	if len(records) < MinValidLaps {
		return nil, fmt.Errorf("%w: vehicle %s has %d records",
			ErrInsufficientData, vehicleOf(records), len(records))
	}
	vehicleID := records[0].VehicleID

	ordered := slices.Clone(records)
	slices.SortFunc(ordered, func(a, b model.LapRecord) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	// lap time is the timestamp delta between consecutive crossings
	timings := make([]lapTiming, 0, len(ordered)-1)
	for i := 1; i < len(ordered); i++ {
		timings = append(timings, lapTiming{
			lapNum:  ordered[i].LapNumber,
			lapTime: ordered[i].Timestamp.Sub(ordered[i-1].Timestamp).Seconds(),
		})
	}
	if len(timings) < MinValidLaps {
		return nil, fmt.Errorf("%w: vehicle %s has %d laps",
			ErrInsufficientData, vehicleID, len(timings))
	}

	pitSet := p.pitLapSet(vehicleID, timings)
	accepted := p.filterOutliers(timings)
	if len(accepted) < MinValidLaps {
		return nil, fmt.Errorf("%w: vehicle %s has %d laps after filtering",
			ErrInsufficientData, vehicleID, len(accepted))
	}

	baseline := p.baselineTime(accepted)

	pitLaps := make([]int, 0, len(pitSet))
	for lap := range pitSet {
		pitLaps = append(pitLaps, lap)
	}
	slices.Sort(pitLaps)

	// tire age resets whenever a pit lap was crossed, even when the pit lap
	// itself got rejected by the outlier filter
	samples := make([]model.DegradationSample, 0, len(accepted))
	tireAge := 0
	stintNumber := 1
	pitIdx := 0
	for i := range accepted {
		crossedPit := false
		for pitIdx < len(pitLaps) && pitLaps[pitIdx] <= accepted[i].lapNum {
			pitIdx++
			crossedPit = true
		}
		if crossedPit {
			// fresh tires after pit
			tireAge = 1
			stintNumber++
		} else {
			tireAge++
		}
		samples = append(samples, model.DegradationSample{
			VehicleID:      vehicleID,
			LapNumber:      accepted[i].lapNum,
			StintNumber:    stintNumber,
			TireAge:        tireAge,
			LapTime:        accepted[i].lapTime,
			BaselineTime:   baseline,
			TimeDelta:      accepted[i].lapTime - baseline,
			DegradationPct: (accepted[i].lapTime - baseline) / baseline * 100,
			IsPitLap:       pitSet[accepted[i].lapNum],
		})
	}

	p.l.Debug("normalized laps",
		log.String("vehicleId", vehicleID),
		log.Int("accepted", len(samples)),
		log.Int("pitLaps", len(pitLaps)),
		log.Duration("baseline", time.Duration(baseline*float64(time.Second))))

	return &model.NormalizedLaps{
		VehicleID:    vehicleID,
		BaselineTime: baseline,
		PitLaps:      pitLaps,
		Samples:      samples,
	}, nil
}

// pitLapSet unions detected pit laps with the supplied ground-truth laps.
func (p *LapProcessor) pitLapSet(vehicleID string, timings []lapTiming) map[int]bool {
	set := make(map[int]bool)
	for _, lap := range detectPitLaps(timings) {
		set[lap] = true
	}
	for _, lap := range p.knownPitLaps[vehicleID] {
		set[lap] = true
	}
	return set
}

// filterOutliers keeps laps within median +/- madMultiplier x MAD, bounded to
// the plausible lap time domain.
func (p *LapProcessor) filterOutliers(timings []lapTiming) []lapTiming {
	lapTimes := make([]float64, len(timings))
	for i := range timings {
		lapTimes[i] = timings[i].lapTime
	}
	med := median(lapTimes)

	absDev := make([]float64, len(lapTimes))
	for i, lt := range lapTimes {
		absDev[i] = abs(lt - med)
	}
	mad := median(absDev)

	lower := max(MinPlausibleLap, med-p.madMultiplier*mad)
	upper := min(MaxPlausibleLap, med+p.madMultiplier*mad)

	accepted := make([]lapTiming, 0, len(timings))
	for i := range timings {
		if timings[i].lapTime >= lower && timings[i].lapTime <= upper {
			accepted = append(accepted, timings[i])
		}
	}
	return accepted
}

// baselineTime is the mean of the 3 fastest accepted laps.
// More stable than a single best lap.
func (p *LapProcessor) baselineTime(accepted []lapTiming) float64 {
	sorted := make([]float64, len(accepted))
	for i := range accepted {
		sorted[i] = accepted[i].lapTime
	}
	slices.Sort(sorted)
	n := min(baselineLapCount, len(sorted))
	return stat.Mean(sorted[:n], nil)
}

// median with midpoint averaging for even counts
func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func vehicleOf(records []model.LapRecord) string {
	if len(records) == 0 {
		return "unknown"
	}
	return records[0].VehicleID
}
