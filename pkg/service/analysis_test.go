//nolint:thelper,funlen // ok for tests
package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pitwall-racing/pitwall/pkg/model"
	"github.com/pitwall-racing/pitwall/pkg/processing/degradation"
	"github.com/pitwall-racing/pitwall/pkg/processing/laps"
)

// sampleRecords builds lap crossings from consecutive lap times.
func sampleRecords(vehicleID string, lapTimes ...float64) []model.LapRecord {
	start := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	records := []model.LapRecord{
		{VehicleID: vehicleID, LapNumber: 0, Timestamp: start},
	}
	ts := start
	for i, lt := range lapTimes {
		ts = ts.Add(time.Duration(lt * float64(time.Second)))
		records = append(records, model.LapRecord{
			VehicleID: vehicleID,
			LapNumber: i + 1,
			Timestamp: ts,
		})
	}
	return records
}

func raceDataset() []model.LapRecord {
	records := sampleRecords("12",
		100, 100.1, 100.2, 100.3, 100.4, 100.5, 100.6, 100.7)
	return append(records, sampleRecords("44",
		101, 101.2, 101.4, 101.6, 101.8, 102.0, 102.2, 102.4)...)
}

func TestAnalysisService_Vehicles(t *testing.T) {
	srv := NewAnalysisService(raceDataset())
	assert.Equal(t, []string{"12", "44"}, srv.Vehicles())
}

func TestAnalysisService_DegradationReport(t *testing.T) {
	ctx := context.Background()
	srv := NewAnalysisService(raceDataset())

	report, err := srv.DegradationReport(ctx, "12")
	assert.NoError(t, err)
	assert.Equal(t, "12", report.VehicleID)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 8, report.AcceptedLaps)
	assert.Equal(t, 1, report.StintCount)
	assert.Empty(t, report.PitLaps)
	assert.Equal(t, 8, report.Fit.Samples)
	assert.Greater(t, report.Fit.BaselineLaptime, 0.0)
}

func TestAnalysisService_UnknownVehicle(t *testing.T) {
	ctx := context.Background()
	srv := NewAnalysisService(raceDataset())

	_, err := srv.DegradationReport(ctx, "99")
	assert.ErrorIs(t, err, laps.ErrInsufficientData)
}

func TestAnalysisService_ModelIsCached(t *testing.T) {
	ctx := context.Background()
	srv := NewAnalysisService(raceDataset())

	first, err := srv.DegradationReport(ctx, "12")
	assert.NoError(t, err)
	second, err := srv.DegradationReport(ctx, "12")
	assert.NoError(t, err)
	// same underlying fit, fresh run id per report
	assert.Equal(t, first.Fit, second.Fit)
	assert.NotEqual(t, first.RunID, second.RunID)

	srv.InvalidateModel(ctx, "12")
	third, err := srv.DegradationReport(ctx, "12")
	assert.NoError(t, err)
	assert.Equal(t, first.Fit, third.Fit)
}

func TestAnalysisService_StrategyOperations(t *testing.T) {
	ctx := context.Background()
	srv := NewAnalysisService(raceDataset())

	forecasts, err := srv.Forecast(ctx, "12", 8, 5)
	assert.NoError(t, err)
	assert.Len(t, forecasts, 5)

	stint, err := srv.StintRecommendation(ctx, "12", 8,
		degradation.DefaultThresholdPct)
	assert.NoError(t, err)
	assert.NotEmpty(t, stint.Recommendation)

	window, err := srv.PitRecommendation(ctx, "12", 10, 30, 8)
	assert.NoError(t, err)
	assert.NotEmpty(t, window.Recommendation)

	undercut, err := srv.Undercut(ctx, "12", 12, 10, 3.5)
	assert.NoError(t, err)
	assert.NotEmpty(t, undercut.Recommendation)

	finish, err := srv.RaceToFinish(ctx, "12", 25, 30, 8, []int{28})
	assert.NoError(t, err)
	assert.Equal(t, 1, finish.TotalPitStops)
	assert.Len(t, finish.LapTimes, 5)
}

func TestRunSimulation_Defaults(t *testing.T) {
	report, err := RunSimulation(98.5, 20, nil, 4711)
	assert.NoError(t, err)
	assert.InDelta(t, 98.5, report.BaselineTime, 1e-9)
	assert.Equal(t, int64(4711), report.Seed)
	assert.Equal(t, model.RaceTypeSprint, report.Race.RaceType)
	// no_stop, one_stop_early, one_stop_late, conservative
	assert.Len(t, report.Results, 4)
	for i, res := range report.Results {
		assert.Equal(t, i+1, res.FinalPosition)
	}
}

func TestRunSimulation_InvalidBaseline(t *testing.T) {
	_, err := RunSimulation(0, 20, nil, 1)
	assert.ErrorIs(t, err, degradation.ErrInvalidBaseline)
}

func TestClassifyRace(t *testing.T) {
	tests := []struct {
		laps     int
		raceType string
	}{
		{laps: 15, raceType: model.RaceTypeSprint},
		{laps: 30, raceType: model.RaceTypeSprint},
		{laps: 50, raceType: model.RaceTypeEndurance},
		{laps: 80, raceType: model.RaceTypeEndurance},
	}
	for _, tc := range tests {
		c := ClassifyRace(tc.laps)
		assert.Equal(t, tc.raceType, c.RaceType, "laps %d", tc.laps)
		assert.NotEmpty(t, c.Strategy)
	}
	assert.NotEqual(t, ClassifyRace(15).Strategy, ClassifyRace(30).Strategy)
}
