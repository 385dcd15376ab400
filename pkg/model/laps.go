package model

import "time"

// LapRecord is the raw input produced by the external loader:
// one timestamped lap crossing per vehicle.
type LapRecord struct {
	VehicleID string    `json:"vehicleId"`
	LapNumber int       `json:"lapNumber"`
	Timestamp time.Time `json:"timestamp"`
}

// DegradationSample is one cleaned lap with tire bookkeeping attached.
// Within a stint TireAge increases by exactly 1 per lap;
// StintNumber is monotonically non-decreasing over the sequence.
type DegradationSample struct {
	VehicleID      string  `json:"vehicleId"`
	LapNumber      int     `json:"lapNumber"`
	StintNumber    int     `json:"stintNumber"`
	TireAge        int     `json:"tireAge"`
	LapTime        float64 `json:"lapTime"`
	BaselineTime   float64 `json:"baselineTime"`
	TimeDelta      float64 `json:"timeDelta"`
	DegradationPct float64 `json:"degradationPct"`
	IsPitLap       bool    `json:"isPitLap"`
}

// NormalizedLaps is the output of the lap processor for one vehicle.
type NormalizedLaps struct {
	VehicleID    string              `json:"vehicleId"`
	BaselineTime float64             `json:"baselineTime"`
	PitLaps      []int               `json:"pitLaps"`
	Samples      []DegradationSample `json:"samples"`
}

// FitSummary reports the quality of a fitted degradation model.
type FitSummary struct {
	Mae             float64 `json:"mae"`
	R2Score         float64 `json:"r2Score"`
	DegradationRate float64 `json:"avgDegradationRatePerLap"`
	Samples         int     `json:"samples"`
	BaselineLaptime float64 `json:"baselineLaptime"`
}

// LapForecast is one entry of a forward lap time prediction.
type LapForecast struct {
	Lap              int     `json:"lap"`
	TireAge          int     `json:"tireAge"`
	DegradationPct   float64 `json:"degradationPct"`
	PredictedLaptime float64 `json:"predictedLaptime"`
	TimeLoss         float64 `json:"timeLoss"`
}

// StintRecommendation describes how long the current set of tires should stay on.
type StintRecommendation struct {
	OptimalTireAgeForPit      int     `json:"optimalTireAgeForPit"`
	RemainingLapsOnTires      int     `json:"remainingLapsOnTires"`
	ProjectedDegradationAtPit float64 `json:"projectedDegradationAtPit"`
	CumulativeTimeLoss        float64 `json:"cumulativeTimeLoss"`
	Recommendation            string  `json:"recommendation"`
}

// stint recommendation labels
const (
	RecommendContinue    = "CONTINUE"
	RecommendConsiderPit = "CONSIDER_PIT"
	RecommendPitNow      = "PIT_NOW"
)

// race classification labels
const (
	RaceTypeSprint    = "SPRINT"
	RaceTypeEndurance = "ENDURANCE"
)

// RaceClassification is the coarse race type with a strategic hint.
type RaceClassification struct {
	RaceType string `json:"raceType"`
	Strategy string `json:"strategy"`
}
