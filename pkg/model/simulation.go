package model

// TireCompound identifies one of the three predefined compounds.
type TireCompound string

const (
	CompoundSoft   TireCompound = "soft"
	CompoundMedium TireCompound = "medium"
	CompoundHard   TireCompound = "hard"
)

// TireCompoundProfile holds the static characteristics of a compound.
// These are not fitted from data.
type TireCompoundProfile struct {
	Compound           TireCompound `json:"compound"`
	BaseGripAdvantage  float64      `json:"baseGripAdvantage"` // seconds per lap vs baseline, negative = faster
	DegradationRate    float64      `json:"degradationRate"`   // percent per lap
	CliffLap           int          `json:"cliffLap"`
	OptimalStintLength int          `json:"optimalStintLength"`
}

// PitStop is one planned stop of a race strategy.
type PitStop struct {
	Lap         int          `json:"lap" yaml:"lap"`
	NewCompound TireCompound `json:"newCompound" yaml:"newCompound"`
	PitLossTime float64      `json:"pitLossTime" yaml:"pitLossTime"`
}

// RaceStrategy is a complete plan for a race distance.
type RaceStrategy struct {
	Name             string       `json:"name" yaml:"name"`
	StartingCompound TireCompound `json:"startingCompound" yaml:"startingCompound"`
	PitStops         []PitStop    `json:"pitStops" yaml:"pitStops"`
	FuelSavingMode   bool         `json:"fuelSavingMode" yaml:"fuelSavingMode"`
	PushLaps         []int        `json:"pushLaps" yaml:"pushLaps"`
}

// LapResult is one simulated lap.
type LapResult struct {
	LapNumber       int          `json:"lapNumber"`
	LapTime         float64      `json:"lapTime"`
	CumulativeTime  float64      `json:"cumulativeTime"`
	TireCompound    TireCompound `json:"tireCompound"`
	TireAge         int          `json:"tireAge"`
	TireDegradation float64      `json:"tireDegradation"`
	Position        int          `json:"positionEstimate"`
	GapToLeader     float64      `json:"gapToLeader"`
	IsPitLap        bool         `json:"isPitLap"`
	FuelLoad        float64      `json:"fuelLoad"`
	Notes           string       `json:"notes"`
}

// SimulationResult is the immutable outcome of simulating one strategy.
type SimulationResult struct {
	Strategy       RaceStrategy         `json:"strategy"`
	LapResults     []LapResult          `json:"lapResults"`
	TotalTime      float64              `json:"totalTime"`
	FinalPosition  int                  `json:"finalPosition"`
	TotalPitStops  int                  `json:"totalPitStops"`
	AverageLapTime float64              `json:"averageLapTime"`
	FastestLap     float64              `json:"fastestLap"`
	SlowestLap     float64              `json:"slowestLap"`
	TireUsage      map[TireCompound]int `json:"tireUsageSummary"`
}
