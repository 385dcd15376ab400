package model

// PitScenario is one evaluated pit lap candidate.
// PitLap == 0 marks the no-pit scenario.
type PitScenario struct {
	PitLap              int     `json:"pitLap"`
	TimeInPit           float64 `json:"timeInPit"`
	TireAgeAtPit        int     `json:"tireAgeAtPit"`
	TotalTimeLoss       float64 `json:"totalTimeLoss"`
	TotalTimeGain       float64 `json:"totalTimeGain"`
	NetAdvantage        float64 `json:"netAdvantage"`
	RecommendationScore float64 `json:"recommendationScore"`
}

// PitWindowResult is the ranked outcome of a pit window search.
type PitWindowResult struct {
	OptimalPitLap     int                   `json:"optimalPitLap"`
	LapsUntilPit      int                   `json:"lapsUntilPit"`
	ProjectedTimeLoss float64               `json:"projectedTimeLoss"`
	ProjectedTimeGain float64               `json:"projectedTimeGain"`
	NetAdvantage      float64               `json:"netAdvantage"`
	Recommendation    string                `json:"recommendation"`
	ConfidenceScore   float64               `json:"confidenceScore"`
	Alternatives      []ScenarioAlternative `json:"alternativeScenarios"`
}

// ScenarioAlternative is the condensed form of a ranked scenario.
type ScenarioAlternative struct {
	PitLap       int     `json:"pitLap"`
	NetAdvantage float64 `json:"netAdvantage"`
	Score        float64 `json:"score"`
}

// UndercutResult describes the viability of pitting before a competitor.
type UndercutResult struct {
	UndercutViable    bool    `json:"undercutViable"`
	TimeGainPotential float64 `json:"timeGainPotential"`
	GapRequired       float64 `json:"gapRequired"`
	AdvantageMargin   float64 `json:"advantageMargin"`
	Recommendation    string  `json:"recommendation"`
}

// RaceToFinishResult is the outcome of the deterministic forward accumulation.
type RaceToFinishResult struct {
	TotalRaceTime   float64   `json:"totalRaceTime"`
	AverageLapTime  float64   `json:"averageLapTime"`
	FastestLapTime  float64   `json:"fastestLapTime"`
	SlowestLapTime  float64   `json:"slowestLapTime"`
	TotalPitStops   int       `json:"totalPitStops"`
	FinalTireAge    int       `json:"finalTireAge"`
	LapTimes        []float64 `json:"lapTimes"`
}

// undercut labels
const (
	UndercutNow     = "UNDERCUT_NOW"
	UndercutMonitor = "MONITOR"
)

// pit window recommendation labels (laps-dependent variants are formatted)
const (
	NoPitRecommended = "NO_PIT_RECOMMENDED"
	PitNow           = "PIT_NOW"
	PitSoon          = "PIT_SOON"
)
