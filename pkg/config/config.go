package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	LogLevel  string // sets the log level (zap log level values)
	LogFormat string // text vs json

	PitLossTime          float64 // seconds charged for a pit stop
	DegradationThreshold float64 // max acceptable degradation (percent) for stint planning
	MaxPitLookahead      int     // max laps ahead to evaluate as pit candidates
	StintScanLimit       int     // max laps ahead to scan for the stint recommendation
	NoPitMaxRemainLaps   int     // no-pit scenario only evaluated below this remaining lap count
	NoPitMaxTireAge      int     // no-pit scenario only evaluated below this tire age
	CliffAge             int     // tire age at which the super-linear wear penalty starts
	CliffExponent        float64 // exponent of the super-linear wear penalty
	CliffFactor          float64 // factor of the super-linear wear penalty
	MadMultiplier        float64 // outlier window half-width in MADs
	FuelEffectPerLap     float64 // lap time penalty per lap of fuel (seconds)
	TrafficVariance      float64 // random traffic impact on a lap (seconds)
	SimulationSeed       int64   // seed for strategy comparisons
)
