package simulation

import "github.com/pitwall-racing/pitwall/pkg/model"

// static compound characteristics, not fitted from data
//
//nolint:lll // table
var compoundProfiles = map[model.TireCompound]model.TireCompoundProfile{
	model.CompoundSoft: {
		Compound:           model.CompoundSoft,
		BaseGripAdvantage:  -0.5,
		DegradationRate:    0.3,
		CliffLap:           12,
		OptimalStintLength: 10,
	},
	model.CompoundMedium: {
		Compound:           model.CompoundMedium,
		BaseGripAdvantage:  0.0,
		DegradationRate:    0.15,
		CliffLap:           18,
		OptimalStintLength: 15,
	},
	model.CompoundHard: {
		Compound:           model.CompoundHard,
		BaseGripAdvantage:  0.3,
		DegradationRate:    0.08,
		CliffLap:           25,
		OptimalStintLength: 20,
	},
}

// CompoundProfile returns the static characteristics of a compound.
// Unknown compounds fall back to medium.
func CompoundProfile(c model.TireCompound) model.TireCompoundProfile {
	if profile, ok := compoundProfiles[c]; ok {
		return profile
	}
	return compoundProfiles[model.CompoundMedium]
}
