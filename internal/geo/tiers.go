package geo

import "time"

// CoastalTier is a distance-to-coast band.
type CoastalTier string

const (
	StronglyCoastal CoastalTier = "STRONGLY_COASTAL"
	Coastal         CoastalTier = "COASTAL"
	Transitional    CoastalTier = "TRANSITIONAL"
	WeaklyInland    CoastalTier = "WEAKLY_INLAND"
	StronglyInland  CoastalTier = "STRONGLY_INLAND"
)

// ClassifyTier buckets a coastal distance. Bands are half-open: [lower, upper).
func ClassifyTier(km float64) CoastalTier {
	switch {
	case km < 5:
		return StronglyCoastal
	case km < 10:
		return Coastal
	case km < 20:
		return Transitional
	case km < 40:
		return WeaklyInland
	default:
		return StronglyInland
	}
}

// TierModifiers are the fixed multipliers attached to each coastal tier.
type TierModifiers struct {
	HumidityPenalty       float64 // divides humidity-driven subscores
	OffshoreBonus         float64
	OnshorePenalty        float64
	TemperatureModeration float64
}

var tierModifiers = map[CoastalTier]TierModifiers{
	StronglyCoastal: {HumidityPenalty: 1.30, OffshoreBonus: 1.15, OnshorePenalty: 0.80, TemperatureModeration: 0.85},
	Coastal:         {HumidityPenalty: 1.20, OffshoreBonus: 1.10, OnshorePenalty: 0.85, TemperatureModeration: 0.90},
	Transitional:    {HumidityPenalty: 1.10, OffshoreBonus: 1.05, OnshorePenalty: 0.92, TemperatureModeration: 0.95},
	WeaklyInland:    {HumidityPenalty: 1.05, OffshoreBonus: 1.02, OnshorePenalty: 0.97, TemperatureModeration: 1.00},
	StronglyInland:  {HumidityPenalty: 1.00, OffshoreBonus: 1.00, OnshorePenalty: 1.00, TemperatureModeration: 1.00},
}

// ModifiersFor returns the multipliers for a tier; unknown tiers are neutral.
func ModifiersFor(t CoastalTier) TierModifiers {
	if m, ok := tierModifiers[t]; ok {
		return m
	}
	return tierModifiers[StronglyInland]
}

// Season is one of the three coastal-influence bands.
type Season string

const (
	Winter   Season = "winter"
	Summer   Season = "summer"
	Shoulder Season = "shoulder"
)

// SeasonFor maps a month to its band (northern hemisphere).
func SeasonFor(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return Winter
	case time.June, time.July, time.August:
		return Summer
	default:
		return Shoulder
	}
}

// SeasonalScale is how strongly coastal effects apply in a season. The
// land-sea temperature contrast peaks in summer.
func SeasonalScale(s Season) float64 {
	switch s {
	case Summer:
		return 1.2
	case Winter:
		return 0.8
	default:
		return 1.0
	}
}

// Scale stretches a multiplier's deviation from neutral by a seasonal factor.
func Scale(multiplier, seasonal float64) float64 {
	return 1 + (multiplier-1)*seasonal
}
