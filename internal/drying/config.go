// Package drying scores how well laundry will dry outdoors.
package drying

import (
	"fmt"
	"maps"
	"slices"

	"github.com/lox/hangorburn/internal/models"
	"github.com/lox/hangorburn/internal/scoring"
)

const (
	Name    = "drying"
	Version = "2.1"
)

const (
	Yes   scoring.Status = "YES"
	Maybe scoring.Status = "MAYBE"
	No    scoring.Status = "NO"
)

// Weights of the drying factors. They sum to 1.0.
var Weights = map[string]float64{
	"vpd":                0.20,
	"wind_speed":         0.15,
	"temperature":        0.12,
	"dew_point_spread":   0.10,
	"radiation":          0.12,
	"wet_bulb":           0.08,
	"evapotranspiration": 0.08,
	"sunshine":           0.05,
	"wind_direction":     0.05,
	"humidity":           0.05,
}

// Rules are checked in order; the first hard match zeroes the hour.
var Rules = []scoring.Rule{
	{
		Code:     "rain",
		Reason:   "it is raining",
		Severity: scoring.Hard,
		Predicate: func(o models.HourlyObservation) bool {
			return o.Precipitation > 0
		},
	},
	{
		Code:     "rain_risk",
		Reason:   "rain is likely",
		Severity: scoring.Hard,
		Predicate: func(o models.HourlyObservation) bool {
			return o.RainRisk() > 0.2
		},
	},
	{
		Code:     "condensation",
		Reason:   "air is at dew point",
		Severity: scoring.Hard,
		Predicate: func(o models.HourlyObservation) bool {
			return o.DewPointSpread() < 1
		},
	},
	{
		Code:     "very_high_humidity",
		Reason:   "humidity is very high",
		Severity: scoring.Soft,
		Penalty:  30,
		Predicate: func(o models.HourlyObservation) bool {
			return o.Humidity > 90 && !o.VPD.Valid
		},
	},
	{
		Code:     "extreme_wind",
		Reason:   "wind is strong enough to damage washing",
		Severity: scoring.Soft,
		Penalty:  20,
		Predicate: func(o models.HourlyObservation) bool {
			return o.WindSpeed > 50
		},
	},
}

// Config returns the drying algorithm configuration.
func Config() *scoring.AlgorithmConfig {
	return &scoring.AlgorithmConfig{
		Name:    Name,
		Version: Version,
		Weights: maps.Clone(Weights),
		Factors: map[string]scoring.FactorFunc{
			"vpd":                vpdScore,
			"wind_speed":         windSpeedScore,
			"temperature":        temperatureScore,
			"dew_point_spread":   dewPointSpreadScore,
			"radiation":          radiationScore,
			"wet_bulb":           wetBulbScore,
			"evapotranspiration": evapotranspirationScore,
			"sunshine":           sunshineScore,
			"wind_direction":     windDirectionScore,
			"humidity":           humidityScore,
		},
		Rules: slices.Clone(Rules),
		Thresholds: scoring.Thresholds{
			Excellent:      70,
			Suitable:       50,
			MinWindowHours: 2,
		},
		Tiers: []scoring.Tier{
			{Status: Yes, MinScore: 70},
			{Status: Maybe, MinScore: 50},
			{Status: No, MinScore: 0},
		},
		Features: scoring.Features{
			CoastalIntelligence:   true,
			WindAnalysis:          true,
			TopographicAdjustment: true,
			TemporalWeighting:     true,
		},
		Ranker:   scoring.AverageRanker,
		Describe: Describe,
	}
}

// Describe explains a drying recommendation in one sentence.
func Describe(status scoring.Status, current scoring.ScoringResult, best *scoring.Window) string {
	obs := current.Observation
	conditions := fmt.Sprintf("%.0f°C, %.0f%% humidity, wind %.0f km/h", obs.Temperature, obs.Humidity, obs.WindSpeed)

	if current.Disqualified && len(current.Reasons) > 0 {
		reason := ruleReason(current.Reasons[0])
		if best != nil {
			return fmt.Sprintf("Not now, %s. Better from %s (score %.0f).", reason, best.Start.Format("15:04"), best.AverageScore)
		}
		return fmt.Sprintf("Not today, %s.", reason)
	}

	switch {
	case current.Suitable && status == Yes:
		return "Good drying weather: " + conditions + "."
	case current.Suitable:
		return "Washing will dry, slowly: " + conditions + "."
	case best != nil:
		return fmt.Sprintf("Drying is poor now (%s). Better from %s (score %.0f).", conditions, best.Start.Format("15:04"), best.AverageScore)
	default:
		return "No good drying window in the forecast: " + conditions + "."
	}
}

func ruleReason(code string) string {
	for _, r := range Rules {
		if r.Code == code {
			return r.Reason
		}
	}
	return code
}
