// Package burning scores whether a woodburner will draw well.
package burning

import (
	"fmt"
	"maps"
	"time"

	"github.com/lox/hangorburn/internal/models"
	"github.com/lox/hangorburn/internal/scoring"
)

const (
	Name    = "burning"
	Version = "1.3"

	// DefaultIndoorTemp is the assumed room temperature in °C.
	DefaultIndoorTemp = 20.0
)

const (
	Excellent scoring.Status = "EXCELLENT"
	Good      scoring.Status = "GOOD"
	Marginal  scoring.Status = "MARGINAL"
	Poor      scoring.Status = "POOR"
	Avoid     scoring.Status = "AVOID"
)

// Weights of the burning factors. They sum to 1.0.
var Weights = map[string]float64{
	"temperature_differential": 0.50,
	"pressure":                 0.15,
	"humidity":                 0.15,
	"wind_speed":               0.10,
	"precipitation":            0.10,
}

var (
	Morning = scoring.HourRange{Start: 6, End: 11}
	Evening = scoring.HourRange{Start: 17, End: 23}
)

type burner struct {
	indoor float64
}

// Config returns the burning configuration for a room kept at indoor °C.
func Config(indoor float64) *scoring.AlgorithmConfig {
	b := &burner{indoor: indoor}
	return &scoring.AlgorithmConfig{
		Name:    Name,
		Version: Version,
		Weights: maps.Clone(Weights),
		Factors: map[string]scoring.FactorFunc{
			"temperature_differential": b.temperatureDifferentialScore,
			"pressure":                 pressureScore,
			"humidity":                 humidityScore,
			"wind_speed":               windSpeedScore,
			"precipitation":            precipitationScore,
		},
		Rules: b.rules(),
		Thresholds: scoring.Thresholds{
			Excellent:      75,
			Suitable:       60,
			MinWindowHours: 2,
		},
		Tiers: []scoring.Tier{
			{Status: Excellent, MinScore: 75},
			{Status: Good, MinScore: 60},
			{Status: Marginal, MinScore: 45},
			{Status: Poor, MinScore: 30},
			{Status: Avoid, MinScore: 0},
		},
		Features: scoring.Features{
			TopographicAdjustment: true,
			TemporalWeighting:     true,
		},
		PracticalHours: []scoring.HourRange{Morning, Evening},
		Ranker:         LifestyleRanker,
		Hazards:        b.hazards(),
		Describe:       b.describe,
	}
}

func (b *burner) delta(o models.HourlyObservation) float64 {
	return b.indoor - o.Temperature
}

func (b *burner) rules() []scoring.Rule {
	return []scoring.Rule{
		{
			Code:     "temperature_inversion",
			Reason:   "it is warmer outside than in, smoke will blow back",
			Severity: scoring.Hard,
			Predicate: func(o models.HourlyObservation) bool {
				return b.delta(o) < 0
			},
		},
		{
			Code:     "storm_pressure",
			Reason:   "storm-level pressure",
			Severity: scoring.Hard,
			Predicate: func(o models.HourlyObservation) bool {
				return o.Pressure.Valid && o.Pressure.Float64 < 980
			},
		},
		{
			Code:     "very_low_pressure",
			Reason:   "pressure is very low",
			Severity: scoring.Soft,
			Penalty:  30,
			Predicate: func(o models.HourlyObservation) bool {
				return o.Pressure.Valid && o.Pressure.Float64 < 990
			},
		},
		{
			Code:     "heavy_rain",
			Reason:   "heavy rain",
			Severity: scoring.Soft,
			Penalty:  20,
			Predicate: func(o models.HourlyObservation) bool {
				return o.Precipitation > 5
			},
		},
		{
			Code:     "fog",
			Reason:   "fog",
			Severity: scoring.Soft,
			Penalty:  15,
			Predicate: func(o models.HourlyObservation) bool {
				return o.Humidity > 95
			},
		},
	}
}

func (b *burner) hazards() []scoring.Hazard {
	marginal := func(o models.HourlyObservation) bool {
		dt := b.delta(o)
		return dt >= 0 && dt < 5
	}
	return []scoring.Hazard{
		{Code: "temperature_inversion", Check: func(r scoring.ScoringResult) bool {
			return b.delta(r.Observation) < 0
		}},
		{Code: "summer_chimney_syndrome", Check: func(r scoring.ScoringResult) bool {
			o := r.Observation
			m := o.Time.Month()
			summer := m >= time.June && m <= time.August
			return summer && o.Pressure.Valid && o.Pressure.Float64 > 1020 && o.WindSpeed < 5 && marginal(o)
		}},
		{Code: "cold_chimney_morning", Check: func(r scoring.ScoringResult) bool {
			h := r.Observation.Time.Hour()
			return h >= 5 && h <= 9 && marginal(r.Observation)
		}},
		{Code: "very_damp_conditions", Check: func(r scoring.ScoringResult) bool {
			return r.Observation.Humidity > 90
		}},
		{Code: "fog_conditions", Check: func(r scoring.ScoringResult) bool {
			return r.Observation.Humidity > 95
		}},
	}
}

// LifestyleRanker favours windows that fall when people actually light a
// fire: mornings and, most of all, evenings.
func LifestyleRanker(w scoring.Window) float64 {
	return w.AverageScore + LifestyleBonus(w)
}

// LifestyleBonus is the ranking adjustment for a window's hours of day.
func LifestyleBonus(w scoring.Window) float64 {
	var morning, evening, other int
	w.Each(func(t time.Time) {
		h := t.Hour()
		switch {
		case Morning.Contains(h):
			morning++
		case Evening.Contains(h):
			evening++
		default:
			other++
		}
	})

	switch {
	case other == 0 && evening == 0 && morning > 0:
		return 10
	case other == 0 && morning == 0 && evening > 0:
		return 15
	case morning > 0 && evening > 0:
		return 5
	case morning > 0 || evening > 0:
		return 3
	default:
		return -20
	}
}

func (b *burner) describe(status scoring.Status, current scoring.ScoringResult, best *scoring.Window) string {
	obs := current.Observation
	dt := b.delta(obs)

	if current.Disqualified && len(current.Reasons) > 0 {
		reason := b.ruleReason(current.Reasons[0])
		if best != nil {
			return fmt.Sprintf("Don't light it now, %s. Better from %s.", reason, best.Start.Format("15:04 Mon"))
		}
		return fmt.Sprintf("Don't light it, %s.", reason)
	}

	draw := fmt.Sprintf("%.0f°C outside against %.0f°C indoors gives a %.0f°C difference", obs.Temperature, b.indoor, dt)
	switch {
	case current.Suitable && status == Excellent:
		return "Excellent draw: " + draw + "."
	case current.Suitable:
		return "Good time to light the fire: " + draw + "."
	case best != nil:
		return fmt.Sprintf("Weak draw now (%s). Better from %s.", draw, best.Start.Format("15:04 Mon"))
	default:
		return "Poor draw expected all forecast: " + draw + "."
	}
}

func (b *burner) ruleReason(code string) string {
	for _, r := range b.rules() {
		if r.Code == code {
			return r.Reason
		}
	}
	return code
}
