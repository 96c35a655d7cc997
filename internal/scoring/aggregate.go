package scoring

import (
	"math"
	"time"

	"github.com/lox/hangorburn/internal/geo"
	"github.com/lox/hangorburn/internal/models"
)

// ScoringResult is the evaluation of a single forecast hour.
type ScoringResult struct {
	Time         time.Time          `json:"time"`
	Score        int                `json:"score"`
	Suitable     bool               `json:"suitable"`
	Disqualified bool               `json:"disqualified"`
	Components   map[string]float64 `json:"components"`
	Modifiers    map[string]float64 `json:"modifiers,omitempty"`
	Reasons      []string           `json:"reasons"`

	Observation models.HourlyObservation `json:"-"`
}

// TemporalWeight discounts hours further from the start of the series.
func TemporalWeight(offset time.Duration) float64 {
	switch {
	case offset < 24*time.Hour:
		return 1.0
	case offset < 48*time.Hour:
		return 0.97
	default:
		return 0.94
	}
}

// scoreHour evaluates rules, factors and multipliers for one hour. start is
// the first hour of the series and anchors temporal weighting.
func scoreHour(cfg *AlgorithmConfig, profile *geo.Profile, obs models.HourlyObservation, start time.Time) ScoringResult {
	res := ScoringResult{
		Time:        obs.Time,
		Components:  make(map[string]float64, len(cfg.Weights)),
		Modifiers:   map[string]float64{},
		Reasons:     []string{},
		Observation: obs,
	}

	dq := Evaluate(cfg.Rules, obs)
	if dq.Disqualified() {
		for name := range cfg.Weights {
			res.Components[name] = 0
		}
		res.Disqualified = true
		res.Reasons = dq.Codes()
		return res
	}

	in := &FactorInput{
		Obs:       obs,
		Profile:   profile,
		Features:  cfg.Features,
		modifiers: res.Modifiers,
	}

	var total float64
	for _, name := range cfg.FactorNames() {
		sub := Clamp(cfg.Factors[name](in))
		res.Components[name] = sub
		total += sub * cfg.Weights[name]
	}

	if dq.Penalty > 0 {
		res.Reasons = dq.Codes()
		res.Modifiers["soft_penalty"] = -dq.Penalty
		total -= dq.Penalty
	}
	total = Clamp(total) * in.ScoreMultiplier()

	if cfg.Features.TemporalWeighting {
		w := TemporalWeight(obs.Time.Sub(start))
		if w != 1 {
			res.Modifiers["temporal_weight"] = w
		}
		total *= w
	}

	res.Score = int(math.Round(Clamp(total)))
	res.Suitable = res.Score >= cfg.Thresholds.Suitable
	return res
}
