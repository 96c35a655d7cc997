package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/lox/hangorburn/internal/geo"
	"github.com/lox/hangorburn/internal/models"
)

// WeightTolerance is how far the weight sum may drift from 1.0.
const WeightTolerance = 0.001

var (
	ErrWeightSum     = errors.New("weights must sum to 1.0")
	ErrMissingFactor = errors.New("weighted factor has no scoring function")
	ErrInvalidRule   = errors.New("invalid disqualification rule")
	ErrInvalidTiers  = errors.New("status tiers must be non-empty and strictly descending")
)

// Severity decides what a matching disqualification rule does to the hour.
type Severity string

const (
	Hard Severity = "hard" // score forced to 0
	Soft Severity = "soft" // fixed penalty subtracted
)

// Rule is one disqualification check against raw hourly data.
type Rule struct {
	Code      string
	Reason    string
	Severity  Severity
	Penalty   float64 // soft rules only
	Predicate func(obs models.HourlyObservation) bool
}

// Features toggles the optional adjustments of the engine.
type Features struct {
	CoastalIntelligence   bool
	WindAnalysis          bool
	TopographicAdjustment bool
	TemporalWeighting     bool
}

// Thresholds are the score boundaries used for suitability and windows.
type Thresholds struct {
	Excellent      int
	Suitable       int
	MinWindowHours int
}

// Status is a domain-specific recommendation tier.
type Status string

// Tier maps a minimum score to a status. Tiers are listed best first; the
// last tier is the floor and should have MinScore 0.
type Tier struct {
	Status   Status
	MinScore int
}

// HourRange is a half-open hour-of-day interval [Start, End).
type HourRange struct {
	Start int
	End   int
}

func (r HourRange) Contains(hour int) bool {
	return hour >= r.Start && hour < r.End
}

// FactorInput is everything a factor function may consult for one hour.
type FactorInput struct {
	Obs      models.HourlyObservation
	Profile  *geo.Profile
	Features Features

	modifiers map[string]float64
	scale     float64
}

// Record notes a named multiplier that was applied, for transparency.
func (in *FactorInput) Record(name string, value float64) {
	if in.modifiers != nil {
		in.modifiers[name] = value
	}
}

// Adjust records m and multiplies the hour's final score by it after soft
// penalties. It carries geographic bonuses a 0-100 subscore cannot hold.
func (in *FactorInput) Adjust(name string, m float64) {
	in.Record(name, m)
	in.scale = in.ScoreMultiplier() * m
}

// ScoreMultiplier is the product of every Adjust call so far.
func (in *FactorInput) ScoreMultiplier() float64 {
	if in.scale == 0 {
		return 1
	}
	return in.scale
}

// FactorFunc maps one hour to a raw 0-100 subscore. The engine clamps the
// result.
type FactorFunc func(in *FactorInput) float64

// Hazard is a domain-specific warning check evaluated on every hour.
type Hazard struct {
	Code  string
	Check func(r ScoringResult) bool
}

// Ranker orders windows; higher is better.
type Ranker func(w Window) float64

// Describer writes the human-readable reason for a recommendation.
type Describer func(status Status, current ScoringResult, best *Window) string

// AlgorithmConfig parameterises the engine for one domain. It is built once
// and never mutated.
type AlgorithmConfig struct {
	Name    string
	Version string

	Weights map[string]float64
	Factors map[string]FactorFunc

	Rules      []Rule
	Thresholds Thresholds
	Tiers      []Tier
	Features   Features

	PracticalHours     []HourRange
	PracticalHoursOnly bool

	Ranker   Ranker
	Hazards  []Hazard
	Describe Describer
}

// FactorNames returns the weighted factors in a stable order.
func (c *AlgorithmConfig) FactorNames() []string {
	names := make([]string, 0, len(c.Weights))
	for name := range c.Weights {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WeightSum totals the weight map.
func (c *AlgorithmConfig) WeightSum() float64 {
	var sum float64
	for _, name := range c.FactorNames() {
		sum += c.Weights[name]
	}
	return sum
}

// Validate reports every configuration problem at once.
func (c *AlgorithmConfig) Validate() error {
	var errs []error

	for _, name := range c.FactorNames() {
		w := c.Weights[name]
		if w < 0 || w > 1 {
			errs = append(errs, fmt.Errorf("weight %s = %.4f outside [0,1]", name, w))
		}
		if c.Factors[name] == nil {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingFactor, name))
		}
	}
	if sum := c.WeightSum(); math.Abs(sum-1) > WeightTolerance {
		errs = append(errs, fmt.Errorf("%w: got %.4f", ErrWeightSum, sum))
	}

	for i, r := range c.Rules {
		switch {
		case r.Code == "":
			errs = append(errs, fmt.Errorf("%w: rule %d has no code", ErrInvalidRule, i))
		case r.Predicate == nil:
			errs = append(errs, fmt.Errorf("%w: %s has no predicate", ErrInvalidRule, r.Code))
		case r.Severity != Hard && r.Severity != Soft:
			errs = append(errs, fmt.Errorf("%w: %s has severity %q", ErrInvalidRule, r.Code, r.Severity))
		case r.Severity == Soft && r.Penalty < 0:
			errs = append(errs, fmt.Errorf("%w: %s has negative penalty", ErrInvalidRule, r.Code))
		}
	}

	if len(c.Tiers) == 0 {
		errs = append(errs, ErrInvalidTiers)
	}
	for i := 1; i < len(c.Tiers); i++ {
		if c.Tiers[i].MinScore >= c.Tiers[i-1].MinScore {
			errs = append(errs, fmt.Errorf("%w: %s (%d) after %s (%d)", ErrInvalidTiers,
				c.Tiers[i].Status, c.Tiers[i].MinScore, c.Tiers[i-1].Status, c.Tiers[i-1].MinScore))
		}
	}

	t := c.Thresholds
	if t.MinWindowHours < 1 {
		errs = append(errs, fmt.Errorf("minimum window must be at least 1 hour, got %d", t.MinWindowHours))
	}
	if t.Suitable < 0 || t.Suitable > 100 || t.Excellent < t.Suitable || t.Excellent > 100 {
		errs = append(errs, fmt.Errorf("thresholds out of order: suitable=%d excellent=%d", t.Suitable, t.Excellent))
	}

	return errors.Join(errs...)
}

// TierFor returns the status of a rounded score.
func (c *AlgorithmConfig) TierFor(score int) Status {
	for _, t := range c.Tiers {
		if score >= t.MinScore {
			return t.Status
		}
	}
	return c.Tiers[len(c.Tiers)-1].Status
}

func (c *AlgorithmConfig) inPracticalHours(hour int) bool {
	for _, r := range c.PracticalHours {
		if r.Contains(hour) {
			return true
		}
	}
	return false
}
