// Package scoring is the domain-agnostic suitability engine. A domain
// supplies an AlgorithmConfig (weights, factor functions, rules, tiers) and
// the engine turns an hourly forecast into scored hours, windows and a
// recommendation.
package scoring

import (
	"fmt"

	"github.com/lox/hangorburn/internal/geo"
	"github.com/lox/hangorburn/internal/models"
)

// Engine runs one AlgorithmConfig against forecasts. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	cfg *AlgorithmConfig
	geo *geo.Dataset
}

// New validates cfg and returns an engine for it.
func New(cfg *AlgorithmConfig, ds *geo.Dataset) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil algorithm config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", cfg.Name, err)
	}
	if ds == nil {
		ds = geo.UK()
	}
	return &Engine{cfg: cfg, geo: ds}, nil
}

func (e *Engine) Config() *AlgorithmConfig { return e.cfg }

// Geography summarises the location context used for scoring.
type Geography struct {
	DistanceKm  float64            `json:"coastal_distance_km"`
	Method      geo.DistanceMethod `json:"distance_method"`
	Tier        geo.CoastalTier    `json:"coastal_tier"`
	Shelter     float64            `json:"shelter"`
	Topographic float64            `json:"topographic"`
}

// Output is everything the engine produced for one request.
type Output struct {
	Domain         string          `json:"domain"`
	Version        string          `json:"version"`
	Location       models.Location `json:"-"`
	Geography      Geography       `json:"geography"`
	Results        []ScoringResult `json:"results"`
	Windows        []Window        `json:"windows"`
	Recommendation Recommendation  `json:"recommendation"`
}

// Score evaluates every hour of the series against the profile.
func (e *Engine) Score(profile *geo.Profile, series []models.HourlyObservation) []ScoringResult {
	results := make([]ScoringResult, 0, len(series))
	if len(series) == 0 {
		return results
	}
	start := series[0].Time
	for _, obs := range series {
		results = append(results, scoreHour(e.cfg, profile, obs, start))
	}
	return results
}

// Run scores the series for loc and derives windows and a recommendation.
// The series is expected to be validated; Run itself never fails.
func (e *Engine) Run(loc models.Location, series []models.HourlyObservation) Output {
	profile := geo.Analyze(e.geo, loc)
	results := e.Score(profile, series)
	windows := DetectWindows(e.cfg, results)

	return Output{
		Domain:   e.cfg.Name,
		Version:  e.cfg.Version,
		Location: loc,
		Geography: Geography{
			DistanceKm:  profile.Distance.Km,
			Method:      profile.Distance.Method,
			Tier:        profile.Tier,
			Shelter:     profile.Shelter,
			Topographic: profile.Topographic,
		},
		Results:        results,
		Windows:        windows,
		Recommendation: Recommend(e.cfg, results, windows),
	}
}
