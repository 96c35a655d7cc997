package scoring

import (
	"math"
	"sort"
	"time"
)

const (
	TimingNow            = "now"
	TimingNotRecommended = "not recommended"
)

// nearTerm is how far ahead a window may start and still be described by
// time of day rather than clock time.
const nearTerm = 6 * time.Hour

// ConditionSnapshot summarises the current hour.
type ConditionSnapshot struct {
	Time                     time.Time `json:"time"`
	Score                    int       `json:"score"`
	Status                   Status    `json:"status"`
	Temperature              float64   `json:"temperature"`
	Humidity                 float64   `json:"humidity"`
	WindSpeed                float64   `json:"wind_speed"`
	PrecipitationProbability float64   `json:"precipitation_probability"`
}

// Recommendation is the answer given to the user for one domain.
type Recommendation struct {
	Domain       string            `json:"domain"`
	Status       Status            `json:"status"`
	Timing       string            `json:"timing"`
	Reason       string            `json:"reason"`
	BestWindow   *Window           `json:"best_window,omitempty"`
	Alternatives []Window          `json:"alternatives"`
	Warnings     []string          `json:"warnings"`
	Current      ConditionSnapshot `json:"current"`
}

// Recommend builds the recommendation from scored hours and ranked windows.
// The first result is treated as the current hour.
func Recommend(cfg *AlgorithmConfig, results []ScoringResult, windows []Window) Recommendation {
	rec := Recommendation{
		Domain:       cfg.Name,
		Timing:       TimingNotRecommended,
		Alternatives: []Window{},
		Warnings:     []string{},
	}
	if len(results) == 0 {
		rec.Status = cfg.TierFor(0)
		return rec
	}

	current := results[0]
	rec.Current = snapshot(cfg, current)

	var best *Window
	if len(windows) > 0 {
		w := windows[0]
		best = &w
		rec.BestWindow = best
		for i := 1; i < len(windows) && i <= 3; i++ {
			rec.Alternatives = append(rec.Alternatives, windows[i])
		}
	}

	switch {
	case current.Suitable:
		rec.Status = cfg.TierFor(current.Score)
	case best != nil:
		rec.Status = cfg.TierFor(int(math.Round(best.AverageScore)))
	default:
		rec.Status = cfg.TierFor(current.Score)
	}

	rec.Timing = timing(current, windows)
	rec.Warnings = warnings(cfg, results)
	if cfg.Describe != nil {
		rec.Reason = cfg.Describe(rec.Status, current, best)
	}
	return rec
}

func snapshot(cfg *AlgorithmConfig, r ScoringResult) ConditionSnapshot {
	return ConditionSnapshot{
		Time:                     r.Time,
		Score:                    r.Score,
		Status:                   cfg.TierFor(r.Score),
		Temperature:              r.Observation.Temperature,
		Humidity:                 r.Observation.Humidity,
		WindSpeed:                r.Observation.WindSpeed,
		PrecipitationProbability: r.Observation.PrecipitationProbability,
	}
}

func timing(current ScoringResult, windows []Window) string {
	if current.Suitable {
		return TimingNow
	}

	var next *Window
	for i := range windows {
		if windows[i].Start.Before(current.Time) {
			continue
		}
		if next == nil || windows[i].Start.Before(next.Start) {
			next = &windows[i]
		}
	}
	if next == nil {
		return TimingNotRecommended
	}

	if next.Start.Sub(current.Time) <= nearTerm {
		return PartOfDay(next.Start.Hour())
	}
	return "from " + next.Start.Format("15:04 Mon")
}

// PartOfDay names the part of the day an hour falls in.
func PartOfDay(hour int) string {
	switch {
	case hour >= 5 && hour <= 11:
		return "this morning"
	case hour >= 12 && hour <= 16:
		return "this afternoon"
	case hour >= 17 && hour <= 20:
		return "this evening"
	default:
		return "tonight"
	}
}

func warnings(cfg *AlgorithmConfig, results []ScoringResult) []string {
	seen := map[string]struct{}{}
	for _, r := range results {
		for _, code := range r.Reasons {
			seen[code] = struct{}{}
		}
		for _, h := range cfg.Hazards {
			if h.Check != nil && h.Check(r) {
				seen[h.Code] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for code := range seen {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
