package scoring

import (
	"sort"
	"time"
)

// Quality grades a window by its average score.
type Quality string

const (
	Excellent Quality = "excellent"
	Good      Quality = "good"
	Marginal  Quality = "marginal"
)

// Window is a run of consecutive suitable hours. End is exclusive: the hour
// after the last suitable hour.
type Window struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Hours        int       `json:"hours"`
	AverageScore float64   `json:"average_score"`
	PeakScore    int       `json:"peak_score"`
	PeakTime     time.Time `json:"peak_time"`
	Quality      Quality   `json:"quality"`
	Rank         float64   `json:"rank"`
}

// Each calls fn with the start of every hour in the window.
func (w Window) Each(fn func(hour time.Time)) {
	for t := w.Start; t.Before(w.End); t = t.Add(time.Hour) {
		fn(t)
	}
}

// AverageRanker ranks windows by their mean score.
func AverageRanker(w Window) float64 {
	return w.AverageScore
}

// DetectWindows finds maximal runs of suitable hours at least
// MinWindowHours long and orders them best first. Hours must be exactly one
// hour apart to join a run.
func DetectWindows(cfg *AlgorithmConfig, results []ScoringResult) []Window {
	windows := []Window{}
	var run []ScoringResult

	flush := func() {
		if len(run) >= cfg.Thresholds.MinWindowHours {
			windows = append(windows, buildWindow(cfg, run))
		}
		run = nil
	}

	for _, r := range results {
		ok := r.Suitable && (!cfg.PracticalHoursOnly || cfg.inPracticalHours(r.Time.Hour()))
		if !ok {
			flush()
			continue
		}
		if len(run) > 0 && r.Time.Sub(run[len(run)-1].Time) != time.Hour {
			flush()
		}
		run = append(run, r)
	}
	flush()

	ranker := cfg.Ranker
	if ranker == nil {
		ranker = AverageRanker
	}
	for i := range windows {
		windows[i].Rank = ranker(windows[i])
	}
	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].Rank > windows[j].Rank
	})
	return windows
}

func buildWindow(cfg *AlgorithmConfig, run []ScoringResult) Window {
	w := Window{
		Start: run[0].Time,
		End:   run[len(run)-1].Time.Add(time.Hour),
		Hours: len(run),
	}
	var sum int
	for _, r := range run {
		sum += r.Score
		if r.Score > w.PeakScore || w.PeakTime.IsZero() {
			w.PeakScore = r.Score
			w.PeakTime = r.Time
		}
	}
	w.AverageScore = float64(sum) / float64(len(run))
	w.Quality = qualityFor(cfg, w.AverageScore)
	return w
}

func qualityFor(cfg *AlgorithmConfig, avg float64) Quality {
	switch {
	case avg >= float64(cfg.Thresholds.Excellent):
		return Excellent
	case avg >= float64(cfg.Thresholds.Suitable):
		return Good
	default:
		return Marginal
	}
}
