package scoring

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/lox/hangorburn/internal/geo"
	"github.com/lox/hangorburn/internal/models"
)

var base = time.Date(2026, 4, 14, 9, 0, 0, 0, time.UTC) // a Tuesday

// testConfig scores an hour as its temperature, which makes expected values
// easy to read.
func testConfig() *AlgorithmConfig {
	return &AlgorithmConfig{
		Name:    "test",
		Version: "1",
		Weights: map[string]float64{"temperature": 1.0},
		Factors: map[string]FactorFunc{
			"temperature": func(in *FactorInput) float64 { return in.Obs.Temperature },
		},
		Rules: []Rule{
			{Code: "rain", Severity: Hard, Predicate: func(o models.HourlyObservation) bool { return o.Precipitation > 0 }},
			{Code: "windy", Severity: Soft, Penalty: 10, Predicate: func(o models.HourlyObservation) bool { return o.WindSpeed > 30 }},
			{Code: "damp", Severity: Soft, Penalty: 5, Predicate: func(o models.HourlyObservation) bool { return o.Humidity > 90 }},
		},
		Thresholds: Thresholds{Excellent: 70, Suitable: 50, MinWindowHours: 2},
		Tiers:      []Tier{{"GO", 70}, {"MAYBE", 50}, {"NO", 0}},
	}
}

func series(temps ...float64) []models.HourlyObservation {
	out := make([]models.HourlyObservation, len(temps))
	for i, t := range temps {
		out[i] = models.HourlyObservation{Time: base.Add(time.Duration(i) * time.Hour), Temperature: t, Humidity: 50}
	}
	return out
}

func TestValidate(t *testing.T) {
	if err := testConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(c *AlgorithmConfig)
		wantErr error
	}{
		{
			name: "weights short of one",
			mutate: func(c *AlgorithmConfig) {
				c.Weights["temperature"] = 0.9
			},
			wantErr: ErrWeightSum,
		},
		{
			name: "weighted factor without function",
			mutate: func(c *AlgorithmConfig) {
				c.Weights = map[string]float64{"temperature": 0.5, "wind": 0.5}
			},
			wantErr: ErrMissingFactor,
		},
		{
			name: "rule without predicate",
			mutate: func(c *AlgorithmConfig) {
				c.Rules = append(c.Rules, Rule{Code: "broken", Severity: Hard})
			},
			wantErr: ErrInvalidRule,
		},
		{
			name: "tiers out of order",
			mutate: func(c *AlgorithmConfig) {
				c.Tiers = []Tier{{"NO", 0}, {"GO", 70}}
			},
			wantErr: ErrInvalidTiers,
		},
		{
			name: "no tiers",
			mutate: func(c *AlgorithmConfig) {
				c.Tiers = nil
			},
			wantErr: ErrInvalidTiers,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
			if _, err := New(cfg, geo.UK()); err == nil {
				t.Error("New accepted an invalid config")
			}
		})
	}
}

func TestValidate_WeightTolerance(t *testing.T) {
	cfg := testConfig()
	cfg.Weights["temperature"] = 0.9995
	if err := cfg.Validate(); err != nil {
		t.Errorf("weight sum within tolerance rejected: %v", err)
	}
	cfg.Weights["temperature"] = 0.998
	if err := cfg.Validate(); !errors.Is(err, ErrWeightSum) {
		t.Errorf("weight sum outside tolerance accepted: %v", err)
	}
}

func TestCurves(t *testing.T) {
	approx := func(name string, got, want float64) {
		t.Helper()
		if math.Abs(got-want) > 1e-6 {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}

	approx("Clamp(-5)", Clamp(-5), 0)
	approx("Clamp(150)", Clamp(150), 100)
	approx("Clamp(NaN)", Clamp(math.NaN()), 0)
	approx("Lerp mid", Lerp(5, 0, 10, 0, 100), 50)

	pts := []Point{{0, 0}, {10, 40}, {20, 85}}
	approx("Piecewise below", Piecewise(-3, pts...), 0)
	approx("Piecewise breakpoint", Piecewise(10, pts...), 40)
	approx("Piecewise inside", Piecewise(15, pts...), 62.5)
	approx("Piecewise above", Piecewise(30, pts...), 85)

	approx("LogGrowth at base", LogGrowth(50, 50, 16), 0)
	approx("LogGrowth at saturation", LogGrowth(800, 50, 16), 100)
	approx("LogGrowth quarter", LogGrowth(100, 50, 16), 25)

	approx("Asymptotic at floor", Asymptotic(0.2, 0.2, 0.5), 0)
	approx("Asymptotic one k", Asymptotic(0.7, 0.2, 0.5), 100*(1-math.Exp(-1)))
}

func TestEvaluate(t *testing.T) {
	cfg := testConfig()

	t.Run("first hard rule short-circuits", func(t *testing.T) {
		d := Evaluate(cfg.Rules, models.HourlyObservation{Precipitation: 1, WindSpeed: 40})
		if !d.Disqualified() || d.Hard.Code != "rain" {
			t.Fatalf("Hard = %+v, want rain", d.Hard)
		}
		if len(d.Soft) != 0 || d.Penalty != 0 {
			t.Errorf("soft rules evaluated after hard match: %+v", d.Soft)
		}
	})

	t.Run("soft rules accumulate", func(t *testing.T) {
		d := Evaluate(cfg.Rules, models.HourlyObservation{WindSpeed: 40, Humidity: 95})
		if d.Disqualified() {
			t.Fatal("unexpected hard disqualification")
		}
		if d.Penalty != 15 {
			t.Errorf("Penalty = %v, want 15", d.Penalty)
		}
		if got := d.Codes(); !reflect.DeepEqual(got, []string{"windy", "damp"}) {
			t.Errorf("Codes = %v", got)
		}
	})
}

func TestScore(t *testing.T) {
	e, err := New(testConfig(), geo.UK())
	if err != nil {
		t.Fatal(err)
	}
	profile := geo.Analyze(geo.UK(), models.Location{Name: "Birmingham", Latitude: 52.4862, Longitude: -1.8904})

	obs := series(80, 49.5, 49.4, 60, 70, 250, -20)
	obs[3].Precipitation = 0.1
	obs[4].WindSpeed = 35

	results := e.Score(profile, obs)

	tests := []struct {
		idx          int
		wantScore    int
		wantSuitable bool
		wantDisq     bool
	}{
		{0, 80, true, false},
		{1, 50, true, false}, // rounded up before the threshold check
		{2, 49, false, false},
		{3, 0, false, true},
		{4, 60, true, false},
		{5, 100, true, false},
		{6, 0, false, false},
	}
	for _, tt := range tests {
		r := results[tt.idx]
		if r.Score != tt.wantScore || r.Suitable != tt.wantSuitable || r.Disqualified != tt.wantDisq {
			t.Errorf("hour %d: score=%d suitable=%v disqualified=%v, want %d %v %v",
				tt.idx, r.Score, r.Suitable, r.Disqualified, tt.wantScore, tt.wantSuitable, tt.wantDisq)
		}
	}

	if c := results[3].Components["temperature"]; c != 0 {
		t.Errorf("disqualified component = %v, want 0", c)
	}
	if got := results[3].Reasons; !reflect.DeepEqual(got, []string{"rain"}) {
		t.Errorf("disqualified reasons = %v", got)
	}
	if got := results[4].Modifiers["soft_penalty"]; got != -10 {
		t.Errorf("soft_penalty modifier = %v, want -10", got)
	}
	if c := results[5].Components["temperature"]; c != 100 {
		t.Errorf("component not clamped: %v", c)
	}
}

func TestScore_Bounds(t *testing.T) {
	e, _ := New(testConfig(), geo.UK())
	profile := geo.Analyze(geo.UK(), models.Location{})

	var temps []float64
	for v := -200.0; v <= 300; v += 7.3 {
		temps = append(temps, v)
	}
	for _, r := range e.Score(profile, series(temps...)) {
		if r.Score < 0 || r.Score > 100 {
			t.Fatalf("score %d out of range", r.Score)
		}
		for name, c := range r.Components {
			if c < 0 || c > 100 {
				t.Fatalf("component %s = %v out of range", name, c)
			}
		}
	}
}

func TestTemporalWeighting(t *testing.T) {
	cfg := testConfig()
	cfg.Features.TemporalWeighting = true
	e, _ := New(cfg, geo.UK())

	obs := []models.HourlyObservation{
		{Time: base, Temperature: 100},
		{Time: base.Add(23 * time.Hour), Temperature: 100},
		{Time: base.Add(24 * time.Hour), Temperature: 100},
		{Time: base.Add(48 * time.Hour), Temperature: 100},
	}
	results := e.Score(geo.Analyze(geo.UK(), models.Location{}), obs)

	want := []int{100, 100, 97, 94}
	for i, w := range want {
		if results[i].Score != w {
			t.Errorf("hour %d score = %d, want %d", i, results[i].Score, w)
		}
	}
	if got := results[2].Modifiers["temporal_weight"]; got != 0.97 {
		t.Errorf("temporal_weight modifier = %v, want 0.97", got)
	}
}

func scored(cfg *AlgorithmConfig, obs []models.HourlyObservation) []ScoringResult {
	start := obs[0].Time
	out := make([]ScoringResult, len(obs))
	for i, o := range obs {
		out[i] = scoreHour(cfg, nil, o, start)
	}
	return out
}

func TestDetectWindows(t *testing.T) {
	cfg := testConfig()

	t.Run("runs shorter than the minimum are dropped", func(t *testing.T) {
		ws := DetectWindows(cfg, scored(cfg, series(60, 10, 60, 60, 10)))
		if len(ws) != 1 {
			t.Fatalf("got %d windows, want 1", len(ws))
		}
		w := ws[0]
		if !w.Start.Equal(base.Add(2*time.Hour)) || !w.End.Equal(base.Add(4*time.Hour)) || w.Hours != 2 {
			t.Errorf("window = %s..%s (%d h)", w.Start, w.End, w.Hours)
		}
	})

	t.Run("gap in the series splits a run", func(t *testing.T) {
		obs := series(60, 60, 60, 60)
		obs[2].Time = obs[2].Time.Add(time.Hour)
		obs[3].Time = obs[3].Time.Add(time.Hour)
		ws := DetectWindows(cfg, scored(cfg, obs))
		if len(ws) != 2 {
			t.Fatalf("got %d windows, want 2", len(ws))
		}
		for _, w := range ws {
			if w.Hours != 2 {
				t.Errorf("window hours = %d, want 2", w.Hours)
			}
		}
	})

	t.Run("ranked by average, ties keep order", func(t *testing.T) {
		ws := DetectWindows(cfg, scored(cfg, series(60, 60, 0, 80, 90, 0, 60, 60)))
		if len(ws) != 3 {
			t.Fatalf("got %d windows, want 3", len(ws))
		}
		if ws[0].AverageScore != 85 || ws[0].Quality != Excellent {
			t.Errorf("best = %+v", ws[0])
		}
		if !ws[1].Start.Before(ws[2].Start) {
			t.Error("equal-ranked windows not in chronological order")
		}
		if ws[1].Quality != Good {
			t.Errorf("Quality = %s, want good", ws[1].Quality)
		}
	})

	t.Run("peak is earliest maximum", func(t *testing.T) {
		ws := DetectWindows(cfg, scored(cfg, series(70, 90, 90)))
		if ws[0].PeakScore != 90 || !ws[0].PeakTime.Equal(base.Add(time.Hour)) {
			t.Errorf("peak = %d at %s", ws[0].PeakScore, ws[0].PeakTime)
		}
	})

	t.Run("practical hours only", func(t *testing.T) {
		c := testConfig()
		c.PracticalHours = []HourRange{{Start: 9, End: 11}}
		c.PracticalHoursOnly = true
		ws := DetectWindows(c, scored(c, series(60, 60, 60, 60)))
		if len(ws) != 1 || ws[0].Hours != 2 {
			t.Fatalf("windows = %+v, want one 2h window", ws)
		}
	})
}

func TestRecommend(t *testing.T) {
	cfg := testConfig()
	cfg.Hazards = []Hazard{{Code: "cold", Check: func(r ScoringResult) bool { return r.Observation.Temperature < 5 }}}
	cfg.Describe = func(s Status, _ ScoringResult, best *Window) string {
		if best == nil {
			return string(s) + " no window"
		}
		return string(s)
	}

	tests := []struct {
		name       string
		temps      []float64
		wantStatus Status
		wantTiming string
		wantAlts   int
	}{
		{"suitable now", []float64{75, 75, 75}, "GO", TimingNow, 0},
		{"window this afternoon", []float64{10, 10, 10, 10, 55, 55, 55}, "MAYBE", "this afternoon", 0},
		{"window beyond six hours", []float64{10, 10, 10, 10, 10, 10, 10, 10, 80, 80}, "GO", "from 17:00 Tue", 0},
		{"nothing suitable", []float64{20, 30, 2}, "NO", TimingNotRecommended, 0},
		{"alternatives capped", []float64{10, 60, 60, 0, 60, 60, 0, 60, 60, 0, 60, 60, 0, 60, 60}, "MAYBE", "this morning", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := scored(cfg, series(tt.temps...))
			rec := Recommend(cfg, results, DetectWindows(cfg, results))
			if rec.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", rec.Status, tt.wantStatus)
			}
			if rec.Timing != tt.wantTiming {
				t.Errorf("Timing = %q, want %q", rec.Timing, tt.wantTiming)
			}
			if len(rec.Alternatives) != tt.wantAlts {
				t.Errorf("Alternatives = %d, want %d", len(rec.Alternatives), tt.wantAlts)
			}
			if rec.Reason == "" {
				t.Error("empty reason")
			}
		})
	}
}

func TestRecommend_Warnings(t *testing.T) {
	cfg := testConfig()
	cfg.Hazards = []Hazard{{Code: "cold", Check: func(r ScoringResult) bool { return r.Observation.Temperature < 5 }}}

	obs := series(60, 2, 60, 1, 60)
	obs[0].WindSpeed = 40
	obs[2].WindSpeed = 40
	obs[4].Precipitation = 2

	results := scored(cfg, obs)
	rec := Recommend(cfg, results, DetectWindows(cfg, results))

	want := []string{"cold", "rain", "windy"}
	if !reflect.DeepEqual(rec.Warnings, want) {
		t.Errorf("Warnings = %v, want %v", rec.Warnings, want)
	}
}

func TestRecommend_Empty(t *testing.T) {
	rec := Recommend(testConfig(), nil, nil)
	if rec.Status != "NO" || rec.Timing != TimingNotRecommended {
		t.Errorf("empty recommendation = %+v", rec)
	}
	if rec.Warnings == nil || rec.Alternatives == nil {
		t.Error("nil slices in empty recommendation")
	}
}

func TestRun_Deterministic(t *testing.T) {
	e, _ := New(testConfig(), geo.UK())
	loc := models.Location{Name: "Brighton", Latitude: 50.8225, Longitude: -0.1372}
	obs := series(10, 55, 60, 70, 80, 20, 65, 65)

	first := e.Run(loc, obs)
	second := e.Run(loc, obs)
	if !reflect.DeepEqual(first, second) {
		t.Error("Run is not deterministic")
	}
	if first.Geography.Tier != geo.StronglyCoastal {
		t.Errorf("Tier = %s", first.Geography.Tier)
	}
	for _, w := range first.Windows {
		if w.Hours < 2 {
			t.Errorf("window shorter than minimum: %+v", w)
		}
	}
}

func TestPartOfDay(t *testing.T) {
	tests := map[int]string{
		4: "tonight", 5: "this morning", 11: "this morning", 12: "this afternoon",
		16: "this afternoon", 17: "this evening", 20: "this evening", 21: "tonight", 0: "tonight",
	}
	for hour, want := range tests {
		if got := PartOfDay(hour); got != want {
			t.Errorf("PartOfDay(%d) = %q, want %q", hour, got, want)
		}
	}
}
