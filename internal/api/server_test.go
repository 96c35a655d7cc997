package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lox/hangorburn/internal/api"
	"github.com/lox/hangorburn/internal/geo"
	"github.com/lox/hangorburn/internal/ingest"
	"github.com/lox/hangorburn/internal/models"
	"github.com/lox/hangorburn/internal/service"
	"github.com/lox/hangorburn/internal/store"

	_ "modernc.org/sqlite"
)

type stubForecaster struct {
	err error
}

func (f stubForecaster) Fetch(ctx context.Context, loc models.Location) ([]models.HourlyObservation, *ingest.FetchResult, error) {
	if f.err != nil {
		return nil, &ingest.FetchResult{HTTPStatus: 503}, f.err
	}
	start := time.Date(2026, 1, 14, 17, 0, 0, 0, time.UTC)
	series := make([]models.HourlyObservation, 6)
	for i := range series {
		series[i] = models.HourlyObservation{
			Time:        start.Add(time.Duration(i) * time.Hour),
			Temperature: 2,
			Humidity:    70,
			DewPoint:    -2.6,
			WindSpeed:   8,
			Pressure:    sql.NullFloat64{Float64: 1025, Valid: true},
		}
	}
	return series, &ingest.FetchResult{HTTPStatus: 200, RecordCount: len(series)}, nil
}

func setupServer(t *testing.T, fetchErr error) http.Handler {
	t.Helper()
	h, _ := setupServerWith(t, stubForecaster{err: fetchErr}, geo.UK())
	return h
}

func setupServerWith(t *testing.T, f service.Forecaster, ds *geo.Dataset) (http.Handler, *store.Store) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	st := store.New(db, time.UTC)
	if err := st.Migrate(); err != nil {
		t.Fatal(err)
	}

	engines, err := service.DefaultEngines(ds, 20)
	if err != nil {
		t.Fatal(err)
	}
	svc, err := service.New(service.Config{
		Forecaster: f,
		Locations:  st,
		Runs:       st,
		Dataset:    ds,
		Engines:    engines,
	})
	if err != nil {
		t.Fatal(err)
	}
	return api.NewServer(svc, st, "8080").Handler(), st
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	w := get(t, setupServer(t, nil), "/health")

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Status           string   `json:"status"`
		Domains          []string `json:"domains"`
		MigrationVersion int      `json:"migration_version"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || len(body.Domains) != 2 || body.MigrationVersion == 0 {
		t.Errorf("health = %+v", body)
	}
}

func TestRecommendationEndpoint(t *testing.T) {
	t.Parallel()
	w := get(t, setupServer(t, nil), "/api/recommendation?location=Birmingham&domain=burning")

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body struct {
		Place           string `json:"place"`
		Recommendations []struct {
			Domain         string `json:"domain"`
			Recommendation struct {
				Status string `json:"status"`
				Timing string `json:"timing"`
			} `json:"recommendation"`
		} `json:"recommendations"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Place != "Birmingham" || len(body.Recommendations) != 1 {
		t.Fatalf("body = %+v", body)
	}
	rec := body.Recommendations[0]
	if rec.Domain != "burning" || rec.Recommendation.Status != "EXCELLENT" || rec.Recommendation.Timing != "now" {
		t.Errorf("recommendation = %+v", rec)
	}
}

func TestScoresEndpoint(t *testing.T) {
	t.Parallel()
	w := get(t, setupServer(t, nil), "/api/scores?location=Birmingham")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Domains []struct {
			Domain  string `json:"domain"`
			Results []struct {
				Score      int                `json:"score"`
				Components map[string]float64 `json:"components"`
			} `json:"results"`
		} `json:"domains"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Domains) != 2 {
		t.Fatalf("got %d domains", len(body.Domains))
	}
	for _, d := range body.Domains {
		if len(d.Results) != 6 {
			t.Errorf("%s: %d results, want 6", d.Domain, len(d.Results))
		}
		if len(d.Results) > 0 && len(d.Results[0].Components) == 0 {
			t.Errorf("%s: missing components", d.Domain)
		}
	}
}

func TestErrorStatuses(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		fetchErr error
		target   string
		want     int
	}{
		{"missing location", nil, "/api/recommendation", http.StatusBadRequest},
		{"bad domain", nil, "/api/recommendation?location=York&domain=ironing", http.StatusBadRequest},
		{"bad advice flag", nil, "/api/recommendation?location=York&advice=maybe", http.StatusBadRequest},
		{"unknown place", nil, "/api/recommendation?location=Atlantis", http.StatusNotFound},
		{"upstream failure", errors.New("status 503"), "/api/scores?location=York", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, setupServer(t, tt.fetchErr), tt.target)
			if w.Code != tt.want {
				t.Errorf("%s: got %d, want %d (%s)", tt.target, w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestLocationsEndpoint(t *testing.T) {
	t.Parallel()
	w := get(t, setupServer(t, nil), "/api/locations")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"name":"Brighton"`) || !strings.Contains(body, `"coastal_tier"`) {
		t.Errorf("unexpected body: %.200s", body)
	}
}

func TestLocationsEndpoint_DatasetAndSaved(t *testing.T) {
	t.Parallel()
	ds := &geo.Dataset{
		Towns: []geo.ReferenceTown{
			{Point: geo.Point{Name: "Testbury", Latitude: 52.2, Longitude: -1.5}, CoastalKm: 70},
		},
	}
	h, st := setupServerWith(t, stubForecaster{}, ds)
	hove := models.Location{Name: "Hove", Latitude: 50.8279, Longitude: -0.1688}
	if err := st.UpsertLocation(context.Background(), "hove", hove); err != nil {
		t.Fatal(err)
	}

	w := get(t, h, "/api/locations")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var entries []struct {
		Name   string          `json:"name"`
		Tier   geo.CoastalTier `json:"coastal_tier"`
		Source string          `json:"source"`
	}
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %+v, want Testbury and Hove only", entries)
	}
	if e := entries[0]; e.Name != "Testbury" || e.Source != "reference" || e.Tier != geo.StronglyInland {
		t.Errorf("reference entry = %+v", e)
	}
	if e := entries[1]; e.Name != "Hove" || e.Source != "saved" {
		t.Errorf("saved entry = %+v", e)
	}
}

func TestHealthEndpoint_FetchSummary(t *testing.T) {
	t.Parallel()
	h := setupServer(t, nil)
	if w := get(t, h, "/api/recommendation?location=Leeds&domain=burning"); w.Code != 200 {
		t.Fatalf("recommendation: %d %s", w.Code, w.Body.String())
	}

	w := get(t, h, "/health")
	var body struct {
		Fetches []struct {
			Provider     string `json:"provider"`
			TotalRuns    int    `json:"total_runs"`
			SuccessRuns  int    `json:"success_runs"`
			TotalRecords int64  `json:"total_records"`
		} `json:"fetches"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Fetches) != 1 {
		t.Fatalf("fetches = %+v", body.Fetches)
	}
	f := body.Fetches[0]
	if f.Provider != ingest.Provider || f.TotalRuns != 1 || f.SuccessRuns != 1 || f.TotalRecords != 6 {
		t.Errorf("fetch summary = %+v", f)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	h := setupServer(t, nil)
	get(t, h, "/api/recommendation?location=Leeds")

	w := get(t, h, "/metrics")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "hangorburn_recommendations_total") {
		t.Error("recommendation counter not exported")
	}
}
