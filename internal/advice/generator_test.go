package advice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go/v3/option"

	"github.com/lox/hangorburn/internal/scoring"
)

func sampleRecommendation() scoring.Recommendation {
	start := time.Date(2026, 4, 14, 10, 0, 0, 0, time.UTC)
	return scoring.Recommendation{
		Domain: "drying",
		Status: "YES",
		Timing: "now",
		Reason: "Good drying: breezy and dry.",
		BestWindow: &scoring.Window{
			Start:        start,
			End:          start.Add(4 * time.Hour),
			Hours:        4,
			AverageScore: 72,
			Quality:      scoring.Excellent,
		},
		Warnings: []string{"very_high_humidity"},
		Current: scoring.ConditionSnapshot{
			Time:        start,
			Score:       72,
			Status:      "YES",
			Temperature: 18,
			Humidity:    45,
			WindSpeed:   12,
		},
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := New(""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Brighton", sampleRecommendation())
	for _, want := range []string{
		"Location: Brighton",
		"drying: YES (score 72), timing: now",
		"18°C, 45% humidity, wind 12 km/h",
		"Best window: Tue 10:00 to 14:00, excellent, average 72",
		"Warnings: very_high_humidity",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestAdvise(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1776160800,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "  Get the washing out now.  "}
			}]
		}`))
	}))
	defer srv.Close()

	g, err := New("test-key", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	if err != nil {
		t.Fatal(err)
	}

	text, err := g.Advise(context.Background(), "Brighton", sampleRecommendation())
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}
	if text != "Get the washing out now." {
		t.Errorf("text = %q", text)
	}
	if gotBody["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", gotBody["model"])
	}
	if msgs, _ := gotBody["messages"].([]any); len(msgs) != 2 {
		t.Errorf("messages = %v", gotBody["messages"])
	}
}

func TestAdvise_NoRecommendations(t *testing.T) {
	g, err := New("test-key")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Advise(context.Background(), "Brighton"); err == nil {
		t.Error("expected error with no recommendations")
	}
}
