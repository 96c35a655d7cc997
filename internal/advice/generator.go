// Package advice turns engine recommendations into a short plain-English
// note using OpenAI's chat completion API.
package advice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/lox/hangorburn/internal/metrics"
	"github.com/lox/hangorburn/internal/scoring"
)

// ErrNoAPIKey is returned by New when advice is not configured.
var ErrNoAPIKey = errors.New("OPENAI_API_KEY not set")

const systemPrompt = `You write short, friendly household weather advice for people in the UK.
You are given the output of a scoring engine for drying laundry outdoors and/or lighting a woodburner.
Reply in at most three sentences. Use the engine's verdict and timing; never contradict them.
Mention warnings in plain words. Use 24-hour times.`

// Generator writes advice text.
type Generator struct {
	client openai.Client
	model  openai.ChatModel
}

// New creates a generator. Extra request options are passed to the client.
func New(apiKey string, opts ...option.RequestOption) (*Generator, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &Generator{
		client: client,
		model:  openai.ChatModelGPT4oMini,
	}, nil
}

// Advise returns advice for place covering every recommendation given.
func (g *Generator) Advise(ctx context.Context, place string, recs ...scoring.Recommendation) (string, error) {
	if len(recs) == 0 {
		return "", errors.New("no recommendations to advise on")
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(BuildPrompt(place, recs...)),
		},
	})
	if err != nil {
		metrics.AdviceRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		metrics.AdviceRequests.WithLabelValues("empty").Inc()
		return "", errors.New("no advice returned")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		metrics.AdviceRequests.WithLabelValues("empty").Inc()
		return "", errors.New("empty advice returned")
	}
	metrics.AdviceRequests.WithLabelValues("ok").Inc()
	log.Printf("advice: generated %d chars for %s", len(text), place)
	return text, nil
}

// BuildPrompt renders the recommendations as the user message.
func BuildPrompt(place string, recs ...scoring.Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Location: %s\n", place)
	for _, r := range recs {
		c := r.Current
		fmt.Fprintf(&b, "\n%s: %s (score %d), timing: %s\n", r.Domain, r.Status, c.Score, r.Timing)
		fmt.Fprintf(&b, "Reason: %s\n", r.Reason)
		fmt.Fprintf(&b, "Now (%s): %.0f°C, %.0f%% humidity, wind %.0f km/h, %.0f%% chance of rain\n",
			c.Time.Format("Mon 15:04"), c.Temperature, c.Humidity, c.WindSpeed, c.PrecipitationProbability)
		if w := r.BestWindow; w != nil {
			fmt.Fprintf(&b, "Best window: %s to %s, %s, average %.0f\n",
				w.Start.Format("Mon 15:04"), w.End.Format("15:04"), w.Quality, w.AverageScore)
		}
		if len(r.Warnings) > 0 {
			fmt.Fprintf(&b, "Warnings: %s\n", strings.Join(r.Warnings, ", "))
		}
	}
	return b.String()
}
