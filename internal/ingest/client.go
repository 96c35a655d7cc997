// Package ingest fetches hourly forecasts and place coordinates from
// Open-Meteo.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"

	"github.com/lox/hangorburn/internal/httputil"
	"github.com/lox/hangorburn/internal/metrics"
)

const Provider = "open-meteo"

// ErrProviderUnavailable is returned while the circuit breaker is open.
var ErrProviderUnavailable = errors.New("weather provider unavailable")

// StatusError is a non-200 response from the provider.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Body)
}

// FetchResult captures metadata about an API fetch for auditing.
type FetchResult struct {
	Endpoint     string
	HTTPStatus   int
	ResponseSize int
	RecordCount  int
	ParseErrors  int
	ParseError   string
	QualityFlags []string // hours dropped by FilterValid
	Body         []byte
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithMaxElapsed bounds how long a single request is retried.
func WithMaxElapsed(d time.Duration) Option {
	return func(cl *Client) { cl.maxElapsed = d }
}

// WithBreakerSettings overrides the circuit breaker configuration.
func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(cl *Client) { cl.breakerSettings = st }
}

// Client is the shared HTTP plumbing for Open-Meteo endpoints: retry with
// exponential backoff inside a circuit breaker.
type Client struct {
	http            *http.Client
	maxElapsed      time.Duration
	breakerSettings gobreaker.Settings
	breaker         *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		http:       httputil.NewClient(),
		maxElapsed: 30 * time.Second,
		breakerSettings: gobreaker.Settings{
			Name:        Provider,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				var se *StatusError
				if errors.As(err, &se) {
					return se.Status < 500 && se.Status != http.StatusTooManyRequests
				}
				return err == nil
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](c.breakerSettings)
	return c
}

// get fetches url, retrying rate limits and server errors. result is filled
// in whether or not the call succeeds.
func (c *Client) get(ctx context.Context, endpoint, url string, result *FetchResult) ([]byte, error) {
	result.Endpoint = endpoint
	start := time.Now()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		var body []byte
		operation := func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("build request: %w", err))
			}
			resp, err := c.http.Do(req)
			if err != nil {
				if ctx.Err() != nil {
					return backoff.Permanent(ctx.Err())
				}
				return fmt.Errorf("do request: %w", err)
			}
			defer resp.Body.Close()

			result.HTTPStatus = resp.StatusCode
			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("read body: %w", err))
			}
			result.ResponseSize = len(b)

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return &StatusError{Status: resp.StatusCode, Body: truncate(string(b), 200)}
			}
			if resp.StatusCode != http.StatusOK {
				return backoff.Permanent(&StatusError{Status: resp.StatusCode, Body: truncate(string(b), 200)})
			}
			body = b
			return nil
		}

		bo := backoff.NewExponentialBackOff()
		bo.MaxElapsedTime = c.maxElapsed
		if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
			return nil, err
		}
		return body, nil
	})

	metrics.ProviderLatency.WithLabelValues(Provider, endpoint).Observe(time.Since(start).Seconds())
	status := strconv.Itoa(result.HTTPStatus)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		status = "breaker_open"
		err = fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	} else if result.HTTPStatus == 0 {
		status = "error"
	}
	metrics.ProviderCallsTotal.WithLabelValues(Provider, endpoint, status).Inc()

	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	result.Body = body
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
