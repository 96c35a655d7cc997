// Package service wires location resolution, forecast fetching and caching
// around the scoring engines.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lox/hangorburn/internal/burning"
	"github.com/lox/hangorburn/internal/cache"
	"github.com/lox/hangorburn/internal/drying"
	"github.com/lox/hangorburn/internal/geo"
	"github.com/lox/hangorburn/internal/ingest"
	"github.com/lox/hangorburn/internal/metrics"
	"github.com/lox/hangorburn/internal/models"
	"github.com/lox/hangorburn/internal/scoring"
	"github.com/lox/hangorburn/internal/store"
)

const DefaultCacheTTL = time.Hour

var (
	ErrLocationNotFound = errors.New("location not found")
	ErrUnknownDomain    = errors.New("unknown domain")
	ErrUpstream         = errors.New("upstream weather provider failed")
)

type Forecaster interface {
	Fetch(ctx context.Context, loc models.Location) ([]models.HourlyObservation, *ingest.FetchResult, error)
}

type Geocoder interface {
	Lookup(ctx context.Context, name string) (models.Location, error)
}

type LocationStore interface {
	GetLocation(ctx context.Context, key string) (models.Location, error)
	UpsertLocation(ctx context.Context, key string, loc models.Location) error
}

// RunLogger records provider fetches for auditing.
type RunLogger interface {
	StartFetchRun(ctx context.Context, provider, endpoint, locationKey string) (*models.FetchRun, error)
	CompleteFetchRun(ctx context.Context, run *models.FetchRun, parseErrors int) error
	StoreRawPayload(ctx context.Context, runID, provider, endpoint, locationKey string, payload []byte) (int64, error)
}

type Advisor interface {
	Advise(ctx context.Context, place string, recs ...scoring.Recommendation) (string, error)
}

// Config holds the collaborators. Only Forecaster and Engines are required.
type Config struct {
	Forecaster Forecaster
	Geocoder   Geocoder
	Locations  LocationStore
	Runs       RunLogger
	Cache      cache.Cache
	CacheTTL   time.Duration
	Advisor    Advisor
	Dataset    *geo.Dataset
	Engines    []*scoring.Engine
	TimeZone   *time.Location
}

type Service struct {
	cfg     Config
	engines map[string]*scoring.Engine
	domains []string
	now     func() time.Time
}

// DefaultEngines builds the drying and burning engines.
func DefaultEngines(ds *geo.Dataset, indoorTemp float64) ([]*scoring.Engine, error) {
	dry, err := scoring.New(drying.Config(), ds)
	if err != nil {
		return nil, fmt.Errorf("drying config: %w", err)
	}
	burn, err := scoring.New(burning.Config(indoorTemp), ds)
	if err != nil {
		return nil, fmt.Errorf("burning config: %w", err)
	}
	return []*scoring.Engine{dry, burn}, nil
}

func New(cfg Config) (*Service, error) {
	if cfg.Forecaster == nil {
		return nil, errors.New("service: forecaster is required")
	}
	if len(cfg.Engines) == 0 {
		return nil, errors.New("service: at least one engine is required")
	}
	if cfg.Dataset == nil {
		cfg.Dataset = geo.UK()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.TimeZone == nil {
		cfg.TimeZone = time.UTC
	}

	s := &Service{cfg: cfg, engines: make(map[string]*scoring.Engine), now: time.Now}
	for _, e := range cfg.Engines {
		name := e.Config().Name
		if _, dup := s.engines[name]; dup {
			return nil, fmt.Errorf("service: duplicate engine %q", name)
		}
		s.engines[name] = e
		s.domains = append(s.domains, name)
	}
	return s, nil
}

// SetClock replaces the clock used to drop stale cached hours.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Domains lists the configured engine names in registration order.
func (s *Service) Domains() []string {
	return append([]string(nil), s.domains...)
}

// ParseDomains maps a request value to engine names. Empty and "both"
// select every engine.
func (s *Service) ParseDomains(v string) ([]string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" || v == "both" || v == "all" {
		return s.Domains(), nil
	}
	if _, ok := s.engines[v]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, v)
	}
	return []string{v}, nil
}

// Resolve turns a place name or "lat,lon" pair into a Location. Reference
// towns win over stored geocodes, which win over a fresh geocoder lookup.
func (s *Service) Resolve(ctx context.Context, query string) (models.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.Location{}, fmt.Errorf("%w: empty query", ErrLocationNotFound)
	}
	if loc, ok := parseCoordinates(query); ok {
		if err := models.ValidateLocation(loc); err != nil {
			return models.Location{}, err
		}
		return loc, nil
	}

	if town, ok := s.cfg.Dataset.LookupTown(query); ok {
		return models.Location{Name: town.Name, Latitude: town.Latitude, Longitude: town.Longitude}, nil
	}

	key := cache.NormalizeKey(query)
	if s.cfg.Locations != nil {
		loc, err := s.cfg.Locations.GetLocation(ctx, key)
		if err == nil {
			return loc, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("service: stored location %q: %v", key, err)
		}
	}

	if s.cfg.Geocoder == nil {
		return models.Location{}, fmt.Errorf("%w: %s", ErrLocationNotFound, query)
	}
	loc, err := s.cfg.Geocoder.Lookup(ctx, query)
	if errors.Is(err, ingest.ErrPlaceNotFound) {
		return models.Location{}, fmt.Errorf("%w: %s", ErrLocationNotFound, query)
	}
	if err != nil {
		return models.Location{}, fmt.Errorf("%w: geocode %s: %w", ErrUpstream, query, err)
	}

	if s.cfg.Locations != nil {
		if err := s.cfg.Locations.UpsertLocation(ctx, key, loc); err != nil {
			log.Printf("service: failed to store location %q: %v", key, err)
		}
	}
	return loc, nil
}

func parseCoordinates(q string) (models.Location, bool) {
	lat, lon, ok := strings.Cut(q, ",")
	if !ok {
		return models.Location{}, false
	}
	la, err1 := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	lo, err2 := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err1 != nil || err2 != nil {
		return models.Location{}, false
	}
	return models.Location{Latitude: la, Longitude: lo}, true
}

// Forecast returns the hourly series for loc from cache, fetching on a miss.
func (s *Service) Forecast(ctx context.Context, loc models.Location) ([]models.HourlyObservation, error) {
	key := cache.CoordinateKey(loc.Latitude, loc.Longitude)
	if series, ok := s.cached(ctx, key); ok {
		return series, nil
	}
	return s.fetch(ctx, loc, key)
}

func (s *Service) cached(ctx context.Context, key string) ([]models.HourlyObservation, bool) {
	if s.cfg.Cache == nil {
		return nil, false
	}
	b, ok, err := s.cfg.Cache.Get(ctx, key)
	if err != nil {
		log.Printf("service: cache get %s: %v", key, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var series []models.HourlyObservation
	if err := json.Unmarshal(b, &series); err != nil {
		log.Printf("service: corrupt cache entry %s: %v", key, err)
		return nil, false
	}

	from := s.now().Truncate(time.Hour)
	fresh := series[:0]
	for _, obs := range series {
		if obs.Time.Before(from) {
			continue
		}
		obs.Time = obs.Time.In(s.cfg.TimeZone)
		fresh = append(fresh, obs)
	}
	if len(fresh) == 0 {
		return nil, false
	}
	return fresh, true
}

func (s *Service) fetch(ctx context.Context, loc models.Location, key string) ([]models.HourlyObservation, error) {
	var run *models.FetchRun
	if s.cfg.Runs != nil {
		var err error
		run, err = s.cfg.Runs.StartFetchRun(ctx, ingest.Provider, "v1/forecast", key)
		if err != nil {
			log.Printf("service: failed to start fetch run: %v", err)
		}
	}

	series, result, err := s.cfg.Forecaster.Fetch(ctx, loc)
	s.completeRun(ctx, run, key, result, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if err := models.ValidateSeries(series); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	if s.cfg.Cache != nil {
		b, err := json.Marshal(series)
		if err == nil {
			err = s.cfg.Cache.Set(ctx, key, b, s.cfg.CacheTTL)
		}
		if err != nil {
			log.Printf("service: cache set %s: %v", key, err)
		}
	}
	return series, nil
}

func (s *Service) completeRun(ctx context.Context, run *models.FetchRun, key string, result *ingest.FetchResult, fetchErr error) {
	if run == nil {
		return
	}
	parseErrors := 0
	if result != nil {
		if result.HTTPStatus != 0 {
			run.HTTPStatus.Int64, run.HTTPStatus.Valid = int64(result.HTTPStatus), true
		}
		run.ResponseSize.Int64, run.ResponseSize.Valid = int64(result.ResponseSize), true
		run.RecordCount.Int64, run.RecordCount.Valid = int64(result.RecordCount), true
		if flags := ingest.QualityFlagsToJSON(result.QualityFlags); flags != "" {
			run.QualityFlags.String, run.QualityFlags.Valid = flags, true
		}
		parseErrors = result.ParseErrors
	}
	run.Success = fetchErr == nil
	if fetchErr != nil {
		run.ErrorMessage.String, run.ErrorMessage.Valid = fetchErr.Error(), true
	}
	if err := s.cfg.Runs.CompleteFetchRun(ctx, run, parseErrors); err != nil {
		log.Printf("service: failed to complete fetch run %s: %v", run.ID, err)
	}

	if result != nil && len(result.Body) > 0 {
		if _, err := s.cfg.Runs.StoreRawPayload(ctx, run.ID, ingest.Provider, result.Endpoint, key, result.Body); err != nil {
			log.Printf("service: failed to store raw payload: %v", err)
		}
	}
}

// Dataset is the reference data the engines were built with.
func (s *Service) Dataset() *geo.Dataset {
	return s.cfg.Dataset
}

// Evaluate runs the named engines over series concurrently. Outputs are
// returned in the order of domains.
func (s *Service) Evaluate(ctx context.Context, loc models.Location, series []models.HourlyObservation, domains []string) ([]scoring.Output, error) {
	engines := make([]*scoring.Engine, len(domains))
	for i, d := range domains {
		e, ok := s.engines[d]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, d)
		}
		engines[i] = e
	}

	outputs := make([]scoring.Output, len(engines))
	g, gCtx := errgroup.WithContext(ctx)
	for i, e := range engines {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			start := time.Now()
			out := e.Run(loc, series)
			metrics.EngineDuration.WithLabelValues(out.Domain).Observe(time.Since(start).Seconds())
			metrics.Recommendations.WithLabelValues(out.Domain, string(out.Recommendation.Status)).Inc()
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// Report is the result of one recommendation request.
type Report struct {
	Place       string           `json:"place"`
	Latitude    float64          `json:"latitude"`
	Longitude   float64          `json:"longitude"`
	GeneratedAt time.Time        `json:"generated_at"`
	Domains     []scoring.Output `json:"domains"`
	Advice      string           `json:"advice,omitempty"`
}

// Recommend resolves query, fetches its forecast and scores it for each
// domain. Advice is attached when requested and an advisor is configured;
// advice failures are logged and otherwise ignored.
func (s *Service) Recommend(ctx context.Context, query string, domains []string, withAdvice bool) (*Report, error) {
	loc, err := s.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}
	series, err := s.Forecast(ctx, loc)
	if err != nil {
		return nil, err
	}
	outputs, err := s.Evaluate(ctx, loc, series, domains)
	if err != nil {
		return nil, err
	}

	place := loc.Name
	if place == "" {
		place = cache.CoordinateKey(loc.Latitude, loc.Longitude)
	}
	report := &Report{
		Place:       place,
		Latitude:    loc.Latitude,
		Longitude:   loc.Longitude,
		GeneratedAt: s.now().In(s.cfg.TimeZone),
		Domains:     outputs,
	}

	if withAdvice && s.cfg.Advisor != nil {
		recs := make([]scoring.Recommendation, len(outputs))
		for i, o := range outputs {
			recs[i] = o.Recommendation
		}
		text, err := s.cfg.Advisor.Advise(ctx, place, recs...)
		if err != nil {
			log.Printf("service: advice for %s failed: %v", place, err)
		} else {
			report.Advice = text
		}
	}
	return report, nil
}
