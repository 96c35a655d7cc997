package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/lox/hangorburn/internal/geo"
	"github.com/lox/hangorburn/internal/models"
	"github.com/lox/hangorburn/internal/scoring"
	"github.com/lox/hangorburn/internal/service"
	"github.com/lox/hangorburn/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps service errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var ve *models.ValidationError
	switch {
	case errors.Is(err, service.ErrLocationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrUnknownDomain), errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUpstream):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		log.Printf("api: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

type request struct {
	location string
	domains  []string
	advice   bool
}

func (s *Server) parseRequest(r *http.Request) (request, error) {
	q := r.URL.Query()
	req := request{location: q.Get("location")}
	if req.location == "" {
		return req, errors.New("missing location parameter")
	}
	domains, err := s.svc.ParseDomains(q.Get("domain"))
	if err != nil {
		return req, err
	}
	req.domains = domains
	if v := q.Get("advice"); v != "" {
		req.advice, err = strconv.ParseBool(v)
		if err != nil {
			return req, errors.New("advice must be a boolean")
		}
	}
	return req, nil
}

type domainRecommendation struct {
	Domain         string                 `json:"domain"`
	Version        string                 `json:"version"`
	Geography      scoring.Geography      `json:"geography"`
	Recommendation scoring.Recommendation `json:"recommendation"`
}

type recommendationResponse struct {
	Place           string                 `json:"place"`
	Latitude        float64                `json:"latitude"`
	Longitude       float64                `json:"longitude"`
	GeneratedAt     time.Time              `json:"generated_at"`
	Recommendations []domainRecommendation `json:"recommendations"`
	Advice          string                 `json:"advice,omitempty"`
}

func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	report, err := s.svc.Recommend(r.Context(), req.location, req.domains, req.advice)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := recommendationResponse{
		Place:       report.Place,
		Latitude:    report.Latitude,
		Longitude:   report.Longitude,
		GeneratedAt: report.GeneratedAt,
		Advice:      report.Advice,
	}
	for _, out := range report.Domains {
		resp.Recommendations = append(resp.Recommendations, domainRecommendation{
			Domain:         out.Domain,
			Version:        out.Version,
			Geography:      out.Geography,
			Recommendation: out.Recommendation,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	report, err := s.svc.Recommend(r.Context(), req.location, req.domains, false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type locationEntry struct {
	Name      string          `json:"name"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	CoastalKm float64         `json:"coastal_km"`
	Tier      geo.CoastalTier `json:"coastal_tier"`
	Source    string          `json:"source"` // "reference" or "saved"
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	entries := make([]locationEntry, 0, len(s.dataset.Towns))
	for _, t := range s.dataset.Towns {
		entries = append(entries, locationEntry{
			Name:      t.Name,
			Latitude:  t.Latitude,
			Longitude: t.Longitude,
			CoastalKm: t.CoastalKm,
			Tier:      geo.ClassifyTier(t.CoastalKm),
			Source:    "reference",
		})
	}

	if s.store != nil {
		saved, err := s.store.ListLocations(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		for _, loc := range saved {
			dist := s.dataset.CoastalDistance(loc)
			entries = append(entries, locationEntry{
				Name:      loc.Name,
				Latitude:  loc.Latitude,
				Longitude: loc.Longitude,
				CoastalKm: dist.Km,
				Tier:      geo.ClassifyTier(dist.Km),
				Source:    "saved",
			})
		}
	}
	writeJSON(w, http.StatusOK, entries)
}

type healthStatus struct {
	Status           string                     `json:"status"`
	Domains          []string                   `json:"domains"`
	MigrationVersion int                        `json:"migration_version,omitempty"`
	Fetches          []store.FetchHealthSummary `json:"fetches,omitempty"`
	RecentErrors     []string                   `json:"recent_errors,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := healthStatus{Status: "ok", Domains: s.svc.Domains()}

	if s.store != nil {
		version, err := s.store.MigrationVersion()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": err.Error()})
			return
		}
		health.MigrationVersion = version

		health.Fetches, err = s.store.FetchHealth(r.Context(), 7)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": err.Error()})
			return
		}

		runs, err := s.store.RecentFetchErrors(r.Context(), 5)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": err.Error()})
			return
		}
		for _, run := range runs {
			health.RecentErrors = append(health.RecentErrors,
				run.StartedAt.Format(time.RFC3339)+" "+run.LocationKey+": "+run.ErrorMessage.String)
		}
	}
	writeJSON(w, http.StatusOK, health)
}
