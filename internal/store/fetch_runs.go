package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/lox/hangorburn/internal/models"
)

// StartFetchRun creates a new fetch run record and returns it.
func (s *Store) StartFetchRun(ctx context.Context, provider, endpoint, locationKey string) (*models.FetchRun, error) {
	run := &models.FetchRun{
		ID:          uuid.NewString(),
		Provider:    provider,
		Endpoint:    endpoint,
		LocationKey: locationKey,
		StartedAt:   s.now().In(s.loc),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fetch_runs (id, started_at, provider, endpoint, location_key, success)
		VALUES (?, ?, ?, ?, ?, FALSE)
	`, run.ID, run.StartedAt.Unix(), run.Provider, run.Endpoint, run.LocationKey)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// CompleteFetchRun updates the fetch run with results.
func (s *Store) CompleteFetchRun(ctx context.Context, run *models.FetchRun, parseErrors int) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: s.now().In(s.loc), Valid: true}

	_, err := s.db.ExecContext(ctx, `
		UPDATE fetch_runs SET
			finished_at = ?,
			http_status = ?,
			response_size_bytes = ?,
			record_count = ?,
			parse_errors = ?,
			quality_flags = ?,
			success = ?,
			error_message = ?
		WHERE id = ?
	`, run.FinishedAt.Time.Unix(), run.HTTPStatus, run.ResponseSize, run.RecordCount,
		parseErrors, run.QualityFlags, run.Success, run.ErrorMessage, run.ID)
	return err
}

// FetchHealthSummary is a per-day roll-up of fetch runs.
type FetchHealthSummary struct {
	Date             string `json:"date"`
	Provider         string `json:"provider"`
	Endpoint         string `json:"endpoint"`
	TotalRuns        int    `json:"total_runs"`
	SuccessRuns      int    `json:"success_runs"`
	FailedRuns       int    `json:"failed_runs"`
	FlaggedRuns      int    `json:"flagged_runs"`
	TotalRecords     int64  `json:"total_records"`
	TotalParseErrors int64  `json:"total_parse_errors"`
}

// FetchHealth returns fetch health summaries for the last N days.
func (s *Store) FetchHealth(ctx context.Context, days int) ([]FetchHealthSummary, error) {
	since := s.now().AddDate(0, 0, -days).Unix()
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			DATE(started_at, 'unixepoch') as date,
			provider,
			endpoint,
			COUNT(*) as total_runs,
			SUM(CASE WHEN success THEN 1 ELSE 0 END) as success_runs,
			SUM(CASE WHEN NOT success THEN 1 ELSE 0 END) as failed_runs,
			SUM(CASE WHEN quality_flags IS NOT NULL THEN 1 ELSE 0 END) as flagged_runs,
			COALESCE(SUM(record_count), 0) as total_records,
			COALESCE(SUM(parse_errors), 0) as total_parse_errors
		FROM fetch_runs
		WHERE started_at > ?
		GROUP BY date, provider, endpoint
		ORDER BY date DESC, provider, endpoint
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []FetchHealthSummary
	for rows.Next() {
		var h FetchHealthSummary
		if err := rows.Scan(&h.Date, &h.Provider, &h.Endpoint, &h.TotalRuns,
			&h.SuccessRuns, &h.FailedRuns, &h.FlaggedRuns, &h.TotalRecords, &h.TotalParseErrors); err != nil {
			return nil, err
		}
		results = append(results, h)
	}
	return results, rows.Err()
}

// RecentFetchErrors returns the latest failed fetch runs, newest first.
func (s *Store) RecentFetchErrors(ctx context.Context, limit int) ([]models.FetchRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, provider, endpoint, location_key,
		       http_status, response_size_bytes, record_count, quality_flags, success, error_message
		FROM fetch_runs
		WHERE success = FALSE
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.FetchRun
	for rows.Next() {
		var r models.FetchRun
		var started int64
		var finished sql.NullInt64
		if err := rows.Scan(&r.ID, &started, &finished, &r.Provider, &r.Endpoint, &r.LocationKey,
			&r.HTTPStatus, &r.ResponseSize, &r.RecordCount, &r.QualityFlags, &r.Success, &r.ErrorMessage); err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(started, 0).In(s.loc)
		if finished.Valid {
			r.FinishedAt = sql.NullTime{Time: time.Unix(finished.Int64, 0).In(s.loc), Valid: true}
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
