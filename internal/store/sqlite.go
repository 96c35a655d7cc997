// Package store persists resolved locations, cached forecasts and the
// provider fetch log in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lox/hangorburn/internal/models"
)

// ErrNotFound is returned when a lookup has no row.
var ErrNotFound = errors.New("not found")

type Store struct {
	db  *sql.DB
	loc *time.Location
	now func() time.Time
}

// New wraps an open database. Times read back are reported in loc.
func New(db *sql.DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{db: db, loc: loc, now: time.Now}
}

// SetClock replaces the clock used for expiry and run timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// UpsertLocation records a geocoded place under key.
func (s *Store) UpsertLocation(ctx context.Context, key string, loc models.Location) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO locations (key, name, latitude, longitude, coastal_distance_km, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			name = excluded.name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			coastal_distance_km = excluded.coastal_distance_km,
			resolved_at = excluded.resolved_at
	`, key, loc.Name, loc.Latitude, loc.Longitude, loc.CoastalDistanceKm, s.now().Unix())
	if err != nil {
		return fmt.Errorf("upsert location %s: %w", key, err)
	}
	return nil
}

// GetLocation returns the place stored under key, or ErrNotFound.
func (s *Store) GetLocation(ctx context.Context, key string) (models.Location, error) {
	var loc models.Location
	err := s.db.QueryRowContext(ctx, `
		SELECT name, latitude, longitude, coastal_distance_km FROM locations WHERE key = ?
	`, key).Scan(&loc.Name, &loc.Latitude, &loc.Longitude, &loc.CoastalDistanceKm)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Location{}, fmt.Errorf("location %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return models.Location{}, fmt.Errorf("get location %s: %w", key, err)
	}
	return loc, nil
}

// ListLocations returns every stored place, ordered by name.
func (s *Store) ListLocations(ctx context.Context) ([]models.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, latitude, longitude, coastal_distance_km FROM locations ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locs []models.Location
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.Name, &loc.Latitude, &loc.Longitude, &loc.CoastalDistanceKm); err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}
	return locs, rows.Err()
}
