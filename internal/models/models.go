package models

import (
	"database/sql"
	"time"
)

// MaxHours is the longest forecast series the engine accepts.
const MaxHours = 72

// HourlyObservation is one forecast hour as delivered by the weather provider.
type HourlyObservation struct {
	Time                     time.Time
	Temperature              float64         `validate:"gte=-80,lte=60"`             // °C
	Humidity                 float64         `validate:"gte=0,lte=100"`              // %
	WindSpeed                float64         `validate:"gte=0,lte=400"`              // km/h
	WindDirection            sql.NullFloat64 `validate:"omitempty,gte=0,lt=360"`     // degrees, meteorological (from)
	Precipitation            float64         `validate:"gte=0"`                      // mm
	PrecipitationProbability float64         `validate:"gte=0,lte=100"`              // %
	Pressure                 sql.NullFloat64 `validate:"omitempty,gte=800,lte=1100"` // mb
	DewPoint                 float64         `validate:"gte=-90,lte=60"`             // °C

	VPD                sql.NullFloat64 `validate:"omitempty,gte=0"`          // kPa
	WetBulb            sql.NullFloat64 `validate:"omitempty,gte=-90,lte=60"` // °C
	ShortwaveRadiation sql.NullFloat64 `validate:"omitempty,gte=0"`          // W/m²
	Evapotranspiration sql.NullFloat64 `validate:"omitempty,gte=0"`          // mm/day
	SunshineDuration   sql.NullFloat64 `validate:"omitempty,gte=0,lte=1"`    // hours within the hour
	CloudCover         sql.NullFloat64 `validate:"omitempty,gte=0,lte=100"`  // %
}

// DewPointSpread is the gap between air temperature and dew point.
func (o HourlyObservation) DewPointSpread() float64 {
	return o.Temperature - o.DewPoint
}

// RainRisk is the probability-weighted precipitation amount.
func (o HourlyObservation) RainRisk() float64 {
	return (o.PrecipitationProbability / 100) * o.Precipitation
}

type Location struct {
	Name              string
	Latitude          float64         `validate:"gte=-90,lte=90"`
	Longitude         float64         `validate:"gte=-180,lte=180"`
	CoastalDistanceKm sql.NullFloat64 `validate:"omitempty,gte=0"`
}

// FetchRun records one call to an upstream weather provider.
type FetchRun struct {
	ID           string
	Provider     string
	Endpoint     string
	LocationKey  string
	StartedAt    time.Time
	FinishedAt   sql.NullTime
	Success      bool
	HTTPStatus   sql.NullInt64
	ResponseSize sql.NullInt64
	RecordCount  sql.NullInt64
	QualityFlags sql.NullString // JSON array of dropped-hour flags
	ErrorMessage sql.NullString
}
