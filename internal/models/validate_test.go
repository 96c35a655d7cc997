package models

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"
)

func hour(i int) HourlyObservation {
	return HourlyObservation{
		Time:        time.Date(2026, 4, 14, 9, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
		Temperature: 12,
		Humidity:    60,
		WindSpeed:   10,
		DewPoint:    5,
	}
}

func TestValidateHourly(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(o *HourlyObservation)
		wantField string
	}{
		{"valid", func(o *HourlyObservation) {}, ""},
		{"humidity over 100", func(o *HourlyObservation) { o.Humidity = 101 }, "Humidity"},
		{"negative precipitation", func(o *HourlyObservation) { o.Precipitation = -0.1 }, "Precipitation"},
		{"probability over 100", func(o *HourlyObservation) { o.PrecipitationProbability = 120 }, "PrecipitationProbability"},
		{"negative wind", func(o *HourlyObservation) { o.WindSpeed = -1 }, "WindSpeed"},
		{"direction of 360", func(o *HourlyObservation) { o.WindDirection = sql.NullFloat64{Float64: 360, Valid: true} }, "WindDirection"},
		{"direction of 359", func(o *HourlyObservation) { o.WindDirection = sql.NullFloat64{Float64: 359, Valid: true} }, ""},
		{"cloud over 100", func(o *HourlyObservation) { o.CloudCover = sql.NullFloat64{Float64: 101, Valid: true} }, "CloudCover"},
		{"negative radiation", func(o *HourlyObservation) { o.ShortwaveRadiation = sql.NullFloat64{Float64: -5, Valid: true} }, "ShortwaveRadiation"},
		{"invalid null is ignored", func(o *HourlyObservation) { o.CloudCover = sql.NullFloat64{Float64: 500} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := hour(0)
			tt.mutate(&obs)
			err := ValidateHourly(obs)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if !strings.Contains(ve.Error(), tt.wantField) {
				t.Errorf("error %q does not mention %s", ve.Error(), tt.wantField)
			}
		})
	}
}

func TestValidateSeries(t *testing.T) {
	if err := ValidateSeries(nil); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("empty series: %v", err)
	}

	long := make([]HourlyObservation, MaxHours+1)
	for i := range long {
		long[i] = hour(i)
	}
	if err := ValidateSeries(long); !errors.Is(err, ErrTooManyHours) {
		t.Errorf("73 hours: %v", err)
	}
	if err := ValidateSeries(long[:MaxHours]); err != nil {
		t.Errorf("72 hours rejected: %v", err)
	}

	dup := []HourlyObservation{hour(0), hour(1), hour(1)}
	if err := ValidateSeries(dup); !errors.Is(err, ErrUnordered) {
		t.Errorf("repeated hour: %v", err)
	}

	bad := []HourlyObservation{hour(0), hour(1), hour(2)}
	bad[1].Humidity = -3
	bad[2].WindSpeed = -1
	var ve *ValidationError
	if err := ValidateSeries(bad); !errors.As(err, &ve) || len(ve.Problems) != 2 {
		t.Errorf("ValidateSeries = %v, want 2 problems", err)
	}
}

func TestValidateLocation(t *testing.T) {
	if err := ValidateLocation(Location{Name: "Leeds", Latitude: 53.8, Longitude: -1.55}); err != nil {
		t.Errorf("valid location rejected: %v", err)
	}
	if err := ValidateLocation(Location{Name: "Nowhere", Latitude: 95}); err == nil {
		t.Error("latitude 95 accepted")
	}
}

func TestRainRiskAndSpread(t *testing.T) {
	o := HourlyObservation{Temperature: 14, DewPoint: 9, Precipitation: 2, PrecipitationProbability: 25}
	if got := o.RainRisk(); got != 0.5 {
		t.Errorf("RainRisk = %v, want 0.5", got)
	}
	if got := o.DewPointSpread(); got != 5 {
		t.Errorf("DewPointSpread = %v, want 5", got)
	}
}
