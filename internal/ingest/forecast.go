package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lox/hangorburn/internal/metrics"
	"github.com/lox/hangorburn/internal/models"
)

const (
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	forecastEndpoint   = "v1/forecast"
)

var hourlyVariables = []string{
	"temperature_2m",
	"relative_humidity_2m",
	"dew_point_2m",
	"precipitation",
	"precipitation_probability",
	"pressure_msl",
	"wind_speed_10m",
	"wind_direction_10m",
	"cloud_cover",
	"shortwave_radiation",
	"vapour_pressure_deficit",
	"wet_bulb_temperature_2m",
	"et0_fao_evapotranspiration",
	"sunshine_duration",
}

// ForecastClient fetches hourly forecasts from the Open-Meteo forecast API.
type ForecastClient struct {
	*Client
	baseURL string
	loc     *time.Location
	now     func() time.Time
}

// NewForecastClient returns a client that reports times in loc.
func NewForecastClient(baseURL string, loc *time.Location, opts ...Option) *ForecastClient {
	if baseURL == "" {
		baseURL = DefaultForecastURL
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ForecastClient{
		Client:  NewClient(opts...),
		baseURL: baseURL,
		loc:     loc,
		now:     time.Now,
	}
}

// SetClock replaces the clock used to drop past hours.
func (f *ForecastClient) SetClock(now func() time.Time) {
	f.now = now
}

// ForecastResponse is the subset of the Open-Meteo forecast payload we use.
// Times are unix seconds; values may be null.
type ForecastResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Hourly    struct {
		Time                     []int64    `json:"time"`
		Temperature              []*float64 `json:"temperature_2m"`
		Humidity                 []*float64 `json:"relative_humidity_2m"`
		DewPoint                 []*float64 `json:"dew_point_2m"`
		Precipitation            []*float64 `json:"precipitation"`
		PrecipitationProbability []*float64 `json:"precipitation_probability"`
		Pressure                 []*float64 `json:"pressure_msl"`
		WindSpeed                []*float64 `json:"wind_speed_10m"`
		WindDirection            []*float64 `json:"wind_direction_10m"`
		CloudCover               []*float64 `json:"cloud_cover"`
		ShortwaveRadiation       []*float64 `json:"shortwave_radiation"`
		VPD                      []*float64 `json:"vapour_pressure_deficit"`
		WetBulb                  []*float64 `json:"wet_bulb_temperature_2m"`
		ET0                      []*float64 `json:"et0_fao_evapotranspiration"`
		SunshineDuration         []*float64 `json:"sunshine_duration"`
	} `json:"hourly"`
}

func (f *ForecastClient) requestURL(loc models.Location) string {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
	q.Set("hourly", strings.Join(hourlyVariables, ","))
	q.Set("wind_speed_unit", "kmh")
	q.Set("timeformat", "unixtime")
	q.Set("timezone", "GMT")
	q.Set("forecast_days", "4")
	return f.baseURL + "?" + q.Encode()
}

// Fetch returns up to models.MaxHours hourly observations starting at the
// current hour.
func (f *ForecastClient) Fetch(ctx context.Context, loc models.Location) ([]models.HourlyObservation, *FetchResult, error) {
	result := &FetchResult{}
	body, err := f.get(ctx, forecastEndpoint, f.requestURL(loc), result)
	if err != nil {
		return nil, result, err
	}

	var data ForecastResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, result, fmt.Errorf("unmarshal forecast: %w", err)
	}

	series, parseErrors := f.convert(&data)
	series, flags := FilterValid(series)
	parseErrors = append(parseErrors, flags...)
	result.QualityFlags = flags

	result.RecordCount = len(series)
	if len(parseErrors) > 0 {
		result.ParseErrors = len(parseErrors)
		result.ParseError = fmt.Sprintf("%d parse errors: %v", len(parseErrors), parseErrors[0])
	}
	metrics.ObservationsFetched.WithLabelValues(Provider).Add(float64(len(series)))

	if len(series) == 0 {
		return nil, result, fmt.Errorf("no usable hours in forecast for %.4f,%.4f", loc.Latitude, loc.Longitude)
	}
	return series, result, nil
}

func (f *ForecastClient) convert(data *ForecastResponse) ([]models.HourlyObservation, []string) {
	h := &data.Hourly
	from := f.now().Truncate(time.Hour)

	var series []models.HourlyObservation
	var parseErrors []string

	for i, ts := range h.Time {
		at := time.Unix(ts, 0).In(f.loc)
		if at.Before(from) {
			continue
		}
		if len(series) == models.MaxHours {
			break
		}

		temp, ok1 := valueAt(h.Temperature, i)
		rh, ok2 := valueAt(h.Humidity, i)
		wind, ok3 := valueAt(h.WindSpeed, i)
		if !ok1 || !ok2 || !ok3 {
			parseErrors = append(parseErrors, fmt.Sprintf("hour %s: missing temperature, humidity or wind", at.Format(time.RFC3339)))
			continue
		}

		obs := models.HourlyObservation{
			Time:        at,
			Temperature: temp,
			Humidity:    rh,
			WindSpeed:   wind,
		}
		if v, ok := valueAt(h.DewPoint, i); ok {
			obs.DewPoint = v
		} else {
			obs.DewPoint = DewPoint(temp, rh)
		}
		if v, ok := valueAt(h.Precipitation, i); ok {
			obs.Precipitation = v
		}
		if v, ok := valueAt(h.PrecipitationProbability, i); ok {
			obs.PrecipitationProbability = v
		}

		obs.Pressure = nullAt(h.Pressure, i)
		obs.WindDirection = nullAt(h.WindDirection, i)
		if obs.WindDirection.Valid && obs.WindDirection.Float64 >= 360 {
			obs.WindDirection.Float64 -= 360
		}
		obs.CloudCover = nullAt(h.CloudCover, i)
		obs.ShortwaveRadiation = nullAt(h.ShortwaveRadiation, i)
		obs.VPD = nullAt(h.VPD, i)
		obs.WetBulb = nullAt(h.WetBulb, i)

		// Hourly ET0 is mm per hour; the scorer works in mm/day.
		if et := nullAt(h.ET0, i); et.Valid {
			obs.Evapotranspiration = sql.NullFloat64{Float64: et.Float64 * 24, Valid: true}
		}
		// Sunshine arrives in seconds per hour.
		if sun := nullAt(h.SunshineDuration, i); sun.Valid {
			obs.SunshineDuration = sql.NullFloat64{Float64: min(sun.Float64/3600, 1), Valid: true}
		}

		series = append(series, obs)
	}
	return series, parseErrors
}

func valueAt(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

func nullAt(vals []*float64, i int) sql.NullFloat64 {
	v, ok := valueAt(vals, i)
	return sql.NullFloat64{Float64: v, Valid: ok}
}

// DewPoint estimates dew point (°C) with the Magnus formula.
func DewPoint(t, rh float64) float64 {
	rh = math.Max(rh, 0.1)
	const a, b = 17.62, 243.12
	g := math.Log(rh/100) + a*t/(b+t)
	return b * g / (a - g)
}
