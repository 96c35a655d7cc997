package drying

import (
	"github.com/lox/hangorburn/internal/geo"
	"github.com/lox/hangorburn/internal/scoring"
)

type point = scoring.Point

func vpdScore(in *scoring.FactorInput) float64 {
	var s float64
	if in.Obs.VPD.Valid {
		v := in.Obs.VPD.Float64
		if v >= 0.2 {
			s = scoring.Asymptotic(v, 0.2, 0.5)
		}
	} else {
		s = 100 - in.Obs.Humidity
	}
	return coastalHumidity(in, s)
}

func windSpeedScore(in *scoring.FactorInput) float64 {
	speed := in.Obs.WindSpeed
	if in.Features.TopographicAdjustment && in.Profile != nil {
		exposure := in.Profile.WindExposure()
		if exposure != 1 {
			in.Record("wind_exposure", exposure)
		}
		speed *= exposure
	}

	switch {
	case speed < 1:
		return 0
	case speed > 50:
		return 30
	default:
		return scoring.Piecewise(speed, point{1, 0}, point{5, 40}, point{15, 100}, point{30, 100}, point{50, 60})
	}
}

func temperatureScore(in *scoring.FactorInput) float64 {
	t := in.Obs.Temperature
	if t < 0 {
		return 0
	}
	s := scoring.Piecewise(t, point{0, 0}, point{10, 40}, point{20, 85}, point{28, 100})

	if in.Features.CoastalIntelligence && in.Profile != nil {
		m := in.Profile.TemperatureModeration(in.Obs.Time.Month())
		if m != 1 {
			in.Record("temperature_moderation", m)
		}
		s *= m
	}
	return s
}

func dewPointSpreadScore(in *scoring.FactorInput) float64 {
	spread := in.Obs.DewPointSpread()
	if spread < 1 {
		return 0
	}
	return scoring.Piecewise(spread, point{1, 0}, point{3, 30}, point{8, 75}, point{15, 100})
}

func radiationScore(in *scoring.FactorInput) float64 {
	var r float64
	switch {
	case in.Obs.ShortwaveRadiation.Valid:
		r = in.Obs.ShortwaveRadiation.Float64
	case in.Obs.CloudCover.Valid:
		if !daylight(in) {
			return 0
		}
		r = ClearSkyRadiation(in.Obs.CloudCover.Float64)
	default:
		return 50
	}
	if r < 50 {
		return 0
	}
	return scoring.LogGrowth(r, 50, 16)
}

func wetBulbScore(in *scoring.FactorInput) float64 {
	tw := StullWetBulb(in.Obs.Temperature, in.Obs.Humidity)
	if in.Obs.WetBulb.Valid {
		tw = in.Obs.WetBulb.Float64
	}
	depression := in.Obs.Temperature - tw
	if depression < 0.5 {
		return 0
	}
	return scoring.Asymptotic(depression, 0.5, 4)
}

func evapotranspirationScore(in *scoring.FactorInput) float64 {
	et := EstimateEvapotranspiration(in.Obs.Temperature, in.Obs.WindSpeed, in.Obs.Humidity)
	if in.Obs.Evapotranspiration.Valid {
		et = in.Obs.Evapotranspiration.Float64
	}
	if et < 0.5 {
		return 0
	}
	return scoring.Piecewise(et, point{0.5, 0}, point{5, 100})
}

func sunshineScore(in *scoring.FactorInput) float64 {
	switch {
	case in.Obs.SunshineDuration.Valid:
		h := in.Obs.SunshineDuration.Float64
		if h < 0.1 {
			return 0
		}
		return 100 * h
	case in.Obs.CloudCover.Valid:
		if !daylight(in) {
			return 0
		}
		return 100 - in.Obs.CloudCover.Float64
	default:
		return 50
	}
}

// windDirectionScore folds onshore penalties into the subscore; offshore and
// prevailing-wind bonuses scale the final score instead.
func windDirectionScore(in *scoring.FactorInput) float64 {
	if !in.Features.WindAnalysis || in.Profile == nil {
		return 100
	}
	effect := in.Profile.Wind(in.Obs.WindDirection, in.Obs.Time.Month())
	if effect.Class == geo.Unknown {
		return 100
	}
	name := "wind_" + string(effect.Class)
	if effect.Multiplier > 1 {
		in.Adjust(name, effect.Multiplier)
		return 100
	}
	in.Record(name, effect.Multiplier)
	return 100 * effect.Multiplier
}

func humidityScore(in *scoring.FactorInput) float64 {
	rh := in.Obs.Humidity
	var s float64
	switch {
	case rh <= 40:
		s = 100
	case rh > 90:
		s = 0
	default:
		s = scoring.Piecewise(rh, point{40, 100}, point{70, 40}, point{90, 5})
	}
	return coastalHumidity(in, s)
}

// coastalHumidity divides a moisture-sensitive subscore by the seasonal
// coastal humidity penalty.
func coastalHumidity(in *scoring.FactorInput, s float64) float64 {
	if !in.Features.CoastalIntelligence || in.Profile == nil {
		return s
	}
	p := in.Profile.HumidityPenalty(in.Obs.Time.Month())
	if p == 1 || p <= 0 {
		return s
	}
	in.Record("humidity_penalty", p)
	return s / p
}

func daylight(in *scoring.FactorInput) bool {
	if in.Profile != nil {
		loc := in.Profile.Location
		return geo.Daylight(loc.Latitude, loc.Longitude, in.Obs.Time)
	}
	h := in.Obs.Time.Hour()
	return h >= 6 && h < 20
}
