package burning

import (
	"math"

	"github.com/lox/hangorburn/internal/scoring"
)

type point = scoring.Point

// StackEffect scores the indoor-outdoor temperature differential. Above
// 15 °C it approaches 100 without reaching it.
func StackEffect(dt float64) float64 {
	switch {
	case dt < 0:
		return 0
	case dt < 15:
		return scoring.Piecewise(dt, point{0, 0}, point{2, 10}, point{5, 30}, point{10, 60}, point{15, 80})
	default:
		return 80 + 20*(1-math.Exp(-(dt-15)/10))
	}
}

func (b *burner) temperatureDifferentialScore(in *scoring.FactorInput) float64 {
	return StackEffect(b.indoor - in.Obs.Temperature)
}

func pressureScore(in *scoring.FactorInput) float64 {
	if !in.Obs.Pressure.Valid {
		return 60
	}
	p := in.Obs.Pressure.Float64
	if p < 980 {
		return 0
	}
	return scoring.Piecewise(p, point{980, 0}, point{1000, 50}, point{1020, 100})
}

func humidityScore(in *scoring.FactorInput) float64 {
	rh := in.Obs.Humidity
	switch {
	case rh <= 50:
		return 100
	case rh > 95:
		return 0
	default:
		return scoring.Piecewise(rh, point{50, 100}, point{80, 50}, point{95, 10})
	}
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
	case speed < 2:
		return 40
	case speed > 40:
		return 20
	default:
		return scoring.Piecewise(speed, point{2, 40}, point{10, 100}, point{25, 100}, point{40, 50})
	}
}

func precipitationScore(in *scoring.FactorInput) float64 {
	p := in.Obs.Precipitation
	switch {
	case p <= 0:
		return 100
	case p > 5:
		return 0
	default:
		return scoring.Piecewise(p, point{0, 100}, point{1, 70}, point{5, 20})
	}
}
