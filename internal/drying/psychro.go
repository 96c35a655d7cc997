package drying

import (
	"math"

	"github.com/lox/hangorburn/internal/scoring"
)

// StullWetBulb estimates wet-bulb temperature (°C) from air temperature (°C)
// and relative humidity (%) using Stull (2011). Valid for RH 5-99% and
// T -20..50 °C, which covers UK weather.
func StullWetBulb(t, rh float64) float64 {
	return t*math.Atan(0.151977*math.Sqrt(rh+8.313659)) +
		math.Atan(t+rh) -
		math.Atan(rh-1.676331) +
		0.00391838*math.Pow(rh, 1.5)*math.Atan(0.023101*rh) -
		4.686035
}

// ClearSkyRadiation estimates shortwave radiation (W/m²) under the given
// cloud cover (%) with the Kasten-Czeplak relation.
func ClearSkyRadiation(cloudPct float64) float64 {
	c := scoring.Clamp(cloudPct) / 100
	return 800 * (1 - 0.75*math.Pow(c, 3.4))
}

// EstimateEvapotranspiration is a rough reference ET (mm/day) for when the
// provider does not supply one.
func EstimateEvapotranspiration(t, windKmh, rh float64) float64 {
	return math.Max(0, 0.1*t+0.05*windKmh+0.04*(100-rh))
}
