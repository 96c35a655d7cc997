package geo

import (
	"math"
	"time"
)

// SolarElevation approximates the sun's elevation in degrees above the
// horizon. Accurate to about a degree, which is enough to tell day from
// night.
func SolarElevation(lat, lon float64, t time.Time) float64 {
	u := t.UTC()
	day := float64(u.YearDay())
	decl := 23.44 * math.Sin(2*math.Pi*(284+day)/365)

	solarHours := float64(u.Hour()) + float64(u.Minute())/60 + lon/15
	hourAngle := 15 * (solarHours - 12)

	sinElev := math.Sin(toRad(lat))*math.Sin(toRad(decl)) +
		math.Cos(toRad(lat))*math.Cos(toRad(decl))*math.Cos(toRad(hourAngle))
	return toDeg(math.Asin(sinElev))
}

// Daylight reports whether the sun is above the horizon.
func Daylight(lat, lon float64, t time.Time) bool {
	return SolarElevation(lat, lon, t) > 0
}
