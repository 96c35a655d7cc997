package geo

import (
	"database/sql"
	"strings"
	"time"

	"github.com/lox/hangorburn/internal/models"
)

// offshoreSectorDeg is the half-width of the sector, centred on the bearing
// to the coast, inside which wind counts as blowing out to sea.
const offshoreSectorDeg = 60.0

const (
	prevailingBonus = 1.05
	moistPenalty    = 0.95
)

// Profile is the geographic context of one location, computed once per
// recommendation request.
type Profile struct {
	Location       models.Location
	Distance       Distance
	Tier           CoastalTier
	Modifiers      TierModifiers
	NearestCoast   Point
	NearestCoastKm float64
	BearingToCoast float64
	Shelter        float64
	Topographic    float64

	prevailing [2]float64
	moist      [2]float64
}

// Analyze derives the geographic profile of a location.
func Analyze(ds *Dataset, loc models.Location) *Profile {
	dist := ds.CoastalDistance(loc)
	tier := ClassifyTier(dist.Km)
	coast, coastKm := ds.NearestCoast(loc.Latitude, loc.Longitude)

	return &Profile{
		Location:       loc,
		Distance:       dist,
		Tier:           tier,
		Modifiers:      ModifiersFor(tier),
		NearestCoast:   coast,
		NearestCoastKm: coastKm,
		BearingToCoast: Bearing(loc.Latitude, loc.Longitude, coast.Latitude, coast.Longitude),
		Shelter:        ds.Shelter(loc.Name),
		Topographic:    ds.Topographic(loc.Latitude, loc.Longitude),
		prevailing:     ds.PrevailingFrom,
		moist:          ds.MoistFrom,
	}
}

// Shelter is the urban/rural wind-effectiveness multiplier for a place name.
func (ds *Dataset) Shelter(name string) float64 {
	lower := strings.ToLower(name)
	if lower == "" {
		return 1.0
	}
	for _, city := range ds.MajorCities {
		if strings.Contains(lower, city) {
			return 0.85
		}
	}
	for _, kw := range ds.RuralKeywords {
		if strings.Contains(lower, kw) {
			return 1.10
		}
	}
	return 1.0
}

// Topographic returns the multiplier of the first topographic zone that
// contains the point.
func (ds *Dataset) Topographic(lat, lon float64) float64 {
	for _, z := range ds.Topography {
		if z.Box.Contains(lat, lon) {
			return z.Multiplier
		}
	}
	return 1.0
}

// WindClass says whether wind is blowing from land to sea or the reverse.
type WindClass string

const (
	Offshore WindClass = "offshore"
	Onshore  WindClass = "onshore"
	Unknown  WindClass = "unknown"
)

// WindEffect is the coastal adjustment for a single wind direction.
type WindEffect struct {
	Class      WindClass
	Multiplier float64
}

// Wind classifies a wind direction for this location and returns the
// seasonally scaled multiplier to apply to the wind-direction subscore.
func (p *Profile) Wind(direction sql.NullFloat64, month time.Month) WindEffect {
	if !direction.Valid {
		return WindEffect{Class: Unknown, Multiplier: 1.0}
	}

	season := SeasonFor(month)
	scale := SeasonalScale(season)

	from := NormalizeDegrees(direction.Float64)
	toward := NormalizeDegrees(from + 180)

	effect := WindEffect{Class: Onshore, Multiplier: Scale(p.Modifiers.OnshorePenalty, scale)}
	if AngularDifference(toward, p.BearingToCoast) <= offshoreSectorDeg {
		effect = WindEffect{Class: Offshore, Multiplier: Scale(p.Modifiers.OffshoreBonus, scale)}
	}

	if p.Tier == StronglyInland {
		if inSector(from, p.prevailing) {
			effect.Multiplier *= prevailingBonus
		} else if season == Winter && inSector(from, p.moist) {
			effect.Multiplier *= moistPenalty
		}
	}
	return effect
}

// HumidityPenalty is the tier humidity penalty scaled for the month.
func (p *Profile) HumidityPenalty(month time.Month) float64 {
	return Scale(p.Modifiers.HumidityPenalty, SeasonalScale(SeasonFor(month)))
}

// TemperatureModeration is the tier temperature moderation scaled for the month.
func (p *Profile) TemperatureModeration(month time.Month) float64 {
	return Scale(p.Modifiers.TemperatureModeration, SeasonalScale(SeasonFor(month)))
}

// WindExposure combines urban shelter and topography.
func (p *Profile) WindExposure() float64 {
	return p.Shelter * p.Topographic
}

func inSector(deg float64, sector [2]float64) bool {
	return deg >= sector[0] && deg <= sector[1]
}
