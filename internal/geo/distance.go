package geo

import (
	"math"
	"sort"
	"strings"

	"github.com/lox/hangorburn/internal/models"
)

const (
	earthRadiusKm = 6371.0

	// interpolationRadiusKm bounds how far the nearest reference town may be
	// before interpolation is abandoned for the boundary heuristic.
	interpolationRadiusKm = 60.0
	interpolationPoints   = 3

	// edgeScale converts distance-to-bounding-box-edge into a rough
	// distance-to-coast; the box overstates it everywhere inland.
	edgeScale = 0.35
)

// DistanceMethod records how a coastal distance was obtained.
type DistanceMethod string

const (
	MethodPrecomputed   DistanceMethod = "precomputed"
	MethodExact         DistanceMethod = "exact"
	MethodInterpolated  DistanceMethod = "interpolated"
	MethodBoundaryEdges DistanceMethod = "boundary"
)

type Distance struct {
	Km     float64
	Method DistanceMethod
}

// Haversine returns the great-circle distance in km.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Bearing returns the initial compass bearing from one point to another,
// in degrees [0,360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	p1, p2 := toRad(lat1), toRad(lat2)
	dLon := toRad(lon2 - lon1)
	y := math.Sin(dLon) * math.Cos(p2)
	x := math.Cos(p1)*math.Sin(p2) - math.Sin(p1)*math.Cos(p2)*math.Cos(dLon)
	return NormalizeDegrees(toDeg(math.Atan2(y, x)))
}

// NormalizeDegrees maps any angle to [0,360).
func NormalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// AngularDifference is the smallest absolute angle between two bearings.
func AngularDifference(a, b float64) float64 {
	diff := math.Abs(NormalizeDegrees(a) - NormalizeDegrees(b))
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}

func toRad(d float64) float64 { return d * math.Pi / 180 }
func toDeg(r float64) float64 { return r * 180 / math.Pi }

// CoastalDistance estimates how far a location is from the sea.
func (ds *Dataset) CoastalDistance(loc models.Location) Distance {
	if loc.CoastalDistanceKm.Valid {
		return Distance{Km: math.Max(0, loc.CoastalDistanceKm.Float64), Method: MethodPrecomputed}
	}

	if town, ok := ds.LookupTown(loc.Name); ok {
		return Distance{Km: town.CoastalKm, Method: MethodExact}
	}

	if km, ok := ds.interpolate(loc.Latitude, loc.Longitude); ok {
		return Distance{Km: km, Method: MethodInterpolated}
	}

	return Distance{Km: ds.boundaryEstimate(loc.Latitude, loc.Longitude), Method: MethodBoundaryEdges}
}

// LookupTown finds a reference town by case-insensitive name.
func (ds *Dataset) LookupTown(name string) (ReferenceTown, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ReferenceTown{}, false
	}
	for _, t := range ds.Towns {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return ReferenceTown{}, false
}

type townDistance struct {
	town ReferenceTown
	km   float64
}

func (ds *Dataset) nearestTowns(lat, lon float64, n int) []townDistance {
	all := make([]townDistance, 0, len(ds.Towns))
	for _, t := range ds.Towns {
		all = append(all, townDistance{town: t, km: Haversine(lat, lon, t.Latitude, t.Longitude)})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].km < all[j].km })
	if len(all) > n {
		all = all[:n]
	}
	return all
}

func (ds *Dataset) interpolate(lat, lon float64) (float64, bool) {
	nearest := ds.nearestTowns(lat, lon, interpolationPoints)
	if len(nearest) == 0 || nearest[0].km > interpolationRadiusKm {
		return 0, false
	}

	var sum, weights float64
	for _, n := range nearest {
		w := 1 / (n.km + 1)
		sum += w * n.town.CoastalKm
		weights += w
	}
	return math.Max(0, sum/weights), true
}

func (ds *Dataset) boundaryEstimate(lat, lon float64) float64 {
	if !ds.Land.Contains(lat, lon) {
		return 0
	}

	kmPerDegLon := 111.32 * math.Cos(toRad(lat))
	edges := []float64{
		(lat - ds.Land.MinLat) * 111.32,
		(ds.Land.MaxLat - lat) * 111.32,
		(lon - ds.Land.MinLon) * kmPerDegLon,
		(ds.Land.MaxLon - lon) * kmPerDegLon,
	}
	minEdge := edges[0]
	for _, e := range edges[1:] {
		minEdge = math.Min(minEdge, e)
	}

	km := minEdge * edgeScale
	for _, r := range ds.Regions {
		if r.Box.Contains(lat, lon) {
			km *= r.Multiplier
		}
	}
	return math.Max(0, km)
}

// NearestCoast returns the closest coastal reference point and the distance
// to it.
func (ds *Dataset) NearestCoast(lat, lon float64) (Point, float64) {
	var best Point
	bestKm := math.Inf(1)
	for _, p := range ds.Coast {
		if km := Haversine(lat, lon, p.Latitude, p.Longitude); km < bestKm {
			best, bestKm = p, km
		}
	}
	return best, bestKm
}
