package geo

import "sync"

// Point is a named coordinate.
type Point struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// ReferenceTown is a curated place with a surveyed distance to the coast.
type ReferenceTown struct {
	Point
	CoastalKm float64
}

// Box is a latitude/longitude bounding box.
type Box struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

func (b Box) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Zone is a box with a multiplier attached, used for regional corrections
// and topographic effects.
type Zone struct {
	Name       string
	Kind       string // "peninsula", "mountain", "valley", "highlands", "uplands"
	Box        Box
	Multiplier float64
}

// Dataset holds every lookup table the geographic modifier needs. It is
// built once and only ever read.
type Dataset struct {
	Towns         []ReferenceTown
	Coast         []Point
	Land          Box
	Regions       []Zone // corrections to the bounding-box heuristic
	Topography    []Zone
	MajorCities   []string
	RuralKeywords []string

	// Prevailing dry wind sector and the moisture-bearing sector, as
	// inclusive "from" bearings.
	PrevailingFrom [2]float64
	MoistFrom      [2]float64
}

var (
	ukOnce sync.Once
	uk     *Dataset
)

// UK returns the shared British Isles dataset.
func UK() *Dataset {
	ukOnce.Do(func() { uk = buildUK() })
	return uk
}

func buildUK() *Dataset {
	town := func(name string, lat, lon, km float64) ReferenceTown {
		return ReferenceTown{Point: Point{Name: name, Latitude: lat, Longitude: lon}, CoastalKm: km}
	}
	coast := func(name string, lat, lon float64) Point {
		return Point{Name: name, Latitude: lat, Longitude: lon}
	}

	return &Dataset{
		Towns: []ReferenceTown{
			town("London", 51.5074, -0.1278, 55),
			town("Birmingham", 52.4862, -1.8904, 115),
			town("Manchester", 53.4808, -2.2426, 50),
			town("Leeds", 53.8008, -1.5491, 90),
			town("Sheffield", 53.3811, -1.4701, 95),
			town("Bristol", 51.4545, -2.5879, 10),
			town("Liverpool", 53.4084, -2.9916, 2),
			town("Newcastle upon Tyne", 54.9783, -1.6178, 13),
			town("Nottingham", 52.9548, -1.1581, 95),
			town("Leicester", 52.6369, -1.1398, 100),
			town("Coventry", 52.4068, -1.5197, 120),
			town("Oxford", 51.7520, -1.2577, 85),
			town("Cambridge", 52.2053, 0.1218, 65),
			town("York", 53.9590, -1.0815, 55),
			town("Norwich", 52.6309, 1.2974, 30),
			town("Exeter", 50.7184, -3.5339, 14),
			town("Plymouth", 50.3755, -4.1427, 1),
			town("Brighton", 50.8225, -0.1372, 0.8),
			town("Southampton", 50.9097, -1.4044, 3),
			town("Portsmouth", 50.8198, -1.0880, 1),
			town("Bournemouth", 50.7192, -1.8808, 1),
			town("Cardiff", 51.4816, -3.1791, 3),
			town("Swansea", 51.6214, -3.9436, 1),
			town("Aberystwyth", 52.4153, -4.0829, 0.5),
			town("Edinburgh", 55.9533, -3.1883, 3),
			town("Glasgow", 55.8642, -4.2518, 25),
			town("Aberdeen", 57.1497, -2.0943, 1),
			town("Dundee", 56.4620, -2.9707, 1),
			town("Inverness", 57.4778, -4.2247, 2),
			town("Fort William", 56.8198, -5.1052, 1),
			town("Aviemore", 57.1953, -3.8287, 55),
			town("Pitlochry", 56.7043, -3.7345, 60),
			town("Belfast", 54.5973, -5.9301, 3),
			town("Derry", 54.9966, -7.3086, 8),
			town("Keswick", 54.6013, -3.1347, 25),
			town("Kendal", 54.3268, -2.7461, 12),
			town("Buxton", 53.2587, -1.9106, 65),
			town("Harrogate", 53.9921, -1.5418, 80),
			town("Shrewsbury", 52.7073, -2.7553, 80),
			town("Hereford", 52.0565, -2.7160, 50),
			town("Brecon", 51.9480, -3.3910, 45),
			town("Scarborough", 54.2831, -0.3998, 0.5),
			town("Whitby", 54.4863, -0.6133, 0.5),
			town("Lincoln", 53.2307, -0.5406, 45),
			town("Ipswich", 52.0567, 1.1482, 15),
			town("Canterbury", 51.2802, 1.0789, 12),
			town("Reading", 51.4543, -0.9781, 70),
			town("Milton Keynes", 52.0406, -0.7594, 100),
			town("Northampton", 52.2405, -0.9027, 100),
			town("Penzance", 50.1186, -5.5371, 0.5),
			town("St Ives", 50.2083, -5.4903, 0.3),
		},
		Coast: []Point{
			coast("Liverpool Bay", 53.45, -3.10),
			coast("Morecambe Bay", 54.10, -2.95),
			coast("Solway Firth", 54.90, -3.40),
			coast("Firth of Clyde", 55.60, -4.90),
			coast("Moray Firth", 57.60, -4.00),
			coast("Aberdeen Bay", 57.15, -2.05),
			coast("Firth of Forth", 56.05, -3.00),
			coast("Tyne Mouth", 55.00, -1.42),
			coast("Whitby Coast", 54.49, -0.60),
			coast("Humber Estuary", 53.60, -0.10),
			coast("The Wash", 52.90, 0.30),
			coast("North Norfolk", 52.95, 1.00),
			coast("Great Yarmouth", 52.60, 1.74),
			coast("Thames Estuary", 51.50, 0.70),
			coast("Dover Strait", 51.12, 1.33),
			coast("Brighton Seafront", 50.81, -0.14),
			coast("Solent", 50.78, -1.30),
			coast("Lyme Bay", 50.60, -3.00),
			coast("Plymouth Sound", 50.35, -4.14),
			coast("Land's End", 50.07, -5.70),
			coast("Bristol Channel", 51.35, -3.20),
			coast("Pembrokeshire", 51.70, -5.10),
			coast("Cardigan Bay", 52.40, -4.20),
			coast("Anglesey", 53.30, -4.40),
			coast("Belfast Lough", 54.68, -5.80),
			coast("Lough Foyle", 55.10, -7.10),
			coast("Galloway", 54.70, -4.90),
			coast("Skye", 57.30, -5.90),
			coast("Ullapool", 57.90, -5.16),
			coast("Wick", 58.44, -3.09),
		},
		Land: Box{MinLat: 49.9, MaxLat: 58.7, MinLon: -8.2, MaxLon: 1.8},
		Regions: []Zone{
			{Name: "Cornwall and Devon", Kind: "peninsula", Box: Box{MinLat: 49.9, MaxLat: 51.2, MinLon: -5.8, MaxLon: -3.0}, Multiplier: 0.45},
			{Name: "Wales", Kind: "peninsula", Box: Box{MinLat: 51.3, MaxLat: 53.45, MinLon: -5.3, MaxLon: -3.0}, Multiplier: 0.6},
			{Name: "Kent", Kind: "peninsula", Box: Box{MinLat: 50.9, MaxLat: 51.5, MinLon: 0.3, MaxLon: 1.5}, Multiplier: 0.5},
			{Name: "East Anglia", Kind: "peninsula", Box: Box{MinLat: 51.9, MaxLat: 53.0, MinLon: 0.5, MaxLon: 1.8}, Multiplier: 0.6},
			{Name: "Pennines", Kind: "mountain", Box: Box{MinLat: 53.3, MaxLat: 55.0, MinLon: -2.6, MaxLon: -1.8}, Multiplier: 1.2},
			{Name: "Scottish Highlands", Kind: "mountain", Box: Box{MinLat: 56.5, MaxLat: 58.0, MinLon: -5.0, MaxLon: -3.0}, Multiplier: 1.25},
			{Name: "Severn Valley", Kind: "valley", Box: Box{MinLat: 51.8, MaxLat: 52.8, MinLon: -2.9, MaxLon: -2.0}, Multiplier: 1.1},
		},
		Topography: []Zone{
			{Name: "Scottish Highlands", Kind: "highlands", Box: Box{MinLat: 56.5, MaxLat: 58.7, MinLon: -8.0, MaxLon: -3.0}, Multiplier: 1.15},
			{Name: "Pennines", Kind: "uplands", Box: Box{MinLat: 53.3, MaxLat: 55.0, MinLon: -2.6, MaxLon: -1.8}, Multiplier: 1.08},
			{Name: "Snowdonia", Kind: "uplands", Box: Box{MinLat: 52.6, MaxLat: 53.2, MinLon: -4.2, MaxLon: -3.5}, Multiplier: 1.08},
			{Name: "Dartmoor", Kind: "uplands", Box: Box{MinLat: 50.45, MaxLat: 50.7, MinLon: -4.1, MaxLon: -3.75}, Multiplier: 1.08},
			{Name: "South Wales Valleys", Kind: "valley", Box: Box{MinLat: 51.6, MaxLat: 51.85, MinLon: -3.8, MaxLon: -3.0}, Multiplier: 0.9},
			{Name: "Thames Valley", Kind: "valley", Box: Box{MinLat: 51.4, MaxLat: 51.8, MinLon: -1.3, MaxLon: -0.5}, Multiplier: 0.95},
		},
		MajorCities: []string{
			"london", "birmingham", "manchester", "leeds", "glasgow", "liverpool",
			"sheffield", "bristol", "edinburgh", "newcastle", "cardiff", "belfast",
			"nottingham", "leicester",
		},
		RuralKeywords: []string{
			"village", "farm", "moor", "dale", "glen", "fell", "heath", "green", "hamlet",
		},
		PrevailingFrom: [2]float64{225, 315},
		MoistFrom:      [2]float64{45, 135},
	}
}
