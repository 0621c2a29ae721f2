package geo

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// EarthRadiusKM is the mean Earth radius used to turn angular distances
// into kilometers.
const EarthRadiusKM = 6371.0088

// Metric selects the distance function an index is built over.
type Metric int

const (
	// Haversine is the great-circle distance in radians.
	Haversine Metric = iota
	// Planar is the Euclidean distance over radian lat/lng pairs.
	Planar
)

func (m Metric) String() string {
	switch m {
	case Haversine:
		return "haversine"
	case Planar:
		return "planar"
	default:
		return "unknown"
	}
}

// ParseMetric maps a config value onto a Metric.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "haversine", "great-circle", "great_circle":
		return Haversine, nil
	case "planar", "euclidean":
		return Planar, nil
	default:
		return 0, eris.Errorf("geo: unknown metric %q", s)
	}
}

// Distance returns the distance between a and b under m.
func (m Metric) Distance(a, b Coord) float64 {
	if m == Planar {
		return math.Hypot(a.Lat-b.Lat, a.Lng-b.Lng)
	}
	return haversine(a, b)
}

func haversine(a, b Coord) float64 {
	sinLat := math.Sin((b.Lat - a.Lat) / 2)
	sinLng := math.Sin((b.Lng - a.Lng) / 2)
	h := sinLat*sinLat + math.Cos(a.Lat)*math.Cos(b.Lat)*sinLng*sinLng
	if h > 1 {
		h = 1
	}
	return 2 * math.Asin(math.Sqrt(h))
}
