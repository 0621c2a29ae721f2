package model

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Tract is a census tract's representative point with its poverty indicator
// and, after the join, the number of incidents assigned to it.
type Tract struct {
	GEOID      string  `json:"geoid" yaml:"geoid"`
	Latitude   float64 `json:"latitude" yaml:"latitude"`
	Longitude  float64 `json:"longitude" yaml:"longitude"`
	PovertyPct float64 `json:"poverty_pct" yaml:"poverty_pct"`
	CrimeCount int64   `json:"crime_count" yaml:"crime_count"`
}

// Point returns the tract's representative point in orb's lng/lat order.
func (t Tract) Point() orb.Point {
	return orb.Point{t.Longitude, t.Latitude}
}

// HasPoverty reports whether the poverty indicator was present in the source.
func (t Tract) HasPoverty() bool {
	return !math.IsNaN(t.PovertyPct)
}

// DistanceKM returns the great-circle distance from the tract's point to p.
func (t Tract) DistanceKM(p orb.Point) float64 {
	return geo.DistanceHaversine(t.Point(), p) / 1000
}

// Lookup returns the tract with the given GEOID.
func Lookup(tracts []Tract, geoid string) (Tract, bool) {
	for _, t := range tracts {
		if t.GEOID == geoid {
			return t, true
		}
	}
	return Tract{}, false
}

// Bounds returns the bounding box covering every tract point.
func Bounds(tracts []Tract) orb.Bound {
	if len(tracts) == 0 {
		return orb.Bound{}
	}
	mp := make(orb.MultiPoint, len(tracts))
	for i, t := range tracts {
		mp[i] = t.Point()
	}
	return mp.Bound()
}

// TotalCrimes sums CrimeCount across tracts.
func TotalCrimes(tracts []Tract) int64 {
	var n int64
	for _, t := range tracts {
		n += t.CrimeCount
	}
	return n
}
