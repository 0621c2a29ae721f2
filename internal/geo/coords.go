// Package geo joins incident points to their nearest census tract anchor
// using a ball tree under the great-circle metric, then counts incidents
// per tract.
package geo

import (
	"errors"
	"math"
)

// LatLng is a coordinate pair in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Coord is a coordinate pair in radians, as consumed by the index.
type Coord struct {
	Lat float64
	Lng float64
}

// Degrees converts c back to degrees.
func (c Coord) Degrees() LatLng {
	return LatLng{Lat: c.Lat * 180 / math.Pi, Lng: c.Lng * 180 / math.Pi}
}

// Validate reports whether p is finite and inside the valid lat/lng range.
func (p LatLng) Validate() error {
	switch {
	case math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0):
		return &PreconditionError{Index: -1, Reason: "latitude is not finite"}
	case math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0):
		return &PreconditionError{Index: -1, Reason: "longitude is not finite"}
	case p.Lat < -90 || p.Lat > 90:
		return &PreconditionError{Index: -1, Reason: "latitude out of range [-90, 90]"}
	case p.Lng < -180 || p.Lng > 180:
		return &PreconditionError{Index: -1, Reason: "longitude out of range [-180, 180]"}
	}
	return nil
}

// ToRadians validates p and converts it to radians.
func ToRadians(p LatLng) (Coord, error) {
	if err := p.Validate(); err != nil {
		return Coord{}, err
	}
	return Coord{Lat: p.Lat * math.Pi / 180, Lng: p.Lng * math.Pi / 180}, nil
}

// NormalizeAll converts every point to radians, element-wise. The first
// invalid point aborts the conversion with a PreconditionError carrying its
// position; nothing is filtered.
func NormalizeAll(points []LatLng) ([]Coord, error) {
	out := make([]Coord, len(points))
	for i, p := range points {
		c, err := ToRadians(p)
		if err != nil {
			var pe *PreconditionError
			if errors.As(err, &pe) {
				pe.Index = i
			}
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
