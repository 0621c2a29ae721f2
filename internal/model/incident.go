package model

import (
	"time"

	"github.com/paulmach/orb"
)

// Incident is a geocoded crime report. TractGEOID is empty until the
// incident has been joined to its nearest tract.
type Incident struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ReportedAt time.Time `json:"reported_at,omitempty"`
	Code       string    `json:"code,omitempty"`
	Address    string    `json:"address,omitempty"`
	TractGEOID string    `json:"tract_geoid,omitempty"`
	DistanceKM float64   `json:"distance_km,omitempty"`
}

// Point returns the incident location in orb's lng/lat order.
func (i Incident) Point() orb.Point {
	return orb.Point{i.Longitude, i.Latitude}
}

// Rental is a rental registry inspection record.
type Rental struct {
	Address        string    `json:"address"`
	Zip            string    `json:"zip"`
	CompletionDate time.Time `json:"completion_date,omitempty"`
}
