package dataset

import (
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/model"
)

// Crime table columns.
const (
	ColCrimeLat     = "LAT"
	ColCrimeLng     = "LONG"
	ColCrimeDateEnd = "DATEEND"
	ColCrimeCode    = "CODE_DEFINED"
	ColCrimeAddress = "ADDRESS"
)

// CleanCrime turns the crime table into incidents. Rows without usable
// coordinates are dropped; an unparseable DATEEND is kept as the zero time.
func CleanCrime(t *Table) ([]model.Incident, CleanReport, error) {
	rep := newReport(t.Name, len(t.Rows))
	cols, err := t.RequireCols(ColCrimeLat, ColCrimeLng)
	if err != nil {
		return nil, rep, err
	}
	latCol, lngCol := cols[0], cols[1]
	dateCol := t.Col(ColCrimeDateEnd)
	codeCol := t.Col(ColCrimeCode)
	addrCol := t.Col(ColCrimeAddress)

	out := make([]model.Incident, 0, len(t.Rows))
	for _, row := range t.Rows {
		lat, okLat := parseFloat(Cell(row, latCol))
		lng, okLng := parseFloat(Cell(row, lngCol))
		if !okLat || !okLng {
			rep.drop("missing_coordinates")
			continue
		}
		if !validCoord(lat, lng) {
			rep.drop("invalid_coordinates")
			continue
		}
		out = append(out, model.Incident{
			Latitude:   lat,
			Longitude:  lng,
			ReportedAt: parseDate(Cell(row, dateCol)),
			Code:       Cell(row, codeCol),
			Address:    Cell(row, addrCol),
		})
	}
	rep.Kept = len(out)
	rep.log()
	return out, rep, nil
}
