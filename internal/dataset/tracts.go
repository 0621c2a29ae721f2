package dataset

import (
	"math"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/model"
)

// Tract table columns.
const (
	ColTractID      = "Cnss_Tr"
	ColTractLat     = "Latitude"
	ColTractLng     = "Longitude"
	ColTractPoverty = "PvrtyPr"
	ColCrimeCount   = "crime_count"
)

// CleanTracts turns the poverty table into tracts. Rows missing the tract id
// or coordinates are dropped. A missing or unparseable poverty value is kept
// as NaN. When a tract id repeats, the first row wins.
func CleanTracts(t *Table) ([]model.Tract, CleanReport, error) {
	rep := newReport(t.Name, len(t.Rows))
	cols, err := t.RequireCols(ColTractID, ColTractLat, ColTractLng)
	if err != nil {
		return nil, rep, err
	}
	idCol, latCol, lngCol := cols[0], cols[1], cols[2]
	povCol := t.Col(ColTractPoverty)

	seen := make(map[string]struct{}, len(t.Rows))
	out := make([]model.Tract, 0, len(t.Rows))
	for _, row := range t.Rows {
		id := Cell(row, idCol)
		lat, okLat := parseFloat(Cell(row, latCol))
		lng, okLng := parseFloat(Cell(row, lngCol))
		switch {
		case id == "":
			rep.drop("missing_tract_id")
			continue
		case !okLat || !okLng:
			rep.drop("missing_coordinates")
			continue
		case !validCoord(lat, lng):
			rep.drop("invalid_coordinates")
			continue
		}
		if _, dup := seen[id]; dup {
			rep.drop("duplicate_tract_id")
			continue
		}
		seen[id] = struct{}{}

		pov, ok := parseFloat(Cell(row, povCol))
		if !ok {
			pov = math.NaN()
		}
		out = append(out, model.Tract{
			GEOID:      id,
			Latitude:   lat,
			Longitude:  lng,
			PovertyPct: pov,
		})
	}
	rep.Kept = len(out)
	rep.log()
	return out, rep, nil
}
