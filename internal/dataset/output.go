package dataset

import (
	"context"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/fetcher"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/model"
)

// OutputHeader is the column layout of the processed analysis table.
var OutputHeader = []string{ColTractID, ColTractLat, ColTractLng, ColTractPoverty, ColCrimeCount}

// WriteTracts writes the joined tracts as CSV, or XLSX when path ends in
// .xlsx. A missing poverty value is written as an empty cell.
func WriteTracts(path string, tracts []model.Tract) error {
	rows := make([][]string, len(tracts))
	for i, t := range tracts {
		pov := ""
		if !math.IsNaN(t.PovertyPct) {
			pov = strconv.FormatFloat(t.PovertyPct, 'f', -1, 64)
		}
		rows[i] = []string{
			t.GEOID,
			strconv.FormatFloat(t.Latitude, 'f', -1, 64),
			strconv.FormatFloat(t.Longitude, 'f', -1, 64),
			pov,
			strconv.FormatInt(t.CrimeCount, 10),
		}
	}

	var err error
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		err = fetcher.WriteXLSXFile(path, "analysis", OutputHeader, rows)
	} else {
		err = fetcher.WriteCSVFile(path, OutputHeader, rows)
	}
	if err != nil {
		return eris.Wrapf(err, "dataset: write %s", path)
	}
	return nil
}

// ReadProcessed reads a table written by WriteTracts.
func ReadProcessed(ctx context.Context, path string) ([]model.Tract, error) {
	t, err := NewLoader(nil, "").LoadTable(ctx, "processed", path)
	if err != nil {
		return nil, err
	}
	tracts, _, err := CleanTracts(t)
	if err != nil {
		return nil, err
	}
	countCol := t.Col(ColCrimeCount)
	if countCol < 0 {
		return nil, eris.Errorf("dataset: %s has no %s column", path, ColCrimeCount)
	}

	counts := make(map[string]int64, len(t.Rows))
	idCol := t.Col(ColTractID)
	for _, row := range t.Rows {
		id := Cell(row, idCol)
		if _, ok := counts[id]; ok {
			continue
		}
		v, ok := parseFloat(Cell(row, countCol))
		if !ok {
			return nil, eris.Errorf("dataset: tract %s has invalid %s %q", id, ColCrimeCount, Cell(row, countCol))
		}
		if v < 0 || math.IsInf(v, 0) || v != math.Trunc(v) {
			return nil, eris.Errorf("dataset: tract %s has %s %q, want a non-negative whole number", id, ColCrimeCount, Cell(row, countCol))
		}
		counts[id] = int64(v)
	}
	for i := range tracts {
		tracts[i].CrimeCount = counts[tracts[i].GEOID]
	}
	return tracts, nil
}
