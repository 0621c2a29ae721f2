package pipeline

import (
	"errors"
	"math"

	"github.com/rotisserie/eris"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/dataset"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/model"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/stats"
)

// CheckQuality verifies the joined output: every incident has coordinates
// and a tract, no tract count is negative, and the counts add up to the
// incident total. All failures are reported together.
func CheckQuality(incidents []model.Incident, tracts []model.Tract) error {
	var errs []error

	var missingCoords, unassigned int
	for _, inc := range incidents {
		if math.IsNaN(inc.Latitude) || math.IsNaN(inc.Longitude) {
			missingCoords++
		}
		if inc.TractGEOID == "" {
			unassigned++
		}
	}
	if missingCoords > 0 {
		errs = append(errs, eris.Errorf("qa: %d incidents have missing coordinates", missingCoords))
	}
	if unassigned > 0 {
		errs = append(errs, eris.Errorf("qa: %d incidents have no tract", unassigned))
	}

	for _, t := range tracts {
		if t.CrimeCount < 0 {
			errs = append(errs, eris.Errorf("qa: tract %s has negative crime_count %d", t.GEOID, t.CrimeCount))
		}
	}

	if total := model.TotalCrimes(tracts); total != int64(len(incidents)) {
		errs = append(errs, eris.Errorf("qa: crime_count total %d does not match %d incidents", total, len(incidents)))
	}

	return errors.Join(errs...)
}

// Describe computes the crime and poverty summaries and their correlation
// over a joined tract table.
func Describe(tracts []model.Tract) (crime, poverty stats.Summary, corr stats.Matrix, err error) {
	counts := make([]float64, len(tracts))
	pov := make([]float64, len(tracts))
	for i, t := range tracts {
		counts[i] = float64(t.CrimeCount)
		pov[i] = t.PovertyPct
	}
	crime = stats.Describe(dataset.ColCrimeCount, counts)
	poverty = stats.Describe(dataset.ColTractPoverty, pov)
	corr, err = stats.Correlation(dataset.ColCrimeCount, counts, dataset.ColTractPoverty, pov)
	return crime, poverty, corr, err
}
