package dataset

import (
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/model"
)

// Rental registry columns.
const (
	ColRentalAddress   = "ADDRESS"
	ColRentalZip       = "zip"
	ColRentalCompleted = "completion_date"
)

// CleanRentals turns the rental registry into records, dropping rows that
// lack an address or zip.
func CleanRentals(t *Table) ([]model.Rental, CleanReport, error) {
	rep := newReport(t.Name, len(t.Rows))
	cols, err := t.RequireCols(ColRentalAddress, ColRentalZip)
	if err != nil {
		return nil, rep, err
	}
	addrCol, zipCol := cols[0], cols[1]
	dateCol := t.Col(ColRentalCompleted)

	out := make([]model.Rental, 0, len(t.Rows))
	for _, row := range t.Rows {
		addr := Cell(row, addrCol)
		zip := normalizeZip(Cell(row, zipCol))
		if addr == "" || zip == "" {
			rep.drop("missing_address_or_zip")
			continue
		}
		out = append(out, model.Rental{
			Address:        addr,
			Zip:            zip,
			CompletionDate: parseDate(Cell(row, dateCol)),
		})
	}
	rep.Kept = len(out)
	rep.log()
	return out, rep, nil
}

// normalizeZip strips the ".0" suffix spreadsheets add to numeric zips.
func normalizeZip(s string) string {
	if len(s) > 2 && s[len(s)-2:] == ".0" {
		return s[:len(s)-2]
	}
	return s
}
