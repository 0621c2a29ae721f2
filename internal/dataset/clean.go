package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CleanReport counts what cleaning kept and dropped for one dataset.
type CleanReport struct {
	Dataset string         `json:"dataset" yaml:"dataset"`
	Rows    int            `json:"rows" yaml:"rows"`
	Kept    int            `json:"kept" yaml:"kept"`
	Dropped map[string]int `json:"dropped,omitempty" yaml:"dropped,omitempty"`
}

func newReport(name string, rows int) CleanReport {
	return CleanReport{Dataset: name, Rows: rows, Dropped: map[string]int{}}
}

func (r *CleanReport) drop(reason string) {
	r.Dropped[reason]++
}

// TotalDropped sums every drop reason.
func (r CleanReport) TotalDropped() int {
	var n int
	for _, c := range r.Dropped {
		n += c
	}
	return n
}

func (r CleanReport) log() {
	zap.L().Info("dataset: cleaned",
		zap.String("dataset", r.Dataset),
		zap.Int("rows", r.Rows),
		zap.Int("kept", r.Kept),
		zap.Int("dropped", r.TotalDropped()),
		zap.Any("reasons", r.Dropped),
	)
}

// parseFloat parses a numeric cell. ok is false for empty, "nan" or
// unparseable values.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// validCoord reports whether lat/lng are finite and in range.
func validCoord(lat, lng float64) bool {
	if math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05-07",
	"2006/01/02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"01/02/2006",
	"1/2/2006",
}

// parseDate coerces a date cell; unparseable values yield the zero time.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 1e11 {
		// ArcGIS exports dates as epoch milliseconds.
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}
