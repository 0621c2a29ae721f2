package pipeline

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/dataset"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/model"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/stats"
)

// PhaseStatus is the outcome of one pipeline phase.
type PhaseStatus string

const (
	PhaseComplete PhaseStatus = "complete"
	PhaseFailed   PhaseStatus = "failed"
)

// PhaseResult records timing and outcome of one phase.
type PhaseResult struct {
	Name       string      `yaml:"name"`
	Status     PhaseStatus `yaml:"status"`
	DurationMs int64       `yaml:"duration_ms"`
	Error      string      `yaml:"error,omitempty"`
}

// Result is everything a run produced.
type Result struct {
	RunID        string                `yaml:"run_id,omitempty"`
	Incidents    int                   `yaml:"incidents"`
	TractCount   int                   `yaml:"tracts"`
	Rentals      int                   `yaml:"rentals,omitempty"`
	Metric       string                `yaml:"metric"`
	MeanDistKM   float64               `yaml:"mean_distance_km"`
	MaxDistKM    float64               `yaml:"max_distance_km"`
	Clean        []dataset.CleanReport `yaml:"cleaning"`
	Correlation  stats.Matrix          `yaml:"correlation"`
	CrimeStats   stats.Summary         `yaml:"crime_stats"`
	PovertyStats stats.Summary         `yaml:"poverty_stats"`
	Summary      string                `yaml:"summary,omitempty"`
	SummaryError string                `yaml:"summary_error,omitempty"`
	OutputFile   string                `yaml:"output_file,omitempty"`
	Phases       []PhaseResult         `yaml:"phases"`

	// Tracts is the joined table, kept for callers that serve it.
	Tracts []model.Tract `yaml:"-"`
}

// RunSummary condenses the result for the run store.
func (r *Result) RunSummary() model.RunSummary {
	return model.RunSummary{
		Incidents:   r.Incidents,
		Tracts:      r.TractCount,
		Metric:      r.Metric,
		Correlation: r.Correlation.Coefficient(),
		Summary:     r.Summary,
		OutputFile:  r.OutputFile,
	}
}

// WriteReport writes the result as YAML.
func (r *Result) WriteReport(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "pipeline: marshal report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "pipeline: write report %s", path)
	}
	return nil
}
