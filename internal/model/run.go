package model

import "time"

// RunStatus represents the current state of an analysis run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is a single execution of the join pipeline.
type Run struct {
	ID        string      `json:"id"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RunSummary holds the headline numbers of a completed run.
type RunSummary struct {
	Incidents   int     `json:"incidents" yaml:"incidents"`
	Tracts      int     `json:"tracts" yaml:"tracts"`
	Metric      string  `json:"metric" yaml:"metric"`
	Correlation float64 `json:"correlation" yaml:"correlation"`
	Summary     string  `json:"summary,omitempty" yaml:"summary,omitempty"`
	OutputFile  string  `json:"output_file,omitempty" yaml:"output_file,omitempty"`
}
