package models

import "time"

// ArtifactKind identifies a rendered output
type ArtifactKind string

const (
	ArtifactChart  ArtifactKind = "chart"
	ArtifactReport ArtifactKind = "report"
)

// Artifact is a file produced by a run
type Artifact struct {
	Kind ArtifactKind `json:"kind"`
	Name string       `json:"name"`
	Path string       `json:"path"`
}

// RunStatus is the terminal state of a report run
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunRecord is the persisted summary of a finished run. Rows and stats are not kept.
type RunRecord struct {
	ID          string       `json:"id" badgerhold:"key"`
	Question    string       `json:"question"`
	Status      RunStatus    `json:"status"`
	Error       string       `json:"error,omitempty"`
	Rows        int          `json:"rows"`
	Orders      int          `json:"orders"`
	Revenue     float64      `json:"revenue"`
	Attempts    int          `json:"attempts"`
	FinalScore  int          `json:"final_score"`
	History     []Reflection `json:"history"`
	Analysis    string       `json:"analysis"`
	ReportPath  string       `json:"report_path,omitempty"`
	Charts      []Artifact   `json:"charts,omitempty"`
	Emailed     bool         `json:"emailed"`
	StartedAt   time.Time    `json:"started_at" badgerhold:"index"`
	CompletedAt time.Time    `json:"completed_at"`
}
