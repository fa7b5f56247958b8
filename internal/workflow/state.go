package workflow

import (
	"github.com/ternarybob/narro/internal/models"
)

// Step names a controller state
type Step string

const (
	StepPreprocess Step = "PREPROCESS"
	StepRetrieve   Step = "RETRIEVE"
	StepAnalyze    Step = "ANALYZE"
	StepCritique   Step = "CRITIQUE"
	StepDecide     Step = "DECIDE"
	StepAssemble   Step = "ASSEMBLE"
	StepDistribute Step = "DISTRIBUTE"
	StepDone       Step = "DONE"
)

// State is the per-run workflow value. Transitions never modify it; they return a Delta
// which the controller applies to produce the next State.
type State struct {
	RunID    string
	Question string
	Payload  any

	Rows      []models.Row
	Stats     *models.StatsBundle
	Knowledge []string

	History      []models.Reflection
	CurrentScore int
	Analysis     string

	Charts     []models.Artifact
	ReportPath string
	Emailed    bool
}

// Delta carries the fields a transition wants to change. Zero fields are left alone.
type Delta struct {
	Rows      []models.Row
	Stats     *models.StatsBundle
	Knowledge []string

	// Analysis replaces the current analysis wholesale when non-nil
	Analysis *string
	// Reflection is appended to History and sets CurrentScore
	Reflection *models.Reflection

	Charts     []models.Artifact
	ReportPath string
	Emailed    bool
}

// Apply returns a new State with d applied. History is copied so earlier states keep their records.
func (s State) Apply(d Delta) State {
	next := s

	if d.Rows != nil {
		next.Rows = d.Rows
	}
	if d.Stats != nil {
		next.Stats = d.Stats
	}
	if d.Knowledge != nil {
		next.Knowledge = d.Knowledge
	}
	if d.Analysis != nil {
		next.Analysis = *d.Analysis
	}
	if d.Reflection != nil {
		history := make([]models.Reflection, len(s.History), len(s.History)+1)
		copy(history, s.History)
		next.History = append(history, *d.Reflection)
		next.CurrentScore = d.Reflection.Score
	}
	if d.Charts != nil {
		next.Charts = d.Charts
	}
	if d.ReportPath != "" {
		next.ReportPath = d.ReportPath
	}
	if d.Emailed {
		next.Emailed = true
	}

	return next
}

// LatestCritique is the critique of the most recent reflection, or "" before the first one
func (s State) LatestCritique() string {
	if len(s.History) == 0 {
		return ""
	}
	return s.History[len(s.History)-1].Critique
}

// CorrectiveRounds is the number of drafts generated after the first one
func (s State) CorrectiveRounds() int {
	if len(s.History) == 0 {
		return 0
	}
	return len(s.History) - 1
}
