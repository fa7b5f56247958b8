package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/narro/internal/models"
)

// GenerateRequest carries everything the narrative generator may see.
// Critique holds only the most recent critique and is empty on the first attempt.
type GenerateRequest struct {
	Question   string
	Stats      *models.StatsBundle
	SampleRows []models.Row
	Knowledge  []string
	Critique   string
	Attempt    int
}

// Generator drafts the analytic narrative
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Critic scores a draft. The raw response is interpreted by the quality gate.
type Critic interface {
	Critique(ctx context.Context, draft string, knowledge []string) (string, error)
}

// ChartRenderer produces chart images for a run
type ChartRenderer interface {
	Render(ctx context.Context, runID string, stats *models.StatsBundle) ([]models.Artifact, error)
}

// DocumentRequest is the input to the report document renderer
type DocumentRequest struct {
	RunID    string
	Question string
	Stats    *models.StatsBundle
	Analysis string
	Charts   []models.Artifact
}

// DocumentRenderer writes the report document and returns its path
type DocumentRenderer interface {
	Render(ctx context.Context, req DocumentRequest) (string, error)
}

// ReportEmail is the distribution request for a finished report
type ReportEmail struct {
	RunID      string
	Subject    string
	Analysis   string
	ReportPath string
}

// ErrMailerNotConfigured is returned by a Mailer that has no transport or recipients.
// Callers treat it as a silent skip.
var ErrMailerNotConfigured = errors.New("mailer not configured")

// Mailer distributes the report
type Mailer interface {
	SendReport(ctx context.Context, email ReportEmail) error
}
