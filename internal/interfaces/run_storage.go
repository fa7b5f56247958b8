package interfaces

import (
	"context"

	"github.com/ternarybob/narro/internal/models"
)

// RunStorage persists run summaries
type RunStorage interface {
	SaveRun(ctx context.Context, run *models.RunRecord) error
	GetRun(ctx context.Context, id string) (*models.RunRecord, error)
	// ListRuns returns the most recent runs first; limit <= 0 returns all
	ListRuns(ctx context.Context, limit int) ([]models.RunRecord, error)
}
