package interfaces

import (
	"context"

	"github.com/ternarybob/narro/internal/models"
)

// KnowledgeRepository is the read side used by retrieval during a run
type KnowledgeRepository interface {
	ListKnowledge(ctx context.Context) ([]models.KnowledgeEntry, error)
}

// KnowledgeStorage adds the maintenance operations used by the CLI, API and seed loader
type KnowledgeStorage interface {
	KnowledgeRepository
	SaveKnowledge(ctx context.Context, entry *models.KnowledgeEntry) error
	GetKnowledge(ctx context.Context, id string) (*models.KnowledgeEntry, error)
	DeleteKnowledge(ctx context.Context, id string) error
}

// KnowledgeRetriever returns the snippets relevant to a query
type KnowledgeRetriever interface {
	Retrieve(ctx context.Context, query string) ([]string, error)
}
