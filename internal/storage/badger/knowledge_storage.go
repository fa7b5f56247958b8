package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/interfaces"
	"github.com/ternarybob/narro/internal/models"
)

// ErrKnowledgeNotFound is returned when a knowledge entry does not exist
var ErrKnowledgeNotFound = errors.New("knowledge entry not found")

// KnowledgeStorage implements interfaces.KnowledgeStorage for Badger
type KnowledgeStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewKnowledgeStorage creates a new KnowledgeStorage instance
func NewKnowledgeStorage(db *BadgerDB, logger arbor.ILogger) interfaces.KnowledgeStorage {
	return &KnowledgeStorage{
		db:     db,
		logger: logger,
	}
}

// SaveKnowledge upserts an entry, assigning an ID and CreatedAt when missing
func (s *KnowledgeStorage) SaveKnowledge(ctx context.Context, entry *models.KnowledgeEntry) error {
	if entry.Text == "" {
		return fmt.Errorf("knowledge text is required")
	}
	if entry.ID == "" {
		entry.ID = common.NewKnowledgeID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.db.Store().Upsert(entry.ID, entry); err != nil {
		return fmt.Errorf("failed to save knowledge entry: %w", err)
	}
	return nil
}

func (s *KnowledgeStorage) GetKnowledge(ctx context.Context, id string) (*models.KnowledgeEntry, error) {
	var entry models.KnowledgeEntry
	if err := s.db.Store().Get(id, &entry); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrKnowledgeNotFound
		}
		return nil, fmt.Errorf("failed to get knowledge entry: %w", err)
	}
	return &entry, nil
}

// ListKnowledge returns entries oldest first, the order they were added
func (s *KnowledgeStorage) ListKnowledge(ctx context.Context) ([]models.KnowledgeEntry, error) {
	var entries []models.KnowledgeEntry
	if err := s.db.Store().Find(&entries, badgerhold.Where("ID").Ne("").SortBy("CreatedAt", "ID")); err != nil {
		return nil, fmt.Errorf("failed to list knowledge entries: %w", err)
	}
	return entries, nil
}

func (s *KnowledgeStorage) DeleteKnowledge(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.KnowledgeEntry{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return ErrKnowledgeNotFound
		}
		return fmt.Errorf("failed to delete knowledge entry: %w", err)
	}
	return nil
}
