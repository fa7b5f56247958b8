package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/interfaces"
	"github.com/ternarybob/narro/internal/models"
)

// Service implements keyword-overlap retrieval over an injected repository.
// An entry matches when any lower-cased word of the query appears among the
// words of its text or its tags.
type Service struct {
	repo       interfaces.KnowledgeRepository
	maxResults int
	logger     arbor.ILogger
}

// NewService creates a retriever. maxResults <= 0 returns every match.
func NewService(repo interfaces.KnowledgeRepository, maxResults int, logger arbor.ILogger) *Service {
	return &Service{
		repo:       repo,
		maxResults: maxResults,
		logger:     logger,
	}
}

// Retrieve returns the text of every matching entry in repository order
func (s *Service) Retrieve(ctx context.Context, query string) ([]string, error) {
	entries, err := s.repo.ListKnowledge(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge: %w", err)
	}

	matches := Match(entries, query)
	if s.maxResults > 0 && len(matches) > s.maxResults {
		matches = matches[:s.maxResults]
	}

	snippets := make([]string, 0, len(matches))
	for _, entry := range matches {
		snippets = append(snippets, entry.Text)
	}

	if len(snippets) > 0 {
		s.logger.Debug().Int("snippets", len(snippets)).Msg("Retrieved relevant knowledge")
	}

	return snippets, nil
}

// Search returns the matching entries themselves, limited like Retrieve
func (s *Service) Search(ctx context.Context, query string) ([]models.KnowledgeEntry, error) {
	entries, err := s.repo.ListKnowledge(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge: %w", err)
	}

	matches := Match(entries, query)
	if s.maxResults > 0 && len(matches) > s.maxResults {
		matches = matches[:s.maxResults]
	}
	return matches, nil
}

// Add stores a new entry with a generated id
func Add(ctx context.Context, store interfaces.KnowledgeStorage, text string, tags []string) (*models.KnowledgeEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("knowledge text is required")
	}

	entry := &models.KnowledgeEntry{
		ID:        common.NewKnowledgeID(),
		Text:      text,
		Tags:      tags,
		CreatedAt: time.Now(),
	}
	if err := store.SaveKnowledge(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Match filters entries sharing at least one keyword with query
func Match(entries []models.KnowledgeEntry, query string) []models.KnowledgeEntry {
	queryWords := words(query)
	if len(queryWords) == 0 {
		return nil
	}

	var matches []models.KnowledgeEntry
	for _, entry := range entries {
		entryWords := words(entry.Text)
		for _, tag := range entry.Tags {
			entryWords[strings.ToLower(tag)] = struct{}{}
		}
		if overlaps(queryWords, entryWords) {
			matches = append(matches, entry)
		}
	}
	return matches
}

func words(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}

func overlaps(a, b map[string]struct{}) bool {
	for w := range a {
		if _, ok := b[w]; ok {
			return true
		}
	}
	return false
}
