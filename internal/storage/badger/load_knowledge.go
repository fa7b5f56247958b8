package badger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/narro/internal/models"
)

// KnowledgeFile is the seed file format:
//
//	[[entry]]
//	id = "peak-hours"
//	text = "For F&B the golden hours are usually 18:00 to 20:00."
//	tags = ["time_analysis", "peak_hours"]
type KnowledgeFile struct {
	Entries []models.KnowledgeEntry `toml:"entry"`
}

// LoadKnowledgeFromFile upserts the entries of a TOML seed file into knowledge storage.
// Entries without an id get one derived from their text, so reloading is idempotent.
// A missing file is not an error.
func (m *Manager) LoadKnowledgeFromFile(ctx context.Context, filePath string) (loaded, skipped int, err error) {
	content, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		m.logger.Debug().Str("file", filePath).Msg("Knowledge seed file not found, skipping")
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read knowledge file: %w", err)
	}

	var file KnowledgeFile
	if err := toml.Unmarshal(content, &file); err != nil {
		return 0, 0, fmt.Errorf("failed to parse knowledge file %s: %w", filepath.Base(filePath), err)
	}

	base := time.Now()
	for i, entry := range file.Entries {
		if entry.Text == "" {
			m.logger.Warn().Str("file", filePath).Int("index", i).Msg("Skipping knowledge entry with empty text")
			skipped++
			continue
		}
		if entry.ID == "" {
			entry.ID = "kn_" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(entry.Text)).String()
		}

		if existing, err := m.knowledge.GetKnowledge(ctx, entry.ID); err == nil {
			entry.CreatedAt = existing.CreatedAt
		} else {
			// keep file order stable when listing by CreatedAt
			entry.CreatedAt = base.Add(time.Duration(i) * time.Millisecond)
		}

		if err := m.knowledge.SaveKnowledge(ctx, &entry); err != nil {
			m.logger.Error().Err(err).Str("id", entry.ID).Msg("Failed to store knowledge entry")
			skipped++
			continue
		}
		loaded++
	}

	m.logger.Info().
		Str("file", filePath).
		Int("loaded", loaded).
		Int("skipped", skipped).
		Msg("Loaded knowledge seed file")

	return loaded, skipped, nil
}
