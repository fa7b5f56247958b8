package badger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// VariableFile is one table of variables.toml:
//
//	[smtp_host]
//	value = "smtp.gmail.com"
//	description = "report relay"
type VariableFile struct {
	Value       string `toml:"value"`
	Description string `toml:"description"`
}

// LoadVariablesFromFile stores every table of a variables TOML file in KV storage.
// smtp_* and *_api_key keys are read back by the mailer and the LLM providers.
// A missing file is not an error.
func (m *Manager) LoadVariablesFromFile(ctx context.Context, filePath string) (loaded, skipped int, err error) {
	content, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		m.logger.Debug().Str("file", filePath).Msg("Variables file not found, skipping")
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read variables file: %w", err)
	}

	var variables map[string]VariableFile
	if err := toml.Unmarshal(content, &variables); err != nil {
		return 0, 0, fmt.Errorf("failed to parse variables file %s: %w", filepath.Base(filePath), err)
	}

	fileName := filepath.Base(filePath)
	for key, variable := range variables {
		if variable.Value == "" {
			m.logger.Warn().Str("file", fileName).Str("key", key).Msg("Skipping variable with empty value")
			skipped++
			continue
		}

		description := variable.Description
		if description == "" {
			description = "Loaded from " + fileName
		}
		if err := m.kv.Set(ctx, key, variable.Value, description); err != nil {
			m.logger.Error().Err(err).Str("key", key).Msg("Failed to store variable")
			skipped++
			continue
		}
		loaded++
	}

	m.logger.Debug().
		Str("file", filePath).
		Int("loaded", loaded).
		Int("skipped", skipped).
		Msg("Loaded variables file")

	return loaded, skipped, nil
}
