package badger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// envKeys maps the .env names used by existing report deployments onto KV keys
var envKeys = map[string]string{
	"SMTP_SERVER":       "smtp_host",
	"SMTP_PORT":         "smtp_port",
	"EMAIL_USER":        "smtp_username",
	"EMAIL_PASSWORD":    "smtp_password",
	"RECIPIENT_EMAIL":   "smtp_recipients",
	"GEMINI_API_KEY":    "gemini_api_key",
	"GOOGLE_API_KEY":    "gemini_api_key",
	"ANTHROPIC_API_KEY": "anthropic_api_key",
}

// envFallbacks names a legacy variable that only applies when its replacement is unset
var envFallbacks = map[string]string{
	"GOOGLE_API_KEY": "GEMINI_API_KEY",
}

// LoadEnvFile loads a .env file into KV storage. Known names are mapped through envKeys,
// anything else is stored under its lower-cased name. Empty values are skipped.
// Parsing (quotes, escapes, export prefixes, comments) is godotenv's.
func (m *Manager) LoadEnvFile(ctx context.Context, filePath string) (loaded, skipped int, err error) {
	vars, err := godotenv.Read(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		m.logger.Debug().Str("file", filePath).Msg(".env file does not exist, skipping")
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse .env file: %w", err)
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := strings.TrimSpace(vars[name])
		if value == "" {
			skipped++
			continue
		}
		if primary, ok := envFallbacks[name]; ok && strings.TrimSpace(vars[primary]) != "" {
			skipped++
			continue
		}

		key, known := envKeys[name]
		if !known {
			key = strings.ToLower(name)
		}
		if err := m.kv.Set(ctx, key, value, "Loaded from .env file"); err != nil {
			m.logger.Error().Err(err).Str("key", key).Msg("Failed to store variable from .env")
			skipped++
			continue
		}
		loaded++
	}

	m.logger.Debug().
		Str("file", filePath).
		Int("loaded", loaded).
		Int("skipped", skipped).
		Msg("Loaded .env file")

	return loaded, skipped, nil
}
