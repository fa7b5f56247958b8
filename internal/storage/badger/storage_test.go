package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/interfaces"
	"github.com/ternarybob/narro/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	manager, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })
	return manager
}

func TestKVStorage(t *testing.T) {
	ctx := context.Background()
	kv := newTestManager(t).KeyValueStorage()

	_, err := kv.Get(ctx, "smtp_host")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)

	require.NoError(t, kv.Set(ctx, "SMTP_Host", "smtp.example.com", "mail relay"))

	value, err := kv.Get(ctx, "smtp_host")
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", value)

	all, err := kv.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"smtp_host": "smtp.example.com"}, all)

	require.NoError(t, kv.Delete(ctx, "smtp_host"))
	assert.ErrorIs(t, kv.Delete(ctx, "smtp_host"), interfaces.ErrKeyNotFound)
}

func TestKnowledgeStorage(t *testing.T) {
	ctx := context.Background()
	store := newTestManager(t).KnowledgeStorage()

	first := &models.KnowledgeEntry{Text: "first note", CreatedAt: time.Now().Add(-time.Minute)}
	second := &models.KnowledgeEntry{Text: "second note"}
	require.NoError(t, store.SaveKnowledge(ctx, first))
	require.NoError(t, store.SaveKnowledge(ctx, second))
	assert.NotEmpty(t, first.ID)

	assert.Error(t, store.SaveKnowledge(ctx, &models.KnowledgeEntry{}))

	entries, err := store.ListKnowledge(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first note", entries[0].Text)
	assert.Equal(t, "second note", entries[1].Text)

	require.NoError(t, store.DeleteKnowledge(ctx, first.ID))
	_, err = store.GetKnowledge(ctx, first.ID)
	assert.ErrorIs(t, err, ErrKnowledgeNotFound)
}

func TestRunStorage_ListMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	runs := newTestManager(t).RunStorage()

	base := time.Date(2025, 8, 17, 7, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		require.NoError(t, runs.SaveRun(ctx, &models.RunRecord{
			ID:        id,
			Status:    models.RunStatusCompleted,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	list, err := runs.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "run-c", list[0].ID)
	assert.Equal(t, "run-b", list[1].ID)

	got, err := runs.GetRun(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, got.Status)

	_, err = runs.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestLoadKnowledgeFromFile(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	seed := filepath.Join(t.TempDir(), "knowledge.toml")
	require.NoError(t, os.WriteFile(seed, []byte(`
[[entry]]
id = "peak-hours"
text = "Golden hours for F&B are usually 18:00 to 20:00."
tags = ["time_analysis"]

[[entry]]
text = "Low average order value calls for upselling."

[[entry]]
id = "empty"
text = ""
`), 0644))

	loaded, skipped, err := manager.LoadKnowledgeFromFile(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)
	assert.Equal(t, 1, skipped)

	// Reloading does not duplicate entries
	_, _, err = manager.LoadKnowledgeFromFile(ctx, seed)
	require.NoError(t, err)

	entries, err := manager.KnowledgeStorage().ListKnowledge(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "peak-hours", entries[0].ID)
	assert.Equal(t, []string{"time_analysis"}, entries[0].Tags)

	loaded, _, err = manager.LoadKnowledgeFromFile(ctx, filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, 0, loaded)
}

func TestLoadVariablesFromFile(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	path := filepath.Join(t.TempDir(), "variables.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[smtp_host]
value = "smtp.gmail.com"
description = "report relay"

[smtp_password]
value = ""
`), 0644))

	loaded, skipped, err := manager.LoadVariablesFromFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)
	assert.Equal(t, 1, skipped)

	value, err := manager.KeyValueStorage().Get(ctx, "smtp_host")
	require.NoError(t, err)
	assert.Equal(t, "smtp.gmail.com", value)

	loaded, _, err = manager.LoadVariablesFromFile(ctx, filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, 0, loaded)
}

func TestLoadEnvFile(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(`# report mail
SMTP_SERVER=smtp.gmail.com # primary relay
EMAIL_USER="reports@example.com"
RECIPIENT_EMAIL='a@example.com, b@example.com'
export REPORT_OWNER=ops
GEMINI_API_KEY=gemini-key
GOOGLE_API_KEY=legacy-key
EMPTY=
`), 0644))

	loaded, skipped, err := manager.LoadEnvFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded)
	assert.Equal(t, 2, skipped)

	kv := manager.KeyValueStorage()
	expected := map[string]string{
		"smtp_host":       "smtp.gmail.com",
		"smtp_username":   "reports@example.com",
		"smtp_recipients": "a@example.com, b@example.com",
		"report_owner":    "ops",
		"gemini_api_key":  "gemini-key",
	}
	for key, want := range expected {
		value, err := kv.Get(ctx, key)
		require.NoError(t, err, key)
		assert.Equal(t, want, value, key)
	}

	_, err = kv.Get(ctx, "empty")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
}

func TestLoadEnvFile_LegacyKeyWhenPrimaryUnset(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GOOGLE_API_KEY=legacy-key\n"), 0644))

	loaded, _, err := manager.LoadEnvFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)

	value, err := manager.KeyValueStorage().Get(ctx, "gemini_api_key")
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", value)
}

func TestLoadEnvFile_MissingAndMalformed(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)
	dir := t.TempDir()

	loaded, skipped, err := manager.LoadEnvFile(ctx, filepath.Join(dir, "absent.env"))
	require.NoError(t, err)
	assert.Zero(t, loaded)
	assert.Zero(t, skipped)

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SMTP_SERVER=\"unterminated\n"), 0644))
	_, _, err = manager.LoadEnvFile(ctx, path)
	assert.Error(t, err)
}
