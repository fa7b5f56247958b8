package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/interfaces"
	"github.com/ternarybob/narro/internal/metrics"
	"github.com/ternarybob/narro/internal/models"
	"github.com/ternarybob/narro/internal/services/quality"
)

// Mock implementations

type mockRetriever struct {
	retrieveFunc func(ctx context.Context, query string) ([]string, error)
	calls        int
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string) ([]string, error) {
	m.calls++
	if m.retrieveFunc != nil {
		return m.retrieveFunc(ctx, query)
	}
	return []string{"Compare peak hours"}, nil
}

type mockGenerator struct {
	generateFunc func(ctx context.Context, req interfaces.GenerateRequest) (string, error)
	requests     []interfaces.GenerateRequest
}

func (m *mockGenerator) Generate(ctx context.Context, req interfaces.GenerateRequest) (string, error) {
	m.requests = append(m.requests, req)
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return "draft", nil
}

type mockCritic struct {
	responses []string
	err       error
	calls     int
}

func (m *mockCritic) Critique(ctx context.Context, draft string, knowledge []string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return `{"score": 10, "critique": "done"}`, nil
	}
	i := m.calls - 1
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	return m.responses[i], nil
}

type mockCharts struct {
	err   error
	calls int
}

func (m *mockCharts) Render(ctx context.Context, runID string, stats *models.StatsBundle) ([]models.Artifact, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []models.Artifact{{Kind: models.ArtifactChart, Name: "daily_revenue", Path: "/tmp/" + runID + "-daily_revenue.png"}}, nil
}

type mockDocument struct {
	err      error
	requests []interfaces.DocumentRequest
}

func (m *mockDocument) Render(ctx context.Context, req interfaces.DocumentRequest) (string, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}
	return "/tmp/report-" + req.RunID + ".pdf", nil
}

type mockMailer struct {
	err    error
	emails []interfaces.ReportEmail
}

func (m *mockMailer) SendReport(ctx context.Context, email interfaces.ReportEmail) error {
	m.emails = append(m.emails, email)
	return m.err
}

type mockRunStorage struct {
	saved []*models.RunRecord
}

func (m *mockRunStorage) SaveRun(ctx context.Context, run *models.RunRecord) error {
	m.saved = append(m.saved, run)
	return nil
}

func (m *mockRunStorage) GetRun(ctx context.Context, id string) (*models.RunRecord, error) {
	for _, r := range m.saved {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockRunStorage) ListRuns(ctx context.Context, limit int) ([]models.RunRecord, error) {
	var out []models.RunRecord
	for _, r := range m.saved {
		out = append(out, *r)
	}
	return out, nil
}

// Helpers

type fixture struct {
	retriever *mockRetriever
	generator *mockGenerator
	critic    *mockCritic
	charts    *mockCharts
	document  *mockDocument
	mailer    *mockMailer
	runs      *mockRunStorage
}

func newFixture() *fixture {
	return &fixture{
		retriever: &mockRetriever{},
		generator: &mockGenerator{},
		critic:    &mockCritic{},
		charts:    &mockCharts{},
		document:  &mockDocument{},
		mailer:    &mockMailer{},
		runs:      &mockRunStorage{},
	}
}

func (f *fixture) controller(t *testing.T) *Controller {
	t.Helper()
	cfg := common.NewDefaultConfig()
	c, err := NewController(Dependencies{
		Retriever: f.retriever,
		Generator: f.generator,
		Critic:    f.critic,
		Gate:      quality.NewGate(),
		Charts:    f.charts,
		Document:  f.document,
		Mailer:    f.mailer,
		Runs:      f.runs,
		Metrics:   metrics.New(),
	}, &cfg.Workflow, "Sales Analysis Report", arbor.NewLogger())
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2025, 8, 22, 7, 0, 0, 0, time.UTC) }
	return c
}

func samplePayload() any {
	return map[string]any{
		"data": []any{
			map[string]any{
				"id":               "A",
				"totalMoney":       "50,000",
				"createdTimestamp": "2025-08-17T09:15:00",
				"items": []any{
					map[string]any{"productName": "Latte", "price": 25000, "quantity": 2},
				},
			},
			map[string]any{
				"id":               "B",
				"totalMoney":       30000,
				"createdTimestamp": "2025-08-17T19:40:00",
				"items": []any{
					map[string]any{"productName": "Tea", "price": "15,000", "quantity": "2"},
				},
			},
		},
	}
}

// Tests

func TestRun_AllLowScoresStopsAtLimit(t *testing.T) {
	f := newFixture()
	f.critic.responses = []string{`{"score": 2, "critique": "too shallow"}`}

	result, err := f.controller(t).Run(context.Background(), Request{Question: "How did we do?", Payload: samplePayload()})
	require.NoError(t, err)

	assert.Len(t, f.generator.requests, 4)
	assert.Equal(t, 4, f.critic.calls)
	assert.Len(t, result.History, 4)
	assert.Equal(t, 4, result.Attempts())
	assert.Equal(t, 2, result.FinalScore)
	assert.NotEmpty(t, result.ReportPath)
}

func TestRun_AcceptScoreEndsAfterOneReflection(t *testing.T) {
	f := newFixture()
	f.critic.responses = []string{`Here you go: {"score": 9, "critique": "tốt"} thanks`}

	result, err := f.controller(t).Run(context.Background(), Request{Payload: samplePayload()})
	require.NoError(t, err)

	assert.Len(t, f.generator.requests, 1)
	require.Len(t, result.History, 1)
	assert.Equal(t, 9, result.History[0].Score)
	assert.Equal(t, "tốt", result.History[0].Critique)
	assert.True(t, result.History[0].Parsed)
}

func TestRun_UnparsableCritiqueUsesFallback(t *testing.T) {
	f := newFixture()
	f.critic.responses = []string{
		"I refuse to answer in JSON",
		`{"score": 8, "critique": "good"}`,
	}

	result, err := f.controller(t).Run(context.Background(), Request{Payload: samplePayload()})
	require.NoError(t, err)

	require.Len(t, result.History, 2)
	assert.Equal(t, 0, result.History[0].Score)
	assert.False(t, result.History[0].Parsed)
	assert.Equal(t, quality.FallbackCritique, result.History[0].Critique)

	require.Len(t, f.generator.requests, 2)
	assert.Equal(t, quality.FallbackCritique, f.generator.requests[1].Critique)
	assert.Equal(t, 8, result.FinalScore)
}

func TestRun_OnlyLatestCritiqueIsSent(t *testing.T) {
	f := newFixture()
	f.critic.responses = []string{
		`{"score": 1, "critique": "c1"}`,
		`{"score": 3, "critique": "c2"}`,
		`{"score": 5, "critique": "c3"}`,
		`{"score": 6, "critique": "c4"}`,
	}

	_, err := f.controller(t).Run(context.Background(), Request{Payload: samplePayload()})
	require.NoError(t, err)

	require.Len(t, f.generator.requests, 4)
	critiques := []string{}
	for i, req := range f.generator.requests {
		critiques = append(critiques, req.Critique)
		assert.Equal(t, i+1, req.Attempt)
	}
	assert.Equal(t, []string{"", "c1", "c2", "c3"}, critiques)
}

func TestRun_GeneratorReceivesStatsSampleAndKnowledge(t *testing.T) {
	f := newFixture()

	result, err := f.controller(t).Run(context.Background(), Request{Question: "Q", Payload: samplePayload()})
	require.NoError(t, err)

	require.Len(t, f.generator.requests, 1)
	req := f.generator.requests[0]
	assert.Equal(t, "Q", req.Question)
	assert.Equal(t, []string{"Compare peak hours"}, req.Knowledge)
	assert.Len(t, req.SampleRows, 2)
	require.NotNil(t, req.Stats)
	assert.Equal(t, 80000.0, req.Stats.RevenueSummary.TotalRevenue)
	assert.Equal(t, 1, f.retriever.calls)
	assert.Equal(t, 2, result.Rows)
}

func TestRun_DefaultQuestion(t *testing.T) {
	f := newFixture()

	result, err := f.controller(t).Run(context.Background(), Request{Payload: samplePayload()})
	require.NoError(t, err)
	assert.Equal(t, common.NewDefaultConfig().Workflow.DefaultQuestion, result.Question)
}

func TestRun_InputAbsent(t *testing.T) {
	f := newFixture()

	result, err := f.controller(t).Run(context.Background(), Request{Question: "Q"})
	assert.ErrorIs(t, err, ErrInputAbsent)
	assert.Nil(t, result)
	assert.Empty(t, f.generator.requests)

	require.Len(t, f.runs.saved, 1)
	assert.Equal(t, models.RunStatusFailed, f.runs.saved[0].Status)
}

func TestRun_EmptyPayloadStillCompletes(t *testing.T) {
	f := newFixture()

	result, err := f.controller(t).Run(context.Background(), Request{Payload: map[string]any{"unexpected": true}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Rows)
	assert.Equal(t, 0, result.Stats.RevenueSummary.TotalOrders)
}

func TestRun_RetrieverFailureDegrades(t *testing.T) {
	f := newFixture()
	f.retriever.retrieveFunc = func(ctx context.Context, query string) ([]string, error) {
		return nil, errors.New("store offline")
	}

	result, err := f.controller(t).Run(context.Background(), Request{Payload: samplePayload()})
	require.NoError(t, err)
	assert.Empty(t, result.Knowledge)
	assert.Empty(t, f.generator.requests[0].Knowledge)
}

func TestRun_GeneratorErrorKeepsPreviousDraft(t *testing.T) {
	f := newFixture()
	f.critic.responses = []string{`{"score": 3, "critique": "more"}`, `{"score": 9, "critique": "ok"}`}
	f.generator.generateFunc = func(ctx context.Context, req interfaces.GenerateRequest) (string, error) {
		if req.Attempt == 2 {
			return "", errors.New("provider down")
		}
		return "first draft", nil
	}

	result, err := f.controller(t).Run(context.Background(), Request{Payload: samplePayload()})
	require.NoError(t, err)

	require.Len(t, result.History, 2)
	assert.Equal(t, "first draft", result.History[1].Analysis)
	assert.Equal(t, "first draft", result.Analysis)
}

func TestRun_EmptyFirstDraftSkipsCritic(t *testing.T) {
	f := newFixture()
	f.generator.generateFunc = func(ctx context.Context, req interfaces.GenerateRequest) (string, error) {
		if req.Attempt == 1 {
			return "", errors.New("provider down")
		}
		return "draft", nil
	}

	result, err := f.controller(t).Run(context.Background(), Request{Payload: samplePayload()})
	require.NoError(t, err)

	require.Len(t, result.History, 2)
	assert.False(t, result.History[0].Parsed)
	assert.Equal(t, 1, f.critic.calls)
}

func TestRun_CriticErrorUsesFallback(t *testing.T) {
	f := newFixture()
	f.critic.err = errors.New("critic timeout")

	result, err := f.controller(t).Run(context.Background(), Request{Payload: samplePayload()})
	require.NoError(t, err)

	assert.Len(t, result.History, 4)
	for _, r := range result.History {
		assert.Equal(t, quality.FallbackCritique, r.Critique)
		assert.Equal(t, 0, r.Score)
	}
}

func TestRun_ArtifactFailuresDoNotAbort(t *testing.T) {
	f := newFixture()
	f.charts.err = errors.New("no font")
	f.document.err = errors.New("disk full")

	result, err := f.controller(t).Run(context.Background(), Request{Payload: samplePayload()})
	require.NoError(t, err)

	assert.Empty(t, result.Charts)
	assert.Empty(t, result.ReportPath)
	assert.Empty(t, f.mailer.emails)
	assert.False(t, result.Emailed)
}

func TestRun_ChartsPassedToDocument(t *testing.T) {
	f := newFixture()

	result, err := f.controller(t).Run(context.Background(), Request{Payload: samplePayload()})
	require.NoError(t, err)

	require.Len(t, f.document.requests, 1)
	assert.Len(t, f.document.requests[0].Charts, 1)
	assert.Equal(t, result.Charts, f.document.requests[0].Charts)
	assert.Equal(t, "draft", f.document.requests[0].Analysis)
}

func TestRun_EmailSent(t *testing.T) {
	f := newFixture()

	result, err := f.controller(t).Run(context.Background(), Request{Payload: samplePayload()})
	require.NoError(t, err)

	require.Len(t, f.mailer.emails, 1)
	assert.Equal(t, "Sales Analysis Report - 22/08/2025", f.mailer.emails[0].Subject)
	assert.Equal(t, result.ReportPath, f.mailer.emails[0].ReportPath)
	assert.True(t, result.Emailed)
}

func TestRun_MailerNotConfiguredIsSilent(t *testing.T) {
	f := newFixture()
	f.mailer.err = interfaces.ErrMailerNotConfigured

	result, err := f.controller(t).Run(context.Background(), Request{Payload: samplePayload()})
	require.NoError(t, err)
	assert.False(t, result.Emailed)
}

func TestRun_MailerFailureDoesNotFailRun(t *testing.T) {
	f := newFixture()
	f.mailer.err = errors.New("smtp: 535 authentication failed")

	result, err := f.controller(t).Run(context.Background(), Request{Payload: samplePayload()})
	require.NoError(t, err)
	assert.False(t, result.Emailed)

	require.Len(t, f.runs.saved, 1)
	assert.Equal(t, models.RunStatusCompleted, f.runs.saved[0].Status)
}

func TestRun_Cancellation(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	f.generator.generateFunc = func(ctx context.Context, req interfaces.GenerateRequest) (string, error) {
		cancel()
		return "", ctx.Err()
	}

	result, err := f.controller(t).Run(ctx, Request{Payload: samplePayload()})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
	assert.Equal(t, 0, f.critic.calls)

	require.Len(t, f.runs.saved, 1)
	assert.Equal(t, models.RunStatusCancelled, f.runs.saved[0].Status)
}

func TestRun_RecordSaved(t *testing.T) {
	f := newFixture()

	result, err := f.controller(t).Run(context.Background(), Request{RunID: "20250822-070000-abcdef12", Payload: samplePayload()})
	require.NoError(t, err)

	require.Len(t, f.runs.saved, 1)
	record := f.runs.saved[0]
	assert.Equal(t, "20250822-070000-abcdef12", record.ID)
	assert.Equal(t, result.RunID, record.ID)
	assert.Equal(t, models.RunStatusCompleted, record.Status)
	assert.Equal(t, 2, record.Orders)
	assert.Equal(t, 80000.0, record.Revenue)
	assert.Equal(t, 1, record.Attempts)
	assert.True(t, record.Emailed)
}

func TestNewController_RequiresGeneratorAndCritic(t *testing.T) {
	cfg := common.NewDefaultConfig()

	_, err := NewController(Dependencies{Critic: &mockCritic{}}, &cfg.Workflow, "", arbor.NewLogger())
	assert.Error(t, err)

	_, err = NewController(Dependencies{Generator: &mockGenerator{}}, &cfg.Workflow, "", arbor.NewLogger())
	assert.Error(t, err)
}
