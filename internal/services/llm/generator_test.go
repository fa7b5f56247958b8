package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
)

type mockContentGenerator struct {
	generateFunc func(ctx context.Context, request *ContentRequest) (*ContentResponse, error)
	requests     []*ContentRequest
}

func (m *mockContentGenerator) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	m.requests = append(m.requests, request)
	if m.generateFunc != nil {
		return m.generateFunc(ctx, request)
	}
	return &ContentResponse{Text: "ok", Provider: request.Provider, Model: "test-model"}, nil
}

func TestGenerator_Generate(t *testing.T) {
	mock := &mockContentGenerator{
		generateFunc: func(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
			return &ContentResponse{Text: "# Report", Provider: request.Provider, Model: "gemini-test"}, nil
		},
	}
	gen := NewGenerator(mock, &common.LLMConfig{DefaultProvider: common.LLMProviderGemini}, "Vietnamese", arbor.NewLogger())

	text, err := gen.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "# Report", text)

	require.Len(t, mock.requests, 1)
	assert.Equal(t, ProviderGemini, mock.requests[0].Provider)
	assert.Equal(t, analystTemperature, mock.requests[0].Temperature)
	assert.Nil(t, mock.requests[0].OutputSchema)
}

func TestGenerator_Error(t *testing.T) {
	mock := &mockContentGenerator{
		generateFunc: func(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
			return nil, errors.New("provider down")
		},
	}
	gen := NewGenerator(mock, &common.LLMConfig{DefaultProvider: common.LLMProviderClaude}, "English", arbor.NewLogger())

	_, err := gen.Generate(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
}

func TestCritic_UsesCriticProvider(t *testing.T) {
	mock := &mockContentGenerator{
		generateFunc: func(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
			return &ContentResponse{Text: `{"score": 7, "critique": "more depth"}`}, nil
		},
	}
	critic := NewCritic(mock, &common.LLMConfig{
		DefaultProvider: common.LLMProviderGemini,
		CriticProvider:  common.LLMProviderClaude,
	}, arbor.NewLogger())

	raw, err := critic.Critique(context.Background(), "draft", nil)
	require.NoError(t, err)
	assert.Equal(t, `{"score": 7, "critique": "more depth"}`, raw)

	require.Len(t, mock.requests, 1)
	assert.Equal(t, ProviderClaude, mock.requests[0].Provider)
	assert.Equal(t, criticTemperature, mock.requests[0].Temperature)
	assert.NotEmpty(t, mock.requests[0].OutputSchema)
}

func TestCritic_DefaultsToDefaultProvider(t *testing.T) {
	mock := &mockContentGenerator{}
	critic := NewCritic(mock, &common.LLMConfig{DefaultProvider: common.LLMProviderGemini}, arbor.NewLogger())

	_, err := critic.Critique(context.Background(), "draft", []string{"tip"})
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, mock.requests[0].Provider)
}
