package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/interfaces"
)

const (
	analystTemperature float32 = 0.3
	criticTemperature  float32 = 0.2
)

// Generator drafts report narratives through a content provider
type Generator struct {
	content  ContentGenerator
	provider ProviderType
	language string
	logger   arbor.ILogger
}

// NewGenerator creates a narrative generator
func NewGenerator(content ContentGenerator, llmConfig *common.LLMConfig, language string, logger arbor.ILogger) *Generator {
	return &Generator{
		content:  content,
		provider: ProviderType(llmConfig.DefaultProvider),
		language: language,
		logger:   logger,
	}
}

// Generate returns the markdown narrative for one attempt
func (g *Generator) Generate(ctx context.Context, req interfaces.GenerateRequest) (string, error) {
	messages, err := BuildAnalystMessages(req, g.language)
	if err != nil {
		return "", err
	}

	resp, err := g.content.GenerateContent(ctx, &ContentRequest{
		Messages:    messages,
		Provider:    g.provider,
		Temperature: analystTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("narrative generation failed: %w", err)
	}

	g.logger.Debug().
		Int("attempt", req.Attempt).
		Str("provider", string(resp.Provider)).
		Str("model", resp.Model).
		Int("chars", len(resp.Text)).
		Msg("Narrative draft generated")

	return resp.Text, nil
}

// Critic asks a provider to score drafts. The raw response is returned for the quality gate.
type Critic struct {
	content  ContentGenerator
	provider ProviderType
	logger   arbor.ILogger
}

// NewCritic creates a critic. llmConfig.CriticProvider overrides the default provider when set.
func NewCritic(content ContentGenerator, llmConfig *common.LLMConfig, logger arbor.ILogger) *Critic {
	provider := llmConfig.CriticProvider
	if provider == "" {
		provider = llmConfig.DefaultProvider
	}
	return &Critic{
		content:  content,
		provider: ProviderType(provider),
		logger:   logger,
	}
}

// Critique returns the critic's raw response for draft
func (c *Critic) Critique(ctx context.Context, draft string, knowledge []string) (string, error) {
	resp, err := c.content.GenerateContent(ctx, &ContentRequest{
		Messages:     BuildCriticMessages(draft, knowledge),
		Provider:     c.provider,
		Temperature:  criticTemperature,
		OutputSchema: CritiqueSchema,
	})
	if err != nil {
		return "", fmt.Errorf("critique failed: %w", err)
	}
	return resp.Text, nil
}
