package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestConvertMessagesToGemini(t *testing.T) {
	contents, system, err := convertMessagesToGemini([]Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "be brief", system)
	require.Len(t, contents, 2)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
}

func TestConvertMessagesToClaude(t *testing.T) {
	messages, system, err := convertMessagesToClaude([]Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "be brief", system)
	assert.Len(t, messages, 1)
}

func TestConvertMessages_RequiresUser(t *testing.T) {
	_, _, err := convertMessagesToGemini(nil)
	assert.Error(t, err)

	_, _, err = convertMessagesToClaude([]Message{{Role: "system", Content: "x"}})
	assert.Error(t, err)
}

func TestNormalizeModel(t *testing.T) {
	assert.Equal(t, "claude-haiku-4-5", NormalizeModel("claude/claude-haiku-4-5"))
	assert.Equal(t, "gemini-2.5-flash", NormalizeModel("gemini/gemini-2.5-flash"))
	assert.Equal(t, "gemini-2.5-flash", NormalizeModel("gemini-2.5-flash"))
}
