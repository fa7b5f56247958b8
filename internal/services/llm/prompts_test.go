package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/narro/internal/interfaces"
	"github.com/ternarybob/narro/internal/models"
)

func sampleRequest() interfaces.GenerateRequest {
	stats := &models.StatsBundle{
		RevenueSummary: models.RevenueSummary{TotalRevenue: 250000, TotalOrders: 3, AverageOrderValue: 83333.33},
		DataQuality:    models.DataQuality{TotalRows: 7},
	}
	return interfaces.GenerateRequest{
		Question:   "Which products sell best?",
		Stats:      stats,
		SampleRows: []models.Row{{OrderID: "A1", ProductName: "Latte", Price: 45000, Quantity: 2}},
		Knowledge:  []string{"Compare weekday and weekend revenue"},
		Attempt:    1,
	}
}

func TestBuildAnalystMessages_FirstAttempt(t *testing.T) {
	messages, err := BuildAnalystMessages(sampleRequest(), "Vietnamese")
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "system", messages[0].Role)
	assert.Contains(t, messages[0].Content, "Vietnamese")

	user := messages[1].Content
	assert.Equal(t, "user", messages[1].Role)
	assert.Contains(t, user, "Which products sell best?")
	assert.Contains(t, user, `"total_rows": 7`)
	assert.Contains(t, user, `"order_id": "A1"`)
	assert.Contains(t, user, "Compare weekday and weekend revenue")
	for _, section := range reportSections {
		assert.Contains(t, user, section)
	}
	assert.NotContains(t, user, "Feedback on the previous draft")
}

func TestBuildAnalystMessages_IncludesLatestCritiqueOnly(t *testing.T) {
	req := sampleRequest()
	req.Attempt = 3
	req.Critique = "Add hourly insights"

	messages, err := BuildAnalystMessages(req, "English")
	require.NoError(t, err)

	user := messages[1].Content
	assert.Equal(t, 1, strings.Count(user, "Feedback on the previous draft"))
	assert.Contains(t, user, "Add hourly insights")
}

func TestBuildAnalystMessages_NoKnowledge(t *testing.T) {
	req := sampleRequest()
	req.Knowledge = nil

	messages, err := BuildAnalystMessages(req, "Vietnamese")
	require.NoError(t, err)
	assert.NotContains(t, messages[1].Content, "mentor")
}

func TestBuildCriticMessages(t *testing.T) {
	messages := BuildCriticMessages("# Draft report", []string{"Mention peak hours"})
	require.Len(t, messages, 2)

	assert.Equal(t, "system", messages[0].Role)
	assert.Contains(t, messages[0].Content, "JSON")

	user := messages[1].Content
	assert.Contains(t, user, "---\n# Draft report\n---")
	assert.Contains(t, user, "Mention peak hours")
	assert.Contains(t, user, `{"score": <integer 0-10>, "critique": "<feedback>"}`)
}
