package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RunFinished("completed", 1)
		m.GenerationAttempt()
		m.CritiqueScored(5, false)
		m.ArtifactFailed("chart")
		m.EmailResult("sent")
		m.KnowledgeRetrieved(2)
		m.HTTPRequest("GET", 200)
	})
	assert.Nil(t, m.Registry())
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	return rec.Body.String()
}

func TestCounters(t *testing.T) {
	m := New()

	m.RunFinished("completed", 2)
	m.RunFinished("completed", 3)
	m.GenerationAttempt()
	m.CritiqueScored(2, false)
	m.CritiqueScored(9, true)
	m.ArtifactFailed("report")

	body := scrape(t, m)
	assert.Contains(t, body, `narro_runs_total{status="completed"} 2`)
	assert.Contains(t, body, "narro_generation_attempts_total 1")
	assert.Contains(t, body, "narro_critique_unparsed_total 1")
	assert.Contains(t, body, `narro_artifact_failures_total{kind="report"} 1`)
	assert.Contains(t, body, "narro_critique_score_count 2")
}

func TestHandler(t *testing.T) {
	m := New()
	m.EmailResult("skipped")
	m.HTTPRequest("POST", 202)

	body := scrape(t, m)
	assert.Contains(t, body, `narro_emails_total{result="skipped"} 1`)
	assert.Contains(t, body, `narro_http_requests_total{code="202",method="POST"} 1`)
}
