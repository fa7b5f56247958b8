package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "narro"

// Metrics holds the run collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	runs              *prometheus.CounterVec
	runDuration       prometheus.Histogram
	generations       prometheus.Counter
	critiqueScores    prometheus.Histogram
	unparsedCritiques prometheus.Counter
	artifactFailures  *prometheus.CounterVec
	emails            *prometheus.CounterVec
	knowledgeSnippets prometheus.Histogram
	httpRequests      *prometheus.CounterVec
}

// New creates collectors on a dedicated registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Report runs by final status.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of report runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_attempts_total",
			Help:      "Narrative generation attempts.",
		}),
		critiqueScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "critique_score",
			Help:      "Scores assigned by the critic.",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		}),
		unparsedCritiques: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "critique_unparsed_total",
			Help:      "Critic responses replaced by the fallback critique.",
		}),
		artifactFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_failures_total",
			Help:      "Artifacts that failed to render.",
		}, []string{"kind"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Report email outcomes.",
		}, []string{"result"}),
		knowledgeSnippets: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "knowledge_snippets",
			Help:      "Knowledge snippets retrieved per run.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by method and status code.",
		}, []string{"method", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.runs,
		m.runDuration,
		m.generations,
		m.critiqueScores,
		m.unparsedCritiques,
		m.artifactFailures,
		m.emails,
		m.knowledgeSnippets,
		m.httpRequests,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RunFinished(status string, seconds float64) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.runDuration.Observe(seconds)
}

func (m *Metrics) GenerationAttempt() {
	if m == nil {
		return
	}
	m.generations.Inc()
}

func (m *Metrics) CritiqueScored(score int, parsed bool) {
	if m == nil {
		return
	}
	m.critiqueScores.Observe(float64(score))
	if !parsed {
		m.unparsedCritiques.Inc()
	}
}

func (m *Metrics) ArtifactFailed(kind string) {
	if m == nil {
		return
	}
	m.artifactFailures.WithLabelValues(kind).Inc()
}

// EmailResult records "sent", "skipped" or "failed"
func (m *Metrics) EmailResult(result string) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(result).Inc()
}

func (m *Metrics) KnowledgeRetrieved(n int) {
	if m == nil {
		return
	}
	m.knowledgeSnippets.Observe(float64(n))
}

func (m *Metrics) HTTPRequest(method string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
