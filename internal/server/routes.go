package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Reports
	mux.HandleFunc("/api/reports", s.app.ReportHandler.RunReportHandler) // POST - run a report

	// Run ledger
	mux.HandleFunc("/api/runs", s.app.RunHandler.ListRunsHandler) // GET ?limit=
	mux.HandleFunc("/api/runs/", s.app.RunHandler.GetRunHandler)  // GET /{id}

	// Knowledge
	mux.HandleFunc("/api/knowledge", s.app.KnowledgeHandler.KnowledgeRouteHandler) // GET ?q=, POST

	// System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.Handle("/metrics", s.app.Metrics.Handler())

	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}
