package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/interfaces"
	"github.com/ternarybob/narro/internal/storage/badger"
)

// RunHandler exposes the run ledger
type RunHandler struct {
	runs   interfaces.RunStorage
	logger arbor.ILogger
}

func NewRunHandler(runs interfaces.RunStorage, logger arbor.ILogger) *RunHandler {
	return &RunHandler{
		runs:   runs,
		logger: logger,
	}
}

// ListRunsHandler handles GET /api/runs?limit=N, most recent first
func (h *RunHandler) ListRunsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	runs, err := h.runs.ListRuns(r.Context(), GetLimitParam(r, 20, 200))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list runs")
		WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	WriteJSON(w, http.StatusOK, runs)
}

// GetRunHandler handles GET /api/runs/{id}
func (h *RunHandler) GetRunHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusBadRequest, "Run ID is required")
		return
	}

	run, err := h.runs.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, badger.ErrRunNotFound) {
			WriteError(w, http.StatusNotFound, "Run not found")
			return
		}
		h.logger.Error().Err(err).Str("run_id", id).Msg("Failed to get run")
		WriteError(w, http.StatusInternalServerError, "Failed to get run")
		return
	}

	WriteJSON(w, http.StatusOK, run)
}
