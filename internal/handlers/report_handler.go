package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/services/reports"
	"github.com/ternarybob/narro/internal/services/source"
	"github.com/ternarybob/narro/internal/workflow"
)

// ReportService starts report runs
type ReportService interface {
	RunPayload(ctx context.Context, req workflow.Request) (*workflow.Result, error)
	RunWindow(ctx context.Context, req workflow.Request, window source.Window) (*workflow.Result, error)
}

// ReportRequest is the body of POST /api/reports. Either Payload or From must be set.
type ReportRequest struct {
	Question string `json:"question"`
	Payload  any    `json:"payload"`
	From     string `json:"from"`
	To       string `json:"to"`
	Async    bool   `json:"async"`
}

// ReportHandler triggers report runs over HTTP
type ReportHandler struct {
	reports ReportService
	// ctx bounds background runs and is cancelled on shutdown
	ctx    context.Context
	logger arbor.ILogger
}

func NewReportHandler(ctx context.Context, reports ReportService, logger arbor.ILogger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		ctx:     ctx,
		logger:  logger,
	}
}

// RunReportHandler handles POST /api/reports
func (h *ReportHandler) RunReportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var body ReportRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var window *source.Window
	if body.Payload == nil {
		if body.From == "" {
			WriteError(w, http.StatusBadRequest, "Either payload or from is required")
			return
		}
		parsed, err := source.ParseWindow(body.From, body.To)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		window = &parsed
	}

	req := workflow.Request{
		Question: body.Question,
		Payload:  body.Payload,
		RunID:    common.NewRunID(time.Now()),
	}

	if body.Async {
		common.SafeGo(h.logger, "report-"+req.RunID, func() {
			if _, err := h.run(h.ctx, req, window); err != nil {
				h.logger.Error().Str("run_id", req.RunID).Err(err).Msg("Background report run failed")
			}
		})
		WriteStarted(w, req.RunID)
		return
	}

	result, err := h.run(r.Context(), req, window)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrInputAbsent):
			WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, reports.ErrNoSource), errors.Is(err, source.ErrNoWebhook):
			WriteError(w, http.StatusServiceUnavailable, err.Error())
		default:
			h.logger.Error().Str("run_id", req.RunID).Err(err).Msg("Report run failed")
			WriteError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	WriteJSON(w, http.StatusOK, result.Record())
}

func (h *ReportHandler) run(ctx context.Context, req workflow.Request, window *source.Window) (*workflow.Result, error) {
	if window != nil {
		return h.reports.RunWindow(ctx, req, *window)
	}
	return h.reports.RunPayload(ctx, req)
}
