package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/interfaces"
	"github.com/ternarybob/narro/internal/metrics"
	"github.com/ternarybob/narro/internal/models"
	"github.com/ternarybob/narro/internal/services/quality"
)

// ErrInputAbsent is the only content failure that aborts a run
var ErrInputAbsent = errors.New("no input payload supplied")

var errEmptyDraft = errors.New("generator produced no draft")

// Dependencies are the collaborators a Controller drives. Retriever, renderers, mailer,
// run storage and metrics are optional; Generator and Critic are required.
type Dependencies struct {
	Retriever interfaces.KnowledgeRetriever
	Generator interfaces.Generator
	Critic    interfaces.Critic
	Gate      *quality.Gate
	Charts    interfaces.ChartRenderer
	Document  interfaces.DocumentRenderer
	Mailer    interfaces.Mailer
	Runs      interfaces.RunStorage
	Metrics   *metrics.Metrics
}

// Request starts a run
type Request struct {
	Question string
	Payload  any
	// RunID is generated when empty
	RunID string
}

// Result is the outcome of a completed run
type Result struct {
	RunID       string
	Question    string
	Rows        int
	Stats       *models.StatsBundle
	Knowledge   []string
	History     []models.Reflection
	FinalScore  int
	Analysis    string
	Charts      []models.Artifact
	ReportPath  string
	Emailed     bool
	StartedAt   time.Time
	CompletedAt time.Time
}

// Attempts is the number of drafts generated
func (r *Result) Attempts() int {
	return len(r.History)
}

// transition is one state of the machine
type transition func(ctx context.Context, s State) (Delta, Step, error)

// Controller runs the reflective report workflow
type Controller struct {
	deps        Dependencies
	config      *common.WorkflowConfig
	reportTitle string
	logger      arbor.ILogger
	now         func() time.Time
}

// NewController creates a controller. reportTitle prefixes the email subject.
func NewController(deps Dependencies, config *common.WorkflowConfig, reportTitle string, logger arbor.ILogger) (*Controller, error) {
	if deps.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if deps.Critic == nil {
		return nil, fmt.Errorf("critic is required")
	}
	if deps.Gate == nil {
		deps.Gate = quality.NewGate()
	}
	if reportTitle == "" {
		reportTitle = "Sales Analysis Report"
	}

	return &Controller{
		deps:        deps,
		config:      config,
		reportTitle: reportTitle,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Run executes one report run. Only ErrInputAbsent and context cancellation are returned as
// errors; every other failure degrades and the run completes.
func (c *Controller) Run(ctx context.Context, req Request) (*Result, error) {
	startedAt := c.now()

	runID := req.RunID
	if runID == "" {
		runID = common.NewRunID(startedAt)
	}
	question := req.Question
	if question == "" {
		question = c.config.DefaultQuestion
	}

	r := &run{c: c, logger: c.logger.WithCorrelationId(runID)}
	transitions := map[Step]transition{
		StepPreprocess: r.preprocess,
		StepRetrieve:   r.retrieve,
		StepAnalyze:    r.analyze,
		StepCritique:   r.critique,
		StepDecide:     r.decide,
		StepAssemble:   r.assemble,
		StepDistribute: r.distribute,
	}

	r.logger.Info().
		Str("run_id", runID).
		Str("question", question).
		Msg("Report run started")

	state := State{RunID: runID, Question: question, Payload: req.Payload}
	step := StepPreprocess

	for step != StepDone {
		if err := ctx.Err(); err != nil {
			return nil, c.finishFailed(ctx, state, startedAt, models.RunStatusCancelled, err)
		}

		delta, next, err := transitions[step](ctx, state)
		if err != nil {
			status := models.RunStatusFailed
			if ctx.Err() != nil {
				status = models.RunStatusCancelled
			}
			return nil, c.finishFailed(ctx, state, startedAt, status, err)
		}

		state = state.Apply(delta)
		r.logger.Debug().
			Str("from", string(step)).
			Str("to", string(next)).
			Msg("Workflow transition")
		step = next
	}

	result := &Result{
		RunID:       state.RunID,
		Question:    state.Question,
		Rows:        len(state.Rows),
		Stats:       state.Stats,
		Knowledge:   state.Knowledge,
		History:     state.History,
		FinalScore:  state.CurrentScore,
		Analysis:    state.Analysis,
		Charts:      state.Charts,
		ReportPath:  state.ReportPath,
		Emailed:     state.Emailed,
		StartedAt:   startedAt,
		CompletedAt: c.now(),
	}

	c.deps.Metrics.RunFinished(string(models.RunStatusCompleted), result.CompletedAt.Sub(startedAt).Seconds())
	c.saveRun(ctx, result.Record())

	r.logger.Info().
		Int("attempts", result.Attempts()).
		Int("final_score", result.FinalScore).
		Str("report", result.ReportPath).
		Bool("emailed", result.Emailed).
		Msg("Report run completed")

	return result, nil
}

func (c *Controller) finishFailed(ctx context.Context, state State, startedAt time.Time, status models.RunStatus, err error) error {
	completedAt := c.now()
	c.deps.Metrics.RunFinished(string(status), completedAt.Sub(startedAt).Seconds())

	c.logger.WithCorrelationId(state.RunID).Error().
		Str("status", string(status)).
		Err(err).
		Msg("Report run did not complete")

	record := &models.RunRecord{
		ID:          state.RunID,
		Question:    state.Question,
		Status:      status,
		Error:       err.Error(),
		Rows:        len(state.Rows),
		Attempts:    len(state.History),
		FinalScore:  state.CurrentScore,
		History:     state.History,
		Analysis:    state.Analysis,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
	}
	c.saveRun(ctx, record)
	return err
}

func (c *Controller) saveRun(ctx context.Context, record *models.RunRecord) {
	if c.deps.Runs == nil {
		return
	}
	// The ledger entry is written even when the run's context was cancelled
	if err := c.deps.Runs.SaveRun(context.WithoutCancel(ctx), record); err != nil {
		c.logger.Warn().Str("run_id", record.ID).Err(err).Msg("Failed to save run record")
	}
}

// Record converts a completed run into its ledger entry
func (r *Result) Record() *models.RunRecord {
	record := &models.RunRecord{
		ID:          r.RunID,
		Question:    r.Question,
		Status:      models.RunStatusCompleted,
		Rows:        r.Rows,
		Attempts:    r.Attempts(),
		FinalScore:  r.FinalScore,
		History:     r.History,
		Analysis:    r.Analysis,
		ReportPath:  r.ReportPath,
		Charts:      r.Charts,
		Emailed:     r.Emailed,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
	if r.Stats != nil {
		record.Orders = r.Stats.RevenueSummary.TotalOrders
		record.Revenue = r.Stats.RevenueSummary.TotalRevenue
	}
	return record
}
