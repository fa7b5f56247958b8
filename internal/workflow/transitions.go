package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/interfaces"
	"github.com/ternarybob/narro/internal/models"
	"github.com/ternarybob/narro/internal/services/normalize"
	"github.com/ternarybob/narro/internal/services/quality"
	"github.com/ternarybob/narro/internal/services/stats"
)

// run binds the transitions to one run's logger
type run struct {
	c      *Controller
	logger arbor.ILogger
}

func (r *run) preprocess(ctx context.Context, s State) (Delta, Step, error) {
	if s.Payload == nil {
		return Delta{}, StepDone, ErrInputAbsent
	}

	rows := normalize.Rows(s.Payload)
	bundle := stats.Compute(rows)

	r.logger.Info().
		Int("rows", len(rows)).
		Int("orders", bundle.RevenueSummary.TotalOrders).
		Int("valid_time_rows", bundle.DataQuality.ValidTimeAnalysis).
		Msg("Payload normalized")

	if len(rows) == 0 {
		r.logger.Warn().Msg("No orders found in payload, continuing with empty statistics")
	}

	return Delta{Rows: rows, Stats: bundle}, StepRetrieve, nil
}

func (r *run) retrieve(ctx context.Context, s State) (Delta, Step, error) {
	knowledge := []string{}

	if r.c.deps.Retriever != nil {
		snippets, err := r.c.deps.Retriever.Retrieve(ctx, s.Question)
		if err != nil {
			if ctx.Err() != nil {
				return Delta{}, StepDone, ctx.Err()
			}
			r.logger.Warn().Err(err).Msg("Knowledge retrieval failed, continuing without knowledge")
		} else if snippets != nil {
			knowledge = snippets
		}
	}

	r.c.deps.Metrics.KnowledgeRetrieved(len(knowledge))
	r.logger.Debug().Int("snippets", len(knowledge)).Msg("Knowledge retrieved")

	return Delta{Knowledge: knowledge}, StepAnalyze, nil
}

func (r *run) analyze(ctx context.Context, s State) (Delta, Step, error) {
	attempt := len(s.History) + 1
	r.c.deps.Metrics.GenerationAttempt()

	req := interfaces.GenerateRequest{
		Question:   s.Question,
		Stats:      s.Stats,
		SampleRows: sampleRows(s.Rows, r.c.config.SampleRows),
		Knowledge:  s.Knowledge,
		Critique:   s.LatestCritique(),
		Attempt:    attempt,
	}

	draft, err := r.c.deps.Generator.Generate(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return Delta{}, StepDone, ctx.Err()
		}
		r.logger.Error().
			Int("attempt", attempt).
			Err(err).
			Msg("Narrative generation failed, keeping previous draft")
		return Delta{}, StepCritique, nil
	}

	r.logger.Info().
		Int("attempt", attempt).
		Int("chars", len(draft)).
		Msg("Narrative drafted")

	return Delta{Analysis: &draft}, StepCritique, nil
}

func (r *run) critique(ctx context.Context, s State) (Delta, Step, error) {
	var result quality.Result

	if s.Analysis == "" {
		result = quality.Fallback(errEmptyDraft)
	} else {
		response, err := r.c.deps.Critic.Critique(ctx, s.Analysis, s.Knowledge)
		if err != nil {
			if ctx.Err() != nil {
				return Delta{}, StepDone, ctx.Err()
			}
			result = quality.Fallback(fmt.Errorf("critic call failed: %w", err))
		} else {
			result = r.c.deps.Gate.Evaluate(response)
		}
	}

	reflection := models.Reflection{
		Attempt:  len(s.History) + 1,
		Analysis: s.Analysis,
		Critique: result.Critique,
		Score:    result.Score,
		Parsed:   result.Parsed,
	}

	r.c.deps.Metrics.CritiqueScored(result.Score, result.Parsed)

	if !result.Parsed {
		r.logger.Warn().
			Int("attempt", reflection.Attempt).
			Err(result.Err).
			Msg("Critique unusable, substituting fallback")
	} else {
		r.logger.Info().
			Int("attempt", reflection.Attempt).
			Int("score", reflection.Score).
			Msg("Draft critiqued")
	}

	return Delta{Reflection: &reflection}, StepDecide, nil
}

func (r *run) decide(ctx context.Context, s State) (Delta, Step, error) {
	if s.CorrectiveRounds() >= r.c.config.MaxReflections {
		r.logger.Info().
			Int("attempts", len(s.History)).
			Int("score", s.CurrentScore).
			Msg("Reflection limit reached, assembling best-effort report")
		return Delta{}, StepAssemble, nil
	}
	if s.CurrentScore >= r.c.config.AcceptScore {
		return Delta{}, StepAssemble, nil
	}
	return Delta{}, StepAnalyze, nil
}

func (r *run) assemble(ctx context.Context, s State) (Delta, Step, error) {
	charts := []models.Artifact{}

	if r.c.deps.Charts != nil {
		rendered, err := r.c.deps.Charts.Render(ctx, s.RunID, s.Stats)
		if err != nil {
			r.c.deps.Metrics.ArtifactFailed(string(models.ArtifactChart))
			r.logger.Warn().Err(err).Msg("Chart rendering failed")
		}
		charts = append(charts, rendered...)
	}

	var reportPath string
	if r.c.deps.Document != nil {
		path, err := r.c.deps.Document.Render(ctx, interfaces.DocumentRequest{
			RunID:    s.RunID,
			Question: s.Question,
			Stats:    s.Stats,
			Analysis: s.Analysis,
			Charts:   charts,
		})
		if err != nil {
			r.c.deps.Metrics.ArtifactFailed(string(models.ArtifactReport))
			r.logger.Error().Err(err).Msg("Report document rendering failed")
		} else {
			reportPath = path
		}
	}

	r.logger.Info().
		Int("charts", len(charts)).
		Str("report", reportPath).
		Msg("Report assembled")

	return Delta{Charts: charts, ReportPath: reportPath}, StepDistribute, nil
}

func (r *run) distribute(ctx context.Context, s State) (Delta, Step, error) {
	if r.c.deps.Mailer == nil {
		return Delta{}, StepDone, nil
	}
	if s.ReportPath == "" {
		r.c.deps.Metrics.EmailResult("skipped")
		r.logger.Warn().Msg("No report document, skipping email")
		return Delta{}, StepDone, nil
	}

	err := r.c.deps.Mailer.SendReport(ctx, interfaces.ReportEmail{
		RunID:      s.RunID,
		Subject:    fmt.Sprintf("%s - %s", r.c.reportTitle, r.c.now().Format("02/01/2006")),
		Analysis:   s.Analysis,
		ReportPath: s.ReportPath,
	})
	switch {
	case err == nil:
		r.c.deps.Metrics.EmailResult("sent")
		r.logger.Info().Msg("Report emailed")
		return Delta{Emailed: true}, StepDone, nil
	case errors.Is(err, interfaces.ErrMailerNotConfigured):
		r.c.deps.Metrics.EmailResult("skipped")
		r.logger.Debug().Msg("Mail not configured, skipping email")
	default:
		r.c.deps.Metrics.EmailResult("failed")
		r.logger.Error().Err(err).Msg("Failed to email report")
	}

	return Delta{}, StepDone, nil
}

func sampleRows(rows []models.Row, n int) []models.Row {
	if n <= 0 || len(rows) <= n {
		return rows
	}
	return rows[:n]
}
