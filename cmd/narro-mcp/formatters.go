package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/models"
	"github.com/ternarybob/narro/internal/workflow"
)

// formatResult formats a finished run as markdown, narrative included
func formatResult(result *workflow.Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Report %s\n\n", result.RunID))
	sb.WriteString(fmt.Sprintf("**Question:** %s\n", result.Question))
	if result.Stats != nil {
		summary := result.Stats.RevenueSummary
		sb.WriteString(fmt.Sprintf("**Orders:** %d\n", summary.TotalOrders))
		sb.WriteString(fmt.Sprintf("**Revenue:** %s\n", common.FormatAmount(summary.TotalRevenue)))
	}
	sb.WriteString(fmt.Sprintf("**Attempts:** %d, final score %d/10\n", result.Attempts(), result.FinalScore))
	if result.ReportPath != "" {
		sb.WriteString(fmt.Sprintf("**Report:** %s\n", result.ReportPath))
	}
	sb.WriteString(fmt.Sprintf("**Emailed:** %t\n\n", result.Emailed))

	if len(result.History) > 0 {
		sb.WriteString("## Critiques\n\n")
		for _, r := range result.History {
			sb.WriteString(fmt.Sprintf("- Attempt %d (score %d): %s\n", r.Attempt, r.Score, r.Critique))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Analysis\n\n")
	sb.WriteString(result.Analysis)
	sb.WriteString("\n")
	return sb.String()
}

// formatKnowledge formats knowledge search results as markdown
func formatKnowledge(query string, entries []models.KnowledgeEntry) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Knowledge for \"%s\" (%d entries)\n\n", query, len(entries)))

	if len(entries) == 0 {
		sb.WriteString("No matching entries.\n")
		return sb.String()
	}

	for _, entry := range entries {
		sb.WriteString(fmt.Sprintf("- %s", entry.Text))
		if len(entry.Tags) > 0 {
			sb.WriteString(fmt.Sprintf(" _(%s)_", strings.Join(entry.Tags, ", ")))
		}
		sb.WriteString(fmt.Sprintf(" `%s`\n", entry.ID))
	}
	return sb.String()
}

type runSummary struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Question   string `json:"question"`
	Attempts   int    `json:"attempts"`
	FinalScore int    `json:"final_score"`
	Emailed    bool   `json:"emailed"`
	ReportPath string `json:"report_path,omitempty"`
	StartedAt  string `json:"started_at"`
}

// summarizeRuns drops narratives and critique history from run records
func summarizeRuns(records []models.RunRecord) []runSummary {
	summaries := make([]runSummary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, runSummary{
			ID:         r.ID,
			Status:     string(r.Status),
			Question:   r.Question,
			Attempts:   r.Attempts,
			FinalScore: r.FinalScore,
			Emailed:    r.Emailed,
			ReportPath: r.ReportPath,
			StartedAt:  r.StartedAt.Format(time.RFC3339),
		})
	}
	return summaries
}
