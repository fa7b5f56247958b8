package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/narro/internal/interfaces"
)

const analystSystemPrompt = `You are a data analyst specialising in the food and beverage (F&B) industry.
Your task is to write a detailed, professional analysis report from statistics that have already been calculated.
Use markdown formatting and focus on insights and actionable recommendations.
Never recalculate or invent figures: quote the provided numbers.
Write the report in %s.`

const criticSystemPrompt = `You are an extremely demanding F&B manager and data analysis expert.
Your task is to evaluate a report and return a single JSON object.
Do not add any text other than the JSON object.`

// reportSections are the sections every draft must contain
var reportSections = []string{
	"Overview (number of orders, total revenue, average order value)",
	"Top 5 products by quantity sold",
	"Top 5 products by revenue",
	"Daily analysis (if available)",
	"Busiest hours and time periods",
	"Data quality assessment",
	"Insights and recommendations",
}

// BuildAnalystMessages assembles the generator prompt.
// Only req.Critique (the latest critique) is included as corrective feedback.
func BuildAnalystMessages(req interfaces.GenerateRequest, language string) ([]Message, error) {
	context := struct {
		RawDataSample any `json:"raw_data_sample"`
		TotalRows     int `json:"total_rows"`
		Calculations  any `json:"calculations"`
	}{
		RawDataSample: req.SampleRows,
		Calculations:  req.Stats,
	}
	if req.Stats != nil {
		context.TotalRows = req.Stats.DataQuality.TotalRows
	}

	contextJSON, err := json.MarshalIndent(context, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode statistics: %w", err)
	}

	var b strings.Builder
	b.WriteString("Data and pre-computed results:\n")
	b.Write(contextJSON)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Question: %s\n\n", req.Question)

	if len(req.Knowledge) > 0 {
		b.WriteString("**Guidance from an expert mentor:**\n")
		for _, k := range req.Knowledge {
			fmt.Fprintf(&b, "- %s\n", k)
		}
		b.WriteString("\n")
	}

	b.WriteString("Requirements: based on the calculated figures, write a summary report containing:\n")
	for i, section := range reportSections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, section)
	}
	b.WriteString("\nUse markdown to present the report clearly and professionally.")

	if req.Critique != "" {
		fmt.Fprintf(&b, "\n\n**Feedback on the previous draft (must be addressed):**\n%s\nRewrite the report based on this feedback.", req.Critique)
	}

	return []Message{
		{Role: "system", Content: fmt.Sprintf(analystSystemPrompt, language)},
		{Role: "user", Content: b.String()},
	}, nil
}

// BuildCriticMessages assembles the critic prompt for one draft
func BuildCriticMessages(draft string, knowledge []string) []Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is the report to evaluate:\n\n---\n%s\n---\n", draft)

	if len(knowledge) > 0 {
		b.WriteString("\n**Criteria to consider from the mentor:**\n")
		for _, k := range knowledge {
			fmt.Fprintf(&b, "- %s\n", k)
		}
	}

	b.WriteString("\nRequirements:\n")
	b.WriteString("1. Score the report out of 10 for depth of insight and usefulness.\n")
	b.WriteString("2. If the score is below 8, give specific, clear feedback so the analyst can improve it.\n")
	b.WriteString(`3. Reply only with a JSON string in this format: {"score": <integer 0-10>, "critique": "<feedback>"}`)

	return []Message{
		{Role: "system", Content: criticSystemPrompt},
		{Role: "user", Content: b.String()},
	}
}
