package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/handlers"
	"github.com/ternarybob/narro/internal/interfaces"
	"github.com/ternarybob/narro/internal/services/knowledge"
	"github.com/ternarybob/narro/internal/services/source"
	"github.com/ternarybob/narro/internal/workflow"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// handleAnalyzeSales implements the analyze_sales tool
func handleAnalyzeSales(reports handlers.ReportService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req := workflow.Request{Question: request.GetString("question", "")}

		var (
			result *workflow.Result
			err    error
		)
		if payloadJSON := request.GetString("payload_json", ""); payloadJSON != "" {
			payload, derr := source.Decode(strings.NewReader(payloadJSON), source.FormatJSON)
			if derr != nil {
				return textResult(fmt.Sprintf("Error: payload_json is not valid JSON: %v", derr)), nil
			}
			req.Payload = payload
			result, err = reports.RunPayload(ctx, req)
		} else {
			from := request.GetString("from", "")
			if from == "" {
				return textResult("Error: payload_json or from is required"), nil
			}
			window, werr := source.ParseWindow(from, request.GetString("to", ""))
			if werr != nil {
				return textResult(fmt.Sprintf("Error: %v", werr)), nil
			}
			result, err = reports.RunWindow(ctx, req, window)
		}
		if err != nil {
			logger.Error().Err(err).Msg("analyze_sales failed")
			return textResult(fmt.Sprintf("Report run failed: %v", err)), nil
		}

		return textResult(formatResult(result)), nil
	}
}

// handleSearchKnowledge implements the search_knowledge tool
func handleSearchKnowledge(searcher handlers.KnowledgeSearcher, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return textResult("Error: query parameter is required"), nil
		}

		entries, err := searcher.Search(ctx, query)
		if err != nil {
			logger.Error().Err(err).Msg("Knowledge search failed")
			return textResult(fmt.Sprintf("Search error: %v", err)), nil
		}

		return textResult(formatKnowledge(query, entries)), nil
	}
}

// handleAddKnowledge implements the add_knowledge tool
func handleAddKnowledge(store interfaces.KnowledgeStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil || strings.TrimSpace(text) == "" {
			return textResult("Error: text parameter is required"), nil
		}

		entry, err := knowledge.Add(ctx, store, text, request.GetStringSlice("tags", nil))
		if err != nil {
			logger.Error().Err(err).Msg("Failed to add knowledge")
			return textResult(fmt.Sprintf("Failed to add knowledge: %v", err)), nil
		}

		return textResult(fmt.Sprintf("Added knowledge entry %s", entry.ID)), nil
	}
}

// handleListRuns implements the list_runs tool
func handleListRuns(runs interfaces.RunStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := request.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 100 {
			limit = 100
		}

		records, err := runs.ListRuns(ctx, limit)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to list runs")
			return textResult(fmt.Sprintf("Failed to list runs: %v", err)), nil
		}

		data, err := json.MarshalIndent(summarizeRuns(records), "", "  ")
		if err != nil {
			return textResult(fmt.Sprintf("Failed to encode runs: %v", err)), nil
		}
		return textResult(string(data)), nil
	}
}
