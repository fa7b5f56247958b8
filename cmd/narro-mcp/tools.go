package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createAnalyzeSalesTool returns the analyze_sales tool definition
func createAnalyzeSalesTool() mcp.Tool {
	return mcp.NewTool("analyze_sales",
		mcp.WithDescription("Run the reflective sales report over an order payload or a date window fetched from the configured source"),
		mcp.WithString("question",
			mcp.Description("Analysis question (default: the configured default question)"),
		),
		mcp.WithString("payload_json",
			mcp.Description("Order payload as JSON: a list of orders or an object with a data list"),
		),
		mcp.WithString("from",
			mcp.Description("Window start date YYYY-MM-DD, used when payload_json is empty"),
		),
		mcp.WithString("to",
			mcp.Description("Window end date YYYY-MM-DD (default: same as from)"),
		),
	)
}

// createSearchKnowledgeTool returns the search_knowledge tool definition
func createSearchKnowledgeTool() mcp.Tool {
	return mcp.NewTool("search_knowledge",
		mcp.WithDescription("Find the expert knowledge entries a question would retrieve"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Question or keywords"),
		),
	)
}

// createAddKnowledgeTool returns the add_knowledge tool definition
func createAddKnowledgeTool() mcp.Tool {
	return mcp.NewTool("add_knowledge",
		mcp.WithDescription("Add an expert knowledge entry that guides and judges future reports"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The knowledge statement"),
		),
		mcp.WithArray("tags",
			mcp.WithStringItems(),
			mcp.Description("Keywords that should retrieve this entry"),
		),
	)
}

// createListRunsTool returns the list_runs tool definition
func createListRunsTool() mcp.Tool {
	return mcp.NewTool("list_runs",
		mcp.WithDescription("List recent report runs, most recent first"),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10, max: 100)"),
		),
	)
}
