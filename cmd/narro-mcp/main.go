package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/narro/internal/app"
	"github.com/ternarybob/narro/internal/common"
)

func main() {
	var configPaths []string
	if configPath := os.Getenv("NARRO_CONFIG"); configPath != "" {
		configPaths = append(configPaths, configPath)
	} else if _, err := os.Stat("narro.toml"); err == nil {
		configPaths = append(configPaths, "narro.toml")
	}

	config, err := common.LoadFromFiles(configPaths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logging to avoid cluttering MCP stdio
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	mcpServer := server.NewMCPServer(
		"narro",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createAnalyzeSalesTool(), handleAnalyzeSales(application.ReportService, logger))
	mcpServer.AddTool(createSearchKnowledgeTool(), handleSearchKnowledge(application.KnowledgeService, logger))
	mcpServer.AddTool(createAddKnowledgeTool(), handleAddKnowledge(application.StorageManager.KnowledgeStorage(), logger))
	mcpServer.AddTool(createListRunsTool(), handleListRuns(application.StorageManager.RunStorage(), logger))

	// Blocks on stdio
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
