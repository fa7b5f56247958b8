package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/services/source"
	"github.com/ternarybob/narro/internal/workflow"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one report",
	Long: `Runs the reflective report workflow once, over a payload file (--payload)
or over orders fetched from the configured webhook (--from/--to).`,
	Example: `  narro run --payload orders.json
  narro run --from 2025-08-17 --to 2025-08-22 --question "Phân tích doanh thu tuần"`,
	RunE: runReport,
}

var (
	runPayload  string
	runFrom     string
	runTo       string
	runQuestion string
)

func init() {
	runCmd.Flags().StringVar(&runPayload, "payload", "", "JSON or YAML payload file")
	runCmd.Flags().StringVar(&runFrom, "from", "", "Window start date (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runTo, "to", "", "Window end date (YYYY-MM-DD), defaults to --from")
	runCmd.Flags().StringVarP(&runQuestion, "question", "q", "", "Analysis question (defaults to workflow.default_question)")
	runCmd.MarkFlagsMutuallyExclusive("payload", "from")
}

func runReport(cmd *cobra.Command, args []string) error {
	if runPayload == "" && runFrom == "" {
		return fmt.Errorf("either --payload or --from is required")
	}

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := signalContext()
	defer cancel()

	req := workflow.Request{Question: runQuestion}

	var result *workflow.Result
	if runPayload != "" {
		result, err = application.ReportService.RunFile(ctx, req, runPayload)
	} else {
		window, werr := source.ParseWindow(runFrom, runTo)
		if werr != nil {
			return werr
		}
		result, err = application.ReportService.RunWindow(ctx, req, window)
	}
	if err != nil {
		return err
	}

	printResult(cmd.OutOrStdout(), result)
	return nil
}

func printResult(w io.Writer, result *workflow.Result) {
	fmt.Fprintf(w, "Run:       %s\n", result.RunID)
	fmt.Fprintf(w, "Question:  %s\n", result.Question)
	fmt.Fprintf(w, "Rows:      %d\n", result.Rows)
	if result.Stats != nil {
		fmt.Fprintf(w, "Orders:    %d\n", result.Stats.RevenueSummary.TotalOrders)
		fmt.Fprintf(w, "Revenue:   %s\n", common.FormatAmount(result.Stats.RevenueSummary.TotalRevenue))
	}
	fmt.Fprintf(w, "Attempts:  %d\n", result.Attempts())
	for _, r := range result.History {
		fmt.Fprintf(w, "  #%d score %d\n", r.Attempt, r.Score)
	}
	fmt.Fprintf(w, "Score:     %d\n", result.FinalScore)
	for _, chart := range result.Charts {
		fmt.Fprintf(w, "Chart:     %s\n", chart.Path)
	}
	if result.ReportPath != "" {
		fmt.Fprintf(w, "Report:    %s\n", result.ReportPath)
	}
	fmt.Fprintf(w, "Emailed:   %t\n", result.Emailed)
}
