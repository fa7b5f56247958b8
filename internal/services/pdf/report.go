package pdf

import (
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/interfaces"
	"github.com/ternarybob/narro/internal/models"
)

// ReportRenderer writes the run's PDF report
type ReportRenderer struct {
	config *common.ReportsConfig
	logger arbor.ILogger
	now    func() time.Time
}

// Compile-time assertion
var _ interfaces.DocumentRenderer = (*ReportRenderer)(nil)

// NewReportRenderer creates a PDF report renderer writing into config.OutputDir
func NewReportRenderer(config *common.ReportsConfig, logger arbor.ILogger) *ReportRenderer {
	return &ReportRenderer{config: config, logger: logger, now: time.Now}
}

// Render writes report-<runID>.pdf and returns its path. The file is re-read with pdfcpu
// before the path is returned.
func (r *ReportRenderer) Render(ctx context.Context, req interfaces.DocumentRequest) (string, error) {
	if req.Stats == nil {
		return "", fmt.Errorf("no statistics for report")
	}
	if err := os.MkdirAll(r.config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	doc, err := newDocument(r.config.FontPath)
	if err != nil {
		return "", err
	}

	title := r.config.Title
	if title == "" {
		title = "Sales Analysis Report"
	}
	doc.pdf.SetTitle(title, true)
	doc.pdf.SetCreator("narro", true)

	r.writeHeader(doc, title, req)
	r.writeOverview(doc, req.Stats)
	r.writeProducts(doc, req.Stats)
	r.writeTime(doc, req.Stats)
	r.writeDataQuality(doc, req.Stats)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.writeCharts(doc, req.Charts)

	if strings.TrimSpace(req.Analysis) != "" {
		doc.heading("Detailed Analysis", 1)
		if err := doc.writeMarkdown(req.Analysis); err != nil {
			return "", fmt.Errorf("failed to render analysis: %w", err)
		}
	}

	writeConclusions(doc)

	path := filepath.Join(r.config.OutputDir, fmt.Sprintf("report-%s.pdf", req.RunID))
	if err := doc.pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	pages, err := PageCount(path)
	if err != nil {
		return "", fmt.Errorf("report failed verification: %w", err)
	}

	r.logger.Info().
		Str("path", path).
		Int("pages", pages).
		Int("charts", len(req.Charts)).
		Msg("Report document written")

	return path, nil
}

func (r *ReportRenderer) writeHeader(doc *document, title string, req interfaces.DocumentRequest) {
	doc.title(title)
	doc.paragraph("Created: " + r.now().Format("02/01/2006 15:04:05"))
	if req.Question != "" {
		doc.paragraph("Question: " + req.Question)
	}

	doc.heading("Summary", 1)
	doc.paragraph("This report presents the analysis of the period's sales data, covering:")
	for _, item := range []string{
		"Revenue and order analysis",
		"Best-selling products",
		"Sales by time of day",
		"Business recommendations",
	} {
		doc.bullet(item)
	}
}

func (r *ReportRenderer) writeOverview(doc *document, stats *models.StatsBundle) {
	rs := stats.RevenueSummary
	doc.heading("Overview", 1)
	doc.bullet("Total revenue: " + common.FormatAmount(rs.TotalRevenue) + " VND")
	doc.bullet("Total orders: " + common.FormatAmount(float64(rs.TotalOrders)))
	doc.bullet("Average order value: " + common.FormatAmount(rs.AverageOrderValue) + " VND")
	doc.bullet("Distinct products: " + strconv.Itoa(stats.ProductAnalysis.TotalProducts))
}

func (r *ReportRenderer) writeProducts(doc *document, stats *models.StatsBundle) {
	pa := stats.ProductAnalysis
	if len(pa.TopByQuantity) == 0 && len(pa.TopByRevenue) == 0 {
		return
	}

	doc.heading("Product Analysis", 1)

	doc.heading("Top 5 Products by Quantity", 2)
	rows := [][]string{{"#", "Product", "Quantity", "Revenue (VND)"}}
	for i, p := range pa.TopByQuantity {
		rows = append(rows, []string{strconv.Itoa(i + 1), p.Name, common.FormatAmount(p.Quantity), common.FormatAmount(p.Revenue)})
	}
	doc.table(rows, nil)

	doc.heading("Top 5 Products by Revenue", 2)
	rows = [][]string{{"#", "Product", "Revenue (VND)", "Quantity"}}
	for i, p := range pa.TopByRevenue {
		rows = append(rows, []string{strconv.Itoa(i + 1), p.Name, common.FormatAmount(p.Revenue), common.FormatAmount(p.Quantity)})
	}
	doc.table(rows, nil)
}

func (r *ReportRenderer) writeTime(doc *document, stats *models.StatsBundle) {
	ta := stats.TimeAnalysis
	if len(ta.BusiestHours) == 0 && len(stats.DailyBreakdown) == 0 {
		return
	}

	doc.heading("Time Analysis", 1)

	if len(stats.DailyBreakdown) > 0 {
		doc.heading("Daily Breakdown", 2)
		rows := [][]string{{"Date", "Orders", "Products", "Quantity", "Revenue (VND)"}}
		for _, d := range stats.DailyBreakdown {
			rows = append(rows, bucketRow(d.Date, d.BucketStats))
		}
		doc.table(rows, nil)
	}

	if len(ta.BusiestHours) > 0 {
		doc.heading("Busiest Hours", 2)
		for _, h := range ta.BusiestHours {
			doc.bullet(fmt.Sprintf("%02d:00 - %d orders", h.Hour, h.UniqueOrders))
		}
	}

	doc.heading("Time Periods", 2)
	rows := [][]string{{"Period", "Orders", "Products", "Quantity", "Revenue (VND)"}}
	for _, p := range ta.BusiestPeriods {
		rows = append(rows, bucketRow(string(p.Period), p.BucketStats))
	}
	doc.table(rows, nil)
}

func (r *ReportRenderer) writeDataQuality(doc *document, stats *models.StatsBundle) {
	dq := stats.DataQuality
	doc.heading("Data Quality", 1)
	doc.bullet(fmt.Sprintf("Rows analysed: %d", dq.TotalRows))
	doc.bullet(fmt.Sprintf("Rows with a valid price: %d", dq.ValidPrices))
	doc.bullet(fmt.Sprintf("Rows with a valid quantity: %d", dq.ValidQuantities))
	doc.bullet(fmt.Sprintf("Rows with a usable timestamp: %d", dq.ValidTimeAnalysis))
}

func (r *ReportRenderer) writeCharts(doc *document, charts []models.Artifact) {
	if len(charts) == 0 {
		return
	}

	doc.heading("Charts", 1)
	for _, chart := range charts {
		aspect, err := imageAspect(chart.Path)
		if err != nil {
			r.logger.Warn().Str("chart", chart.Name).Err(err).Msg("Skipping unreadable chart")
			continue
		}
		doc.image(chart.Path, aspect, chartCaption(chart.Name))
	}
}

func writeConclusions(doc *document) {
	doc.heading("Conclusions & Recommendations", 1)
	doc.paragraph("Based on the analysis, we recommend:")
	doc.bullet("Focus on the best-selling products")
	doc.bullet("Optimise service speed during peak hours")
	doc.bullet("Develop marketing for the quieter time periods")
}

func bucketRow(label string, b models.BucketStats) []string {
	return []string{
		label,
		strconv.Itoa(b.UniqueOrders),
		strconv.Itoa(b.UniqueProducts),
		common.FormatAmount(b.Quantity),
		common.FormatAmount(b.Revenue),
	}
}

// chartCaption turns "daily_revenue" into "Daily Revenue"
func chartCaption(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func imageAspect(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, err
	}
	if cfg.Width == 0 {
		return 0, fmt.Errorf("image has zero width")
	}
	return float64(cfg.Height) / float64(cfg.Width), nil
}

// PageCount reads a PDF with pdfcpu and returns its page count
func PageCount(path string) (int, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF: %w", err)
	}
	if pdfCtx.PageCount == 0 {
		return 0, fmt.Errorf("PDF has no pages")
	}
	return pdfCtx.PageCount, nil
}
