package charts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/models"
)

// Chart names, used as the file name suffix
const (
	ChartDailyRevenue = "daily_revenue"
	ChartTopProducts  = "top_products"
	ChartHourlyOrders = "hourly_orders"
)

// Renderer writes PNG charts for a run's statistics
type Renderer struct {
	dir    string
	logger arbor.ILogger
}

// NewRenderer creates a chart renderer writing into config.ChartsDir
func NewRenderer(config *common.ReportsConfig, logger arbor.ILogger) *Renderer {
	return &Renderer{dir: config.ChartsDir, logger: logger}
}

// Render draws every chart with data. Each chart is independent: a failed chart is
// reported in the joined error and the remaining artifacts are still returned.
func (r *Renderer) Render(ctx context.Context, runID string, stats *models.StatsBundle) ([]models.Artifact, error) {
	if stats == nil {
		return nil, fmt.Errorf("no statistics to chart")
	}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create charts directory: %w", err)
	}

	charts := []struct {
		name string
		data series
	}{
		{ChartDailyRevenue, dailyRevenue(stats)},
		{ChartTopProducts, topProducts(stats)},
		{ChartHourlyOrders, hourlyOrders(stats)},
	}

	var artifacts []models.Artifact
	var errs []error

	for _, chart := range charts {
		if err := ctx.Err(); err != nil {
			return artifacts, err
		}
		if len(chart.data.values) == 0 {
			r.logger.Debug().Str("chart", chart.name).Msg("No data for chart, skipping")
			continue
		}

		path := filepath.Join(r.dir, fmt.Sprintf("%s-%s.png", runID, chart.name))
		if err := chart.data.draw().savePNG(path); err != nil {
			r.logger.Warn().Str("chart", chart.name).Err(err).Msg("Failed to render chart")
			errs = append(errs, fmt.Errorf("%s: %w", chart.name, err))
			continue
		}

		r.logger.Debug().Str("chart", chart.name).Str("path", path).Msg("Chart rendered")
		artifacts = append(artifacts, models.Artifact{Kind: models.ArtifactChart, Name: chart.name, Path: path})
	}

	return artifacts, errors.Join(errs...)
}

func dailyRevenue(stats *models.StatsBundle) series {
	s := series{
		title:  "Daily Revenue",
		xTitle: "Date",
		yTitle: "Revenue (VND)",
		kind:   lineChart,
	}
	for _, d := range stats.DailyBreakdown {
		s.labels = append(s.labels, d.Date)
		s.values = append(s.values, d.Revenue)
	}
	return s
}

func topProducts(stats *models.StatsBundle) series {
	s := series{
		title:  "Top 5 Products by Revenue",
		xTitle: "Product",
		yTitle: "Revenue (VND)",
		kind:   barChart,
	}
	for _, p := range stats.ProductAnalysis.TopByRevenue {
		s.labels = append(s.labels, p.Name)
		s.values = append(s.values, p.Revenue)
	}
	return s
}

func hourlyOrders(stats *models.StatsBundle) series {
	s := series{
		title:  "Orders by Hour",
		xTitle: "Hour of day",
		yTitle: "Orders",
		kind:   barChart,
	}
	for _, h := range stats.TimeAnalysis.HourlyBreakdown {
		s.labels = append(s.labels, strconv.Itoa(h.Hour)+"h")
		s.values = append(s.values, float64(h.UniqueOrders))
	}
	return s
}
