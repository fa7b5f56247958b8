package charts

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/models"
)

func testStats() *models.StatsBundle {
	return &models.StatsBundle{
		DailyBreakdown: []models.DailyBucket{
			{Date: "2025-08-17", BucketStats: models.BucketStats{Revenue: 1500000}},
			{Date: "2025-08-18", BucketStats: models.BucketStats{Revenue: 2300000}},
		},
		ProductAnalysis: models.ProductAnalysis{
			TopByRevenue: []models.ProductStat{
				{Name: "Cà phê sữa đá", Revenue: 900000},
				{Name: "Trà đào", Revenue: 450000},
			},
		},
		TimeAnalysis: models.TimeAnalysis{
			HourlyBreakdown: []models.HourlyBucket{
				{Hour: 8, BucketStats: models.BucketStats{UniqueOrders: 12}},
				{Hour: 19, BucketStats: models.BucketStats{UniqueOrders: 7}},
			},
		},
	}
}

func newTestRenderer(t *testing.T) (*Renderer, string) {
	dir := filepath.Join(t.TempDir(), "charts")
	return NewRenderer(&common.ReportsConfig{ChartsDir: dir}, arbor.NewLogger()), dir
}

func TestRender_AllCharts(t *testing.T) {
	r, dir := newTestRenderer(t)

	artifacts, err := r.Render(context.Background(), "run-1", testStats())
	require.NoError(t, err)
	require.Len(t, artifacts, 3)

	names := []string{}
	for _, a := range artifacts {
		names = append(names, a.Name)
		assert.Equal(t, models.ArtifactChart, a.Kind)
		assert.Equal(t, filepath.Join(dir, "run-1-"+a.Name+".png"), a.Path)

		f, err := os.Open(a.Path)
		require.NoError(t, err)
		cfg, err := png.DecodeConfig(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, chartWidth, cfg.Width)
		assert.Equal(t, chartHeight, cfg.Height)
	}
	assert.Equal(t, []string{ChartDailyRevenue, ChartTopProducts, ChartHourlyOrders}, names)
}

func TestRender_SkipsEmptySeries(t *testing.T) {
	r, _ := newTestRenderer(t)
	stats := testStats()
	stats.DailyBreakdown = nil
	stats.TimeAnalysis.HourlyBreakdown = nil

	artifacts, err := r.Render(context.Background(), "run-2", stats)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, ChartTopProducts, artifacts[0].Name)
}

func TestRender_DistinctRunsDoNotCollide(t *testing.T) {
	r, _ := newTestRenderer(t)

	a1, err := r.Render(context.Background(), "run-a", testStats())
	require.NoError(t, err)
	a2, err := r.Render(context.Background(), "run-b", testStats())
	require.NoError(t, err)

	assert.NotEqual(t, a1[0].Path, a2[0].Path)
}

func TestRender_NilStats(t *testing.T) {
	r, _ := newTestRenderer(t)
	_, err := r.Render(context.Background(), "run-3", nil)
	assert.Error(t, err)
}

func TestAsciiLabel(t *testing.T) {
	assert.Equal(t, "Ca phe sua da", asciiLabel("Cà phê sữa đá"))
	assert.Equal(t, "Tra dao", asciiLabel("Trà đào"))
	assert.Equal(t, "Latte", asciiLabel("Latte"))
}

func TestNiceCeiling(t *testing.T) {
	assert.Equal(t, 1.0, niceCeiling(0))
	assert.Equal(t, 2500000.0, niceCeiling(2300000))
	assert.Equal(t, 20.0, niceCeiling(12))
	assert.Equal(t, 10.0, niceCeiling(7))
}

func TestCompactNumber(t *testing.T) {
	assert.Equal(t, "950", compactNumber(950))
	assert.Equal(t, "12.5K", compactNumber(12500))
	assert.Equal(t, "2.3M", compactNumber(2300000))
	assert.Equal(t, "0", compactNumber(0))
}
