package stats

import (
	"sort"
	"strconv"

	"github.com/ternarybob/narro/internal/models"
)

const (
	topProducts  = 5
	topHours     = 5
	unknownLabel = "Unknown"
)

// Compute builds the statistics bundle for a set of normalized rows
func Compute(rows []models.Row) *models.StatsBundle {
	return &models.StatsBundle{
		RevenueSummary:  revenueSummary(rows),
		ProductAnalysis: productAnalysis(rows),
		DailyBreakdown:  dailyBreakdown(rows),
		TimeAnalysis:    timeAnalysis(rows),
		DataQuality:     dataQuality(rows),
	}
}

// revenueSummary counts each non-empty order id once, using the first total seen for it
func revenueSummary(rows []models.Row) models.RevenueSummary {
	seen := make(map[string]struct{})
	var summary models.RevenueSummary
	for _, row := range rows {
		if row.OrderID == "" {
			continue
		}
		if _, ok := seen[row.OrderID]; ok {
			continue
		}
		seen[row.OrderID] = struct{}{}
		summary.TotalRevenue += row.OrderTotal
	}

	summary.TotalOrders = len(seen)
	if summary.TotalOrders > 0 {
		summary.AverageOrderValue = summary.TotalRevenue / float64(summary.TotalOrders)
	}
	return summary
}

func productAnalysis(rows []models.Row) models.ProductAnalysis {
	index := make(map[string]int)
	var products []models.ProductStat

	for _, row := range rows {
		name := row.ProductName
		if name == "" {
			name = unknownLabel
		}
		i, ok := index[name]
		if !ok {
			i = len(products)
			index[name] = i
			products = append(products, models.ProductStat{Name: name})
		}
		products[i].Quantity += row.Quantity
		products[i].Revenue += row.LineRevenue()
		products[i].Count++
	}

	byQuantity := append([]models.ProductStat(nil), products...)
	sort.SliceStable(byQuantity, func(a, b int) bool { return byQuantity[a].Quantity > byQuantity[b].Quantity })

	byRevenue := append([]models.ProductStat(nil), products...)
	sort.SliceStable(byRevenue, func(a, b int) bool { return byRevenue[a].Revenue > byRevenue[b].Revenue })

	return models.ProductAnalysis{
		TotalProducts:      len(products),
		TopByQuantity:      head(byQuantity, topProducts),
		TopByRevenue:       head(byRevenue, topProducts),
		ProductPerformance: products,
	}
}

func dailyBreakdown(rows []models.Row) []models.DailyBucket {
	buckets := newBucketSet()
	for _, row := range rows {
		if row.Date == "" {
			continue
		}
		buckets.add(row.Date, row)
	}

	daily := make([]models.DailyBucket, 0, len(buckets.keys))
	for _, date := range buckets.keys {
		daily = append(daily, models.DailyBucket{Date: date, BucketStats: buckets.stats(date)})
	}
	sort.SliceStable(daily, func(a, b int) bool { return daily[a].Date < daily[b].Date })
	return daily
}

func timeAnalysis(rows []models.Row) models.TimeAnalysis {
	hours := newBucketSet()
	periods := newBucketSet()
	for _, row := range rows {
		if row.Hour == "" {
			continue
		}
		if _, err := strconv.Atoi(row.Hour); err != nil {
			continue
		}
		hours.add(row.Hour, row)
		if row.TimePeriod != models.PeriodUnknown && row.TimePeriod != "" {
			periods.add(string(row.TimePeriod), row)
		}
	}

	hourly := make([]models.HourlyBucket, 0, len(hours.keys))
	for _, key := range hours.keys {
		h, _ := strconv.Atoi(key)
		hourly = append(hourly, models.HourlyBucket{Hour: h, BucketStats: hours.stats(key)})
	}
	sort.SliceStable(hourly, func(a, b int) bool { return hourly[a].Hour < hourly[b].Hour })

	// Every named period is reported, including the empty ones
	byPeriod := make([]models.PeriodBucket, 0, len(models.NamedPeriods))
	for _, period := range models.NamedPeriods {
		byPeriod = append(byPeriod, models.PeriodBucket{Period: period, BucketStats: periods.stats(string(period))})
	}

	busiestHours := append([]models.HourlyBucket(nil), hourly...)
	sort.SliceStable(busiestHours, func(a, b int) bool { return busiestHours[a].UniqueOrders > busiestHours[b].UniqueOrders })

	busiestPeriods := append([]models.PeriodBucket(nil), byPeriod...)
	sort.SliceStable(busiestPeriods, func(a, b int) bool { return busiestPeriods[a].UniqueOrders > busiestPeriods[b].UniqueOrders })

	return models.TimeAnalysis{
		HourlyBreakdown: hourly,
		PeriodBreakdown: byPeriod,
		BusiestHours:    head(busiestHours, topHours),
		BusiestPeriods:  busiestPeriods,
	}
}

func dataQuality(rows []models.Row) models.DataQuality {
	q := models.DataQuality{TotalRows: len(rows)}
	for _, row := range rows {
		if row.Price > 0 {
			q.ValidPrices++
		}
		if row.Quantity > 0 {
			q.ValidQuantities++
		}
		if row.Hour != "" {
			q.ValidTimeAnalysis++
		}
	}
	return q
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
