package models

// StatsBundle is the aggregate view of a batch of rows handed to the narrative generator.
// It is rebuilt on every run and never persisted.
type StatsBundle struct {
	RevenueSummary  RevenueSummary  `json:"revenue_summary"`
	ProductAnalysis ProductAnalysis `json:"product_analysis"`
	DailyBreakdown  []DailyBucket   `json:"daily_breakdown"`
	TimeAnalysis    TimeAnalysis    `json:"time_analysis"`
	DataQuality     DataQuality     `json:"data_quality"`
}

type RevenueSummary struct {
	TotalRevenue      float64 `json:"total_revenue"`
	TotalOrders       int     `json:"total_orders"`
	AverageOrderValue float64 `json:"average_order_value"`
}

// ProductStat accumulates one product's line items
type ProductStat struct {
	Name     string  `json:"product_name"`
	Quantity float64 `json:"quantity"`
	Revenue  float64 `json:"revenue"`
	Count    int     `json:"count"`
}

type ProductAnalysis struct {
	TotalProducts      int           `json:"total_products"`
	TopByQuantity      []ProductStat `json:"top_5_by_quantity"`
	TopByRevenue       []ProductStat `json:"top_5_by_revenue"`
	ProductPerformance []ProductStat `json:"product_performance"`
}

// BucketStats is shared by daily, hourly and period buckets
type BucketStats struct {
	Quantity       float64 `json:"quantity"`
	Revenue        float64 `json:"revenue"`
	UniqueOrders   int     `json:"unique_orders"`
	UniqueProducts int     `json:"unique_products"`
}

type DailyBucket struct {
	Date string `json:"date"`
	BucketStats
}

type HourlyBucket struct {
	Hour int `json:"hour"`
	BucketStats
}

type PeriodBucket struct {
	Period TimePeriod `json:"time_period"`
	BucketStats
}

type TimeAnalysis struct {
	HourlyBreakdown []HourlyBucket `json:"hourly_breakdown"`
	PeriodBreakdown []PeriodBucket `json:"time_period_breakdown"`
	BusiestHours    []HourlyBucket `json:"busiest_hours"`
	BusiestPeriods  []PeriodBucket `json:"busiest_periods"`
}

type DataQuality struct {
	TotalRows         int `json:"total_rows"`
	ValidPrices       int `json:"valid_prices"`
	ValidQuantities   int `json:"valid_quantities"`
	ValidTimeAnalysis int `json:"valid_time_analysis"`
}
