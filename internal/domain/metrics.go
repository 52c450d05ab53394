package domain

import "time"

// TrendPoint is one sample on the sentiment trend line.
type TrendPoint struct {
	At             time.Time
	SentimentScore float64
}

// DashboardMetrics aggregates a complaint set for the dashboard.
type DashboardMetrics struct {
	Total              int
	AverageSeverity    float64
	ResolutionRate     float64
	AverageSentiment   float64
	SeverityHistogram  map[int]int
	StatusDistribution map[ComplaintStatus]int
	CategoryCounts     map[ComplaintCategory]int
	SentimentTrend     []TrendPoint
}
