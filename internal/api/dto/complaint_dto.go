package dto

import (
	"math"
	"strconv"
	"time"

	"github.com/civicdesk/grievance-portal/internal/domain"
)

// SubmitComplaintRequest payload. CustomerID defaults to the caller's
// username when credentials are supplied.
type SubmitComplaintRequest struct {
	CustomerID string `json:"customer_id"`
	Text       string `json:"complaint_text"`
	Category   string `json:"category"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ComplaintResponse is one table row.
type ComplaintResponse struct {
	ID             int64                    `json:"id"`
	CustomerID     string                   `json:"customer_id"`
	Text           string                   `json:"complaint_text"`
	Category       domain.ComplaintCategory `json:"category"`
	Severity       int                      `json:"severity"`
	SentimentScore float64                  `json:"sentiment_score"`
	Status         domain.ComplaintStatus   `json:"status"`
	CreatedAt      time.Time                `json:"created_at"`
	ResolvedAt     *time.Time               `json:"resolved_at"`
}

// PageMeta describes list pagination.
type PageMeta struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Count    int `json:"count"`
}

// TrendPointResponse is one sentiment sample.
type TrendPointResponse struct {
	At             time.Time `json:"at"`
	SentimentScore float64   `json:"sentiment_score"`
}

// DashboardResponse carries the chart data. NoData is set, and every other
// field zero, when nothing matched.
type DashboardResponse struct {
	NoData             bool                 `json:"no_data"`
	Total              int                  `json:"total"`
	AverageSeverity    float64              `json:"average_severity"`
	ResolutionRate     float64              `json:"resolution_rate"`
	AverageSentiment   float64              `json:"average_sentiment"`
	SeverityHistogram  map[string]int       `json:"severity_histogram,omitempty"`
	StatusDistribution map[string]int       `json:"status_distribution,omitempty"`
	CategoryCounts     map[string]int       `json:"category_counts,omitempty"`
	SentimentTrend     []TrendPointResponse `json:"sentiment_trend"`
}

// NewComplaintResponse maps a domain complaint.
func NewComplaintResponse(c *domain.Complaint) ComplaintResponse {
	return ComplaintResponse{
		ID:             c.ID,
		CustomerID:     c.CustomerID,
		Text:           c.Text,
		Category:       c.Category,
		Severity:       c.Severity,
		SentimentScore: c.SentimentScore,
		Status:         c.Status,
		CreatedAt:      c.CreatedAt,
		ResolvedAt:     c.ResolvedAt,
	}
}

// NewDashboardResponse maps aggregates, rounding for display.
func NewDashboardResponse(m *domain.DashboardMetrics) DashboardResponse {
	if m == nil {
		return DashboardResponse{NoData: true, SentimentTrend: []TrendPointResponse{}}
	}
	resp := DashboardResponse{
		Total:              m.Total,
		AverageSeverity:    round(m.AverageSeverity, 2),
		ResolutionRate:     round(m.ResolutionRate, 4),
		AverageSentiment:   round(m.AverageSentiment, 4),
		SeverityHistogram:  make(map[string]int, len(m.SeverityHistogram)),
		StatusDistribution: make(map[string]int, len(m.StatusDistribution)),
		CategoryCounts:     make(map[string]int, len(m.CategoryCounts)),
		SentimentTrend:     make([]TrendPointResponse, 0, len(m.SentimentTrend)),
	}
	for severity, count := range m.SeverityHistogram {
		resp.SeverityHistogram[strconv.Itoa(severity)] = count
	}
	for status, count := range m.StatusDistribution {
		resp.StatusDistribution[string(status)] = count
	}
	for category, count := range m.CategoryCounts {
		resp.CategoryCounts[string(category)] = count
	}
	for _, p := range m.SentimentTrend {
		resp.SentimentTrend = append(resp.SentimentTrend, TrendPointResponse{At: p.At, SentimentScore: p.SentimentScore})
	}
	return resp
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
