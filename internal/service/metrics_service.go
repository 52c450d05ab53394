package service

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/civicdesk/grievance-portal/internal/cache"
	"github.com/civicdesk/grievance-portal/internal/domain"
	"github.com/civicdesk/grievance-portal/internal/repository"
)

// ErrNoData is returned when there are no complaints to aggregate.
var ErrNoData = errors.New("no complaint data")

// ComputeMetrics aggregates complaints for the dashboard. Every severity
// bucket, status and category is present in the result, zero when unused.
func ComputeMetrics(complaints []domain.Complaint) (*domain.DashboardMetrics, error) {
	if len(complaints) == 0 {
		return nil, ErrNoData
	}

	m := &domain.DashboardMetrics{
		Total:              len(complaints),
		SeverityHistogram:  make(map[int]int, 5),
		StatusDistribution: make(map[domain.ComplaintStatus]int, len(domain.ComplaintStatuses)),
		CategoryCounts:     make(map[domain.ComplaintCategory]int, len(domain.ComplaintCategories)),
		SentimentTrend:     make([]domain.TrendPoint, 0, len(complaints)),
	}
	for severity := 1; severity <= 5; severity++ {
		m.SeverityHistogram[severity] = 0
	}
	for _, status := range domain.ComplaintStatuses {
		m.StatusDistribution[status] = 0
	}
	for _, category := range domain.ComplaintCategories {
		m.CategoryCounts[category] = 0
	}

	ordered := make([]domain.Complaint, len(complaints))
	copy(ordered, complaints)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	var severitySum, sentimentSum float64
	resolved := 0
	for _, c := range ordered {
		severitySum += float64(c.Severity)
		sentimentSum += c.SentimentScore
		if c.Status == domain.ComplaintStatusResolved {
			resolved++
		}
		m.SeverityHistogram[c.Severity]++
		m.StatusDistribution[c.Status]++
		m.CategoryCounts[c.Category]++
		m.SentimentTrend = append(m.SentimentTrend, domain.TrendPoint{At: c.CreatedAt, SentimentScore: c.SentimentScore})
	}

	total := float64(m.Total)
	m.AverageSeverity = severitySum / total
	m.AverageSentiment = sentimentSum / total
	m.ResolutionRate = float64(resolved) / total
	return m, nil
}

// MetricsService serves dashboard aggregates, optionally through a cache.
type MetricsService struct {
	complaints repository.ComplaintStore
	cache      cache.MetricsCache
	logger     *zap.Logger
}

// NewMetricsService builds the service. metricsCache may be nil.
func NewMetricsService(complaints repository.ComplaintStore, metricsCache cache.MetricsCache, logger *zap.Logger) *MetricsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsService{complaints: complaints, cache: metricsCache, logger: logger}
}

// Dashboard aggregates every complaint matching filter. Paging fields are
// ignored. ErrNoData is returned for an empty selection.
func (s *MetricsService) Dashboard(ctx context.Context, filter repository.ComplaintFilter) (*domain.DashboardMetrics, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = 0, 0
	key := metricsCacheKey(filter)

	cacheable := s.cache != nil
	var lookup cache.Lookup
	if cacheable {
		var err error
		lookup, err = s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
			cacheable = false
		} else if lookup.Hit {
			return lookup.Metrics, nil
		}
	}

	complaints, err := s.complaints.Snapshot(ctx, filter)
	if err != nil {
		return nil, storeError("complaints", err)
	}
	metrics, err := ComputeMetrics(complaints)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.Set(ctx, key, lookup.Generation, metrics); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return metrics, nil
}

// metricsCacheKey encodes filter deterministically; url.Values sorts keys.
func metricsCacheKey(filter repository.ComplaintFilter) string {
	values := url.Values{}
	if filter.CustomerID != nil {
		values.Set("customer_id", *filter.CustomerID)
	}
	for _, status := range filter.Statuses {
		values.Add("status", string(status))
	}
	for _, category := range filter.Categories {
		values.Add("category", string(category))
	}
	if filter.SearchTerm != nil {
		values.Set("q", *filter.SearchTerm)
	}
	if filter.CreatedFrom != nil {
		values.Set("created_from", filter.CreatedFrom.UTC().Format(time.RFC3339Nano))
	}
	if filter.CreatedTo != nil {
		values.Set("created_to", filter.CreatedTo.UTC().Format(time.RFC3339Nano))
	}
	if filter.CreatedBefore != nil {
		values.Set("created_before", filter.CreatedBefore.UTC().Format(time.RFC3339Nano))
	}
	if len(values) == 0 {
		return "all"
	}
	return values.Encode()
}
