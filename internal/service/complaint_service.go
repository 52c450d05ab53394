package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/civicdesk/grievance-portal/internal/config"
	"github.com/civicdesk/grievance-portal/internal/domain"
	"github.com/civicdesk/grievance-portal/internal/events"
	"github.com/civicdesk/grievance-portal/internal/repository"
	"github.com/civicdesk/grievance-portal/internal/scoring"
	apperrors "github.com/civicdesk/grievance-portal/pkg/util"
)

// ComplaintService coordinates complaint submission and status workflows.
type ComplaintService struct {
	complaints            repository.ComplaintStore
	analyzer              scoring.SentimentAnalyzer
	dispatcher            events.Dispatcher
	logger                *zap.Logger
	clearResolvedOnReopen bool
	now                   func() time.Time
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo repository.ComplaintStore
	Analyzer      scoring.SentimentAnalyzer
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// NewComplaintService builds the service.
func NewComplaintService(cfg config.LifecycleConfig, deps ComplaintDependencies) *ComplaintService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &ComplaintService{
		complaints:            deps.ComplaintRepo,
		analyzer:              deps.Analyzer,
		dispatcher:            deps.Dispatcher,
		logger:                logger,
		clearResolvedOnReopen: cfg.ClearResolvedOnReopen,
		now:                   clock,
	}
}

// SubmitInput describes a new complaint.
type SubmitInput struct {
	CustomerID string                   `json:"customer_id" validate:"notblank,max=64"`
	Text       string                   `json:"complaint_text" validate:"notblank,max=5000"`
	Category   domain.ComplaintCategory `json:"category" validate:"required,oneof=Service Product Delivery Other"`
}

// Submit scores the complaint text, derives its severity and stores it OPEN.
func (s *ComplaintService) Submit(ctx context.Context, in SubmitInput) (*domain.Complaint, error) {
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	in.Text = strings.TrimSpace(in.Text)
	in.Category = domain.ComplaintCategory(strings.TrimSpace(string(in.Category)))
	if err := validateInput(in); err != nil {
		return nil, err
	}

	score, err := s.analyzer.Score(ctx, in.Text)
	if err != nil {
		s.logger.Error("sentiment scoring failed", zap.String("customer_id", in.CustomerID), zap.Error(err))
		return nil, apperrors.NewDependencyUnavailable("sentiment service", err)
	}

	complaint := &domain.Complaint{
		CustomerID:     in.CustomerID,
		Text:           in.Text,
		Category:       in.Category,
		Severity:       scoring.Severity(score),
		SentimentScore: score,
		Status:         domain.ComplaintStatusOpen,
	}
	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, storeError("complaint", err)
	}

	s.logger.Info("complaint submitted",
		zap.Int64("complaint_id", complaint.ID),
		zap.String("category", string(complaint.Category)),
		zap.Int("severity", complaint.Severity),
		zap.Float64("sentiment", complaint.SentimentScore))
	publish(ctx, s.dispatcher, s.logger, events.NewEvent(
		events.EventComplaintSubmitted,
		complaintSubject(complaint.ID),
		complaint.CustomerID,
		events.ComplaintSubmittedPayload{
			CustomerID:     complaint.CustomerID,
			Category:       complaint.Category,
			Severity:       complaint.Severity,
			SentimentScore: complaint.SentimentScore,
		},
	))
	return complaint, nil
}

// UpdateStatus moves a complaint to status. Any transition is allowed.
// RESOLVED stamps the resolution time; other statuses keep an existing one
// unless the reopen policy clears it.
func (s *ComplaintService) UpdateStatus(ctx context.Context, id int64, status domain.ComplaintStatus, actor string) (*domain.Complaint, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{
			"status": "Must be one of: OPEN IN_PROGRESS RESOLVED",
		})
	}

	current, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("complaint", err)
	}

	update := repository.StatusUpdate{ID: id, Status: status}
	if status == domain.ComplaintStatusResolved {
		resolvedAt := s.now().UTC()
		update.ResolvedAt = &resolvedAt
	} else if s.clearResolvedOnReopen {
		update.ClearResolvedAt = true
	}
	if err := s.complaints.UpdateStatus(ctx, update); err != nil {
		return nil, storeError("complaint", err)
	}

	updated, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("complaint", err)
	}

	s.logger.Info("complaint status changed",
		zap.Int64("complaint_id", id),
		zap.String("old_status", string(current.Status)),
		zap.String("new_status", string(status)),
		zap.String("actor", actor))
	publish(ctx, s.dispatcher, s.logger, events.NewEvent(
		events.EventComplaintStatusChanged,
		complaintSubject(id),
		actor,
		events.ComplaintStatusChangedPayload{OldStatus: current.Status, NewStatus: status},
	))
	return updated, nil
}

// Get returns a single complaint.
func (s *ComplaintService) Get(ctx context.Context, id int64) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("complaint", err)
	}
	return complaint, nil
}

// List returns one page of complaints, newest first.
func (s *ComplaintService) List(ctx context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	complaints, err := s.complaints.List(ctx, filter)
	if err != nil {
		return nil, storeError("complaints", err)
	}
	return complaints, nil
}

func validateFilter(filter repository.ComplaintFilter) error {
	details := map[string]any{}
	for _, status := range filter.Statuses {
		if !status.Valid() {
			details["status"] = "Must be one of: OPEN IN_PROGRESS RESOLVED"
		}
	}
	for _, category := range filter.Categories {
		if !category.Valid() {
			details["category"] = "Must be one of: Service Product Delivery Other"
		}
	}
	if filter.CreatedFrom != nil && filter.CreatedTo != nil && filter.CreatedTo.Before(*filter.CreatedFrom) {
		details["created_to"] = "Must not be before created_from"
	}
	if filter.CreatedFrom != nil && filter.CreatedBefore != nil && !filter.CreatedBefore.After(*filter.CreatedFrom) {
		details["created_to"] = "Must not be before created_from"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid filter", details)
	}
	return nil
}

func complaintSubject(id int64) string {
	return strconv.FormatInt(id, 10)
}
