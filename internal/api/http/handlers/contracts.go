package handlers

import (
	"context"

	"github.com/civicdesk/grievance-portal/internal/domain"
	"github.com/civicdesk/grievance-portal/internal/repository"
	"github.com/civicdesk/grievance-portal/internal/service"
)

// CredentialManager is the account surface the handlers need.
type CredentialManager interface {
	RegisterUser(ctx context.Context, in service.RegistrationInput) (*domain.User, error)
	RegisterAdmin(ctx context.Context, in service.AdminRegistrationInput) (*domain.User, error)
	VerifyLogin(ctx context.Context, username, password string) (*domain.User, error)
	IssueAdminCode(ctx context.Context, actor string) (string, error)
	VerifyUser(ctx context.Context, id int64, actor string) (*domain.User, error)
}

// ComplaintLifecycle is the complaint surface the handlers need.
type ComplaintLifecycle interface {
	Submit(ctx context.Context, in service.SubmitInput) (*domain.Complaint, error)
	UpdateStatus(ctx context.Context, id int64, status domain.ComplaintStatus, actor string) (*domain.Complaint, error)
	Get(ctx context.Context, id int64) (*domain.Complaint, error)
	List(ctx context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error)
}

// DashboardProvider computes dashboard aggregates.
type DashboardProvider interface {
	Dashboard(ctx context.Context, filter repository.ComplaintFilter) (*domain.DashboardMetrics, error)
}

var (
	_ CredentialManager  = (*service.CredentialService)(nil)
	_ ComplaintLifecycle = (*service.ComplaintService)(nil)
	_ DashboardProvider  = (*service.MetricsService)(nil)
)
