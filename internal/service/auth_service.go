package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicdesk/grievance-portal/internal/auth"
	"github.com/civicdesk/grievance-portal/internal/config"
	"github.com/civicdesk/grievance-portal/internal/domain"
	"github.com/civicdesk/grievance-portal/internal/events"
	"github.com/civicdesk/grievance-portal/internal/repository"
	apperrors "github.com/civicdesk/grievance-portal/pkg/util"
)

// CredentialService wraps the credential store with validation, hashing and
// error mapping.
type CredentialService struct {
	store      repository.CredentialStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// CredentialDependencies bundles collaborators for the credential service.
type CredentialDependencies struct {
	Store      repository.CredentialStore
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewCredentialService builds the service.
func NewCredentialService(cfg config.AuthConfig, deps CredentialDependencies) *CredentialService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
	}
}

// RegistrationInput is the profile supplied at sign-up.
type RegistrationInput struct {
	Username   string `json:"username" validate:"notblank,max=64"`
	Password   string `json:"password" validate:"required,maxbytes=72"`
	Email      string `json:"email" validate:"required,email,max=254"`
	FullName   string `json:"full_name" validate:"notblank,max=128"`
	Department string `json:"department"`
}

// AdminRegistrationInput adds the invitation code to a profile.
type AdminRegistrationInput struct {
	Code string `json:"code" validate:"notblank"`
	RegistrationInput
}

func (in *RegistrationInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Department = strings.TrimSpace(in.Department)
}

// RegisterUser creates an unverified complainant account.
func (s *CredentialService) RegisterUser(ctx context.Context, in RegistrationInput) (*domain.User, error) {
	in.normalize()
	in.Department = ""
	if err := validateInput(in); err != nil {
		return nil, err
	}
	user, err := s.newUser(in)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.RegisterUser(ctx, user, false)
	if err != nil {
		return nil, storeError("user", err)
	}
	if !ok {
		return nil, usernameTaken(user.Username)
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	publish(ctx, s.dispatcher, s.logger, userRegistered(user))
	return user, nil
}

// RegisterAdmin redeems an invitation code and creates a verified admin in
// one step. A rejected registration leaves the code unused.
func (s *CredentialService) RegisterAdmin(ctx context.Context, in AdminRegistrationInput) (*domain.User, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := validateField("department", in.Department, "required,department"); err != nil {
		return nil, err
	}
	user, err := s.newUser(in.RegistrationInput)
	if err != nil {
		return nil, err
	}

	result, err := s.store.RegisterAdmin(ctx, in.Code, user)
	if err != nil {
		return nil, storeError("admin code", err)
	}
	switch result {
	case repository.AdminCodeRejected:
		return nil, apperrors.NewValidationError("invalid admin code", map[string]any{
			"code": "Code is unknown or has already been used",
		})
	case repository.AdminUsernameTaken:
		return nil, usernameTaken(user.Username)
	}

	s.logger.Info("admin registered",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("department", user.Department))
	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventAdminCodeRedeemed, user.Username, user.Username, nil))
	publish(ctx, s.dispatcher, s.logger, userRegistered(user))
	return user, nil
}

// VerifyLogin checks a username and password pair. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *CredentialService) VerifyLogin(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	user, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, storeError("user", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return user, nil
}

// IssueAdminCode mints a fresh invitation code on behalf of actor.
func (s *CredentialService) IssueAdminCode(ctx context.Context, actor string) (string, error) {
	code, err := s.store.IssueAdminCode(ctx)
	if err != nil {
		return "", storeError("admin code", err)
	}
	s.logger.Info("admin code issued", zap.String("actor", actor))
	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventAdminCodeIssued, "", actor, nil))
	return code, nil
}

// RedeemAdminCode marks code used. It reports false for unknown or already
// used codes.
func (s *CredentialService) RedeemAdminCode(ctx context.Context, code string) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, nil
	}
	ok, err := s.store.RedeemAdminCode(ctx, code)
	if err != nil {
		return false, storeError("admin code", err)
	}
	if ok {
		publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventAdminCodeRedeemed, "", "", nil))
	}
	return ok, nil
}

// VerifyUser flags a complainant account as verified.
func (s *CredentialService) VerifyUser(ctx context.Context, id int64, actor string) (*domain.User, error) {
	if err := s.store.SetVerified(ctx, id, true); err != nil {
		return nil, storeError("user", err)
	}
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("user", err)
	}
	s.logger.Info("user verified", zap.Int64("user_id", id), zap.String("actor", actor))
	return user, nil
}

func (s *CredentialService) newUser(in RegistrationInput) (*domain.User, error) {
	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperrors.NewValidationError("request validation failed", map[string]any{
			"password": "Must be at most 72 bytes",
		})
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &domain.User{
		Username:     in.Username,
		PasswordHash: hash,
		Email:        in.Email,
		FullName:     in.FullName,
		Department:   in.Department,
	}, nil
}

func usernameTaken(username string) error {
	return apperrors.NewConflict("username already exists", map[string]any{"username": username})
}

func userRegistered(user *domain.User) events.Event {
	return events.NewEvent(events.EventUserRegistered, user.Username, user.Username, events.UserRegisteredPayload{
		UserID:     user.ID,
		Role:       user.Role,
		Department: user.Department,
	})
}
