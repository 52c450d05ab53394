package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/grievance-portal/internal/api/dto"
	"github.com/civicdesk/grievance-portal/internal/service"
	apperrors "github.com/civicdesk/grievance-portal/pkg/util"
)

// UsersHandler exposes registration and login endpoints.
type UsersHandler struct {
	credentials CredentialManager
}

// NewUsersHandler constructs handler.
func NewUsersHandler(credentials CredentialManager) *UsersHandler {
	return &UsersHandler{credentials: credentials}
}

// Register handles POST /auth/users/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.credentials.RegisterUser(c.UserContext(), service.RegistrationInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// RegisterAdmin handles POST /auth/admins/register.
func (h *UsersHandler) RegisterAdmin(c *fiber.Ctx) error {
	var req dto.AdminRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.credentials.RegisterAdmin(c.UserContext(), service.AdminRegistrationInput{
		Code: req.Code,
		RegistrationInput: service.RegistrationInput{
			Username:   req.Username,
			Password:   req.Password,
			Email:      req.Email,
			FullName:   req.FullName,
			Department: req.Department,
		},
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Login handles POST /auth/login. It only checks the credentials; protected
// routes expect them again on every request.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.credentials.VerifyLogin(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	if !user.Verified {
		return apperrors.NewForbidden("account awaiting verification")
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
