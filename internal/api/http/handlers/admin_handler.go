package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/grievance-portal/internal/api/dto"
	"github.com/civicdesk/grievance-portal/internal/auth"
)

// AdminHandler exposes admin-only account actions.
type AdminHandler struct {
	credentials CredentialManager
}

// NewAdminHandler constructs handler.
func NewAdminHandler(credentials CredentialManager) *AdminHandler {
	return &AdminHandler{credentials: credentials}
}

// IssueCode POST /admin/codes.
func (h *AdminHandler) IssueCode(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	code, err := h.credentials.IssueAdminCode(c.UserContext(), principal.Username())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.AdminCodeResponse{Code: code}})
}

// VerifyUser POST /admin/users/:id/verify.
func (h *AdminHandler) VerifyUser(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	principal, _ := auth.PrincipalFromContext(c)
	user, err := h.credentials.VerifyUser(c.UserContext(), id, principal.Username())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
