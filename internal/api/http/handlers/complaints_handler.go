package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/grievance-portal/internal/api/dto"
	"github.com/civicdesk/grievance-portal/internal/auth"
	"github.com/civicdesk/grievance-portal/internal/domain"
	"github.com/civicdesk/grievance-portal/internal/service"
	apperrors "github.com/civicdesk/grievance-portal/pkg/util"
)

// ComplaintsHandler exposes complaint intake and the tabular view.
type ComplaintsHandler struct {
	complaints ComplaintLifecycle
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaints ComplaintLifecycle) *ComplaintsHandler {
	return &ComplaintsHandler{complaints: complaints}
}

// Submit POST /complaints.
func (h *ComplaintsHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	customerID := req.CustomerID
	if principal, ok := auth.PrincipalFromContext(c); ok && customerID == "" {
		customerID = principal.Username()
	}

	complaint, err := h.complaints.Submit(c.UserContext(), service.SubmitInput{
		CustomerID: customerID,
		Text:       req.Text,
		Category:   domain.ComplaintCategory(req.Category),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint)})
}

// List GET /complaints.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	filter, err := parseComplaintFilter(c)
	if err != nil {
		return err
	}
	complaints, err := h.complaints.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ComplaintResponse, 0, len(complaints))
	for i := range complaints {
		items = append(items, dto.NewComplaintResponse(&complaints[i]))
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": dto.PageMeta{
			Page:     filter.Offset/filter.Limit + 1,
			PageSize: filter.Limit,
			Count:    len(items),
		},
	})
}

// Get GET /complaints/:id.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	complaint, err := h.complaints.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint)})
}

// UpdateStatus PATCH /complaints/:id/status.
func (h *ComplaintsHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	principal, _ := auth.PrincipalFromContext(c)

	complaint, err := h.complaints.UpdateStatus(c.UserContext(), id, domain.ComplaintStatus(req.Status), principal.Username())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint)})
}
