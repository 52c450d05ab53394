package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/grievance-portal/internal/api/dto"
	"github.com/civicdesk/grievance-portal/internal/service"
)

// DashboardHandler serves chart aggregates.
type DashboardHandler struct {
	metrics DashboardProvider
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(metrics DashboardProvider) *DashboardHandler {
	return &DashboardHandler{metrics: metrics}
}

// Dashboard GET /dashboard. An empty selection answers 200 with no_data set.
func (h *DashboardHandler) Dashboard(c *fiber.Ctx) error {
	filter, err := parseComplaintFilter(c)
	if err != nil {
		return err
	}
	metrics, err := h.metrics.Dashboard(c.UserContext(), filter)
	if errors.Is(err, service.ErrNoData) {
		return c.JSON(fiber.Map{"data": dto.NewDashboardResponse(nil)})
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDashboardResponse(metrics)})
}
