package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-triage/internal/api/dto"
	"github.com/spec-kit/helpdesk-triage/internal/auth"
	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	"github.com/spec-kit/helpdesk-triage/internal/service"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

// AdminHandler serves the administrator views.
type AdminHandler struct {
	tickets   *service.TicketService
	analytics *service.AnalyticsService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(tickets *service.TicketService, analytics *service.AnalyticsService) *AdminHandler {
	return &AdminHandler{tickets: tickets, analytics: analytics}
}

// ListTickets GET /admin/tickets.
func (h *AdminHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListAllTickets(c.UserContext(), auth.CurrentUser(c), parseTicketFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToTicketResponses(tickets)})
}

// UpdateAssignment PATCH /admin/tickets/:id/assignment.
func (h *AdminHandler) UpdateAssignment(c *fiber.Ctx) error {
	var req dto.UpdateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdateAssignment(c.UserContext(), auth.CurrentUser(c), c.Params("id"), req.AssignedTeam, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToTicketResponse(ticket)})
}

// Analytics GET /admin/analytics.
func (h *AdminHandler) Analytics(c *fiber.Ctx) error {
	report, err := h.analytics.Get(c.UserContext(), auth.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

func parseTicketFilter(c *fiber.Ctx) repository.TicketFilter {
	var filter repository.TicketFilter
	if v := c.Query("status"); v != "" {
		status := domain.TicketStatus(v)
		filter.Status = &status
	}
	if v := c.Query("source"); v != "" {
		source := domain.TicketSource(v)
		filter.Source = &source
	}
	if v := c.Query("team"); v != "" {
		filter.Team = &v
	}
	if v := c.Query("priority"); v != "" {
		priority := domain.TicketPriority(v)
		filter.Priority = &priority
	}
	filter.Limit = c.QueryInt("limit", 0)
	filter.Offset = c.QueryInt("offset", 0)
	return filter
}
