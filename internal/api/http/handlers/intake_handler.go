package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-triage/internal/api/dto"
	"github.com/spec-kit/helpdesk-triage/internal/auth"
	"github.com/spec-kit/helpdesk-triage/internal/service"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

// IntakeHandler accepts inbound email and chat.
type IntakeHandler struct {
	intake *service.IntakeService
}

// NewIntakeHandler constructs handler.
func NewIntakeHandler(intake *service.IntakeService) *IntakeHandler {
	return &IntakeHandler{intake: intake}
}

// SubmitEmail POST /intake/email.
func (h *IntakeHandler) SubmitEmail(c *fiber.Ctx) error {
	var req dto.EmailIntakeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.intake.SubmitEmail(c.UserContext(), service.EmailInput{
		SenderEmail: req.SenderEmail,
		SenderName:  req.SenderName,
		Subject:     req.Subject,
		Body:        req.Body,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.EmailIntakeResponse{
		Ticket:   dto.ToTicketResponse(result.Ticket),
		Analysis: dto.ToAnalysisResponse(result.Analysis),
	}})
}

// SubmitChat POST /chat/messages.
func (h *IntakeHandler) SubmitChat(c *fiber.Ctx) error {
	var req dto.ChatMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	reply, err := h.intake.SubmitChat(c.UserContext(), auth.CurrentUser(c), req.Message, req.TicketID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ChatReplyResponse{
		Intent:         reply.Intent,
		Response:       reply.Response,
		Category:       reply.Category,
		Priority:       reply.Priority,
		RequiresTicket: reply.RequiresTicket,
	}})
}

// ChatHistory GET /chat/messages.
func (h *IntakeHandler) ChatHistory(c *fiber.Ctx) error {
	var ticketID *string
	if v := c.Query("ticket_id"); v != "" {
		ticketID = &v
	}
	msgs, err := h.intake.ChatHistory(c.UserContext(), auth.CurrentUser(c), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToChatMessageResponses(msgs)})
}
