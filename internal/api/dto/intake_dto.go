package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/triage"
)

// EmailIntakeRequest is an inbound email handed over by the mail gateway.
type EmailIntakeRequest struct {
	SenderEmail string `json:"sender_email"`
	SenderName  string `json:"sender_name"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// AnalysisResponse exposes the triage result for an email.
type AnalysisResponse struct {
	Sentiment float64               `json:"sentiment"`
	Category  string                `json:"category"`
	Priority  domain.TicketPriority `json:"priority"`
	Entities  []string              `json:"entities"`
}

// EmailIntakeResponse carries the filed ticket.
type EmailIntakeResponse struct {
	Ticket   TicketResponse   `json:"ticket"`
	Analysis AnalysisResponse `json:"analysis"`
}

// ChatMessageRequest is one user chat turn.
type ChatMessageRequest struct {
	Message  string  `json:"message"`
	TicketID *string `json:"ticket_id"`
}

// ChatReplyResponse is the bot's answer.
type ChatReplyResponse struct {
	Intent         string                `json:"intent"`
	Response       string                `json:"response"`
	Category       string                `json:"category"`
	Priority       domain.TicketPriority `json:"priority"`
	RequiresTicket bool                  `json:"requires_ticket"`
}

// ChatMessageResponse is a stored chat message.
type ChatMessageResponse struct {
	ID        string    `json:"id"`
	TicketID  *string   `json:"ticket_id"`
	Message   string    `json:"message"`
	IsBot     bool      `json:"is_bot"`
	Intent    *string   `json:"intent,omitempty"`
	Entities  []string  `json:"entities"`
	CreatedAt time.Time `json:"created_at"`
}

// ToAnalysisResponse converts a triage analysis.
func ToAnalysisResponse(a triage.Analysis) AnalysisResponse {
	entities := a.Entities
	if entities == nil {
		entities = []string{}
	}
	return AnalysisResponse{Sentiment: a.Sentiment, Category: a.Category, Priority: a.Priority, Entities: entities}
}

// ToChatMessageResponses converts stored chat messages.
func ToChatMessageResponses(msgs []domain.ChatMessage) []ChatMessageResponse {
	out := make([]ChatMessageResponse, 0, len(msgs))
	for _, m := range msgs {
		entities := m.Entities
		if entities == nil {
			entities = []string{}
		}
		out = append(out, ChatMessageResponse{
			ID:        m.ID,
			TicketID:  m.TicketID,
			Message:   m.Message,
			IsBot:     m.IsBot,
			Intent:    m.Intent,
			Entities:  entities,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}
