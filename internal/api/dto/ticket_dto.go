package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// CreateTicketRequest payload for POST /tickets.
type CreateTicketRequest struct {
	Source      domain.TicketSource   `json:"source"`
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	SenderEmail *string               `json:"sender_email"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
	Notes  string              `json:"notes"`
}

// UpdateAssignmentRequest payload.
type UpdateAssignmentRequest struct {
	AssignedTeam string `json:"assigned_team"`
	Notes        string `json:"notes"`
}

// ResolutionNotesRequest payload.
type ResolutionNotesRequest struct {
	Notes string `json:"notes"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID              string                `json:"id"`
	Reference       string                `json:"reference"`
	Source          domain.TicketSource   `json:"source"`
	UserID          string                `json:"user_id"`
	SenderEmail     *string               `json:"sender_email,omitempty"`
	Subject         string                `json:"subject"`
	Description     string                `json:"description"`
	Status          domain.TicketStatus   `json:"status"`
	Priority        domain.TicketPriority `json:"priority"`
	Category        string                `json:"category"`
	AssignedTeam    *string               `json:"assigned_team"`
	SentimentScore  *float64              `json:"sentiment_score,omitempty"`
	SLADeadline     *time.Time            `json:"sla_deadline"`
	ResolutionNotes *string               `json:"resolution_notes,omitempty"`
	ResolvedAt      *time.Time            `json:"resolved_at"`
	ClosedAt        *time.Time            `json:"closed_at"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// TicketHistoryResponse is one history entry with the actor's name.
type TicketHistoryResponse struct {
	ID        string               `json:"id"`
	TicketID  string               `json:"ticket_id"`
	UserID    string               `json:"user_id"`
	UserName  string               `json:"user_name"`
	Action    domain.HistoryAction `json:"action"`
	OldValue  *string              `json:"old_value"`
	NewValue  *string              `json:"new_value"`
	Notes     *string              `json:"notes"`
	CreatedAt time.Time            `json:"created_at"`
}

// RoutingRuleResponse describes one routing rule.
type RoutingRuleResponse struct {
	Category            string   `json:"category"`
	Keywords            []string `json:"keywords"`
	AssignedTeam        string   `json:"assigned_team"`
	EscalationThreshold int      `json:"escalation_threshold"`
	SLAHours            int      `json:"sla_hours"`
}

// TeamResponse describes one team.
type TeamResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Email       string `json:"email"`
}

// ToTicketResponse converts a domain ticket.
func ToTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:              t.ID,
		Reference:       t.Reference,
		Source:          t.Source,
		UserID:          t.UserID,
		SenderEmail:     t.SenderEmail,
		Subject:         t.Subject,
		Description:     t.Description,
		Status:          t.Status,
		Priority:        t.Priority,
		Category:        t.Category,
		AssignedTeam:    t.AssignedTeam,
		SentimentScore:  t.SentimentScore,
		SLADeadline:     t.SLADeadline,
		ResolutionNotes: t.ResolutionNotes,
		ResolvedAt:      t.ResolvedAt,
		ClosedAt:        t.ClosedAt,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// ToTicketResponses converts a slice, never returning nil.
func ToTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, ToTicketResponse(&tickets[i]))
	}
	return out
}

// ToHistoryResponses converts annotated history entries.
func ToHistoryResponses(entries []domain.TicketHistoryView) []TicketHistoryResponse {
	out := make([]TicketHistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, TicketHistoryResponse{
			ID:        e.ID,
			TicketID:  e.TicketID,
			UserID:    e.UserID,
			UserName:  e.UserName,
			Action:    e.Action,
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
			Notes:     e.Notes,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

// ToRoutingRuleResponses converts routing rules.
func ToRoutingRuleResponses(rules []domain.RoutingRule) []RoutingRuleResponse {
	out := make([]RoutingRuleResponse, 0, len(rules))
	for _, r := range rules {
		keywords := r.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		out = append(out, RoutingRuleResponse{
			Category:            r.Category,
			Keywords:            keywords,
			AssignedTeam:        r.AssignedTeam,
			EscalationThreshold: r.EscalationThreshold,
			SLAHours:            r.SLAHours,
		})
	}
	return out
}

// ToTeamResponses converts teams.
func ToTeamResponses(teams []domain.Team) []TeamResponse {
	out := make([]TeamResponse, 0, len(teams))
	for _, t := range teams {
		out = append(out, TeamResponse{ID: t.ID, Name: t.Name, Category: t.Category, Description: t.Description, Email: t.Email})
	}
	return out
}
