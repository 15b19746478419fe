package events

import (
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketReassigned    EventType = "ticket_reassigned"
	EventTicketNotesAdded    EventType = "ticket_notes_added"
)

// AllTicketEvents lists every ticket lifecycle event type.
var AllTicketEvents = []EventType{
	EventTicketCreated,
	EventTicketStatusChanged,
	EventTicketReassigned,
	EventTicketNotesAdded,
}

// Actor identifies who caused an event.
type Actor struct {
	UserID string          `json:"user_id"`
	Role   domain.UserRole `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Reference    string                `json:"reference"`
	Source       domain.TicketSource   `json:"source"`
	Subject      string                `json:"subject"`
	Category     string                `json:"category"`
	Priority     domain.TicketPriority `json:"priority"`
	AssignedTeam *string               `json:"assigned_team,omitempty"`
	SLADeadline  *time.Time            `json:"sla_deadline,omitempty"`
	SenderEmail  *string               `json:"sender_email,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Notes     string              `json:"notes,omitempty"`
}

// TicketReassignedPayload payload.
type TicketReassignedPayload struct {
	OldTeam *string `json:"old_team,omitempty"`
	NewTeam string  `json:"new_team"`
	Notes   string  `json:"notes,omitempty"`
}

// TicketNotesAddedPayload payload.
type TicketNotesAddedPayload struct {
	NotesPreview string `json:"notes_preview"`
}
