package domain

import "time"

// HistoryAction tags what happened to a ticket.
type HistoryAction string

const (
	HistoryActionCreated       HistoryAction = "created"
	HistoryActionStatusChanged HistoryAction = "status_changed"
	HistoryActionReassigned    HistoryAction = "reassigned"
	HistoryActionNotesAdded    HistoryAction = "notes_added"
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID        string
	TicketID  string
	UserID    string
	Action    HistoryAction
	OldValue  *string
	NewValue  *string
	Notes     *string
	CreatedAt time.Time
}

// TicketHistoryView is a history entry annotated with the actor's name.
type TicketHistoryView struct {
	TicketHistory
	UserName string
}
