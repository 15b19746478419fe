package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusAssigned   TicketStatus = "assigned"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketStatuses lists every status in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid reports whether the status is known.
func (s TicketStatus) Valid() bool {
	for _, known := range TicketStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Done reports whether the ticket no longer needs work.
func (s TicketStatus) Done() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// Valid reports whether the priority is known.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// TicketSource identifies the intake channel.
type TicketSource string

const (
	TicketSourceChat   TicketSource = "chat"
	TicketSourceEmail  TicketSource = "email"
	TicketSourceGLPI   TicketSource = "glpi"
	TicketSourceSolman TicketSource = "solman"
)

// Valid reports whether the source is known.
func (s TicketSource) Valid() bool {
	switch s {
	case TicketSourceChat, TicketSourceEmail, TicketSourceGLPI, TicketSourceSolman:
		return true
	}
	return false
}

// Ticket categories produced by triage.
const (
	CategoryHardware = "Hardware Issues"
	CategoryNetwork  = "Network Connectivity"
	CategoryAccess   = "Access Management"
	CategorySoftware = "Software/Application Support"
	CategoryEmail    = "Email/Communication Tools"
	CategoryOther    = "Other"
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID              string
	Reference       string
	Source          TicketSource
	UserID          string
	SenderEmail     *string
	Subject         string
	Description     string
	Status          TicketStatus
	Priority        TicketPriority
	Category        string
	AssignedTeam    *string
	SentimentScore  *float64
	SLADeadline     *time.Time
	ResolutionNotes *string
	ResolvedAt      *time.Time
	ClosedAt        *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ApplyStatus overwrites the status and keeps ResolvedAt/ClosedAt consistent
// with it. Any status may replace any other.
func (t *Ticket) ApplyStatus(status TicketStatus, now time.Time) {
	t.Status = status
	switch status {
	case TicketStatusResolved:
		t.ResolvedAt = &now
		t.ClosedAt = nil
	case TicketStatusClosed:
		if t.ResolvedAt == nil {
			t.ResolvedAt = &now
		}
		t.ClosedAt = &now
	default:
		t.ResolvedAt = nil
		t.ClosedAt = nil
	}
}
