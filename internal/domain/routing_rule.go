package domain

import "time"

// RoutingRule maps a category to its owning team and SLA budget.
type RoutingRule struct {
	ID                  string
	Category            string
	Keywords            []string
	AssignedTeam        string
	EscalationThreshold int
	SLAHours            int
	CreatedAt           time.Time
}
