// Package analytics computes fleet-wide ticket metrics on demand.
package analytics

import (
	"math"
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// Report is the aggregate view over every ticket.
type Report struct {
	TotalTickets       int                           `json:"total_tickets"`
	StatusCounts       map[domain.TicketStatus]int   `json:"status_counts"`
	AvgResolutionHours int64                         `json:"avg_resolution_hours"`
	CategoryBreakdown  map[string]int                `json:"category_breakdown"`
	PriorityBreakdown  map[domain.TicketPriority]int `json:"priority_breakdown"`
	SourceBreakdown    map[domain.TicketSource]int   `json:"source_breakdown"`
	TeamWorkload       map[string]int                `json:"team_workload"`
	SLAComplianceRate  int64                         `json:"sla_compliance_rate"`
	AvgSentiment       float64                       `json:"avg_sentiment"`
}

// Compute aggregates tickets as of now.
func Compute(tickets []domain.Ticket, now time.Time) Report {
	report := Report{
		TotalTickets:      len(tickets),
		StatusCounts:      make(map[domain.TicketStatus]int, len(domain.TicketStatuses)),
		CategoryBreakdown: map[string]int{},
		PriorityBreakdown: map[domain.TicketPriority]int{},
		SourceBreakdown:   map[domain.TicketSource]int{},
		TeamWorkload:      map[string]int{},
	}
	for _, status := range domain.TicketStatuses {
		report.StatusCounts[status] = 0
	}

	var (
		resolutionTotal time.Duration
		resolvedCount   int
		slaTotal        int
		slaMet          int
		sentimentTotal  float64
		sentimentCount  int
	)

	for i := range tickets {
		t := &tickets[i]
		report.StatusCounts[t.Status]++
		report.CategoryBreakdown[t.Category]++
		report.PriorityBreakdown[t.Priority]++
		report.SourceBreakdown[t.Source]++

		if t.ResolvedAt != nil && !t.CreatedAt.IsZero() {
			resolutionTotal += t.ResolvedAt.Sub(t.CreatedAt)
			resolvedCount++
		}
		if !t.Status.Done() && t.AssignedTeam != nil {
			report.TeamWorkload[*t.AssignedTeam]++
		}
		if t.SLADeadline != nil {
			slaTotal++
			if MeetsSLA(t, now) {
				slaMet++
			}
		}
		if t.SentimentScore != nil {
			sentimentTotal += *t.SentimentScore
			sentimentCount++
		}
	}

	if resolvedCount > 0 {
		avg := resolutionTotal / time.Duration(resolvedCount)
		report.AvgResolutionHours = int64(math.Round(avg.Hours()))
	}
	report.SLAComplianceRate = 100
	if slaTotal > 0 {
		report.SLAComplianceRate = int64(math.Round(float64(slaMet) / float64(slaTotal) * 100))
	}
	if sentimentCount > 0 {
		report.AvgSentiment = math.Round(sentimentTotal/float64(sentimentCount)*100) / 100
	}
	return report
}

// MeetsSLA reports whether a ticket was, or still is, within its deadline.
// Finished tickets compare their resolution (or closing) time; open ones
// compare now. Tickets without a deadline always comply.
func MeetsSLA(t *domain.Ticket, now time.Time) bool {
	if t.SLADeadline == nil {
		return true
	}
	at := now
	if t.Status.Done() {
		switch {
		case t.ResolvedAt != nil:
			at = *t.ResolvedAt
		case t.ClosedAt != nil:
			at = *t.ClosedAt
		}
	}
	return !at.After(*t.SLADeadline)
}
