// Package routing resolves the owning team and SLA budget for a category.
package routing

import (
	"sort"
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

const (
	DefaultTeam     = "General IT Support"
	DefaultSLAHours = 24
)

// Route is the outcome of resolving a category.
type Route struct {
	Team     string `json:"team"`
	SLAHours int    `json:"sla_hours"`
}

// Deadline returns the SLA deadline for a ticket taken in at intake.
func (r Route) Deadline(intake time.Time) time.Time {
	return intake.Add(time.Duration(r.SLAHours) * time.Hour)
}

// Resolver looks up routing rules by category. It is immutable after
// construction and safe for concurrent use.
type Resolver struct {
	rules map[string]domain.RoutingRule
}

// NewResolver indexes rules by category. A later rule for the same category
// replaces an earlier one.
func NewResolver(rules []domain.RoutingRule) *Resolver {
	index := make(map[string]domain.RoutingRule, len(rules))
	for _, rule := range rules {
		index[rule.Category] = rule
	}
	return &Resolver{rules: index}
}

// Resolve returns the rule's team and SLA, or the defaults when no rule
// exists for the category.
func (r *Resolver) Resolve(category string) Route {
	if r != nil {
		if rule, ok := r.rules[category]; ok {
			route := Route{Team: rule.AssignedTeam, SLAHours: rule.SLAHours}
			if route.Team == "" {
				route.Team = DefaultTeam
			}
			if route.SLAHours <= 0 {
				route.SLAHours = DefaultSLAHours
			}
			return route
		}
	}
	return Route{Team: DefaultTeam, SLAHours: DefaultSLAHours}
}

// Rules returns a copy of the indexed rules ordered by category.
func (r *Resolver) Rules() []domain.RoutingRule {
	if r == nil {
		return nil
	}
	out := make([]domain.RoutingRule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
