package service

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/analytics"
	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

// AnalyticsService computes the fleet report from the live ticket set.
type AnalyticsService struct {
	tickets repository.TicketRepository
	now     func() time.Time
}

// NewAnalyticsService constructs the service. A nil clock means time.Now.
func NewAnalyticsService(tickets repository.TicketRepository, clock func() time.Time) *AnalyticsService {
	if clock == nil {
		clock = time.Now
	}
	return &AnalyticsService{tickets: tickets, now: clock}
}

// Get returns the report. Admin only.
func (s *AnalyticsService) Get(ctx context.Context, actor *domain.User) (*analytics.Report, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthenticated("user must be authenticated")
	}
	if !actor.IsAdmin() {
		return nil, apperrors.NewUnauthorized("admin role required")
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	report := analytics.Compute(tickets, s.now())
	return &report, nil
}
