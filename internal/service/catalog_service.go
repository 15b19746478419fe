package service

import (
	"context"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	"github.com/spec-kit/helpdesk-triage/internal/routing"
)

// CatalogService exposes the routing table and the team directory.
type CatalogService struct {
	resolver *routing.Resolver
	teams    repository.TeamRepository
}

// NewCatalogService constructs the service.
func NewCatalogService(resolver *routing.Resolver, teams repository.TeamRepository) *CatalogService {
	return &CatalogService{resolver: resolver, teams: teams}
}

// RoutingRules returns the rules the resolver was built from.
func (s *CatalogService) RoutingRules() []domain.RoutingRule {
	return s.resolver.Rules()
}

// Teams lists every team by name.
func (s *CatalogService) Teams(ctx context.Context) ([]domain.Team, error) {
	return s.teams.List(ctx)
}
