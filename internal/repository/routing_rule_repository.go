package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// RoutingRuleRepository stores the category routing table.
type RoutingRuleRepository interface {
	Create(ctx context.Context, rule *domain.RoutingRule) error
	List(ctx context.Context) ([]domain.RoutingRule, error)
}

type routingRuleRepository struct {
	db DBTX
}

// NewRoutingRuleRepository builds repository.
func NewRoutingRuleRepository(db DBTX) RoutingRuleRepository {
	return &routingRuleRepository{db: db}
}

func (r *routingRuleRepository) Create(ctx context.Context, rule *domain.RoutingRule) error {
	const query = `
        INSERT INTO routing_rules (category, keywords, assigned_team, escalation_threshold, sla_hours)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	keywords := rule.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	err := r.db.QueryRow(ctx, query,
		rule.Category,
		keywords,
		rule.AssignedTeam,
		rule.EscalationThreshold,
		rule.SLAHours,
	).Scan(&rule.ID, &rule.CreatedAt)
	return duplicate(err)
}

func (r *routingRuleRepository) List(ctx context.Context) ([]domain.RoutingRule, error) {
	const query = `
        SELECT id, category, keywords, assigned_team, escalation_threshold, sla_hours, created_at
        FROM routing_rules ORDER BY created_at ASC, category ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.RoutingRule{}
	for rows.Next() {
		var rule domain.RoutingRule
		if err := rows.Scan(
			&rule.ID,
			&rule.Category,
			&rule.Keywords,
			&rule.AssignedTeam,
			&rule.EscalationThreshold,
			&rule.SLAHours,
			&rule.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	return result, rows.Err()
}
