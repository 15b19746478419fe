package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// TeamRepository manages persistence for the team directory.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	List(ctx context.Context) ([]domain.Team, error)
}

type teamRepository struct {
	db DBTX
}

// NewTeamRepository constructs repository.
func NewTeamRepository(db DBTX) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	const query = `
        INSERT INTO teams (name, category, description, email)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		team.Name,
		team.Category,
		team.Description,
		team.Email,
	).Scan(&team.ID, &team.CreatedAt)
}

func (r *teamRepository) List(ctx context.Context) ([]domain.Team, error) {
	const query = `
        SELECT id, name, category, description, email, created_at
        FROM teams ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Team{}
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.Category, &team.Description, &team.Email, &team.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, team)
	}
	return result, rows.Err()
}
