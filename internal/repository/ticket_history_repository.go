package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// TicketHistoryRepository stores audit entries. Entries are never updated
// or deleted.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	// ListByTicket returns entries newest first.
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	db DBTX
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(db DBTX) TicketHistoryRepository {
	return &ticketHistoryRepository{db: db}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, user_id, action, old_value, new_value, notes, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		history.TicketID,
		history.UserID,
		history.Action,
		history.OldValue,
		history.NewValue,
		history.Notes,
		history.CreatedAt,
	).Scan(&history.ID)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	if !validID(ticketID) {
		return []domain.TicketHistory{}, nil
	}
	const query = `
        SELECT id, ticket_id, user_id, action, old_value, new_value, notes, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY seq DESC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TicketHistory{}
	for rows.Next() {
		var history domain.TicketHistory
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.UserID,
			&history.Action,
			&history.OldValue,
			&history.NewValue,
			&history.Notes,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
