package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// TicketFilter captures listing parameters. Zero values do not filter; a
// zero Limit returns every match.
type TicketFilter struct {
	UserID   *string
	Status   *domain.TicketStatus
	Source   *domain.TicketSource
	Team     *string
	Priority *domain.TicketPriority
	Limit    int
	Offset   int
}

// Matches reports whether the ticket passes the filter.
func (f TicketFilter) Matches(t *domain.Ticket) bool {
	if f.UserID != nil && t.UserID != *f.UserID {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Source != nil && t.Source != *f.Source {
		return false
	}
	if f.Team != nil && (t.AssignedTeam == nil || *t.AssignedTeam != *f.Team) {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	return true
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// List returns matching tickets newest first.
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, reference, source, user_id, sender_email, subject, description, status, priority,
               category, assigned_team, sentiment_score, sla_deadline, resolution_notes, resolved_at, closed_at,
               created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (reference, source, user_id, sender_email, subject, description, status, priority,
            category, assigned_team, sentiment_score, sla_deadline, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13)
        RETURNING id, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.Reference,
		ticket.Source,
		ticket.UserID,
		ticket.SenderEmail,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.AssignedTeam,
		ticket.SentimentScore,
		ticket.SLADeadline,
		ticket.CreatedAt,
	).Scan(&ticket.ID, &ticket.UpdatedAt)
}

// Update writes the mutable fields. sla_deadline is never rewritten.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, priority=$2, category=$3, assigned_team=$4, resolution_notes=$5,
            resolved_at=$6, closed_at=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	if !validID(ticket.ID) {
		return ErrNotFound
	}
	err := r.db.QueryRow(ctx, query,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.AssignedTeam,
		ticket.ResolutionNotes,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
	return notFound(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		if !validID(*filter.UserID) {
			return []domain.Ticket{}, nil
		}
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Source != nil {
		args = append(args, *filter.Source)
		clauses = append(clauses, fmt.Sprintf("source=$%d", len(args)))
	}
	if filter.Team != nil {
		args = append(args, *filter.Team)
		clauses = append(clauses, fmt.Sprintf("assigned_team=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, id DESC`,
		ticketColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Reference,
		&ticket.Source,
		&ticket.UserID,
		&ticket.SenderEmail,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Category,
		&ticket.AssignedTeam,
		&ticket.SentimentScore,
		&ticket.SLADeadline,
		&ticket.ResolutionNotes,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
