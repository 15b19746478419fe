package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// ChatMessageRepository persists chat turns.
type ChatMessageRepository interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
	// ListByUser and ListByTicket return messages oldest first.
	ListByUser(ctx context.Context, userID string) ([]domain.ChatMessage, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.ChatMessage, error)
}

type chatMessageRepository struct {
	db DBTX
}

// NewChatMessageRepository builds repository.
func NewChatMessageRepository(db DBTX) ChatMessageRepository {
	return &chatMessageRepository{db: db}
}

func (r *chatMessageRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	const query = `
        INSERT INTO chat_messages (user_id, ticket_id, message, is_bot, intent, entities, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	entities := msg.Entities
	if entities == nil {
		entities = []string{}
	}
	return r.db.QueryRow(ctx, query,
		msg.UserID,
		msg.TicketID,
		msg.Message,
		msg.IsBot,
		msg.Intent,
		entities,
		msg.CreatedAt,
	).Scan(&msg.ID)
}

func (r *chatMessageRepository) ListByUser(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	if !validID(userID) {
		return []domain.ChatMessage{}, nil
	}
	const query = `
        SELECT id, user_id, ticket_id, message, is_bot, intent, entities, created_at
        FROM chat_messages WHERE user_id=$1 ORDER BY seq ASC`
	return r.list(ctx, query, userID)
}

func (r *chatMessageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.ChatMessage, error) {
	if !validID(ticketID) {
		return []domain.ChatMessage{}, nil
	}
	const query = `
        SELECT id, user_id, ticket_id, message, is_bot, intent, entities, created_at
        FROM chat_messages WHERE ticket_id=$1 ORDER BY seq ASC`
	return r.list(ctx, query, ticketID)
}

func (r *chatMessageRepository) list(ctx context.Context, query string, arg any) ([]domain.ChatMessage, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.ChatMessage{}
	for rows.Next() {
		var msg domain.ChatMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.UserID,
			&msg.TicketID,
			&msg.Message,
			&msg.IsBot,
			&msg.Intent,
			&msg.Entities,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
