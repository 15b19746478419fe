package domain

import "time"

// ChatMessage is one side of a chat turn.
type ChatMessage struct {
	ID        string
	UserID    string
	TicketID  *string
	Message   string
	IsBot     bool
	Intent    *string
	Entities  []string
	CreatedAt time.Time
}
