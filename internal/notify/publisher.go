// Package notify delivers outbound notifications to brokers.
package notify

//go:generate mockgen -source=publisher.go -destination=mock_publisher.go -package=notify

import (
	"context"
	"time"
)

// Publisher sends a keyed JSON-encodable message to one destination.
type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
	Close() error
}

// Acknowledgment tells the sender of an email that a ticket exists.
type Acknowledgment struct {
	Recipient string    `json:"recipient"`
	TicketID  string    `json:"ticket_id"`
	Reference string    `json:"reference"`
	Subject   string    `json:"subject"`
	SentAt    time.Time `json:"sent_at"`
}

// Discard drops every message. It stands in when no broker is configured.
type Discard struct{}

func (Discard) Publish(context.Context, string, any) error { return nil }
func (Discard) Close() error { return nil }
