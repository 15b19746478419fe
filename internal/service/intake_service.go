package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	"github.com/spec-kit/helpdesk-triage/internal/triage"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

// IntakeService turns inbound email and chat text into tickets and replies.
type IntakeService struct {
	store   repository.Store
	tickets *TicketService
	now     func() time.Time
}

// NewIntakeService constructs the service on top of the ticket lifecycle.
func NewIntakeService(store repository.Store, tickets *TicketService) *IntakeService {
	return &IntakeService{store: store, tickets: tickets, now: tickets.now}
}

// EmailInput is one inbound email.
type EmailInput struct {
	SenderEmail string
	SenderName  string
	Subject     string
	Body        string
}

// EmailResult carries the created ticket and the analysis that shaped it.
type EmailResult struct {
	Ticket   *domain.Ticket
	Analysis triage.Analysis
}

// ChatReply is the bot's answer to one user turn.
type ChatReply struct {
	Intent         string
	Response       string
	Category       string
	Priority       domain.TicketPriority
	RequiresTicket bool
}

// SubmitEmail analyses an inbound email and files it as a ticket owned by
// the sender, creating the sender's account on first contact.
func (s *IntakeService) SubmitEmail(ctx context.Context, input EmailInput) (*EmailResult, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(input.SenderEmail))
	if err != nil {
		return nil, apperrors.NewValidationError("invalid sender email", map[string]any{"sender_email": input.SenderEmail})
	}
	email := strings.ToLower(addr.Address)
	name := strings.TrimSpace(input.SenderName)
	if name == "" {
		name = addr.Name
	}

	sender, err := s.findOrCreateUser(ctx, email, name)
	if err != nil {
		return nil, err
	}

	analysis := triage.Analyze(input.Subject, input.Body)
	sentiment := analysis.Sentiment
	ticket, err := s.tickets.Create(ctx, sender, TicketCreateInput{
		Source:         domain.TicketSourceEmail,
		Subject:        input.Subject,
		Description:    input.Body,
		Category:       analysis.Category,
		Priority:       analysis.Priority,
		SenderEmail:    &email,
		SentimentScore: &sentiment,
		HistoryNote:    "Ticket created from email: " + email,
	})
	if err != nil {
		return nil, err
	}
	return &EmailResult{Ticket: ticket, Analysis: analysis}, nil
}

// SubmitChat classifies one chat turn and records the user's message and
// the bot's reply together. No ticket is created here; RequiresTicket tells
// the caller whether to offer one.
func (s *IntakeService) SubmitChat(ctx context.Context, actor *domain.User, message string, ticketID *string) (*ChatReply, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthenticated("user must be authenticated")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message is required", map[string]any{"message": "required"})
	}
	if ticketID != nil {
		if _, err := s.tickets.GetTicketByID(ctx, actor, *ticketID); err != nil {
			return nil, err
		}
	}

	intent := triage.ClassifyIntent(message)
	entities := triage.Entities(message)
	name := intent.Name
	now := s.now()

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.ChatMessages().Create(ctx, &domain.ChatMessage{
			UserID:    actor.ID,
			TicketID:  ticketID,
			Message:   message,
			Intent:    &name,
			Entities:  entities,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		return tx.ChatMessages().Create(ctx, &domain.ChatMessage{
			UserID:    actor.ID,
			TicketID:  ticketID,
			Message:   intent.Response,
			IsBot:     true,
			Intent:    &name,
			Entities:  []string{},
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &ChatReply{
		Intent:         intent.Name,
		Response:       intent.Response,
		Category:       intent.Category,
		Priority:       intent.Priority,
		RequiresTicket: !triage.IsSelfServiceable(intent.Name),
	}, nil
}

// ChatHistory returns a conversation oldest first: the messages attached to
// ticketID when given, otherwise all of the actor's messages.
func (s *IntakeService) ChatHistory(ctx context.Context, actor *domain.User, ticketID *string) ([]domain.ChatMessage, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthenticated("user must be authenticated")
	}
	if ticketID == nil {
		return s.store.ChatMessages().ListByUser(ctx, actor.ID)
	}
	if _, err := s.tickets.GetTicketByID(ctx, actor, *ticketID); err != nil {
		return nil, err
	}
	return s.store.ChatMessages().ListByTicket(ctx, *ticketID)
}

func (s *IntakeService) findOrCreateUser(ctx context.Context, email, name string) (*domain.User, error) {
	users := s.store.Users()
	user, err := users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.MapError(err)
	}

	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	user = &domain.User{Email: email, Name: name, Role: domain.UserRoleUser}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// a concurrent intake created the same sender
			return users.GetByEmail(ctx, email)
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
