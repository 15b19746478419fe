package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/events"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	"github.com/spec-kit/helpdesk-triage/internal/routing"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

// TicketService owns the ticket lifecycle: creation, status, assignment and
// resolution notes. Every mutation and its history entry commit together.
type TicketService struct {
	store      repository.Store
	resolver   *routing.Resolver
	ledger     *HistoryLedger
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Resolver   *routing.Resolver
	Ledger     *HistoryLedger
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Source      domain.TicketSource
	Subject     string
	Description string
	Category    string
	Priority    domain.TicketPriority
	// SenderEmail defaults to the acting user's email.
	SenderEmail    *string
	SentimentScore *float64
	// HistoryNote overrides the note on the "created" history entry.
	HistoryNote string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		store:      deps.Store,
		resolver:   deps.Resolver,
		ledger:     deps.Ledger,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clock,
	}
}

// Create routes and inserts a new open ticket on behalf of actor.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthenticated("user must be authenticated")
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = domain.CategoryOther
	}

	now := s.now()
	route := s.resolver.Resolve(category)
	deadline := route.Deadline(now)
	team := route.Team

	senderEmail := input.SenderEmail
	if senderEmail == nil && actor.Email != "" {
		email := actor.Email
		senderEmail = &email
	}

	ticket := &domain.Ticket{
		Reference:      generateTicketKey(),
		Source:         input.Source,
		UserID:         actor.ID,
		SenderEmail:    senderEmail,
		Subject:        strings.TrimSpace(input.Subject),
		Description:    strings.TrimSpace(input.Description),
		Status:         domain.TicketStatusOpen,
		Priority:       input.Priority,
		Category:       category,
		AssignedTeam:   &team,
		SentimentScore: input.SentimentScore,
		SLADeadline:    &deadline,
		CreatedAt:      now,
	}

	note := input.HistoryNote
	if note == "" {
		note = "Ticket created via " + string(input.Source)
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			return err
		}
		return s.ledger.Append(ctx, tx, &domain.TicketHistory{
			TicketID:  ticket.ID,
			UserID:    actor.ID,
			Action:    domain.HistoryActionCreated,
			NewValue:  stringPtr(string(domain.TicketStatusOpen)),
			Notes:     &note,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorOf(actor),
		Payload: events.TicketCreatedPayload{
			Reference:    ticket.Reference,
			Source:       ticket.Source,
			Subject:      ticket.Subject,
			Category:     ticket.Category,
			Priority:     ticket.Priority,
			AssignedTeam: ticket.AssignedTeam,
			SLADeadline:  ticket.SLADeadline,
			SenderEmail:  ticket.SenderEmail,
		},
	})
	return ticket, nil
}

// UpdateStatus overwrites the ticket status. Any authenticated user may
// move a ticket to any status.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, ticketID string, status domain.TicketStatus, notes string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthenticated("user must be authenticated")
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}

	var (
		ticket    *domain.Ticket
		oldStatus domain.TicketStatus
	)
	err := s.mutate(ctx, ticketID, func(tx repository.Store, t *domain.Ticket, now time.Time) error {
		ticket, oldStatus = t, t.Status
		t.ApplyStatus(status, now)
		if err := tx.Tickets().Update(ctx, t); err != nil {
			return err
		}
		return s.ledger.Append(ctx, tx, &domain.TicketHistory{
			TicketID:  t.ID,
			UserID:    actor.ID,
			Action:    domain.HistoryActionStatusChanged,
			OldValue:  stringPtr(string(oldStatus)),
			NewValue:  stringPtr(string(status)),
			Notes:     optionalString(notes),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    actorOf(actor),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: status,
			Notes:     strings.TrimSpace(notes),
		},
	})
	return ticket, nil
}

// UpdateAssignment hands the ticket to team and forces it to assigned.
// Admin only.
func (s *TicketService) UpdateAssignment(ctx context.Context, actor *domain.User, ticketID, team, notes string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthenticated("user must be authenticated")
	}
	if !actor.IsAdmin() {
		return nil, apperrors.NewUnauthorized("admin role required")
	}
	team = strings.TrimSpace(team)
	if team == "" {
		return nil, apperrors.NewValidationError("team is required", map[string]any{"team": "required"})
	}

	var (
		ticket  *domain.Ticket
		oldTeam *string
	)
	err := s.mutate(ctx, ticketID, func(tx repository.Store, t *domain.Ticket, now time.Time) error {
		ticket, oldTeam = t, t.AssignedTeam
		t.AssignedTeam = &team
		t.ApplyStatus(domain.TicketStatusAssigned, now)
		if err := tx.Tickets().Update(ctx, t); err != nil {
			return err
		}
		return s.ledger.Append(ctx, tx, &domain.TicketHistory{
			TicketID:  t.ID,
			UserID:    actor.ID,
			Action:    domain.HistoryActionReassigned,
			OldValue:  oldTeam,
			NewValue:  &team,
			Notes:     optionalString(notes),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketReassigned,
		TicketID: ticket.ID,
		Actor:    actorOf(actor),
		Payload: events.TicketReassignedPayload{
			OldTeam: oldTeam,
			NewTeam: team,
			Notes:   strings.TrimSpace(notes),
		},
	})
	return ticket, nil
}

// AddResolutionNotes replaces the resolution notes without touching status.
func (s *TicketService) AddResolutionNotes(ctx context.Context, actor *domain.User, ticketID, notes string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthenticated("user must be authenticated")
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, apperrors.NewValidationError("notes are required", map[string]any{"notes": "required"})
	}

	var ticket *domain.Ticket
	err := s.mutate(ctx, ticketID, func(tx repository.Store, t *domain.Ticket, now time.Time) error {
		ticket = t
		t.ResolutionNotes = &notes
		if err := tx.Tickets().Update(ctx, t); err != nil {
			return err
		}
		return s.ledger.Append(ctx, tx, &domain.TicketHistory{
			TicketID:  t.ID,
			UserID:    actor.ID,
			Action:    domain.HistoryActionNotesAdded,
			NewValue:  &notes,
			Notes:     stringPtr("Resolution notes added"),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketNotesAdded,
		TicketID: ticket.ID,
		Actor:    actorOf(actor),
		Payload:  events.TicketNotesAddedPayload{NotesPreview: stringPreview(notes, 120)},
	})
	return ticket, nil
}

// GetUserTickets lists the actor's own tickets, newest first. An anonymous
// caller simply owns nothing.
func (s *TicketService) GetUserTickets(ctx context.Context, actor *domain.User) ([]domain.Ticket, error) {
	if actor == nil {
		return []domain.Ticket{}, nil
	}
	return s.store.Tickets().List(ctx, repository.TicketFilter{UserID: &actor.ID})
}

// GetTicketByID returns a ticket to its owner or to an admin.
func (s *TicketService) GetTicketByID(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthenticated("user must be authenticated")
	}
	ticket, err := s.getTicket(ctx, s.store, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.NewUnauthorized("access denied")
	}
	return ticket, nil
}

// ListAllTickets lists every ticket matching filter. Admin only.
func (s *TicketService) ListAllTickets(ctx context.Context, actor *domain.User, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthenticated("user must be authenticated")
	}
	if !actor.IsAdmin() {
		return nil, apperrors.NewUnauthorized("admin role required")
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status filter", map[string]any{"status": *filter.Status})
	}
	if filter.Priority != nil && !filter.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority filter", map[string]any{"priority": *filter.Priority})
	}
	if filter.Source != nil && !filter.Source.Valid() {
		return nil, apperrors.NewValidationError("invalid source filter", map[string]any{"source": *filter.Source})
	}
	return s.store.Tickets().List(ctx, filter)
}

// GetTicketHistory returns the ticket's audit trail, newest first.
func (s *TicketService) GetTicketHistory(ctx context.Context, actor *domain.User, ticketID string) ([]domain.TicketHistoryView, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthenticated("user must be authenticated")
	}
	if _, err := s.getTicket(ctx, s.store, ticketID); err != nil {
		return nil, err
	}
	return s.ledger.ListForTicket(ctx, ticketID)
}

// mutate loads the ticket inside a transaction and hands it to fn. Domain
// errors from fn pass through unchanged.
func (s *TicketService) mutate(ctx context.Context, ticketID string, fn func(tx repository.Store, t *domain.Ticket, now time.Time) error) error {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := s.getTicket(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		return fn(tx, ticket, s.now())
	})
	return apperrors.MapError(err)
}

func (s *TicketService) getTicket(ctx context.Context, store repository.Store, ticketID string) (*domain.Ticket, error) {
	ticket, err := store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}
	return ticket, nil
}

func validateCreate(input TicketCreateInput) error {
	details := map[string]any{}
	if !input.Source.Valid() {
		details["source"] = "must be one of chat, email, glpi, solman"
	}
	if !input.Priority.Valid() {
		details["priority"] = "must be one of low, medium, high, critical"
	}
	if input.SentimentScore != nil && (*input.SentimentScore < -1 || *input.SentimentScore > 1) {
		details["sentiment_score"] = "must be within [-1, 1]"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket", details)
	}
	return nil
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func actorOf(user *domain.User) events.Actor {
	return events.Actor{UserID: user.ID, Role: user.Role}
}

func stringPreview(body string, max int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= max {
		return string(runes)
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func stringPtr(s string) *string {
	return &s
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
