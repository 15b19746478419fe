package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/events"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

func TestTicketService_Create(t *testing.T) {
	f := newFixture(t)

	ticket := f.createTicket(t, domain.CategoryNetwork)

	assert.True(t, strings.HasPrefix(ticket.Reference, "TCK-"))
	assert.Len(t, ticket.Reference, len("TCK-")+8)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, f.user.ID, ticket.UserID)
	require.NotNil(t, ticket.AssignedTeam)
	assert.Equal(t, "Network Team", *ticket.AssignedTeam)
	require.NotNil(t, ticket.SLADeadline)
	assert.Equal(t, fixedNow.Add(8*time.Hour), *ticket.SLADeadline)
	require.NotNil(t, ticket.SenderEmail)
	assert.Equal(t, "jane@example.com", *ticket.SenderEmail)
	assert.Nil(t, ticket.ResolvedAt)
	assert.Nil(t, ticket.ClosedAt)

	history, err := f.tickets.GetTicketHistory(f.ctx, f.user, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.HistoryActionCreated, history[0].Action)
	assert.Nil(t, history[0].OldValue)
	assert.Equal(t, "open", *history[0].NewValue)
	assert.Equal(t, "Ticket created via chat", *history[0].Notes)
	assert.Equal(t, "Jane Doe", history[0].UserName)

	require.Len(t, f.published, 1)
	assert.Equal(t, events.EventTicketCreated, f.published[0].Type)
	assert.Equal(t, ticket.ID, f.published[0].TicketID)
}

func TestTicketService_CreateDefaults(t *testing.T) {
	f := newFixture(t)

	ticket, err := f.tickets.Create(f.ctx, f.user, TicketCreateInput{
		Source:  domain.TicketSourceGLPI,
		Subject: "Chair squeaks",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryOther, ticket.Category)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, "General IT Support", *ticket.AssignedTeam)
	assert.Equal(t, fixedNow.Add(24*time.Hour), *ticket.SLADeadline)
}

func TestTicketService_CreateRejects(t *testing.T) {
	f := newFixture(t)

	_, err := f.tickets.Create(f.ctx, nil, TicketCreateInput{Source: domain.TicketSourceChat})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthenticated))

	_, err = f.tickets.Create(f.ctx, f.user, TicketCreateInput{Source: "fax"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.tickets.Create(f.ctx, f.user, TicketCreateInput{Source: domain.TicketSourceChat, Priority: "whenever"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	tickets, err := f.store.Tickets().List(f.ctx, repository.TicketFilter{})
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestTicketService_UpdateStatusTimestamps(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, domain.CategoryAccess)

	f.clock.Advance(time.Hour)
	resolvedAt := f.clock.Now()
	got, err := f.tickets.UpdateStatus(f.ctx, f.other, ticket.ID, domain.TicketStatusResolved, "fixed")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, got.Status)
	require.NotNil(t, got.ResolvedAt)
	assert.Equal(t, resolvedAt, *got.ResolvedAt)
	assert.Nil(t, got.ClosedAt)

	f.clock.Advance(time.Hour)
	closedAt := f.clock.Now()
	got, err = f.tickets.UpdateStatus(f.ctx, f.other, ticket.ID, domain.TicketStatusClosed, "")
	require.NoError(t, err)
	assert.Equal(t, resolvedAt, *got.ResolvedAt)
	assert.Equal(t, closedAt, *got.ClosedAt)

	// closed is not terminal: reopening clears both timestamps
	got, err = f.tickets.UpdateStatus(f.ctx, f.other, ticket.ID, domain.TicketStatusInProgress, "")
	require.NoError(t, err)
	assert.Nil(t, got.ResolvedAt)
	assert.Nil(t, got.ClosedAt)

	stored, err := f.store.Tickets().GetByID(f.ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, stored.Status)
	assert.Equal(t, *ticket.SLADeadline, *stored.SLADeadline)

	history, err := f.ledger.ListForTicket(f.ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, domain.HistoryActionStatusChanged, history[2].Action)
	assert.Equal(t, "open", *history[2].OldValue)
	assert.Equal(t, "resolved", *history[2].NewValue)
	assert.Equal(t, "fixed", *history[2].Notes)
	assert.Equal(t, "Bob", history[2].UserName)
	assert.Nil(t, history[1].Notes)
	assert.Equal(t, "in_progress", *history[0].NewValue)
}

func TestTicketService_CloseWithoutResolve(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, domain.CategoryHardware)

	got, err := f.tickets.UpdateStatus(f.ctx, f.user, ticket.ID, domain.TicketStatusClosed, "")
	require.NoError(t, err)
	require.NotNil(t, got.ResolvedAt)
	require.NotNil(t, got.ClosedAt)
	assert.Equal(t, *got.ResolvedAt, *got.ClosedAt)
}

func TestTicketService_UpdateStatusErrors(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, domain.CategoryHardware)

	_, err := f.tickets.UpdateStatus(f.ctx, nil, ticket.ID, domain.TicketStatusResolved, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthenticated))

	_, err = f.tickets.UpdateStatus(f.ctx, f.user, "missing", domain.TicketStatusResolved, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.tickets.UpdateStatus(f.ctx, f.user, ticket.ID, "reopened", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	history, err := f.ledger.ListForTicket(f.ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestTicketService_MutationIsAtomic(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, domain.CategoryHardware)

	broken := NewTicketService(TicketDependencies{
		Store:    failingHistoryStore{f.store},
		Resolver: f.tickets.resolver,
		Ledger:   f.ledger,
		Clock:    f.clock.Now,
	})

	_, err := broken.UpdateStatus(f.ctx, f.user, ticket.ID, domain.TicketStatusResolved, "")
	require.Error(t, err)

	stored, err := f.store.Tickets().GetByID(f.ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, stored.Status)
	assert.Nil(t, stored.ResolvedAt)

	_, err = broken.Create(f.ctx, f.user, TicketCreateInput{Source: domain.TicketSourceChat, Subject: "x"})
	require.Error(t, err)
	all, err := f.store.Tickets().List(f.ctx, repository.TicketFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTicketService_UpdateAssignment(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, domain.CategoryNetwork)
	_, err := f.tickets.UpdateStatus(f.ctx, f.user, ticket.ID, domain.TicketStatusResolved, "")
	require.NoError(t, err)

	_, err = f.tickets.UpdateAssignment(f.ctx, f.user, ticket.ID, "Tier 2", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = f.tickets.UpdateAssignment(f.ctx, nil, ticket.ID, "Tier 2", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthenticated))
	_, err = f.tickets.UpdateAssignment(f.ctx, f.admin, "missing", "Tier 2", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	got, err := f.tickets.UpdateAssignment(f.ctx, f.admin, ticket.ID, "Tier 2", "escalate")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, got.Status)
	assert.Equal(t, "Tier 2", *got.AssignedTeam)
	assert.Nil(t, got.ResolvedAt)

	history, err := f.ledger.ListForTicket(f.ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, domain.HistoryActionReassigned, history[0].Action)
	assert.Equal(t, "Network Team", *history[0].OldValue)
	assert.Equal(t, "Tier 2", *history[0].NewValue)
	assert.Equal(t, "escalate", *history[0].Notes)
	assert.Equal(t, "Admin", history[0].UserName)
}

func TestTicketService_AddResolutionNotes(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, domain.CategorySoftware)

	got, err := f.tickets.AddResolutionNotes(f.ctx, f.other, ticket.ID, "Reinstalled the client")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, got.Status)
	assert.Equal(t, "Reinstalled the client", *got.ResolutionNotes)

	history, err := f.ledger.ListForTicket(f.ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.HistoryActionNotesAdded, history[0].Action)
	assert.Equal(t, "Reinstalled the client", *history[0].NewValue)
	assert.Equal(t, "Resolution notes added", *history[0].Notes)

	_, err = f.tickets.AddResolutionNotes(f.ctx, f.other, "missing", "x")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	_, err = f.tickets.AddResolutionNotes(f.ctx, f.other, ticket.ID, "  ")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestTicketService_Reads(t *testing.T) {
	f := newFixture(t)
	first := f.createTicket(t, domain.CategoryNetwork)
	f.clock.Advance(time.Minute)
	second := f.createTicket(t, domain.CategoryAccess)
	_, err := f.tickets.Create(f.ctx, f.other, TicketCreateInput{Source: domain.TicketSourceSolman, Subject: "other"})
	require.NoError(t, err)

	mine, err := f.tickets.GetUserTickets(f.ctx, f.user)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	none, err := f.tickets.GetUserTickets(f.ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	got, err := f.tickets.GetTicketByID(f.ctx, f.user, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Category, got.Category)
	assert.Equal(t, first.Priority, got.Priority)
	assert.Equal(t, *first.AssignedTeam, *got.AssignedTeam)

	_, err = f.tickets.GetTicketByID(f.ctx, f.other, first.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = f.tickets.GetTicketByID(f.ctx, f.admin, first.ID)
	assert.NoError(t, err)

	_, err = f.tickets.ListAllTickets(f.ctx, f.user, repository.TicketFilter{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	team := "IT Security Team"
	filtered, err := f.tickets.ListAllTickets(f.ctx, f.admin, repository.TicketFilter{Team: &team})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, second.ID, filtered[0].ID)

	bad := domain.TicketStatus("nope")
	_, err = f.tickets.ListAllTickets(f.ctx, f.admin, repository.TicketFilter{Status: &bad})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.tickets.GetTicketHistory(f.ctx, f.user, "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
