package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
)

func TestStore_WithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	ticket := &domain.Ticket{Subject: "kept", Status: domain.TicketStatusOpen}
	require.NoError(t, store.Tickets().Create(ctx, ticket))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx repository.Store) error {
		ticket.Status = domain.TicketStatusClosed
		require.NoError(t, tx.Tickets().Update(ctx, ticket))
		require.NoError(t, tx.History().Create(ctx, &domain.TicketHistory{TicketID: ticket.ID, Action: domain.HistoryActionStatusChanged}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, stored.Status)

	history, err := store.History().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestStore_WithinTxCommits(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	var id string
	err := store.WithinTx(ctx, func(tx repository.Store) error {
		ticket := &domain.Ticket{Subject: "new", Status: domain.TicketStatusOpen}
		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			return err
		}
		id = ticket.ID
		return tx.History().Create(ctx, &domain.TicketHistory{TicketID: ticket.ID, Action: domain.HistoryActionCreated})
	})
	require.NoError(t, err)

	_, err = store.Tickets().GetByID(ctx, id)
	assert.NoError(t, err)
	history, err := store.History().ListByTicket(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestHistory_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	for _, action := range []domain.HistoryAction{domain.HistoryActionCreated, domain.HistoryActionStatusChanged, domain.HistoryActionNotesAdded} {
		require.NoError(t, store.History().Create(ctx, &domain.TicketHistory{TicketID: "t1", Action: action}))
	}
	require.NoError(t, store.History().Create(ctx, &domain.TicketHistory{TicketID: "t2", Action: domain.HistoryActionCreated}))

	entries, err := store.History().ListByTicket(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.HistoryActionNotesAdded, entries[0].Action)
	assert.Equal(t, domain.HistoryActionCreated, entries[2].Action)
}

func TestTickets_ListFilter(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewStore()
	network := "Network Team"

	tickets := []*domain.Ticket{
		{UserID: "u1", Source: domain.TicketSourceEmail, Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityHigh, AssignedTeam: &network, CreatedAt: base},
		{UserID: "u1", Source: domain.TicketSourceChat, Status: domain.TicketStatusClosed, Priority: domain.TicketPriorityLow, CreatedAt: base.Add(time.Hour)},
		{UserID: "u2", Source: domain.TicketSourceEmail, Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityLow, CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, ticket := range tickets {
		require.NoError(t, store.Tickets().Create(ctx, ticket))
	}

	all, err := store.Tickets().List(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, tickets[2].ID, all[0].ID, "newest first")

	user := "u1"
	mine, err := store.Tickets().List(ctx, repository.TicketFilter{UserID: &user})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	source := domain.TicketSourceEmail
	status := domain.TicketStatusOpen
	emailOpen, err := store.Tickets().List(ctx, repository.TicketFilter{Source: &source, Status: &status})
	require.NoError(t, err)
	assert.Len(t, emailOpen, 2)

	team, err := store.Tickets().List(ctx, repository.TicketFilter{Team: &network})
	require.NoError(t, err)
	require.Len(t, team, 1)
	assert.Equal(t, tickets[0].ID, team[0].ID)

	page, err := store.Tickets().List(ctx, repository.TicketFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestUsers_EmailIsUnique(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Users().Create(ctx, &domain.User{Email: "Ada@Example.com", Role: domain.UserRoleUser}))
	err := store.Users().Create(ctx, &domain.User{Email: "ada@example.com", Role: domain.UserRoleUser})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	user, err := store.Users().GetByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	_, err = store.Users().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
