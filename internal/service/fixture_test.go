package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/events"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	"github.com/spec-kit/helpdesk-triage/internal/repository/memory"
	"github.com/spec-kit/helpdesk-triage/internal/routing"
)

var fixedNow = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

// testClock is a settable clock shared by the services under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	ctx        context.Context
	clock      *testClock
	store      *memory.Store
	dispatcher events.Dispatcher
	ledger     *HistoryLedger
	tickets    *TicketService
	intake     *IntakeService
	user       *domain.User
	other      *domain.User
	admin      *domain.User
	published  []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:        context.Background(),
		clock:      &testClock{now: fixedNow},
		dispatcher: events.NewInMemoryDispatcher(),
	}
	f.store = memory.NewStore().WithClock(f.clock.Now)
	f.ledger = NewHistoryLedger(f.store, time.Minute)
	f.ledger.now = f.clock.Now

	resolver, err := routing.Initialize(f.ctx, f.store.RoutingRules(), f.store.Teams(), routing.DefaultSeed(), zap.NewNop())
	require.NoError(t, err)

	for _, eventType := range events.AllTicketEvents {
		f.dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			f.published = append(f.published, e)
			return nil
		})
	}

	f.tickets = NewTicketService(TicketDependencies{
		Store:      f.store,
		Resolver:   resolver,
		Ledger:     f.ledger,
		Dispatcher: f.dispatcher,
		Clock:      f.clock.Now,
	})
	f.intake = NewIntakeService(f.store, f.tickets)

	f.user = f.createUser(t, "jane@example.com", "Jane Doe", domain.UserRoleUser)
	f.other = f.createUser(t, "bob@example.com", "Bob", domain.UserRoleMember)
	f.admin = f.createUser(t, "admin@example.com", "Admin", domain.UserRoleAdmin)
	return f
}

func (f *fixture) createUser(t *testing.T, email, name string, role domain.UserRole) *domain.User {
	t.Helper()
	user := &domain.User{Email: email, Name: name, Role: role}
	require.NoError(t, f.store.Users().Create(f.ctx, user))
	return user
}

func (f *fixture) createTicket(t *testing.T, category string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.Create(f.ctx, f.user, TicketCreateInput{
		Source:      domain.TicketSourceChat,
		Subject:     "Help",
		Description: "Something is wrong",
		Category:    category,
		Priority:    domain.TicketPriorityHigh,
	})
	require.NoError(t, err)
	return ticket
}

// failingHistoryStore fails every history write so callers can observe
// rollback of the paired ticket change.
type failingHistoryStore struct {
	repository.Store
}

var errHistoryDown = errors.New("history unavailable")

func (s failingHistoryStore) History() repository.TicketHistoryRepository {
	return failingHistoryRepo{s.Store.History()}
}

func (s failingHistoryStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx repository.Store) error {
		return fn(failingHistoryStore{tx})
	})
}

type failingHistoryRepo struct {
	repository.TicketHistoryRepository
}

func (failingHistoryRepo) Create(context.Context, *domain.TicketHistory) error {
	return errHistoryDown
}
