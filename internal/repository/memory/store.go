// Package memory is an in-process repository.Store used when no database is
// configured and by tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
)

type state struct {
	users   map[string]domain.User
	tickets map[string]domain.Ticket
	history []domain.TicketHistory
	chat    []domain.ChatMessage
	rules   []domain.RoutingRule
	teams   []domain.Team
}

func newState() *state {
	return &state{
		users:   make(map[string]domain.User),
		tickets: make(map[string]domain.Ticket),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:   make(map[string]domain.User, len(s.users)),
		tickets: make(map[string]domain.Ticket, len(s.tickets)),
		history: append([]domain.TicketHistory(nil), s.history...),
		chat:    append([]domain.ChatMessage(nil), s.chat...),
		rules:   append([]domain.RoutingRule(nil), s.rules...),
		teams:   append([]domain.Team(nil), s.teams...),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.tickets {
		c.tickets[k] = v
	}
	return c
}

// Store implements repository.Store in memory. A single mutex serialises
// every operation; WithinTx holds it for the whole unit of work.
type Store struct {
	mu   *sync.Mutex
	root **state
	inTx bool
	now  func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	st := newState()
	return &Store{mu: &sync.Mutex{}, root: &st, now: time.Now}
}

// WithClock overrides the clock used for generated timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) data() *state { return *s.root }

// WithinTx runs fn under the store lock and discards its writes on error.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := (*s.root).clone()
	tx := &Store{mu: s.mu, root: s.root, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.root = snapshot
		return err
	}
	return nil
}

func (s *Store) Users() repository.UserRepository { return userRepo{s} }
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }
func (s *Store) History() repository.TicketHistoryRepository { return historyRepo{s} }
func (s *Store) ChatMessages() repository.ChatMessageRepository { return chatRepo{s} }
func (s *Store) RoutingRules() repository.RoutingRuleRepository { return ruleRepo{s} }
func (s *Store) Teams() repository.TeamRepository { return teamRepo{s} }

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, user *domain.User) error {
	defer r.s.lock()()
	user.Email = strings.ToLower(user.Email)
	for _, existing := range r.s.data().users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = r.s.now()
	user.UpdatedAt = user.CreatedAt
	r.s.data().users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	defer r.s.lock()()
	user, ok := r.s.data().users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer r.s.lock()()
	email = strings.ToLower(email)
	for _, user := range r.s.data().users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) Update(ctx context.Context, user *domain.User) error {
	defer r.s.lock()()
	existing, ok := r.s.data().users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = user.Name
	existing.Role = user.Role
	existing.PasswordHash = user.PasswordHash
	existing.UpdatedAt = r.s.now()
	user.UpdatedAt = existing.UpdatedAt
	r.s.data().users[user.ID] = existing
	return nil
}

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	defer r.s.lock()()
	ticket.ID = uuid.NewString()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = r.s.now()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	r.s.data().tickets[ticket.ID] = *ticket
	return nil
}

func (r ticketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	defer r.s.lock()()
	existing, ok := r.s.data().tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := existing
	updated.Status = ticket.Status
	updated.Priority = ticket.Priority
	updated.Category = ticket.Category
	updated.AssignedTeam = ticket.AssignedTeam
	updated.ResolutionNotes = ticket.ResolutionNotes
	updated.ResolvedAt = ticket.ResolvedAt
	updated.ClosedAt = ticket.ClosedAt
	updated.UpdatedAt = r.s.now()
	ticket.UpdatedAt = updated.UpdatedAt
	r.s.data().tickets[ticket.ID] = updated
	return nil
}

func (r ticketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	defer r.s.lock()()
	ticket, ok := r.s.data().tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ticket, nil
}

func (r ticketRepo) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	defer r.s.lock()()
	result := []domain.Ticket{}
	for _, ticket := range r.s.data().tickets {
		t := ticket
		if filter.Matches(&t) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		if offset >= len(result) {
			return []domain.Ticket{}, nil
		}
		end := offset + filter.Limit
		if end > len(result) {
			end = len(result)
		}
		result = result[offset:end]
	}
	return result, nil
}

type historyRepo struct{ s *Store }

func (r historyRepo) Create(ctx context.Context, entry *domain.TicketHistory) error {
	defer r.s.lock()()
	entry.ID = uuid.NewString()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.s.now()
	}
	r.s.data().history = append(r.s.data().history, *entry)
	return nil
}

func (r historyRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	defer r.s.lock()()
	result := []domain.TicketHistory{}
	entries := r.s.data().history
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].TicketID == ticketID {
			result = append(result, entries[i])
		}
	}
	return result, nil
}

type chatRepo struct{ s *Store }

func (r chatRepo) Create(ctx context.Context, msg *domain.ChatMessage) error {
	defer r.s.lock()()
	msg.ID = uuid.NewString()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = r.s.now()
	}
	r.s.data().chat = append(r.s.data().chat, *msg)
	return nil
}

func (r chatRepo) ListByUser(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	return r.filter(func(m domain.ChatMessage) bool { return m.UserID == userID }), nil
}

func (r chatRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.ChatMessage, error) {
	return r.filter(func(m domain.ChatMessage) bool {
		return m.TicketID != nil && *m.TicketID == ticketID
	}), nil
}

func (r chatRepo) filter(keep func(domain.ChatMessage) bool) []domain.ChatMessage {
	defer r.s.lock()()
	result := []domain.ChatMessage{}
	for _, msg := range r.s.data().chat {
		if keep(msg) {
			result = append(result, msg)
		}
	}
	return result
}

type ruleRepo struct{ s *Store }

func (r ruleRepo) Create(ctx context.Context, rule *domain.RoutingRule) error {
	defer r.s.lock()()
	for _, existing := range r.s.data().rules {
		if existing.Category == rule.Category {
			return repository.ErrDuplicate
		}
	}
	rule.ID = uuid.NewString()
	rule.CreatedAt = r.s.now()
	r.s.data().rules = append(r.s.data().rules, *rule)
	return nil
}

func (r ruleRepo) List(ctx context.Context) ([]domain.RoutingRule, error) {
	defer r.s.lock()()
	return append([]domain.RoutingRule{}, r.s.data().rules...), nil
}

type teamRepo struct{ s *Store }

func (r teamRepo) Create(ctx context.Context, team *domain.Team) error {
	defer r.s.lock()()
	team.ID = uuid.NewString()
	team.CreatedAt = r.s.now()
	r.s.data().teams = append(r.s.data().teams, *team)
	return nil
}

func (r teamRepo) List(ctx context.Context) ([]domain.Team, error) {
	defer r.s.lock()()
	teams := append([]domain.Team{}, r.s.data().teams...)
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}
