package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errorutil.ErrNotFound
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

const uniqueViolation = "23505"

// Store groups the repositories and runs units of work atomically.
type Store interface {
	Users() UserRepository
	Tickets() TicketRepository
	History() TicketHistoryRepository
	ChatMessages() ChatMessageRepository
	RoutingRules() RoutingRuleRepository
	Teams() TeamRepository
	// WithinTx runs fn against a transactional view of the store. Nothing
	// fn wrote is visible to other callers if it returns an error.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	db   DBTX
}

// NewPostgresStore wraps a pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, db: pool}
}

func (s *PostgresStore) Users() UserRepository { return NewUserRepository(s.db) }
func (s *PostgresStore) Tickets() TicketRepository { return NewTicketRepository(s.db) }
func (s *PostgresStore) History() TicketHistoryRepository { return NewTicketHistoryRepository(s.db) }
func (s *PostgresStore) ChatMessages() ChatMessageRepository { return NewChatMessageRepository(s.db) }
func (s *PostgresStore) RoutingRules() RoutingRuleRepository { return NewRoutingRuleRepository(s.db) }
func (s *PostgresStore) Teams() TeamRepository { return NewTeamRepository(s.db) }

// WithinTx begins a transaction, or joins the current one when the store is
// already transactional.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&PostgresStore{db: tx})
	})
}

// validID rejects ids Postgres could not parse as UUID so lookups report
// not-found instead of a query error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func duplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}
