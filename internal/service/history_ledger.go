package service

import (
	"context"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

// UnknownUserName labels history entries whose actor no longer resolves.
const UnknownUserName = "Unknown"

// HistoryLedger is the append-only audit log of ticket mutations.
type HistoryLedger struct {
	store repository.Store
	names *ttlcache.Cache[string, string]
	now   func() time.Time
}

// NewHistoryLedger builds a ledger that caches actor display names for ttl.
func NewHistoryLedger(store repository.Store, ttl time.Duration) *HistoryLedger {
	return &HistoryLedger{
		store: store,
		names: ttlcache.New(
			ttlcache.WithTTL[string, string](ttl),
			ttlcache.WithDisableTouchOnHit[string, string](),
		),
		now: time.Now,
	}
}

// Append validates entry and writes it through tx, which is normally the
// transaction that performed the mutation being recorded.
func (l *HistoryLedger) Append(ctx context.Context, tx repository.Store, entry *domain.TicketHistory) error {
	details := map[string]any{}
	if strings.TrimSpace(entry.TicketID) == "" {
		details["ticket_id"] = "required"
	}
	if strings.TrimSpace(entry.UserID) == "" {
		details["user_id"] = "required"
	}
	switch entry.Action {
	case domain.HistoryActionCreated, domain.HistoryActionStatusChanged,
		domain.HistoryActionReassigned, domain.HistoryActionNotesAdded:
	default:
		details["action"] = "unknown action"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid history entry", details)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = l.now()
	}
	return tx.History().Create(ctx, entry)
}

// ListForTicket returns the ticket's entries newest first, each labelled
// with its actor's display name.
func (l *HistoryLedger) ListForTicket(ctx context.Context, ticketID string) ([]domain.TicketHistoryView, error) {
	entries, err := l.store.History().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	views := make([]domain.TicketHistoryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, domain.TicketHistoryView{
			TicketHistory: entry,
			UserName:      l.displayName(ctx, entry.UserID),
		})
	}
	return views, nil
}

// displayName never fails: lookup errors and missing users degrade to
// UnknownUserName and are not cached.
func (l *HistoryLedger) displayName(ctx context.Context, userID string) string {
	if item := l.names.Get(userID); item != nil {
		return item.Value()
	}
	user, err := l.store.Users().GetByID(ctx, userID)
	if err != nil {
		return UnknownUserName
	}
	name := user.DisplayName()
	if name == "" {
		return UnknownUserName
	}
	l.names.Set(userID, name, ttlcache.DefaultTTL)
	return name
}
