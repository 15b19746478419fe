package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/events"
	"github.com/spec-kit/helpdesk-triage/internal/notify"
	"github.com/spec-kit/helpdesk-triage/internal/observability"
)

// NotificationService turns domain events into outbound notifications:
// email acknowledgments on one publisher and an event feed on another.
// Delivery is a single best-effort attempt off the request path.
type NotificationService struct {
	dispatcher events.Dispatcher
	acks       notify.Publisher
	feed       notify.Publisher
	logger     *zap.Logger
	metrics    *observability.Metrics
	timeout    time.Duration
	now        func() time.Time
	wg         sync.WaitGroup
}

// NotificationDependencies bundles collaborators for notifications.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	// Acks receives acknowledgments for email-sourced tickets.
	Acks notify.Publisher
	// Feed receives every ticket lifecycle event.
	Feed    notify.Publisher
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Timeout time.Duration
}

// NewNotificationService creates the service. Missing publishers discard.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	n := &NotificationService{
		dispatcher: deps.Dispatcher,
		acks:       deps.Acks,
		feed:       deps.Feed,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		timeout:    deps.Timeout,
		now:        time.Now,
	}
	if n.acks == nil {
		n.acks = notify.Discard{}
	}
	if n.feed == nil {
		n.feed = notify.Discard{}
	}
	if n.logger == nil {
		n.logger = zap.NewNop()
	}
	if n.timeout <= 0 {
		n.timeout = 5 * time.Second
	}
	return n
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.SubscribeAll(n.handleTicketEvent)
}

// Wait blocks until in-flight deliveries finish.
func (n *NotificationService) Wait() {
	n.wg.Wait()
}

// Close waits for in-flight deliveries and closes both publishers.
func (n *NotificationService) Close() error {
	n.wg.Wait()
	ackErr := n.acks.Close()
	if err := n.feed.Close(); err != nil {
		return err
	}
	return ackErr
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok || payload.Source != domain.TicketSourceEmail || payload.SenderEmail == nil {
		return nil
	}
	ack := notify.Acknowledgment{
		Recipient: *payload.SenderEmail,
		TicketID:  event.TicketID,
		Reference: payload.Reference,
		Subject:   payload.Subject,
		SentAt:    n.now(),
	}
	n.deliver(ctx, "acknowledgment", n.acks, event.TicketID, ack)
	return nil
}

func (n *NotificationService) handleTicketEvent(ctx context.Context, event events.Event) error {
	n.logger.Debug("ticket event", zap.String("event_type", string(event.Type)), zap.String("ticket_id", event.TicketID))
	n.deliver(ctx, "feed", n.feed, event.TicketID, event)
	return nil
}

// deliver publishes in the background with a context that outlives the
// request but not the timeout. Failures are logged and counted only.
func (n *NotificationService) deliver(ctx context.Context, channel string, pub notify.Publisher, key string, payload any) {
	ctx = context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()

		err := pub.Publish(ctx, key, payload)
		n.metrics.RecordNotification(channel, err == nil)
		if err != nil {
			n.logger.Warn("notification delivery failed",
				zap.String("channel", channel),
				zap.String("key", key),
				zap.Error(err))
			return
		}
		n.logger.Debug("notification delivered", zap.String("channel", channel), zap.String("key", key))
	}()
}
