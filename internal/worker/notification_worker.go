package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/service"
)

// NotificationWorker owns the lifetime of outbound notification delivery.
type NotificationWorker struct {
	service *service.NotificationService
	logger  *zap.Logger
}

// StartNotificationWorker registers notification handlers on the event
// dispatcher. A nil service yields a nil worker, which Stop tolerates.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) *NotificationWorker {
	if notificationService == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	notificationService.RegisterHandlers()
	logger.Info("notification worker started")
	return &NotificationWorker{service: notificationService, logger: logger}
}

// Stop drains in-flight deliveries until ctx is done, then closes the
// publishers.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	if w == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		w.service.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("notification drain interrupted", zap.Error(ctx.Err()))
	}
	err := w.service.Close()
	w.logger.Info("notification worker stopped")
	return err
}
