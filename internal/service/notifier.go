package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/plantdesk/dms/internal/domain"
	"github.com/plantdesk/dms/internal/logging"
)

// AlertSink carries notifications out of the system. Implementations pick the
// channel: a log line, email, a webhook.
type AlertSink interface {
	Send(ctx context.Context, n domain.Notification) error
}

// LogSink is the default sink: notifications become structured log lines.
type LogSink struct{}

func (LogSink) Send(ctx context.Context, n domain.Notification) error {
	logging.FromContext(ctx).Info("notification",
		"type", n.Type,
		"severity", n.Severity,
		"message", n.Message,
	)
	return nil
}

type notifierRepo interface {
	GetPending(ctx context.Context, limit int) ([]domain.Notification, error)
	MarkDispatched(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Notifier drains the notification queue on an interval and hands each entry
// to the sink. Entries that fail to send stay pending for the next poll.
type Notifier struct {
	notifications notifierRepo
	sink          AlertSink
	logger        *slog.Logger
	interval      time.Duration
}

func NewNotifier(notifications notifierRepo, sink AlertSink, logger *slog.Logger, interval time.Duration) *Notifier {
	return &Notifier{
		notifications: notifications,
		sink:          sink,
		logger:        logger,
		interval:      interval,
	}
}

func (n *Notifier) Start(ctx context.Context) {
	n.logger.Info("notifier started", "interval", n.interval)

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("notifier stopped")
			return
		case <-ticker.C:
			n.poll(ctx)
		}
	}
}

func (n *Notifier) poll(ctx context.Context) {
	pending, err := n.notifications.GetPending(ctx, 10)
	if err != nil {
		n.logger.Error("failed to fetch pending notifications", "error", err)
		return
	}

	var sent []uuid.UUID
	for _, item := range pending {
		if err := n.sink.Send(ctx, item); err != nil {
			n.logger.Error("failed to dispatch notification",
				"notification_id", item.ID,
				"error", err,
			)
			continue
		}
		sent = append(sent, item.ID)
	}

	if len(sent) == 0 {
		return
	}
	if err := n.notifications.MarkDispatched(ctx, sent, time.Now().UTC()); err != nil {
		n.logger.Error("failed to mark notifications dispatched", "error", err)
	}
}
