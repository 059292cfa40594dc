package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lesprivat/les-api/internal/models"
	"github.com/lesprivat/les-api/pkg/jobs"
)

// Notifier is the fire-and-forget notification sink used by the scheduling
// core. Implementations must never block the calling write path.
type Notifier interface {
	Notify(ctx context.Context, userID string, category models.NotificationCategory, body string, photoRef *string)
}

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

// QueueNotifier hands notifications to a background worker queue which
// persists them. Delivery to push/email channels stays external.
type QueueNotifier struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewQueueNotifier wires the notification queue around the given store.
func NewQueueNotifier(store notificationStore, cfg jobs.QueueConfig, logger *zap.Logger) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &QueueNotifier{logger: logger}
	n.queue = jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job) error {
		notification, ok := job.Payload.(*models.Notification)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return store.Create(ctx, notification)
	}, cfg)
	return n
}

// Start launches the queue workers.
func (n *QueueNotifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop drains the queue workers.
func (n *QueueNotifier) Stop() {
	n.queue.Stop()
}

// Notify enqueues one notification. Enqueue failures are logged and dropped;
// the scheduling write has already committed and must not be rolled back
// over a notification.
func (n *QueueNotifier) Notify(ctx context.Context, userID string, category models.NotificationCategory, body string, photoRef *string) {
	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: string(category),
		Payload: &models.Notification{
			UserID:   userID,
			Category: category,
			Body:     body,
			PhotoRef: photoRef,
		},
	}
	if err := n.queue.Enqueue(job); err != nil {
		n.logger.Warn("notification dropped", zap.String("user_id", userID), zap.Error(err))
	}
}

// NopNotifier discards notifications. Used in tests and as a fallback when
// the queue is disabled.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, string, models.NotificationCategory, string, *string) {}
