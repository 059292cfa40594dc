package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lesprivat/les-api/internal/models"
	appErrors "github.com/lesprivat/les-api/pkg/errors"
	"github.com/lesprivat/les-api/pkg/jobs"
)

// CompletionQueue decouples the attendance write path from payroll
// computation. Events are consumed by the payroll service; the payroll
// uniqueness constraint absorbs redeliveries.
type CompletionQueue struct {
	queue *jobs.Queue
}

// NewCompletionQueue wires the payroll consumer behind a worker queue.
func NewCompletionQueue(payroll *PayrollService, cfg jobs.QueueConfig, logger *zap.Logger) *CompletionQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &CompletionQueue{}
	q.queue = jobs.NewQueue("class-completions", func(ctx context.Context, job jobs.Job) error {
		event, ok := job.Payload.(models.ClassCompleted)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		_, err := payroll.HandleCompletion(ctx, event)
		if errors.Is(err, appErrors.ErrPayrollExists) {
			// Duplicate delivery; the record already exists.
			return nil
		}
		return err
	}, cfg)
	return q
}

// Start launches the consumer workers.
func (q *CompletionQueue) Start(ctx context.Context) {
	q.queue.Start(ctx)
}

// Stop drains the consumer workers.
func (q *CompletionQueue) Stop() {
	q.queue.Stop()
}

// Publish enqueues one completion event.
func (q *CompletionQueue) Publish(ctx context.Context, event models.ClassCompleted) error {
	return q.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "class_completed",
		Payload: event,
	})
}
