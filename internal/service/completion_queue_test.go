package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesprivat/les-api/internal/models"
	"github.com/lesprivat/les-api/pkg/jobs"
)

type syncPayrollRepo struct {
	mu      sync.Mutex
	created []models.PayrollRecord
}

func (s *syncPayrollRepo) Create(ctx context.Context, record *models.PayrollRecord) (*models.PayrollRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.ID = "pay-1"
	s.created = append(s.created, *record)
	return record, nil
}

func (s *syncPayrollRepo) ListByTutor(ctx context.Context, tutorID string) ([]models.PayrollRecord, error) {
	return nil, nil
}

func (s *syncPayrollRepo) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created)
}

func TestCompletionQueueDeliversToPayroll(t *testing.T) {
	repo := &syncPayrollRepo{}
	payroll := NewPayrollService(payrollClassStub{class: payrollClass()}, presentCountStub{count: 10}, repo, 0.9, nil, nil)
	queue := NewCompletionQueue(payroll, jobs.QueueConfig{Workers: 1, RetryDelay: 10 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()

	require.NoError(t, queue.Publish(ctx, models.ClassCompleted{ClassID: "class-1", TutorID: "tutor-1"}))

	assert.Eventually(t, func() bool {
		return repo.count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, "tutor-1", repo.created[0].TutorID)
	assert.Equal(t, "order-1", repo.created[0].OrderID)
	assert.InDelta(t, 900000, repo.created[0].Amount, 0.001)
}

func TestCompletionQueuePublishBeforeStart(t *testing.T) {
	payroll := NewPayrollService(payrollClassStub{class: payrollClass()}, presentCountStub{}, &syncPayrollRepo{}, 0.9, nil, nil)
	queue := NewCompletionQueue(payroll, jobs.QueueConfig{Workers: 1}, nil)

	err := queue.Publish(context.Background(), models.ClassCompleted{ClassID: "class-1", TutorID: "tutor-1"})
	require.Error(t, err)
}
