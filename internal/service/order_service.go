package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/lesprivat/les-api/pkg/errors"
)

type orderRepository interface {
	CancelPendingBefore(ctx context.Context, cutoff, updatedAt time.Time) (int, error)
}

// OrderService expires package orders that stay unpaid past their TTL. It is
// the second entry point of the external periodic trigger, next to the sweep.
type OrderService struct {
	orders     orderRepository
	pendingTTL time.Duration
	logger     *zap.Logger
	clock      func() time.Time
}

// NewOrderService constructs the order service.
func NewOrderService(orders orderRepository, pendingTTL time.Duration, logger *zap.Logger, clock func() time.Time) *OrderService {
	if pendingTTL <= 0 {
		pendingTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &OrderService{orders: orders, pendingTTL: pendingTTL, logger: logger, clock: clock}
}

// CancelStale cancels every order that has been pending longer than the TTL
// and returns the number of orders cancelled. Safe to re-run: cancelled
// orders no longer match the predicate.
func (s *OrderService) CancelStale(ctx context.Context) (int, error) {
	now := s.clock().UTC()
	cutoff := now.Add(-s.pendingTTL)
	cancelled, err := s.orders.CancelPendingBefore(ctx, cutoff, now)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel stale orders")
	}
	if cancelled > 0 {
		s.logger.Info("stale orders cancelled", zap.Int("count", cancelled), zap.Time("cutoff", cutoff))
	}
	return cancelled, nil
}
