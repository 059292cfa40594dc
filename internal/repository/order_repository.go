package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lesprivat/les-api/internal/models"
)

// OrderRepository touches package orders only to expire stale ones; order
// creation and payment confirmation live with the payments collaborator.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository constructs the repository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CancelPendingBefore marks every pending order created before the cutoff as
// cancelled and returns the number of orders affected.
func (r *OrderRepository) CancelPendingBefore(ctx context.Context, cutoff, updatedAt time.Time) (int, error) {
	query := `UPDATE orders SET status = $1, updated_at = $2
WHERE status = $3 AND created_at < $4`
	res, err := r.db.ExecContext(ctx, query, models.OrderStatusCancelled, updatedAt, models.OrderStatusPending, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cancel stale orders: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancel stale orders count: %w", err)
	}
	return int(affected), nil
}
