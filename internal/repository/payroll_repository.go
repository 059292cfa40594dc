package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lesprivat/les-api/internal/models"
)

// PayrollRepository persists tutor compensation records. The unique
// constraint on (tutor_id, order_id) backs the at-most-once guarantee of the
// payroll trigger.
type PayrollRepository struct {
	db *sqlx.DB
}

// NewPayrollRepository constructs the repository.
func NewPayrollRepository(db *sqlx.DB) *PayrollRepository {
	return &PayrollRepository{db: db}
}

// Create inserts a pending payroll record. Returns sql.ErrNoRows when a
// record for the (tutor, order) pair already exists.
func (r *PayrollRepository) Create(ctx context.Context, record *models.PayrollRecord) (*models.PayrollRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.Status == "" {
		record.Status = models.PayrollStatusPending
	}
	query := `INSERT INTO payroll_records (id, tutor_id, order_id, amount, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (tutor_id, order_id) DO NOTHING
RETURNING id, tutor_id, order_id, amount, status, created_at`
	var stored models.PayrollRecord
	err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.TutorID, record.OrderID, record.Amount, record.Status, record.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// FindByTutorOrder returns the payroll record for one (tutor, order) pair.
func (r *PayrollRepository) FindByTutorOrder(ctx context.Context, tutorID, orderID string) (*models.PayrollRecord, error) {
	query := `SELECT id, tutor_id, order_id, amount, status, created_at
FROM payroll_records WHERE tutor_id = $1 AND order_id = $2`
	var record models.PayrollRecord
	if err := r.db.GetContext(ctx, &record, query, tutorID, orderID); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByTutor returns all payroll records for a tutor, newest first.
func (r *PayrollRepository) ListByTutor(ctx context.Context, tutorID string) ([]models.PayrollRecord, error) {
	query := `SELECT id, tutor_id, order_id, amount, status, created_at
FROM payroll_records WHERE tutor_id = $1 ORDER BY created_at DESC`
	var records []models.PayrollRecord
	if err := r.db.SelectContext(ctx, &records, query, tutorID); err != nil {
		return nil, fmt.Errorf("list payroll by tutor: %w", err)
	}
	return records, nil
}
