package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesprivat/les-api/internal/models"
)

func payrollColumns() []string {
	return []string{"id", "tutor_id", "order_id", "amount", "status", "created_at"}
}

func TestPayrollCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPayrollRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(payrollColumns()).
		AddRow("pay-1", "tutor-1", "order-1", 630000.0, "pending", now)
	mock.ExpectQuery("INSERT INTO payroll_records").
		WithArgs(sqlmock.AnyArg(), "tutor-1", "order-1", 630000.0, "pending", sqlmock.AnyArg()).
		WillReturnRows(rows)

	stored, err := repo.Create(context.Background(), &models.PayrollRecord{
		TutorID: "tutor-1",
		OrderID: "order-1",
		Amount:  630000,
	})
	require.NoError(t, err)
	assert.Equal(t, "pay-1", stored.ID)
	assert.Equal(t, models.PayrollStatusPending, stored.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollCreateConflict(t *testing.T) {
	// Second record for the same (tutor, order) pair hits the unique
	// constraint and returns no row.
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPayrollRepository(db)

	mock.ExpectQuery("INSERT INTO payroll_records").
		WillReturnRows(sqlmock.NewRows(payrollColumns()))

	_, err := repo.Create(context.Background(), &models.PayrollRecord{
		TutorID: "tutor-1",
		OrderID: "order-1",
		Amount:  630000,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollFindByTutorOrder(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPayrollRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(payrollColumns()).
		AddRow("pay-1", "tutor-1", "order-1", 630000.0, "paid", now)
	mock.ExpectQuery("FROM payroll_records WHERE tutor_id").
		WithArgs("tutor-1", "order-1").
		WillReturnRows(rows)

	record, err := repo.FindByTutorOrder(context.Background(), "tutor-1", "order-1")
	require.NoError(t, err)
	assert.Equal(t, models.PayrollStatusPaid, record.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollListByTutor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPayrollRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(payrollColumns()).
		AddRow("pay-2", "tutor-1", "order-2", 225000.0, "pending", now).
		AddRow("pay-1", "tutor-1", "order-1", 630000.0, "paid", now.Add(-time.Hour))
	mock.ExpectQuery("FROM payroll_records WHERE tutor_id").
		WithArgs("tutor-1").
		WillReturnRows(rows)

	records, err := repo.ListByTutor(context.Background(), "tutor-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "order-2", records[0].OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
