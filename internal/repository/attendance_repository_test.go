package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesprivat/les-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func attendanceColumns() []string {
	return []string{"id", "lesson_id", "participant_id", "role", "status", "reason", "created_at"}
}

func TestAttendanceInsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(attendanceColumns()).
		AddRow("rec-1", "lesson-1", "stu-1", "student", "present", nil, now)
	mock.ExpectQuery("INSERT INTO attendance_records").
		WithArgs(sqlmock.AnyArg(), "lesson-1", "stu-1", "student", "present", nil, sqlmock.AnyArg()).
		WillReturnRows(rows)

	stored, err := repo.Insert(context.Background(), &models.AttendanceRecord{
		LessonID:      "lesson-1",
		ParticipantID: "stu-1",
		Role:          models.ParticipantStudent,
		Status:        models.AttendanceStatusPresent,
	})
	require.NoError(t, err)
	assert.Equal(t, "rec-1", stored.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceInsertConflict(t *testing.T) {
	// ON CONFLICT DO NOTHING returns no row for a duplicate pair; the caller
	// sees sql.ErrNoRows and maps it to the write-once error.
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("INSERT INTO attendance_records").
		WillReturnRows(sqlmock.NewRows(attendanceColumns()))

	_, err := repo.Insert(context.Background(), &models.AttendanceRecord{
		LessonID:      "lesson-1",
		ParticipantID: "stu-1",
		Role:          models.ParticipantStudent,
		Status:        models.AttendanceStatusPresent,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceInsertBatchCountsOnlyNewRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	// First row inserts, second hits the conflict and affects zero rows.
	mock.ExpectExec("INSERT INTO attendance_records").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO attendance_records").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	inserted, err := repo.InsertBatch(context.Background(), []models.AttendanceRecord{
		{LessonID: "lesson-1", ParticipantID: "tutor-1", Role: models.ParticipantTutor, Status: models.AttendanceStatusAbsent},
		{LessonID: "lesson-1", ParticipantID: "stu-1", Role: models.ParticipantStudent, Status: models.AttendanceStatusAbsent},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceInsertBatchEmpty(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	inserted, err := repo.InsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

func TestAttendanceExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("lesson-1", "tutor-1", "present").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), "lesson-1", "tutor-1", models.AttendanceStatusPresent)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceCountPresent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("class-1", "tutor-1", "present").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountPresent(context.Background(), "class-1", "tutor-1")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceStatusCountsByClass(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"participant_id", "role", "status", "cnt"}).
		AddRow("stu-1", "student", "present", 4).
		AddRow("stu-1", "student", "absent", 1)
	mock.ExpectQuery("GROUP BY ar.participant_id").
		WithArgs("class-1").
		WillReturnRows(rows)

	counts, err := repo.StatusCountsByClass(context.Background(), "class-1")
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, models.AttendanceStatusPresent, counts[0].Status)
	assert.Equal(t, 4, counts[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
