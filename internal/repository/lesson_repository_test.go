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

func lessonRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "class_id", "meet", "date", "status", "slug", "info", "created_at", "updated_at"})
}

func TestLessonCreateBatch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	now := time.Now().UTC()
	lessons := []models.Lesson{
		{ID: "l1", ClassID: "class-1", Meet: 1, Date: now, Status: models.LessonStatusScheduled, Slug: "slug000001", CreatedAt: now, UpdatedAt: now},
		{ID: "l2", ClassID: "class-1", Meet: 2, Date: now.AddDate(0, 0, 2), Status: models.LessonStatusScheduled, Slug: "slug000002", CreatedAt: now, UpdatedAt: now},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO lessons").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO lessons").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateBatch(context.Background(), lessons))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonCreateBatchRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO lessons").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.CreateBatch(context.Background(), []models.Lesson{{ID: "l1", Meet: 1}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRescheduleSuccess(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	newDate := time.Date(2026, time.September, 20, 8, 0, 0, 0, time.UTC)
	updatedAt := time.Now().UTC()
	rows := lessonRows().AddRow("l1", "class-1", 2, newDate, "rescheduled", "slug000001", nil, updatedAt, updatedAt)
	mock.ExpectQuery("UPDATE lessons SET date").
		WithArgs(newDate, "rescheduled", updatedAt, "l1", "scheduled", "present", "excused").
		WillReturnRows(rows)

	lesson, err := repo.Reschedule(context.Background(), "l1", newDate, updatedAt)
	require.NoError(t, err)
	assert.Equal(t, models.LessonStatusRescheduled, lesson.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRescheduleConditionFails(t *testing.T) {
	// Already rescheduled or blocked by attendance: the guarded update matches
	// nothing and the caller receives sql.ErrNoRows.
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery("UPDATE lessons SET date").WillReturnRows(lessonRows())

	_, err := repo.Reschedule(context.Background(), "l1", time.Now(), time.Now())
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonHasBlockingAttendance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("l1", "present", "excused").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	blocked, err := repo.HasBlockingAttendance(context.Background(), "l1")
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonAnnotate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	updatedAt := time.Now().UTC()
	info := "bring chapter 4"
	rows := lessonRows().AddRow("l1", "class-1", 2, updatedAt, "scheduled", "slug000001", info, updatedAt, updatedAt)
	mock.ExpectQuery("UPDATE lessons SET info").
		WithArgs(info, updatedAt, "l1").
		WillReturnRows(rows)

	lesson, err := repo.Annotate(context.Background(), "l1", info, updatedAt)
	require.NoError(t, err)
	require.NotNil(t, lesson.Info)
	assert.Equal(t, info, *lesson.Info)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonListUnattendedBefore(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	cutoff := time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "class_id", "meet", "date", "status", "slug", "info", "created_at", "updated_at",
		"order_id", "tutor_id", "total_meetings", "price"}).
		AddRow("l1", "class-1", 1, cutoff.AddDate(0, 0, -1), "scheduled", "slug000001", nil, cutoff, cutoff,
			"order-1", "tutor-1", 3, 1200000.0)
	mock.ExpectQuery("NOT EXISTS").
		WithArgs(cutoff).
		WillReturnRows(rows)

	lessons, err := repo.ListUnattendedBefore(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, "order-1", lessons[0].OrderID)
	require.NotNil(t, lessons[0].TutorID)
	assert.Equal(t, "tutor-1", *lessons[0].TutorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	now := time.Now().UTC()
	status := models.LessonStatusScheduled
	rows := lessonRows().AddRow("l1", "class-1", 1, now, "scheduled", "slug000001", nil, now, now)
	mock.ExpectQuery("SELECT id, class_id, meet, date, status, slug, info, created_at, updated_at FROM lessons").
		WithArgs("class-1", "scheduled").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("class-1", "scheduled").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	lessons, total, err := repo.List(context.Background(), models.LessonFilter{ClassID: "class-1", Status: &status})
	require.NoError(t, err)
	assert.Len(t, lessons, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonSlugExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("slug000001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.SlugExists(context.Background(), "slug000001")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
