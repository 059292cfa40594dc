package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lesprivat/les-api/internal/models"
)

// LessonRepository handles persistence for lesson occurrences.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs the repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

const lessonColumns = "id, class_id, meet, date, status, slug, info, created_at, updated_at"

// CreateBatch persists a full lesson sequence in one transaction. The caller
// supplies lessons with meet indices 1..N and pre-generated slugs.
func (r *LessonRepository) CreateBatch(ctx context.Context, lessons []models.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin lesson batch: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	query := `INSERT INTO lessons (id, class_id, meet, date, status, slug, info, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for i := range lessons {
		l := &lessons[i]
		if _, err := tx.ExecContext(ctx, query, l.ID, l.ClassID, l.Meet, l.Date, l.Status, l.Slug, l.Info, l.CreatedAt, l.UpdatedAt); err != nil {
			return fmt.Errorf("insert lesson %d: %w", l.Meet, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lesson batch: %w", err)
	}
	committed = true
	return nil
}

// FindDetailByID returns a lesson joined with its class context.
func (r *LessonRepository) FindDetailByID(ctx context.Context, id string) (*models.LessonDetail, error) {
	query := `SELECT l.id, l.class_id, l.meet, l.date, l.status, l.slug, l.info, l.created_at, l.updated_at,
c.order_id, c.tutor_id, c.total_meetings, c.price
FROM lessons l
JOIN classes c ON c.id = l.class_id
WHERE l.id = $1`
	var detail models.LessonDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindBySlug resolves a lesson by its shareable slug.
func (r *LessonRepository) FindBySlug(ctx context.Context, slug string) (*models.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE slug = $1", lessonColumns)
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, slug); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// SlugExists reports whether a slug is already taken.
func (r *LessonRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM lessons WHERE slug = $1)", slug); err != nil {
		return false, fmt.Errorf("check lesson slug: %w", err)
	}
	return exists, nil
}

// List returns lessons matching the filter ordered by meet index.
func (r *LessonRepository) List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.ClassID != "" {
		where = append(where, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM lessons WHERE %s ORDER BY meet %s LIMIT %d OFFSET %d",
		lessonColumns, whereClause, order, size, offset)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lessons: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM lessons WHERE %s", whereClause)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count lessons: %w", err)
	}
	return lessons, total, nil
}

// Reschedule moves a lesson to a new date. The update is conditional on the
// lesson still being in scheduled status with no present/excused attendance,
// which closes the race against concurrent reschedules and check-ins.
// Returns sql.ErrNoRows when the condition does not hold; the caller inspects
// current state to map the conflict.
func (r *LessonRepository) Reschedule(ctx context.Context, id string, newDate, updatedAt time.Time) (*models.Lesson, error) {
	query := fmt.Sprintf(`UPDATE lessons SET date = $1, status = $2, updated_at = $3
WHERE id = $4
  AND status = $5
  AND NOT EXISTS (
    SELECT 1 FROM attendance_records ar
    WHERE ar.lesson_id = lessons.id AND ar.status IN ($6, $7)
  )
RETURNING %s`, lessonColumns)
	var lesson models.Lesson
	err := r.db.GetContext(ctx, &lesson, query,
		newDate, models.LessonStatusRescheduled, updatedAt, id,
		models.LessonStatusScheduled,
		models.AttendanceStatusPresent, models.AttendanceStatusExcused)
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

// HasBlockingAttendance reports whether any present/excused record exists for
// the lesson. Used to disambiguate a failed conditional reschedule.
func (r *LessonRepository) HasBlockingAttendance(ctx context.Context, lessonID string) (bool, error) {
	query := `SELECT EXISTS (
SELECT 1 FROM attendance_records WHERE lesson_id = $1 AND status IN ($2, $3))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, lessonID, models.AttendanceStatusPresent, models.AttendanceStatusExcused); err != nil {
		return false, fmt.Errorf("check blocking attendance: %w", err)
	}
	return exists, nil
}

// Annotate overwrites the lesson's free-text annotation, last write wins.
func (r *LessonRepository) Annotate(ctx context.Context, id, info string, updatedAt time.Time) (*models.Lesson, error) {
	query := fmt.Sprintf("UPDATE lessons SET info = $1, updated_at = $2 WHERE id = $3 RETURNING %s", lessonColumns)
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, info, updatedAt, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// ListUnattendedBefore selects lessons whose date has passed with zero
// attendance records. Lessons touched by a previous sweep grow attendance
// rows and drop out of this predicate, making the sweep idempotent.
func (r *LessonRepository) ListUnattendedBefore(ctx context.Context, cutoff time.Time) ([]models.LessonDetail, error) {
	query := `SELECT l.id, l.class_id, l.meet, l.date, l.status, l.slug, l.info, l.created_at, l.updated_at,
c.order_id, c.tutor_id, c.total_meetings, c.price
FROM lessons l
JOIN classes c ON c.id = l.class_id
WHERE l.date < $1
  AND NOT EXISTS (SELECT 1 FROM attendance_records ar WHERE ar.lesson_id = l.id)
ORDER BY l.date ASC`
	var lessons []models.LessonDetail
	if err := r.db.SelectContext(ctx, &lessons, query, cutoff); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("list unattended lessons: %w", err)
	}
	return lessons, nil
}
