package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lesprivat/les-api/internal/models"
)

// AttendanceRepository owns the write-once attendance ledger. The unique
// constraint on (lesson_id, participant_id) is the enforcement mechanism for
// write-once semantics, not the application-level checks alone.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Insert persists one attendance record. Returns sql.ErrNoRows when a record
// for the (lesson, participant) pair already exists.
func (r *AttendanceRepository) Insert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO attendance_records (id, lesson_id, participant_id, role, status, reason, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (lesson_id, participant_id) DO NOTHING
RETURNING id, lesson_id, participant_id, role, status, reason, created_at`
	var stored models.AttendanceRecord
	err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.LessonID, record.ParticipantID, record.Role, record.Status, record.Reason, record.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// InsertBatch persists many records inside one transaction, skipping pairs
// that already have a row. Used by the sweep to back-fill absences without
// clobbering a concurrent check-in.
func (r *AttendanceRepository) InsertBatch(ctx context.Context, records []models.AttendanceRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin attendance batch: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	query := `INSERT INTO attendance_records (id, lesson_id, participant_id, role, status, reason, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (lesson_id, participant_id) DO NOTHING`
	now := time.Now().UTC()
	inserted := 0
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		res, err := tx.ExecContext(ctx, query,
			rec.ID, rec.LessonID, rec.ParticipantID, rec.Role, rec.Status, rec.Reason, rec.CreatedAt)
		if err != nil {
			return 0, fmt.Errorf("insert attendance for %s: %w", rec.ParticipantID, err)
		}
		if affected, err := res.RowsAffected(); err == nil {
			inserted += int(affected)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit attendance batch: %w", err)
	}
	committed = true
	return inserted, nil
}

// Exists reports whether a record with the given status exists for the pair.
func (r *AttendanceRepository) Exists(ctx context.Context, lessonID, participantID string, status models.AttendanceStatus) (bool, error) {
	query := `SELECT EXISTS (
SELECT 1 FROM attendance_records WHERE lesson_id = $1 AND participant_id = $2 AND status = $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, lessonID, participantID, status); err != nil {
		return false, fmt.Errorf("check attendance: %w", err)
	}
	return exists, nil
}

// ListByLesson returns all records for one lesson with participant names.
func (r *AttendanceRepository) ListByLesson(ctx context.Context, lessonID string) ([]models.AttendanceRecordDetail, error) {
	query := `SELECT ar.id, ar.lesson_id, ar.participant_id, ar.role, ar.status, ar.reason, ar.created_at,
u.full_name AS participant_name, l.meet, l.date AS lesson_date
FROM attendance_records ar
JOIN lessons l ON l.id = ar.lesson_id
JOIN users u ON u.id = ar.participant_id
WHERE ar.lesson_id = $1
ORDER BY ar.role DESC, u.full_name`
	var rows []models.AttendanceRecordDetail
	if err := r.db.SelectContext(ctx, &rows, query, lessonID); err != nil {
		return nil, fmt.Errorf("list lesson attendance: %w", err)
	}
	return rows, nil
}

// HistoryForParticipant returns a participant's records across one class.
func (r *AttendanceRepository) HistoryForParticipant(ctx context.Context, classID, participantID string) ([]models.AttendanceRecordDetail, error) {
	query := `SELECT ar.id, ar.lesson_id, ar.participant_id, ar.role, ar.status, ar.reason, ar.created_at,
u.full_name AS participant_name, l.meet, l.date AS lesson_date
FROM attendance_records ar
JOIN lessons l ON l.id = ar.lesson_id
JOIN users u ON u.id = ar.participant_id
WHERE l.class_id = $1 AND ar.participant_id = $2
ORDER BY l.meet ASC`
	var rows []models.AttendanceRecordDetail
	if err := r.db.SelectContext(ctx, &rows, query, classID, participantID); err != nil {
		return nil, fmt.Errorf("participant attendance history: %w", err)
	}
	return rows, nil
}

// CountPresent counts a participant's present records across one class.
func (r *AttendanceRepository) CountPresent(ctx context.Context, classID, participantID string) (int, error) {
	query := `SELECT COUNT(*)
FROM attendance_records ar
JOIN lessons l ON l.id = ar.lesson_id
WHERE l.class_id = $1 AND ar.participant_id = $2 AND ar.status = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID, participantID, models.AttendanceStatusPresent); err != nil {
		return 0, fmt.Errorf("count present: %w", err)
	}
	return count, nil
}

// StatusCountsByClass returns grouped status counts per participant for a class.
func (r *AttendanceRepository) StatusCountsByClass(ctx context.Context, classID string) ([]models.AttendanceStatusCount, error) {
	query := `SELECT ar.participant_id, ar.role, ar.status, COUNT(*) AS cnt
FROM attendance_records ar
JOIN lessons l ON l.id = ar.lesson_id
WHERE l.class_id = $1
GROUP BY ar.participant_id, ar.role, ar.status`
	var rows []models.AttendanceStatusCount
	if err := r.db.SelectContext(ctx, &rows, query, classID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("class status counts: %w", err)
	}
	return rows, nil
}
