package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lesprivat/les-api/internal/models"
)

// ClassRepository reads class cohorts and their enrolments. Classes are
// created by the order/payment collaborator; this service never writes them.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID returns a single class row.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	query := `SELECT id, order_id, name, tutor_id, total_meetings, price, weekdays, time_of_day, start_date, created_at, updated_at
FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindContext returns a class together with its enrolled student ids.
func (r *ClassRepository) FindContext(ctx context.Context, id string) (*models.ClassContext, error) {
	class, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	students, err := r.ListStudentIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.ClassContext{Class: *class, StudentIDs: students}, nil
}

// ListStudentIDs returns the ids of students enrolled in the class.
func (r *ClassRepository) ListStudentIDs(ctx context.Context, classID string) ([]string, error) {
	query := `SELECT student_id FROM class_students WHERE class_id = $1 ORDER BY student_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, classID); err != nil {
		return nil, fmt.Errorf("list class students: %w", err)
	}
	return ids, nil
}

// ListByTutor returns all classes taught by the tutor.
func (r *ClassRepository) ListByTutor(ctx context.Context, tutorID string) ([]models.Class, error) {
	query := `SELECT id, order_id, name, tutor_id, total_meetings, price, weekdays, time_of_day, start_date, created_at, updated_at
FROM classes WHERE tutor_id = $1 ORDER BY created_at DESC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, tutorID); err != nil {
		return nil, fmt.Errorf("list classes by tutor: %w", err)
	}
	return classes, nil
}

// ListByStudent returns all classes the student is enrolled in.
func (r *ClassRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Class, error) {
	query := `SELECT c.id, c.order_id, c.name, c.tutor_id, c.total_meetings, c.price, c.weekdays, c.time_of_day, c.start_date, c.created_at, c.updated_at
FROM classes c
JOIN class_students cs ON cs.class_id = c.id
WHERE cs.student_id = $1
ORDER BY c.created_at DESC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, studentID); err != nil {
		return nil, fmt.Errorf("list classes by student: %w", err)
	}
	return classes, nil
}
