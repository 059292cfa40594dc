package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lesprivat/les-api/internal/models"
	appErrors "github.com/lesprivat/les-api/pkg/errors"
)

type sweeperLessonRepository interface {
	ListUnattendedBefore(ctx context.Context, cutoff time.Time) ([]models.LessonDetail, error)
}

type sweeperClassReader interface {
	ListStudentIDs(ctx context.Context, classID string) ([]string, error)
}

type sweeperLedgerWriter interface {
	InsertBatch(ctx context.Context, records []models.AttendanceRecord) (int, error)
}

// SweeperService back-fills absent records for lessons whose date passed
// with zero attendance. Selection by "zero attendance records" makes
// repeated runs idempotent: a swept lesson never matches again.
type SweeperService struct {
	lessons sweeperLessonRepository
	classes sweeperClassReader
	ledger  sweeperLedgerWriter
	logger  *zap.Logger
}

// NewSweeperService constructs the sweeper.
func NewSweeperService(lessons sweeperLessonRepository, classes sweeperClassReader, ledger sweeperLedgerWriter, logger *zap.Logger) *SweeperService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweeperService{lessons: lessons, classes: classes, ledger: ledger, logger: logger}
}

// Sweep processes every lapsed unattended lesson and returns how many were
// handled. A failure on one lesson is logged and skipped; the next run picks
// that lesson up again. No notifications are sent for swept absences.
func (s *SweeperService) Sweep(ctx context.Context, now time.Time) (int, error) {
	lessons, err := s.lessons.ListUnattendedBefore(ctx, now)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to select lapsed lessons")
	}
	if len(lessons) == 0 {
		return 0, nil
	}

	processed := 0
	for i := range lessons {
		lesson := &lessons[i]
		if err := s.sweepLesson(ctx, lesson); err != nil {
			s.logger.Warn("lesson sweep failed",
				zap.String("lesson_id", lesson.ID),
				zap.String("class_id", lesson.ClassID),
				zap.Error(err))
			continue
		}
		processed++
	}

	s.logger.Info("missed-lesson sweep finished",
		zap.Time("cutoff", now),
		zap.Int("selected", len(lessons)),
		zap.Int("processed", processed))
	return processed, nil
}

func (s *SweeperService) sweepLesson(ctx context.Context, lesson *models.LessonDetail) error {
	students, err := s.classes.ListStudentIDs(ctx, lesson.ClassID)
	if err != nil {
		return err
	}

	records := make([]models.AttendanceRecord, 0, len(students)+1)
	if lesson.TutorID != nil && *lesson.TutorID != "" {
		records = append(records, models.AttendanceRecord{
			LessonID:      lesson.ID,
			ParticipantID: *lesson.TutorID,
			Role:          models.ParticipantTutor,
			Status:        models.AttendanceStatusAbsent,
		})
	}
	for _, studentID := range students {
		records = append(records, models.AttendanceRecord{
			LessonID:      lesson.ID,
			ParticipantID: studentID,
			Role:          models.ParticipantStudent,
			Status:        models.AttendanceStatusAbsent,
		})
	}
	if len(records) == 0 {
		return nil
	}

	// ON CONFLICT DO NOTHING under the batch keeps a concurrent check-in
	// authoritative; whichever write commits first wins the pair.
	_, err = s.ledger.InsertBatch(ctx, records)
	return err
}
