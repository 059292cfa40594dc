package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lesprivat/les-api/internal/models"
	appErrors "github.com/lesprivat/les-api/pkg/errors"
)

type attendanceLessonReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.LessonDetail, error)
}

type attendanceClassReader interface {
	FindContext(ctx context.Context, id string) (*models.ClassContext, error)
}

type attendanceLedgerRepository interface {
	Insert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	Exists(ctx context.Context, lessonID, participantID string, status models.AttendanceStatus) (bool, error)
	ListByLesson(ctx context.Context, lessonID string) ([]models.AttendanceRecordDetail, error)
	HistoryForParticipant(ctx context.Context, classID, participantID string) ([]models.AttendanceRecordDetail, error)
}

type attendanceUserDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CompletionPublisher receives the class-completed event when the tutor
// checks in present on the final lesson. The payroll consumer enforces
// at-most-once through its own uniqueness constraint, so redelivery is safe.
type CompletionPublisher interface {
	Publish(ctx context.Context, event models.ClassCompleted) error
}

// AttendanceService owns the write-once attendance ledger and the
// tutor-first ordering rule.
type AttendanceService struct {
	lessons     attendanceLessonReader
	classes     attendanceClassReader
	ledger      attendanceLedgerRepository
	users       attendanceUserDirectory
	notifier    Notifier
	completions CompletionPublisher
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(lessons attendanceLessonReader, classes attendanceClassReader, ledger attendanceLedgerRepository, users attendanceUserDirectory, notifier Notifier, completions CompletionPublisher, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &AttendanceService{
		lessons:     lessons,
		classes:     classes,
		ledger:      ledger,
		users:       users,
		notifier:    notifier,
		completions: completions,
		validator:   validate,
		logger:      logger,
	}
}

// RecordRequest is the check-in payload.
type RecordRequest struct {
	Status string  `json:"status" validate:"required,oneof=present excused absent"`
	Reason *string `json:"reason"`
}

// Record writes one attendance record for the acting participant. Attendance
// is write-once per (lesson, participant); a student may only mark present
// after the tutor's present record exists for the same lesson.
func (s *AttendanceService) Record(ctx context.Context, lessonID string, actorID string, req RecordRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	status := models.AttendanceStatus(req.Status)
	if status == models.AttendanceStatusExcused && (req.Reason == nil || strings.TrimSpace(*req.Reason) == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "excused attendance requires a reason")
	}

	detail, err := s.lessons.FindDetailByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}

	class, err := s.classes.FindContext(ctx, detail.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	var role models.ParticipantRole
	switch {
	case class.IsTutor(actorID):
		role = models.ParticipantTutor
	case class.IsStudent(actorID):
		role = models.ParticipantStudent
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not a participant of this class")
	}

	// Tutor-first ordering: a student cannot be present in a session the
	// tutor has not opened. Skipped when the class has no assigned tutor.
	if role == models.ParticipantStudent && status == models.AttendanceStatusPresent && class.HasTutor() {
		tutorPresent, err := s.ledger.Exists(ctx, lessonID, *class.TutorID, models.AttendanceStatusPresent)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check tutor attendance")
		}
		if !tutorPresent {
			return nil, appErrors.ErrTutorNotYetPresent
		}
	}

	record, err := s.ledger.Insert(ctx, &models.AttendanceRecord{
		LessonID:      lessonID,
		ParticipantID: actorID,
		Role:          role,
		Status:        status,
		Reason:        req.Reason,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyRecorded
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	s.notifyAttendance(ctx, detail, class, record)

	if role == models.ParticipantTutor && status == models.AttendanceStatusPresent && detail.IsLast() {
		s.publishCompletion(ctx, class)
	}
	return record, nil
}

// ListByLesson returns the recorded attendance for one lesson.
func (s *AttendanceService) ListByLesson(ctx context.Context, lessonID string) ([]models.AttendanceRecordDetail, error) {
	rows, err := s.ledger.ListByLesson(ctx, lessonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return rows, nil
}

// History returns one participant's attendance across a class.
func (s *AttendanceService) History(ctx context.Context, classID, participantID string) ([]models.AttendanceRecordDetail, error) {
	rows, err := s.ledger.HistoryForParticipant(ctx, classID, participantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}
	return rows, nil
}

// publishCompletion emits the class-completed event. A publish failure is
// logged and not surfaced: the attendance write has committed and must stand.
func (s *AttendanceService) publishCompletion(ctx context.Context, class *models.ClassContext) {
	if s.completions == nil || !class.HasTutor() {
		return
	}
	event := models.ClassCompleted{ClassID: class.ID, TutorID: *class.TutorID}
	if err := s.completions.Publish(ctx, event); err != nil {
		s.logger.Error("class completion event not published",
			zap.String("class_id", class.ID),
			zap.String("tutor_id", *class.TutorID),
			zap.Error(err))
		return
	}
	s.logger.Info("class completed", zap.String("class_id", class.ID))
}

// notifyAttendance branches on the four actor/status cases the product copy
// distinguishes: student present, student excused, tutor present (session
// started broadcast), tutor excused.
func (s *AttendanceService) notifyAttendance(ctx context.Context, detail *models.LessonDetail, class *models.ClassContext, record *models.AttendanceRecord) {
	actorName := "A participant"
	if user, err := s.users.FindByID(ctx, record.ParticipantID); err == nil {
		actorName = user.FullName
	}

	switch {
	case record.Role == models.ParticipantStudent && record.Status == models.AttendanceStatusPresent:
		if class.HasTutor() {
			body := fmt.Sprintf("%s checked in for lesson %d.", actorName, detail.Meet)
			s.notifier.Notify(ctx, *class.TutorID, models.NotificationAttendance, body, nil)
		}
	case record.Role == models.ParticipantStudent && record.Status == models.AttendanceStatusExcused:
		if class.HasTutor() {
			body := fmt.Sprintf("%s is excused for lesson %d: %s", actorName, detail.Meet, *record.Reason)
			s.notifier.Notify(ctx, *class.TutorID, models.NotificationAttendance, body, nil)
		}
	case record.Role == models.ParticipantTutor && record.Status == models.AttendanceStatusPresent:
		body := fmt.Sprintf("Lesson %d has started, tutor %s is in session.", detail.Meet, actorName)
		for _, studentID := range class.StudentIDs {
			s.notifier.Notify(ctx, studentID, models.NotificationAttendance, body, nil)
		}
	case record.Role == models.ParticipantTutor && record.Status == models.AttendanceStatusExcused:
		body := fmt.Sprintf("Tutor %s is excused for lesson %d: %s", actorName, detail.Meet, *record.Reason)
		for _, studentID := range class.StudentIDs {
			s.notifier.Notify(ctx, studentID, models.NotificationAttendance, body, nil)
		}
	}
}
