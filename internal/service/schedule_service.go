package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lesprivat/les-api/internal/models"
	appErrors "github.com/lesprivat/les-api/pkg/errors"
)

// rescheduleDateLayout is the accepted wire format for reschedule targets.
const rescheduleDateLayout = "2006-01-02 15:04"

// slugAttempts bounds slug regeneration on collision.
const slugAttempts = 5

type scheduleClassReader interface {
	FindContext(ctx context.Context, id string) (*models.ClassContext, error)
}

type scheduleLessonRepository interface {
	CreateBatch(ctx context.Context, lessons []models.Lesson) error
	FindDetailByID(ctx context.Context, id string) (*models.LessonDetail, error)
	FindBySlug(ctx context.Context, slug string) (*models.Lesson, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error)
	Reschedule(ctx context.Context, id string, newDate, updatedAt time.Time) (*models.Lesson, error)
	HasBlockingAttendance(ctx context.Context, lessonID string) (bool, error)
	Annotate(ctx context.Context, id, info string, updatedAt time.Time) (*models.Lesson, error)
}

type scheduleUserDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ScheduleService owns the persisted lesson sequence of a class: one-time
// creation, the single allowed reschedule, and annotations.
type ScheduleService struct {
	classes   scheduleClassReader
	lessons   scheduleLessonRepository
	users     scheduleUserDirectory
	notifier  Notifier
	validator *validator.Validate
	logger    *zap.Logger
	clock     func() time.Time
}

// NewScheduleService constructs the schedule service. A nil clock defaults
// to time.Now.
func NewScheduleService(classes scheduleClassReader, lessons scheduleLessonRepository, users scheduleUserDirectory, notifier Notifier, validate *validator.Validate, logger *zap.Logger, clock func() time.Time) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ScheduleService{classes: classes, lessons: lessons, users: users, notifier: notifier, validator: validate, logger: logger, clock: clock}
}

// CreateSequence generates and persists the full lesson sequence for a class.
// Fixed-start classes anchor on their explicit start date; rolling-start
// classes begin the day after creation, never same-day.
func (s *ScheduleService) CreateSequence(ctx context.Context, classID string) ([]models.Lesson, error) {
	class, err := s.classes.FindContext(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	anchor := s.clock().AddDate(0, 0, 1)
	if class.StartDate != nil {
		anchor = *class.StartDate
	}

	dates, err := GenerateOccurrences(class.Weekdays, anchor, class.TotalMeetings, class.TimeOfDay)
	if err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	lessons := make([]models.Lesson, 0, len(dates))
	for i, date := range dates {
		slug, err := s.newSlug(ctx)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, models.Lesson{
			ID:        uuid.NewString(),
			ClassID:   class.ID,
			Meet:      i + 1,
			Date:      date,
			Status:    models.LessonStatusScheduled,
			Slug:      slug,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if err := s.lessons.CreateBatch(ctx, lessons); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist lesson sequence")
	}

	s.logger.Info("lesson sequence created",
		zap.String("class_id", class.ID),
		zap.Int("meetings", len(lessons)),
		zap.Time("first", dates[0]),
		zap.Time("last", dates[len(dates)-1]))
	return lessons, nil
}

// RescheduleRequest is the payload for moving a lesson.
type RescheduleRequest struct {
	Date string `json:"date" validate:"required"`
}

// Reschedule moves a lesson once. The transition scheduled -> rescheduled is
// terminal and blocked as soon as a present/excused attendance record exists.
func (s *ScheduleService) Reschedule(ctx context.Context, lessonID string, req RescheduleRequest, actor *models.JWTClaims) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}

	newDate, err := time.ParseInLocation(rescheduleDateLayout, req.Date, time.Local)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidDate.Code, appErrors.ErrInvalidDate.Status, appErrors.ErrInvalidDate.Message)
	}
	if newDate.Before(s.clock()) {
		return nil, appErrors.ErrPastDate
	}

	detail, err := s.lessons.FindDetailByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if detail.Status == models.LessonStatusRescheduled {
		return nil, appErrors.ErrAlreadyRescheduled
	}

	lesson, err := s.lessons.Reschedule(ctx, lessonID, newDate, s.clock().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The conditional update lost a race; inspect state to name the conflict.
			blocked, checkErr := s.lessons.HasBlockingAttendance(ctx, lessonID)
			if checkErr == nil && blocked {
				return nil, appErrors.ErrAttendanceRecorded
			}
			return nil, appErrors.ErrAlreadyRescheduled
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reschedule lesson")
	}

	s.notifyReschedule(ctx, detail, lesson, actor)
	return lesson, nil
}

// AnnotateRequest carries the free-text annotation for a lesson.
type AnnotateRequest struct {
	Info string `json:"info" validate:"required"`
}

// Annotate overwrites the lesson annotation, last write wins.
func (s *ScheduleService) Annotate(ctx context.Context, lessonID string, req AnnotateRequest) (*models.Lesson, error) {
	if strings.TrimSpace(req.Info) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "annotation text is required")
	}
	lesson, err := s.lessons.Annotate(ctx, lessonID, req.Info, s.clock().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to annotate lesson")
	}
	return lesson, nil
}

// BySlug resolves a lesson from its shareable slug.
func (s *ScheduleService) BySlug(ctx context.Context, slug string) (*models.Lesson, error) {
	lesson, err := s.lessons.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve lesson slug")
	}
	return lesson, nil
}

// ListByClass returns the ordered lesson sequence of a class.
func (s *ScheduleService) ListByClass(ctx context.Context, classID string, filter models.LessonFilter) ([]models.Lesson, *models.Pagination, error) {
	filter.ClassID = classID
	lessons, total, err := s.lessons.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return lessons, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *ScheduleService) newSlug(ctx context.Context) (string, error) {
	for i := 0; i < slugAttempts; i++ {
		slug := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
		exists, err := s.lessons.SlugExists(ctx, slug)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slug")
		}
		if !exists {
			return slug, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrInternal, "could not allocate unique lesson slug")
}

// notifyReschedule tells the tutor and every enrolled student who moved the
// lesson. The actor label depends on whether an admin, the tutor themself,
// or another party performed the change.
func (s *ScheduleService) notifyReschedule(ctx context.Context, detail *models.LessonDetail, lesson *models.Lesson, actor *models.JWTClaims) {
	class, err := s.classes.FindContext(ctx, detail.ClassID)
	if err != nil {
		s.logger.Warn("reschedule notification skipped", zap.String("class_id", detail.ClassID), zap.Error(err))
		return
	}

	when := lesson.Date.Format(rescheduleDateLayout)
	label := s.actorLabel(ctx, class, actor)
	body := fmt.Sprintf("Lesson %d was moved to %s by %s.", lesson.Meet, when, label)

	for _, studentID := range class.StudentIDs {
		s.notifier.Notify(ctx, studentID, models.NotificationSchedule, body, nil)
	}
	if class.HasTutor() {
		s.notifier.Notify(ctx, *class.TutorID, models.NotificationSchedule, body, nil)
	}
}

func (s *ScheduleService) actorLabel(ctx context.Context, class *models.ClassContext, actor *models.JWTClaims) string {
	if actor == nil {
		return "the platform"
	}
	if actor.Role == models.RoleAdmin {
		return "the admin team"
	}
	if class.IsTutor(actor.UserID) {
		return "your tutor"
	}
	if user, err := s.users.FindByID(ctx, actor.UserID); err == nil {
		return user.FullName
	}
	return "a participant"
}
