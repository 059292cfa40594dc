package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/lesprivat/les-api/internal/models"
	appErrors "github.com/lesprivat/les-api/pkg/errors"
)

type payrollClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type payrollLedgerReader interface {
	CountPresent(ctx context.Context, classID, participantID string) (int, error)
}

type payrollRepository interface {
	Create(ctx context.Context, record *models.PayrollRecord) (*models.PayrollRecord, error)
	ListByTutor(ctx context.Context, tutorID string) ([]models.PayrollRecord, error)
}

// PayrollService computes tutor compensation when a class completes. The
// amount rewards the tutor's own attendance ratio across the whole course:
// amount = price x tutorShare x (tutorPresent / totalMeetings).
type PayrollService struct {
	classes    payrollClassReader
	ledger     payrollLedgerReader
	payrolls   payrollRepository
	tutorShare float64
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewPayrollService constructs the payroll service. Share values outside
// (0, 1] fall back to the platform default of 0.9. A nil metrics service
// disables instrumentation.
func NewPayrollService(classes payrollClassReader, ledger payrollLedgerReader, payrolls payrollRepository, tutorShare float64, metrics *MetricsService, logger *zap.Logger) *PayrollService {
	if tutorShare <= 0 || tutorShare > 1 {
		tutorShare = 0.9
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayrollService{classes: classes, ledger: ledger, payrolls: payrolls, tutorShare: tutorShare, metrics: metrics, logger: logger}
}

// HandleCompletion consumes one class-completed event and persists a pending
// payroll record. The unique (tutor, order) constraint makes redelivered
// events a no-op, so the trigger fires at most once per class.
func (s *PayrollService) HandleCompletion(ctx context.Context, event models.ClassCompleted) (*models.PayrollRecord, error) {
	class, err := s.classes.FindByID(ctx, event.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.TotalMeetings <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "class has no meetings")
	}

	presentCount, err := s.ledger.CountPresent(ctx, event.ClassID, event.TutorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count tutor attendance")
	}

	amount := s.Amount(class.Price, presentCount, class.TotalMeetings)
	record, err := s.payrolls.Create(ctx, &models.PayrollRecord{
		TutorID: event.TutorID,
		OrderID: class.OrderID,
		Amount:  amount,
		Status:  models.PayrollStatusPending,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info("payroll already recorded, skipping",
				zap.String("class_id", event.ClassID),
				zap.String("tutor_id", event.TutorID))
			return nil, appErrors.ErrPayrollExists
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist payroll")
	}

	if s.metrics != nil {
		s.metrics.IncPayrollCreated()
	}
	s.logger.Info("payroll recorded",
		zap.String("class_id", event.ClassID),
		zap.String("tutor_id", event.TutorID),
		zap.Float64("amount", amount),
		zap.Int("present", presentCount),
		zap.Int("meetings", class.TotalMeetings))
	return record, nil
}

// Amount computes the compensation for a tutor attendance ratio.
func (s *PayrollService) Amount(price float64, presentCount, totalMeetings int) float64 {
	if totalMeetings <= 0 {
		return 0
	}
	ratio := float64(presentCount) / float64(totalMeetings)
	return price * s.tutorShare * ratio
}

// TutorShare exposes the configured platform split.
func (s *PayrollService) TutorShare() float64 {
	return s.tutorShare
}

// ListByTutor returns all payroll records for a tutor.
func (s *PayrollService) ListByTutor(ctx context.Context, tutorID string) ([]models.PayrollRecord, error) {
	records, err := s.payrolls.ListByTutor(ctx, tutorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payroll")
	}
	return records, nil
}
