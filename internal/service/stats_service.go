package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lesprivat/les-api/internal/models"
	appErrors "github.com/lesprivat/les-api/pkg/errors"
	"github.com/lesprivat/les-api/pkg/export"
)

type statsClassReader interface {
	FindContext(ctx context.Context, id string) (*models.ClassContext, error)
	ListByTutor(ctx context.Context, tutorID string) ([]models.Class, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Class, error)
}

type statsLedgerReader interface {
	StatusCountsByClass(ctx context.Context, classID string) ([]models.AttendanceStatusCount, error)
	CountPresent(ctx context.Context, classID, participantID string) (int, error)
}

type statsPayrollReader interface {
	FindByTutorOrder(ctx context.Context, tutorID, orderID string) (*models.PayrollRecord, error)
}

type statsUserDirectory interface {
	NamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// StatsService derives read-only attendance and payroll projections. It never
// mutates state and tolerates partially populated data: a missing tutor,
// missing price, or zero meetings degrade to zero values.
type StatsService struct {
	classes    statsClassReader
	ledger     statsLedgerReader
	payrolls   statsPayrollReader
	users      statsUserDirectory
	cache      statsCache
	cacheTTL   time.Duration
	tutorShare float64
	logger     *zap.Logger
}

// NewStatsService constructs the projector. A nil cache disables caching.
func NewStatsService(classes statsClassReader, ledger statsLedgerReader, payrolls statsPayrollReader, users statsUserDirectory, cache statsCache, cacheTTL time.Duration, tutorShare float64, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tutorShare <= 0 || tutorShare > 1 {
		tutorShare = 0.9
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &StatsService{classes: classes, ledger: ledger, payrolls: payrolls, users: users, cache: cache, cacheTTL: cacheTTL, tutorShare: tutorShare, logger: logger}
}

// ClassRecap aggregates per-participant attendance for one class. Enrolled
// participants without any record yet appear with zeroed counts. The boolean
// reports whether the recap was served from cache.
func (s *StatsService) ClassRecap(ctx context.Context, classID string) (*models.ClassRecap, bool, error) {
	cacheKey := fmt.Sprintf("stats:class:%s", classID)
	if s.cache != nil {
		var cached models.ClassRecap
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, true, nil
		}
	}

	class, err := s.classes.FindContext(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	counts, err := s.ledger.StatusCountsByClass(ctx, classID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance")
	}

	summaries := make(map[string]*models.AttendanceSummary)
	roles := make(map[string]models.ParticipantRole)
	ensure := func(participantID string, role models.ParticipantRole) *models.AttendanceSummary {
		if summary, ok := summaries[participantID]; ok {
			return summary
		}
		summary := &models.AttendanceSummary{}
		summaries[participantID] = summary
		roles[participantID] = role
		return summary
	}

	if class.HasTutor() {
		ensure(*class.TutorID, models.ParticipantTutor)
	}
	for _, studentID := range class.StudentIDs {
		ensure(studentID, models.ParticipantStudent)
	}
	for _, row := range counts {
		summary := ensure(row.ParticipantID, row.Role)
		switch row.Status {
		case models.AttendanceStatusPresent:
			summary.Present += row.Count
		case models.AttendanceStatusExcused:
			summary.Excused += row.Count
		case models.AttendanceStatusAbsent:
			summary.Absent += row.Count
		}
		summary.Total += row.Count
	}

	ids := make([]string, 0, len(summaries))
	for id := range summaries {
		ids = append(ids, id)
	}
	names, err := s.users.NamesByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("participant name lookup failed", zap.String("class_id", classID), zap.Error(err))
		names = map[string]string{}
	}

	recap := &models.ClassRecap{
		ClassID:       class.ID,
		ClassName:     class.Name,
		TotalMeetings: class.TotalMeetings,
	}
	appendRecap := func(participantID string) {
		summary := summaries[participantID]
		summary.Percent = completionPercent(summary.Present, class.TotalMeetings)
		recap.Participants = append(recap.Participants, models.ParticipantRecap{
			ParticipantID:   participantID,
			ParticipantName: names[participantID],
			Role:            roles[participantID],
			Summary:         *summary,
		})
	}
	if class.HasTutor() {
		appendRecap(*class.TutorID)
	}
	for _, studentID := range class.StudentIDs {
		appendRecap(studentID)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, recap, s.cacheTTL); err != nil {
			s.logger.Warn("recap cache write failed", zap.String("class_id", classID), zap.Error(err))
		}
	}
	return recap, false, nil
}

// TutorSummary reports attendance plus projected and actual payroll across a
// tutor's classes.
func (s *StatsService) TutorSummary(ctx context.Context, tutorID string) (*models.TutorSummary, error) {
	classes, err := s.classes.ListByTutor(ctx, tutorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tutor classes")
	}

	summary := &models.TutorSummary{TutorID: tutorID}
	for _, class := range classes {
		present, err := s.ledger.CountPresent(ctx, class.ID, tutorID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
		}

		entry := models.TutorClassPayroll{
			ClassID:   class.ID,
			ClassName: class.Name,
			OrderID:   class.OrderID,
			Attendance: models.AttendanceSummary{
				Present: present,
				Total:   class.TotalMeetings,
				Percent: completionPercent(present, class.TotalMeetings),
			},
		}
		if class.TotalMeetings > 0 {
			entry.ProjectedAmount = class.Price * s.tutorShare * float64(present) / float64(class.TotalMeetings)
		}

		record, err := s.payrolls.FindByTutorOrder(ctx, tutorID, class.OrderID)
		switch {
		case err == nil:
			entry.ActualAmount = &record.Amount
			entry.PayrollStatus = &record.Status
			if record.Status == models.PayrollStatusPaid {
				summary.TotalPaid += record.Amount
			} else {
				summary.TotalPending += record.Amount
			}
		case errors.Is(err, sql.ErrNoRows):
			// Class not completed yet; projection only.
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payroll")
		}

		summary.Classes = append(summary.Classes, entry)
	}
	return summary, nil
}

// StudentSummary reports a student's progress across enrolled classes.
func (s *StatsService) StudentSummary(ctx context.Context, studentID string) (*models.StudentSummary, error) {
	classes, err := s.classes.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student classes")
	}

	summary := &models.StudentSummary{StudentID: studentID}
	for _, class := range classes {
		present, err := s.ledger.CountPresent(ctx, class.ID, studentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
		}
		summary.Classes = append(summary.Classes, models.StudentClassProgress{
			ClassID:       class.ID,
			ClassName:     class.Name,
			TotalMeetings: class.TotalMeetings,
			Summary: models.AttendanceSummary{
				Present: present,
				Total:   class.TotalMeetings,
				Percent: completionPercent(present, class.TotalMeetings),
			},
		})
	}
	return summary, nil
}

// ExportClassRecap renders a class recap as CSV or PDF.
func (s *StatsService) ExportClassRecap(ctx context.Context, classID, format string) ([]byte, string, error) {
	recap, _, err := s.ClassRecap(ctx, classID)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Participant", "Role", "Present", "Excused", "Absent", "Completion %"},
	}
	for _, p := range recap.Participants {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Participant":  p.ParticipantName,
			"Role":         string(p.Role),
			"Present":      fmt.Sprintf("%d", p.Summary.Present),
			"Excused":      fmt.Sprintf("%d", p.Summary.Excused),
			"Absent":       fmt.Sprintf("%d", p.Summary.Absent),
			"Completion %": fmt.Sprintf("%.1f", p.Summary.Percent),
		})
	}

	switch format {
	case "csv":
		payload, err := export.NewCSVExporter().Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		title := fmt.Sprintf("Attendance recap - %s", recap.ClassName)
		payload, err := export.NewPDFExporter().Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// completionPercent guards the zero-meetings case: percentage is defined as
// zero, never a division error.
func completionPercent(present, totalMeetings int) float64 {
	if totalMeetings <= 0 {
		return 0
	}
	return float64(present) / float64(totalMeetings) * 100
}
