package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesprivat/les-api/internal/models"
	appErrors "github.com/lesprivat/les-api/pkg/errors"
)

type statsClassStub struct {
	context    *models.ClassContext
	contextErr error
	byTutor    []models.Class
	byStudent  []models.Class
}

func (s statsClassStub) FindContext(ctx context.Context, id string) (*models.ClassContext, error) {
	if s.contextErr != nil {
		return nil, s.contextErr
	}
	return s.context, nil
}

func (s statsClassStub) ListByTutor(ctx context.Context, tutorID string) ([]models.Class, error) {
	return s.byTutor, nil
}

func (s statsClassStub) ListByStudent(ctx context.Context, studentID string) ([]models.Class, error) {
	return s.byStudent, nil
}

type statsLedgerStub struct {
	counts  []models.AttendanceStatusCount
	present map[string]int
}

func (s statsLedgerStub) StatusCountsByClass(ctx context.Context, classID string) ([]models.AttendanceStatusCount, error) {
	return s.counts, nil
}

func (s statsLedgerStub) CountPresent(ctx context.Context, classID, participantID string) (int, error) {
	return s.present[classID+"/"+participantID], nil
}

type statsPayrollStub struct {
	records map[string]*models.PayrollRecord
}

func (s statsPayrollStub) FindByTutorOrder(ctx context.Context, tutorID, orderID string) (*models.PayrollRecord, error) {
	if record, ok := s.records[tutorID+"/"+orderID]; ok {
		return record, nil
	}
	return nil, sql.ErrNoRows
}

type namesStub struct {
	names map[string]string
}

func (s namesStub) NamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	return s.names, nil
}

type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	payload, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = payload
	return nil
}

func newStatsService(classes statsClassStub, ledger statsLedgerStub, payrolls statsPayrollStub, cache statsCache) *StatsService {
	return NewStatsService(classes, ledger, payrolls,
		namesStub{names: map[string]string{"tutor-1": "Tutor One", "stu-1": "Student One", "stu-2": "Student Two"}},
		cache, time.Minute, 0.9, nil)
}

func TestClassRecapZeroFillsParticipants(t *testing.T) {
	classes := statsClassStub{context: testClassContext()}
	// Only stu-1 has records; tutor-1 and stu-2 must still appear.
	ledger := statsLedgerStub{counts: []models.AttendanceStatusCount{
		{ParticipantID: "stu-1", Role: models.ParticipantStudent, Status: models.AttendanceStatusPresent, Count: 2},
		{ParticipantID: "stu-1", Role: models.ParticipantStudent, Status: models.AttendanceStatusAbsent, Count: 1},
	}}
	svc := newStatsService(classes, ledger, statsPayrollStub{}, nil)

	recap, cacheHit, err := svc.ClassRecap(context.Background(), "class-1")
	require.NoError(t, err)
	assert.False(t, cacheHit)
	require.Len(t, recap.Participants, 3)

	byID := map[string]models.ParticipantRecap{}
	for _, p := range recap.Participants {
		byID[p.ParticipantID] = p
	}
	assert.Equal(t, 2, byID["stu-1"].Summary.Present)
	assert.Equal(t, 1, byID["stu-1"].Summary.Absent)
	assert.InDelta(t, 66.66, byID["stu-1"].Summary.Percent, 0.1)
	assert.Zero(t, byID["stu-2"].Summary.Total)
	assert.Zero(t, byID["tutor-1"].Summary.Total)
	assert.Equal(t, models.ParticipantTutor, byID["tutor-1"].Role)
	assert.Equal(t, "Student Two", byID["stu-2"].ParticipantName)
}

func TestClassRecapServedFromCache(t *testing.T) {
	cache := newMemoryCache()
	classes := statsClassStub{context: testClassContext()}
	svc := newStatsService(classes, statsLedgerStub{}, statsPayrollStub{}, cache)

	_, cacheHit, err := svc.ClassRecap(context.Background(), "class-1")
	require.NoError(t, err)
	assert.False(t, cacheHit)

	recap, cacheHit, err := svc.ClassRecap(context.Background(), "class-1")
	require.NoError(t, err)
	assert.True(t, cacheHit)
	assert.Equal(t, "class-1", recap.ClassID)
}

func TestClassRecapNotFound(t *testing.T) {
	svc := newStatsService(statsClassStub{contextErr: sql.ErrNoRows}, statsLedgerStub{}, statsPayrollStub{}, nil)
	_, _, err := svc.ClassRecap(context.Background(), "gone")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassRecapZeroMeetingsNoDivisionError(t *testing.T) {
	class := testClassContext()
	class.TotalMeetings = 0
	ledger := statsLedgerStub{counts: []models.AttendanceStatusCount{
		{ParticipantID: "stu-1", Role: models.ParticipantStudent, Status: models.AttendanceStatusPresent, Count: 1},
	}}
	svc := newStatsService(statsClassStub{context: class}, ledger, statsPayrollStub{}, nil)

	recap, _, err := svc.ClassRecap(context.Background(), "class-1")
	require.NoError(t, err)
	for _, p := range recap.Participants {
		assert.Zero(t, p.Summary.Percent)
	}
}

func TestTutorSummaryProjectionAndActuals(t *testing.T) {
	paid := &models.PayrollRecord{TutorID: "tutor-1", OrderID: "order-1", Amount: 630000, Status: models.PayrollStatusPaid}
	classes := statsClassStub{byTutor: []models.Class{
		{ID: "class-1", OrderID: "order-1", Name: "Algebra", TotalMeetings: 10, Price: 1000000},
		{ID: "class-2", OrderID: "order-2", Name: "Geometry", TotalMeetings: 10, Price: 500000},
	}}
	ledger := statsLedgerStub{present: map[string]int{
		"class-1/tutor-1": 7,
		"class-2/tutor-1": 5,
	}}
	svc := newStatsService(classes, ledger, statsPayrollStub{records: map[string]*models.PayrollRecord{"tutor-1/order-1": paid}}, nil)

	summary, err := svc.TutorSummary(context.Background(), "tutor-1")
	require.NoError(t, err)
	require.Len(t, summary.Classes, 2)

	completed := summary.Classes[0]
	require.NotNil(t, completed.ActualAmount)
	assert.InDelta(t, 630000, *completed.ActualAmount, 0.001)
	assert.Equal(t, models.PayrollStatusPaid, *completed.PayrollStatus)
	assert.InDelta(t, 630000, completed.ProjectedAmount, 0.001)

	inFlight := summary.Classes[1]
	assert.Nil(t, inFlight.ActualAmount)
	assert.InDelta(t, 225000, inFlight.ProjectedAmount, 0.001)

	assert.InDelta(t, 630000, summary.TotalPaid, 0.001)
	assert.Zero(t, summary.TotalPending)
}

func TestStudentSummary(t *testing.T) {
	classes := statsClassStub{byStudent: []models.Class{
		{ID: "class-1", Name: "Algebra", TotalMeetings: 8},
	}}
	ledger := statsLedgerStub{present: map[string]int{"class-1/stu-1": 6}}
	svc := newStatsService(classes, ledger, statsPayrollStub{}, nil)

	summary, err := svc.StudentSummary(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, summary.Classes, 1)
	assert.Equal(t, 6, summary.Classes[0].Summary.Present)
	assert.InDelta(t, 75, summary.Classes[0].Summary.Percent, 0.001)
}

func TestExportClassRecapCSV(t *testing.T) {
	classes := statsClassStub{context: testClassContext()}
	svc := newStatsService(classes, statsLedgerStub{}, statsPayrollStub{}, nil)

	payload, contentType, err := svc.ExportClassRecap(context.Background(), "class-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(payload), "Participant")
	assert.Contains(t, string(payload), "Student One")
}

func TestExportClassRecapPDF(t *testing.T) {
	classes := statsClassStub{context: testClassContext()}
	svc := newStatsService(classes, statsLedgerStub{}, statsPayrollStub{}, nil)

	payload, contentType, err := svc.ExportClassRecap(context.Background(), "class-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.NotEmpty(t, payload)
}

func TestExportClassRecapUnknownFormat(t *testing.T) {
	svc := newStatsService(statsClassStub{context: testClassContext()}, statsLedgerStub{}, statsPayrollStub{}, nil)
	_, _, err := svc.ExportClassRecap(context.Background(), "class-1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
