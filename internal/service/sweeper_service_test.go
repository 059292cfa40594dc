package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesprivat/les-api/internal/models"
)

type unattendedStub struct {
	lessons []models.LessonDetail
	err     error
}

func (s unattendedStub) ListUnattendedBefore(ctx context.Context, cutoff time.Time) ([]models.LessonDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.lessons, nil
}

type studentListStub struct {
	students map[string][]string
	err      error
}

func (s studentListStub) ListStudentIDs(ctx context.Context, classID string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.students[classID], nil
}

type batchRecorder struct {
	batches [][]models.AttendanceRecord
	err     error
}

func (b *batchRecorder) InsertBatch(ctx context.Context, records []models.AttendanceRecord) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	b.batches = append(b.batches, records)
	return len(records), nil
}

func TestSweepBackfillsAbsences(t *testing.T) {
	lessons := []models.LessonDetail{
		{Lesson: models.Lesson{ID: "lesson-1", ClassID: "class-1"}, TutorID: strPtr("tutor-1")},
	}
	ledger := &batchRecorder{}
	svc := NewSweeperService(
		unattendedStub{lessons: lessons},
		studentListStub{students: map[string][]string{"class-1": {"stu-1", "stu-2"}}},
		ledger,
		nil,
	)

	processed, err := svc.Sweep(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	require.Len(t, ledger.batches, 1)

	batch := ledger.batches[0]
	require.Len(t, batch, 3)
	assert.Equal(t, models.ParticipantTutor, batch[0].Role)
	assert.Equal(t, "tutor-1", batch[0].ParticipantID)
	for _, record := range batch {
		assert.Equal(t, models.AttendanceStatusAbsent, record.Status)
		assert.Equal(t, "lesson-1", record.LessonID)
		assert.Nil(t, record.Reason)
	}
}

func TestSweepNoTutorAssigned(t *testing.T) {
	lessons := []models.LessonDetail{
		{Lesson: models.Lesson{ID: "lesson-1", ClassID: "class-1"}},
	}
	ledger := &batchRecorder{}
	svc := NewSweeperService(
		unattendedStub{lessons: lessons},
		studentListStub{students: map[string][]string{"class-1": {"stu-1"}}},
		ledger,
		nil,
	)

	processed, err := svc.Sweep(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	require.Len(t, ledger.batches, 1)
	require.Len(t, ledger.batches[0], 1)
	assert.Equal(t, models.ParticipantStudent, ledger.batches[0][0].Role)
}

func TestSweepNothingToDo(t *testing.T) {
	ledger := &batchRecorder{}
	svc := NewSweeperService(unattendedStub{}, studentListStub{}, ledger, nil)

	processed, err := svc.Sweep(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Empty(t, ledger.batches)
}

func TestSweepSkipsFailingLesson(t *testing.T) {
	// One lesson fails its student lookup; the other is still processed.
	lessons := []models.LessonDetail{
		{Lesson: models.Lesson{ID: "lesson-1", ClassID: "broken"}, TutorID: strPtr("tutor-1")},
		{Lesson: models.Lesson{ID: "lesson-2", ClassID: "class-1"}, TutorID: strPtr("tutor-1")},
	}
	classes := studentListStub{students: map[string][]string{"class-1": {"stu-1"}}}
	svcOK := NewSweeperService(unattendedStub{lessons: lessons}, failingFirstClassReader{inner: classes}, &batchRecorder{}, nil)

	processed, err := svcOK.Sweep(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
}

type failingFirstClassReader struct {
	inner studentListStub
}

func (f failingFirstClassReader) ListStudentIDs(ctx context.Context, classID string) ([]string, error) {
	if classID == "broken" {
		return nil, errors.New("boom")
	}
	return f.inner.ListStudentIDs(ctx, classID)
}

func TestSweepSelectFailure(t *testing.T) {
	svc := NewSweeperService(unattendedStub{err: errors.New("db down")}, studentListStub{}, &batchRecorder{}, nil)
	_, err := svc.Sweep(context.Background(), time.Now())
	require.Error(t, err)
}
