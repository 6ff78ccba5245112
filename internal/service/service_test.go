package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository/memory"
)

// 2024-06-01 суббота
var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type recordingMetrics struct {
	transitions map[string]int
	cascades    int
}

func (m *recordingMetrics) RequestTransition(t string) {
	if m.transitions == nil {
		m.transitions = make(map[string]int)
	}
	m.transitions[t]++
}

func (m *recordingMetrics) HolidayCascade() { m.cascades++ }

type fixture struct {
	t       *testing.T
	ctx     context.Context
	store   *memory.Store
	svc     *Services
	metrics *recordingMetrics
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		store:   memory.NewStore(),
		metrics: &recordingMetrics{},
		now:     fixedNow,
	}
	clock := Clock{Now: func() time.Time { return f.now }, Location: time.UTC}
	f.svc = New(f.store, clock, DefaultPolicy(), f.metrics, zap.NewNop())
	return f
}

func date(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptrTo[T any](v T) *T { return &v }

func (f *fixture) modality(name string, linked ...int64) *model.Modality {
	f.t.Helper()
	m, err := f.svc.Directory.CreateModality(f.ctx, name, linked, nil)
	require.NoError(f.t, err)
	return m
}

func (f *fixture) slot(modalityID int64, weekday time.Weekday, start, end string, capacity int) *model.Slot {
	f.t.Helper()
	s, err := f.svc.Slots.Create(f.ctx, model.CreateSlotInput{
		TeacherID:  1,
		ModalityID: modalityID,
		Weekday:    int(weekday),
		Start:      start,
		End:        end,
		Capacity:   capacity,
	})
	require.NoError(f.t, err)
	return s
}

func (f *fixture) student(name string) *model.Student {
	f.t.Helper()
	s, err := f.svc.Directory.RegisterStudent(f.ctx, name, nil)
	require.NoError(f.t, err)
	return s
}

func (f *fixture) enroll(studentID, slotID int64) *model.Enrollment {
	f.t.Helper()
	e, err := f.svc.Enrollments.Enroll(f.ctx, model.EnrollInput{SlotID: slotID, StudentID: studentID})
	require.NoError(f.t, err)
	return e
}

// confirmedNotice уведомление заранее и отметка отсутствия
func (f *fixture) confirmedNotice(enrollment *model.Enrollment, day time.Time) *model.AbsenceNotice {
	f.t.Helper()
	n, err := f.svc.Attendance.DeclareAbsenceNotice(f.ctx, model.AbsenceNoticeInput{
		EnrollmentID: enrollment.ID,
		AbsenceDate:  day,
		Reason:       "trip",
	})
	require.NoError(f.t, err)
	_, err = f.svc.Attendance.ConfirmFromAttendance(f.ctx, enrollment.SlotID, day, enrollment.StudentID)
	require.NoError(f.t, err)

	got, err := f.store.Repositories().Notices.GetByID(f.ctx, n.ID)
	require.NoError(f.t, err)
	require.Equal(f.t, model.NoticeStatusConfirmed, got.Status)
	return got
}

func (f *fixture) activeEnrollment(studentID, slotID int64) *model.Enrollment {
	f.t.Helper()
	e, err := f.store.Repositories().Enrollments.GetActive(f.ctx, studentID, slotID)
	require.NoError(f.t, err)
	return e
}
