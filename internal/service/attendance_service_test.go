package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

type attendanceSetup struct {
	*fixture
	slot       *model.Slot
	anna       *model.Student
	enrollment *model.Enrollment
}

func newAttendanceSetup(t *testing.T) *attendanceSetup {
	f := newFixture(t)
	reformer := f.modality("reformer")
	s := &attendanceSetup{
		fixture: f,
		slot:    f.slot(reformer.ID, time.Sunday, "11:00", "12:00", 3),
		anna:    f.student("Anna"),
	}
	s.enrollment = f.enroll(s.anna.ID, s.slot.ID)
	return s
}

func TestDeclareAbsenceNotice_MakeupRight(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantRight bool
		wantErr   error
	}{
		{name: "two days ahead", now: time.Date(2024, 5, 31, 11, 0, 0, 0, time.UTC), wantRight: true},
		{name: "exactly 24h", now: time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC), wantRight: true},
		{name: "23h ahead", now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), wantRight: false},
		{name: "already started", now: time.Date(2024, 6, 2, 11, 0, 0, 0, time.UTC), wantErr: model.ErrTooLate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newAttendanceSetup(t)
			s.now = tt.now

			n, err := s.svc.Attendance.DeclareAbsenceNotice(s.ctx, model.AbsenceNoticeInput{
				EnrollmentID: s.enrollment.ID,
				AbsenceDate:  date("2024-06-02"),
				Reason:       "flu",
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRight, n.HasMakeupRight)
			assert.Equal(t, model.NoticeStatusPending, n.Status)
		})
	}
}

func TestDeclareAbsenceNotice_Rejections(t *testing.T) {
	s := newAttendanceSetup(t)

	in := model.AbsenceNoticeInput{EnrollmentID: s.enrollment.ID, AbsenceDate: date("2024-06-02")}
	_, err := s.svc.Attendance.DeclareAbsenceNotice(s.ctx, in)
	require.NoError(t, err)

	_, err = s.svc.Attendance.DeclareAbsenceNotice(s.ctx, in)
	assert.ErrorIs(t, err, model.ErrDuplicateNotice)

	_, err = s.svc.Attendance.DeclareAbsenceNotice(s.ctx, model.AbsenceNoticeInput{
		EnrollmentID: s.enrollment.ID,
		AbsenceDate:  date("2024-06-03"),
	})
	assert.ErrorIs(t, err, model.ErrDayMismatch)

	_, err = s.svc.Attendance.DeclareAbsenceNotice(s.ctx, model.AbsenceNoticeInput{
		EnrollmentID: 999,
		AbsenceDate:  date("2024-06-02"),
	})
	assert.ErrorIs(t, err, model.ErrEnrollmentNotFound)
}

func TestRecordAttendance_ConfirmsPendingNotice(t *testing.T) {
	s := newAttendanceSetup(t)

	n, err := s.svc.Attendance.DeclareAbsenceNotice(s.ctx, model.AbsenceNoticeInput{
		EnrollmentID: s.enrollment.ID,
		AbsenceDate:  date("2024-06-02"),
	})
	require.NoError(t, err)

	occ, err := s.svc.Attendance.ConfirmFromAttendance(s.ctx, s.slot.ID, date("2024-06-02"), s.anna.ID)
	require.NoError(t, err)
	require.NotNil(t, occ.Present)
	assert.False(t, *occ.Present)
	assert.False(t, occ.IsRescheduleOutcome)

	got, err := s.store.Repositories().Notices.GetByID(s.ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NoticeStatusConfirmed, got.Status)
	assert.True(t, got.HasMakeupRight)

	usable, err := s.svc.Attendance.UsableEntitlements(s.ctx, s.anna.ID)
	require.NoError(t, err)
	assert.Len(t, usable, 1)

	// после окончания окна право больше не предлагается
	s.now = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	usable, err = s.svc.Attendance.UsableEntitlements(s.ctx, s.anna.ID)
	require.NoError(t, err)
	assert.Empty(t, usable)
}

func TestRecordAttendance_AbsentWithoutNotice(t *testing.T) {
	s := newAttendanceSetup(t)

	_, err := s.svc.Attendance.RecordAttendance(s.ctx, model.AttendanceInput{
		SlotID:    s.slot.ID,
		Date:      date("2024-06-02"),
		StudentID: s.anna.ID,
		Present:   false,
	})
	require.NoError(t, err)

	notices, err := s.svc.Attendance.ListEntitlements(s.ctx, s.anna.ID)
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, model.NoticeStatusConfirmed, notices[0].Status)
	assert.False(t, notices[0].HasMakeupRight)

	// повторная отметка перезаписывает прежнюю и не плодит уведомления
	_, err = s.svc.Attendance.RecordAttendance(s.ctx, model.AttendanceInput{
		SlotID:    s.slot.ID,
		Date:      date("2024-06-02"),
		StudentID: s.anna.ID,
		Present:   true,
	})
	require.NoError(t, err)

	occurrences, err := s.svc.Attendance.Attendance(s.ctx, s.slot.ID, date("2024-06-02"))
	require.NoError(t, err)
	require.Len(t, occurrences, 1)
	assert.True(t, *occurrences[0].Present)

	notices, err = s.svc.Attendance.ListEntitlements(s.ctx, s.anna.ID)
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, model.NoticeStatusCancelled, notices[0].Status)
}

func TestRecordAttendance_PresentCancelsNotice(t *testing.T) {
	s := newAttendanceSetup(t)

	n, err := s.svc.Attendance.DeclareAbsenceNotice(s.ctx, model.AbsenceNoticeInput{
		EnrollmentID: s.enrollment.ID,
		AbsenceDate:  date("2024-06-02"),
	})
	require.NoError(t, err)

	_, err = s.svc.Attendance.RecordAttendance(s.ctx, model.AttendanceInput{
		SlotID:    s.slot.ID,
		Date:      date("2024-06-02"),
		StudentID: s.anna.ID,
		Present:   true,
	})
	require.NoError(t, err)

	got, err := s.store.Repositories().Notices.GetByID(s.ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NoticeStatusCancelled, got.Status)

	// отменённое уведомление не мешает новому на ту же дату
	_, err = s.svc.Attendance.DeclareAbsenceNotice(s.ctx, model.AbsenceNoticeInput{
		EnrollmentID: s.enrollment.ID,
		AbsenceDate:  date("2024-06-02"),
	})
	assert.NoError(t, err)
}

func TestRecordAttendance_Validation(t *testing.T) {
	s := newAttendanceSetup(t)

	_, err := s.svc.Attendance.RecordAttendance(s.ctx, model.AttendanceInput{
		SlotID:    s.slot.ID,
		Date:      date("2024-06-03"),
		StudentID: s.anna.ID,
	})
	assert.ErrorIs(t, err, model.ErrDayMismatch)

	_, err = s.svc.Attendance.RecordAttendance(s.ctx, model.AttendanceInput{
		SlotID:    999,
		Date:      date("2024-06-02"),
		StudentID: s.anna.ID,
	})
	assert.ErrorIs(t, err, model.ErrSlotNotFound)

	_, err = s.svc.Attendance.RecordAttendance(s.ctx, model.AttendanceInput{
		Date:      date("2024-06-02"),
		StudentID: s.anna.ID,
	})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestCancelNotice(t *testing.T) {
	s := newAttendanceSetup(t)

	n, err := s.svc.Attendance.DeclareAbsenceNotice(s.ctx, model.AbsenceNoticeInput{
		EnrollmentID: s.enrollment.ID,
		AbsenceDate:  date("2024-06-02"),
	})
	require.NoError(t, err)

	require.NoError(t, s.svc.Attendance.CancelNotice(s.ctx, n.ID))
	assert.ErrorIs(t, s.svc.Attendance.CancelNotice(s.ctx, n.ID), model.ErrEntitlementNotUsable)
	assert.ErrorIs(t, s.svc.Attendance.CancelNotice(s.ctx, 999), model.ErrNoticeNotFound)
}
