package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

func TestHoliday_ReversesCreditMakeup(t *testing.T) {
	f := newFixture(t)
	reformer := f.modality("reformer")
	mon := f.slot(reformer.ID, time.Monday, "08:00", "09:00", 1)
	sat := f.slot(reformer.ID, time.Saturday, "12:00", "13:00", 2)
	anna := f.student("Anna")
	origin := f.enroll(anna.ID, mon.ID)

	credit, err := f.svc.Credits.Grant(f.ctx, model.GrantCreditInput{
		StudentID:  anna.ID,
		Quantity:   1,
		Reason:     "teacher sick",
		ExpiryDate: date("2024-12-31"),
	})
	require.NoError(t, err)

	req, err := f.svc.Reschedule.CreateRequest(f.ctx, model.CreateRequestInput{
		StudentID:         anna.ID,
		OriginSlotID:      mon.ID,
		OriginDate:        date("2024-06-03"),
		DestinationSlotID: sat.ID,
		DestinationDate:   date("2024-06-01"),
		IsMakeup:          true,
		CreditID:          &credit.ID,
		RequestedBy:       model.RequestedByStudent,
	})
	require.NoError(t, err)
	approved, err := f.svc.Reschedule.Approve(f.ctx, req.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, approved.DestinationEnrollmentID)

	balance, err := f.svc.Credits.Balance(f.ctx, anna.ID)
	require.NoError(t, err)
	require.Zero(t, balance)

	f.now = fixedNow.Add(30 * time.Minute)
	cascade, err := f.svc.Holidays.Declare(f.ctx, date("2024-06-01"), "city holiday")
	require.NoError(t, err)
	assert.Equal(t, 1, cascade.RejectedRequests)
	assert.Equal(t, 1, cascade.ReversedConsumption)

	got, err := f.svc.Reschedule.Get(f.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusRejected, got.Status)
	assert.Contains(t, got.RejectionReason, "city holiday")

	c, err := f.store.Repositories().Credits.GetByID(f.ctx, credit.ID)
	require.NoError(t, err)
	assert.Zero(t, c.QuantityUsed)
	assert.True(t, c.IsActive)

	balance, err = f.svc.Credits.Balance(f.ctx, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, balance)

	back := f.activeEnrollment(anna.ID, mon.ID)
	require.NotNil(t, back)
	assert.Equal(t, origin.ID, back.ID)
	assert.Nil(t, f.activeEnrollment(anna.ID, sat.ID))

	// Время снятия берётся из часов сервиса
	dest, err := f.store.Repositories().Enrollments.GetByID(f.ctx, *approved.DestinationEnrollmentID)
	require.NoError(t, err)
	require.NotNil(t, dest.DeactivatedAt)
	assert.True(t, dest.DeactivatedAt.Equal(fixedNow.Add(30*time.Minute)))

	assert.Equal(t, 1, f.metrics.cascades)
	assert.Equal(t, 1, f.metrics.transitions[transitionForceRejected])
}

func TestHoliday_RestoresNoticeAndCancelsAbsences(t *testing.T) {
	s := newRescheduleSetup(t)

	approved, err := s.svc.Reschedule.CreateRequest(s.ctx, s.makeupInput())
	require.NoError(t, err)
	_, err = s.svc.Reschedule.Approve(s.ctx, approved.ID, 1)
	require.NoError(t, err)

	// второй ученик ждёт решения по переносу на тот же день
	fri := s.slot(s.wed.ModalityID, time.Friday, "18:00", "19:00", 5)
	wedBig := s.slot(s.wed.ModalityID, time.Wednesday, "19:00", "20:00", 5)
	boris := s.student("Boris")
	s.enroll(boris.ID, fri.ID)
	pending, err := s.svc.Reschedule.CreateRequest(s.ctx, model.CreateRequestInput{
		StudentID:         boris.ID,
		OriginSlotID:      fri.ID,
		OriginDate:        date("2024-06-07"),
		DestinationSlotID: wedBig.ID,
		DestinationDate:   date("2024-06-05"),
		RequestedBy:       model.RequestedByStudent,
	})
	require.NoError(t, err)

	// третий ученик предупредил о пропуске в праздничный день
	vera := s.student("Vera")
	veraEnrollment := s.enroll(vera.ID, wedBig.ID)
	veraNotice, err := s.svc.Attendance.DeclareAbsenceNotice(s.ctx, model.AbsenceNoticeInput{
		EnrollmentID: veraEnrollment.ID,
		AbsenceDate:  date("2024-06-05"),
	})
	require.NoError(t, err)

	cascade, err := s.svc.Holidays.Declare(s.ctx, date("2024-06-05"), "renovation")
	require.NoError(t, err)
	assert.Equal(t, 2, cascade.RejectedRequests)
	assert.Equal(t, 1, cascade.CancelledNotices)
	assert.Zero(t, cascade.ReversedConsumption)

	for _, id := range []int64{approved.ID, pending.ID} {
		got, err := s.svc.Reschedule.Get(s.ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.RequestStatusRejected, got.Status)
	}

	notice, err := s.store.Repositories().Notices.GetByID(s.ctx, s.notice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NoticeStatusConfirmed, notice.Status)
	assert.Zero(t, notice.MakeupUsesConsumed)

	cancelled, err := s.store.Repositories().Notices.GetByID(s.ctx, veraNotice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NoticeStatusCancelled, cancelled.Status)

	assert.NotNil(t, s.activeEnrollment(s.anna.ID, s.mon.ID))
	assert.Nil(t, s.activeEnrollment(s.anna.ID, s.wed.ID))
	assert.NotNil(t, s.activeEnrollment(boris.ID, fri.ID))

	ok, err := s.svc.Holidays.IsHoliday(s.ctx, date("2024-06-05"))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 2, s.metrics.transitions[transitionForceRejected])
}

func TestHoliday_DeclareTwice(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Holidays.Declare(f.ctx, date("2024-12-25"), "christmas")
	require.NoError(t, err)

	_, err = f.svc.Holidays.Declare(f.ctx, date("2024-12-25"), "again")
	assert.ErrorIs(t, err, model.ErrHolidayExists)
	assert.ErrorIs(t, err, model.ErrConflict)

	list, err := f.svc.Holidays.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "christmas", list[0].Reason)
	assert.Equal(t, 1, f.metrics.cascades)
}

func TestHoliday_OriginSeatTakenLeavesStudentDisplaced(t *testing.T) {
	s := newRescheduleSetup(t)

	req, err := s.svc.Reschedule.CreateRequest(s.ctx, s.makeupInput())
	require.NoError(t, err)
	_, err = s.svc.Reschedule.Approve(s.ctx, req.ID, 1)
	require.NoError(t, err)

	// освободившееся место в понедельнике занял другой ученик
	boris := s.student("Boris")
	s.enroll(boris.ID, s.mon.ID)

	cascade, err := s.svc.Holidays.Declare(s.ctx, date("2024-06-05"), "renovation")
	require.NoError(t, err)
	assert.Equal(t, 1, cascade.RejectedRequests)
	require.Len(t, cascade.Displaced, 1)
	assert.Equal(t, model.DisplacedStudent{RequestID: req.ID, StudentID: s.anna.ID, SlotID: s.mon.ID}, cascade.Displaced[0])

	onMon, err := s.svc.Enrollments.ListBySlot(s.ctx, s.mon.ID)
	require.NoError(t, err)
	require.Len(t, onMon, 1)
	assert.Equal(t, boris.ID, onMon[0].StudentID)

	assert.Nil(t, s.activeEnrollment(s.anna.ID, s.mon.ID))
	assert.Nil(t, s.activeEnrollment(s.anna.ID, s.wed.ID))
	anna, err := s.svc.Directory.GetStudent(s.ctx, s.anna.ID)
	require.NoError(t, err)
	assert.False(t, anna.IsActive)

	// право на отработку возвращается, даже если место не вернули
	notice, err := s.store.Repositories().Notices.GetByID(s.ctx, s.notice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NoticeStatusConfirmed, notice.Status)
}
