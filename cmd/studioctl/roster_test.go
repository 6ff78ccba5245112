package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/studio_scheduler/internal/service"
)

// 2024-06-01 суббота
var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) (*env, *service.Services) {
	t.Helper()
	clock := service.Clock{Now: func() time.Time { return fixedNow }, Location: time.UTC}
	svc := service.New(memory.NewStore(), clock, service.DefaultPolicy(), nil, zap.NewNop())
	e := &env{
		logger: zap.NewNop(),
		open: func(context.Context) (*service.Services, func(), error) {
			return svc, func() {}, nil
		},
	}
	return e, svc
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRosterCommands_FullCycle(t *testing.T) {
	e, svc := newTestEnv(t)
	ctx := context.Background()

	out, err := run(t, newCreateModalityCmd(e), "--name", "Pilates")
	require.NoError(t, err)
	assert.Contains(t, out, "modality 1 created")

	out, err = run(t, newCreateSlotCmd(e),
		"--teacher", "7", "--modality", "1", "--weekday", "1",
		"--start", "08:00", "--end", "09:00", "--capacity", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "slot 1 created")

	_, err = run(t, newRegisterStudentCmd(e), "--name", "Anna")
	require.NoError(t, err)

	out, err = run(t, newEnrollCmd(e), "--slot", "1", "--student", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "enrollment 1 created")

	// 2024-06-03 понедельник
	out, err = run(t, newMarkAttendanceCmd(e), "--slot", "1", "--student", "1", "--date", "2024-06-03", "--absent")
	require.NoError(t, err)
	assert.Contains(t, out, "marked absent on 2024-06-03")

	occ, err := svc.Attendance.Attendance(ctx, 1, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, occ, 1)
	require.NotNil(t, occ[0].Present)
	assert.False(t, *occ[0].Present)

	_, err = run(t, newUnenrollCmd(e), "1")
	require.NoError(t, err)
	enrollments, err := svc.Enrollments.ListBySlot(ctx, 1)
	require.NoError(t, err)
	for _, en := range enrollments {
		assert.False(t, en.IsActive)
	}

	_, err = run(t, newDeactivateSlotCmd(e), "1")
	require.NoError(t, err)
	slot, err := svc.Slots.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, slot.IsActive)
}

func TestEnrollCommand_FullSlot(t *testing.T) {
	e, _ := newTestEnv(t)

	_, err := run(t, newCreateModalityCmd(e), "--name", "Yoga")
	require.NoError(t, err)
	_, err = run(t, newCreateSlotCmd(e),
		"--teacher", "7", "--modality", "1", "--weekday", "3",
		"--start", "10:00", "--end", "11:00", "--capacity", "1")
	require.NoError(t, err)
	_, err = run(t, newRegisterStudentCmd(e), "--name", "Anna")
	require.NoError(t, err)
	_, err = run(t, newRegisterStudentCmd(e), "--name", "Boris")
	require.NoError(t, err)

	_, err = run(t, newEnrollCmd(e), "--slot", "1", "--student", "1")
	require.NoError(t, err)
	_, err = run(t, newEnrollCmd(e), "--slot", "1", "--student", "2")
	assert.ErrorIs(t, err, model.ErrCapacityExceeded)
}

func TestDecisionCommands_RejectAndApprove(t *testing.T) {
	e, svc := newTestEnv(t)
	ctx := context.Background()

	_, err := svc.Directory.CreateModality(ctx, "Pilates", nil, nil)
	require.NoError(t, err)
	mon, err := svc.Slots.Create(ctx, model.CreateSlotInput{
		TeacherID: 7, ModalityID: 1, Weekday: 1, Start: "08:00", End: "09:00", Capacity: 1,
	})
	require.NoError(t, err)
	wed, err := svc.Slots.Create(ctx, model.CreateSlotInput{
		TeacherID: 7, ModalityID: 1, Weekday: 3, Start: "10:00", End: "11:00", Capacity: 1,
	})
	require.NoError(t, err)
	anna, err := svc.Directory.RegisterStudent(ctx, "Anna", nil)
	require.NoError(t, err)
	enrollment, err := svc.Enrollments.Enroll(ctx, model.EnrollInput{SlotID: mon.ID, StudentID: anna.ID})
	require.NoError(t, err)

	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	notice, err := svc.Attendance.DeclareAbsenceNotice(ctx, model.AbsenceNoticeInput{
		EnrollmentID: enrollment.ID, AbsenceDate: day, Reason: "trip",
	})
	require.NoError(t, err)
	_, err = svc.Attendance.ConfirmFromAttendance(ctx, mon.ID, day, anna.ID)
	require.NoError(t, err)

	newRequest := func() *model.RescheduleRequest {
		req, err := svc.Reschedule.CreateRequest(ctx, model.CreateRequestInput{
			StudentID:         anna.ID,
			OriginSlotID:      mon.ID,
			OriginDate:        day,
			DestinationSlotID: wed.ID,
			DestinationDate:   time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC),
			IsMakeup:          true,
			NoticeID:          &notice.ID,
			RequestedBy:       model.RequestedByStudent,
		})
		require.NoError(t, err)
		return req
	}

	req := newRequest()
	out, err := run(t, newRejectCmd(e), "--staff", "9", "--reason", "room closed", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "rejected")
	got, err := svc.Reschedule.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRejected())

	req = newRequest()
	out, err = run(t, newApproveCmd(e), "--staff", "9", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "approved")
	got, err = svc.Reschedule.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, got.IsApproved())
}

func TestParseID(t *testing.T) {
	id, err := parseID("42", "slot")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		_, err := parseID(bad, "slot")
		assert.Error(t, err, bad)
	}
}
