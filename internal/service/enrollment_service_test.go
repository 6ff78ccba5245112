package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

func TestEnroll_Capacity(t *testing.T) {
	f := newFixture(t)
	reformer := f.modality("reformer")
	mon := f.slot(reformer.ID, time.Monday, "08:00", "09:00", 1)
	anna := f.student("Anna")
	boris := f.student("Boris")

	f.enroll(anna.ID, mon.ID)

	_, err := f.svc.Enrollments.Enroll(f.ctx, model.EnrollInput{SlotID: mon.ID, StudentID: anna.ID})
	assert.ErrorIs(t, err, model.ErrAlreadyEnrolled)

	_, err = f.svc.Enrollments.Enroll(f.ctx, model.EnrollInput{SlotID: mon.ID, StudentID: boris.ID})
	assert.ErrorIs(t, err, model.ErrSlotFull)

	_, err = f.svc.Enrollments.Enroll(f.ctx, model.EnrollInput{SlotID: mon.ID, StudentID: boris.ID, IsSubstitute: true})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestEnroll_CapacityOverride(t *testing.T) {
	f := newFixture(t)
	two := 2
	small, err := f.svc.Directory.CreateModality(f.ctx, "private", nil, &two)
	require.NoError(t, err)
	slot := f.slot(small.ID, time.Tuesday, "08:00", "09:00", 10)

	f.enroll(f.student("Anna").ID, slot.ID)
	f.enroll(f.student("Boris").ID, slot.ID)
	_, err = f.svc.Enrollments.Enroll(f.ctx, model.EnrollInput{SlotID: slot.ID, StudentID: f.student("Vera").ID})
	assert.ErrorIs(t, err, model.ErrSlotFull)
}

func TestEnroll_SubstituteAndReclaim(t *testing.T) {
	f := newFixture(t)
	reformer := f.modality("reformer")
	mon := f.slot(reformer.ID, time.Monday, "08:00", "09:00", 1)
	anna := f.student("Anna")
	boris := f.student("Boris")
	original := f.enroll(anna.ID, mon.ID)

	in := model.EnrollInput{SlotID: mon.ID, StudentID: boris.ID, IsSubstitute: true, ReplacesEnrollmentID: &original.ID}
	_, err := f.svc.Enrollments.Enroll(f.ctx, in)
	assert.ErrorIs(t, err, model.ErrStudentNotFrozen)

	require.NoError(t, f.svc.Enrollments.Freeze(f.ctx, anna.ID))
	substitute, err := f.svc.Enrollments.Enroll(f.ctx, in)
	require.NoError(t, err)
	assert.True(t, substitute.Substitutes(original.ID))

	enrollments, err := f.svc.Enrollments.ListBySlot(f.ctx, mon.ID)
	require.NoError(t, err)
	assert.Len(t, enrollments, 2)

	assert.ErrorIs(t, f.svc.Enrollments.Reclaim(f.ctx, substitute.ID, original.ID), model.ErrNotSubstitute)
	require.NoError(t, f.svc.Enrollments.Reclaim(f.ctx, original.ID, substitute.ID))

	student, err := f.svc.Directory.GetStudent(f.ctx, anna.ID)
	require.NoError(t, err)
	assert.False(t, student.IsFrozen)

	sub, err := f.svc.Directory.GetStudent(f.ctx, boris.ID)
	require.NoError(t, err)
	assert.False(t, sub.IsActive)
	assert.Nil(t, f.activeEnrollment(boris.ID, mon.ID))
}

func TestUnenroll_LastEnrollmentDeactivatesStudent(t *testing.T) {
	f := newFixture(t)
	reformer := f.modality("reformer")
	mon := f.slot(reformer.ID, time.Monday, "08:00", "09:00", 3)
	wed := f.slot(reformer.ID, time.Wednesday, "08:00", "09:00", 3)
	anna := f.student("Anna")
	first := f.enroll(anna.ID, mon.ID)
	second := f.enroll(anna.ID, wed.ID)

	require.NoError(t, f.svc.Enrollments.Unenroll(f.ctx, first.ID))
	student, err := f.svc.Directory.GetStudent(f.ctx, anna.ID)
	require.NoError(t, err)
	assert.True(t, student.IsActive)

	require.NoError(t, f.svc.Enrollments.Unenroll(f.ctx, second.ID))
	student, err = f.svc.Directory.GetStudent(f.ctx, anna.ID)
	require.NoError(t, err)
	assert.False(t, student.IsActive)

	assert.ErrorIs(t, f.svc.Enrollments.Unenroll(f.ctx, second.ID), model.ErrInactive)

	// новая запись снова включает ученика
	f.enroll(anna.ID, mon.ID)
	student, err = f.svc.Directory.GetStudent(f.ctx, anna.ID)
	require.NoError(t, err)
	assert.True(t, student.IsActive)
}

func TestTransfer(t *testing.T) {
	f := newFixture(t)
	reformer := f.modality("reformer")
	mon := f.slot(reformer.ID, time.Monday, "08:00", "09:00", 3)
	wed := f.slot(reformer.ID, time.Wednesday, "08:00", "09:00", 3)
	anna := f.student("Anna")
	f.enroll(anna.ID, mon.ID)

	moved, err := f.svc.Enrollments.Transfer(f.ctx, anna.ID, mon.ID, wed.ID)
	require.NoError(t, err)
	assert.Equal(t, wed.ID, moved.SlotID)
	assert.Nil(t, f.activeEnrollment(anna.ID, mon.ID))

	_, err = f.svc.Enrollments.Transfer(f.ctx, anna.ID, mon.ID, wed.ID)
	assert.ErrorIs(t, err, model.ErrNotEnrolled)
}

func TestMergeStudents(t *testing.T) {
	f := newFixture(t)
	reformer := f.modality("reformer")
	mon := f.slot(reformer.ID, time.Monday, "08:00", "09:00", 3)
	wed := f.slot(reformer.ID, time.Wednesday, "08:00", "09:00", 3)
	dup := f.student("Anna (old)")
	anna := f.student("Anna")
	f.enroll(dup.ID, mon.ID)
	f.enroll(dup.ID, wed.ID)
	f.enroll(anna.ID, wed.ID)

	moved, err := f.svc.Enrollments.MergeStudents(f.ctx, dup.ID, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	active, err := f.svc.Enrollments.ListByStudent(f.ctx, anna.ID)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	left, err := f.svc.Enrollments.ListByStudent(f.ctx, dup.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	old, err := f.svc.Directory.GetStudent(f.ctx, dup.ID)
	require.NoError(t, err)
	assert.False(t, old.IsActive)

	_, err = f.svc.Enrollments.MergeStudents(f.ctx, anna.ID, anna.ID)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestTransfer_RespectsTargetCapacity(t *testing.T) {
	f := newFixture(t)
	reformer := f.modality("reformer")
	mon := f.slot(reformer.ID, time.Monday, "08:00", "09:00", 3)
	wed := f.slot(reformer.ID, time.Wednesday, "08:00", "09:00", 1)
	anna := f.student("Anna")
	boris := f.student("Boris")
	f.enroll(anna.ID, mon.ID)
	f.enroll(boris.ID, wed.ID)

	_, err := f.svc.Enrollments.Transfer(f.ctx, anna.ID, mon.ID, wed.ID)
	assert.ErrorIs(t, err, model.ErrSlotFull)

	assert.NotNil(t, f.activeEnrollment(anna.ID, mon.ID))
	onWed, err := f.svc.Enrollments.ListBySlot(f.ctx, wed.ID)
	require.NoError(t, err)
	assert.Len(t, onWed, 1)
}

func TestMergeStudents_SameSlotIgnoresCapacity(t *testing.T) {
	f := newFixture(t)
	reformer := f.modality("reformer")
	mon := f.slot(reformer.ID, time.Monday, "08:00", "09:00", 1)
	dup := f.student("Anna (old)")
	anna := f.student("Anna")
	f.enroll(dup.ID, mon.ID)

	// место занято самим дубликатом, слияние его не увеличивает
	moved, err := f.svc.Enrollments.MergeStudents(f.ctx, dup.ID, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	onMon, err := f.svc.Enrollments.ListBySlot(f.ctx, mon.ID)
	require.NoError(t, err)
	require.Len(t, onMon, 1)
	assert.Equal(t, anna.ID, onMon[0].StudentID)
}
