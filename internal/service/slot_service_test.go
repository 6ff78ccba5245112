package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

func TestSlot_CreateValidation(t *testing.T) {
	f := newFixture(t)
	reformer := f.modality("reformer")

	tests := []struct {
		name string
		in   model.CreateSlotInput
		want error
	}{
		{
			name: "end before start",
			in:   model.CreateSlotInput{TeacherID: 1, ModalityID: reformer.ID, Weekday: 1, Start: "09:00", End: "08:00", Capacity: 1},
			want: model.ErrInvalidTimeRange,
		},
		{
			name: "bad clock",
			in:   model.CreateSlotInput{TeacherID: 1, ModalityID: reformer.ID, Weekday: 1, Start: "25:00", End: "26:00", Capacity: 1},
			want: model.ErrValidation,
		},
		{
			name: "weekday out of range",
			in:   model.CreateSlotInput{TeacherID: 1, ModalityID: reformer.ID, Weekday: 7, Start: "08:00", End: "09:00", Capacity: 1},
			want: model.ErrValidation,
		},
		{
			name: "unknown modality",
			in:   model.CreateSlotInput{TeacherID: 1, ModalityID: 999, Weekday: 1, Start: "08:00", End: "09:00", Capacity: 1},
			want: model.ErrModalityNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Slots.Create(f.ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSlot_Update(t *testing.T) {
	f := newFixture(t)
	reformer := f.modality("reformer")
	mon := f.slot(reformer.ID, time.Monday, "08:00", "09:00", 3)

	updated, err := f.svc.Slots.Update(f.ctx, mon.ID, model.UpdateSlotInput{
		TeacherID: ptrTo(int64(42)),
		End:       ptrTo("09:30"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), updated.TeacherID)
	assert.Equal(t, "08:00", updated.StartTime.String())
	assert.Equal(t, "09:30", updated.EndTime.String())

	_, err = f.svc.Slots.Update(f.ctx, mon.ID, model.UpdateSlotInput{Start: ptrTo("10:00")})
	assert.ErrorIs(t, err, model.ErrInvalidTimeRange)

	got, err := f.svc.Slots.Get(f.ctx, mon.ID)
	require.NoError(t, err)
	assert.Equal(t, "08:00", got.StartTime.String())

	_, err = f.svc.Slots.Update(f.ctx, 999, model.UpdateSlotInput{})
	assert.ErrorIs(t, err, model.ErrSlotNotFound)
}

func TestSlot_DeactivateCascades(t *testing.T) {
	f := newFixture(t)
	reformer := f.modality("reformer")
	mon := f.slot(reformer.ID, time.Monday, "08:00", "09:00", 3)
	wed := f.slot(reformer.ID, time.Wednesday, "08:00", "09:00", 3)
	anna := f.student("Anna")
	boris := f.student("Boris")
	f.enroll(anna.ID, mon.ID)
	f.enroll(boris.ID, mon.ID)
	f.enroll(boris.ID, wed.ID)

	require.NoError(t, f.svc.Slots.Deactivate(f.ctx, mon.ID))

	enrollments, err := f.svc.Enrollments.ListBySlot(f.ctx, mon.ID)
	require.NoError(t, err)
	assert.Empty(t, enrollments)

	a, err := f.svc.Directory.GetStudent(f.ctx, anna.ID)
	require.NoError(t, err)
	assert.False(t, a.IsActive)

	b, err := f.svc.Directory.GetStudent(f.ctx, boris.ID)
	require.NoError(t, err)
	assert.True(t, b.IsActive)

	active, err := f.svc.Slots.ListActive(f.ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, wed.ID, active[0].ID)

	_, err = f.svc.Enrollments.Enroll(f.ctx, model.EnrollInput{SlotID: mon.ID, StudentID: anna.ID})
	assert.ErrorIs(t, err, model.ErrInactive)

	// повторная деактивация ничего не меняет
	assert.NoError(t, f.svc.Slots.Deactivate(f.ctx, mon.ID))
}
