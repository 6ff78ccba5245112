package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository"
)

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()

	student := &model.Student{Name: "Anna", IsActive: true}
	require.NoError(t, repos.Students.Create(ctx, student))

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		require.NoError(t, tx.Students.SetFrozen(ctx, student.ID, true))
		require.NoError(t, tx.Enrollments.Create(ctx, &model.Enrollment{SlotID: 1, StudentID: student.ID, IsActive: true}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repos.Students.GetByID(ctx, student.ID)
	require.NoError(t, err)
	assert.False(t, got.IsFrozen)

	count, err := repos.Enrollments.CountActiveByStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWithTx_Commits(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	var id int64
	err := store.WithTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		e := &model.Enrollment{SlotID: 7, StudentID: 3, IsActive: true}
		if err := tx.Enrollments.Create(ctx, e); err != nil {
			return err
		}
		id = e.ID
		return nil
	})
	require.NoError(t, err)

	got, err := store.Repositories().Enrollments.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsActive)
}

func TestEnrollments_ActiveUnique(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	first := &model.Enrollment{SlotID: 1, StudentID: 1, IsActive: true}
	require.NoError(t, repos.Enrollments.Create(ctx, first))

	err := repos.Enrollments.Create(ctx, &model.Enrollment{SlotID: 1, StudentID: 1, IsActive: true})
	assert.ErrorIs(t, err, model.ErrConflict)

	require.NoError(t, repos.Enrollments.Deactivate(ctx, first.ID, time.Now()))
	require.NoError(t, repos.Enrollments.Create(ctx, &model.Enrollment{SlotID: 1, StudentID: 1, IsActive: true}))

	err = repos.Enrollments.Reactivate(ctx, first.ID)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	m := &model.Modality{Name: "reformer", LinkedModalityIDs: []int64{2}, IsActive: true}
	require.NoError(t, repos.Modalities.Create(ctx, m))

	got, err := repos.Modalities.GetByID(ctx, m.ID)
	require.NoError(t, err)
	got.LinkedModalityIDs[0] = 99
	got.Name = "changed"

	again, err := repos.Modalities.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "reformer", again.Name)
	assert.Equal(t, []int64{2}, again.LinkedModalityIDs)
}

func TestCredits_UpdateRejectsOverdraw(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	c := &model.Credit{StudentID: 1, QuantityGranted: 1, Reason: "gift", IsActive: true}
	require.NoError(t, repos.Credits.Create(ctx, c))

	c.QuantityUsed = 2
	assert.Error(t, repos.Credits.Update(ctx, c))

	c.QuantityUsed = 1
	require.NoError(t, repos.Credits.Update(ctx, c))
}

func TestHolidays_Duplicate(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repos.Holidays.Create(ctx, &model.Holiday{Date: date, Reason: "city day"}))
	assert.ErrorIs(t, repos.Holidays.Create(ctx, &model.Holiday{Date: date}), model.ErrHolidayExists)

	ok, err := repos.Holidays.Exists(ctx, date)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRequests_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	for i := 0; i < 3; i++ {
		require.NoError(t, repos.Requests.Create(ctx, &model.RescheduleRequest{
			StudentID: 1,
			Status:    model.RequestStatusPending,
		}))
	}

	list, err := repos.Requests.List(ctx, model.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, int64(3), list[0].ID)
	assert.Equal(t, int64(1), list[2].ID)
}
