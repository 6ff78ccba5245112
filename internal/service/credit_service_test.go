package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

func TestCredit_GrantRequiresFutureExpiry(t *testing.T) {
	f := newFixture(t)
	anna := f.student("Anna")

	for _, expiry := range []string{"2024-05-31", "2024-06-01"} {
		_, err := f.svc.Credits.Grant(f.ctx, model.GrantCreditInput{
			StudentID:  anna.ID,
			Quantity:   1,
			Reason:     "goodwill",
			ExpiryDate: date(expiry),
		})
		var vErr *model.ValidationError
		require.ErrorAs(t, err, &vErr, expiry)
		assert.Contains(t, vErr.FieldErrors, "expiry_date")
	}

	_, err := f.svc.Credits.Grant(f.ctx, model.GrantCreditInput{
		StudentID:  999,
		Quantity:   1,
		Reason:     "goodwill",
		ExpiryDate: date("2024-07-01"),
	})
	assert.ErrorIs(t, err, model.ErrStudentNotFound)

	_, err = f.svc.Credits.Grant(f.ctx, model.GrantCreditInput{
		StudentID:  anna.ID,
		Quantity:   0,
		Reason:     "goodwill",
		ExpiryDate: date("2024-07-01"),
	})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestCredit_ConsumeUntilExhausted(t *testing.T) {
	f := newFixture(t)
	anna := f.student("Anna")

	credit, err := f.svc.Credits.Grant(f.ctx, model.GrantCreditInput{
		StudentID:  anna.ID,
		Quantity:   2,
		Reason:     "package bonus",
		ExpiryDate: date("2024-07-01"),
	})
	require.NoError(t, err)

	for i := 1; i <= 2; i++ {
		c, err := f.svc.Credits.Consume(f.ctx, credit.ID)
		require.NoError(t, err)
		assert.Equal(t, i, c.QuantityUsed)
	}

	_, err = f.svc.Credits.Consume(f.ctx, credit.ID)
	assert.ErrorIs(t, err, model.ErrCreditExhausted)

	got, err := f.store.Repositories().Credits.GetByID(f.ctx, credit.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.QuantityUsed)
	assert.LessOrEqual(t, got.QuantityUsed, got.QuantityGranted)

	consumptions, err := f.store.Repositories().Credits.ListConsumptionsByDate(f.ctx, date("2024-06-01"))
	require.NoError(t, err)
	assert.Len(t, consumptions, 2)

	_, err = f.svc.Credits.Consume(f.ctx, 999)
	assert.ErrorIs(t, err, model.ErrCreditNotFound)
}

func TestCredit_Revoke(t *testing.T) {
	f := newFixture(t)
	anna := f.student("Anna")

	grant := func() *model.Credit {
		c, err := f.svc.Credits.Grant(f.ctx, model.GrantCreditInput{
			StudentID:  anna.ID,
			Quantity:   3,
			Reason:     "goodwill",
			ExpiryDate: date("2024-07-01"),
		})
		require.NoError(t, err)
		return c
	}

	unused := grant()
	res, err := f.svc.Credits.Revoke(f.ctx, unused.ID)
	require.NoError(t, err)
	assert.Equal(t, RevokeResult{Deleted: 1}, res)

	gone, err := f.store.Repositories().Credits.GetByID(f.ctx, unused.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	used := grant()
	_, err = f.svc.Credits.Consume(f.ctx, used.ID)
	require.NoError(t, err)

	res, err = f.svc.Credits.Revoke(f.ctx, used.ID)
	require.NoError(t, err)
	assert.Equal(t, RevokeResult{Deactivated: 1}, res)

	kept, err := f.store.Repositories().Credits.GetByID(f.ctx, used.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.False(t, kept.IsActive)
	assert.Equal(t, 1, kept.QuantityUsed)

	_, err = f.svc.Credits.Consume(f.ctx, used.ID)
	assert.ErrorIs(t, err, model.ErrInactive)

	balance, err := f.svc.Credits.Balance(f.ctx, anna.ID)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestCredit_CancelledClass(t *testing.T) {
	f := newFixture(t)
	reformer := f.modality("reformer")
	mon := f.slot(reformer.ID, time.Monday, "08:00", "09:00", 4)
	anna := f.student("Anna")
	boris := f.student("Boris")
	f.enroll(anna.ID, mon.ID)
	f.enroll(boris.ID, mon.ID)

	_, err := f.svc.Credits.GrantForCancelledClass(f.ctx, mon.ID, date("2024-06-04"), date("2024-07-01"), "teacher sick")
	assert.ErrorIs(t, err, model.ErrDayMismatch)

	cancellation, err := f.svc.Credits.GrantForCancelledClass(f.ctx, mon.ID, date("2024-06-03"), date("2024-07-01"), "teacher sick")
	require.NoError(t, err)
	require.Len(t, cancellation.Credits, 2)
	for _, c := range cancellation.Credits {
		require.NotNil(t, c.SourceEventID)
		assert.Equal(t, cancellation.EventID, *c.SourceEventID)
		require.NotNil(t, c.ModalityID)
		assert.Equal(t, reformer.ID, *c.ModalityID)
		assert.Equal(t, 1, c.QuantityGranted)
	}

	_, err = f.svc.Credits.Consume(f.ctx, cancellation.Credits[0].ID)
	require.NoError(t, err)

	res, err := f.svc.Credits.RevokeCancellation(f.ctx, cancellation.EventID)
	require.NoError(t, err)
	assert.Equal(t, RevokeResult{Deleted: 1, Deactivated: 1}, res)

	_, err = f.svc.Credits.RevokeCancellation(f.ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrCreditNotFound)
}
