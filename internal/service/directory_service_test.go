package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

func TestRegisterStudent_Idempotent(t *testing.T) {
	f := newFixture(t)
	tg := int64(100500)

	first, err := f.svc.Directory.RegisterStudent(f.ctx, "  Anna ", &tg)
	require.NoError(t, err)
	assert.Equal(t, "Anna", first.Name)

	again, err := f.svc.Directory.RegisterStudent(f.ctx, "Anna K.", &tg)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	byTg, err := f.svc.Directory.GetStudentByTelegramID(f.ctx, tg)
	require.NoError(t, err)
	require.NotNil(t, byTg)
	assert.Equal(t, first.ID, byTg.ID)

	_, err = f.svc.Directory.RegisterStudent(f.ctx, " ", nil)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.svc.Directory.GetStudent(f.ctx, 999)
	assert.ErrorIs(t, err, model.ErrStudentNotFound)
}

func TestCreateModality_LinkedMustExist(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Directory.CreateModality(f.ctx, "mat", []int64{999}, nil)
	assert.ErrorIs(t, err, model.ErrModalityNotFound)

	zero := 0
	_, err = f.svc.Directory.CreateModality(f.ctx, "mat", nil, &zero)
	assert.ErrorIs(t, err, model.ErrValidation)

	reformer := f.modality("reformer")
	mat := f.modality("mat", reformer.ID)

	got, err := f.svc.Directory.GetModality(f.ctx, mat.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{reformer.ID}, got.LinkedModalityIDs)
}
