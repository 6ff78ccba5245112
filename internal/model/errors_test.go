package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: ErrSlotNotFound, want: "not_found"},
		{err: fmt.Errorf("approve request: %w", ErrAlreadyProcessed), want: "invalid_state"},
		{err: ErrDuplicatePending, want: "conflict"},
		{err: ErrMakeupWindowExpired, want: "window_expired"},
		{err: ErrSlotFull, want: "capacity_exceeded"},
		{err: ErrLinkedSpaceBusy, want: "space_conflict"},
		{err: ErrTooLate, want: "insufficient_notice"},
		{err: &ValidationError{}, want: "validation"},
		{err: errors.New("connection reset"), want: "unexpected"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), "%v", tt.err)
	}
}

type sample struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"min=1"`
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(sample{Name: "x", Count: 1}))

	err := Validate(sample{})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "is required", vErr.FieldErrors["name"])
	assert.Equal(t, "must be at least 1", vErr.FieldErrors["count"])
	assert.Equal(t, "validation error: count: must be at least 1; name: is required", err.Error())
}
