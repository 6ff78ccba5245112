package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

func TestParseIDFromCallback(t *testing.T) {
	tests := []struct {
		data    string
		want    int64
		wantErr bool
	}{
		{data: "approve:123", want: 123},
		{data: "makeup:7", want: 7},
		{data: "approve:", wantErr: true},
		{data: "approve:abc", wantErr: true},
		{data: "approve", wantErr: true},
		{data: "absent:1:2024-06-02", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := ParseIDFromCallback(tt.data)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIDAndDate(t *testing.T) {
	day, _ := model.ParseDate("2024-06-02")

	id, date, err := ParseIDAndDate(keyboard.AbsentData(15, day))
	require.NoError(t, err)
	assert.Equal(t, int64(15), id)
	assert.True(t, date.Equal(day))

	_, _, err = ParseIDAndDate("absent:15:02.06.2024")
	assert.ErrorIs(t, err, ErrInvalidFormat)
	_, _, err = ParseIDAndDate("absent:15")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestParseMakeupTarget(t *testing.T) {
	day, _ := model.ParseDate("2024-06-05")

	noticeID, slotID, date, err := ParseMakeupTarget(keyboard.MakeupTargetData(4, 9, day))
	require.NoError(t, err)
	assert.Equal(t, int64(4), noticeID)
	assert.Equal(t, int64(9), slotID)
	assert.True(t, date.Equal(day))

	_, _, _, err = ParseMakeupTarget("makeup_to:4:x:2024-06-05")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestParseDateFromCallback(t *testing.T) {
	date, err := ParseDateFromCallback(keyboard.PrefixWeek + "2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-03", date.Format(model.DateLayout))

	_, err = ParseDateFromCallback("week")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestIsMessageNotModifiedError(t *testing.T) {
	assert.True(t, IsMessageNotModifiedError(errors.New("bad request, Bad Request: message is not modified")))
	assert.False(t, IsMessageNotModifiedError(errors.New("chat not found")))
	assert.False(t, IsMessageNotModifiedError(nil))
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "slot full", err: fmt.Errorf("approve request: %w", model.ErrSlotFull), want: "❌ В этом слоте нет свободных мест"},
		{name: "window", err: model.ErrMakeupWindowExpired, want: "⌛ Срок отработки (7 дней) истёк"},
		{name: "kind fallback", err: model.ErrCreditExhausted, want: "❌ Нет свободных мест"},
		{name: "validation", err: &model.ValidationError{FieldErrors: map[string]string{"reason": "is required"}}, want: "❌ Неверные данные"},
		{name: "not registered", err: ErrNotRegistered, want: "❌ Вы не зарегистрированы. Используйте /start"},
		{name: "unexpected", err: errors.New("connection reset"), want: "❌ Произошла ошибка. Попробуйте позже."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(tt.err))
		})
	}
}
