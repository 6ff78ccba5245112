package keyboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestDecision(t *testing.T) {
	kb := RequestDecision(42)
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, "approve:42", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "reject:42", kb.InlineKeyboard[0][1].CallbackData)
}

func TestCallbackData(t *testing.T) {
	day := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "absent:3:2024-06-05", AbsentData(3, day))
	assert.Equal(t, "makeup:8", MakeupData(8))
	assert.Equal(t, "makeup_to:8:2:2024-06-05", MakeupTargetData(8, 2, day))

	// лимит Telegram на callback data 64 байта
	assert.LessOrEqual(t, len(MakeupTargetData(1<<62, 1<<62, day)), 64)
}

func TestWeekNavigation(t *testing.T) {
	kb := WeekNavigation(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC))
	row := kb.InlineKeyboard[0]
	assert.Equal(t, "week:2024-05-27", row[0].CallbackData)
	assert.Equal(t, Noop, row[1].CallbackData)
	assert.Equal(t, "week:2024-06-10", row[2].CallbackData)
}

func TestBuilder_SkipsEmptyRows(t *testing.T) {
	b := NewBuilder().Row().Row(Button("a", "noop"))
	assert.Equal(t, 1, b.Len())
}
