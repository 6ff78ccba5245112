package keyboard

import (
	"fmt"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

// Префиксы callback data
const (
	PrefixApprove  = "approve:"
	PrefixReject   = "reject:"
	PrefixAbsent   = "absent:"
	PrefixMakeup   = "makeup:"
	PrefixMakeupTo = "makeup_to:"
	PrefixWeek     = "week:"
	Noop           = "noop"
)

// Builder упрощает создание inline клавиатур
type Builder struct {
	rows [][]models.InlineKeyboardButton
}

// NewBuilder создаёт новый builder клавиатуры
func NewBuilder() *Builder {
	return &Builder{
		rows: make([][]models.InlineKeyboardButton, 0),
	}
}

// Row добавляет новый ряд кнопок
func (b *Builder) Row(buttons ...models.InlineKeyboardButton) *Builder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

// Button создаёт кнопку
func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// Build создаёт финальную клавиатуру
func (b *Builder) Build() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: b.rows,
	}
}

// Len количество рядов
func (b *Builder) Len() int {
	return len(b.rows)
}

// RequestDecision кнопки сотрудника для заявки на перенос
func RequestDecision(requestID int64) *models.InlineKeyboardMarkup {
	return NewBuilder().Row(
		Button("✅ Одобрить", fmt.Sprintf("%s%d", PrefixApprove, requestID)),
		Button("🚫 Отклонить", fmt.Sprintf("%s%d", PrefixReject, requestID)),
	).Build()
}

// AbsentData callback для предупреждения о пропуске занятия
func AbsentData(enrollmentID int64, date time.Time) string {
	return fmt.Sprintf("%s%d:%s", PrefixAbsent, enrollmentID, date.Format(model.DateLayout))
}

// MakeupData callback для выбора отработки по уведомлению
func MakeupData(noticeID int64) string {
	return fmt.Sprintf("%s%d", PrefixMakeup, noticeID)
}

// MakeupTargetData callback для выбора конкретного занятия-отработки
func MakeupTargetData(noticeID, slotID int64, date time.Time) string {
	return fmt.Sprintf("%s%d:%d:%s", PrefixMakeupTo, noticeID, slotID, date.Format(model.DateLayout))
}

// WeekNavigation стрелки перехода между неделями
func WeekNavigation(weekStart time.Time) *models.InlineKeyboardMarkup {
	prev := model.AddDays(weekStart, -7).Format(model.DateLayout)
	next := model.AddDays(weekStart, 7).Format(model.DateLayout)
	return NewBuilder().Row(
		Button("◀️", PrefixWeek+prev),
		Button(weekStart.Format("02.01"), Noop),
		Button("▶️", PrefixWeek+next),
	).Build()
}
