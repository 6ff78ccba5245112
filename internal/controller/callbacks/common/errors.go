package common

import (
	"errors"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

// Ошибки уровня бота
var (
	ErrNotRegistered = errors.New("student is not registered")
	ErrNotStaff      = errors.New("user is not staff")
	ErrForeignRecord = errors.New("record belongs to another student")
	ErrNoMessage     = errors.New("no message in callback")
	ErrInvalidFormat = errors.New("invalid callback format")
)

// specificMessages точные ошибки, для которых есть отдельный текст
var specificMessages = []struct {
	err  error
	text string
}{
	{model.ErrSlotFull, "❌ В этом слоте нет свободных мест"},
	{model.ErrAlreadyProcessed, "ℹ️ Заявка уже обработана"},
	{model.ErrDuplicatePending, "ℹ️ Заявка на перенос этого занятия уже ждёт решения"},
	{model.ErrDuplicateNotice, "ℹ️ Вы уже предупредили о пропуске этого занятия"},
	{model.ErrMakeupWindowExpired, "⌛ Срок отработки (7 дней) истёк"},
	{model.ErrCreditExpired, "⌛ Срок действия кредита истёк"},
	{model.ErrHolidayDate, "🎉 В этот день студия не работает"},
	{model.ErrLinkedSpaceBusy, "❌ Зал в это время занят другим направлением"},
	{model.ErrTooLate, "⏰ Слишком поздно: занятие уже скоро или прошло"},
	{model.ErrEntitlementNotUsable, "❌ Этот пропуск не даёт права на отработку"},
	{model.ErrAlreadyEnrolled, "ℹ️ Вы уже записаны в этот слот"},
}

// kindMessages запасной текст по виду ошибки
var kindMessages = map[string]string{
	"not_found":           "❌ Не найдено",
	"conflict":            "❌ Конфликт с существующей записью",
	"invalid_state":       "❌ Действие недоступно в текущем состоянии",
	"validation":          "❌ Неверные данные",
	"window_expired":      "⌛ Срок истёк",
	"capacity_exceeded":   "❌ Нет свободных мест",
	"space_conflict":      "❌ Зал занят",
	"insufficient_notice": "⏰ Слишком поздно",
}

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotRegistered):
		return "❌ Вы не зарегистрированы. Используйте /start"
	case errors.Is(err, ErrNotStaff):
		return "❌ Эта функция доступна только сотрудникам студии"
	case errors.Is(err, ErrForeignRecord):
		return "❌ Это не ваша запись"
	case errors.Is(err, ErrNoMessage):
		return "❌ Ошибка обработки сообщения"
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Неверный формат данных"
	}

	for _, m := range specificMessages {
		if errors.Is(err, m.err) {
			return m.text
		}
	}
	if text, ok := kindMessages[model.ErrorKind(err)]; ok {
		return text
	}
	return "❌ Произошла ошибка. Попробуйте позже."
}
