package formatting

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

// FormatDate форматирует только дату
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// FormatDateWithWeekday форматирует дату с кратким днём недели: "Пн 03.06"
func FormatDateWithWeekday(t time.Time) string {
	return GetWeekdayShortName(int(t.Weekday())) + " " + t.Format("02.01")
}

// FormatTimeRange форматирует диапазон времени занятия
func FormatTimeRange(start, end model.ClockTime) string {
	return fmt.Sprintf("%s-%s", start, end)
}

// FormatClass форматирует конкретное занятие: дата и время слота
func FormatClass(date time.Time, slot *model.Slot) string {
	return FormatDateWithWeekday(date) + " " + FormatTimeRange(slot.StartTime, slot.EndTime)
}

// GetWeekdayName возвращает название дня недели на русском
func GetWeekdayName(weekday int) string {
	names := []string{
		"Воскресенье",
		"Понедельник",
		"Вторник",
		"Среда",
		"Четверг",
		"Пятница",
		"Суббота",
	}
	if weekday >= 0 && weekday < len(names) {
		return names[weekday]
	}
	return "Неизвестно"
}

// GetWeekdayShortName возвращает краткое название дня недели на русском
func GetWeekdayShortName(weekday int) string {
	names := []string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}
	if weekday >= 0 && weekday < len(names) {
		return names[weekday]
	}
	return "?"
}

// NextOccurrence ближайшая дата занятия слота, начиная с from (включительно)
func NextOccurrence(from time.Time, weekday int) time.Time {
	diff := (weekday - int(from.Weekday()) + 7) % 7
	return model.AddDays(from, diff)
}

// WeekStart понедельник недели, в которую попадает дата
func WeekStart(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	return model.AddDays(date, -offset)
}
