package model

import (
	"fmt"
	"time"
)

// DateLayout формат календарной даты во всех внешних интерфейсах
const DateLayout = "2006-01-02"

// ClockTime время суток в минутах от полуночи (0..1439)
type ClockTime int

// ParseClock разбирает строку формата HH:MM
func ParseClock(s string) (ClockTime, error) {
	var h, m int
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: time %q must be HH:MM", ErrValidation, s)
	}
	if _, err := fmt.Sscanf(s, "%02d:%02d", &h, &m); err != nil {
		return 0, fmt.Errorf("%w: time %q must be HH:MM", ErrValidation, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: time %q out of range", ErrValidation, s)
	}
	return ClockTime(h*60 + m), nil
}

// MustClock используется в тестах и фикстурах
func MustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Overlaps проверяет пересечение полуинтервалов [a1,a2) и [b1,b2)
func Overlaps(a1, a2, b1, b2 ClockTime) bool {
	return a1 < b2 && b1 < a2
}

// NormalizeDate приводит момент времени к календарной дате студии.
// Дата хранится как полночь UTC, чтобы не зависеть от часового пояса сервера.
func NormalizeDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateOf берёт календарную дату t в её собственном часовом поясе
func DateOf(t time.Time) time.Time {
	return NormalizeDate(t, t.Location())
}

// ParseDate разбирает дату формата YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrValidation, s)
	}
	return d, nil
}

// ClassStart возвращает момент начала занятия в часовом поясе студии
func ClassStart(date time.Time, start ClockTime, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, start.Hour(), start.Minute(), 0, 0, loc)
}

// AddDays сдвигает нормализованную дату на n календарных дней
func AddDays(date time.Time, n int) time.Time {
	return date.AddDate(0, 0, n)
}
