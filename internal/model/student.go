package model

import "time"

// Student ученик студии. Справочник ведётся снаружи, здесь нужны только
// признаки активности и заморозки.
type Student struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	TelegramID *int64    `json:"telegram_id"`
	IsActive   bool      `json:"is_active"`
	IsFrozen   bool      `json:"is_frozen"` // абонемент на паузе, место может занять замена
	CreatedAt  time.Time `json:"created_at"`
}
