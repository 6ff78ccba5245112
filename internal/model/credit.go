package model

import (
	"time"

	"github.com/google/uuid"
)

// Credit кредит на отработку, не привязанный к конкретному пропуску
type Credit struct {
	ID              int64      `json:"id"`
	StudentID       int64      `json:"student_id"`
	QuantityGranted int        `json:"quantity_granted"`
	QuantityUsed    int        `json:"quantity_used"`
	ModalityID      *int64     `json:"modality_id"` // nil = любая модальность
	Reason          string     `json:"reason"`
	ExpiryDate      time.Time  `json:"expiry_date"`
	SourceEventID   *uuid.UUID `json:"source_event_id"` // отменённое занятие, из-за которого выдан кредит
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Remaining сколько отработок осталось
func (c *Credit) Remaining() int {
	return c.QuantityGranted - c.QuantityUsed
}

// IsExpiredOn проверяет срок действия на указанную дату
func (c *Credit) IsExpiredOn(date time.Time) bool {
	return date.After(c.ExpiryDate)
}

// IsValid кредит можно использовать на указанную дату
func (c *Credit) IsValid(date time.Time) bool {
	return c.IsActive && !c.IsExpiredOn(date) && c.Remaining() > 0
}

// CreditConsumption запись о списании одной единицы кредита
type CreditConsumption struct {
	ID        int64     `json:"id"`
	CreditID  int64     `json:"credit_id"`
	RequestID *int64    `json:"request_id"`
	ClassDate time.Time `json:"class_date"`
	CreatedAt time.Time `json:"created_at"`
}

// ClassCancellation результат выдачи кредитов за отменённое занятие
type ClassCancellation struct {
	EventID uuid.UUID `json:"event_id"`
	SlotID  int64     `json:"slot_id"`
	Date    time.Time `json:"date"`
	Credits []*Credit `json:"credits"`
}
