package model

import "time"

// Occurrence отметка посещения конкретного занятия (слот + дата)
type Occurrence struct {
	ID                  int64     `json:"id"`
	SlotID              int64     `json:"slot_id"`
	Date                time.Time `json:"date"`
	StudentID           int64     `json:"student_id"`
	Present             *bool     `json:"present"` // nil = ещё не отмечено
	IsRescheduleOutcome bool      `json:"is_reschedule_outcome"`
	UpdatedAt           time.Time `json:"updated_at"`
}
