package model

import "time"

// Enrollment постоянная запись ученика в слот
type Enrollment struct {
	ID                   int64      `json:"id"`
	SlotID               int64      `json:"slot_id"`
	StudentID            int64      `json:"student_id"`
	IsActive             bool       `json:"is_active"`
	IsSubstitute         bool       `json:"is_substitute"`
	ReplacesEnrollmentID *int64     `json:"replaces_enrollment_id"` // только для замены
	CreatedAt            time.Time  `json:"created_at"`
	DeactivatedAt        *time.Time `json:"deactivated_at"`
}

// Substitutes проверяет, что запись замещает указанную
func (e *Enrollment) Substitutes(originalID int64) bool {
	return e.IsSubstitute && e.ReplacesEnrollmentID != nil && *e.ReplacesEnrollmentID == originalID
}
