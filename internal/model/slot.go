package model

import "time"

// Slot регулярное еженедельное занятие
type Slot struct {
	ID         int64     `json:"id"`
	TeacherID  int64     `json:"teacher_id"`
	ModalityID int64     `json:"modality_id"`
	Weekday    int       `json:"weekday"` // 0 = Sunday, 6 = Saturday
	StartTime  ClockTime `json:"start_time"`
	EndTime    ClockTime `json:"end_time"`
	Capacity   int       `json:"capacity"`
	Notes      string    `json:"notes"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FallsOn проверяет, что дата приходится на день недели слота
func (s *Slot) FallsOn(date time.Time) bool {
	return int(date.Weekday()) == s.Weekday
}

// OverlapsWith проверяет пересечение по дню и времени
func (s *Slot) OverlapsWith(other *Slot) bool {
	return s.Weekday == other.Weekday && Overlaps(s.StartTime, s.EndTime, other.StartTime, other.EndTime)
}
