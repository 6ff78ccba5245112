package model

import "time"

type NoticeStatus string

const (
	NoticeStatusPending   NoticeStatus = "pending"   // ученик предупредил заранее
	NoticeStatusConfirmed NoticeStatus = "confirmed" // пропуск подтверждён отметкой посещения
	NoticeStatusCancelled NoticeStatus = "cancelled" // отменено (пришёл или праздник)
	NoticeStatusUsed      NoticeStatus = "used"      // отработка уже использована
)

// MakeupWindowDays сколько календарных дней после пропуска доступна отработка
const MakeupWindowDays = 7

// AbsenceNotice уведомление о пропуске; подтверждённое даёт право на отработку
type AbsenceNotice struct {
	ID                 int64        `json:"id"`
	StudentID          int64        `json:"student_id"`
	EnrollmentID       int64        `json:"enrollment_id"`
	SlotID             int64        `json:"slot_id"`
	AbsenceDate        time.Time    `json:"absence_date"`
	Reason             string       `json:"reason"`
	Status             NoticeStatus `json:"status"`
	HasMakeupRight     bool         `json:"has_makeup_right"`
	MakeupUsesConsumed int          `json:"makeup_uses_consumed"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// IsOpen pending или confirmed: блокирует повторное уведомление на ту же дату
func (n *AbsenceNotice) IsOpen() bool {
	return n.Status == NoticeStatusPending || n.Status == NoticeStatusConfirmed
}

// MakeupDeadline последняя дата, на которую можно записаться на отработку
func (n *AbsenceNotice) MakeupDeadline() time.Time {
	return AddDays(n.AbsenceDate, MakeupWindowDays)
}
