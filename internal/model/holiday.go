package model

import "time"

type Holiday struct {
	Date      time.Time `json:"date"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// HolidayCascade итог каскадной отмены по празднику
type HolidayCascade struct {
	Date                time.Time `json:"date"`
	RejectedRequests    int       `json:"rejected_requests"`
	CancelledNotices    int       `json:"cancelled_notices"`
	ReversedConsumption int       `json:"reversed_consumption"`

	// Displaced ученики, чьё исходное место заняли, пока действовал перенос
	Displaced []DisplacedStudent `json:"displaced,omitempty"`
}

// DisplacedStudent ученик, которому не вернули исходную запись
type DisplacedStudent struct {
	RequestID int64 `json:"request_id"`
	StudentID int64 `json:"student_id"`
	SlotID    int64 `json:"slot_id"`
}
