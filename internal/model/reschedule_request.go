package model

import "time"

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

type Requester string

const (
	RequestedByStudent Requester = "student"
	RequestedByStaff   Requester = "staff"
)

// RescheduleRequest заявка на перенос занятия ученика в другой слот
type RescheduleRequest struct {
	ID                      int64         `json:"id"`
	OriginSlotID            int64         `json:"origin_slot_id"`
	OriginDate              time.Time     `json:"origin_date"`
	DestinationSlotID       int64         `json:"destination_slot_id"`
	DestinationDate         time.Time     `json:"destination_date"`
	DestinationStartTime    ClockTime     `json:"destination_start_time"`
	DestinationEndTime      ClockTime     `json:"destination_end_time"`
	StudentID               int64         `json:"student_id"`
	OriginEnrollmentID      *int64        `json:"origin_enrollment_id"`
	DestinationEnrollmentID *int64        `json:"destination_enrollment_id"` // заполняется при одобрении
	IsMakeup                bool          `json:"is_makeup"`
	NoticeID                *int64        `json:"notice_id"`
	CreditID                *int64        `json:"credit_id"`
	Status                  RequestStatus `json:"status"`
	RequestedBy             Requester     `json:"requested_by"`
	ApprovedBy              *int64        `json:"approved_by"`
	RejectionReason         string        `json:"rejection_reason"`
	CreatedAt               time.Time     `json:"created_at"`
	UpdatedAt               *time.Time    `json:"updated_at"`
}

// IsPending checks if request is pending
func (r *RescheduleRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// IsApproved checks if request is approved
func (r *RescheduleRequest) IsApproved() bool {
	return r.Status == RequestStatusApproved
}

// IsRejected checks if request is rejected
func (r *RescheduleRequest) IsRejected() bool {
	return r.Status == RequestStatusRejected
}

// IsTerminal approved и rejected не допускают дальнейших переходов
func (r *RescheduleRequest) IsTerminal() bool {
	return r.IsApproved() || r.IsRejected()
}

// RequestFilter параметры выборки заявок
type RequestFilter struct {
	Status    *RequestStatus
	StudentID *int64
}
