package model

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// В ошибках используем имена полей из json-тегов
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate проверяет входную структуру по validate-тегам
func Validate(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	vErr := &ValidationError{}
	for _, fe := range fieldErrs {
		vErr.Add(fe.Field(), describeTag(fe))
	}
	return vErr
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_without":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

type CreateSlotInput struct {
	TeacherID  int64  `json:"teacher_id" validate:"required,gt=0"`
	ModalityID int64  `json:"modality_id" validate:"required,gt=0"`
	Weekday    int    `json:"weekday" validate:"min=0,max=6"`
	Start      string `json:"start_time" validate:"required,len=5"`
	End        string `json:"end_time" validate:"required,len=5"`
	Capacity   int    `json:"capacity" validate:"min=1"`
	Notes      string `json:"notes" validate:"max=500"`
}

// UpdateSlotInput только изменяемые поля; nil = не менять
type UpdateSlotInput struct {
	TeacherID *int64  `json:"teacher_id" validate:"omitempty,gt=0"`
	Start     *string `json:"start_time" validate:"omitempty,len=5"`
	End       *string `json:"end_time" validate:"omitempty,len=5"`
	Notes     *string `json:"notes" validate:"omitempty,max=500"`
}

type EnrollInput struct {
	SlotID               int64  `json:"slot_id" validate:"required,gt=0"`
	StudentID            int64  `json:"student_id" validate:"required,gt=0"`
	IsSubstitute         bool   `json:"is_substitute"`
	ReplacesEnrollmentID *int64 `json:"replaces_enrollment_id" validate:"required_if=IsSubstitute true"`
}

type AbsenceNoticeInput struct {
	EnrollmentID int64     `json:"enrollment_id" validate:"required,gt=0"`
	AbsenceDate  time.Time `json:"absence_date" validate:"required"`
	Reason       string    `json:"reason" validate:"max=500"`
}

type AttendanceInput struct {
	SlotID    int64     `json:"slot_id" validate:"required,gt=0"`
	Date      time.Time `json:"date" validate:"required"`
	StudentID int64     `json:"student_id" validate:"required,gt=0"`
	Present   bool      `json:"present"`
}

type GrantCreditInput struct {
	StudentID     int64      `json:"student_id" validate:"required,gt=0"`
	Quantity      int        `json:"quantity" validate:"min=1"`
	ModalityID    *int64     `json:"modality_id" validate:"omitempty,gt=0"`
	Reason        string     `json:"reason" validate:"required,max=500"`
	ExpiryDate    time.Time  `json:"expiry_date" validate:"required"`
	SourceEventID *uuid.UUID `json:"source_event_id"`
}

// CreateRequestInput заявка на перенос. Ученик задаётся явно
// (StudentID) либо через OriginEnrollmentID.
type CreateRequestInput struct {
	StudentID          int64     `json:"student_id" validate:"required_without=OriginEnrollmentID"`
	OriginEnrollmentID *int64    `json:"origin_enrollment_id" validate:"omitempty,gt=0"`
	OriginSlotID       int64     `json:"origin_slot_id" validate:"required,gt=0"`
	OriginDate         time.Time `json:"origin_date" validate:"required"`
	DestinationSlotID  int64     `json:"destination_slot_id" validate:"required,gt=0"`
	DestinationDate    time.Time `json:"destination_date" validate:"required"`
	IsMakeup           bool      `json:"is_makeup"`
	NoticeID           *int64    `json:"notice_id" validate:"omitempty,gt=0"`
	CreditID           *int64    `json:"credit_id" validate:"omitempty,gt=0"`
	RequestedBy        Requester `json:"requested_by" validate:"required,oneof=student staff"`
	ActorID            int64     `json:"actor_id"`
	AutoApprove        bool      `json:"auto_approve"` // только для staff
}
