package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Виды ошибок. Каждая конкретная ошибка ниже оборачивает ровно один вид,
// поэтому errors.Is работает и по виду, и по конкретной ошибке.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidState       = errors.New("invalid state")
	ErrValidation         = errors.New("validation error")
	ErrWindowExpired      = errors.New("window expired")
	ErrCapacityExceeded   = errors.New("capacity exceeded")
	ErrSpaceConflict      = errors.New("space conflict")
	ErrInsufficientNotice = errors.New("insufficient notice")
)

var (
	ErrSlotNotFound         = fmt.Errorf("%w: slot", ErrNotFound)
	ErrStudentNotFound      = fmt.Errorf("%w: student", ErrNotFound)
	ErrModalityNotFound     = fmt.Errorf("%w: modality", ErrNotFound)
	ErrEnrollmentNotFound   = fmt.Errorf("%w: enrollment", ErrNotFound)
	ErrNoticeNotFound       = fmt.Errorf("%w: absence notice", ErrNotFound)
	ErrCreditNotFound       = fmt.Errorf("%w: credit", ErrNotFound)
	ErrRequestNotFound      = fmt.Errorf("%w: reschedule request", ErrNotFound)
	ErrNotEnrolled          = fmt.Errorf("%w: student is not enrolled in origin slot", ErrNotFound)
	ErrDestinationNotFound  = fmt.Errorf("%w: destination slot missing or inactive", ErrNotFound)
	ErrNoTargetFound        = fmt.Errorf("%w: no target slot for approval", ErrNotFound)
	ErrAlreadyEnrolled      = fmt.Errorf("%w: active enrollment already exists", ErrConflict)
	ErrDuplicateNotice      = fmt.Errorf("%w: absence notice already exists for this date", ErrConflict)
	ErrDuplicatePending     = fmt.Errorf("%w: pending request already exists for this occurrence", ErrConflict)
	ErrHolidayExists        = fmt.Errorf("%w: holiday already declared", ErrConflict)
	ErrAlreadyProcessed     = fmt.Errorf("%w: request already processed", ErrInvalidState)
	ErrStudentNotFrozen     = fmt.Errorf("%w: replaced student is not frozen", ErrInvalidState)
	ErrNotSubstitute        = fmt.Errorf("%w: enrollment does not substitute the original", ErrInvalidState)
	ErrInactive             = fmt.Errorf("%w: entity is inactive", ErrInvalidState)
	ErrEntitlementNotUsable = fmt.Errorf("%w: entitlement cannot be used for a make-up", ErrInvalidState)
	ErrInvalidTimeRange     = fmt.Errorf("%w: end time must be after start time", ErrValidation)
	ErrDayMismatch          = fmt.Errorf("%w: date does not fall on the slot weekday", ErrValidation)
	ErrHolidayDate          = fmt.Errorf("%w: date is a holiday", ErrValidation)
	ErrAmbiguousLink        = fmt.Errorf("%w: make-up must link exactly one entitlement or credit", ErrValidation)
	ErrModalityMismatch     = fmt.Errorf("%w: credit is restricted to another modality", ErrValidation)
	ErrMakeupWindowExpired  = fmt.Errorf("%w: make-up window is over", ErrWindowExpired)
	ErrCreditExpired        = fmt.Errorf("%w: credit expired", ErrWindowExpired)
	ErrSlotFull             = fmt.Errorf("%w: slot is full", ErrCapacityExceeded)
	ErrCreditExhausted      = fmt.Errorf("%w: credit exhausted", ErrCapacityExceeded)
	ErrLinkedSpaceBusy      = fmt.Errorf("%w: linked modality occupies the space", ErrSpaceConflict)
	ErrTooLate              = fmt.Errorf("%w: class starts too soon", ErrInsufficientNotice)
)

// ValidationError содержит ошибки по отдельным полям ввода
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return ErrValidation.Error()
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for f, msg := range v.FieldErrors {
		fields = append(fields, f+": "+msg)
	}
	sort.Strings(fields)
	return ErrValidation.Error() + ": " + strings.Join(fields, "; ")
}

func (v *ValidationError) Unwrap() error { return ErrValidation }

// Add добавляет ошибку поля
func (v *ValidationError) Add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// HasErrors сообщает, есть ли ошибки полей
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// ErrorKind возвращает стабильную метку вида ошибки для логов и сообщений
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrWindowExpired):
		return "window_expired"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrSpaceConflict):
		return "space_conflict"
	case errors.Is(err, ErrInsufficientNotice):
		return "insufficient_notice"
	default:
		return "unexpected"
	}
}
