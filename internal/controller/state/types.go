package state

// UserState текущий шаг диалога пользователя
type UserState string

const (
	StateNone UserState = "" // Нет активного диалога

	// Сотрудник вводит причину отклонения заявки
	StateRejectReason UserState = "reject_reason"
	// Ученик вводит причину пропуска
	StateAbsenceReason UserState = "absence_reason"
)

// Ключи временных данных диалога
const (
	KeyRequestID    = "request_id"
	KeyEnrollmentID = "enrollment_id"
	KeyDate         = "date"
)

// UserData хранит временные данные пользователя во время диалога
type UserData struct {
	State UserState
	Data  map[string]any
}
