package callbacktypes

import (
	"slices"

	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/service"
)

// UserState представляет текущее состояние пользователя в диалоге
type UserState string

// Состояния диалогов, совпадают с state.UserState
const (
	StateRejectReason  UserState = "reject_reason"
	StateAbsenceReason UserState = "absence_reason"
)

// Ключи данных диалога, совпадают с ключами state
const (
	KeyRequestID    = "request_id"
	KeyEnrollmentID = "enrollment_id"
	KeyDate         = "date"
)

// StateManager интерфейс для управления состоянием пользователей
type StateManager interface {
	ClearState(telegramID int64)
	GetState(telegramID int64) UserState
	SetState(telegramID int64, state UserState)
	SetData(telegramID int64, key string, value any)
	GetData(telegramID int64, key string) (any, bool)
}

// Handler содержит общие зависимости для всех callback handlers
type Handler struct {
	Services     *service.Services
	Clock        service.Clock
	StaffIDs     []int64 // Telegram ID сотрудников студии
	StateManager StateManager
	Logger       *zap.Logger
}

// IsStaff является ли пользователь сотрудником студии
func (h *Handler) IsStaff(telegramID int64) bool {
	return slices.Contains(h.StaffIDs, telegramID)
}
