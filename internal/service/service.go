package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository"
)

// Policy правила студии
type Policy struct {
	// MakeupNotice за сколько до начала занятия нужно предупредить,
	// чтобы получить право на отработку
	MakeupNotice time.Duration
	// MinSameDayNotice минимальный запас до начала занятия при переносе на сегодня
	MinSameDayNotice time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MakeupNotice:     24 * time.Hour,
		MinSameDayNotice: 15 * time.Minute,
	}
}

// Clock источник текущего времени и часовой пояс студии
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Now: time.Now, Location: loc}
}

// Today текущая календарная дата студии
func (c Clock) Today() time.Time {
	return model.NormalizeDate(c.Now(), c.Location)
}

// Metrics счётчики переходов, реализуется app.Metrics
type Metrics interface {
	RequestTransition(transition string)
	HolidayCascade()
}

type nopMetrics struct{}

func (nopMetrics) RequestTransition(string) {}
func (nopMetrics) HolidayCascade()          {}

// NopMetrics заглушка для тестов и запуска без метрик
func NopMetrics() Metrics { return nopMetrics{} }

const (
	transitionCreated       = "created"
	transitionApproved      = "approved"
	transitionRejected      = "rejected"
	transitionForceRejected = "force_rejected"
)

// Services все сервисы, собранные над одним хранилищем
type Services struct {
	Directory   *DirectoryService
	Slots       *SlotService
	Enrollments *EnrollmentService
	Attendance  *AttendanceService
	Credits     *CreditService
	Reschedule  *RescheduleService
	Holidays    *HolidayService
}

func New(store repository.Store, clock Clock, policy Policy, metrics Metrics, logger *zap.Logger) *Services {
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Services{
		Directory:   NewDirectoryService(store, logger),
		Slots:       NewSlotService(store, clock, logger),
		Enrollments: NewEnrollmentService(store, clock, logger),
		Attendance:  NewAttendanceService(store, clock, policy, logger),
		Credits:     NewCreditService(store, clock, logger),
		Reschedule:  NewRescheduleService(store, clock, policy, metrics, logger),
		Holidays:    NewHolidayService(store, clock, metrics, logger),
	}
}

// logFailure пишет отказ по бизнес-правилу в Warn, остальное в Error
func logFailure(logger *zap.Logger, msg string, err error, fields ...zap.Field) {
	kind := model.ErrorKind(err)
	fields = append(fields, zap.String("error_kind", kind), zap.Error(err))
	if kind == "unexpected" {
		logger.Error(msg, fields...)
		return
	}
	logger.Warn(msg, fields...)
}
