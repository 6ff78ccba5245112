package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

// Все методы Get* возвращают (nil, nil), если запись не найдена.

type SlotRepository interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id int64) (*model.Slot, error)
	// GetByIDForUpdate блокирует строку слота до конца транзакции
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Slot, error)
	Update(ctx context.Context, slot *model.Slot) error
	ListActiveByModalities(ctx context.Context, modalityIDs []int64, weekday int) ([]*model.Slot, error)
	ListActive(ctx context.Context) ([]*model.Slot, error)
}

type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id int64) (*model.Student, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.Student, error)
	SetActive(ctx context.Context, id int64, active bool) error
	SetFrozen(ctx context.Context, id int64, frozen bool) error
}

type ModalityRepository interface {
	Create(ctx context.Context, modality *model.Modality) error
	GetByID(ctx context.Context, id int64) (*model.Modality, error)
}

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.Enrollment) error
	GetByID(ctx context.Context, id int64) (*model.Enrollment, error)
	GetActive(ctx context.Context, studentID, slotID int64) (*model.Enrollment, error)
	ListActiveBySlot(ctx context.Context, slotID int64) ([]*model.Enrollment, error)
	ListActiveByStudent(ctx context.Context, studentID int64) ([]*model.Enrollment, error)
	CountActiveBySlot(ctx context.Context, slotID int64) (int, error)
	CountActiveByStudent(ctx context.Context, studentID int64) (int, error)
	Deactivate(ctx context.Context, id int64, at time.Time) error
	Reactivate(ctx context.Context, id int64) error
}

type OccurrenceRepository interface {
	// Upsert перезаписывает отметку для (slot, date, student)
	Upsert(ctx context.Context, occurrence *model.Occurrence) error
	Get(ctx context.Context, slotID int64, date time.Time, studentID int64) (*model.Occurrence, error)
	ListBySlotDate(ctx context.Context, slotID int64, date time.Time) ([]*model.Occurrence, error)
}

type NoticeRepository interface {
	Create(ctx context.Context, notice *model.AbsenceNotice) error
	GetByID(ctx context.Context, id int64) (*model.AbsenceNotice, error)
	// GetOpen возвращает pending/confirmed уведомление для записи и даты
	GetOpen(ctx context.Context, enrollmentID int64, date time.Time) (*model.AbsenceNotice, error)
	Update(ctx context.Context, notice *model.AbsenceNotice) error
	ListByStudent(ctx context.Context, studentID int64) ([]*model.AbsenceNotice, error)
	ListByDateAndStatus(ctx context.Context, date time.Time, status model.NoticeStatus) ([]*model.AbsenceNotice, error)
}

type CreditRepository interface {
	Create(ctx context.Context, credit *model.Credit) error
	GetByID(ctx context.Context, id int64) (*model.Credit, error)
	Update(ctx context.Context, credit *model.Credit) error
	Delete(ctx context.Context, id int64) error
	ListByStudent(ctx context.Context, studentID int64) ([]*model.Credit, error)
	ListBySourceEvent(ctx context.Context, eventID uuid.UUID) ([]*model.Credit, error)
	AddConsumption(ctx context.Context, consumption *model.CreditConsumption) error
	ListConsumptionsByDate(ctx context.Context, date time.Time) ([]*model.CreditConsumption, error)
	DeleteConsumption(ctx context.Context, id int64) error
}

type RequestRepository interface {
	Create(ctx context.Context, req *model.RescheduleRequest) error
	GetByID(ctx context.Context, id int64) (*model.RescheduleRequest, error)
	// GetByIDForUpdate сериализует конкурентные одобрения одной заявки
	GetByIDForUpdate(ctx context.Context, id int64) (*model.RescheduleRequest, error)
	Update(ctx context.Context, req *model.RescheduleRequest) error
	HasPending(ctx context.Context, studentID, originSlotID int64, originDate time.Time) (bool, error)
	CountPendingForDestination(ctx context.Context, slotID int64, date time.Time) (int, error)
	ListByDestinationDate(ctx context.Context, date time.Time, statuses ...model.RequestStatus) ([]*model.RescheduleRequest, error)
	FindApprovedForDestination(ctx context.Context, studentID, slotID int64, date time.Time) (*model.RescheduleRequest, error)
	List(ctx context.Context, filter model.RequestFilter) ([]*model.RescheduleRequest, error)
}

type HolidayRepository interface {
	Create(ctx context.Context, holiday *model.Holiday) error
	Exists(ctx context.Context, date time.Time) (bool, error)
	List(ctx context.Context) ([]*model.Holiday, error)
}

// Repositories набор репозиториев, привязанных к одному соединению или транзакции
type Repositories struct {
	Slots       SlotRepository
	Students    StudentRepository
	Modalities  ModalityRepository
	Enrollments EnrollmentRepository
	Occurrences OccurrenceRepository
	Notices     NoticeRepository
	Credits     CreditRepository
	Requests    RequestRepository
	Holidays    HolidayRepository
}

// TxManager выполняет fn в одной транзакции. Ошибка из fn откатывает
// все изменения, сделанные через переданные репозитории.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Store хранилище: чтение без блокировок и транзакции для изменений
type Store interface {
	TxManager
	Repositories() Repositories
	Close()
}
