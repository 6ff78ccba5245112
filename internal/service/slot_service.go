package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository"
)

// SlotService реестр регулярных слотов
type SlotService struct {
	store  repository.Store
	clock  Clock
	logger *zap.Logger
}

func NewSlotService(store repository.Store, clock Clock, logger *zap.Logger) *SlotService {
	return &SlotService{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// SlotOccupancy занятость слота на конкретную дату
type SlotOccupancy struct {
	Slot     *model.Slot
	Date     time.Time
	Capacity int
	Enrolled int
	Pending  int
}

// Free свободные места с учётом pending-заявок
func (o SlotOccupancy) Free() int {
	free := o.Capacity - o.Enrolled - o.Pending
	if free < 0 {
		return 0
	}
	return free
}

func parseTimeRange(start, end string) (model.ClockTime, model.ClockTime, error) {
	from, err := model.ParseClock(start)
	if err != nil {
		return 0, 0, err
	}
	to, err := model.ParseClock(end)
	if err != nil {
		return 0, 0, err
	}
	if to <= from {
		return 0, 0, model.ErrInvalidTimeRange
	}
	return from, to, nil
}

// Create создаёт слот
func (s *SlotService) Create(ctx context.Context, in model.CreateSlotInput) (*model.Slot, error) {
	if err := model.Validate(in); err != nil {
		return nil, err
	}

	start, end, err := parseTimeRange(in.Start, in.End)
	if err != nil {
		return nil, err
	}

	repos := s.store.Repositories()
	modality, err := repos.Modalities.GetByID(ctx, in.ModalityID)
	if err != nil {
		return nil, fmt.Errorf("get modality: %w", err)
	}
	if modality == nil {
		return nil, model.ErrModalityNotFound
	}
	if !modality.IsActive {
		return nil, fmt.Errorf("modality %d: %w", modality.ID, model.ErrInactive)
	}

	slot := &model.Slot{
		TeacherID:  in.TeacherID,
		ModalityID: in.ModalityID,
		Weekday:    in.Weekday,
		StartTime:  start,
		EndTime:    end,
		Capacity:   in.Capacity,
		Notes:      in.Notes,
		IsActive:   true,
	}
	if err := repos.Slots.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.logger.Info("Slot created",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("teacher_id", slot.TeacherID),
		zap.Int("weekday", slot.Weekday),
		zap.String("start", slot.StartTime.String()),
		zap.String("end", slot.EndTime.String()),
	)

	return slot, nil
}

// Update меняет преподавателя, время или заметки. Прошедшие занятия
// хранятся отдельно (occurrences) и не затрагиваются.
func (s *SlotService) Update(ctx context.Context, slotID int64, in model.UpdateSlotInput) (*model.Slot, error) {
	if err := model.Validate(in); err != nil {
		return nil, err
	}

	var slot *model.Slot
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		slot, err = repos.Slots.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		if slot == nil {
			return model.ErrSlotNotFound
		}

		start, end := slot.StartTime.String(), slot.EndTime.String()
		if in.Start != nil {
			start = *in.Start
		}
		if in.End != nil {
			end = *in.End
		}
		slot.StartTime, slot.EndTime, err = parseTimeRange(start, end)
		if err != nil {
			return err
		}
		if in.TeacherID != nil {
			slot.TeacherID = *in.TeacherID
		}
		if in.Notes != nil {
			slot.Notes = *in.Notes
		}

		return repos.Slots.Update(ctx, slot)
	})
	if err != nil {
		return nil, fmt.Errorf("update slot: %w", err)
	}

	s.logger.Info("Slot updated", zap.Int64("slot_id", slotID))
	return slot, nil
}

// Deactivate выключает слот и все его активные записи. Ученик, у которого
// не осталось активных записей, тоже выключается.
func (s *SlotService) Deactivate(ctx context.Context, slotID int64) error {
	var deactivated, studentsOff int

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		slot, err := repos.Slots.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		if slot == nil {
			return model.ErrSlotNotFound
		}
		if !slot.IsActive {
			return nil
		}

		slot.IsActive = false
		if err := repos.Slots.Update(ctx, slot); err != nil {
			return err
		}

		// Снимаем всех записанных; ученик без записей выключается
		enrollments, err := repos.Enrollments.ListActiveBySlot(ctx, slotID)
		if err != nil {
			return fmt.Errorf("list enrollments: %w", err)
		}

		now := s.clock.Now()
		for _, e := range enrollments {
			if err := repos.Enrollments.Deactivate(ctx, e.ID, now); err != nil {
				return err
			}
			deactivated++

			off, err := deactivateIfIdle(ctx, repos, e.StudentID)
			if err != nil {
				return err
			}
			if off {
				studentsOff++
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deactivate slot: %w", err)
	}

	s.logger.Info("Slot deactivated",
		zap.Int64("slot_id", slotID),
		zap.Int("enrollments_deactivated", deactivated),
		zap.Int("students_deactivated", studentsOff),
	)

	return nil
}

// deactivateIfIdle выключает ученика без активных записей
func deactivateIfIdle(ctx context.Context, repos repository.Repositories, studentID int64) (bool, error) {
	count, err := repos.Enrollments.CountActiveByStudent(ctx, studentID)
	if err != nil {
		return false, fmt.Errorf("count student enrollments: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if err := repos.Students.SetActive(ctx, studentID, false); err != nil {
		return false, err
	}
	return true, nil
}

// Get получает слот, ErrSlotNotFound если его нет
func (s *SlotService) Get(ctx context.Context, slotID int64) (*model.Slot, error) {
	slot, err := s.store.Repositories().Slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, model.ErrSlotNotFound
	}
	return slot, nil
}

// ListActive возвращает активные слоты по дню недели и времени
func (s *SlotService) ListActive(ctx context.Context) ([]*model.Slot, error) {
	return s.store.Repositories().Slots.ListActive(ctx)
}

// Occupancy считает занятость слота на дату. Чтение без блокировок,
// результат может немного отставать.
func (s *SlotService) Occupancy(ctx context.Context, slotID int64, date time.Time) (*SlotOccupancy, error) {
	repos := s.store.Repositories()

	slot, err := s.Get(ctx, slotID)
	if err != nil {
		return nil, err
	}
	modality, err := repos.Modalities.GetByID(ctx, slot.ModalityID)
	if err != nil {
		return nil, fmt.Errorf("get modality: %w", err)
	}

	date = model.DateOf(date)
	enrolled, err := repos.Enrollments.CountActiveBySlot(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}
	pending, err := repos.Requests.CountPendingForDestination(ctx, slotID, date)
	if err != nil {
		return nil, fmt.Errorf("count pending requests: %w", err)
	}

	return &SlotOccupancy{
		Slot:     slot,
		Date:     date,
		Capacity: modality.EffectiveCapacity(slot),
		Enrolled: enrolled,
		Pending:  pending,
	}, nil
}
