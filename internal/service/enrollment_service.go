package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository"
	"github.com/Freeeeeet/studio_scheduler/internal/scheduling"
)

// EnrollmentService постоянные записи учеников в слоты
type EnrollmentService struct {
	store  repository.Store
	clock  Clock
	logger *zap.Logger
}

func NewEnrollmentService(store repository.Store, clock Clock, logger *zap.Logger) *EnrollmentService {
	return &EnrollmentService{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// Enroll записывает ученика в слот. Замена занимает место замороженного
// ученика, поэтому вместимость для неё не проверяется.
func (s *EnrollmentService) Enroll(ctx context.Context, in model.EnrollInput) (*model.Enrollment, error) {
	if err := model.Validate(in); err != nil {
		return nil, err
	}

	enrollment := &model.Enrollment{
		SlotID:               in.SlotID,
		StudentID:            in.StudentID,
		IsActive:             true,
		IsSubstitute:         in.IsSubstitute,
		ReplacesEnrollmentID: in.ReplacesEnrollmentID,
	}
	if !in.IsSubstitute {
		enrollment.ReplacesEnrollmentID = nil
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		slot, err := repos.Slots.GetByIDForUpdate(ctx, in.SlotID)
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		if slot == nil {
			return model.ErrSlotNotFound
		}
		if !slot.IsActive {
			return fmt.Errorf("slot %d: %w", slot.ID, model.ErrInactive)
		}

		student, err := repos.Students.GetByID(ctx, in.StudentID)
		if err != nil {
			return fmt.Errorf("get student: %w", err)
		}
		if student == nil {
			return model.ErrStudentNotFound
		}

		existing, err := repos.Enrollments.GetActive(ctx, in.StudentID, in.SlotID)
		if err != nil {
			return fmt.Errorf("get active enrollment: %w", err)
		}
		if existing != nil {
			return model.ErrAlreadyEnrolled
		}

		if in.IsSubstitute {
			if err := checkReplaced(ctx, repos, *in.ReplacesEnrollmentID, in.SlotID); err != nil {
				return err
			}
		} else if err := checkSeat(ctx, repos, slot); err != nil {
			return err
		}

		if !student.IsActive {
			if err := repos.Students.SetActive(ctx, student.ID, true); err != nil {
				return err
			}
		}

		return repos.Enrollments.Create(ctx, enrollment)
	})
	if err != nil {
		logFailure(s.logger, "Enroll refused", err,
			zap.Int64("slot_id", in.SlotID),
			zap.Int64("student_id", in.StudentID),
		)
		return nil, fmt.Errorf("enroll: %w", err)
	}

	s.logger.Info("Student enrolled",
		zap.Int64("enrollment_id", enrollment.ID),
		zap.Int64("slot_id", enrollment.SlotID),
		zap.Int64("student_id", enrollment.StudentID),
		zap.Bool("substitute", enrollment.IsSubstitute),
	)

	return enrollment, nil
}

// checkReplaced замещаемая запись должна быть активной записью в тот же
// слот, а её ученик заморожен
func checkReplaced(ctx context.Context, repos repository.Repositories, replacedID, slotID int64) error {
	replaced, err := repos.Enrollments.GetByID(ctx, replacedID)
	if err != nil {
		return fmt.Errorf("get replaced enrollment: %w", err)
	}
	if replaced == nil || !replaced.IsActive || replaced.SlotID != slotID {
		return model.ErrEnrollmentNotFound
	}

	owner, err := repos.Students.GetByID(ctx, replaced.StudentID)
	if err != nil {
		return fmt.Errorf("get replaced student: %w", err)
	}
	if owner == nil || !owner.IsFrozen {
		return model.ErrStudentNotFrozen
	}
	return nil
}

// Unenroll мягко выключает запись. Последняя активная запись выключает ученика.
func (s *EnrollmentService) Unenroll(ctx context.Context, enrollmentID int64) error {
	var studentOff bool

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		e, err := repos.Enrollments.GetByID(ctx, enrollmentID)
		if err != nil {
			return fmt.Errorf("get enrollment: %w", err)
		}
		if e == nil {
			return model.ErrEnrollmentNotFound
		}
		if !e.IsActive {
			return fmt.Errorf("enrollment %d: %w", e.ID, model.ErrInactive)
		}

		if err := repos.Enrollments.Deactivate(ctx, e.ID, s.clock.Now()); err != nil {
			return err
		}
		studentOff, err = deactivateIfIdle(ctx, repos, e.StudentID)
		return err
	})
	if err != nil {
		return fmt.Errorf("unenroll: %w", err)
	}

	s.logger.Info("Enrollment deactivated",
		zap.Int64("enrollment_id", enrollmentID),
		zap.Bool("student_deactivated", studentOff),
	)
	return nil
}

// Reclaim возвращает место замороженному ученику: замена выключается,
// исходный ученик размораживается
func (s *EnrollmentService) Reclaim(ctx context.Context, originalID, substituteID int64) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		original, err := repos.Enrollments.GetByID(ctx, originalID)
		if err != nil {
			return fmt.Errorf("get original enrollment: %w", err)
		}
		substitute, err := repos.Enrollments.GetByID(ctx, substituteID)
		if err != nil {
			return fmt.Errorf("get substitute enrollment: %w", err)
		}
		if original == nil || substitute == nil {
			return model.ErrEnrollmentNotFound
		}
		if !substitute.Substitutes(original.ID) {
			return model.ErrNotSubstitute
		}
		if !substitute.IsActive {
			return fmt.Errorf("substitute %d: %w", substitute.ID, model.ErrInactive)
		}

		if err := repos.Enrollments.Deactivate(ctx, substitute.ID, s.clock.Now()); err != nil {
			return err
		}
		if _, err := deactivateIfIdle(ctx, repos, substitute.StudentID); err != nil {
			return err
		}
		return repos.Students.SetFrozen(ctx, original.StudentID, false)
	})
	if err != nil {
		return fmt.Errorf("reclaim: %w", err)
	}

	s.logger.Info("Seat reclaimed",
		zap.Int64("original_enrollment_id", originalID),
		zap.Int64("substitute_enrollment_id", substituteID),
	)
	return nil
}

// Transfer переводит ученика из одного слота в другой одной транзакцией.
// Если ученик уже записан в целевой слот, исходная запись просто выключается.
func (s *EnrollmentService) Transfer(ctx context.Context, studentID, fromSlotID, toSlotID int64) (*model.Enrollment, error) {
	var moved *model.Enrollment

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		moved, err = transfer(ctx, repos, studentID, studentID, fromSlotID, toSlotID, s.clock)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("transfer: %w", err)
	}

	s.logger.Info("Enrollment transferred",
		zap.Int64("student_id", studentID),
		zap.Int64("from_slot_id", fromSlotID),
		zap.Int64("to_slot_id", toSlotID),
	)
	return moved, nil
}

// transfer переносит активную запись fromStudent в слоте fromSlot на
// toStudent в слоте toSlot. Перенос в другой слот занимает новое место,
// поэтому целевой слот блокируется и проверяется его вместимость.
func transfer(ctx context.Context, repos repository.Repositories, fromStudent, toStudent, fromSlotID, toSlotID int64, clock Clock) (*model.Enrollment, error) {
	sameSlot := fromSlotID == toSlotID

	// Исходная запись
	source, err := repos.Enrollments.GetActive(ctx, fromStudent, fromSlotID)
	if err != nil {
		return nil, fmt.Errorf("get source enrollment: %w", err)
	}
	if source == nil {
		return nil, model.ErrNotEnrolled
	}

	// Блокируем целевой слот до конца транзакции
	target, err := repos.Slots.GetByIDForUpdate(ctx, toSlotID)
	if err != nil {
		return nil, fmt.Errorf("get target slot: %w", err)
	}
	if target == nil {
		return nil, model.ErrSlotNotFound
	}
	if !target.IsActive {
		return nil, fmt.Errorf("slot %d: %w", target.ID, model.ErrInactive)
	}

	existing, err := repos.Enrollments.GetActive(ctx, toStudent, toSlotID)
	if err != nil {
		return nil, fmt.Errorf("get target enrollment: %w", err)
	}

	// Слияние в том же слоте не меняет число занятых мест
	if existing == nil && !sameSlot {
		if err := checkSeat(ctx, repos, target); err != nil {
			return nil, err
		}
	}

	if err := repos.Enrollments.Deactivate(ctx, source.ID, clock.Now()); err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	moved := &model.Enrollment{
		SlotID:    toSlotID,
		StudentID: toStudent,
		IsActive:  true,
	}
	// Замена остаётся заменой только на месте замороженного ученика
	if sameSlot {
		moved.IsSubstitute = source.IsSubstitute
		moved.ReplacesEnrollmentID = source.ReplacesEnrollmentID
	}
	if err := repos.Enrollments.Create(ctx, moved); err != nil {
		return nil, err
	}
	return moved, nil
}

// checkSeat есть ли в слоте свободное место под ещё одну активную запись.
// Вместимость ограничивает незамороженные места. Замены не проверяются:
// они занимают место замороженного ученика, чья запись остаётся активной,
// поэтому активных записей может быть больше вместимости ровно на число замен.
// Слот должен быть заблокирован вызывающим через GetByIDForUpdate.
func checkSeat(ctx context.Context, repos repository.Repositories, slot *model.Slot) error {
	modality, err := repos.Modalities.GetByID(ctx, slot.ModalityID)
	if err != nil {
		return fmt.Errorf("get modality: %w", err)
	}
	count, err := repos.Enrollments.CountActiveBySlot(ctx, slot.ID)
	if err != nil {
		return fmt.Errorf("count enrollments: %w", err)
	}
	if !scheduling.HasCapacity(modality.EffectiveCapacity(slot), count) {
		return model.ErrSlotFull
	}
	return nil
}

// MergeStudents переносит все активные записи дубликата source на target
// и выключает source. Возвращает число перенесённых записей.
func (s *EnrollmentService) MergeStudents(ctx context.Context, sourceID, targetID int64) (int, error) {
	if sourceID == targetID {
		vErr := &model.ValidationError{}
		vErr.Add("target_id", "must differ from source_id")
		return 0, vErr
	}

	var moved int
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		for _, id := range []int64{sourceID, targetID} {
			student, err := repos.Students.GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("get student: %w", err)
			}
			if student == nil {
				return fmt.Errorf("student %d: %w", id, model.ErrStudentNotFound)
			}
		}

		enrollments, err := repos.Enrollments.ListActiveByStudent(ctx, sourceID)
		if err != nil {
			return fmt.Errorf("list source enrollments: %w", err)
		}
		for _, e := range enrollments {
			if _, err := transfer(ctx, repos, sourceID, targetID, e.SlotID, e.SlotID, s.clock); err != nil {
				return err
			}
			moved++
		}

		if moved > 0 {
			if err := repos.Students.SetActive(ctx, targetID, true); err != nil {
				return err
			}
		}
		return repos.Students.SetActive(ctx, sourceID, false)
	})
	if err != nil {
		return 0, fmt.Errorf("merge students: %w", err)
	}

	s.logger.Info("Students merged",
		zap.Int64("source_id", sourceID),
		zap.Int64("target_id", targetID),
		zap.Int("enrollments_moved", moved),
	)
	return moved, nil
}

// Freeze ставит абонемент ученика на паузу, его место может занять замена
func (s *EnrollmentService) Freeze(ctx context.Context, studentID int64) error {
	return s.setFrozen(ctx, studentID, true)
}

// Unfreeze снимает паузу без выключения замен (для этого есть Reclaim)
func (s *EnrollmentService) Unfreeze(ctx context.Context, studentID int64) error {
	return s.setFrozen(ctx, studentID, false)
}

func (s *EnrollmentService) setFrozen(ctx context.Context, studentID int64, frozen bool) error {
	if err := s.store.Repositories().Students.SetFrozen(ctx, studentID, frozen); err != nil {
		return fmt.Errorf("set frozen: %w", err)
	}
	s.logger.Info("Student frozen flag changed",
		zap.Int64("student_id", studentID),
		zap.Bool("frozen", frozen),
	)
	return nil
}

// ListByStudent активные записи ученика
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID int64) ([]*model.Enrollment, error) {
	return s.store.Repositories().Enrollments.ListActiveByStudent(ctx, studentID)
}

// ListBySlot активные записи слота
func (s *EnrollmentService) ListBySlot(ctx context.Context, slotID int64) ([]*model.Enrollment, error) {
	return s.store.Repositories().Enrollments.ListActiveBySlot(ctx, slotID)
}
