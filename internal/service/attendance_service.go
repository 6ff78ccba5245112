package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository"
)

const reasonMarkedAbsent = "marked absent"

// AttendanceService посещаемость и уведомления о пропусках
type AttendanceService struct {
	store  repository.Store
	clock  Clock
	policy Policy
	logger *zap.Logger
}

func NewAttendanceService(store repository.Store, clock Clock, policy Policy, logger *zap.Logger) *AttendanceService {
	return &AttendanceService{
		store:  store,
		clock:  clock,
		policy: policy,
		logger: logger,
	}
}

// RecordAttendance ставит отметку посещения. Повторная отметка перезаписывает
// прежнюю. Для записанного ученика:
//   - отсутствие подтверждает pending-уведомление или создаёт подтверждённое без права на отработку;
//   - присутствие отменяет неиспользованное уведомление.
func (s *AttendanceService) RecordAttendance(ctx context.Context, in model.AttendanceInput) (*model.Occurrence, error) {
	if err := model.Validate(in); err != nil {
		return nil, err
	}

	date := model.DateOf(in.Date)
	present := in.Present
	occurrence := &model.Occurrence{
		SlotID:    in.SlotID,
		Date:      date,
		StudentID: in.StudentID,
		Present:   &present,
	}

	var notice *model.AbsenceNotice
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		// Получаем информацию о слоте
		slot, err := repos.Slots.GetByID(ctx, in.SlotID)
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		if slot == nil {
			return model.ErrSlotNotFound
		}
		if !slot.FallsOn(date) {
			return model.ErrDayMismatch
		}

		student, err := repos.Students.GetByID(ctx, in.StudentID)
		if err != nil {
			return fmt.Errorf("get student: %w", err)
		}
		if student == nil {
			return model.ErrStudentNotFound
		}

		// Пришёл ли ученик по одобренному переносу
		approved, err := repos.Requests.FindApprovedForDestination(ctx, in.StudentID, in.SlotID, date)
		if err != nil {
			return fmt.Errorf("find approved request: %w", err)
		}
		occurrence.IsRescheduleOutcome = approved != nil

		if err := repos.Occurrences.Upsert(ctx, occurrence); err != nil {
			return err
		}

		// Уведомление есть только у постоянной записи
		enrollment, err := repos.Enrollments.GetActive(ctx, in.StudentID, in.SlotID)
		if err != nil {
			return fmt.Errorf("get enrollment: %w", err)
		}
		if enrollment == nil {
			return nil
		}

		notice, err = s.applyAttendance(ctx, repos, enrollment, date, present)
		return err
	})
	if err != nil {
		logFailure(s.logger, "Attendance refused", err,
			zap.Int64("slot_id", in.SlotID),
			zap.Int64("student_id", in.StudentID),
		)
		return nil, fmt.Errorf("record attendance: %w", err)
	}

	fields := []zap.Field{
		zap.Int64("slot_id", in.SlotID),
		zap.Int64("student_id", in.StudentID),
		zap.String("date", date.Format(model.DateLayout)),
		zap.Bool("present", present),
	}
	if notice != nil {
		fields = append(fields, zap.Int64("notice_id", notice.ID), zap.String("notice_status", string(notice.Status)))
	}
	s.logger.Info("Attendance recorded", fields...)

	return occurrence, nil
}

func (s *AttendanceService) applyAttendance(ctx context.Context, repos repository.Repositories, enrollment *model.Enrollment, date time.Time, present bool) (*model.AbsenceNotice, error) {
	notice, err := repos.Notices.GetOpen(ctx, enrollment.ID, date)
	if err != nil {
		return nil, fmt.Errorf("get open notice: %w", err)
	}

	if present {
		if notice == nil || notice.MakeupUsesConsumed > 0 {
			return nil, nil
		}
		notice.Status = model.NoticeStatusCancelled
		return notice, repos.Notices.Update(ctx, notice)
	}

	if notice != nil {
		if notice.Status == model.NoticeStatusPending {
			notice.Status = model.NoticeStatusConfirmed
			return notice, repos.Notices.Update(ctx, notice)
		}
		return notice, nil
	}

	notice = &model.AbsenceNotice{
		StudentID:      enrollment.StudentID,
		EnrollmentID:   enrollment.ID,
		SlotID:         enrollment.SlotID,
		AbsenceDate:    date,
		Reason:         reasonMarkedAbsent,
		Status:         model.NoticeStatusConfirmed,
		HasMakeupRight: false,
	}
	return notice, repos.Notices.Create(ctx, notice)
}

// ConfirmFromAttendance отмечает отсутствие без предварительного уведомления
func (s *AttendanceService) ConfirmFromAttendance(ctx context.Context, slotID int64, date time.Time, studentID int64) (*model.Occurrence, error) {
	return s.RecordAttendance(ctx, model.AttendanceInput{
		SlotID:    slotID,
		Date:      date,
		StudentID: studentID,
		Present:   false,
	})
}

// DeclareAbsenceNotice ученик заранее сообщает о пропуске. Право на отработку
// даётся, если до начала занятия осталось не меньше Policy.MakeupNotice.
func (s *AttendanceService) DeclareAbsenceNotice(ctx context.Context, in model.AbsenceNoticeInput) (*model.AbsenceNotice, error) {
	if err := model.Validate(in); err != nil {
		return nil, err
	}

	date := model.DateOf(in.AbsenceDate)
	var notice *model.AbsenceNotice

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		enrollment, err := repos.Enrollments.GetByID(ctx, in.EnrollmentID)
		if err != nil {
			return fmt.Errorf("get enrollment: %w", err)
		}
		if enrollment == nil {
			return model.ErrEnrollmentNotFound
		}
		if !enrollment.IsActive {
			return fmt.Errorf("enrollment %d: %w", enrollment.ID, model.ErrInactive)
		}

		slot, err := repos.Slots.GetByID(ctx, enrollment.SlotID)
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		if slot == nil {
			return model.ErrSlotNotFound
		}
		if !slot.FallsOn(date) {
			return model.ErrDayMismatch
		}

		open, err := repos.Notices.GetOpen(ctx, enrollment.ID, date)
		if err != nil {
			return fmt.Errorf("get open notice: %w", err)
		}
		if open != nil {
			return model.ErrDuplicateNotice
		}

		lead := model.ClassStart(date, slot.StartTime, s.clock.Location).Sub(s.clock.Now())
		if lead <= 0 {
			return model.ErrTooLate
		}

		notice = &model.AbsenceNotice{
			StudentID:      enrollment.StudentID,
			EnrollmentID:   enrollment.ID,
			SlotID:         slot.ID,
			AbsenceDate:    date,
			Reason:         in.Reason,
			Status:         model.NoticeStatusPending,
			HasMakeupRight: lead >= s.policy.MakeupNotice,
		}
		return repos.Notices.Create(ctx, notice)
	})
	if err != nil {
		logFailure(s.logger, "Absence notice refused", err, zap.Int64("enrollment_id", in.EnrollmentID))
		return nil, fmt.Errorf("declare absence notice: %w", err)
	}

	s.logger.Info("Absence notice declared",
		zap.Int64("notice_id", notice.ID),
		zap.Int64("student_id", notice.StudentID),
		zap.String("date", date.Format(model.DateLayout)),
		zap.Bool("makeup_right", notice.HasMakeupRight),
	)

	return notice, nil
}

// CancelNotice ученик отзывает уведомление, пока оно не подтверждено
func (s *AttendanceService) CancelNotice(ctx context.Context, noticeID int64) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		notice, err := repos.Notices.GetByID(ctx, noticeID)
		if err != nil {
			return fmt.Errorf("get notice: %w", err)
		}
		if notice == nil {
			return model.ErrNoticeNotFound
		}
		if notice.Status != model.NoticeStatusPending {
			return fmt.Errorf("notice is %s: %w", notice.Status, model.ErrEntitlementNotUsable)
		}
		notice.Status = model.NoticeStatusCancelled
		return repos.Notices.Update(ctx, notice)
	})
	if err != nil {
		return fmt.Errorf("cancel notice: %w", err)
	}

	s.logger.Info("Absence notice cancelled", zap.Int64("notice_id", noticeID))
	return nil
}

// ListEntitlements все уведомления ученика, новые первыми
func (s *AttendanceService) ListEntitlements(ctx context.Context, studentID int64) ([]*model.AbsenceNotice, error) {
	return s.store.Repositories().Notices.ListByStudent(ctx, studentID)
}

// UsableEntitlements подтверждённые пропуски с правом на отработку,
// окно которых ещё не закрылось
func (s *AttendanceService) UsableEntitlements(ctx context.Context, studentID int64) ([]*model.AbsenceNotice, error) {
	notices, err := s.ListEntitlements(ctx, studentID)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	var usable []*model.AbsenceNotice
	for _, n := range notices {
		if n.Status == model.NoticeStatusConfirmed && n.HasMakeupRight && n.MakeupUsesConsumed == 0 && !today.After(n.MakeupDeadline()) {
			usable = append(usable, n)
		}
	}
	return usable, nil
}

// Attendance отметки занятия
func (s *AttendanceService) Attendance(ctx context.Context, slotID int64, date time.Time) ([]*model.Occurrence, error) {
	return s.store.Repositories().Occurrences.ListBySlotDate(ctx, slotID, model.DateOf(date))
}
