package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository"
)

// HolidayService праздничные дни и каскадная отмена на эти даты
type HolidayService struct {
	store   repository.Store
	clock   Clock
	metrics Metrics
	logger  *zap.Logger
}

func NewHolidayService(store repository.Store, clock Clock, metrics Metrics, logger *zap.Logger) *HolidayService {
	return &HolidayService{
		store:   store,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// IsHoliday объявлена ли дата праздником
func (s *HolidayService) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	ok, err := s.store.Repositories().Holidays.Exists(ctx, model.DateOf(date))
	if err != nil {
		return false, fmt.Errorf("check holiday: %w", err)
	}
	return ok, nil
}

// List все объявленные праздники
func (s *HolidayService) List(ctx context.Context) ([]*model.Holiday, error) {
	return s.store.Repositories().Holidays.List(ctx)
}

// Declare объявляет праздник и одной транзакцией:
//   - отклоняет pending и approved заявки с датой назначения D, откатывая перенос одобренных
//     (если место в исходном слоте уже занято, ученик попадает в cascade.Displaced);
//   - отменяет подтверждённые и ожидающие уведомления о пропуске на D;
//   - возвращает списания кредитов, записанные на D.
func (s *HolidayService) Declare(ctx context.Context, date time.Time, reason string) (*model.HolidayCascade, error) {
	date = model.DateOf(date)
	cascade := &model.HolidayCascade{Date: date}

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Holidays.Create(ctx, &model.Holiday{Date: date, Reason: reason}); err != nil {
			return err
		}

		// Заявки на этот день
		requests, err := repos.Requests.ListByDestinationDate(ctx, date, model.RequestStatusPending, model.RequestStatusApproved)
		if err != nil {
			return fmt.Errorf("list requests: %w", err)
		}
		for _, req := range requests {
			if err := s.forceReject(ctx, repos, req, "holiday: "+reason, cascade); err != nil {
				return fmt.Errorf("force reject request %d: %w", req.ID, err)
			}
			cascade.RejectedRequests++
		}

		// Уведомления о пропуске на этот день
		for _, status := range []model.NoticeStatus{model.NoticeStatusConfirmed, model.NoticeStatusPending} {
			notices, err := repos.Notices.ListByDateAndStatus(ctx, date, status)
			if err != nil {
				return fmt.Errorf("list notices: %w", err)
			}
			for _, n := range notices {
				n.Status = model.NoticeStatusCancelled
				if err := repos.Notices.Update(ctx, n); err != nil {
					return err
				}
				cascade.CancelledNotices++
			}
		}

		// Списания кредитов за этот день
		consumptions, err := repos.Credits.ListConsumptionsByDate(ctx, date)
		if err != nil {
			return fmt.Errorf("list consumptions: %w", err)
		}
		for _, c := range consumptions {
			if err := reverseConsumption(ctx, repos, c); err != nil {
				return fmt.Errorf("reverse consumption %d: %w", c.ID, err)
			}
			cascade.ReversedConsumption++
		}
		return nil
	})
	if err != nil {
		logFailure(s.logger, "Holiday declaration failed", err, zap.String("date", date.Format(model.DateLayout)))
		return nil, fmt.Errorf("declare holiday: %w", err)
	}

	s.metrics.HolidayCascade()
	for i := 0; i < cascade.RejectedRequests; i++ {
		s.metrics.RequestTransition(transitionForceRejected)
	}

	s.logger.Info("Holiday declared",
		zap.String("date", date.Format(model.DateLayout)),
		zap.String("reason", reason),
		zap.Int("rejected_requests", cascade.RejectedRequests),
		zap.Int("cancelled_notices", cascade.CancelledNotices),
		zap.Int("reversed_consumptions", cascade.ReversedConsumption),
	)
	for _, d := range cascade.Displaced {
		s.logger.Warn("Origin seat taken, student left without enrollment",
			zap.Int64("request_id", d.RequestID),
			zap.Int64("student_id", d.StudentID),
			zap.Int64("slot_id", d.SlotID),
		)
	}

	return cascade, nil
}

// forceReject отклоняет заявку. Для одобренной откатывает перенос записи
// и возвращает право на отработку; кредит возвращается через журнал списаний.
func (s *HolidayService) forceReject(ctx context.Context, repos repository.Repositories, req *model.RescheduleRequest, reason string, cascade *model.HolidayCascade) error {
	if req.IsApproved() {
		restored, err := s.revertMigration(ctx, repos, req)
		if err != nil {
			return err
		}
		if !restored {
			cascade.Displaced = append(cascade.Displaced, model.DisplacedStudent{
				RequestID: req.ID,
				StudentID: req.StudentID,
				SlotID:    req.OriginSlotID,
			})
		}
		if req.NoticeID != nil {
			if err := restoreNotice(ctx, repos, *req.NoticeID); err != nil {
				return err
			}
		}
	}

	req.Status = model.RequestStatusRejected
	req.RejectionReason = reason
	return repos.Requests.Update(ctx, req)
}

// revertMigration выключает запись назначения и возвращает исходную.
// Возвращает false, если исходное место за это время заняли: тогда ученик
// остаётся без записи в исходном слоте.
func (s *HolidayService) revertMigration(ctx context.Context, repos repository.Repositories, req *model.RescheduleRequest) (bool, error) {
	// Выключаем запись, созданную одобрением
	if req.DestinationEnrollmentID != nil {
		dest, err := repos.Enrollments.GetByID(ctx, *req.DestinationEnrollmentID)
		if err != nil {
			return false, fmt.Errorf("get destination enrollment: %w", err)
		}
		if dest != nil && dest.IsActive {
			if err := repos.Enrollments.Deactivate(ctx, dest.ID, s.clock.Now()); err != nil {
				return false, err
			}
		}
	}

	if req.OriginEnrollmentID == nil {
		return true, nil
	}
	origin, err := repos.Enrollments.GetByID(ctx, *req.OriginEnrollmentID)
	if err != nil {
		return false, fmt.Errorf("get origin enrollment: %w", err)
	}
	if origin == nil || origin.IsActive {
		return true, nil
	}
	current, err := repos.Enrollments.GetActive(ctx, origin.StudentID, origin.SlotID)
	if err != nil {
		return false, fmt.Errorf("get active origin enrollment: %w", err)
	}
	if current != nil {
		return true, nil
	}

	// Исходный слот блокируется: освобождённое одобрением место могли занять
	slot, err := repos.Slots.GetByIDForUpdate(ctx, origin.SlotID)
	if err != nil {
		return false, fmt.Errorf("get origin slot: %w", err)
	}
	if slot == nil || !slot.IsActive {
		_, err := deactivateIfIdle(ctx, repos, origin.StudentID)
		return false, err
	}
	if err := checkSeat(ctx, repos, slot); err != nil {
		if !errors.Is(err, model.ErrSlotFull) {
			return false, err
		}
		_, err := deactivateIfIdle(ctx, repos, origin.StudentID)
		return false, err
	}

	if err := repos.Enrollments.Reactivate(ctx, origin.ID); err != nil {
		return false, err
	}
	return true, repos.Students.SetActive(ctx, origin.StudentID, true)
}

func restoreNotice(ctx context.Context, repos repository.Repositories, noticeID int64) error {
	notice, err := repos.Notices.GetByID(ctx, noticeID)
	if err != nil {
		return fmt.Errorf("get notice: %w", err)
	}
	if notice == nil || notice.Status != model.NoticeStatusUsed {
		return nil
	}
	if notice.MakeupUsesConsumed > 0 {
		notice.MakeupUsesConsumed--
	}
	notice.Status = model.NoticeStatusConfirmed
	return repos.Notices.Update(ctx, notice)
}

func reverseConsumption(ctx context.Context, repos repository.Repositories, c *model.CreditConsumption) error {
	credit, err := repos.Credits.GetByID(ctx, c.CreditID)
	if err != nil {
		return fmt.Errorf("get credit: %w", err)
	}
	if credit != nil && credit.QuantityUsed > 0 {
		credit.QuantityUsed--
		if err := repos.Credits.Update(ctx, credit); err != nil {
			return err
		}
	}
	return repos.Credits.DeleteConsumption(ctx, c.ID)
}
