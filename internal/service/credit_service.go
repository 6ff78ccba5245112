package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository"
)

// CreditService кредиты на отработку
type CreditService struct {
	store  repository.Store
	clock  Clock
	logger *zap.Logger
}

func NewCreditService(store repository.Store, clock Clock, logger *zap.Logger) *CreditService {
	return &CreditService{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// RevokeResult итог отзыва кредитов
type RevokeResult struct {
	Deleted     int
	Deactivated int
}

// Grant выдаёт кредит. Срок действия должен быть строго в будущем.
func (s *CreditService) Grant(ctx context.Context, in model.GrantCreditInput) (*model.Credit, error) {
	if err := model.Validate(in); err != nil {
		return nil, err
	}

	// Срок действия строго после сегодняшней даты студии
	expiry := model.DateOf(in.ExpiryDate)
	if !expiry.After(s.clock.Today()) {
		vErr := &model.ValidationError{}
		vErr.Add("expiry_date", "must be in the future")
		return nil, vErr
	}

	credit := &model.Credit{
		StudentID:       in.StudentID,
		QuantityGranted: in.Quantity,
		ModalityID:      in.ModalityID,
		Reason:          in.Reason,
		ExpiryDate:      expiry,
		SourceEventID:   in.SourceEventID,
		IsActive:        true,
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		return grant(ctx, repos, credit)
	})
	if err != nil {
		return nil, fmt.Errorf("grant credit: %w", err)
	}

	s.logger.Info("Credit granted",
		zap.Int64("credit_id", credit.ID),
		zap.Int64("student_id", credit.StudentID),
		zap.Int("quantity", credit.QuantityGranted),
		zap.String("expiry", credit.ExpiryDate.Format(model.DateLayout)),
	)

	return credit, nil
}

func grant(ctx context.Context, repos repository.Repositories, credit *model.Credit) error {
	// Проверяем ученика
	student, err := repos.Students.GetByID(ctx, credit.StudentID)
	if err != nil {
		return fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return model.ErrStudentNotFound
	}

	// Кредит с модальностью годится только для неё
	if credit.ModalityID != nil {
		modality, err := repos.Modalities.GetByID(ctx, *credit.ModalityID)
		if err != nil {
			return fmt.Errorf("get modality: %w", err)
		}
		if modality == nil {
			return model.ErrModalityNotFound
		}
	}

	return repos.Credits.Create(ctx, credit)
}

// Consume списывает одну единицу кредита вне заявки на перенос
func (s *CreditService) Consume(ctx context.Context, creditID int64) (*model.Credit, error) {
	var credit *model.Credit

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		credit, err = repos.Credits.GetByID(ctx, creditID)
		if err != nil {
			return fmt.Errorf("get credit: %w", err)
		}
		if credit == nil {
			return model.ErrCreditNotFound
		}
		if !credit.IsActive {
			return fmt.Errorf("credit %d: %w", credit.ID, model.ErrInactive)
		}
		return consumeCredit(ctx, repos, credit, nil, s.clock.Today())
	})
	if err != nil {
		logFailure(s.logger, "Credit consumption refused", err, zap.Int64("credit_id", creditID))
		return nil, fmt.Errorf("consume credit: %w", err)
	}

	s.logger.Info("Credit consumed",
		zap.Int64("credit_id", credit.ID),
		zap.Int("used", credit.QuantityUsed),
		zap.Int("granted", credit.QuantityGranted),
	)
	return credit, nil
}

// consumeCredit увеличивает quantityUsed и пишет запись о списании на classDate
func consumeCredit(ctx context.Context, repos repository.Repositories, credit *model.Credit, requestID *int64, classDate time.Time) error {
	if credit.Remaining() <= 0 {
		return model.ErrCreditExhausted
	}

	credit.QuantityUsed++
	if err := repos.Credits.Update(ctx, credit); err != nil {
		return err
	}

	// Запись о списании нужна для отката при объявлении праздника
	return repos.Credits.AddConsumption(ctx, &model.CreditConsumption{
		CreditID:  credit.ID,
		RequestID: requestID,
		ClassDate: classDate,
	})
}

// Revoke удаляет неиспользованный кредит; частично использованный
// только выключается, чтобы сохранить историю
func (s *CreditService) Revoke(ctx context.Context, creditID int64) (RevokeResult, error) {
	var res RevokeResult

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		credit, err := repos.Credits.GetByID(ctx, creditID)
		if err != nil {
			return fmt.Errorf("get credit: %w", err)
		}
		if credit == nil {
			return model.ErrCreditNotFound
		}
		return revoke(ctx, repos, credit, &res)
	})
	if err != nil {
		return RevokeResult{}, fmt.Errorf("revoke credit: %w", err)
	}

	s.logger.Info("Credit revoked",
		zap.Int64("credit_id", creditID),
		zap.Bool("deleted", res.Deleted > 0),
	)
	return res, nil
}

func revoke(ctx context.Context, repos repository.Repositories, credit *model.Credit, res *RevokeResult) error {
	// Неиспользованный удаляем целиком
	if credit.QuantityUsed == 0 {
		res.Deleted++
		return repos.Credits.Delete(ctx, credit.ID)
	}
	if !credit.IsActive {
		return nil
	}
	credit.IsActive = false
	res.Deactivated++
	return repos.Credits.Update(ctx, credit)
}

// GrantForCancelledClass выдаёт по кредиту каждому записанному в слот
// ученику за отменённое занятие. Все кредиты получают общий EventID.
func (s *CreditService) GrantForCancelledClass(ctx context.Context, slotID int64, date, expiry time.Time, reason string) (*model.ClassCancellation, error) {
	date = model.DateOf(date)
	expiry = model.DateOf(expiry)
	if !expiry.After(s.clock.Today()) {
		vErr := &model.ValidationError{}
		vErr.Add("expiry_date", "must be in the future")
		return nil, vErr
	}

	result := &model.ClassCancellation{
		EventID: uuid.New(),
		SlotID:  slotID,
		Date:    date,
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		// Получаем информацию о слоте
		slot, err := repos.Slots.GetByID(ctx, slotID)
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		if slot == nil {
			return model.ErrSlotNotFound
		}
		if !slot.FallsOn(date) {
			return model.ErrDayMismatch
		}

		// Кредит каждому записанному, привязанный к модальности слота
		enrollments, err := repos.Enrollments.ListActiveBySlot(ctx, slotID)
		if err != nil {
			return fmt.Errorf("list enrollments: %w", err)
		}

		for _, e := range enrollments {
			credit := &model.Credit{
				StudentID:       e.StudentID,
				QuantityGranted: 1,
				ModalityID:      &slot.ModalityID,
				Reason:          reason,
				ExpiryDate:      expiry,
				SourceEventID:   &result.EventID,
				IsActive:        true,
			}
			if err := grant(ctx, repos, credit); err != nil {
				return err
			}
			result.Credits = append(result.Credits, credit)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("grant for cancelled class: %w", err)
	}

	s.logger.Info("Credits granted for cancelled class",
		zap.String("event_id", result.EventID.String()),
		zap.Int64("slot_id", slotID),
		zap.String("date", date.Format(model.DateLayout)),
		zap.Int("credits", len(result.Credits)),
	)
	return result, nil
}

// RevokeCancellation отзывает все кредиты, выданные за одно отменённое занятие
func (s *CreditService) RevokeCancellation(ctx context.Context, eventID uuid.UUID) (RevokeResult, error) {
	var res RevokeResult

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		credits, err := repos.Credits.ListBySourceEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("list credits: %w", err)
		}
		if len(credits) == 0 {
			return model.ErrCreditNotFound
		}
		for _, c := range credits {
			if err := revoke(ctx, repos, c, &res); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return RevokeResult{}, fmt.Errorf("revoke cancellation: %w", err)
	}

	s.logger.Info("Cancellation credits revoked",
		zap.String("event_id", eventID.String()),
		zap.Int("deleted", res.Deleted),
		zap.Int("deactivated", res.Deactivated),
	)
	return res, nil
}

// ListByStudent кредиты ученика по сроку действия
func (s *CreditService) ListByStudent(ctx context.Context, studentID int64) ([]*model.Credit, error) {
	return s.store.Repositories().Credits.ListByStudent(ctx, studentID)
}

// Balance сколько отработок ученик может получить по действующим кредитам
func (s *CreditService) Balance(ctx context.Context, studentID int64) (int, error) {
	credits, err := s.ListByStudent(ctx, studentID)
	if err != nil {
		return 0, fmt.Errorf("list credits: %w", err)
	}

	today := s.clock.Today()
	balance := 0
	for _, c := range credits {
		if c.IsValid(today) {
			balance += c.Remaining()
		}
	}
	return balance, nil
}
