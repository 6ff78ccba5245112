package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository"
	"github.com/Freeeeeet/studio_scheduler/internal/scheduling"
)

// RescheduleService заявки на перенос занятия: создание, одобрение, отклонение
type RescheduleService struct {
	store   repository.Store
	clock   Clock
	policy  Policy
	metrics Metrics
	logger  *zap.Logger
}

func NewRescheduleService(store repository.Store, clock Clock, policy Policy, metrics Metrics, logger *zap.Logger) *RescheduleService {
	return &RescheduleService{
		store:   store,
		clock:   clock,
		policy:  policy,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *RescheduleService) rules() scheduling.Rules {
	return scheduling.Rules{
		Now:              s.clock.Now(),
		Location:         s.clock.Location,
		MinSameDayNotice: s.policy.MinSameDayNotice,
	}
}

// CreateRequest проверяет и создаёт заявку. Сотрудник с AutoApprove
// создаёт сразу одобренную заявку в той же транзакции.
func (s *RescheduleService) CreateRequest(ctx context.Context, in model.CreateRequestInput) (*model.RescheduleRequest, error) {
	if err := model.Validate(in); err != nil {
		return nil, err
	}
	if in.AutoApprove && in.RequestedBy != model.RequestedByStaff {
		vErr := &model.ValidationError{}
		vErr.Add("auto_approve", "is allowed for staff only")
		return nil, vErr
	}
	if in.IsMakeup != (in.NoticeID != nil || in.CreditID != nil) || (in.NoticeID != nil && in.CreditID != nil) {
		return nil, model.ErrAmbiguousLink
	}

	var req *model.RescheduleRequest
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		req, err = s.prepare(ctx, repos, in)
		if err != nil {
			return err
		}
		if err := repos.Requests.Create(ctx, req); err != nil {
			return err
		}
		if in.AutoApprove {
			return s.approve(ctx, repos, req, in.ActorID)
		}
		return nil
	})
	if err != nil {
		logFailure(s.logger, "Reschedule request refused", err,
			zap.Int64("student_id", in.StudentID),
			zap.Int64("origin_slot_id", in.OriginSlotID),
			zap.Int64("destination_slot_id", in.DestinationSlotID),
			zap.String("requested_by", string(in.RequestedBy)),
		)
		return nil, fmt.Errorf("create reschedule request: %w", err)
	}

	s.metrics.RequestTransition(transitionCreated)
	if req.IsApproved() {
		s.metrics.RequestTransition(transitionApproved)
	}

	s.logger.Info("Reschedule request created",
		zap.Int64("request_id", req.ID),
		zap.Int64("student_id", req.StudentID),
		zap.Int64("origin_slot_id", req.OriginSlotID),
		zap.String("origin_date", req.OriginDate.Format(model.DateLayout)),
		zap.Int64("destination_slot_id", req.DestinationSlotID),
		zap.String("destination_date", req.DestinationDate.Format(model.DateLayout)),
		zap.Bool("makeup", req.IsMakeup),
		zap.String("status", string(req.Status)),
	)

	return req, nil
}

// prepare проверяет все предусловия создания и собирает заявку
func (s *RescheduleService) prepare(ctx context.Context, repos repository.Repositories, in model.CreateRequestInput) (*model.RescheduleRequest, error) {
	originDate := model.DateOf(in.OriginDate)
	destDate := model.DateOf(in.DestinationDate)
	staff := in.RequestedBy == model.RequestedByStaff

	// Исходная запись и ученик
	origin, err := resolveOrigin(ctx, repos, in.StudentID, in.OriginEnrollmentID, in.OriginSlotID)
	if err != nil {
		return nil, err
	}
	studentID := origin.StudentID

	student, err := repos.Students.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, model.ErrStudentNotFound
	}

	originSlot, err := repos.Slots.GetByID(ctx, in.OriginSlotID)
	if err != nil {
		return nil, fmt.Errorf("get origin slot: %w", err)
	}
	if originSlot == nil {
		return nil, model.ErrNotEnrolled
	}
	if !originSlot.FallsOn(originDate) {
		return nil, fmt.Errorf("origin: %w", model.ErrDayMismatch)
	}

	// Слот назначения
	dest, err := repos.Slots.GetByID(ctx, in.DestinationSlotID)
	if err != nil {
		return nil, fmt.Errorf("get destination slot: %w", err)
	}
	if dest == nil || !dest.IsActive {
		return nil, model.ErrDestinationNotFound
	}

	// Основание для отработки
	if in.NoticeID != nil {
		if err := s.checkNotice(ctx, repos, *in.NoticeID, studentID, in.OriginSlotID, originDate, destDate, staff); err != nil {
			return nil, err
		}
	}
	if in.CreditID != nil {
		credit, err := repos.Credits.GetByID(ctx, *in.CreditID)
		if err != nil {
			return nil, fmt.Errorf("get credit: %w", err)
		}
		if credit != nil && credit.StudentID != studentID {
			return nil, linkMismatch("credit_id", "belongs to another student")
		}
		if err := scheduling.ValidateCredit(credit, dest, destDate, s.clock.Today()); err != nil {
			return nil, err
		}
	}

	already, err := repos.Enrollments.GetActive(ctx, studentID, dest.ID)
	if err != nil {
		return nil, fmt.Errorf("get destination enrollment: %w", err)
	}
	if already != nil {
		return nil, model.ErrAlreadyEnrolled
	}

	// Вместимость, день недели, праздник, запас времени и общий зал
	destination, err := loadDestination(ctx, repos, dest, destDate)
	if err != nil {
		return nil, err
	}
	if err := scheduling.ValidateDestination(destination, s.rules()); err != nil {
		return nil, err
	}

	// Одна ожидающая заявка на одно занятие
	pending, err := repos.Requests.HasPending(ctx, studentID, in.OriginSlotID, originDate)
	if err != nil {
		return nil, fmt.Errorf("check pending: %w", err)
	}
	if pending {
		return nil, model.ErrDuplicatePending
	}

	return &model.RescheduleRequest{
		OriginSlotID:         in.OriginSlotID,
		OriginDate:           originDate,
		DestinationSlotID:    dest.ID,
		DestinationDate:      destDate,
		DestinationStartTime: dest.StartTime,
		DestinationEndTime:   dest.EndTime,
		StudentID:            studentID,
		OriginEnrollmentID:   &origin.ID,
		IsMakeup:             in.IsMakeup,
		NoticeID:             in.NoticeID,
		CreditID:             in.CreditID,
		Status:               model.RequestStatusPending,
		RequestedBy:          in.RequestedBy,
	}, nil
}

// resolveOrigin находит активную запись, с которой переносится занятие.
// Явный originEnrollmentID снимает неоднозначность, когда в слоте много учеников.
func resolveOrigin(ctx context.Context, repos repository.Repositories, studentID int64, originEnrollmentID *int64, originSlotID int64) (*model.Enrollment, error) {
	if originEnrollmentID != nil {
		e, err := repos.Enrollments.GetByID(ctx, *originEnrollmentID)
		if err != nil {
			return nil, fmt.Errorf("get origin enrollment: %w", err)
		}
		if e == nil || !e.IsActive || e.SlotID != originSlotID || (studentID != 0 && e.StudentID != studentID) {
			return nil, model.ErrNotEnrolled
		}
		return e, nil
	}

	e, err := repos.Enrollments.GetActive(ctx, studentID, originSlotID)
	if err != nil {
		return nil, fmt.Errorf("get origin enrollment: %w", err)
	}
	if e == nil {
		return nil, model.ErrNotEnrolled
	}
	return e, nil
}

func (s *RescheduleService) checkNotice(ctx context.Context, repos repository.Repositories, noticeID, studentID, originSlotID int64, originDate, destDate time.Time, staff bool) error {
	notice, err := repos.Notices.GetByID(ctx, noticeID)
	if err != nil {
		return fmt.Errorf("get notice: %w", err)
	}
	if notice != nil {
		if notice.StudentID != studentID {
			return linkMismatch("notice_id", "belongs to another student")
		}
		if notice.SlotID != originSlotID || !notice.AbsenceDate.Equal(originDate) {
			return linkMismatch("notice_id", "does not match the origin class")
		}
	}
	return scheduling.ValidateMakeupNotice(notice, destDate, staff)
}

func linkMismatch(field, msg string) error {
	vErr := &model.ValidationError{}
	vErr.Add(field, msg)
	return vErr
}

// loadDestination собирает данные для чистой проверки слота назначения
func loadDestination(ctx context.Context, repos repository.Repositories, slot *model.Slot, date time.Time) (scheduling.Destination, error) {
	d := scheduling.Destination{Slot: slot, Date: date}

	modality, err := repos.Modalities.GetByID(ctx, slot.ModalityID)
	if err != nil {
		return d, fmt.Errorf("get modality: %w", err)
	}
	d.Modality = modality

	enrolled, err := repos.Enrollments.CountActiveBySlot(ctx, slot.ID)
	if err != nil {
		return d, fmt.Errorf("count enrollments: %w", err)
	}
	pending, err := repos.Requests.CountPendingForDestination(ctx, slot.ID, date)
	if err != nil {
		return d, fmt.Errorf("count pending requests: %w", err)
	}
	d.Occupancy = enrolled + pending

	if modality != nil && len(modality.LinkedModalityIDs) > 0 {
		d.LinkedSlots, err = repos.Slots.ListActiveByModalities(ctx, modality.LinkedModalityIDs, slot.Weekday)
		if err != nil {
			return d, fmt.Errorf("list linked slots: %w", err)
		}
	}

	d.IsHoliday, err = repos.Holidays.Exists(ctx, date)
	if err != nil {
		return d, fmt.Errorf("check holiday: %w", err)
	}
	return d, nil
}

// Approve одобряет заявку одной транзакцией: переносит запись и списывает
// право на отработку или кредит. Строка заявки блокируется, поэтому второе
// одобрение получает ErrAlreadyProcessed.
func (s *RescheduleService) Approve(ctx context.Context, requestID, staffID int64) (*model.RescheduleRequest, error) {
	var req *model.RescheduleRequest

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		req, err = lockPending(ctx, repos, requestID)
		if err != nil {
			return err
		}
		return s.approve(ctx, repos, req, staffID)
	})
	if err != nil {
		logFailure(s.logger, "Approval failed", err, zap.Int64("request_id", requestID))
		return nil, fmt.Errorf("approve request: %w", err)
	}

	s.metrics.RequestTransition(transitionApproved)
	s.logger.Info("Reschedule request approved",
		zap.Int64("request_id", req.ID),
		zap.Int64("student_id", req.StudentID),
		zap.Int64("destination_enrollment_id", *req.DestinationEnrollmentID),
		zap.Int64("staff_id", staffID),
	)
	return req, nil
}

func lockPending(ctx context.Context, repos repository.Repositories, requestID int64) (*model.RescheduleRequest, error) {
	req, err := repos.Requests.GetByIDForUpdate(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, model.ErrRequestNotFound
	}
	if !req.IsPending() {
		return nil, model.ErrAlreadyProcessed
	}
	return req, nil
}

// approve шаги одобрения внутри уже открытой транзакции
func (s *RescheduleService) approve(ctx context.Context, repos repository.Repositories, req *model.RescheduleRequest, staffID int64) error {
	// Находим исходную запись и ученика
	origin, err := resolveOrigin(ctx, repos, req.StudentID, req.OriginEnrollmentID, req.OriginSlotID)
	if err != nil {
		return err
	}

	student, err := repos.Students.GetByID(ctx, origin.StudentID)
	if err != nil {
		return fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return model.ErrStudentNotFound
	}

	// Блокируем слот назначения, новые записи в него ждут конца транзакции
	dest, err := repos.Slots.GetByIDForUpdate(ctx, req.DestinationSlotID)
	if err != nil {
		return fmt.Errorf("get destination slot: %w", err)
	}
	if dest == nil || !dest.IsActive {
		return model.ErrNoTargetFound
	}

	// Заявка могла пролежать до начала занятия: прошедший перенос не одобряется
	started := s.rules()
	started.MinSameDayNotice = 0
	if err := scheduling.CheckNotice(req.DestinationDate, dest.StartTime, started); err != nil {
		return err
	}

	already, err := repos.Enrollments.GetActive(ctx, student.ID, dest.ID)
	if err != nil {
		return fmt.Errorf("get destination enrollment: %w", err)
	}
	if already != nil {
		return model.ErrAlreadyEnrolled
	}

	// Повторная проверка мест под блокировкой
	if err := checkSeat(ctx, repos, dest); err != nil {
		return err
	}

	// Переносим запись
	if err := repos.Enrollments.Deactivate(ctx, origin.ID, s.clock.Now()); err != nil {
		return fmt.Errorf("deactivate origin: %w", err)
	}

	moved := &model.Enrollment{
		SlotID:    dest.ID,
		StudentID: student.ID,
		IsActive:  true,
	}
	if err := repos.Enrollments.Create(ctx, moved); err != nil {
		return fmt.Errorf("create destination enrollment: %w", err)
	}

	// Обновляем статус заявки
	req.Status = model.RequestStatusApproved
	req.DestinationEnrollmentID = &moved.ID
	if staffID != 0 {
		req.ApprovedBy = &staffID
	}
	if err := repos.Requests.Update(ctx, req); err != nil {
		return err
	}

	// Списываем право на отработку или кредит
	switch {
	case req.NoticeID != nil:
		return consumeNotice(ctx, repos, *req.NoticeID, req)
	case req.CreditID != nil:
		credit, err := repos.Credits.GetByID(ctx, *req.CreditID)
		if err != nil {
			return fmt.Errorf("get credit: %w", err)
		}
		if err := scheduling.ValidateCredit(credit, dest, req.DestinationDate, s.clock.Today()); err != nil {
			return err
		}
		return consumeCredit(ctx, repos, credit, &req.ID, req.DestinationDate)
	}
	return nil
}

// consumeNotice помечает право на отработку использованным. Право без
// hasMakeupRight допускается: до одобрения его мог засчитать только сотрудник.
func consumeNotice(ctx context.Context, repos repository.Repositories, noticeID int64, req *model.RescheduleRequest) error {
	notice, err := repos.Notices.GetByID(ctx, noticeID)
	if err != nil {
		return fmt.Errorf("get notice: %w", err)
	}
	if err := scheduling.ValidateMakeupNotice(notice, req.DestinationDate, true); err != nil {
		return err
	}

	notice.MakeupUsesConsumed++
	notice.Status = model.NoticeStatusUsed
	return repos.Notices.Update(ctx, notice)
}

// Reject отклоняет pending-заявку без побочных эффектов
func (s *RescheduleService) Reject(ctx context.Context, requestID, staffID int64, reason string) (*model.RescheduleRequest, error) {
	var req *model.RescheduleRequest

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		req, err = lockPending(ctx, repos, requestID)
		if err != nil {
			return err
		}
		req.Status = model.RequestStatusRejected
		req.RejectionReason = reason
		return repos.Requests.Update(ctx, req)
	})
	if err != nil {
		logFailure(s.logger, "Rejection failed", err, zap.Int64("request_id", requestID))
		return nil, fmt.Errorf("reject request: %w", err)
	}

	s.metrics.RequestTransition(transitionRejected)
	s.logger.Info("Reschedule request rejected",
		zap.Int64("request_id", req.ID),
		zap.Int64("staff_id", staffID),
		zap.String("reason", reason),
	)
	return req, nil
}

// Get получает заявку, ErrRequestNotFound если её нет
func (s *RescheduleService) Get(ctx context.Context, requestID int64) (*model.RescheduleRequest, error) {
	req, err := s.store.Repositories().Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, model.ErrRequestNotFound
	}
	return req, nil
}

// List заявки по фильтру, новые первыми
func (s *RescheduleService) List(ctx context.Context, filter model.RequestFilter) ([]*model.RescheduleRequest, error) {
	return s.store.Repositories().Requests.List(ctx, filter)
}

// ListPending заявки, ожидающие решения сотрудника
func (s *RescheduleService) ListPending(ctx context.Context) ([]*model.RescheduleRequest, error) {
	status := model.RequestStatusPending
	return s.List(ctx, model.RequestFilter{Status: &status})
}

// IsRetryable ошибка одобрения не связана с бизнес-правилами (например,
// сбой коммита), и вызов можно повторить целиком
func IsRetryable(err error) bool {
	return err != nil && model.ErrorKind(err) == "unexpected" && !errors.Is(err, context.Canceled)
}
