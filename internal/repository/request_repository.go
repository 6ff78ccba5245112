package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository/base"
)

const requestColumns = `
	id, origin_slot_id, origin_date, destination_slot_id, destination_date,
	destination_start_minute, destination_end_minute, student_id,
	origin_enrollment_id, destination_enrollment_id, is_makeup, notice_id, credit_id,
	status, requested_by, approved_by, rejection_reason, created_at, updated_at`

type RequestPostgresRepository struct {
	*base.Repository
}

func NewRequestPostgresRepository(db base.DBTX) *RequestPostgresRepository {
	return &RequestPostgresRepository{Repository: base.NewRepository(db)}
}

func scanRequest(row pgx.Row) (*model.RescheduleRequest, error) {
	var req model.RescheduleRequest
	err := row.Scan(
		&req.ID,
		&req.OriginSlotID,
		&req.OriginDate,
		&req.DestinationSlotID,
		&req.DestinationDate,
		&req.DestinationStartTime,
		&req.DestinationEndTime,
		&req.StudentID,
		&req.OriginEnrollmentID,
		&req.DestinationEnrollmentID,
		&req.IsMakeup,
		&req.NoticeID,
		&req.CreditID,
		&req.Status,
		&req.RequestedBy,
		&req.ApprovedBy,
		&req.RejectionReason,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create создаёт заявку на перенос
func (r *RequestPostgresRepository) Create(ctx context.Context, req *model.RescheduleRequest) error {
	query := `
		INSERT INTO reschedule_requests (
			origin_slot_id, origin_date, destination_slot_id, destination_date,
			destination_start_minute, destination_end_minute, student_id,
			origin_enrollment_id, is_makeup, notice_id, credit_id, status, requested_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		req.OriginSlotID,
		req.OriginDate,
		req.DestinationSlotID,
		req.DestinationDate,
		req.DestinationStartTime,
		req.DestinationEndTime,
		req.StudentID,
		req.OriginEnrollmentID,
		req.IsMakeup,
		req.NoticeID,
		req.CreditID,
		req.Status,
		req.RequestedBy,
	).Scan(&req.ID, &req.CreatedAt)

	if err != nil {
		return fmt.Errorf("create reschedule request: %w", base.MapError(err))
	}

	return nil
}

// GetByID получает заявку по ID
func (r *RequestPostgresRepository) GetByID(ctx context.Context, id int64) (*model.RescheduleRequest, error) {
	return r.get(ctx, `SELECT `+requestColumns+` FROM reschedule_requests WHERE id = $1`, id)
}

// GetByIDForUpdate получает заявку и блокирует её строку
func (r *RequestPostgresRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.RescheduleRequest, error) {
	return r.get(ctx, `SELECT `+requestColumns+` FROM reschedule_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *RequestPostgresRepository) get(ctx context.Context, query string, args ...any) (*model.RescheduleRequest, error) {
	req, err := scanRequest(r.QueryRow(ctx, query, args...))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reschedule request: %w", err)
	}
	return req, nil
}

// Update сохраняет статус заявки и результат одобрения
func (r *RequestPostgresRepository) Update(ctx context.Context, req *model.RescheduleRequest) error {
	query := `
		UPDATE reschedule_requests
		SET status = $1,
		    destination_enrollment_id = $2,
		    approved_by = $3,
		    rejection_reason = $4,
		    updated_at = $5
		WHERE id = $6
	`

	now := time.Now()
	req.UpdatedAt = &now

	err := r.ExecOne(ctx, model.ErrRequestNotFound, query,
		req.Status,
		req.DestinationEnrollmentID,
		req.ApprovedBy,
		req.RejectionReason,
		req.UpdatedAt,
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("update reschedule request: %w", err)
	}
	return nil
}

// HasPending проверяет, есть ли у ученика pending-заявка на то же занятие
func (r *RequestPostgresRepository) HasPending(ctx context.Context, studentID, originSlotID int64, originDate time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM reschedule_requests
			WHERE student_id = $1 AND origin_slot_id = $2 AND origin_date = $3 AND status = 'pending'
		)
	`

	var exists bool
	if err := r.QueryRow(ctx, query, studentID, originSlotID, originDate).Scan(&exists); err != nil {
		return false, fmt.Errorf("check pending request: %w", err)
	}
	return exists, nil
}

// CountPendingForDestination подсчитывает pending-заявки, претендующие на место в занятии
func (r *RequestPostgresRepository) CountPendingForDestination(ctx context.Context, slotID int64, date time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM reschedule_requests
		WHERE destination_slot_id = $1 AND destination_date = $2 AND status = 'pending'
	`

	var count int
	if err := r.QueryRow(ctx, query, slotID, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending requests: %w", err)
	}
	return count, nil
}

// ListByDestinationDate получает заявки на дату назначения в указанных статусах
func (r *RequestPostgresRepository) ListByDestinationDate(ctx context.Context, date time.Time, statuses ...model.RequestStatus) ([]*model.RescheduleRequest, error) {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}

	query := `
		SELECT ` + requestColumns + `
		FROM reschedule_requests
		WHERE destination_date = $1 AND status = ANY($2)
		ORDER BY id
	`

	rows, err := r.Query(ctx, query, date, values)
	if err != nil {
		return nil, fmt.Errorf("list requests by destination date: %w", err)
	}

	requests, err := base.CollectPtrs(rows, scanRequest)
	if err != nil {
		return nil, fmt.Errorf("scan reschedule request: %w", err)
	}
	return requests, nil
}

// FindApprovedForDestination ищет одобренную заявку ученика на занятие
func (r *RequestPostgresRepository) FindApprovedForDestination(ctx context.Context, studentID, slotID int64, date time.Time) (*model.RescheduleRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM reschedule_requests
		WHERE student_id = $1 AND destination_slot_id = $2 AND destination_date = $3 AND status = 'approved'
		ORDER BY id DESC
		LIMIT 1
	`
	return r.get(ctx, query, studentID, slotID, date)
}

// List получает заявки по фильтру, новые первыми
func (r *RequestPostgresRepository) List(ctx context.Context, filter model.RequestFilter) ([]*model.RescheduleRequest, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		conds = append(conds, fmt.Sprintf("student_id = $%d", len(args)))
	}

	query := `SELECT ` + requestColumns + ` FROM reschedule_requests`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reschedule requests: %w", err)
	}

	requests, err := base.CollectPtrs(rows, scanRequest)
	if err != nil {
		return nil, fmt.Errorf("scan reschedule request: %w", err)
	}
	return requests, nil
}
