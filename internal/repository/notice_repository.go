package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository/base"
)

const noticeColumns = `id, student_id, enrollment_id, slot_id, absence_date, reason, status, has_makeup_right, makeup_uses_consumed, created_at, updated_at`

// NoticePostgresRepository хранит уведомления о пропусках
type NoticePostgresRepository struct {
	*base.Repository
}

func NewNoticePostgresRepository(db base.DBTX) *NoticePostgresRepository {
	return &NoticePostgresRepository{Repository: base.NewRepository(db)}
}

func scanNotice(row pgx.Row) (*model.AbsenceNotice, error) {
	var n model.AbsenceNotice
	err := row.Scan(
		&n.ID,
		&n.StudentID,
		&n.EnrollmentID,
		&n.SlotID,
		&n.AbsenceDate,
		&n.Reason,
		&n.Status,
		&n.HasMakeupRight,
		&n.MakeupUsesConsumed,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Create создаёт уведомление о пропуске
func (r *NoticePostgresRepository) Create(ctx context.Context, notice *model.AbsenceNotice) error {
	query := `
		INSERT INTO absence_notices (student_id, enrollment_id, slot_id, absence_date, reason, status, has_makeup_right, makeup_uses_consumed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		notice.StudentID,
		notice.EnrollmentID,
		notice.SlotID,
		notice.AbsenceDate,
		notice.Reason,
		notice.Status,
		notice.HasMakeupRight,
		notice.MakeupUsesConsumed,
	).Scan(&notice.ID, &notice.CreatedAt, &notice.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create absence notice: %w", base.MapError(err))
	}
	return nil
}

// GetByID получает уведомление по ID
func (r *NoticePostgresRepository) GetByID(ctx context.Context, id int64) (*model.AbsenceNotice, error) {
	n, err := scanNotice(r.QueryRow(ctx, `SELECT `+noticeColumns+` FROM absence_notices WHERE id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get absence notice: %w", err)
	}
	return n, nil
}

// GetOpen получает pending/confirmed уведомление по записи и дате
func (r *NoticePostgresRepository) GetOpen(ctx context.Context, enrollmentID int64, date time.Time) (*model.AbsenceNotice, error) {
	query := `
		SELECT ` + noticeColumns + `
		FROM absence_notices
		WHERE enrollment_id = $1 AND absence_date = $2 AND status IN ('pending', 'confirmed')
		LIMIT 1
	`

	n, err := scanNotice(r.QueryRow(ctx, query, enrollmentID, date))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get open absence notice: %w", err)
	}
	return n, nil
}

// Update сохраняет статус и счётчик использований
func (r *NoticePostgresRepository) Update(ctx context.Context, notice *model.AbsenceNotice) error {
	query := `
		UPDATE absence_notices
		SET status = $1, makeup_uses_consumed = $2, updated_at = $3
		WHERE id = $4
	`

	notice.UpdatedAt = time.Now()
	err := r.ExecOne(ctx, model.ErrNoticeNotFound, query,
		notice.Status,
		notice.MakeupUsesConsumed,
		notice.UpdatedAt,
		notice.ID,
	)
	if err != nil {
		return fmt.Errorf("update absence notice: %w", err)
	}
	return nil
}

// ListByStudent получает уведомления ученика, новые первыми
func (r *NoticePostgresRepository) ListByStudent(ctx context.Context, studentID int64) ([]*model.AbsenceNotice, error) {
	query := `
		SELECT ` + noticeColumns + `
		FROM absence_notices
		WHERE student_id = $1
		ORDER BY absence_date DESC
	`

	rows, err := r.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("list notices by student: %w", err)
	}

	notices, err := base.CollectPtrs(rows, scanNotice)
	if err != nil {
		return nil, fmt.Errorf("scan absence notice: %w", err)
	}
	return notices, nil
}

// ListByDateAndStatus получает уведомления на дату в указанном статусе
func (r *NoticePostgresRepository) ListByDateAndStatus(ctx context.Context, date time.Time, status model.NoticeStatus) ([]*model.AbsenceNotice, error) {
	query := `
		SELECT ` + noticeColumns + `
		FROM absence_notices
		WHERE absence_date = $1 AND status = $2
		ORDER BY id
	`

	rows, err := r.Query(ctx, query, date, status)
	if err != nil {
		return nil, fmt.Errorf("list notices by date: %w", err)
	}

	notices, err := base.CollectPtrs(rows, scanNotice)
	if err != nil {
		return nil, fmt.Errorf("scan absence notice: %w", err)
	}
	return notices, nil
}
