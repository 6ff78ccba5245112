package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository/base"
)

const enrollmentColumns = `id, slot_id, student_id, is_active, is_substitute, replaces_enrollment_id, created_at, deactivated_at`

type EnrollmentPostgresRepository struct {
	*base.Repository
}

func NewEnrollmentPostgresRepository(db base.DBTX) *EnrollmentPostgresRepository {
	return &EnrollmentPostgresRepository{Repository: base.NewRepository(db)}
}

func scanEnrollment(row pgx.Row) (*model.Enrollment, error) {
	var e model.Enrollment
	err := row.Scan(
		&e.ID,
		&e.SlotID,
		&e.StudentID,
		&e.IsActive,
		&e.IsSubstitute,
		&e.ReplacesEnrollmentID,
		&e.CreatedAt,
		&e.DeactivatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create создаёт запись ученика в слот. Уникальный частичный индекс
// не даёт создать вторую активную запись на ту же пару.
func (r *EnrollmentPostgresRepository) Create(ctx context.Context, enrollment *model.Enrollment) error {
	query := `
		INSERT INTO enrollments (slot_id, student_id, is_active, is_substitute, replaces_enrollment_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		enrollment.SlotID,
		enrollment.StudentID,
		enrollment.IsActive,
		enrollment.IsSubstitute,
		enrollment.ReplacesEnrollmentID,
	).Scan(&enrollment.ID, &enrollment.CreatedAt)

	if err != nil {
		return fmt.Errorf("create enrollment: %w", base.MapError(err))
	}

	return nil
}

// GetByID получает запись по ID
func (r *EnrollmentPostgresRepository) GetByID(ctx context.Context, id int64) (*model.Enrollment, error) {
	e, err := scanEnrollment(r.QueryRow(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get enrollment by id: %w", err)
	}
	return e, nil
}

// GetActive получает активную запись ученика в слот
func (r *EnrollmentPostgresRepository) GetActive(ctx context.Context, studentID, slotID int64) (*model.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE student_id = $1 AND slot_id = $2 AND is_active = TRUE
	`

	e, err := scanEnrollment(r.QueryRow(ctx, query, studentID, slotID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active enrollment: %w", err)
	}
	return e, nil
}

// ListActiveBySlot получает активные записи слота
func (r *EnrollmentPostgresRepository) ListActiveBySlot(ctx context.Context, slotID int64) ([]*model.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE slot_id = $1 AND is_active = TRUE
		ORDER BY created_at ASC
	`

	rows, err := r.Query(ctx, query, slotID)
	if err != nil {
		return nil, fmt.Errorf("get enrollments by slot: %w", err)
	}

	enrollments, err := base.CollectPtrs(rows, scanEnrollment)
	if err != nil {
		return nil, fmt.Errorf("scan enrollment: %w", err)
	}
	return enrollments, nil
}

// ListActiveByStudent получает активные записи ученика
func (r *EnrollmentPostgresRepository) ListActiveByStudent(ctx context.Context, studentID int64) ([]*model.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE student_id = $1 AND is_active = TRUE
		ORDER BY created_at ASC
	`

	rows, err := r.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("get enrollments by student: %w", err)
	}

	enrollments, err := base.CollectPtrs(rows, scanEnrollment)
	if err != nil {
		return nil, fmt.Errorf("scan enrollment: %w", err)
	}
	return enrollments, nil
}

// CountActiveBySlot подсчитывает активные записи слота
func (r *EnrollmentPostgresRepository) CountActiveBySlot(ctx context.Context, slotID int64) (int, error) {
	var count int
	err := r.QueryRow(ctx, `SELECT COUNT(*) FROM enrollments WHERE slot_id = $1 AND is_active = TRUE`, slotID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count enrollments by slot: %w", err)
	}
	return count, nil
}

// CountActiveByStudent подсчитывает активные записи ученика
func (r *EnrollmentPostgresRepository) CountActiveByStudent(ctx context.Context, studentID int64) (int, error) {
	var count int
	err := r.QueryRow(ctx, `SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND is_active = TRUE`, studentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count enrollments by student: %w", err)
	}
	return count, nil
}

// Deactivate мягко деактивирует запись, история сохраняется
func (r *EnrollmentPostgresRepository) Deactivate(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE enrollments
		SET is_active = FALSE, deactivated_at = $1
		WHERE id = $2 AND is_active = TRUE
	`

	if err := r.ExecOne(ctx, model.ErrEnrollmentNotFound, query, at, id); err != nil {
		return fmt.Errorf("deactivate enrollment: %w", err)
	}
	return nil
}

// Reactivate возвращает ранее деактивированную запись
func (r *EnrollmentPostgresRepository) Reactivate(ctx context.Context, id int64) error {
	query := `
		UPDATE enrollments
		SET is_active = TRUE, deactivated_at = NULL
		WHERE id = $1 AND is_active = FALSE
	`

	if err := r.ExecOne(ctx, model.ErrEnrollmentNotFound, query, id); err != nil {
		return fmt.Errorf("reactivate enrollment: %w", err)
	}
	return nil
}
