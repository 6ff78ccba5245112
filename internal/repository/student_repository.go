package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository/base"
)

const studentColumns = `id, name, telegram_id, is_active, is_frozen, created_at`

type StudentPostgresRepository struct {
	*base.Repository
}

func NewStudentPostgresRepository(db base.DBTX) *StudentPostgresRepository {
	return &StudentPostgresRepository{Repository: base.NewRepository(db)}
}

func scanStudent(row pgx.Row) (*model.Student, error) {
	var s model.Student
	if err := row.Scan(&s.ID, &s.Name, &s.TelegramID, &s.IsActive, &s.IsFrozen, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create создаёт ученика
func (r *StudentPostgresRepository) Create(ctx context.Context, student *model.Student) error {
	query := `
		INSERT INTO students (name, telegram_id, is_active, is_frozen)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query,
		student.Name,
		student.TelegramID,
		student.IsActive,
		student.IsFrozen,
	).Scan(&student.ID, &student.CreatedAt)
	if err != nil {
		return fmt.Errorf("create student: %w", base.MapError(err))
	}
	return nil
}

// GetByID получает ученика по ID
func (r *StudentPostgresRepository) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	s, err := scanStudent(r.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student by id: %w", err)
	}
	return s, nil
}

// GetByTelegramID получает ученика по Telegram ID
func (r *StudentPostgresRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.Student, error) {
	s, err := scanStudent(r.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE telegram_id = $1`, telegramID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student by telegram id: %w", err)
	}
	return s, nil
}

// SetActive включает или выключает ученика (мягкое удаление)
func (r *StudentPostgresRepository) SetActive(ctx context.Context, id int64, active bool) error {
	err := r.ExecOne(ctx, model.ErrStudentNotFound, `UPDATE students SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("set student active: %w", err)
	}
	return nil
}

// SetFrozen ставит абонемент ученика на паузу или снимает с неё
func (r *StudentPostgresRepository) SetFrozen(ctx context.Context, id int64, frozen bool) error {
	err := r.ExecOne(ctx, model.ErrStudentNotFound, `UPDATE students SET is_frozen = $1 WHERE id = $2`, frozen, id)
	if err != nil {
		return fmt.Errorf("set student frozen: %w", err)
	}
	return nil
}
