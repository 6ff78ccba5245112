package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository/base"
)

type HolidayPostgresRepository struct {
	*base.Repository
}

func NewHolidayPostgresRepository(db base.DBTX) *HolidayPostgresRepository {
	return &HolidayPostgresRepository{Repository: base.NewRepository(db)}
}

// Create объявляет дату праздником. Повтор даты даёт ErrHolidayExists.
func (r *HolidayPostgresRepository) Create(ctx context.Context, holiday *model.Holiday) error {
	query := `
		INSERT INTO holidays (holiday_date, reason)
		VALUES ($1, $2)
		ON CONFLICT (holiday_date) DO NOTHING
		RETURNING created_at
	`

	err := r.QueryRow(ctx, query, holiday.Date, holiday.Reason).Scan(&holiday.CreatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return model.ErrHolidayExists
		}
		return fmt.Errorf("create holiday: %w", err)
	}
	return nil
}

// Exists проверяет, объявлена ли дата праздником
func (r *HolidayPostgresRepository) Exists(ctx context.Context, date time.Time) (bool, error) {
	var exists bool
	err := r.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM holidays WHERE holiday_date = $1)`, date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check holiday: %w", err)
	}
	return exists, nil
}

// List получает все праздники по возрастанию даты
func (r *HolidayPostgresRepository) List(ctx context.Context) ([]*model.Holiday, error) {
	rows, err := r.Query(ctx, `SELECT holiday_date, reason, created_at FROM holidays ORDER BY holiday_date`)
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}

	holidays, err := base.CollectPtrs(rows, func(row pgx.Row) (*model.Holiday, error) {
		var h model.Holiday
		if err := row.Scan(&h.Date, &h.Reason, &h.CreatedAt); err != nil {
			return nil, err
		}
		return &h, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan holiday: %w", err)
	}
	return holidays, nil
}
