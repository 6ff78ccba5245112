package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository/base"
)

const creditColumns = `id, student_id, quantity_granted, quantity_used, modality_id, reason, expiry_date, source_event_id, is_active, created_at`

// CreditPostgresRepository хранит кредиты и журнал их списаний
type CreditPostgresRepository struct {
	*base.Repository
}

func NewCreditPostgresRepository(db base.DBTX) *CreditPostgresRepository {
	return &CreditPostgresRepository{Repository: base.NewRepository(db)}
}

func scanCredit(row pgx.Row) (*model.Credit, error) {
	var c model.Credit
	err := row.Scan(
		&c.ID,
		&c.StudentID,
		&c.QuantityGranted,
		&c.QuantityUsed,
		&c.ModalityID,
		&c.Reason,
		&c.ExpiryDate,
		&c.SourceEventID,
		&c.IsActive,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanConsumption(row pgx.Row) (*model.CreditConsumption, error) {
	var c model.CreditConsumption
	if err := row.Scan(&c.ID, &c.CreditID, &c.RequestID, &c.ClassDate, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create выдаёт кредит
func (r *CreditPostgresRepository) Create(ctx context.Context, credit *model.Credit) error {
	query := `
		INSERT INTO credits (student_id, quantity_granted, quantity_used, modality_id, reason, expiry_date, source_event_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		credit.StudentID,
		credit.QuantityGranted,
		credit.QuantityUsed,
		credit.ModalityID,
		credit.Reason,
		credit.ExpiryDate,
		credit.SourceEventID,
		credit.IsActive,
	).Scan(&credit.ID, &credit.CreatedAt)

	if err != nil {
		return fmt.Errorf("create credit: %w", base.MapError(err))
	}
	return nil
}

// GetByID получает кредит по ID
func (r *CreditPostgresRepository) GetByID(ctx context.Context, id int64) (*model.Credit, error) {
	c, err := scanCredit(r.QueryRow(ctx, `SELECT `+creditColumns+` FROM credits WHERE id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credit by id: %w", err)
	}
	return c, nil
}

// Update сохраняет счётчик использований и активность.
// CHECK в схеме не даёт quantity_used выйти за [0, quantity_granted].
func (r *CreditPostgresRepository) Update(ctx context.Context, credit *model.Credit) error {
	query := `
		UPDATE credits
		SET quantity_used = $1, is_active = $2
		WHERE id = $3
	`

	if err := r.ExecOne(ctx, model.ErrCreditNotFound, query, credit.QuantityUsed, credit.IsActive, credit.ID); err != nil {
		return fmt.Errorf("update credit: %w", err)
	}
	return nil
}

// Delete удаляет неиспользованный кредит
func (r *CreditPostgresRepository) Delete(ctx context.Context, id int64) error {
	if err := r.ExecOne(ctx, model.ErrCreditNotFound, `DELETE FROM credits WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete credit: %w", err)
	}
	return nil
}

// ListByStudent получает кредиты ученика
func (r *CreditPostgresRepository) ListByStudent(ctx context.Context, studentID int64) ([]*model.Credit, error) {
	query := `
		SELECT ` + creditColumns + `
		FROM credits
		WHERE student_id = $1
		ORDER BY expiry_date ASC, id ASC
	`

	rows, err := r.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("list credits by student: %w", err)
	}

	credits, err := base.CollectPtrs(rows, scanCredit)
	if err != nil {
		return nil, fmt.Errorf("scan credit: %w", err)
	}
	return credits, nil
}

// ListBySourceEvent получает кредиты, выданные за одно отменённое занятие
func (r *CreditPostgresRepository) ListBySourceEvent(ctx context.Context, eventID uuid.UUID) ([]*model.Credit, error) {
	rows, err := r.Query(ctx, `SELECT `+creditColumns+` FROM credits WHERE source_event_id = $1 ORDER BY id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list credits by event: %w", err)
	}

	credits, err := base.CollectPtrs(rows, scanCredit)
	if err != nil {
		return nil, fmt.Errorf("scan credit: %w", err)
	}
	return credits, nil
}

// AddConsumption записывает списание единицы кредита
func (r *CreditPostgresRepository) AddConsumption(ctx context.Context, consumption *model.CreditConsumption) error {
	query := `
		INSERT INTO credit_consumptions (credit_id, request_id, class_date)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query,
		consumption.CreditID,
		consumption.RequestID,
		consumption.ClassDate,
	).Scan(&consumption.ID, &consumption.CreatedAt)
	if err != nil {
		return fmt.Errorf("add credit consumption: %w", base.MapError(err))
	}
	return nil
}

// ListConsumptionsByDate получает списания на дату занятия
func (r *CreditPostgresRepository) ListConsumptionsByDate(ctx context.Context, date time.Time) ([]*model.CreditConsumption, error) {
	query := `
		SELECT id, credit_id, request_id, class_date, created_at
		FROM credit_consumptions
		WHERE class_date = $1
		ORDER BY id
	`

	rows, err := r.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("list consumptions: %w", err)
	}

	consumptions, err := base.CollectPtrs(rows, scanConsumption)
	if err != nil {
		return nil, fmt.Errorf("scan consumption: %w", err)
	}
	return consumptions, nil
}

// DeleteConsumption удаляет запись о списании
func (r *CreditPostgresRepository) DeleteConsumption(ctx context.Context, id int64) error {
	if err := r.ExecOne(ctx, model.ErrCreditNotFound, `DELETE FROM credit_consumptions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete consumption: %w", err)
	}
	return nil
}
