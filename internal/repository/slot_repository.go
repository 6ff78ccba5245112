package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository/base"
)

const slotColumns = `id, teacher_id, modality_id, weekday, start_minute, end_minute, capacity, notes, is_active, created_at, updated_at`

type SlotPostgresRepository struct {
	*base.Repository
}

func NewSlotPostgresRepository(db base.DBTX) *SlotPostgresRepository {
	return &SlotPostgresRepository{Repository: base.NewRepository(db)}
}

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	var start, end int
	err := row.Scan(
		&slot.ID,
		&slot.TeacherID,
		&slot.ModalityID,
		&slot.Weekday,
		&start,
		&end,
		&slot.Capacity,
		&slot.Notes,
		&slot.IsActive,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	slot.StartTime = model.ClockTime(start)
	slot.EndTime = model.ClockTime(end)
	return &slot, nil
}

// Create создаёт новый слот
func (r *SlotPostgresRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (teacher_id, modality_id, weekday, start_minute, end_minute, capacity, notes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		slot.TeacherID,
		slot.ModalityID,
		slot.Weekday,
		int(slot.StartTime),
		int(slot.EndTime),
		slot.Capacity,
		slot.Notes,
		slot.IsActive,
	).Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", base.MapError(err))
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotPostgresRepository) GetByID(ctx context.Context, id int64) (*model.Slot, error) {
	return r.get(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = $1`, id)
}

// GetByIDForUpdate получает слот и блокирует строку до конца транзакции
func (r *SlotPostgresRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Slot, error) {
	return r.get(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = $1 FOR UPDATE`, id)
}

func (r *SlotPostgresRepository) get(ctx context.Context, query string, id int64) (*model.Slot, error) {
	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}
	return slot, nil
}

// Update обновляет изменяемые поля слота
func (r *SlotPostgresRepository) Update(ctx context.Context, slot *model.Slot) error {
	query := `
		UPDATE slots
		SET teacher_id = $1, start_minute = $2, end_minute = $3, notes = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6
	`

	err := r.ExecOne(ctx, model.ErrSlotNotFound, query,
		slot.TeacherID,
		int(slot.StartTime),
		int(slot.EndTime),
		slot.Notes,
		slot.IsActive,
		slot.ID,
	)
	if err != nil {
		return fmt.Errorf("update slot: %w", err)
	}
	return nil
}

// ListActiveByModalities получает активные слоты указанных модальностей в день недели
func (r *SlotPostgresRepository) ListActiveByModalities(ctx context.Context, modalityIDs []int64, weekday int) ([]*model.Slot, error) {
	if len(modalityIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE modality_id = ANY($1) AND weekday = $2 AND is_active = TRUE
		ORDER BY start_minute
	`

	rows, err := r.Query(ctx, query, modalityIDs, weekday)
	if err != nil {
		return nil, fmt.Errorf("list slots by modalities: %w", err)
	}

	slots, err := base.CollectPtrs(rows, scanSlot)
	if err != nil {
		return nil, fmt.Errorf("scan slot: %w", err)
	}
	return slots, nil
}

// ListActive получает все активные слоты
func (r *SlotPostgresRepository) ListActive(ctx context.Context) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE is_active = TRUE
		ORDER BY weekday, start_minute
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active slots: %w", err)
	}

	slots, err := base.CollectPtrs(rows, scanSlot)
	if err != nil {
		return nil, fmt.Errorf("scan slot: %w", err)
	}
	return slots, nil
}
