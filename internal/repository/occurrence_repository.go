package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository/base"
)

const occurrenceColumns = `id, slot_id, class_date, student_id, present, is_reschedule_outcome, updated_at`

// OccurrencePostgresRepository хранит отметки посещения
type OccurrencePostgresRepository struct {
	*base.Repository
}

func NewOccurrencePostgresRepository(db base.DBTX) *OccurrencePostgresRepository {
	return &OccurrencePostgresRepository{Repository: base.NewRepository(db)}
}

func scanOccurrence(row pgx.Row) (*model.Occurrence, error) {
	var o model.Occurrence
	err := row.Scan(&o.ID, &o.SlotID, &o.Date, &o.StudentID, &o.Present, &o.IsRescheduleOutcome, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Upsert создаёт или перезаписывает отметку
func (r *OccurrencePostgresRepository) Upsert(ctx context.Context, occurrence *model.Occurrence) error {
	query := `
		INSERT INTO occurrences (slot_id, class_date, student_id, present, is_reschedule_outcome)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slot_id, class_date, student_id)
		DO UPDATE SET present = EXCLUDED.present,
		              is_reschedule_outcome = EXCLUDED.is_reschedule_outcome,
		              updated_at = NOW()
		RETURNING id, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		occurrence.SlotID,
		occurrence.Date,
		occurrence.StudentID,
		occurrence.Present,
		occurrence.IsRescheduleOutcome,
	).Scan(&occurrence.ID, &occurrence.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upsert occurrence: %w", err)
	}

	return nil
}

// Get получает отметку ученика на занятии
func (r *OccurrencePostgresRepository) Get(ctx context.Context, slotID int64, date time.Time, studentID int64) (*model.Occurrence, error) {
	query := `
		SELECT ` + occurrenceColumns + `
		FROM occurrences
		WHERE slot_id = $1 AND class_date = $2 AND student_id = $3
	`

	o, err := scanOccurrence(r.QueryRow(ctx, query, slotID, date, studentID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get occurrence: %w", err)
	}
	return o, nil
}

// ListBySlotDate получает все отметки занятия
func (r *OccurrencePostgresRepository) ListBySlotDate(ctx context.Context, slotID int64, date time.Time) ([]*model.Occurrence, error) {
	query := `
		SELECT ` + occurrenceColumns + `
		FROM occurrences
		WHERE slot_id = $1 AND class_date = $2
		ORDER BY student_id
	`

	rows, err := r.Query(ctx, query, slotID, date)
	if err != nil {
		return nil, fmt.Errorf("list occurrences: %w", err)
	}

	occurrences, err := base.CollectPtrs(rows, scanOccurrence)
	if err != nil {
		return nil, fmt.Errorf("scan occurrence: %w", err)
	}
	return occurrences, nil
}
