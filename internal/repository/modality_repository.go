package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
	"github.com/Freeeeeet/studio_scheduler/internal/repository/base"
)

type ModalityPostgresRepository struct {
	*base.Repository
}

func NewModalityPostgresRepository(db base.DBTX) *ModalityPostgresRepository {
	return &ModalityPostgresRepository{Repository: base.NewRepository(db)}
}

// Create создаёт модальность
func (r *ModalityPostgresRepository) Create(ctx context.Context, modality *model.Modality) error {
	query := `
		INSERT INTO modalities (name, linked_modality_ids, capacity_override, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	linked := modality.LinkedModalityIDs
	if linked == nil {
		linked = []int64{}
	}

	err := r.QueryRow(ctx, query,
		modality.Name,
		linked,
		modality.CapacityOverride,
		modality.IsActive,
	).Scan(&modality.ID, &modality.CreatedAt)
	if err != nil {
		return fmt.Errorf("create modality: %w", base.MapError(err))
	}
	return nil
}

// GetByID получает модальность по ID
func (r *ModalityPostgresRepository) GetByID(ctx context.Context, id int64) (*model.Modality, error) {
	query := `
		SELECT id, name, linked_modality_ids, capacity_override, is_active, created_at
		FROM modalities
		WHERE id = $1
	`

	var m model.Modality
	err := r.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.Name,
		&m.LinkedModalityIDs,
		&m.CapacityOverride,
		&m.IsActive,
		&m.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get modality by id: %w", err)
	}
	return &m, nil
}
