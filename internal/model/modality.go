package model

import "time"

// Modality вид занятий (например, пилатес на реформере)
type Modality struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	LinkedModalityIDs []int64   `json:"linked_modality_ids"` // делят с этой модальностью один зал
	CapacityOverride  *int      `json:"capacity_override"`   // nil = вместимость берётся из слота
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}

// EffectiveCapacity возвращает вместимость слота с учётом модальности
func (m *Modality) EffectiveCapacity(slot *Slot) int {
	if m != nil && m.CapacityOverride != nil {
		return *m.CapacityOverride
	}
	return slot.Capacity
}
