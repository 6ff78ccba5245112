// Package scheduling содержит чистые проверки места назначения переноса.
// Пакет не обращается к хранилищу: все данные передаёт вызывающий сервис,
// поэтому ученический и администраторский путь проверяются одинаково.
package scheduling

import (
	"time"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

// Destination всё, что нужно знать о слоте назначения на конкретную дату
type Destination struct {
	Slot        *model.Slot
	Modality    *model.Modality
	Date        time.Time     // нормализованная дата
	Occupancy   int           // активные записи + заявки, занимающие место
	LinkedSlots []*model.Slot // активные слоты связанных модальностей
	IsHoliday   bool
}

// Rules параметры проверки
type Rules struct {
	Now              time.Time
	Location         *time.Location
	MinSameDayNotice time.Duration
}

// ValidateDestination проверяет слот назначения. Порядок проверок фиксирован,
// возвращается первая нарушенная.
func ValidateDestination(d Destination, r Rules) error {
	if d.Slot == nil || !d.Slot.IsActive {
		return model.ErrDestinationNotFound
	}
	if !d.Slot.FallsOn(d.Date) {
		return model.ErrDayMismatch
	}
	if d.IsHoliday {
		return model.ErrHolidayDate
	}
	if err := CheckNotice(d.Date, d.Slot.StartTime, r); err != nil {
		return err
	}
	if !HasCapacity(d.Modality.EffectiveCapacity(d.Slot), d.Occupancy) {
		return model.ErrSlotFull
	}
	if SpaceConflict(d.Slot, d.LinkedSlots) != nil {
		return model.ErrLinkedSpaceBusy
	}
	return nil
}

// CheckNotice запрещает прошедшие даты и занятия сегодня, до которых
// осталось меньше MinSameDayNotice
func CheckNotice(date time.Time, start model.ClockTime, r Rules) error {
	today := model.NormalizeDate(r.Now, r.Location)
	if date.Before(today) {
		return model.ErrTooLate
	}
	if date.Equal(today) {
		startsAt := model.ClassStart(date, start, r.Location)
		if startsAt.Sub(r.Now) < r.MinSameDayNotice {
			return model.ErrTooLate
		}
	}
	return nil
}

// HasCapacity есть ли ещё одно свободное место
func HasCapacity(capacity, occupancy int) bool {
	return occupancy < capacity
}

// SpaceConflict возвращает первый слот связанной модальности,
// пересекающийся по дню и времени со слотом назначения
func SpaceConflict(dest *model.Slot, linked []*model.Slot) *model.Slot {
	for _, other := range linked {
		if other.ID == dest.ID || !other.IsActive {
			continue
		}
		if dest.OverlapsWith(other) {
			return other
		}
	}
	return nil
}

// ValidateMakeupNotice проверяет, что пропуск даёт право на отработку в указанную дату.
// honorWithoutRight позволяет администратору засчитать пропуск без права.
func ValidateMakeupNotice(n *model.AbsenceNotice, destinationDate time.Time, honorWithoutRight bool) error {
	if n == nil {
		return model.ErrNoticeNotFound
	}
	if n.Status != model.NoticeStatusConfirmed || n.MakeupUsesConsumed > 0 {
		return model.ErrEntitlementNotUsable
	}
	if !n.HasMakeupRight && !honorWithoutRight {
		return model.ErrEntitlementNotUsable
	}
	if destinationDate.After(n.MakeupDeadline()) {
		return model.ErrMakeupWindowExpired
	}
	return nil
}

// ValidateCredit проверяет кредит для занятия в destinationDate
func ValidateCredit(c *model.Credit, destination *model.Slot, destinationDate, today time.Time) error {
	if c == nil {
		return model.ErrCreditNotFound
	}
	if !c.IsActive {
		return model.ErrInactive
	}
	if c.IsExpiredOn(today) || c.IsExpiredOn(destinationDate) {
		return model.ErrCreditExpired
	}
	if c.Remaining() <= 0 {
		return model.ErrCreditExhausted
	}
	if c.ModalityID != nil && destination != nil && *c.ModalityID != destination.ModalityID {
		return model.ErrModalityMismatch
	}
	return nil
}
