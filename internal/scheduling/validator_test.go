package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

func date(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func wednesdaySlot() *model.Slot {
	return &model.Slot{
		ID:         2,
		ModalityID: 10,
		Weekday:    int(time.Wednesday),
		StartTime:  model.MustClock("10:00"),
		EndTime:    model.MustClock("11:00"),
		Capacity:   1,
		IsActive:   true,
	}
}

func TestValidateDestination(t *testing.T) {
	rules := Rules{
		Now:              time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC),
		Location:         time.UTC,
		MinSameDayNotice: 15 * time.Minute,
	}
	override := 3

	tests := []struct {
		name string
		dest func() Destination
		want error
	}{
		{
			name: "ok",
			dest: func() Destination { return Destination{Slot: wednesdaySlot(), Date: date("2024-06-05")} },
		},
		{
			name: "missing slot",
			dest: func() Destination { return Destination{Date: date("2024-06-05")} },
			want: model.ErrDestinationNotFound,
		},
		{
			name: "inactive slot",
			dest: func() Destination {
				s := wednesdaySlot()
				s.IsActive = false
				return Destination{Slot: s, Date: date("2024-06-05")}
			},
			want: model.ErrDestinationNotFound,
		},
		{
			name: "weekday mismatch",
			dest: func() Destination { return Destination{Slot: wednesdaySlot(), Date: date("2024-06-06")} },
			want: model.ErrDayMismatch,
		},
		{
			name: "holiday",
			dest: func() Destination {
				return Destination{Slot: wednesdaySlot(), Date: date("2024-06-05"), IsHoliday: true}
			},
			want: model.ErrHolidayDate,
		},
		{
			name: "past date",
			dest: func() Destination { return Destination{Slot: wednesdaySlot(), Date: date("2024-05-29")} },
			want: model.ErrTooLate,
		},
		{
			name: "full",
			dest: func() Destination {
				return Destination{Slot: wednesdaySlot(), Date: date("2024-06-05"), Occupancy: 1}
			},
			want: model.ErrSlotFull,
		},
		{
			name: "modality override raises capacity",
			dest: func() Destination {
				return Destination{
					Slot:      wednesdaySlot(),
					Modality:  &model.Modality{ID: 10, CapacityOverride: &override},
					Date:      date("2024-06-05"),
					Occupancy: 2,
				}
			},
		},
		{
			name: "linked modality overlaps",
			dest: func() Destination {
				other := &model.Slot{
					ID:        7,
					Weekday:   int(time.Wednesday),
					StartTime: model.MustClock("10:30"),
					EndTime:   model.MustClock("11:30"),
					IsActive:  true,
				}
				return Destination{Slot: wednesdaySlot(), Date: date("2024-06-05"), LinkedSlots: []*model.Slot{other}}
			},
			want: model.ErrLinkedSpaceBusy,
		},
		{
			name: "linked modality adjacent is fine",
			dest: func() Destination {
				other := &model.Slot{
					ID:        7,
					Weekday:   int(time.Wednesday),
					StartTime: model.MustClock("11:00"),
					EndTime:   model.MustClock("12:00"),
					IsActive:  true,
				}
				return Destination{Slot: wednesdaySlot(), Date: date("2024-06-05"), LinkedSlots: []*model.Slot{other}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDestination(tt.dest(), rules)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCheckNotice_SameDay(t *testing.T) {
	today := date("2024-06-05")
	rules := Rules{Location: time.UTC, MinSameDayNotice: 15 * time.Minute}

	rules.Now = time.Date(2024, 6, 5, 9, 50, 0, 0, time.UTC)
	assert.ErrorIs(t, CheckNotice(today, model.MustClock("10:00"), rules), model.ErrInsufficientNotice)

	rules.Now = time.Date(2024, 6, 5, 9, 45, 0, 0, time.UTC)
	assert.NoError(t, CheckNotice(today, model.MustClock("10:00"), rules))
}

func TestValidateMakeupNotice(t *testing.T) {
	n := &model.AbsenceNotice{
		AbsenceDate:    date("2024-06-03"),
		Status:         model.NoticeStatusConfirmed,
		HasMakeupRight: true,
	}

	assert.NoError(t, ValidateMakeupNotice(n, date("2024-06-10"), false))
	assert.ErrorIs(t, ValidateMakeupNotice(n, date("2024-06-11"), false), model.ErrMakeupWindowExpired)
	assert.ErrorIs(t, ValidateMakeupNotice(n, date("2024-06-11"), false), model.ErrWindowExpired)

	noRight := *n
	noRight.HasMakeupRight = false
	assert.ErrorIs(t, ValidateMakeupNotice(&noRight, date("2024-06-05"), false), model.ErrEntitlementNotUsable)
	assert.NoError(t, ValidateMakeupNotice(&noRight, date("2024-06-05"), true))

	used := *n
	used.MakeupUsesConsumed = 1
	assert.ErrorIs(t, ValidateMakeupNotice(&used, date("2024-06-05"), true), model.ErrEntitlementNotUsable)

	pending := *n
	pending.Status = model.NoticeStatusPending
	assert.ErrorIs(t, ValidateMakeupNotice(&pending, date("2024-06-05"), false), model.ErrInvalidState)
}

func TestValidateCredit(t *testing.T) {
	today := date("2024-06-01")
	modality := int64(99)
	base := model.Credit{QuantityGranted: 1, ExpiryDate: date("2024-12-31"), IsActive: true}

	c := base
	assert.NoError(t, ValidateCredit(&c, wednesdaySlot(), date("2024-06-05"), today))

	exhausted := base
	exhausted.QuantityUsed = 1
	assert.ErrorIs(t, ValidateCredit(&exhausted, wednesdaySlot(), date("2024-06-05"), today), model.ErrCreditExhausted)

	assert.ErrorIs(t, ValidateCredit(&c, wednesdaySlot(), date("2025-01-01"), today), model.ErrCreditExpired)

	restricted := base
	restricted.ModalityID = &modality
	assert.ErrorIs(t, ValidateCredit(&restricted, wednesdaySlot(), date("2024-06-05"), today), model.ErrModalityMismatch)

	inactive := base
	inactive.IsActive = false
	assert.ErrorIs(t, ValidateCredit(&inactive, wednesdaySlot(), date("2024-06-05"), today), model.ErrInvalidState)
}
