package common

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/studio_scheduler/internal/model"
)

func TestGenerateWeekImage(t *testing.T) {
	monday := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	slot := &model.Slot{ID: 1, Weekday: 1, StartTime: model.MustClock("08:00"), EndTime: model.MustClock("09:00"), Capacity: 2}
	late := &model.Slot{ID: 2, Weekday: 3, StartTime: model.MustClock("19:30"), EndTime: model.MustClock("20:45"), Capacity: 1}

	img, err := GenerateWeekImage(WeekView{
		Start: monday.AddDate(0, 0, 2), // середина недели приводится к понедельнику
		Slots: []WeekSlot{
			{Slot: slot, Date: monday, Modality: "Реформер", Taken: 1, Capacity: 2},
			{Slot: late, Date: monday.AddDate(0, 0, 2), Modality: "Пилатес на коврике для начинающих", Taken: 1, Capacity: 1},
		},
		Holidays: map[time.Time]string{monday.AddDate(0, 0, 4): "ремонт"},
		Now:      monday.Add(8*time.Hour + 30*time.Minute),
	})
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, imageWidth, decoded.Bounds().Dx())
	assert.Equal(t, imageHeight, decoded.Bounds().Dy())
}

func TestCalculateHourRange(t *testing.T) {
	assert.Equal(t, hourRange{start: 7, end: 22, total: 15}, calculateHourRange(nil))

	slots := []WeekSlot{
		{Slot: &model.Slot{StartTime: model.MustClock("08:00"), EndTime: model.MustClock("09:00")}},
		{Slot: &model.Slot{StartTime: model.MustClock("19:30"), EndTime: model.MustClock("20:45")}},
	}
	assert.Equal(t, hourRange{start: 7, end: 22, total: 15}, calculateHourRange(slots))

	early := []WeekSlot{{Slot: &model.Slot{StartTime: model.MustClock("00:30"), EndTime: model.MustClock("23:30")}}}
	assert.Equal(t, hourRange{start: 0, end: 24, total: 24}, calculateHourRange(early))
}
