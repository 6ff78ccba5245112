package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "08:30", want: 510},
		{in: "23:59", want: 1439},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "8:30", wantErr: true},
		{in: "08-30", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestOverlaps(t *testing.T) {
	assert.True(t, Overlaps(MustClock("10:00"), MustClock("11:00"), MustClock("10:30"), MustClock("11:30")))
	assert.False(t, Overlaps(MustClock("10:00"), MustClock("11:00"), MustClock("11:00"), MustClock("12:00")))
}

func TestNormalizeDate(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)

	// 22:30 UTC уже следующий день по Москве
	got := NormalizeDate(time.Date(2024, 6, 2, 22, 30, 0, 0, time.UTC), moscow)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), got)

	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), DateOf(time.Date(2024, 6, 3, 1, 0, 0, 0, moscow)))

	start := ClassStart(got, MustClock("08:00"), moscow)
	assert.Equal(t, time.Date(2024, 6, 3, 5, 0, 0, 0, time.UTC), start.UTC())
}

func TestMakeupDeadline(t *testing.T) {
	n := &AbsenceNotice{AbsenceDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), n.MakeupDeadline())
}
