package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-01 is a Monday, which keeps weekday math easy to read.
var (
	monday = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	sunday = time.Date(2024, time.January, 7, 0, 0, 0, 0, time.UTC)
)

func weekdayCalendar(t *testing.T) *Calendar {
	t.Helper()
	days, err := WorkingDays("Monday", "Tuesday", "Wednesday", "Thursday", "Friday")
	require.NoError(t, err)
	return &Calendar{
		DoctorID:     "dr-1",
		WorkingDays:  days,
		Start:        NewTimeOfDay(9, 0),
		End:          NewTimeOfDay(17, 0),
		SlotDuration: 30,
		Active:       true,
	}
}

func TestGenerateSlotsFullDay(t *testing.T) {
	cal := weekdayCalendar(t)

	slots := GenerateSlots(cal, monday, nil)

	// 8 hour window / 30 minute slots = 16 slots, 09:00 through 16:30.
	require.Len(t, slots, 16)
	assert.Equal(t, NewTimeOfDay(9, 0), slots[0])
	assert.Equal(t, NewTimeOfDay(16, 30), slots[len(slots)-1])

	for i := 1; i < len(slots); i++ {
		assert.Greater(t, slots[i], slots[i-1], "slots must ascend")
	}
}

func TestGenerateSlotsExcludesScheduledBooking(t *testing.T) {
	cal := weekdayCalendar(t)
	booked := []Booking{
		{Date: monday, Time: NewTimeOfDay(10, 0), Status: StatusScheduled},
	}

	slots := GenerateSlots(cal, monday, booked)

	require.Len(t, slots, 15)
	assert.NotContains(t, slots, NewTimeOfDay(10, 0))
	assert.Contains(t, slots, NewTimeOfDay(9, 30))
	assert.Contains(t, slots, NewTimeOfDay(10, 30))
}

func TestGenerateSlotsIgnoresNonBlockingStatuses(t *testing.T) {
	cal := weekdayCalendar(t)
	booked := []Booking{
		{Date: monday, Time: NewTimeOfDay(10, 0), Status: StatusCancelled},
		{Date: monday, Time: NewTimeOfDay(10, 30), Status: StatusCompleted},
	}

	slots := GenerateSlots(cal, monday, booked)

	assert.Len(t, slots, 16)
	assert.Contains(t, slots, NewTimeOfDay(10, 0))
	assert.Contains(t, slots, NewTimeOfDay(10, 30))
}

func TestGenerateSlotsIgnoresBookingsOnOtherDates(t *testing.T) {
	cal := weekdayCalendar(t)
	tuesday := monday.AddDate(0, 0, 1)
	booked := []Booking{
		{Date: tuesday, Time: NewTimeOfDay(10, 0), Status: StatusScheduled},
	}

	slots := GenerateSlots(cal, monday, booked)

	assert.Contains(t, slots, NewTimeOfDay(10, 0))
}

func TestGenerateSlotsNonWorkingDay(t *testing.T) {
	cal := weekdayCalendar(t)
	booked := []Booking{
		{Date: sunday, Time: NewTimeOfDay(10, 0), Status: StatusScheduled},
	}

	assert.Empty(t, GenerateSlots(cal, sunday, nil))
	assert.Empty(t, GenerateSlots(cal, sunday, booked), "booked input must not matter on non-working days")
}

func TestGenerateSlotsNoPartialSlot(t *testing.T) {
	cal := weekdayCalendar(t)
	cal.End = NewTimeOfDay(17, 15) // trailing 15 minutes cannot fit a slot

	slots := GenerateSlots(cal, monday, nil)

	require.NotEmpty(t, slots)
	for _, s := range slots {
		assert.LessOrEqual(t, int(s)+cal.SlotDuration, int(cal.End))
	}
	assert.Equal(t, NewTimeOfDay(16, 45), slots[len(slots)-1])
}

func TestGenerateSlotsDegenerateCalendars(t *testing.T) {
	zeroWindow := weekdayCalendar(t)
	zeroWindow.End = zeroWindow.Start

	oversized := weekdayCalendar(t)
	oversized.SlotDuration = 10 * 60

	inactive := weekdayCalendar(t)
	inactive.Active = false

	zeroDuration := weekdayCalendar(t)
	zeroDuration.SlotDuration = 0

	tests := []struct {
		name string
		cal  *Calendar
	}{
		{"nil calendar", nil},
		{"inactive doctor", inactive},
		{"zero-length window", zeroWindow},
		{"duration larger than window", oversized},
		{"zero duration", zeroDuration},
		{"no working days", &Calendar{Active: true, Start: NewTimeOfDay(9, 0), End: NewTimeOfDay(17, 0), SlotDuration: 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, GenerateSlots(tt.cal, monday, nil))
		})
	}
}

func TestGenerateSlotsEvenDivision(t *testing.T) {
	cal := weekdayCalendar(t)

	tests := []struct {
		duration int
		want     int
	}{
		{15, 32},
		{20, 24},
		{30, 16},
		{60, 8},
		{120, 4},
	}
	for _, tt := range tests {
		cal.SlotDuration = tt.duration
		assert.Len(t, GenerateSlots(cal, monday, nil), tt.want, "duration %d", tt.duration)
	}
}

func TestGenerateSlotsIsPure(t *testing.T) {
	cal := weekdayCalendar(t)
	booked := []Booking{
		{Date: monday, Time: NewTimeOfDay(11, 0), Status: StatusScheduled},
	}

	first := GenerateSlots(cal, monday, booked)
	second := GenerateSlots(cal, monday, booked)

	assert.Equal(t, first, second)
}
