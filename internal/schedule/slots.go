package schedule

import "time"

// GenerateSlots returns the ordered slot start times for one doctor on one
// date. It walks the working window in SlotDuration increments, never offers
// a slot that would overrun the window end, and drops slots occupied by a
// scheduled booking at the exact start time. A nil or inactive calendar, a
// non-working day, or a degenerate window all yield an empty result: "no
// availability" is the safe default.
func GenerateSlots(cal *Calendar, date time.Time, booked []Booking) []TimeOfDay {
	if !cal.usable() {
		return nil
	}
	if !cal.WorkingDays[date.Weekday()] {
		return nil
	}

	taken := make(map[TimeOfDay]bool, len(booked))
	for _, b := range booked {
		if b.Status == StatusScheduled && sameDate(b.Date, date) {
			taken[b.Time] = true
		}
	}

	var slots []TimeOfDay
	step := TimeOfDay(cal.SlotDuration)
	for t := cal.Start; t+step <= cal.End; t += step {
		if !taken[t] {
			slots = append(slots, t)
		}
	}
	return slots
}
