package schedule

import "time"

// Reason is the single explanation attached to an availability verdict.
// Exactly one reason is reported per check; the decision order below means
// the most specific, actionable reason wins.
type Reason string

const (
	ReasonDoctorUnknown Reason = "doctor_unknown"
	ReasonNonWorkingDay Reason = "non_working_day"
	ReasonOutsideHours  Reason = "outside_hours"
	ReasonSlotTaken     Reason = "slot_taken"
	ReasonAvailable     Reason = "available"
)

// Verdict is the structured result of an availability check. Human-facing
// callers need one concrete reason plus ready-to-offer alternatives, not a
// bag of booleans.
type Verdict struct {
	Available bool   `json:"available"`
	Reason    Reason `json:"reason"`

	// AlternativeDates holds forward working dates when the requested date
	// is a non-working day. AlternativeTimes holds open slots on the
	// requested date when the time itself is the problem.
	AlternativeDates []time.Time `json:"alternative_dates,omitempty"`
	AlternativeTimes []TimeOfDay `json:"alternative_times,omitempty"`
}

const (
	alternativeDateLimit   = 3
	alternativeDateHorizon = 7 // days scanned forward for a working date
	alternativeTimeLimit   = 5
)

// CheckAvailability decides whether the doctor can take an appointment at
// the given date and time. Decision order, first match wins:
// unknown/inactive doctor, non-working day, outside working hours, slot
// already taken, available.
func CheckAvailability(cal *Calendar, booked []Booking, date time.Time, at TimeOfDay) Verdict {
	if cal == nil || !cal.Active {
		return Verdict{Reason: ReasonDoctorUnknown}
	}

	if !cal.WorkingDays[date.Weekday()] {
		return Verdict{
			Reason:           ReasonNonWorkingDay,
			AlternativeDates: nextWorkingDates(cal, date, alternativeDateHorizon, alternativeDateLimit),
		}
	}

	if at < cal.Start || at >= cal.End {
		return Verdict{
			Reason:           ReasonOutsideHours,
			AlternativeTimes: openSlots(cal, date, booked, alternativeTimeLimit),
		}
	}

	for _, b := range booked {
		if b.Status == StatusScheduled && sameDate(b.Date, date) && b.Time == at {
			return Verdict{
				Reason:           ReasonSlotTaken,
				AlternativeTimes: openSlots(cal, date, booked, alternativeTimeLimit),
			}
		}
	}

	return Verdict{Available: true, Reason: ReasonAvailable}
}

// nextWorkingDates scans forward day by day from the requested date and
// collects up to limit dates that fall on a working day.
func nextWorkingDates(cal *Calendar, from time.Time, horizonDays, limit int) []time.Time {
	var dates []time.Time
	for i := 1; i <= horizonDays && len(dates) < limit; i++ {
		d := from.AddDate(0, 0, i)
		if cal.WorkingDays[d.Weekday()] {
			dates = append(dates, d)
		}
	}
	return dates
}

func openSlots(cal *Calendar, date time.Time, booked []Booking, limit int) []TimeOfDay {
	slots := GenerateSlots(cal, date, booked)
	if len(slots) > limit {
		slots = slots[:limit]
	}
	return slots
}
