// Package schedule implements the scheduling engine: slot generation,
// availability checks, optimal-time ranking, and conflict resolution.
// Every function is a pure computation over caller-supplied snapshots;
// the package performs no I/O and no logging.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a clock time expressed as minutes since midnight.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses "HH:MM" (24 hour clock).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) Valid() bool { return t >= 0 && t < 24*60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Status is the lifecycle state of a booked appointment. Only scheduled
// appointments block a slot.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusScheduled:
		return StatusScheduled, nil
	case StatusCancelled:
		return StatusCancelled, nil
	case StatusCompleted:
		return StatusCompleted, nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

// Urgency classifies how quickly a patient needs to be seen.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// ParseWeekday maps a case-insensitive weekday name to time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

// WorkingDays builds a weekday set from day names. Unknown names are
// rejected so corrupt calendar data surfaces at load time, not as a
// silently empty schedule.
func WorkingDays(names ...string) (map[time.Weekday]bool, error) {
	days := make(map[time.Weekday]bool, len(names))
	for _, name := range names {
		wd, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		days[wd] = true
	}
	return days, nil
}

// Calendar is a doctor's working configuration, immutable for the
// duration of an engine call.
type Calendar struct {
	DoctorID     string
	WorkingDays  map[time.Weekday]bool
	Start        TimeOfDay
	End          TimeOfDay
	SlotDuration int // minutes per consultation slot
	Active       bool
}

// usable reports whether the calendar can produce any slots at all.
func (c *Calendar) usable() bool {
	return c != nil && c.Active && c.SlotDuration > 0 && c.Start < c.End
}

// Booking is the engine's read-only view of an existing appointment for
// the doctor under consideration.
type Booking struct {
	Date   time.Time
	Time   TimeOfDay
	Status Status
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
