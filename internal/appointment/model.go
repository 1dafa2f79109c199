package appointment

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-appointment-scheduler/internal/schedule"
)

type Doctor struct {
	ID                  uuid.UUID
	Name                string
	Specialization      string
	Department          string
	WorkingDays         []string
	StartMinute         int // minutes since midnight
	EndMinute           int
	SlotDurationMinutes int
	Active              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Calendar adapts the stored doctor configuration into the scheduling
// engine's view. Corrupt working-day data yields a nil calendar, which the
// engine treats as "no availability" rather than a fault.
func (d *Doctor) Calendar() *schedule.Calendar {
	if d == nil {
		return nil
	}
	days, err := schedule.WorkingDays(d.WorkingDays...)
	if err != nil {
		return nil
	}
	return &schedule.Calendar{
		DoctorID:     d.ID.String(),
		WorkingDays:  days,
		Start:        schedule.TimeOfDay(d.StartMinute),
		End:          schedule.TimeOfDay(d.EndMinute),
		SlotDuration: d.SlotDurationMinutes,
		Active:       d.Active,
	}
}

type Appointment struct {
	ID           uuid.UUID
	DoctorID     uuid.UUID
	PatientName  string
	PatientPhone string
	PatientEmail *string
	Department   string
	Date         time.Time // calendar date, midnight UTC
	Time         schedule.TimeOfDay
	Status       schedule.Status
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Booking is the engine-facing projection of an appointment.
func (a *Appointment) Booking() schedule.Booking {
	return schedule.Booking{
		Date:   a.Date,
		Time:   a.Time,
		Status: a.Status,
	}
}

// AppointmentUpdate names the only fields an existing appointment may
// change. Nil pointers leave the field untouched.
type AppointmentUpdate struct {
	Date   *time.Time
	Time   *schedule.TimeOfDay
	Status *schedule.Status
	Notes  *string
}

var errEmptyUpdate = errors.New("appointment update names no fields")

func (u AppointmentUpdate) Validate() error {
	if u.Date == nil && u.Time == nil && u.Status == nil && u.Notes == nil {
		return errEmptyUpdate
	}
	if u.Time != nil && !u.Time.Valid() {
		return errors.New("appointment update time out of range")
	}
	if u.Status != nil {
		if _, err := schedule.ParseStatus(string(*u.Status)); err != nil {
			return err
		}
	}
	return nil
}

// MovesSlot reports whether the update changes the appointment's slot.
func (u AppointmentUpdate) MovesSlot() bool {
	return u.Date != nil || u.Time != nil
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
