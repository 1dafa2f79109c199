package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-appointment-scheduler/internal/schedule"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListActiveDoctors(ctx context.Context) ([]Doctor, error)
	ListDoctorsByDepartment(ctx context.Context, department string) ([]Doctor, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// ListAppointmentsForDoctor returns all non-cancelled appointments for
	// one doctor over an inclusive date range; the engine filters by status
	// itself.
	ListAppointmentsForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error)

	// GetScheduledAt is the write-time conflict check: the scheduled
	// appointment occupying the exact doctor/date/time slot, if any.
	GetScheduledAt(ctx context.Context, doctorID uuid.UUID, date time.Time, at schedule.TimeOfDay) (*Appointment, error)

	// ListScheduledBetween returns scheduled appointments across all
	// doctors, for the reminder worker.
	ListScheduledBetween(ctx context.Context, from, to time.Time) ([]Appointment, error)

	CreateAppointment(ctx context.Context, appt Appointment) (*Appointment, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, upd AppointmentUpdate) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to schedule.Status) (*Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
