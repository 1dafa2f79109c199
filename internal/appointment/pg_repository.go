package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/hospital-appointment-scheduler/internal/schedule"
)

// Times of day are stored as smallint minutes since midnight
// (start_minute, end_minute, appointment_minute) so that slot arithmetic
// stays integer math on both sides of the wire.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Specialization,
		&d.Department,
		&d.WorkingDays,
		&d.StartMinute,
		&d.EndMinute,
		&d.SlotDurationMinutes,
		&d.Active,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &d, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var email *string
	var minute int

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientName,
		&a.PatientPhone,
		&email,
		&a.Department,
		&a.Date,
		&minute,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.PatientEmail = email
	a.Time = schedule.TimeOfDay(minute)
	return &a, nil
}

const doctorColumns = `
	id, name, specialization, department, working_days,
	start_minute, end_minute, slot_duration_minutes, is_active,
	created_at, updated_at`

const appointmentColumns = `
	id, doctor_id, patient_name, patient_phone, patient_email, department,
	appointment_date, appointment_minute, status, notes,
	created_at, updated_at`

// Interface methods

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListActiveDoctors(ctx context.Context) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE is_active
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDoctors(rows)
}

func (r *PgRepository) ListDoctorsByDepartment(ctx context.Context, department string) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE is_active AND lower(department) = lower($1)
		ORDER BY name
	`, department)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDoctors(rows)
}

func collectDoctors(rows pgx.Rows) ([]Doctor, error) {
	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointmentsForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND appointment_date BETWEEN $2 AND $3
		  AND status <> 'cancelled'
		ORDER BY appointment_date, appointment_minute
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) GetScheduledAt(ctx context.Context, doctorID uuid.UUID, date time.Time, at schedule.TimeOfDay) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND appointment_date = $2
		  AND appointment_minute = $3
		  AND status = 'scheduled'
	`, doctorID, date, int(at))
	return scanAppointment(row)
}

func (r *PgRepository) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'scheduled'
		  AND appointment_date BETWEEN $1 AND $2
		ORDER BY appointment_date, appointment_minute
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, appt Appointment) (*Appointment, error) {
	id := appt.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	// The partial unique index on (doctor_id, appointment_date,
	// appointment_minute) WHERE status = 'scheduled' is the authoritative
	// double-booking guard; the engine's verdict is advisory.
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, doctor_id, patient_name, patient_phone, patient_email, department,
			appointment_date, appointment_minute, status, notes, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'scheduled', $9, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, appt.DoctorID, appt.PatientName, appt.PatientPhone, appt.PatientEmail,
		appt.Department, appt.Date, int(appt.Time), appt.Notes)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, id uuid.UUID, upd AppointmentUpdate) (*Appointment, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}

	addArg := func(clause string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(clause, len(args)))
	}

	if upd.Date != nil {
		addArg("appointment_date = $%d", *upd.Date)
	}
	if upd.Time != nil {
		addArg("appointment_minute = $%d", int(*upd.Time))
	}
	if upd.Status != nil {
		addArg("status = $%d", string(*upd.Status))
	}
	if upd.Notes != nil {
		addArg("notes = $%d", *upd.Notes)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET `+strings.Join(sets, ", ")+`
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, args...)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to schedule.Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
