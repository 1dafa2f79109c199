package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-appointment-scheduler/internal/observability/metrics"
	redisclient "github.com/hackgods/hospital-appointment-scheduler/internal/redis"
	"github.com/hackgods/hospital-appointment-scheduler/internal/schedule"
)

const (
	EventAppointmentBooked      = "APPOINTMENT_BOOKED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted   = "APPOINTMENT_COMPLETED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventConflictResolved       = "CONFLICT_RESOLVED"
)

var (
	// ErrSlotUnavailable accompanies a negative Verdict: the structured
	// verdict carries the reason and alternatives, the error just signals
	// that no appointment was created.
	ErrSlotUnavailable         = errors.New("requested slot is not available")
	ErrSlotBeingBooked         = errors.New("slot is currently being booked, please retry")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidBookRequest      = errors.New("invalid booking request")
)

type Service struct {
	repo    Repository
	locker  redisclient.Locker
	metrics *metrics.SchedulingMetrics
	now     func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, m *metrics.SchedulingMetrics) *Service {
	return &Service{
		repo:    repo,
		locker:  locker,
		metrics: m,
		now:     time.Now,
	}
}

// ListDoctors returns active doctors, optionally filtered by department.
func (s *Service) ListDoctors(ctx context.Context, department string) ([]Doctor, error) {
	if department != "" {
		doctors, err := s.repo.ListDoctorsByDepartment(ctx, department)
		if err != nil {
			return nil, fmt.Errorf("list doctors by department: %w", err)
		}
		return doctors, nil
	}
	doctors, err := s.repo.ListActiveDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// DoctorSlots returns the open slot start times for a doctor on a date.
func (s *Service) DoctorSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]schedule.TimeOfDay, error) {
	s.metrics.ObserveSlotQuery()

	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	booked, err := s.repo.ListAppointmentsForDoctor(ctx, doctorID, date, date)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	return schedule.GenerateSlots(doctor.Calendar(), date, bookings(booked)), nil
}

// CheckAvailability returns a structured verdict for one doctor/date/time.
// An unknown doctor is a verdict, not an error: the caller always gets a
// usable result object.
func (s *Service) CheckAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time, at schedule.TimeOfDay) (schedule.Verdict, error) {
	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			v := schedule.Verdict{Reason: schedule.ReasonDoctorUnknown}
			s.metrics.ObserveAvailability(string(v.Reason))
			return v, nil
		}
		return schedule.Verdict{}, fmt.Errorf("load doctor: %w", err)
	}

	booked, err := s.repo.ListAppointmentsForDoctor(ctx, doctorID, date, date)
	if err != nil {
		return schedule.Verdict{}, fmt.Errorf("load appointments: %w", err)
	}

	v := schedule.CheckAvailability(doctor.Calendar(), bookings(booked), date, at)
	s.metrics.ObserveAvailability(string(v.Reason))
	return v, nil
}

// OptimalTimes ranks the doctor's open slots over the horizon, best first.
func (s *Service) OptimalTimes(ctx context.Context, doctorID uuid.UUID, opts schedule.RankOptions) ([]schedule.RankedSlot, error) {
	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	if opts.Now.IsZero() {
		opts.Now = s.now()
	}
	horizon := opts.HorizonDays
	if horizon <= 0 {
		horizon = schedule.DefaultRankHorizonDays
	}

	from := opts.Now.AddDate(0, 0, 1)
	to := opts.Now.AddDate(0, 0, horizon)
	booked, err := s.repo.ListAppointmentsForDoctor(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	return schedule.RankOptimalTimes(doctor.Calendar(), bookings(booked), opts), nil
}

type BookRequest struct {
	DoctorID     uuid.UUID
	PatientName  string
	PatientPhone string
	PatientEmail *string
	Date         time.Time
	Time         schedule.TimeOfDay
	Notes        string
}

func (r BookRequest) validate() error {
	if strings.TrimSpace(r.PatientName) == "" {
		return fmt.Errorf("%w: patient name is required", ErrInvalidBookRequest)
	}
	if strings.TrimSpace(r.PatientPhone) == "" {
		return fmt.Errorf("%w: patient phone is required", ErrInvalidBookRequest)
	}
	if !r.Time.Valid() {
		return fmt.Errorf("%w: time out of range", ErrInvalidBookRequest)
	}
	return nil
}

// Book reserves a slot for a patient. The engine's verdict is advisory;
// inside the per-slot lock the slot is re-checked against the store, and
// the database's unique index has the final word. On a negative verdict the
// verdict is returned alongside ErrSlotUnavailable so the caller can offer
// alternatives.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Appointment, *schedule.Verdict, error) {
	if err := req.validate(); err != nil {
		return nil, nil, err
	}

	start := s.now()

	verdict, err := s.CheckAvailability(ctx, req.DoctorID, req.Date, req.Time)
	if err != nil {
		return nil, nil, err
	}
	if !verdict.Available {
		s.metrics.ObserveBooking("slot_unavailable", time.Since(start).Seconds())
		return nil, &verdict, ErrSlotUnavailable
	}

	doctor, err := s.repo.GetDoctorByID(ctx, req.DoctorID)
	if err != nil {
		return nil, nil, fmt.Errorf("load doctor: %w", err)
	}

	var created *Appointment

	err = s.locker.WithSlotLock(ctx, slotKey(req.DoctorID, req.Date, req.Time), func(lockCtx context.Context) error {
		// Re-check inside the critical section: a concurrent booking may
		// have landed between the advisory verdict and here.
		existing, err := s.repo.GetScheduledAt(lockCtx, req.DoctorID, req.Date, req.Time)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			return fmt.Errorf("re-check slot: %w", err)
		}
		if existing != nil {
			return ErrSlotUnavailable
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			DoctorID:     req.DoctorID,
			PatientName:  req.PatientName,
			PatientPhone: req.PatientPhone,
			PatientEmail: req.PatientEmail,
			Department:   doctor.Department,
			Date:         req.Date,
			Time:         req.Time,
			Notes:        req.Notes,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt
		s.logEvent(lockCtx, appt.ID, EventAppointmentBooked, map[string]any{
			"doctor_id": req.DoctorID.String(),
			"date":      req.Date.Format("2006-01-02"),
			"time":      req.Time.String(),
		})
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			s.metrics.ObserveBooking("slot_contended", time.Since(start).Seconds())
			return nil, nil, ErrSlotBeingBooked
		}
		if errors.Is(err, ErrSlotUnavailable) {
			// Lost the race: rebuild the verdict so the caller still gets
			// alternatives.
			v, verr := s.CheckAvailability(ctx, req.DoctorID, req.Date, req.Time)
			if verr != nil {
				v = schedule.Verdict{Reason: schedule.ReasonSlotTaken}
			}
			s.metrics.ObserveBooking("slot_unavailable", time.Since(start).Seconds())
			return nil, &v, ErrSlotUnavailable
		}
		s.metrics.ObserveBooking("error", time.Since(start).Seconds())
		return nil, nil, err
	}

	s.metrics.ObserveBooking("booked", time.Since(start).Seconds())
	return created, nil, nil
}

// Cancel moves a scheduled appointment to cancelled, freeing its slot.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, schedule.StatusCancelled, EventAppointmentCancelled)
}

// Complete marks a scheduled appointment as completed.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, schedule.StatusCompleted, EventAppointmentCompleted)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to schedule.Status, event string) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.Status != schedule.StatusScheduled {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, schedule.StatusScheduled, to)
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.logEvent(ctx, updated.ID, event, map[string]any{})
	return updated, nil
}

// Get retrieves an appointment by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// Update applies a typed partial update. When the update moves the
// appointment to another slot the target slot is validated and guarded by
// the same per-slot lock as Book.
func (s *Service) Update(ctx context.Context, id uuid.UUID, upd AppointmentUpdate) (*Appointment, *schedule.Verdict, error) {
	if err := upd.Validate(); err != nil {
		return nil, nil, err
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load appointment: %w", err)
	}

	if !upd.MovesSlot() {
		updated, err := s.repo.UpdateAppointment(ctx, id, upd)
		if err != nil {
			return nil, nil, fmt.Errorf("update appointment: %w", err)
		}
		return updated, nil, nil
	}

	date := appt.Date
	if upd.Date != nil {
		date = *upd.Date
	}
	at := appt.Time
	if upd.Time != nil {
		at = *upd.Time
	}

	verdict, err := s.checkAvailabilityExcluding(ctx, appt.DoctorID, date, at, id)
	if err != nil {
		return nil, nil, err
	}
	if !verdict.Available {
		return nil, &verdict, ErrSlotUnavailable
	}

	var updated *Appointment
	err = s.locker.WithSlotLock(ctx, slotKey(appt.DoctorID, date, at), func(lockCtx context.Context) error {
		existing, err := s.repo.GetScheduledAt(lockCtx, appt.DoctorID, date, at)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			return fmt.Errorf("re-check slot: %w", err)
		}
		if existing != nil && existing.ID != id {
			return ErrSlotUnavailable
		}

		updated, err = s.repo.UpdateAppointment(lockCtx, id, upd)
		if err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}

		s.logEvent(lockCtx, id, EventAppointmentRescheduled, map[string]any{
			"date": date.Format("2006-01-02"),
			"time": at.String(),
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, nil, ErrSlotBeingBooked
		}
		if errors.Is(err, ErrSlotUnavailable) {
			v, verr := s.CheckAvailability(ctx, appt.DoctorID, date, at)
			if verr != nil {
				v = schedule.Verdict{Reason: schedule.ReasonSlotTaken}
			}
			return nil, &v, ErrSlotUnavailable
		}
		return nil, nil, err
	}

	return updated, nil, nil
}

// checkAvailabilityExcluding is CheckAvailability with one appointment's
// own booking removed from the snapshot, so moving an appointment within
// its current slot does not collide with itself.
func (s *Service) checkAvailabilityExcluding(ctx context.Context, doctorID uuid.UUID, date time.Time, at schedule.TimeOfDay, exclude uuid.UUID) (schedule.Verdict, error) {
	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return schedule.Verdict{Reason: schedule.ReasonDoctorUnknown}, nil
		}
		return schedule.Verdict{}, fmt.Errorf("load doctor: %w", err)
	}

	appts, err := s.repo.ListAppointmentsForDoctor(ctx, doctorID, date, date)
	if err != nil {
		return schedule.Verdict{}, fmt.Errorf("load appointments: %w", err)
	}

	booked := make([]schedule.Booking, 0, len(appts))
	for _, a := range appts {
		if a.ID == exclude {
			continue
		}
		booked = append(booked, a.Booking())
	}

	return schedule.CheckAvailability(doctor.Calendar(), booked, date, at), nil
}

// RescheduleAdvice pairs the urgency classification of a free-text reason
// with ranked alternative slots for the appointment's doctor.
type RescheduleAdvice struct {
	Appointment     *Appointment
	Urgency         schedule.Urgency
	Alternatives    []schedule.RankedSlot
	Recommendations []string
}

func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, reason string) (*RescheduleAdvice, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	urgency := schedule.ClassifyUrgency(reason)

	alternatives, err := s.OptimalTimes(ctx, appt.DoctorID, schedule.RankOptions{Urgency: urgency})
	if err != nil {
		return nil, err
	}

	return &RescheduleAdvice{
		Appointment:     appt,
		Urgency:         urgency,
		Alternatives:    alternatives,
		Recommendations: rescheduleRecommendations(alternatives, urgency),
	}, nil
}

func rescheduleRecommendations(alternatives []schedule.RankedSlot, urgency schedule.Urgency) []string {
	var recs []string
	switch urgency {
	case schedule.UrgencyHigh:
		recs = append(recs,
			"consider the earliest available slot",
			"contact the patient immediately to confirm the new time")
	case schedule.UrgencyMedium:
		recs = append(recs,
			"offer the top three alternative times",
			"let the patient choose their preferred option")
	default:
		recs = append(recs,
			"provide flexible rescheduling options",
			"honor the patient's original preferences")
	}
	if len(alternatives) > 0 {
		best := alternatives[0]
		recs = append(recs, fmt.Sprintf("recommended: %s at %s", best.Date.Format("2006-01-02"), best.Time))
	}
	return recs
}

// ConflictResolution is the engine's plan plus suggested alternative slots
// for every appointment marked for rescheduling, keyed by appointment ID.
type ConflictResolution struct {
	Resolution   *schedule.Resolution
	Alternatives map[string][]schedule.RankedSlot
}

const conflictAlternativeLimit = 3

// ResolveConflicts arbitrates between two or more existing appointments.
// Every referenced appointment must exist.
func (s *Service) ResolveConflicts(ctx context.Context, ids []uuid.UUID) (*ConflictResolution, error) {
	if len(ids) < 2 {
		return nil, schedule.ErrNotEnoughAppointments
	}

	candidates := make([]schedule.ConflictAppointment, 0, len(ids))
	byID := make(map[string]*Appointment, len(ids))
	for _, id := range ids {
		appt, err := s.repo.GetAppointmentByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load appointment %s: %w", id, err)
		}
		byID[appt.ID.String()] = appt
		candidates = append(candidates, schedule.ConflictAppointment{
			ID:         appt.ID.String(),
			Department: appt.Department,
			Notes:      appt.Notes,
			CreatedAt:  appt.CreatedAt,
		})
	}

	resolution, err := schedule.ResolveConflicts(candidates, s.now())
	if err != nil {
		return nil, err
	}

	alternatives := make(map[string][]schedule.RankedSlot, len(resolution.RescheduleIDs))
	for _, rid := range resolution.RescheduleIDs {
		appt := byID[rid]
		ranked, err := s.OptimalTimes(ctx, appt.DoctorID, schedule.RankOptions{
			Limit:   conflictAlternativeLimit,
			Urgency: schedule.UrgencyMedium,
		})
		if err != nil {
			return nil, err
		}
		alternatives[rid] = ranked
	}

	keepID, _ := uuid.Parse(resolution.KeepID)
	s.logEvent(ctx, keepID, EventConflictResolved, map[string]any{
		"kept":        resolution.KeepID,
		"rescheduled": resolution.RescheduleIDs,
	})

	return &ConflictResolution{
		Resolution:   resolution,
		Alternatives: alternatives,
	}, nil
}

// UpcomingAppointments lists scheduled appointments on the given date, for
// the reminder worker.
func (s *Service) UpcomingAppointments(ctx context.Context, day time.Time) ([]Appointment, error) {
	appts, err := s.repo.ListScheduledBetween(ctx, day, day)
	if err != nil {
		return nil, fmt.Errorf("list scheduled appointments: %w", err)
	}
	return appts, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for appointment %s: %v", eventType, appointmentID, err)
	}
}

func slotKey(doctorID uuid.UUID, date time.Time, at schedule.TimeOfDay) string {
	return fmt.Sprintf("%s:%s:%s", doctorID, date.Format("2006-01-02"), at)
}

func bookings(appts []Appointment) []schedule.Booking {
	result := make([]schedule.Booking, 0, len(appts))
	for _, a := range appts {
		result = append(result, a.Booking())
	}
	return result
}
