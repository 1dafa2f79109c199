package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/hospital-appointment-scheduler/internal/appointment"
	"github.com/hackgods/hospital-appointment-scheduler/internal/schedule"
)

// SchedulingService is the surface the HTTP layer needs from the
// appointment service. Handlers are tested against this interface.
type SchedulingService interface {
	ListDoctors(ctx context.Context, department string) ([]appointment.Doctor, error)
	DoctorSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]schedule.TimeOfDay, error)
	CheckAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time, at schedule.TimeOfDay) (schedule.Verdict, error)
	OptimalTimes(ctx context.Context, doctorID uuid.UUID, opts schedule.RankOptions) ([]schedule.RankedSlot, error)
	Book(ctx context.Context, req appointment.BookRequest) (*appointment.Appointment, *schedule.Verdict, error)
	Get(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	Update(ctx context.Context, id uuid.UUID, upd appointment.AppointmentUpdate) (*appointment.Appointment, *schedule.Verdict, error)
	Cancel(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	Complete(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	Reschedule(ctx context.Context, id uuid.UUID, reason string) (*appointment.RescheduleAdvice, error)
	ResolveConflicts(ctx context.Context, ids []uuid.UUID) (*appointment.ConflictResolution, error)
}

type RouterConfig struct {
	Service SchedulingService
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/doctors", func(r chi.Router) {
		r.Get("/", listDoctorsHandler(cfg.Service))
		r.Get("/{id}/slots", doctorSlotsHandler(cfg.Service))
		r.Get("/{id}/availability", doctorAvailabilityHandler(cfg.Service))
		r.Get("/{id}/optimal-times", doctorOptimalTimesHandler(cfg.Service))
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(cfg.Service))
		r.Get("/{id}", getAppointmentHandler(cfg.Service))
		r.Patch("/{id}", updateAppointmentHandler(cfg.Service))
		r.Post("/{id}/cancel", cancelAppointmentHandler(cfg.Service))
		r.Post("/{id}/complete", completeAppointmentHandler(cfg.Service))
		r.Post("/{id}/reschedule", rescheduleAppointmentHandler(cfg.Service))
	})

	r.Post("/conflicts/resolve", resolveConflictsHandler(cfg.Service))

	return r
}
