package appointment

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hackgods/hospital-appointment-scheduler/internal/notify"
	"github.com/hackgods/hospital-appointment-scheduler/internal/observability/metrics"
	redisclient "github.com/hackgods/hospital-appointment-scheduler/internal/redis"
)

// ReminderService emails patients the day before their scheduled
// appointment. Redis dedupe keeps reminders at-most-once per appointment
// even with multiple worker instances.
type ReminderService struct {
	repo    Repository
	dedupe  redisclient.Deduper
	email   notify.EmailSender
	metrics *metrics.SchedulingMetrics
	now     func() time.Time
}

func NewReminderService(repo Repository, dedupe redisclient.Deduper, email notify.EmailSender, m *metrics.SchedulingMetrics) *ReminderService {
	return &ReminderService{
		repo:    repo,
		dedupe:  dedupe,
		email:   email,
		metrics: m,
		now:     time.Now,
	}
}

// SendReminders processes one sweep for appointments scheduled tomorrow.
func (s *ReminderService) SendReminders(ctx context.Context) error {
	tomorrow := s.now().AddDate(0, 0, 1)
	appts, err := s.repo.ListScheduledBetween(ctx, tomorrow, tomorrow)
	if err != nil {
		return fmt.Errorf("list tomorrow's appointments: %w", err)
	}

	for _, appt := range appts {
		if appt.PatientEmail == nil || *appt.PatientEmail == "" {
			s.metrics.ObserveReminder("skipped")
			continue
		}

		key := fmt.Sprintf("reminder:%s:%s", appt.ID, appt.Date.Format("2006-01-02"))
		first, err := s.dedupe.Claim(ctx, key)
		if err != nil {
			log.Printf("reminder dedupe error for appointment %s: %v", appt.ID, err)
			s.metrics.ObserveReminder("error")
			continue
		}
		if !first {
			continue
		}

		msg := notify.EmailMessage{
			To:      *appt.PatientEmail,
			ToName:  appt.PatientName,
			Subject: "Appointment reminder",
			Body: fmt.Sprintf("Hello %s, this is a reminder of your %s appointment on %s at %s.",
				appt.PatientName, appt.Department, appt.Date.Format("Monday, 2 January 2006"), appt.Time),
		}
		if err := s.email.Send(ctx, msg); err != nil {
			log.Printf("reminder send failed for appointment %s: %v", appt.ID, err)
			s.metrics.ObserveReminder("error")
			continue
		}
		s.metrics.ObserveReminder("sent")
	}

	return nil
}
