// Package metrics exposes prometheus instruments for the scheduling
// service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type SchedulingMetrics struct {
	bookingsTotal     *prometheus.CounterVec
	availabilityTotal *prometheus.CounterVec
	slotQueriesTotal  prometheus.Counter
	remindersTotal    *prometheus.CounterVec
	bookingLatency    prometheus.Histogram
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "scheduling",
			Name:      "availability_checks_total",
			Help:      "Availability checks by verdict reason",
		}, []string{"reason"}),
		slotQueriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "scheduling",
			Name:      "slot_queries_total",
			Help:      "Total slot generation queries",
		}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "scheduling",
			Name:      "reminders_total",
			Help:      "Reminder deliveries by status",
		}, []string{"status"}),
		bookingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hospital",
			Subsystem: "scheduling",
			Name:      "booking_latency_seconds",
			Help:      "Latency of the booking critical section",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.availabilityTotal, m.slotQueriesTotal, m.remindersTotal, m.bookingLatency)
	return m
}

func (m *SchedulingMetrics) ObserveBooking(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
	m.bookingLatency.Observe(seconds)
}

func (m *SchedulingMetrics) ObserveAvailability(reason string) {
	if m == nil {
		return
	}
	m.availabilityTotal.WithLabelValues(reason).Inc()
}

func (m *SchedulingMetrics) ObserveSlotQuery() {
	if m == nil {
		return
	}
	m.slotQueriesTotal.Inc()
}

func (m *SchedulingMetrics) ObserveReminder(status string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(status).Inc()
}
