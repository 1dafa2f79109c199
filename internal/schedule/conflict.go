package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrNotEnoughAppointments is returned when conflict resolution is asked to
// arbitrate fewer than two appointments.
var ErrNotEnoughAppointments = errors.New("conflict resolution requires at least two appointments")

var (
	urgentNoteKeywords  = []string{"urgent", "emergency", "pain"}
	routineNoteKeywords = []string{"follow-up", "routine"}

	criticalDepartments = map[string]bool{
		"emergency":  true,
		"cardiology": true,
		"oncology":   true,
	}
)

// longStandingAge is how old an appointment must be before it earns
// seniority priority.
const longStandingAge = 7 * 24 * time.Hour

// ConflictAppointment is one competitor for a doctor's attention.
type ConflictAppointment struct {
	ID         string
	Department string
	Notes      string
	CreatedAt  time.Time
}

// PriorityScore ranks one appointment's claim on its original slot. Higher
// score means higher priority to keep the slot.
type PriorityScore struct {
	AppointmentID string   `json:"appointment_id"`
	Score         float64  `json:"score"`
	Factors       []string `json:"factors"`
}

// Resolution is the plan produced for a set of conflicting appointments:
// exactly one keeps its slot, every other one is marked for rescheduling.
type Resolution struct {
	Priorities    []PriorityScore `json:"priorities"`
	KeepID        string          `json:"keep_appointment_id"`
	RescheduleIDs []string        `json:"reschedule_appointment_ids"`
	Actions       []string        `json:"recommended_actions"`
}

// PriorityFor scores a single appointment. Base 50, additive: urgency
// keywords in the notes +30, routine keywords +10, created more than seven
// days ago +10, critical department +20.
func PriorityFor(appt ConflictAppointment, now time.Time) PriorityScore {
	score := baseScore
	var factors []string

	notes := strings.ToLower(appt.Notes)
	switch {
	case containsAny(notes, urgentNoteKeywords):
		score += 30
		factors = append(factors, "urgent medical condition")
	case containsAny(notes, routineNoteKeywords):
		score += 10
		factors = append(factors, "follow-up appointment")
	}

	if !appt.CreatedAt.IsZero() && now.Sub(appt.CreatedAt) > longStandingAge {
		score += 10
		factors = append(factors, "long-standing appointment")
	}

	if criticalDepartments[strings.ToLower(appt.Department)] {
		score += 20
		factors = append(factors, "critical care department")
	}

	return PriorityScore{
		AppointmentID: appt.ID,
		Score:         score,
		Factors:       factors,
	}
}

// ResolveConflicts arbitrates two or more appointments competing for the
// same doctor. The highest-scoring appointment keeps its slot; on equal
// scores the appointment encountered first in the input wins (stable sort,
// not left to map iteration order).
func ResolveConflicts(appts []ConflictAppointment, now time.Time) (*Resolution, error) {
	if len(appts) < 2 {
		return nil, ErrNotEnoughAppointments
	}

	priorities := make([]PriorityScore, 0, len(appts))
	for _, appt := range appts {
		priorities = append(priorities, PriorityFor(appt, now))
	}

	sort.SliceStable(priorities, func(i, j int) bool {
		return priorities[i].Score > priorities[j].Score
	})

	keep := priorities[0]
	rescheduleIDs := make([]string, 0, len(priorities)-1)
	for _, p := range priorities[1:] {
		rescheduleIDs = append(rescheduleIDs, p.AppointmentID)
	}

	actions := []string{
		fmt.Sprintf("confirm appointment %s (highest priority, score %.0f)", keep.AppointmentID, keep.Score),
	}
	for _, id := range rescheduleIDs {
		actions = append(actions, fmt.Sprintf("reschedule appointment %s with an apology and a premium alternative", id))
	}
	actions = append(actions, "notify all affected patients proactively")

	return &Resolution{
		Priorities:    priorities,
		KeepID:        keep.AppointmentID,
		RescheduleIDs: rescheduleIDs,
		Actions:       actions,
	}, nil
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
