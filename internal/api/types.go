package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-appointment-scheduler/internal/appointment"
	"github.com/hackgods/hospital-appointment-scheduler/internal/schedule"
)

const dateLayout = "2006-01-02"

type ErrorResponse struct {
	Error        string                `json:"error"`
	Details      string                `json:"details,omitempty"`
	Availability *AvailabilityResponse `json:"availability,omitempty"`
}

type DoctorResponse struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Specialization      string    `json:"specialization"`
	Department          string    `json:"department"`
	WorkingDays         []string  `json:"working_days"`
	StartTime           string    `json:"start_time"`
	EndTime             string    `json:"end_time"`
	SlotDurationMinutes int       `json:"slot_duration_minutes"`
}

func toDoctorResponse(d appointment.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:                  d.ID,
		Name:                d.Name,
		Specialization:      d.Specialization,
		Department:          d.Department,
		WorkingDays:         d.WorkingDays,
		StartTime:           schedule.TimeOfDay(d.StartMinute).String(),
		EndTime:             schedule.TimeOfDay(d.EndMinute).String(),
		SlotDurationMinutes: d.SlotDurationMinutes,
	}
}

type SlotsResponse struct {
	DoctorID uuid.UUID            `json:"doctor_id"`
	Date     string               `json:"date"`
	Slots    []schedule.TimeOfDay `json:"slots"`
}

type AvailabilityResponse struct {
	Available        bool                 `json:"available"`
	Reason           string               `json:"reason"`
	AlternativeDates []string             `json:"alternative_dates,omitempty"`
	AlternativeTimes []schedule.TimeOfDay `json:"alternative_times,omitempty"`
}

func toAvailabilityResponse(v schedule.Verdict) AvailabilityResponse {
	resp := AvailabilityResponse{
		Available:        v.Available,
		Reason:           string(v.Reason),
		AlternativeTimes: v.AlternativeTimes,
	}
	for _, d := range v.AlternativeDates {
		resp.AlternativeDates = append(resp.AlternativeDates, d.Format(dateLayout))
	}
	return resp
}

type RankedSlotResponse struct {
	Date    string             `json:"date"`
	Time    schedule.TimeOfDay `json:"time"`
	Score   float64            `json:"score"`
	Reasons []string           `json:"reasons"`
}

func toRankedSlotResponses(slots []schedule.RankedSlot) []RankedSlotResponse {
	out := make([]RankedSlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, RankedSlotResponse{
			Date:    s.Date.Format(dateLayout),
			Time:    s.Time,
			Score:   s.Score,
			Reasons: s.Reasons,
		})
	}
	return out
}

type BookAppointmentRequest struct {
	DoctorID     string  `json:"doctor_id"`
	PatientName  string  `json:"patient_name"`
	PatientPhone string  `json:"patient_phone"`
	PatientEmail *string `json:"patient_email,omitempty"`
	Date         string  `json:"date"`
	Time         string  `json:"time"`
	Notes        string  `json:"notes,omitempty"`
}

type UpdateAppointmentRequest struct {
	Date   *string `json:"date,omitempty"`
	Time   *string `json:"time,omitempty"`
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

type AppointmentResponse struct {
	ID           uuid.UUID          `json:"id"`
	DoctorID     uuid.UUID          `json:"doctor_id"`
	PatientName  string             `json:"patient_name"`
	PatientPhone string             `json:"patient_phone"`
	PatientEmail *string            `json:"patient_email,omitempty"`
	Department   string             `json:"department"`
	Date         string             `json:"date"`
	Time         schedule.TimeOfDay `json:"time"`
	Status       string             `json:"status"`
	Notes        string             `json:"notes,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:           a.ID,
		DoctorID:     a.DoctorID,
		PatientName:  a.PatientName,
		PatientPhone: a.PatientPhone,
		PatientEmail: a.PatientEmail,
		Department:   a.Department,
		Date:         a.Date.Format(dateLayout),
		Time:         a.Time,
		Status:       string(a.Status),
		Notes:        a.Notes,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

type RescheduleRequest struct {
	Reason string `json:"reason"`
}

type RescheduleResponse struct {
	Appointment     AppointmentResponse  `json:"appointment"`
	Urgency         string               `json:"urgency"`
	Alternatives    []RankedSlotResponse `json:"alternatives"`
	Recommendations []string             `json:"recommendations"`
}

type ResolveConflictsRequest struct {
	AppointmentIDs []string `json:"appointment_ids"`
}

type PriorityScoreResponse struct {
	AppointmentID string   `json:"appointment_id"`
	Score         float64  `json:"score"`
	Factors       []string `json:"factors"`
}

type ConflictResolutionResponse struct {
	Priorities    []PriorityScoreResponse         `json:"priorities"`
	KeepID        string                          `json:"keep_id"`
	RescheduleIDs []string                        `json:"reschedule_ids"`
	Actions       []string                        `json:"actions"`
	Alternatives  map[string][]RankedSlotResponse `json:"alternatives"`
}

func toConflictResolutionResponse(res *appointment.ConflictResolution) ConflictResolutionResponse {
	out := ConflictResolutionResponse{
		KeepID:        res.Resolution.KeepID,
		RescheduleIDs: res.Resolution.RescheduleIDs,
		Actions:       res.Resolution.Actions,
		Alternatives:  make(map[string][]RankedSlotResponse, len(res.Alternatives)),
	}
	for _, p := range res.Resolution.Priorities {
		out.Priorities = append(out.Priorities, PriorityScoreResponse{
			AppointmentID: p.AppointmentID,
			Score:         p.Score,
			Factors:       p.Factors,
		})
	}
	for id, slots := range res.Alternatives {
		out.Alternatives[id] = toRankedSlotResponses(slots)
	}
	return out
}
