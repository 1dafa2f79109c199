package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/hospital-appointment-scheduler/internal/appointment"
	redisclient "github.com/hackgods/hospital-appointment-scheduler/internal/redis"
	"github.com/hackgods/hospital-appointment-scheduler/internal/schedule"
)

func listDoctorsHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.ListDoctors(r.Context(), r.URL.Query().Get("department"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]DoctorResponse, 0, len(doctors))
		for _, d := range doctors {
			resp = append(resp, toDoctorResponse(d))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func doctorSlotsHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseIDParam(w, r, "doctor_id must be a valid UUID")
		if !ok {
			return
		}
		date, ok := parseDateQuery(w, r, "date")
		if !ok {
			return
		}

		slots, err := svc.DoctorSlots(r.Context(), doctorID, date)
		if err != nil {
			handleLookupError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, SlotsResponse{
			DoctorID: doctorID,
			Date:     date.Format(dateLayout),
			Slots:    slots,
		})
	}
}

func doctorAvailabilityHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseIDParam(w, r, "doctor_id must be a valid UUID")
		if !ok {
			return
		}
		date, ok := parseDateQuery(w, r, "date")
		if !ok {
			return
		}
		at, err := schedule.ParseTimeOfDay(r.URL.Query().Get("time"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", "time must be HH:MM (24 hour clock)")
			return
		}

		verdict, err := svc.CheckAvailability(r.Context(), doctorID, date, at)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toAvailabilityResponse(verdict))
	}
}

func doctorOptimalTimesHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseIDParam(w, r, "doctor_id must be a valid UUID")
		if !ok {
			return
		}

		opts := schedule.RankOptions{}
		q := r.URL.Query()
		if v := q.Get("urgency"); v != "" {
			opts.Urgency = schedule.Urgency(v)
		}
		if v := q.Get("days"); v != "" {
			days, err := strconv.Atoi(v)
			if err != nil || days < 1 {
				writeError(w, http.StatusBadRequest, "invalid_days", "days must be a positive integer")
				return
			}
			opts.HorizonDays = days
		}
		if v := q.Get("limit"); v != "" {
			limit, err := strconv.Atoi(v)
			if err != nil || limit < 1 {
				writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
				return
			}
			opts.Limit = limit
		}

		ranked, err := svc.OptimalTimes(r.Context(), doctorID, opts)
		if err != nil {
			handleLookupError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRankedSlotResponses(ranked))
	}
}

func createAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}
		date, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		at, err := schedule.ParseTimeOfDay(req.Time)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", "time must be HH:MM (24 hour clock)")
			return
		}

		appt, verdict, err := svc.Book(r.Context(), appointment.BookRequest{
			DoctorID:     doctorID,
			PatientName:  req.PatientName,
			PatientPhone: req.PatientPhone,
			PatientEmail: req.PatientEmail,
			Date:         date,
			Time:         at,
			Notes:        req.Notes,
		})
		if err != nil {
			handleBookError(w, err, verdict)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id must be a valid UUID")
		if !ok {
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			handleLookupError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func updateAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id must be a valid UUID")
		if !ok {
			return
		}

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Date == nil && req.Time == nil && req.Status == nil && req.Notes == nil {
			writeError(w, http.StatusBadRequest, "empty_update", "at least one field must be set")
			return
		}

		var upd appointment.AppointmentUpdate
		if req.Date != nil {
			date, err := time.Parse(dateLayout, *req.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			upd.Date = &date
		}
		if req.Time != nil {
			at, err := schedule.ParseTimeOfDay(*req.Time)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_time", "time must be HH:MM (24 hour clock)")
				return
			}
			upd.Time = &at
		}
		if req.Status != nil {
			status, err := schedule.ParseStatus(*req.Status)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
				return
			}
			upd.Status = &status
		}
		upd.Notes = req.Notes

		appt, verdict, err := svc.Update(r.Context(), id, upd)
		if err != nil {
			handleBookError(w, err, verdict)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id must be a valid UUID")
		if !ok {
			return
		}

		appt, err := svc.Cancel(r.Context(), id)
		if err != nil {
			handleTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func completeAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id must be a valid UUID")
		if !ok {
			return
		}

		appt, err := svc.Complete(r.Context(), id)
		if err != nil {
			handleTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func rescheduleAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id must be a valid UUID")
		if !ok {
			return
		}

		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		advice, err := svc.Reschedule(r.Context(), id, req.Reason)
		if err != nil {
			handleLookupError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, RescheduleResponse{
			Appointment:     toAppointmentResponse(advice.Appointment),
			Urgency:         string(advice.Urgency),
			Alternatives:    toRankedSlotResponses(advice.Alternatives),
			Recommendations: advice.Recommendations,
		})
	}
}

func resolveConflictsHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResolveConflictsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		ids := make([]uuid.UUID, 0, len(req.AppointmentIDs))
		for _, raw := range req.AppointmentIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_appointment_id", "appointment_ids must be valid UUIDs")
				return
			}
			ids = append(ids, id)
		}

		res, err := svc.ResolveConflicts(r.Context(), ids)
		if err != nil {
			switch {
			case errors.Is(err, schedule.ErrNotEnoughAppointments):
				writeError(w, http.StatusBadRequest, "not_enough_appointments", err.Error())
			case errors.Is(err, appointment.ErrAppointmentNotFound):
				writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusOK, toConflictResolutionResponse(res))
	}
}

func parseIDParam(w http.ResponseWriter, r *http.Request, details string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", details)
		return uuid.Nil, false
	}
	return id, true
}

func parseDateQuery(w http.ResponseWriter, r *http.Request, key string) (time.Time, bool) {
	date, err := time.Parse(dateLayout, r.URL.Query().Get(key))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", key+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

func handleLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleBookError(w http.ResponseWriter, err error, verdict *schedule.Verdict) {
	switch {
	case errors.Is(err, appointment.ErrInvalidBookRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, appointment.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrSlotUnavailable):
		var av AvailabilityResponse
		if verdict != nil {
			av = toAvailabilityResponse(*verdict)
		}
		writeSlotUnavailable(w, err.Error(), av)
	case errors.Is(err, appointment.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
