package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/hospital-appointment-scheduler/internal/appointment"
	"github.com/hackgods/hospital-appointment-scheduler/internal/schedule"
)

type mockService struct {
	listDoctors       func(ctx context.Context, department string) ([]appointment.Doctor, error)
	doctorSlots       func(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]schedule.TimeOfDay, error)
	checkAvailability func(ctx context.Context, doctorID uuid.UUID, date time.Time, at schedule.TimeOfDay) (schedule.Verdict, error)
	optimalTimes      func(ctx context.Context, doctorID uuid.UUID, opts schedule.RankOptions) ([]schedule.RankedSlot, error)
	book              func(ctx context.Context, req appointment.BookRequest) (*appointment.Appointment, *schedule.Verdict, error)
	get               func(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	update            func(ctx context.Context, id uuid.UUID, upd appointment.AppointmentUpdate) (*appointment.Appointment, *schedule.Verdict, error)
	cancel            func(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	complete          func(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	reschedule        func(ctx context.Context, id uuid.UUID, reason string) (*appointment.RescheduleAdvice, error)
	resolveConflicts  func(ctx context.Context, ids []uuid.UUID) (*appointment.ConflictResolution, error)
}

func (m *mockService) ListDoctors(ctx context.Context, department string) ([]appointment.Doctor, error) {
	return m.listDoctors(ctx, department)
}

func (m *mockService) DoctorSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]schedule.TimeOfDay, error) {
	return m.doctorSlots(ctx, doctorID, date)
}

func (m *mockService) CheckAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time, at schedule.TimeOfDay) (schedule.Verdict, error) {
	return m.checkAvailability(ctx, doctorID, date, at)
}

func (m *mockService) OptimalTimes(ctx context.Context, doctorID uuid.UUID, opts schedule.RankOptions) ([]schedule.RankedSlot, error) {
	return m.optimalTimes(ctx, doctorID, opts)
}

func (m *mockService) Book(ctx context.Context, req appointment.BookRequest) (*appointment.Appointment, *schedule.Verdict, error) {
	return m.book(ctx, req)
}

func (m *mockService) Get(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return m.get(ctx, id)
}

func (m *mockService) Update(ctx context.Context, id uuid.UUID, upd appointment.AppointmentUpdate) (*appointment.Appointment, *schedule.Verdict, error) {
	return m.update(ctx, id, upd)
}

func (m *mockService) Cancel(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return m.cancel(ctx, id)
}

func (m *mockService) Complete(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return m.complete(ctx, id)
}

func (m *mockService) Reschedule(ctx context.Context, id uuid.UUID, reason string) (*appointment.RescheduleAdvice, error) {
	return m.reschedule(ctx, id, reason)
}

func (m *mockService) ResolveConflicts(ctx context.Context, ids []uuid.UUID) (*appointment.ConflictResolution, error) {
	return m.resolveConflicts(ctx, ids)
}

func newTestRouter(svc SchedulingService) http.Handler {
	return NewRouter(RouterConfig{Service: svc, Env: "test", Version: "test"})
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func testAppointment() *appointment.Appointment {
	return &appointment.Appointment{
		ID:           uuid.New(),
		DoctorID:     uuid.New(),
		PatientName:  "Jamie Doe",
		PatientPhone: "555-0101",
		Department:   "Cardiology",
		Date:         time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Time:         schedule.NewTimeOfDay(10, 0),
		Status:       schedule.StatusScheduled,
	}
}

func TestListDoctorsHandler(t *testing.T) {
	svc := &mockService{
		listDoctors: func(_ context.Context, department string) ([]appointment.Doctor, error) {
			assert.Equal(t, "Cardiology", department)
			return []appointment.Doctor{{
				ID:                  uuid.New(),
				Name:                "Dr. Grey",
				Department:          "Cardiology",
				WorkingDays:         []string{"monday"},
				StartMinute:         9 * 60,
				EndMinute:           17 * 60,
				SlotDurationMinutes: 30,
				Active:              true,
			}}, nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodGet, "/doctors?department=Cardiology", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []DoctorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "09:00", resp[0].StartTime)
	assert.Equal(t, "17:00", resp[0].EndTime)
}

func TestDoctorSlotsHandler(t *testing.T) {
	doctorID := uuid.New()
	svc := &mockService{
		doctorSlots: func(_ context.Context, gotID uuid.UUID, date time.Time) ([]schedule.TimeOfDay, error) {
			assert.Equal(t, doctorID, gotID)
			assert.Equal(t, "2024-01-01", date.Format("2006-01-02"))
			return []schedule.TimeOfDay{schedule.NewTimeOfDay(9, 0), schedule.NewTimeOfDay(9, 30)}, nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodGet, "/doctors/"+doctorID.String()+"/slots?date=2024-01-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"doctor_id":"`+doctorID.String()+`","date":"2024-01-01","slots":["09:00","09:30"]}`, rec.Body.String())
}

func TestDoctorSlotsHandlerBadInput(t *testing.T) {
	svc := &mockService{}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/doctors/not-a-uuid/slots?date=2024-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/doctors/"+uuid.NewString()+"/slots?date=January+1st", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDoctorSlotsHandlerUnknownDoctor(t *testing.T) {
	svc := &mockService{
		doctorSlots: func(context.Context, uuid.UUID, time.Time) ([]schedule.TimeOfDay, error) {
			return nil, appointment.ErrDoctorNotFound
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodGet, "/doctors/"+uuid.NewString()+"/slots?date=2024-01-01", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "doctor_not_found")
}

func TestAvailabilityHandler(t *testing.T) {
	svc := &mockService{
		checkAvailability: func(_ context.Context, _ uuid.UUID, _ time.Time, at schedule.TimeOfDay) (schedule.Verdict, error) {
			assert.Equal(t, schedule.NewTimeOfDay(10, 0), at)
			return schedule.Verdict{
				Reason:           schedule.ReasonSlotTaken,
				AlternativeTimes: []schedule.TimeOfDay{schedule.NewTimeOfDay(10, 30)},
			}, nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodGet, "/doctors/"+uuid.NewString()+"/availability?date=2024-01-01&time=10:00", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Available)
	assert.Equal(t, "slot_taken", resp.Reason)
	assert.Equal(t, []schedule.TimeOfDay{schedule.NewTimeOfDay(10, 30)}, resp.AlternativeTimes)
}

func TestOptimalTimesHandler(t *testing.T) {
	svc := &mockService{
		optimalTimes: func(_ context.Context, _ uuid.UUID, opts schedule.RankOptions) ([]schedule.RankedSlot, error) {
			assert.Equal(t, schedule.UrgencyHigh, opts.Urgency)
			assert.Equal(t, 7, opts.HorizonDays)
			assert.Equal(t, 3, opts.Limit)
			return []schedule.RankedSlot{{
				Date:    time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
				Time:    schedule.NewTimeOfDay(9, 0),
				Score:   75,
				Reasons: []string{"optimal time slot"},
			}}, nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodGet, "/doctors/"+uuid.NewString()+"/optimal-times?urgency=high&days=7&limit=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []RankedSlotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "2024-01-02", resp[0].Date)
	assert.InDelta(t, 75, resp[0].Score, 0.001)
}

func TestOptimalTimesHandlerBadLimit(t *testing.T) {
	rec := doRequest(t, newTestRouter(&mockService{}), http.MethodGet, "/doctors/"+uuid.NewString()+"/optimal-times?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAppointmentHandler(t *testing.T) {
	appt := testAppointment()
	svc := &mockService{
		book: func(_ context.Context, req appointment.BookRequest) (*appointment.Appointment, *schedule.Verdict, error) {
			assert.Equal(t, appt.DoctorID, req.DoctorID)
			assert.Equal(t, "Jamie Doe", req.PatientName)
			assert.Equal(t, schedule.NewTimeOfDay(10, 0), req.Time)
			return appt, nil, nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/appointments", BookAppointmentRequest{
		DoctorID:     appt.DoctorID.String(),
		PatientName:  "Jamie Doe",
		PatientPhone: "555-0101",
		Date:         "2024-01-01",
		Time:         "10:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, appt.ID, resp.ID)
	assert.Equal(t, "scheduled", resp.Status)
}

func TestCreateAppointmentHandlerSlotUnavailable(t *testing.T) {
	svc := &mockService{
		book: func(context.Context, appointment.BookRequest) (*appointment.Appointment, *schedule.Verdict, error) {
			return nil, &schedule.Verdict{
				Reason:           schedule.ReasonSlotTaken,
				AlternativeTimes: []schedule.TimeOfDay{schedule.NewTimeOfDay(11, 0)},
			}, appointment.ErrSlotUnavailable
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/appointments", BookAppointmentRequest{
		DoctorID:     uuid.NewString(),
		PatientName:  "Jamie Doe",
		PatientPhone: "555-0101",
		Date:         "2024-01-01",
		Time:         "10:00",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "slot_unavailable", resp.Error)
	require.NotNil(t, resp.Availability)
	assert.Equal(t, "slot_taken", resp.Availability.Reason)
	assert.NotEmpty(t, resp.Availability.AlternativeTimes)
}

func TestCreateAppointmentHandlerLockContention(t *testing.T) {
	svc := &mockService{
		book: func(context.Context, appointment.BookRequest) (*appointment.Appointment, *schedule.Verdict, error) {
			return nil, nil, appointment.ErrSlotBeingBooked
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/appointments", BookAppointmentRequest{
		DoctorID:     uuid.NewString(),
		PatientName:  "Jamie Doe",
		PatientPhone: "555-0101",
		Date:         "2024-01-01",
		Time:         "10:00",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "slot_being_booked")
}

func TestCreateAppointmentHandlerBadBody(t *testing.T) {
	router := newTestRouter(&mockService{})

	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/appointments", BookAppointmentRequest{
		DoctorID: "nope",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAppointmentHandlerNotFound(t *testing.T) {
	svc := &mockService{
		get: func(context.Context, uuid.UUID) (*appointment.Appointment, error) {
			return nil, appointment.ErrAppointmentNotFound
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodGet, "/appointments/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateAppointmentHandler(t *testing.T) {
	appt := testAppointment()
	svc := &mockService{
		update: func(_ context.Context, _ uuid.UUID, upd appointment.AppointmentUpdate) (*appointment.Appointment, *schedule.Verdict, error) {
			require.NotNil(t, upd.Time)
			assert.Equal(t, schedule.NewTimeOfDay(14, 0), *upd.Time)
			assert.Nil(t, upd.Date)
			return appt, nil, nil
		},
	}

	newTime := "14:00"
	rec := doRequest(t, newTestRouter(svc), http.MethodPatch, "/appointments/"+appt.ID.String(), UpdateAppointmentRequest{Time: &newTime})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateAppointmentHandlerEmptyUpdate(t *testing.T) {
	rec := doRequest(t, newTestRouter(&mockService{}), http.MethodPatch, "/appointments/"+uuid.NewString(), UpdateAppointmentRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "empty_update")
}

func TestCancelAppointmentHandlerInvalidTransition(t *testing.T) {
	svc := &mockService{
		cancel: func(context.Context, uuid.UUID) (*appointment.Appointment, error) {
			return nil, appointment.ErrInvalidStatusTransition
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/appointments/"+uuid.NewString()+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_status_transition")
}

func TestRescheduleAppointmentHandler(t *testing.T) {
	appt := testAppointment()
	svc := &mockService{
		reschedule: func(_ context.Context, _ uuid.UUID, reason string) (*appointment.RescheduleAdvice, error) {
			assert.Equal(t, "severe pain", reason)
			return &appointment.RescheduleAdvice{
				Appointment:     appt,
				Urgency:         schedule.UrgencyHigh,
				Recommendations: []string{"consider the earliest available slot"},
			}, nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/appointments/"+appt.ID.String()+"/reschedule", RescheduleRequest{Reason: "severe pain"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RescheduleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "high", resp.Urgency)
	assert.NotEmpty(t, resp.Recommendations)
}

func TestResolveConflictsHandler(t *testing.T) {
	keep, move := uuid.New(), uuid.New()
	svc := &mockService{
		resolveConflicts: func(_ context.Context, ids []uuid.UUID) (*appointment.ConflictResolution, error) {
			assert.Equal(t, []uuid.UUID{keep, move}, ids)
			return &appointment.ConflictResolution{
				Resolution: &schedule.Resolution{
					Priorities: []schedule.PriorityScore{
						{AppointmentID: keep.String(), Score: 100},
						{AppointmentID: move.String(), Score: 70},
					},
					KeepID:        keep.String(),
					RescheduleIDs: []string{move.String()},
					Actions:       []string{"notify all affected patients proactively"},
				},
				Alternatives: map[string][]schedule.RankedSlot{move.String(): {}},
			}, nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/conflicts/resolve", ResolveConflictsRequest{
		AppointmentIDs: []string{keep.String(), move.String()},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ConflictResolutionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, keep.String(), resp.KeepID)
	assert.Equal(t, []string{move.String()}, resp.RescheduleIDs)
}

func TestResolveConflictsHandlerRequiresTwo(t *testing.T) {
	svc := &mockService{
		resolveConflicts: func(context.Context, []uuid.UUID) (*appointment.ConflictResolution, error) {
			return nil, schedule.ErrNotEnoughAppointments
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/conflicts/resolve", ResolveConflictsRequest{
		AppointmentIDs: []string{uuid.NewString()},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_enough_appointments")
}

func TestRequestIDPropagation(t *testing.T) {
	svc := &mockService{
		listDoctors: func(context.Context, string) ([]appointment.Doctor, error) {
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/doctors", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}
