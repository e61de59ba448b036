package availability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/appointment-platform/internal/schedule"
	"github.com/clinicdesk/appointment-platform/pkg/logging"
)

const testClinicID = "7f9c24e5-1b3a-4f6d-9c2e-8a5b3d1f0e47"

type stubEngine struct {
	slots    []Slot
	snapshot *CapacitySnapshot
	match    *DoctorMatch
	next     *Slot
	rangeOut []CapacitySnapshot
	err      error
}

func (s *stubEngine) GetAvailableSlots(context.Context, string, time.Time, string, string) ([]Slot, error) {
	return s.slots, s.err
}

func (s *stubEngine) GetClinicCapacity(context.Context, string, time.Time) (*CapacitySnapshot, error) {
	return s.snapshot, s.err
}

func (s *stubEngine) FindBestDoctor(context.Context, string, time.Time, int, string) (*DoctorMatch, error) {
	return s.match, s.err
}

func (s *stubEngine) FindNextAvailable(context.Context, string, time.Time) (*Slot, error) {
	return s.next, s.err
}

func (s *stubEngine) GetCapacityRange(context.Context, string, time.Time, time.Time) ([]CapacitySnapshot, error) {
	return s.rangeOut, s.err
}

func serveAvailability(t *testing.T, engine engineAPI, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(engine, logging.New("error"))
	h.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	r.Route("/clinics/{clinicID}/availability", func(r chi.Router) {
		r.Get("/slots", h.GetSlots)
		r.Get("/slots/next", h.GetNextSlot)
		r.Get("/capacity", h.GetCapacity)
		r.Get("/capacity/range", h.GetCapacityRange)
		r.Get("/doctors/best", h.GetBestDoctor)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandler_GetSlots(t *testing.T) {
	engine := &stubEngine{slots: []Slot{
		{ClinicID: testClinicID, DoctorID: "doc-a", Date: "2024-06-03", Start: 540, End: 570, Available: true},
		{ClinicID: testClinicID, DoctorID: "doc-a", Date: "2024-06-03", Start: 570, End: 600, Available: false},
	}}

	rec := serveAvailability(t, engine, http.MethodGet,
		"/clinics/"+testClinicID+"/availability/slots?date=2024-06-03")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		ClinicID string `json:"clinic_id"`
		Date     string `json:"date"`
		Count    int    `json:"count"`
		Slots    []Slot `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, testClinicID, body.ClinicID)
	assert.Equal(t, "2024-06-03", body.Date)
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Slots, 2)
	assert.True(t, body.Slots[0].Available)
}

func TestHandler_GetSlots_EmptyDayIsAList(t *testing.T) {
	rec := serveAvailability(t, &stubEngine{}, http.MethodGet,
		"/clinics/"+testClinicID+"/availability/slots?date=2024-06-03")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slots":[]`, "closed day is an empty list, not null")
}

func TestHandler_Validation(t *testing.T) {
	cases := []struct {
		name   string
		target string
	}{
		{"bad clinic id", "/clinics/not-a-uuid/availability/slots?date=2024-06-03"},
		{"missing date", "/clinics/" + testClinicID + "/availability/slots"},
		{"malformed date", "/clinics/" + testClinicID + "/availability/slots?date=06/03/2024"},
		{"past date", "/clinics/" + testClinicID + "/availability/slots?date=2024-05-31"},
		{"bad next start", "/clinics/" + testClinicID + "/availability/slots/next?start=soon"},
		{"missing time", "/clinics/" + testClinicID + "/availability/doctors/best?date=2024-06-03"},
		{"malformed time", "/clinics/" + testClinicID + "/availability/doctors/best?date=2024-06-03&time=9am"},
		{"missing range end", "/clinics/" + testClinicID + "/availability/capacity/range?start=2024-06-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serveAvailability(t, &stubEngine{}, http.MethodGet, tc.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestHandler_PastDateAllowedForCapacity(t *testing.T) {
	engine := &stubEngine{snapshot: &CapacitySnapshot{ClinicID: testClinicID, Date: "2024-05-01"}}

	rec := serveAvailability(t, engine, http.MethodGet,
		"/clinics/"+testClinicID+"/availability/capacity?date=2024-05-01")

	assert.Equal(t, http.StatusOK, rec.Code, "capacity reporting looks backwards too")
}

func TestHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		target     string
		wantStatus int
	}{
		{"no slot in horizon", ErrNoSlotAvailable,
			"/clinics/" + testClinicID + "/availability/slots/next", http.StatusNotFound},
		{"no doctor free", ErrNoDoctorAvailable,
			"/clinics/" + testClinicID + "/availability/doctors/best?date=2024-06-03&time=09:00", http.StatusNotFound},
		{"unknown clinic", schedule.ErrNotFound,
			"/clinics/" + testClinicID + "/availability/capacity?date=2024-06-03", http.StatusNotFound},
		{"range too large", ErrRangeTooLarge,
			"/clinics/" + testClinicID + "/availability/capacity/range?start=2024-06-01&end=2024-08-01", http.StatusBadRequest},
		{"inverted range", ErrInvalidRange,
			"/clinics/" + testClinicID + "/availability/capacity/range?start=2024-06-10&end=2024-06-01", http.StatusBadRequest},
		{"backend failure", errors.New("pg down"),
			"/clinics/" + testClinicID + "/availability/slots?date=2024-06-03", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serveAvailability(t, &stubEngine{err: tc.err}, http.MethodGet, tc.target)
			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "pg down", "internal causes never reach the client")
			}
		})
	}
}

func TestHandler_GetNextSlot(t *testing.T) {
	engine := &stubEngine{next: &Slot{
		ClinicID: testClinicID, DoctorID: "doc-a", Date: "2024-06-03", Start: 600, End: 630, Available: true,
	}}

	rec := serveAvailability(t, engine, http.MethodGet,
		"/clinics/"+testClinicID+"/availability/slots/next?start=2024-06-01")

	require.Equal(t, http.StatusOK, rec.Code)
	var slot Slot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slot))
	assert.Equal(t, 600, slot.Start)
}

func TestHandler_GetCapacityRange(t *testing.T) {
	engine := &stubEngine{rangeOut: []CapacitySnapshot{
		{ClinicID: testClinicID, Date: "2024-06-01", Total: 8},
		{ClinicID: testClinicID, Date: "2024-06-02", Total: 0},
	}}

	rec := serveAvailability(t, engine, http.MethodGet,
		"/clinics/"+testClinicID+"/availability/capacity/range?start=2024-06-01&end=2024-06-02")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Days      int                `json:"days"`
		Snapshots []CapacitySnapshot `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Days)
	require.Len(t, body.Snapshots, 2)
}

func TestHandler_GetBestDoctor(t *testing.T) {
	engine := &stubEngine{match: &DoctorMatch{
		DoctorID: "doc-b", Name: "Dr. B", DurationMins: 30, Load: 1,
	}}

	rec := serveAvailability(t, engine, http.MethodGet,
		"/clinics/"+testClinicID+"/availability/doctors/best?date=2024-06-03&time=10:00&service_id=svc-1")

	require.Equal(t, http.StatusOK, rec.Code)
	var match DoctorMatch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &match))
	assert.Equal(t, "doc-b", match.DoctorID)
}
