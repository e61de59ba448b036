package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicdesk/appointment-platform/internal/availability"
	"github.com/clinicdesk/appointment-platform/internal/ledger"
	"github.com/clinicdesk/appointment-platform/internal/schedule"
	"github.com/clinicdesk/appointment-platform/pkg/logging"
)

const testClinicID = "7f9c24e5-1b3a-4f6d-9c2e-8a5b3d1f0e47"

type fixedSchedules struct {
	doctors []schedule.Doctor
}

func (f *fixedSchedules) GetClinic(context.Context, string) (*schedule.Clinic, error) {
	return &schedule.Clinic{ID: testClinicID, Name: "Downtown", Timezone: "UTC"}, nil
}

func (f *fixedSchedules) GetDoctor(_ context.Context, _, doctorID string) (*schedule.Doctor, error) {
	for i := range f.doctors {
		if f.doctors[i].ID == doctorID {
			return &f.doctors[i], nil
		}
	}
	return nil, schedule.ErrNotFound
}

func (f *fixedSchedules) ListActiveDoctors(context.Context, string) ([]schedule.Doctor, error) {
	return f.doctors, nil
}

func (f *fixedSchedules) GetService(context.Context, string) (*schedule.Service, error) {
	return nil, schedule.ErrNotFound
}

type emptyLedger struct{}

func (emptyLedger) ListBlocking(context.Context, string, time.Time) ([]ledger.Appointment, error) {
	return nil, nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	schedules := &fixedSchedules{doctors: []schedule.Doctor{{
		ID: "doc-a", ClinicID: testClinicID, Name: "Dr. A",
		DefaultDurationMins: 30, Active: true,
		Hours: schedule.WeeklyHours{Monday: []schedule.Interval{{Start: 540, End: 660}}},
	}}}
	engine := availability.NewEngine(schedules, emptyLedger{}, availability.Options{
		Now: func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	logger := logging.New("error")

	return New(&Config{
		Logger:         logger,
		Availability:   availability.NewHandler(engine, logger),
		MetricsHandler: promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{}),
	})
}

func TestRouterHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid health body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %q", body["status"])
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRouterAvailabilityRoutes(t *testing.T) {
	rec := httptest.NewRecorder()
	target := "/clinics/" + testClinicID + "/availability/capacity?date=2024-06-03"
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	var snap availability.CapacitySnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid capacity body: %v", err)
	}
	if snap.Total != 4 {
		t.Fatalf("expected 4 total slots on a Monday, got %d", snap.Total)
	}
}

func TestRouterRejectsBadClinicID(t *testing.T) {
	rec := httptest.NewRecorder()
	target := "/clinics/front-desk/availability/capacity?date=2024-06-03"
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}
