package availability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/appointment-platform/internal/schedule"
	"github.com/clinicdesk/appointment-platform/pkg/logging"
)

// engineAPI is the slice of Engine the handler needs; narrowed so tests can
// stub it.
type engineAPI interface {
	GetAvailableSlots(ctx context.Context, clinicID string, date time.Time, serviceID, doctorID string) ([]Slot, error)
	GetClinicCapacity(ctx context.Context, clinicID string, date time.Time) (*CapacitySnapshot, error)
	FindBestDoctor(ctx context.Context, clinicID string, date time.Time, startMins int, serviceID string) (*DoctorMatch, error)
	FindNextAvailable(ctx context.Context, clinicID string, startDate time.Time) (*Slot, error)
	GetCapacityRange(ctx context.Context, clinicID string, start, end time.Time) ([]CapacitySnapshot, error)
}

// Handler exposes the availability engine over HTTP. It owns the caller-side
// validation: id and date formats, past-date rejection and the translation of
// expected-empty results into 404 responses.
type Handler struct {
	engine engineAPI
	logger *logging.Logger
	now    func() time.Time
}

// NewHandler creates an availability HTTP handler.
func NewHandler(engine engineAPI, logger *logging.Logger) *Handler {
	if engine == nil {
		panic("availability: engine required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, logger: logger, now: time.Now}
}

// GetSlots returns the slot list for a clinic day.
// GET /clinics/{clinicID}/availability/slots?date=YYYY-MM-DD[&service_id=][&doctor_id=]
func (h *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := h.clinicID(w, r)
	if !ok {
		return
	}
	date, ok := h.requireDate(w, r, "date", true)
	if !ok {
		return
	}

	slots, err := h.engine.GetAvailableSlots(r.Context(), clinicID, date,
		r.URL.Query().Get("service_id"), r.URL.Query().Get("doctor_id"))
	if err != nil {
		h.writeEngineError(w, r, "get slots", err)
		return
	}
	if slots == nil {
		slots = []Slot{}
	}

	h.writeJSON(w, map[string]any{
		"clinic_id": clinicID,
		"date":      date.Format(DateFormat),
		"count":     len(slots),
		"slots":     slots,
	})
}

// GetNextSlot returns the earliest open slot within the search horizon.
// GET /clinics/{clinicID}/availability/slots/next[?start=YYYY-MM-DD]
func (h *Handler) GetNextSlot(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := h.clinicID(w, r)
	if !ok {
		return
	}

	var start time.Time
	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := time.Parse(DateFormat, raw)
		if err != nil {
			http.Error(w, `{"error": "invalid start date, use YYYY-MM-DD"}`, http.StatusBadRequest)
			return
		}
		start = parsed
	}

	slot, err := h.engine.FindNextAvailable(r.Context(), clinicID, start)
	if err != nil {
		h.writeEngineError(w, r, "find next slot", err)
		return
	}
	h.writeJSON(w, slot)
}

// GetCapacity returns the capacity snapshot for a clinic day.
// GET /clinics/{clinicID}/availability/capacity?date=YYYY-MM-DD
func (h *Handler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := h.clinicID(w, r)
	if !ok {
		return
	}
	date, ok := h.requireDate(w, r, "date", false)
	if !ok {
		return
	}

	snap, err := h.engine.GetClinicCapacity(r.Context(), clinicID, date)
	if err != nil {
		h.writeEngineError(w, r, "get capacity", err)
		return
	}
	h.writeJSON(w, snap)
}

// GetCapacityRange returns one snapshot per day of an inclusive date range.
// GET /clinics/{clinicID}/availability/capacity/range?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) GetCapacityRange(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := h.clinicID(w, r)
	if !ok {
		return
	}
	start, ok := h.requireDate(w, r, "start", false)
	if !ok {
		return
	}
	end, ok := h.requireDate(w, r, "end", false)
	if !ok {
		return
	}

	snapshots, err := h.engine.GetCapacityRange(r.Context(), clinicID, start, end)
	if err != nil {
		h.writeEngineError(w, r, "get capacity range", err)
		return
	}

	h.writeJSON(w, map[string]any{
		"clinic_id": clinicID,
		"days":      len(snapshots),
		"snapshots": snapshots,
	})
}

// GetBestDoctor returns the best free doctor for an exact time.
// GET /clinics/{clinicID}/availability/doctors/best?date=YYYY-MM-DD&time=HH:MM[&service_id=]
func (h *Handler) GetBestDoctor(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := h.clinicID(w, r)
	if !ok {
		return
	}
	date, ok := h.requireDate(w, r, "date", true)
	if !ok {
		return
	}
	startMins, err := ParseClock(r.URL.Query().Get("time"))
	if err != nil {
		http.Error(w, `{"error": "invalid time, use HH:MM"}`, http.StatusBadRequest)
		return
	}

	match, err := h.engine.FindBestDoctor(r.Context(), clinicID, date, startMins, r.URL.Query().Get("service_id"))
	if err != nil {
		h.writeEngineError(w, r, "find best doctor", err)
		return
	}
	h.writeJSON(w, match)
}

func (h *Handler) clinicID(w http.ResponseWriter, r *http.Request) (string, bool) {
	clinicID := chi.URLParam(r, "clinicID")
	if _, err := uuid.Parse(clinicID); err != nil {
		http.Error(w, `{"error": "invalid clinic id"}`, http.StatusBadRequest)
		return "", false
	}
	return clinicID, true
}

func (h *Handler) requireDate(w http.ResponseWriter, r *http.Request, param string, rejectPast bool) (time.Time, bool) {
	raw := r.URL.Query().Get(param)
	date, err := time.Parse(DateFormat, raw)
	if err != nil {
		http.Error(w, `{"error": "invalid `+param+` date, use YYYY-MM-DD"}`, http.StatusBadRequest)
		return time.Time{}, false
	}
	if rejectPast {
		today := h.now().UTC().Truncate(24 * time.Hour)
		if date.Before(today) {
			http.Error(w, `{"error": "date must not be in the past"}`, http.StatusBadRequest)
			return time.Time{}, false
		}
	}
	return date, true
}

// writeEngineError maps engine errors onto HTTP statuses. Expected-empty
// sentinels become 404s with a friendly body; anything else is a 500 with
// the cause logged, never echoed to the client.
func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrNoDoctorAvailable), errors.Is(err, ErrNoSlotAvailable):
		http.Error(w, `{"error": "no availability"}`, http.StatusNotFound)
	case errors.Is(err, schedule.ErrNotFound):
		http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
	case errors.Is(err, ErrRangeTooLarge):
		http.Error(w, `{"error": "date range too large"}`, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidRange):
		http.Error(w, `{"error": "end date must not precede start date"}`, http.StatusBadRequest)
	default:
		h.logger.Error("availability query failed", "op", op, "path", r.URL.Path, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
