// Package availability computes bookable time slots, clinic capacity and
// doctor selection for a clinic day. Everything here is derived per request
// from the schedule and ledger snapshots and never persisted.
package availability

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel results. These are expected-empty outcomes, not failures; handlers
// map them to 404-style responses.
var (
	ErrNoDoctorAvailable = errors.New("availability: no doctor available")
	ErrNoSlotAvailable   = errors.New("availability: no slot available")
	ErrRangeTooLarge     = errors.New("availability: date range too large")
	ErrInvalidRange      = errors.New("availability: end date before start date")
)

// DateFormat is the wire format for calendar days.
const DateFormat = "2006-01-02"

// Slot is a candidate appointment window for one doctor. Start and End are
// minutes from midnight on Date; consecutive slots abut, they never overlap.
type Slot struct {
	ClinicID  string `json:"clinic_id"`
	DoctorID  string `json:"doctor_id"`
	Date      string `json:"date"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Available bool   `json:"available"`
}

// CapacitySnapshot aggregates one clinic day. Available+Booked always equals
// Total and Utilization stays within [0,1].
type CapacitySnapshot struct {
	ClinicID    string  `json:"clinic_id"`
	Date        string  `json:"date"`
	Total       int     `json:"total_slots"`
	Booked      int     `json:"booked_slots"`
	Available   int     `json:"available_slots"`
	Utilization float64 `json:"utilization"`
}

// DoctorMatch is the ranked pick of the doctor selector. Load counts the
// doctor's blocking appointments on the requested day.
type DoctorMatch struct {
	DoctorID     string `json:"doctor_id"`
	Name         string `json:"name"`
	Specialty    string `json:"specialty"`
	DurationMins int    `json:"duration_mins"`
	Load         int    `json:"load"`
}

// ParseClock converts a "15:04" clock string to minutes from midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("availability: parse clock %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes from midnight as a "15:04" clock string.
func FormatClock(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}
