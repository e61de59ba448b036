// Package schedule supplies the clinic, doctor and service configuration the
// availability engine computes over: who works when, and for how long per visit.
package schedule

import "time"

// Interval is an open working window expressed in minutes from midnight
// (e.g. 540–780 for 09:00–13:00).
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// WeeklyHours is a doctor's recurring weekly template. Each day holds zero or
// more open intervals; multiple intervals model a midday break. A day with no
// intervals means the doctor does not see patients that day.
type WeeklyHours struct {
	Monday    []Interval `json:"monday,omitempty"`
	Tuesday   []Interval `json:"tuesday,omitempty"`
	Wednesday []Interval `json:"wednesday,omitempty"`
	Thursday  []Interval `json:"thursday,omitempty"`
	Friday    []Interval `json:"friday,omitempty"`
	Saturday  []Interval `json:"saturday,omitempty"`
	Sunday    []Interval `json:"sunday,omitempty"`
}

// ForWeekday returns the open intervals for the given weekday.
func (w *WeeklyHours) ForWeekday(day time.Weekday) []Interval {
	switch day {
	case time.Monday:
		return w.Monday
	case time.Tuesday:
		return w.Tuesday
	case time.Wednesday:
		return w.Wednesday
	case time.Thursday:
		return w.Thursday
	case time.Friday:
		return w.Friday
	case time.Saturday:
		return w.Saturday
	case time.Sunday:
		return w.Sunday
	default:
		return nil
	}
}

// add appends an interval to the given weekday's template.
func (w *WeeklyHours) add(day time.Weekday, iv Interval) {
	switch day {
	case time.Monday:
		w.Monday = append(w.Monday, iv)
	case time.Tuesday:
		w.Tuesday = append(w.Tuesday, iv)
	case time.Wednesday:
		w.Wednesday = append(w.Wednesday, iv)
	case time.Thursday:
		w.Thursday = append(w.Thursday, iv)
	case time.Friday:
		w.Friday = append(w.Friday, iv)
	case time.Saturday:
		w.Saturday = append(w.Saturday, iv)
	case time.Sunday:
		w.Sunday = append(w.Sunday, iv)
	}
}

// Clinic identifies a tenant. The timezone anchors "today" for horizon scans
// and past-date defenses.
type Clinic struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"` // e.g. "America/New_York"
}

// Location resolves the clinic timezone, falling back to UTC when the stored
// name is invalid.
func (c *Clinic) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Doctor is an active or inactive practitioner owned by a single clinic.
type Doctor struct {
	ID                  string      `json:"id"`
	ClinicID            string      `json:"clinic_id"`
	Name                string      `json:"name"`
	Specialty           string      `json:"specialty"`
	DefaultDurationMins int         `json:"default_duration_mins"`
	Active              bool        `json:"active"`
	Hours               WeeklyHours `json:"hours"`
}

// Service is a bookable treatment. DurationMins of zero means "use the
// doctor's default duration". An empty qualified set means any active doctor
// of the clinic may perform it.
type Service struct {
	ID                 string   `json:"id"`
	ClinicID           string   `json:"clinic_id"`
	Name               string   `json:"name"`
	Category           string   `json:"category"`
	DurationMins       int      `json:"duration_mins"`
	QualifiedDoctorIDs []string `json:"qualified_doctor_ids,omitempty"`
}

// DurationFor returns the appointment duration in minutes for this service
// when performed by the given doctor. A nil service falls through to the
// doctor's default.
func (s *Service) DurationFor(d *Doctor) int {
	if s != nil && s.DurationMins > 0 {
		return s.DurationMins
	}
	if d != nil {
		return d.DefaultDurationMins
	}
	return 0
}

// Permits reports whether the doctor may perform this service. An empty
// qualified set permits everyone.
func (s *Service) Permits(doctorID string) bool {
	if s == nil || len(s.QualifiedDoctorIDs) == 0 {
		return true
	}
	for _, id := range s.QualifiedDoctorIDs {
		if id == doctorID {
			return true
		}
	}
	return false
}
