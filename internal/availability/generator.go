package availability

import (
	"sort"
	"time"

	"github.com/clinicdesk/appointment-platform/internal/ledger"
	"github.com/clinicdesk/appointment-platform/internal/schedule"
)

// GenerateSlots produces the candidate slots for one doctor on one day by
// tiling each working interval in durationMins steps. A slot is emitted while
// start+duration still fits the interval, so consecutive slots share a
// boundary and never overlap. Slots overlapping a blocking appointment of the
// doctor are kept but flagged unavailable.
//
// An inactive doctor, a missing weekday template or a non-positive duration
// yields an empty list. Partial configuration is a normal onboarding state,
// not an error.
func GenerateSlots(doctor *schedule.Doctor, date time.Time, durationMins int, appts []ledger.Appointment) []Slot {
	if doctor == nil || !doctor.Active || durationMins <= 0 {
		return nil
	}

	intervals := doctor.Hours.ForWeekday(date.Weekday())
	if len(intervals) == 0 {
		return nil
	}

	day := date.Format(DateFormat)
	blocking := blockingFor(doctor.ID, appts)

	var slots []Slot
	for _, iv := range intervals {
		for start := iv.Start; start+durationMins <= iv.End; start += durationMins {
			end := start + durationMins
			slots = append(slots, Slot{
				ClinicID:  doctor.ClinicID,
				DoctorID:  doctor.ID,
				Date:      day,
				Start:     start,
				End:       end,
				Available: !overlapsAny(blocking, start, end),
			})
		}
	}
	return slots
}

// GenerateClinicSlots unions the slots of all given doctors for one day, each
// slot still tagged with its owning doctor. durationFor lets the caller pick
// a per-doctor duration (service override or doctor default). Output is
// ordered by start time, then doctor id, so identical inputs always produce
// identical output.
func GenerateClinicSlots(doctors []schedule.Doctor, date time.Time, durationFor func(*schedule.Doctor) int, appts []ledger.Appointment) []Slot {
	var slots []Slot
	for i := range doctors {
		d := &doctors[i]
		slots = append(slots, GenerateSlots(d, date, durationFor(d), appts)...)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Start != slots[j].Start {
			return slots[i].Start < slots[j].Start
		}
		return slots[i].DoctorID < slots[j].DoctorID
	})
	return slots
}

// blockingFor filters the day's appointments down to the ones occupying the
// given doctor's time.
func blockingFor(doctorID string, appts []ledger.Appointment) []ledger.Appointment {
	var out []ledger.Appointment
	for _, a := range appts {
		if a.DoctorID == doctorID && a.Blocks() {
			out = append(out, a)
		}
	}
	return out
}

func overlapsAny(appts []ledger.Appointment, start, end int) bool {
	for _, a := range appts {
		if a.Overlaps(start, end) {
			return true
		}
	}
	return false
}
